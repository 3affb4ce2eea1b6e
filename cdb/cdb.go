// Package cdb provides the Common Data Bus: the single broadcast resource
// that multiplexes every functional unit's result channel onto one
// (tag, value) pulse per cycle.
package cdb

import (
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/rob"
)

// CDB owns one outgoing broadcast Bus and arbitrates among N producer
// Channels, one of which may win each cycle.
type CDB struct {
	clk    *clock.Clock
	out    *channel.Bus[rob.CDBResult]
	inputs []*channel.Channel[rob.CDBResult]
	flush  *channel.Bus[bool]
}

// New creates a CDB subscribed to clk's rising edge. inputs are the
// producer channels (ALU, branch-link, memory-load-result,
// memory-store-done, in any order); flushBus is the global flush pulse.
func New(clk *clock.Clock, flushBus *channel.Bus[bool], inputs ...*channel.Channel[rob.CDBResult]) *CDB {
	c := &CDB{
		clk:    clk,
		out:    channel.NewBus[rob.CDBResult](clk),
		inputs: inputs,
		flush:  flushBus,
	}
	clk.OnRising(c.arbitrate)
	return c
}

// Out is the broadcast bus every reservation station and the ROB observe.
func (c *CDB) Out() *channel.Bus[rob.CDBResult] {
	return c.out
}

// arbitrate runs on the rising edge. On a flush cycle every input is
// drained and discarded, with no broadcast. Otherwise it scans the N
// inputs starting at cycle_count mod N in round-robin order; the first
// non-empty channel's value is forwarded. At most one broadcast per cycle.
func (c *CDB) arbitrate() {
	if v, ok := c.flush.Get(); ok && v {
		for _, in := range c.inputs {
			in.Receive()
		}
		return
	}

	n := len(c.inputs)
	if n == 0 {
		return
	}
	start := int(c.clk.Cycle() % uint64(n))
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if v, ok := c.inputs[idx].Peek(); ok {
			c.inputs[idx].Receive()
			c.out.Send(v)
			return
		}
	}
}
