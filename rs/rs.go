// Package rs provides the Reservation Station pools (ALU and Branch
// variants) that hold dispatched instructions until their operands arrive
// over the Common Data Bus.
package rs

import (
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/insts"
	"github.com/rogerflowey/tomasulo-rv32/rob"
)

// Size is the fixed capacity of one reservation station pool.
const Size = 32

// Station is an unordered pool of filled instructions awaiting operands,
// feeding a single functional unit of one class (ALU or Branch).
type Station struct {
	in    *channel.Channel[insts.Filled]
	out   *channel.Channel[insts.Filled]
	cdb   *channel.Bus[rob.CDBResult]
	flush *channel.Bus[bool]

	pool []insts.Filled
}

// New creates a Station subscribed to clk's rising edge. in is the
// dispatch-to-station channel, out is the station-to-functional-unit
// channel, cdb is the broadcast bus operands are captured from, and
// flushBus is the global flush pulse.
func New(clk *clock.Clock, in, out *channel.Channel[insts.Filled], cdbBus *channel.Bus[rob.CDBResult], flushBus *channel.Bus[bool]) *Station {
	s := &Station{in: in, out: out, cdb: cdbBus, flush: flushBus}
	clk.OnRising(s.tick)
	return s
}

// Len reports how many instructions are currently waiting, for stats and
// tests.
func (s *Station) Len() int {
	return len(s.pool)
}

func (s *Station) tick() {
	if v, ok := s.flush.Get(); ok && v {
		s.pool = s.pool[:0]
		s.in.Clear()
		return
	}

	if len(s.pool) < Size {
		if fi, ok := s.in.Receive(); ok {
			s.pool = append(s.pool, fi)
		}
	}

	if v, ok := s.cdb.Get(); ok {
		s.captureOperands(v)
	}

	s.issue()
}

// captureOperands resolves any entry waiting on res.RobID.
func (s *Station) captureOperands(res rob.CDBResult) {
	for i := range s.pool {
		e := &s.pool[i]
		if e.QRs1 == res.RobID && e.QRs1 != 0 {
			e.VRs1 = res.Value
			e.QRs1 = 0
		}
		if e.QRs2 == res.RobID && e.QRs2 != 0 {
			e.VRs2 = res.Value
			e.QRs2 = 0
		}
	}
}

// issue selects the first ready entry in storage order and, if the
// functional-unit channel accepts, removes it from the pool. Any ready
// entry is a correct choice; storage-order selection needs no priority
// policy.
func (s *Station) issue() {
	if !s.out.CanSend() {
		return
	}
	for i := range s.pool {
		e := s.pool[i]
		if e.QRs1 == 0 && e.QRs2 == 0 {
			if s.out.Send(e) {
				s.pool = append(s.pool[:i], s.pool[i+1:]...)
			}
			return
		}
	}
}
