// Package commit provides the Committer: the retire edge that drives the
// ROB's state transitions from CDB and branch-unit observations, retires
// the head entry in program order, and asserts the pipeline-wide flush on
// a branch misprediction.
package commit

import (
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/frontend"
	"github.com/rogerflowey/tomasulo-rv32/regfile"
	"github.com/rogerflowey/tomasulo-rv32/rob"
)

// Result is what the Committer reports once the simulation halts.
type Result struct {
	ExitCode uint8
	Cycles   uint64
}

// Committer is the in-order retire stage. It is also the sole driver of
// the ROB's state machine: the ROB exposes ObserveCDB/ObserveBranch as
// plain methods (§4.4), and the committer — already holding the ROB
// reference as the component nearest the retire edge — is the natural
// place to invoke them every cycle, ahead of checking the head for
// retirement.
type Committer struct {
	rob       *rob.ROB
	regs      *regfile.RegisterFile
	predictor *frontend.Predictor

	cdb        *channel.Bus[rob.CDBResult]
	branchIn   *channel.Channel[rob.BranchResult]
	commitBus  *channel.Bus[uint32]
	flush      *channel.Bus[bool]
	flushPCOut *channel.Channel[uint32]

	committed uint64
	flushes   uint64

	halted   bool
	exitCode uint8
}

// New creates a Committer subscribed to clk's rising edge. r and regs are
// the core's shared ROB and register file; predictor is updated with the
// actual outcome of every committed branch; cdbBus and branchIn feed the
// ROB's state machine; commitBus broadcasts each retired tag (observed by
// the MOB); flushBus/flushPCOut assert the pipeline-wide misprediction
// flush and its redirect target.
func New(clk *clock.Clock, r *rob.ROB, regs *regfile.RegisterFile, predictor *frontend.Predictor, cdbBus *channel.Bus[rob.CDBResult], branchIn *channel.Channel[rob.BranchResult], commitBus *channel.Bus[uint32], flushBus *channel.Bus[bool], flushPCOut *channel.Channel[uint32]) *Committer {
	c := &Committer{
		rob: r, regs: regs, predictor: predictor,
		cdb: cdbBus, branchIn: branchIn, commitBus: commitBus,
		flush: flushBus, flushPCOut: flushPCOut,
	}
	clk.OnRising(c.tick)
	return c
}

// Halted reports whether the halt sentinel has retired.
func (c *Committer) Halted() bool { return c.halted }

// Result returns the halt outcome; valid only once Halted is true.
func (c *Committer) Result() Result {
	return Result{ExitCode: c.exitCode & 0xFF}
}

// Committed reports the total number of retired instructions, for stats.
func (c *Committer) Committed() uint64 { return c.committed }

// Flushes reports the total number of misprediction flushes asserted, for
// stats.
func (c *Committer) Flushes() uint64 { return c.flushes }

func (c *Committer) tick() {
	if c.halted {
		return
	}

	if v, ok := c.flush.Get(); ok && v {
		c.branchIn.Receive()
		c.rob.Flush()
		c.regs.Flush()
		return
	}

	if v, ok := c.cdb.Get(); ok {
		c.rob.ObserveCDB(v)
	}
	if br, ok := c.branchIn.Receive(); ok {
		c.rob.ObserveBranch(br)
	}

	e, ok := c.rob.Front()
	if !ok {
		return
	}

	switch e.State {
	case rob.Halt:
		c.exitCode = uint8(c.regs.Arch(10) & 0xFF)
		c.halted = true
		return

	case rob.CommitReady:
		if e.DestReg != 0 {
			c.regs.Writeback(e.DestReg, e.ID, e.Value)
		}
		c.committed++
		c.commitBus.Send(e.ID)

		if e.IsBranch {
			c.predictor.Update(e.PC, e.IsTaken)
			if e.IsTaken != e.PredictedTaken {
				target := e.PC + 4
				if e.IsTaken {
					target = e.TargetPC
				}
				c.flushPCOut.Send(target)
				c.flush.Send(true)
				c.flushes++
				return
			}
		}

		c.rob.PopFront()
	}
}
