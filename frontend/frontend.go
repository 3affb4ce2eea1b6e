// Package frontend provides the instruction supply side of the core:
// fetch, decode, branch-direction prediction, and PC sequencing. None of
// these are part of the Tomasulo core proper (ROB/RS/CDB/MOB); they are
// the upstream collaborator that feeds decoded instructions to the
// dispatcher.
package frontend

import (
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/insts"
	"github.com/rogerflowey/tomasulo-rv32/memsys"
)

// Frontend fetches one instruction per cycle, decodes it, attaches a
// predicted branch direction, and pushes it onto its output channel for
// the dispatcher to consume.
type Frontend struct {
	fetcher   *Fetcher
	predictor *Predictor
	pcLogic   *PCLogic

	out      *channel.Channel[insts.Instruction]
	flush    *channel.Bus[bool]
	flushPC  *channel.Channel[uint32]
	selfFlush *channel.Bus[bool] // internal stall/flush path; see frontend.go doc comment

	lastPC  uint32
	pending bool // true once a word has been fetched but not yet accepted by out
	word    uint32
}

// New creates a Frontend subscribed to clk's rising edge. mem is the
// unified memory array fetch reads from; out is the decoded-instruction
// channel into the dispatcher; flushBus/flushPC are the committer's global
// flush pulse and redirect-target channel.
//
// The original design wires a second, frontend-internal flush bus
// (independent of the committer's global one) for cases where the
// frontend itself needs to invalidate a fetch in flight — e.g. a decode
// stall condition. This module's decode model has no such internal stall
// condition, so selfFlush is allocated and observed for symmetry with
// that design but is never driven by any component here.
func New(clk *clock.Clock, mem *memsys.Array, out *channel.Channel[insts.Instruction], flushBus *channel.Bus[bool], flushPC *channel.Channel[uint32]) *Frontend {
	f := &Frontend{
		fetcher:   NewFetcher(mem),
		predictor: NewPredictor(),
		pcLogic:   NewPCLogic(),
		out:       out,
		flush:     flushBus,
		flushPC:   flushPC,
		selfFlush: channel.NewBus[bool](clk),
	}
	clk.OnRising(f.tick)
	return f
}

func (f *Frontend) tick() {
	flushed := false
	if v, ok := f.flush.Get(); ok && v {
		flushed = true
	}
	if v, ok := f.selfFlush.Get(); ok && v {
		flushed = true
	}

	if flushed {
		f.out.Clear()
		f.pending = false
		target, ok := f.flushPC.Receive()
		if ok {
			f.pcLogic.Advance(target)
		}
		return
	}

	if !f.pending {
		f.lastPC = f.pcLogic.Current()
		f.word = f.fetcher.Fetch(f.lastPC)
		f.pending = true
	}

	if !f.out.CanSend() {
		return
	}

	inst := insts.Decode(f.word, f.lastPC)
	next := f.lastPC + 4
	if inst.IsBranch {
		switch inst.Op {
		case insts.JAL:
			inst.PredictedTaken = true
			next = f.lastPC + inst.Imm
		case insts.JALR:
			// Target depends on a register value unavailable at fetch
			// time, so fall through sequentially here; the Branch Unit's
			// is_taken for JALR is unconditionally true, and predicting
			// false is what makes the committer's is_taken != predicted
			// check fire every time, redirecting to the computed target.
			inst.PredictedTaken = false
		default:
			inst.PredictedTaken = f.predictor.Predict(f.lastPC)
			if inst.PredictedTaken {
				next = f.lastPC + inst.Imm
			}
		}
	}

	f.out.Send(inst)
	f.pending = false
	f.pcLogic.Advance(next)
}

// Predictor exposes the frontend's branch predictor so the committer can
// feed it actual outcomes at commit time (see commit.Committer).
func (f *Frontend) Predictor() *Predictor {
	return f.predictor
}
