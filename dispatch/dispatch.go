// Package dispatch provides the Dispatcher: the rename-and-issue edge that
// reads the decoded-instruction stream, allocates ROB entries, resolves
// operands via the three-tier bypass, and routes filled instructions to
// the matching reservation station.
package dispatch

import (
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/insts"
	"github.com/rogerflowey/tomasulo-rv32/regfile"
	"github.com/rogerflowey/tomasulo-rv32/rob"
)

// Dispatcher is the single-issue rename/dispatch stage.
type Dispatcher struct {
	in   *channel.Channel[insts.Instruction]
	rob  *rob.ROB
	regs *regfile.RegisterFile
	cdb  *channel.Bus[rob.CDBResult]

	aluOut    *channel.Channel[insts.Filled]
	branchOut *channel.Channel[insts.Filled]
	memOut    *channel.Channel[insts.Filled]

	flush *channel.Bus[bool]

	stalls uint64
}

// New creates a Dispatcher subscribed to clk's rising edge. in is the
// frontend's decoded-instruction channel; r and regs are the core's
// shared ROB and register file; cdbBus is read for same-cycle operand
// bypass; aluOut/branchOut/memOut are the three reservation stations'
// input channels; flushBus is the global flush pulse.
func New(clk *clock.Clock, in *channel.Channel[insts.Instruction], r *rob.ROB, regs *regfile.RegisterFile, cdbBus *channel.Bus[rob.CDBResult], aluOut, branchOut, memOut *channel.Channel[insts.Filled], flushBus *channel.Bus[bool]) *Dispatcher {
	d := &Dispatcher{
		in: in, rob: r, regs: regs, cdb: cdbBus,
		aluOut: aluOut, branchOut: branchOut, memOut: memOut,
		flush: flushBus,
	}
	clk.OnRising(d.tick)
	return d
}

// Stalls reports how many cycles dispatch could not proceed (ROB full, the
// target reservation station could not accept, or the instruction is
// INVALID and has no reservation station), for stats.
func (d *Dispatcher) Stalls() uint64 { return d.stalls }

func (d *Dispatcher) tick() {
	if v, ok := d.flush.Get(); ok && v {
		return
	}

	inst, ok := d.in.Peek()
	if !ok {
		return
	}

	if !d.rob.CanAllocate() {
		d.stalls++
		return
	}

	if inst.IsHalt() {
		d.rob.Allocate(rob.NewEntry{Op: inst.Op, PC: inst.PC, DestReg: 0, State: rob.Halt})
		d.in.Receive()
		return
	}

	dest := d.destChannel(inst)
	if dest == nil || !dest.CanSend() {
		d.stalls++
		return
	}

	d.in.Receive()

	filled := insts.Filled{Inst: inst}
	// AUIPC and the Branch Unit's link-value computation both need pc;
	// alu.Compute and branchunit.Resolve read it from Inst.PC directly
	// rather than through a register operand. Sources are resolved before
	// rd is renamed, so an instruction whose rd is also a source waits on
	// the previous writer, not on itself.
	filled.VRs1, filled.QRs1 = d.resolve(inst.Rs1)
	filled.VRs2, filled.QRs2 = d.resolve(inst.Rs2)

	tag := d.rob.Allocate(rob.NewEntry{
		Op: inst.Op, PC: inst.PC, DestReg: inst.Rd,
		State: rob.Issued, IsBranch: inst.IsBranch, PredictedTaken: inst.PredictedTaken,
	})
	if inst.Rd != 0 {
		d.regs.Preset(inst.Rd, tag)
	}
	filled.ID = tag

	dest.Send(filled)
}

// destChannel returns the reservation-station input channel for inst's
// opcode class.
func (d *Dispatcher) destChannel(inst insts.Instruction) *channel.Channel[insts.Filled] {
	switch {
	case inst.Op.IsALU():
		return d.aluOut
	case inst.Op.IsBranch():
		return d.branchOut
	case inst.Op.IsMem():
		return d.memOut
	}
	return nil
}

// resolve reads (value, tag) for source register r and, if renamed,
// attempts the three-tier bypass in order: this cycle's CDB broadcast, a
// COMMIT_READY ROB entry, or else records the tag to wait on.
func (d *Dispatcher) resolve(r uint8) (value uint32, tag uint32) {
	v, t := d.regs.Read(r)
	if t == 0 {
		return v, 0
	}
	if cdbVal, ok := d.cdb.Get(); ok && cdbVal.RobID == t {
		return cdbVal.Value, 0
	}
	if robVal, ok := d.rob.Lookup(t); ok {
		return robVal, 0
	}
	return 0, t
}
