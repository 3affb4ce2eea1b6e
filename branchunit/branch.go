// Package branchunit implements the single-cycle Branch Unit: it resolves
// a branch's actual direction and target, and for JAL/JALR also produces
// the link value for the destination register.
package branchunit

import (
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/insts"
	"github.com/rogerflowey/tomasulo-rv32/rob"
)

// Unit resolves one branch-class instruction per cycle.
type Unit struct {
	in        *channel.Channel[insts.Filled]
	branchOut *channel.Channel[rob.BranchResult]
	cdbOut    *channel.Channel[rob.CDBResult]
	flush     *channel.Bus[bool]
}

// New creates a Unit subscribed to clk's rising edge. in carries filled
// branch-class instructions; branchOut delivers the resolved outcome to
// the committer; cdbOut is this unit's private producer channel, used only
// by JAL/JALR to post a link value.
func New(clk *clock.Clock, in *channel.Channel[insts.Filled], branchOut *channel.Channel[rob.BranchResult], cdbOut *channel.Channel[rob.CDBResult], flushBus *channel.Bus[bool]) *Unit {
	u := &Unit{in: in, branchOut: branchOut, cdbOut: cdbOut, flush: flushBus}
	clk.OnRising(u.tick)
	return u
}

func (u *Unit) tick() {
	if v, ok := u.flush.Get(); ok && v {
		u.in.Receive()
		return
	}

	fi, ok := u.in.Peek()
	if !ok {
		return
	}
	needsLink := fi.Inst.Op == insts.JAL || fi.Inst.Op == insts.JALR
	if !u.branchOut.CanSend() {
		return
	}
	if needsLink && !u.cdbOut.CanSend() {
		return
	}

	fi, _ = u.in.Receive()
	isTaken, target := Resolve(fi.Inst.Op, fi.VRs1, fi.VRs2, fi.Inst.Imm, fi.Inst.PC)
	u.branchOut.Send(rob.BranchResult{RobID: fi.ID, IsTaken: isTaken, TargetPC: target})
	if needsLink {
		u.cdbOut.Send(rob.CDBResult{RobID: fi.ID, Value: fi.Inst.PC + 4})
	}
}

// Resolve is the pure evaluation of a branch-class op's direction and
// target, given its operands, immediate, and pc.
func Resolve(op insts.Op, vrs1, vrs2, imm, pc uint32) (taken bool, target uint32) {
	switch op {
	case insts.BEQ:
		return vrs1 == vrs2, pc + imm
	case insts.BNE:
		return vrs1 != vrs2, pc + imm
	case insts.BLT:
		return int32(vrs1) < int32(vrs2), pc + imm
	case insts.BGE:
		return int32(vrs1) >= int32(vrs2), pc + imm
	case insts.BLTU:
		return vrs1 < vrs2, pc + imm
	case insts.BGEU:
		return vrs1 >= vrs2, pc + imm
	case insts.JAL:
		return true, pc + imm
	case insts.JALR:
		return true, (vrs1 + imm) &^ 1
	}
	return false, pc + 4
}
