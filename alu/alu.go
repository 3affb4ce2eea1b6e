// Package alu implements the single-cycle ALU functional unit: integer
// arithmetic, logic, shifts, and comparisons, plus LUI/AUIPC.
package alu

import (
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/insts"
	"github.com/rogerflowey/tomasulo-rv32/rob"
)

// ALU computes a result for one filled instruction per cycle and posts it
// to the Common Data Bus.
type ALU struct {
	in    *channel.Channel[insts.Filled]
	out   *channel.Channel[rob.CDBResult]
	flush *channel.Bus[bool]
}

// New creates an ALU subscribed to clk's rising edge. in carries filled
// ALU-class instructions from the ALU reservation station; out is this
// unit's private producer channel into the CDB.
func New(clk *clock.Clock, in *channel.Channel[insts.Filled], out *channel.Channel[rob.CDBResult], flushBus *channel.Bus[bool]) *ALU {
	a := &ALU{in: in, out: out, flush: flushBus}
	clk.OnRising(a.tick)
	return a
}

func (a *ALU) tick() {
	if v, ok := a.flush.Get(); ok && v {
		a.in.Receive()
		return
	}
	if !a.out.CanSend() {
		return
	}
	fi, ok := a.in.Receive()
	if !ok {
		return
	}
	result := Compute(fi.Inst.Op, fi.VRs1, fi.VRs2, fi.Inst.Imm, fi.Inst.PC)
	a.out.Send(rob.CDBResult{RobID: fi.ID, Value: result})
}

// Compute evaluates one ALU-class operation. pc is only used by AUIPC,
// which reads it directly rather than via vrs1; no other ALU op uses pc.
func Compute(op insts.Op, vrs1, vrs2, imm, pc uint32) uint32 {
	switch op {
	case insts.ADD:
		return vrs1 + vrs2
	case insts.SUB:
		return vrs1 - vrs2
	case insts.AND:
		return vrs1 & vrs2
	case insts.OR:
		return vrs1 | vrs2
	case insts.XOR:
		return vrs1 ^ vrs2
	case insts.SLL:
		return vrs1 << (vrs2 & 0x1F)
	case insts.SRL:
		return vrs1 >> (vrs2 & 0x1F)
	case insts.SRA:
		return uint32(int32(vrs1) >> (vrs2 & 0x1F))
	case insts.SLT:
		if int32(vrs1) < int32(vrs2) {
			return 1
		}
		return 0
	case insts.SLTU:
		if vrs1 < vrs2 {
			return 1
		}
		return 0
	case insts.ADDI:
		return vrs1 + imm
	case insts.ANDI:
		return vrs1 & imm
	case insts.ORI:
		return vrs1 | imm
	case insts.XORI:
		return vrs1 ^ imm
	case insts.SLLI:
		return vrs1 << (imm & 0x1F)
	case insts.SRLI:
		return vrs1 >> (imm & 0x1F)
	case insts.SRAI:
		return uint32(int32(vrs1) >> (imm & 0x1F))
	case insts.SLTI:
		if int32(vrs1) < int32(imm) {
			return 1
		}
		return 0
	case insts.SLTIU:
		if vrs1 < imm {
			return 1
		}
		return 0
	case insts.LUI:
		return imm
	case insts.AUIPC:
		return pc + imm
	}
	return 0
}
