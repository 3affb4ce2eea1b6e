package insts_test

import (
	"testing"

	"github.com/rogerflowey/tomasulo-rv32/insts"
)

func TestOpClassification(t *testing.T) {
	cases := []struct {
		op         insts.Op
		wantALU    bool
		wantMem    bool
		wantBranch bool
		wantStore  bool
	}{
		{insts.ADD, true, false, false, false},
		{insts.ADDI, true, false, false, false},
		{insts.LUI, true, false, false, false},
		{insts.AUIPC, true, false, false, false},
		{insts.LW, false, true, false, false},
		{insts.SW, false, true, false, true},
		{insts.SB, false, true, false, true},
		{insts.BEQ, false, false, true, false},
		{insts.JAL, false, false, true, false},
		{insts.JALR, false, false, true, false},
		{insts.INVALID, false, false, false, false},
	}

	for _, c := range cases {
		if got := c.op.IsALU(); got != c.wantALU {
			t.Errorf("%v.IsALU() = %v, want %v", c.op, got, c.wantALU)
		}
		if got := c.op.IsMem(); got != c.wantMem {
			t.Errorf("%v.IsMem() = %v, want %v", c.op, got, c.wantMem)
		}
		if got := c.op.IsBranch(); got != c.wantBranch {
			t.Errorf("%v.IsBranch() = %v, want %v", c.op, got, c.wantBranch)
		}
		if got := c.op.IsStore(); got != c.wantStore {
			t.Errorf("%v.IsStore() = %v, want %v", c.op, got, c.wantStore)
		}
	}
}

func TestIsHalt(t *testing.T) {
	halt := insts.Decode(insts.HaltWord, 0)
	if !halt.IsHalt() {
		t.Fatalf("expected halt sentinel to be recognized")
	}

	notHalt := insts.Instruction{Op: insts.ADDI, Rd: 10, Rs1: 0, Imm: 254}
	if notHalt.IsHalt() {
		t.Fatalf("imm=254 must not be recognized as halt")
	}
}
