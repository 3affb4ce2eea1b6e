package memsys

import (
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/insts"
	"github.com/rogerflowey/tomasulo-rv32/rob"
)

// opSize returns the access width and sign-extension behavior of a
// memory-class op.
func opSize(op insts.Op) (size uint8, isSigned bool) {
	switch op {
	case insts.LB:
		return 1, true
	case insts.LH:
		return 2, true
	case insts.LW:
		return 4, false
	case insts.LBU:
		return 1, false
	case insts.LHU:
		return 2, false
	case insts.SB:
		return 1, false
	case insts.SH:
		return 2, false
	case insts.SW:
		return 4, false
	}
	return 0, false
}

// RSSize is the fixed capacity of the Memory Reservation Station.
const RSSize = 32

// RS is the Memory Reservation Station: structurally a reservation-station
// pool like rs.Station, but on accepting a new instruction it additionally
// marks the MOB with the operation's program order before operands are
// known (so the MOB learns store-vs-load ordering ahead of address
// resolution), and dispatches a Fill — not a functional-unit issue — once
// operands resolve.
type RS struct {
	in      *channel.Channel[insts.Filled]
	markOut *channel.Channel[Mark]
	fillOut *channel.Channel[Fill]
	cdb     *channel.Bus[rob.CDBResult]
	flush   *channel.Bus[bool]

	pool []insts.Filled
}

// NewRS creates a Memory Reservation Station subscribed to clk's rising
// edge. in is the dispatch-to-station channel; markOut feeds the MOB's
// MarkIn as soon as an instruction is accepted; fillOut feeds the MOB's
// FillIn once operands are ready; cdbBus is the broadcast bus operands are
// captured from; flushBus is the global flush pulse.
func NewRS(clk *clock.Clock, in *channel.Channel[insts.Filled], markOut *channel.Channel[Mark], fillOut *channel.Channel[Fill], cdbBus *channel.Bus[rob.CDBResult], flushBus *channel.Bus[bool]) *RS {
	s := &RS{in: in, markOut: markOut, fillOut: fillOut, cdb: cdbBus, flush: flushBus}
	clk.OnRising(s.tick)
	return s
}

// Len reports how many instructions are currently waiting, for stats and
// tests.
func (s *RS) Len() int { return len(s.pool) }

func (s *RS) tick() {
	if v, ok := s.flush.Get(); ok && v {
		s.pool = s.pool[:0]
		s.in.Clear()
		return
	}

	if len(s.pool) < RSSize {
		if fi, ok := s.in.Peek(); ok && s.markOut.CanSend() {
			kind := Read
			if fi.Inst.Op.IsStore() {
				kind = Write
			}
			if s.markOut.Send(Mark{RobID: fi.ID, Kind: kind}) {
				s.in.Receive()
				s.pool = append(s.pool, fi)
			}
		}
	}

	if v, ok := s.cdb.Get(); ok {
		for i := range s.pool {
			e := &s.pool[i]
			if e.QRs1 == v.RobID && e.QRs1 != 0 {
				e.VRs1 = v.Value
				e.QRs1 = 0
			}
			if e.QRs2 == v.RobID && e.QRs2 != 0 {
				e.VRs2 = v.Value
				e.QRs2 = 0
			}
		}
	}

	s.dispatch()
}

// dispatch selects the first operand-ready entry in storage order and, if
// the MOB's fill channel accepts, removes it from the pool and converts it
// to a Fill (address/data computed here, once, rather than recomputed by
// the MOB).
func (s *RS) dispatch() {
	if !s.fillOut.CanSend() {
		return
	}
	for i := range s.pool {
		e := s.pool[i]
		if e.QRs1 != 0 || e.QRs2 != 0 {
			continue
		}
		size, isSigned := opSize(e.Inst.Op)
		fill := Fill{
			RobID:    e.ID,
			Address:  e.VRs1 + e.Inst.Imm,
			Size:     size,
			IsSigned: isSigned,
		}
		if e.Inst.Op.IsStore() {
			fill.Kind = Write
			fill.Data = e.VRs2
		} else {
			fill.Kind = Read
		}
		if s.fillOut.Send(fill) {
			s.pool = append(s.pool[:i], s.pool[i+1:]...)
		}
		return
	}
}
