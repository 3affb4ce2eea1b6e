package frontend

// PCLogic owns the frontend's program counter. A flush redirect (checked
// by Frontend before any predicted-next address, see frontend.go) always
// takes priority over a queued prediction — the frontend's queued
// prediction must not apply to the address the flush is redirecting away
// from.
type PCLogic struct {
	pc uint32
}

// NewPCLogic creates a PCLogic starting execution at address 0.
func NewPCLogic() *PCLogic {
	return &PCLogic{}
}

// Current returns the address to fetch from this cycle.
func (p *PCLogic) Current() uint32 {
	return p.pc
}

// Advance sets the address for the next cycle's fetch — either the
// sequential/predicted address, or a flush redirect target.
func (p *PCLogic) Advance(next uint32) {
	p.pc = next
}
