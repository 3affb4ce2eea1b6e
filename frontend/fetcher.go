package frontend

import "github.com/rogerflowey/tomasulo-rv32/memsys"

// Fetcher reads a 32-bit little-endian instruction word directly from the
// unified memory array, bypassing the request/latency machinery the
// execute-time memory subsystem uses — instruction fetch is not modeled
// with latency in this core.
type Fetcher struct {
	mem *memsys.Array
}

// NewFetcher creates a Fetcher reading from mem.
func NewFetcher(mem *memsys.Array) *Fetcher {
	return &Fetcher{mem: mem}
}

// Fetch returns the word at pc. An out-of-range pc is not fatal: Array's
// ReadWord logs a diagnostic and synthesizes 0x00000000 (which decodes to
// INVALID, an instruction the dispatcher never issues), the reference
// design's defensive fetch behavior, rather than aborting the simulation
// on a runaway PC.
func (f *Fetcher) Fetch(pc uint32) uint32 {
	return f.mem.ReadWord(pc)
}
