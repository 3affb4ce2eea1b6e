// Package harness assembles the whole core — frontend, dispatcher, CDB,
// reservation stations, functional units, memory subsystem, and
// committer — into one runnable value. It owns every channel by value
// (through the Go heap, but with no component retaining anything the
// harness itself does not also reference), avoiding the cyclic
// channel-ownership-by-reference pattern the source repo's wiring uses:
// each component stores only handles to the channels the harness created,
// and the harness's own lifetime encloses all of them.
package harness

import (
	"io"
	"log"
	"os"

	"github.com/rogerflowey/tomasulo-rv32/alu"
	"github.com/rogerflowey/tomasulo-rv32/branchunit"
	"github.com/rogerflowey/tomasulo-rv32/cdb"
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/commit"
	"github.com/rogerflowey/tomasulo-rv32/dispatch"
	"github.com/rogerflowey/tomasulo-rv32/frontend"
	"github.com/rogerflowey/tomasulo-rv32/insts"
	"github.com/rogerflowey/tomasulo-rv32/memsys"
	"github.com/rogerflowey/tomasulo-rv32/regfile"
	"github.com/rogerflowey/tomasulo-rv32/rob"
	"github.com/rogerflowey/tomasulo-rv32/rs"
)

// Stats are the harness's own counters; derived ratios are computed from
// them on demand rather than tracked incrementally.
type Stats struct {
	Cycles      uint64
	Committed   uint64
	Flushes     uint64
	StallCycles uint64
}

// CPI returns cycles committed per instruction, the harness's headline
// derived metric.
func (s Stats) CPI() float64 {
	if s.Committed == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Committed)
}

// Option configures a Harness at construction time.
type Option func(*Harness)

// WithTraceWriter directs per-cycle diagnostics (currently just
// out-of-bounds memory/fetch warnings) to w instead of stderr.
func WithTraceWriter(w io.Writer) Option {
	return func(h *Harness) { h.traceWriter = w }
}

// WithRegisterPreset sets architectural register r to v before the first
// cycle runs, primarily for tests that need a non-zero initial register
// state without encoding setup instructions.
func WithRegisterPreset(r uint8, v uint32) Option {
	return func(h *Harness) { h.presets = append(h.presets, regPreset{r, v}) }
}

// WithMaxCycles caps Run at n cycles even if the program never halts; 0
// (the default) means unbounded. This is a host-owned safety valve, not
// part of the core's contract.
func WithMaxCycles(n uint64) Option {
	return func(h *Harness) { h.maxCycles = n }
}

type regPreset struct {
	reg uint8
	val uint32
}

// Harness owns every component and channel of one core instance.
type Harness struct {
	clk *clock.Clock

	mem  *memsys.Array
	regs *regfile.RegisterFile
	rob  *rob.ROB

	frontend   *frontend.Frontend
	dispatcher *dispatch.Dispatcher
	committer  *commit.Committer

	aluStation    *rs.Station
	branchStation *rs.Station
	memStation    *memsys.RS
	mob           *memsys.MOB

	stats Stats

	traceWriter io.Writer
	maxCycles   uint64
	presets     []regPreset
}

// New builds a complete Harness over the given memory image (loaded at
// address 0) and wires every component together.
func New(image []byte, opts ...Option) *Harness {
	h := &Harness{}
	for _, opt := range opts {
		opt(h)
	}

	h.clk = clock.New()
	h.regs = regfile.New()
	h.rob = rob.New()
	for _, p := range h.presets {
		h.regs.Writeback(p.reg, 0, p.val)
	}

	flushBus := channel.NewBus[bool](h.clk)
	flushPC := channel.New[uint32](h.clk)
	commitBus := channel.NewBus[uint32](h.clk)

	decodedCh := channel.New[insts.Instruction](h.clk)

	aluIn := channel.New[insts.Filled](h.clk)
	aluExec := channel.New[insts.Filled](h.clk)
	aluCDBOut := channel.New[rob.CDBResult](h.clk)

	branchIn := channel.New[insts.Filled](h.clk)
	branchExec := channel.New[insts.Filled](h.clk)
	branchResultCh := channel.New[rob.BranchResult](h.clk)
	branchCDBOut := channel.New[rob.CDBResult](h.clk)

	memIn := channel.New[insts.Filled](h.clk)
	markCh := channel.New[memsys.Mark](h.clk)
	fillCh := channel.New[memsys.Fill](h.clk)
	storeDoneOut := channel.New[rob.CDBResult](h.clk)
	loadResultOut := channel.New[rob.CDBResult](h.clk)
	reqCh := channel.NewHandshake[memsys.Request]()

	cdbUnit := cdb.New(h.clk, flushBus, aluCDBOut, branchCDBOut, loadResultOut, storeDoneOut)

	traceWriter := h.traceWriter
	if traceWriter == nil {
		traceWriter = os.Stderr
	}
	h.mem = memsys.NewArray(h.clk, reqCh, loadResultOut, flushBus, log.New(traceWriter, "memsys: ", log.LstdFlags))
	h.mem.Load(image)

	h.frontend = frontend.New(h.clk, h.mem, decodedCh, flushBus, flushPC)

	h.dispatcher = dispatch.New(h.clk, decodedCh, h.rob, h.regs, cdbUnit.Out(), aluIn, branchIn, memIn, flushBus)

	h.aluStation = rs.New(h.clk, aluIn, aluExec, cdbUnit.Out(), flushBus)
	alu.New(h.clk, aluExec, aluCDBOut, flushBus)

	h.branchStation = rs.New(h.clk, branchIn, branchExec, cdbUnit.Out(), flushBus)
	branchunit.New(h.clk, branchExec, branchResultCh, branchCDBOut, flushBus)

	h.memStation = memsys.NewRS(h.clk, memIn, markCh, fillCh, cdbUnit.Out(), flushBus)
	h.mob = memsys.NewMOB(h.clk, markCh, fillCh, commitBus, storeDoneOut, reqCh, flushBus)

	h.committer = commit.New(h.clk, h.rob, h.regs, h.frontend.Predictor(), cdbUnit.Out(), branchResultCh, commitBus, flushBus, flushPC)

	return h
}

// Run ticks the clock until the halt sentinel retires (or, if WithMaxCycles
// was given, until that many cycles elapse) and returns the resulting
// Stats. The caller reads the exit code via ExitCode.
func (h *Harness) Run() Stats {
	for {
		if h.committer.Halted() {
			break
		}
		if h.maxCycles != 0 && h.stats.Cycles >= h.maxCycles {
			break
		}
		h.clk.Tick()
		h.stats.Cycles++
	}
	h.stats.Committed = h.committer.Committed()
	h.stats.Flushes = h.committer.Flushes()
	h.stats.StallCycles = h.dispatcher.Stalls()
	return h.stats
}

// Halted reports whether the halt sentinel has retired.
func (h *Harness) Halted() bool { return h.committer.Halted() }

// ExitCode returns the value the halt instruction printed: arch[a0] & 0xFF.
// Valid only once Halted is true.
func (h *Harness) ExitCode() uint8 { return h.committer.Result().ExitCode }

// Register reads an architectural register's committed value, for tests
// and diagnostics.
func (h *Harness) Register(r uint8) uint32 { return h.regs.Arch(r) }

// ROBOccupancy reports how many entries are currently in flight, for
// tests and diagnostics.
func (h *Harness) ROBOccupancy() int { return h.rob.Len() }
