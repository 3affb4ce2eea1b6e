package memsys

import (
	"log"
	"os"

	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/rob"
)

// Array is the unified byte-addressable memory, shared by the memory
// subsystem (reads/writes arriving from the MOB) and the frontend's
// fetcher (instruction words read directly, out of band from the
// request/latency machinery below). It accepts one MOB request at a time
// over a HandshakeChannel and completes it after Latency cycles.
type Array struct {
	bytes [Size]byte

	in  *channel.HandshakeChannel[Request]
	out *channel.Channel[rob.CDBResult]

	busy    bool
	pending Request
	timer   int

	log *log.Logger
}

// NewArray creates an Array subscribed to clk's rising edge. in is the
// handshake channel requests arrive on from the MOB; out is this unit's
// private producer channel into the CDB, used for load results (store
// completions post no CDB result; that signal was already emitted by the
// MOB at fill time). logger receives out-of-bounds diagnostics; nil uses a
// logger writing to stderr.
func NewArray(clk *clock.Clock, in *channel.HandshakeChannel[Request], out *channel.Channel[rob.CDBResult], flushBus *channel.Bus[bool], logger *log.Logger) *Array {
	if logger == nil {
		logger = log.New(os.Stderr, "memsys: ", log.LstdFlags)
	}
	a := &Array{in: in, out: out, log: logger}
	clk.OnRising(func() { a.tick(flushBus) })
	return a
}

// Load copies the initial memory image into the array at address 0.
func (a *Array) Load(image []byte) {
	copy(a.bytes[:], image)
}

// ReadWord reads a 32-bit little-endian word directly, combinationally,
// bypassing the request/latency path — used by the frontend's fetcher,
// which is not subject to memory latency in this model.
func (a *Array) ReadWord(addr uint32) uint32 {
	if uint64(addr)+4 > Size {
		a.log.Printf("fetch out of bounds: addr=0x%x", addr)
		return 0
	}
	return uint32(a.bytes[addr]) |
		uint32(a.bytes[addr+1])<<8 |
		uint32(a.bytes[addr+2])<<16 |
		uint32(a.bytes[addr+3])<<24
}

func (a *Array) tick(flushBus *channel.Bus[bool]) {
	flushed := false
	if v, ok := flushBus.Get(); ok && v {
		flushed = true
	}

	if a.busy {
		if flushed && a.pending.Kind == Read {
			a.busy = false
			return
		}
		if a.timer > 0 {
			a.timer--
			if a.timer > 0 {
				return
			}
		}
		if a.pending.Kind == Read && !a.out.CanSend() {
			// Hold the completed request pending and retry next cycle
			// once the CDB-bound channel can accept it, rather than
			// dropping the result, matching memory.hpp's explicit
			// can_send backpressure retry.
			return
		}
		a.complete()
		a.busy = false
	}

	a.in.SetReady(!a.busy)
	if a.busy {
		return
	}
	req, ok := a.in.Receive()
	if !ok {
		return
	}
	a.busy = true
	a.pending = req
	a.timer = Latency
}

func (a *Array) complete() {
	req := a.pending
	if uint64(req.Address)+uint64(req.Size) > Size {
		a.log.Printf("memory access out of bounds: addr=0x%x size=%d kind=%v", req.Address, req.Size, req.Kind)
		if req.Kind == Read {
			a.out.Send(rob.CDBResult{RobID: req.RobID, Value: 0})
		}
		return
	}

	switch req.Kind {
	case Read:
		v := a.readBytes(req.Address, req.Size, req.IsSigned)
		a.out.Send(rob.CDBResult{RobID: req.RobID, Value: v})
	case Write:
		a.writeBytes(req.Address, req.Data, req.Size)
	}
}

func (a *Array) readBytes(addr uint32, size uint8, isSigned bool) uint32 {
	var v uint32
	for i := uint8(0); i < size; i++ {
		v |= uint32(a.bytes[addr+uint32(i)]) << (8 * i)
	}
	if isSigned {
		switch size {
		case 1:
			return uint32(int32(int8(v)))
		case 2:
			return uint32(int32(int16(v)))
		}
	}
	return v
}

func (a *Array) writeBytes(addr uint32, data uint32, size uint8) {
	for i := uint8(0); i < size; i++ {
		a.bytes[addr+uint32(i)] = byte(data >> (8 * i))
	}
}
