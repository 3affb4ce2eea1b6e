package memsys_test

import (
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/memsys"
	"github.com/rogerflowey/tomasulo-rv32/rob"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Array", func() {
	var (
		clk      *clock.Clock
		in       *channel.HandshakeChannel[memsys.Request]
		out      *channel.Channel[rob.CDBResult]
		flushBus *channel.Bus[bool]
		arr      *memsys.Array
	)

	BeforeEach(func() {
		clk = clock.New()
		in = channel.NewHandshake[memsys.Request]()
		out = channel.New[rob.CDBResult](clk)
		flushBus = channel.NewBus[bool](clk)
		arr = memsys.NewArray(clk, in, out, flushBus, nil)
	})

	// runRequest sends req once the array signals readiness, then ticks
	// through the full Latency window: one tick to accept, three more to
	// count the timer down to completion.
	runRequest := func(req memsys.Request) {
		clk.Tick() // array raises readiness (idempotent if already raised)
		Expect(in.CanSend()).To(BeTrue())
		in.Send(req)
		clk.Tick() // accepted, timer = Latency
		clk.Tick() // timer 2
		clk.Tick() // timer 1
		clk.Tick() // timer 0, completes
	}

	It("completes a read after Latency cycles with the little-endian word", func() {
		arr.Load([]byte{0xEF, 0xBE, 0xAD, 0xDE}) // 0xDEADBEEF, little-endian

		runRequest(memsys.Request{RobID: 7, Kind: memsys.Read, Address: 0, Size: 4})

		v, ok := out.Peek()
		Expect(ok).To(BeTrue())
		Expect(v.RobID).To(Equal(uint32(7)))
		Expect(v.Value).To(Equal(uint32(0xDEADBEEF)))
	})

	It("sign-extends a byte load", func() {
		arr.Load([]byte{0xFF})

		runRequest(memsys.Request{RobID: 1, Kind: memsys.Read, Address: 0, Size: 1, IsSigned: true})

		v, _ := out.Peek()
		Expect(v.Value).To(Equal(uint32(0xFFFFFFFF)))
	})

	It("writes bytes in little-endian order, readable back by a later load", func() {
		runRequest(memsys.Request{RobID: 1, Kind: memsys.Write, Address: 4, Data: 0x11223344, Size: 4})
		runRequest(memsys.Request{RobID: 2, Kind: memsys.Read, Address: 4, Size: 4})

		v, ok := out.Peek()
		Expect(ok).To(BeTrue())
		Expect(v.Value).To(Equal(uint32(0x11223344)))
	})

	It("returns 0 for an out-of-bounds read instead of panicking", func() {
		runRequest(memsys.Request{RobID: 1, Kind: memsys.Read, Address: memsys.Size - 1, Size: 4})

		v, ok := out.Peek()
		Expect(ok).To(BeTrue())
		Expect(v.Value).To(Equal(uint32(0)))
	})

	It("aborts an in-flight read on flush without posting a CDB result", func() {
		clk.Tick() // raise readiness
		in.Send(memsys.Request{RobID: 1, Kind: memsys.Read, Address: 0, Size: 4})
		clk.Tick() // accepted, busy, timer = Latency

		flushBus.Send(true)
		clk.Tick() // flush latches into the bus's channel, not yet visible
		clk.Tick() // flush visible; in-flight read aborted, busy cleared

		clk.Tick()
		clk.Tick()
		_, ok := out.Peek()
		Expect(ok).To(BeFalse())
	})

	It("does not abort an in-flight write on flush", func() {
		clk.Tick() // raise readiness
		in.Send(memsys.Request{RobID: 1, Kind: memsys.Write, Address: 8, Data: 0xAA, Size: 1})
		clk.Tick() // accepted, busy, timer = Latency

		flushBus.Send(true)
		clk.Tick() // flush latches, not yet visible
		clk.Tick() // flush visible, but the pending op is a write: not aborted
		clk.Tick() // timer reaches 0, write completes

		runRequest(memsys.Request{RobID: 2, Kind: memsys.Read, Address: 8, Size: 1})

		v, ok := out.Peek()
		Expect(ok).To(BeTrue())
		Expect(v.Value).To(Equal(uint32(0xAA)))
	})
})
