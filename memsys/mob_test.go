package memsys_test

import (
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/memsys"
	"github.com/rogerflowey/tomasulo-rv32/rob"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MOB", func() {
	var (
		clk          *clock.Clock
		markIn       *channel.Channel[memsys.Mark]
		fillIn       *channel.Channel[memsys.Fill]
		commitBus    *channel.Bus[uint32]
		storeDoneOut *channel.Channel[rob.CDBResult]
		reqOut       *channel.HandshakeChannel[memsys.Request]
		flushBus     *channel.Bus[bool]
		mob          *memsys.MOB
	)

	BeforeEach(func() {
		clk = clock.New()
		markIn = channel.New[memsys.Mark](clk)
		fillIn = channel.New[memsys.Fill](clk)
		commitBus = channel.NewBus[uint32](clk)
		storeDoneOut = channel.New[rob.CDBResult](clk)
		reqOut = channel.NewHandshake[memsys.Request]()
		flushBus = channel.NewBus[bool](clk)
		mob = memsys.NewMOB(clk, markIn, fillIn, commitBus, storeDoneOut, reqOut, flushBus)
		reqOut.SetReady(true)
	})

	It("issues a load to memory as soon as it is filled", func() {
		markIn.Send(memsys.Mark{RobID: 1, Kind: memsys.Read})
		clk.Tick()
		clk.Tick() // acceptMark
		Expect(mob.Len()).To(Equal(1))

		fillIn.Send(memsys.Fill{RobID: 1, Kind: memsys.Read, Address: 0x100, Size: 4})
		clk.Tick()
		clk.Tick() // acceptFill, issueHead in the same cycle

		req, ok := reqOut.Peek()
		Expect(ok).To(BeTrue())
		Expect(req.Address).To(Equal(uint32(0x100)))
		Expect(mob.Len()).To(Equal(0))
	})

	It("holds a filled store until its ROB tag is observed on the commit bus", func() {
		markIn.Send(memsys.Mark{RobID: 2, Kind: memsys.Write})
		clk.Tick()
		clk.Tick()

		fillIn.Send(memsys.Fill{RobID: 2, Kind: memsys.Write, Address: 0x200, Data: 7, Size: 4})
		clk.Tick()
		clk.Tick()

		_, ok := reqOut.Peek()
		Expect(ok).To(BeFalse())
		done, ok := storeDoneOut.Peek()
		Expect(ok).To(BeTrue())
		Expect(done.RobID).To(Equal(uint32(2)))

		commitBus.Send(2)
		clk.Tick()
		clk.Tick() // commit bus visible, observeCommit + issueHead same cycle

		req, ok := reqOut.Peek()
		Expect(ok).To(BeTrue())
		Expect(req.Kind).To(Equal(memsys.Write))
	})

	It("keeps FIFO order: a younger ready load waits behind an older unfilled store", func() {
		markIn.Send(memsys.Mark{RobID: 10, Kind: memsys.Write})
		clk.Tick()
		clk.Tick()
		markIn.Send(memsys.Mark{RobID: 11, Kind: memsys.Read})
		clk.Tick()
		clk.Tick()
		Expect(mob.Len()).To(Equal(2))

		fillIn.Send(memsys.Fill{RobID: 11, Kind: memsys.Read, Address: 0x300, Size: 4})
		clk.Tick()
		clk.Tick()

		_, ok := reqOut.Peek()
		Expect(ok).To(BeFalse(), "the head store is unfilled, so the load behind it cannot issue")
	})

	It("drops uncommitted entries from the tail on flush, keeping committed ones", func() {
		markIn.Send(memsys.Mark{RobID: 20, Kind: memsys.Write})
		clk.Tick()
		clk.Tick()
		fillIn.Send(memsys.Fill{RobID: 20, Kind: memsys.Write, Address: 0x10, Data: 1, Size: 4})
		clk.Tick()
		clk.Tick()
		commitBus.Send(20)
		clk.Tick()
		clk.Tick()
		Expect(mob.Len()).To(Equal(1))

		markIn.Send(memsys.Mark{RobID: 21, Kind: memsys.Read})
		clk.Tick()
		clk.Tick()
		Expect(mob.Len()).To(Equal(2))

		flushBus.Send(true)
		clk.Tick()
		clk.Tick()

		Expect(mob.Len()).To(Equal(1))
	})
})
