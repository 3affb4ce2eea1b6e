package rs_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/insts"
	"github.com/rogerflowey/tomasulo-rv32/rob"
	"github.com/rogerflowey/tomasulo-rv32/rs"
)

func TestRS(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RS Suite")
}

var _ = Describe("Station", func() {
	var (
		clk       *clock.Clock
		in, out   *channel.Channel[insts.Filled]
		cdbBus    *channel.Bus[rob.CDBResult]
		flushBus  *channel.Bus[bool]
		station   *rs.Station
	)

	BeforeEach(func() {
		clk = clock.New()
		in = channel.New[insts.Filled](clk)
		out = channel.New[insts.Filled](clk)
		cdbBus = channel.NewBus[rob.CDBResult](clk)
		flushBus = channel.NewBus[bool](clk)
		station = rs.New(clk, in, out, cdbBus, flushBus)
	})

	It("issues an instruction immediately once both operands are final", func() {
		in.Send(insts.Filled{Inst: insts.Instruction{Op: insts.ADD}, ID: 1, VRs1: 1, VRs2: 2})
		clk.Tick() // latch into station's input channel
		clk.Tick() // station accepts + issues

		fi, ok := out.Peek()
		Expect(ok).To(BeTrue())
		Expect(fi.ID).To(Equal(uint32(1)))
		Expect(station.Len()).To(Equal(0))
	})

	It("holds an instruction until its tag arrives on the CDB", func() {
		in.Send(insts.Filled{Inst: insts.Instruction{Op: insts.ADD}, ID: 1, VRs1: 1, QRs2: 5})
		clk.Tick()
		clk.Tick() // accepted, not ready: QRs2 != 0

		Expect(station.Len()).To(Equal(1))
		_, ok := out.Peek()
		Expect(ok).To(BeFalse())

		cdbBus.Send(rob.CDBResult{RobID: 5, Value: 42})
		clk.Tick() // bus latches
		clk.Tick() // station captures operand and issues

		fi, ok := out.Peek()
		Expect(ok).To(BeTrue())
		Expect(fi.VRs2).To(Equal(uint32(42)))
	})

	It("clears its pool on flush", func() {
		in.Send(insts.Filled{Inst: insts.Instruction{Op: insts.ADD}, ID: 1, QRs1: 9, QRs2: 9})
		clk.Tick()
		clk.Tick()
		Expect(station.Len()).To(Equal(1))

		flushBus.Send(true)
		clk.Tick() // bus latches
		clk.Tick() // station observes flush

		Expect(station.Len()).To(Equal(0))
	})
})
