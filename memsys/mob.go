package memsys

import (
	"github.com/rogerflowey/tomasulo-rv32/channel"
	"github.com/rogerflowey/tomasulo-rv32/clock"
	"github.com/rogerflowey/tomasulo-rv32/rob"
)

// Depth is the fixed capacity of the Memory-Order Buffer.
const Depth = 32

// entry is one in-flight memory operation tracked by the MOB, holding
// program order from the moment the MRS accepts it until it reaches
// memory.
type entry struct {
	req       Request
	hasReq    bool // false until FillIn resolves the address (and for writes, data)
	committed bool
}

// MOB is a FIFO of capacity Depth enforcing program order between memory
// operations: a load at the head waits behind any older, not-yet-committed
// store, and a store only issues to memory once its own ROB entry has
// committed.
type MOB struct {
	markIn       *channel.Channel[Mark]
	fillIn       *channel.Channel[Fill]
	commitBus    *channel.Bus[uint32]
	storeDoneOut *channel.Channel[rob.CDBResult]
	reqOut       *channel.HandshakeChannel[Request]
	flush        *channel.Bus[bool]

	buf   [Depth]entry
	head  int
	count int
}

// NewMOB creates a MOB subscribed to clk's rising edge. markIn/fillIn come
// from the Memory Reservation Station; commitBus is the committer's
// broadcast of retired ROB tags; storeDoneOut is this MOB's CDB producer
// channel for the store-accepted signal; reqOut is the handshake channel
// into the memory array; flushBus is the global flush pulse.
func NewMOB(clk *clock.Clock, markIn *channel.Channel[Mark], fillIn *channel.Channel[Fill], commitBus *channel.Bus[uint32], storeDoneOut *channel.Channel[rob.CDBResult], reqOut *channel.HandshakeChannel[Request], flushBus *channel.Bus[bool]) *MOB {
	m := &MOB{
		markIn:       markIn,
		fillIn:       fillIn,
		commitBus:    commitBus,
		storeDoneOut: storeDoneOut,
		reqOut:       reqOut,
		flush:        flushBus,
	}
	clk.OnRising(m.tick)
	return m
}

// Len reports the number of in-flight entries, for stats and tests.
func (m *MOB) Len() int { return m.count }

func (m *MOB) tick() {
	if v, ok := m.flush.Get(); ok && v {
		m.markIn.Receive()
		m.fillIn.Receive()
		m.flushUncommitted()
		return
	}

	m.acceptMark()
	m.acceptFill()
	m.observeCommit()
	m.issueHead()
}

// acceptMark pushes a placeholder entry at the tail for a newly dispatched
// memory op, preserving program order ahead of operand resolution.
func (m *MOB) acceptMark() {
	mk, ok := m.markIn.Receive()
	if !ok {
		return
	}
	if m.count >= Depth {
		panic("memsys: mob mark on full buffer")
	}
	idx := (m.head + m.count) % Depth
	m.buf[idx] = entry{req: Request{RobID: mk.RobID, Kind: mk.Kind}}
	m.count++
}

// acceptFill resolves a placeholder entry's address (and, for stores,
// data) once the Memory Reservation Station's operands are ready. Stores
// additionally post a zero-valued CDB result so the ROB learns the store
// executed logically, even though its architectural effect (the actual
// byte write) waits for commit.
func (m *MOB) acceptFill() {
	fl, ok := m.fillIn.Peek()
	if !ok {
		return
	}
	if fl.Kind == Write && !m.storeDoneOut.CanSend() {
		return
	}
	m.fillIn.Receive()
	for i := 0; i < m.count; i++ {
		idx := (m.head + i) % Depth
		e := &m.buf[idx]
		if e.req.RobID == fl.RobID && !e.hasReq {
			e.req.Address = fl.Address
			e.req.Data = fl.Data
			e.req.Size = fl.Size
			e.req.IsSigned = fl.IsSigned
			e.hasReq = true
			break
		}
	}
	if fl.Kind == Write {
		m.storeDoneOut.Send(rob.CDBResult{RobID: fl.RobID, Value: 0})
	}
}

// observeCommit marks the matching entry committed once the committer
// retires its ROB tag.
func (m *MOB) observeCommit() {
	robID, ok := m.commitBus.Get()
	if !ok {
		return
	}
	for i := 0; i < m.count; i++ {
		idx := (m.head + i) % Depth
		e := &m.buf[idx]
		if e.req.RobID == robID {
			e.committed = true
			return
		}
	}
}

// issueHead sends the head entry to the memory array once it is ready and,
// for stores, committed. Loads may issue as soon as they are ready,
// because being at the head of this strict FIFO already means every older
// store has either committed (and so is visible) or has not yet resolved
// its address (and so blocks this position until it does).
func (m *MOB) issueHead() {
	if m.count == 0 {
		return
	}
	e := &m.buf[m.head]
	if !e.hasReq {
		return
	}
	if e.req.Kind == Write && !e.committed {
		return
	}
	if !m.reqOut.CanSend() {
		return
	}
	if m.reqOut.Send(e.req) {
		m.head = (m.head + 1) % Depth
		m.count--
	}
}

// flushUncommitted drops entries from the tail while they are not
// committed, stopping at the first committed entry encountered walking
// from the tail — committed entries are retired stores that must still
// reach memory and survive the flush.
func (m *MOB) flushUncommitted() {
	for m.count > 0 {
		tailIdx := (m.head + m.count - 1) % Depth
		if m.buf[tailIdx].committed {
			break
		}
		m.count--
	}
}
