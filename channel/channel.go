// Package channel provides the one-writer/one-reader transports that glue
// pipeline stages together: a one-slot, one-cycle-delay Channel, a
// broadcast Bus built on top of it, and a HandshakeChannel for the one
// place (memory <-> MOB) that needs explicit consumer-readiness signaling
// instead of a fixed delay.
package channel

import "github.com/rogerflowey/tomasulo-rv32/clock"

// Channel is a single-producer, single-consumer, one-slot transport with a
// one-cycle propagation delay: a value Sent in cycle n becomes visible to
// Receive/Peek starting in cycle n+1.
type Channel[T any] struct {
	writerSlot  T
	readerSlot  T
	writerReady bool
	readerReady bool
	consumed    bool
}

// New creates a Channel subscribed to clk's falling edge, where it latches
// its slots.
func New[T any](clk *clock.Clock) *Channel[T] {
	c := &Channel[T]{}
	clk.OnFalling(c.tick)
	return c
}

// CanSend reports whether Send would succeed this cycle.
func (c *Channel[T]) CanSend() bool {
	return !c.writerReady
}

// Send places v in the writer slot. It fails (returns false) if the writer
// slot is already occupied; the caller must retry next cycle.
func (c *Channel[T]) Send(v T) bool {
	if c.writerReady {
		return false
	}
	c.writerSlot = v
	c.writerReady = true
	return true
}

// Peek returns the reader slot's value without consuming it.
func (c *Channel[T]) Peek() (T, bool) {
	if !c.readerReady {
		var zero T
		return zero, false
	}
	return c.readerSlot, true
}

// Receive returns the reader slot's value and marks it consumed. The value
// remains visible to other observers (via Peek or another Receive) for the
// rest of this cycle; only the falling-edge tick actually clears it.
func (c *Channel[T]) Receive() (T, bool) {
	v, ok := c.Peek()
	if ok {
		c.consumed = true
	}
	return v, ok
}

// Clear drops any pending writer and reader data, used on flush.
func (c *Channel[T]) Clear() {
	var zero T
	c.writerSlot = zero
	c.readerSlot = zero
	c.writerReady = false
	c.readerReady = false
	c.consumed = false
}

// tick runs on the falling edge: a consumed reader slot is cleared, then a
// pending writer slot moves into the now-empty reader slot.
func (c *Channel[T]) tick() {
	if c.consumed {
		c.readerReady = false
		c.consumed = false
	}
	if !c.readerReady && c.writerReady {
		c.readerSlot = c.writerSlot
		c.readerReady = true
		c.writerReady = false
	}
}

// Bus is a Channel whose reader side is drained automatically every cycle,
// realizing a broadcast pulse that is valid for exactly one cycle: Get
// returns the value Sent in the previous cycle, or ok=false if nothing was
// sent.
type Bus[T any] struct {
	ch      *Channel[T]
	current T
	valid   bool
}

// NewBus creates a Bus subscribed to clk: its internal rising-edge subscriber
// drains the underlying channel every cycle before any other rising
// subscriber can observe a stale value.
func NewBus[T any](clk *clock.Clock) *Bus[T] {
	b := &Bus[T]{ch: New[T](clk)}
	clk.OnRising(b.drain)
	return b
}

// CanSend reports whether Send would succeed this cycle.
func (b *Bus[T]) CanSend() bool {
	return b.ch.CanSend()
}

// Send broadcasts v, visible via Get starting next cycle.
func (b *Bus[T]) Send(v T) bool {
	return b.ch.Send(v)
}

// Get returns this cycle's broadcast value, if any.
func (b *Bus[T]) Get() (T, bool) {
	return b.current, b.valid
}

// Clear drops the pending and current broadcast value, used on flush.
func (b *Bus[T]) Clear() {
	b.ch.Clear()
	var zero T
	b.current = zero
	b.valid = false
}

func (b *Bus[T]) drain() {
	b.current, b.valid = b.ch.Receive()
}

// HandshakeChannel is used where the consumer must explicitly raise
// readiness before the producer may send, rather than relying on a fixed
// one-cycle delay. It has no clock subscription: both sides observe its
// state combinationally, so correctness depends on a consumer raising
// Ready before the producer's own phase runs (registration order).
type HandshakeChannel[T any] struct {
	slot  T
	valid bool
	ready bool
}

// NewHandshake creates an empty, not-ready HandshakeChannel.
func NewHandshake[T any]() *HandshakeChannel[T] {
	return &HandshakeChannel[T]{}
}

// SetReady raises or lowers the consumer's readiness signal.
func (h *HandshakeChannel[T]) SetReady(ready bool) {
	h.ready = ready
}

// CanSend reports whether the consumer is ready and no data is pending.
func (h *HandshakeChannel[T]) CanSend() bool {
	return h.ready && !h.valid
}

// Send places v in the slot if CanSend; otherwise it fails.
func (h *HandshakeChannel[T]) Send(v T) bool {
	if !h.CanSend() {
		return false
	}
	h.slot = v
	h.valid = true
	return true
}

// Peek returns the pending value without consuming it.
func (h *HandshakeChannel[T]) Peek() (T, bool) {
	if !h.valid {
		var zero T
		return zero, false
	}
	return h.slot, true
}

// Receive returns and clears the pending value.
func (h *HandshakeChannel[T]) Receive() (T, bool) {
	v, ok := h.Peek()
	if ok {
		h.valid = false
	}
	return v, ok
}

// Clear drops any pending value and lowers readiness.
func (h *HandshakeChannel[T]) Clear() {
	var zero T
	h.slot = zero
	h.valid = false
	h.ready = false
}
