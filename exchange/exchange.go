// Package exchange hands completed frames from the acquisition side to the
// display side with at most one frame of lag.
//
// Two buffers rotate between a "mid" role, written by the acquisition
// callback while it holds the lock, and a "front" role, owned by the display
// consumer between two calls to Acquire. Roles are swapped by exchanging
// slot indices, never by copying pixels. A frame that completes before the
// previous one was picked up overwrites it in place.
package exchange

import (
	"errors"
	"sync"

	"essaim.dev/topography/frame"
)

var ErrInvalidSize = errors.New("frame dimensions must be positive")

type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
}

type Exchange struct {
	mu   sync.Mutex
	cond *sync.Cond

	slots [2]*frame.Buffer
	mid   int
	front int

	// ready counts frames completed since the last swap.
	ready  int
	closed bool

	// blocking makes Acquire wait for a frame instead of returning the
	// current front buffer.
	blocking bool

	stats Stats
}

func New(width, height int, blocking bool) (*Exchange, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}

	e := &Exchange{
		slots: [2]*frame.Buffer{
			frame.NewBuffer(width, height),
			frame.NewBuffer(width, height),
		},
		mid:      0,
		front:    1,
		blocking: blocking,
	}
	e.cond = sync.NewCond(&e.mu)

	return e, nil
}

// Fill runs fn on the mid buffer inside the critical section. The frame is
// marked ready only if fn succeeds, so the consumer never sees a partial
// frame.
func (e *Exchange) Fill(fn func(buf *frame.Buffer) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.slots[e.mid]); err != nil {
		return err
	}

	if e.ready > 0 {
		e.stats.Dropped++
	}
	e.ready++
	e.stats.Published++

	e.cond.Signal()

	return nil
}

// Acquire returns the buffer the display owns until its next call. fresh is
// true when a newly completed frame was swapped in.
//
// Acquire must only be called from a single consumer goroutine.
func (e *Exchange) Acquire() (buf *frame.Buffer, fresh bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.blocking {
		for e.ready == 0 && !e.closed {
			e.cond.Wait()
		}
	}

	if e.ready > 0 {
		e.mid, e.front = e.front, e.mid
		e.ready = 0
		e.stats.Consumed++
		fresh = true
	}

	return e.slots[e.front], fresh
}

// Close releases a consumer blocked in Acquire. Further fills are still
// accepted.
func (e *Exchange) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.cond.Broadcast()
}

func (e *Exchange) Ready() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ready
}

func (e *Exchange) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.stats
}
