// Package chunkqueue implements the per-player chunk-streaming backpressure
// state machine described in §4.6: a FIFO of pending chunks gated by
// whether the client has acknowledged enough of what was already sent.
package chunkqueue

import (
	"github.com/gammazero/deque"

	"github.com/pumpkincraft/pumpkincore/pkg/worldformat"
)

const (
	defaultChunksPerTick = 16
	countCeiling         = 10
)

// stateKind distinguishes the three backpressure states without resorting
// to a pointer-heavy sum type; Count carries its payload in n.
type stateKind int

const (
	stateInitial stateKind = iota
	stateWaiting
	stateCount
)

// Entry is one pending (coordinate, chunk) pair.
type Entry struct {
	X, Z  int32
	Chunk *worldformat.ChunkData
}

// Queue is the per-player FIFO plus backpressure state from §4.6.
type Queue struct {
	pending       deque.Deque[Entry]
	kind          stateKind
	count         int
	chunksPerTick int
}

// New returns an empty queue in the Initial state.
func New() *Queue {
	return &Queue{kind: stateInitial, chunksPerTick: defaultChunksPerTick}
}

// Enqueue appends a chunk to the back of the FIFO.
func (q *Queue) Enqueue(e Entry) { q.pending.PushBack(e) }

// Len reports how many chunks are waiting to be sent.
func (q *Queue) Len() int { return q.pending.Len() }

// maySend implements the per-state admission rule from §4.6.
func (q *Queue) maySend() bool {
	switch q.kind {
	case stateInitial:
		return true
	case stateWaiting:
		return false
	case stateCount:
		return q.count < countCeiling
	default:
		return false
	}
}

// onSend advances state after one successful send (Initial -> Waiting,
// Count(n) -> Count(n+1)); Waiting is a no-op since maySend already
// refused it.
func (q *Queue) onSend() {
	switch q.kind {
	case stateInitial:
		q.kind = stateWaiting
	case stateCount:
		q.count++
	}
}

// Acknowledge handles a client chunk-batch acknowledgment: state becomes
// Count(0) and chunksPerTick is updated to ceil(desiredRate).
func (q *Queue) Acknowledge(desiredRate float64) {
	q.kind = stateCount
	q.count = 0
	ceil := int(desiredRate)
	if float64(ceil) < desiredRate {
		ceil++
	}
	if ceil < 1 {
		ceil = 1
	}
	q.chunksPerTick = ceil
}

// Drain pulls up to chunksPerTick entries off the front of the FIFO,
// provided the current backpressure state allows sending at all. It
// returns the drained batch, or nil when nothing was taken.
func (q *Queue) Drain() []Entry {
	if q.pending.Len() == 0 || !q.maySend() {
		return nil
	}

	n := q.chunksPerTick
	if n > q.pending.Len() {
		n = q.pending.Len()
	}

	batch := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, q.pending.PopFront())
	}
	q.onSend()
	return batch
}
