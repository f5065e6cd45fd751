package player

import (
	"math"
	"sync/atomic"
)

// atomicFloat32 is a lock-free atomic float32 built the same way the
// standard library's atomic.Uint32 wraps a raw word: sync/atomic has no
// built-in Atomic[float32], so bits are reinterpreted on load/store.
type atomicFloat32 struct {
	bits atomic.Uint32
}

func (f *atomicFloat32) Load() float32 {
	return math.Float32frombits(f.bits.Load())
}

func (f *atomicFloat32) Store(v float32) {
	f.bits.Store(math.Float32bits(v))
}
