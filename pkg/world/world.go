// Package world is the runtime World object: the live roster of
// connected players plus a cache over the on-disk Anvil data loaded
// through pkg/worldformat.
package world

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pumpkincraft/pumpkincore/pkg/player"
	"github.com/pumpkincraft/pumpkincore/pkg/workerpool"
	"github.com/pumpkincraft/pumpkincore/pkg/worldformat"
)

// World is one loaded dimension: its format loader, a chunk cache, and
// the players currently inside it.
type World struct {
	Name    string
	loader  *worldformat.Loader
	workers *workerpool.Pool

	cacheMu sync.RWMutex
	chunks  map[chunkKey]*worldformat.ChunkData

	rosterMu sync.RWMutex
	roster   map[uuid.UUID]*player.Player
}

type chunkKey struct{ x, z int32 }

// New wraps an already-loaded Anvil world for runtime use. Region
// decompression and NBT decode run through workers so a burst of chunk
// requests from many players at once can't starve the tick loop.
func New(name string, loader *worldformat.Loader, workers *workerpool.Pool) *World {
	return &World{
		Name:    name,
		loader:  loader,
		workers: workers,
		chunks:  make(map[chunkKey]*worldformat.ChunkData),
		roster:  make(map[uuid.UUID]*player.Player),
	}
}

// Info returns the world's level.dat-derived metadata.
func (w *World) Info() worldformat.WorldInfo { return w.loader.Info() }

// Chunk returns the chunk at (cx, cz), reading through to the format
// loader and caching the decoded result on first access. The decode
// itself runs through the worker pool, per §5's CPU-heavy-work rule.
func (w *World) Chunk(cx, cz int32) (*worldformat.ChunkData, error) {
	key := chunkKey{cx, cz}

	w.cacheMu.RLock()
	if c, ok := w.chunks[key]; ok {
		w.cacheMu.RUnlock()
		return c, nil
	}
	w.cacheMu.RUnlock()

	res := <-w.workers.Submit(context.Background(), func() (any, error) {
		return w.loader.ReadChunk(cx, cz)
	})
	if res.Err != nil {
		return nil, res.Err
	}
	c := res.Value.(*worldformat.ChunkData)

	w.cacheMu.Lock()
	w.chunks[key] = c
	w.cacheMu.Unlock()
	return c, nil
}

// EvictChunk drops a chunk from the cache, e.g. after a block edit
// invalidates the cached palette-decoded blocks.
func (w *World) EvictChunk(cx, cz int32) {
	w.cacheMu.Lock()
	delete(w.chunks, chunkKey{cx, cz})
	w.cacheMu.Unlock()
}

// AddPlayer admits p into this world's roster.
func (w *World) AddPlayer(p *player.Player) {
	w.rosterMu.Lock()
	w.roster[p.Profile.ID] = p
	w.rosterMu.Unlock()
}

// RemovePlayer drops p from this world's roster.
func (w *World) RemovePlayer(id uuid.UUID) {
	w.rosterMu.Lock()
	delete(w.roster, id)
	w.rosterMu.Unlock()
}

// Players returns a snapshot of the current roster.
func (w *World) Players() []*player.Player {
	w.rosterMu.RLock()
	defer w.rosterMu.RUnlock()
	out := make([]*player.Player, 0, len(w.roster))
	for _, p := range w.roster {
		out = append(out, p)
	}
	return out
}

// Player looks up a roster member by profile id.
func (w *World) Player(id uuid.UUID) (*player.Player, bool) {
	w.rosterMu.RLock()
	defer w.rosterMu.RUnlock()
	p, ok := w.roster[id]
	return p, ok
}

// Close releases the world's session lock.
func (w *World) Close() error { return w.loader.Close() }
