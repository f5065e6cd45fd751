package player

import "github.com/pumpkincraft/pumpkincore/pkg/chunkqueue"

// RequestTeleport implements the same-world teleport sequence from §4.7:
// bump the teleport id (wrapping on overflow via plain int32 add), record
// the pending teleport, and move the entity immediately.
func (p *Player) RequestTeleport(pos Position, rot Rotation) (teleportID int32) {
	id := p.teleportIDCounter.Add(1)
	p.Entity.SetPos(pos)
	p.Entity.SetRotation(rot)

	p.Teleport.mu.Lock()
	p.Teleport.Pending = true
	p.Teleport.ID = id
	p.Teleport.Target = pos
	p.Teleport.mu.Unlock()

	return id
}

// ConfirmTeleport clears the pending teleport if id matches; per §4.7 "an
// echoed-but-mismatched id is ignored".
func (p *Player) ConfirmTeleport(id int32) bool {
	p.Teleport.mu.Lock()
	defer p.Teleport.mu.Unlock()
	if !p.Teleport.Pending || p.Teleport.ID != id {
		return false
	}
	p.Teleport.Pending = false
	return true
}

// ResetForWorldChange implements the cross-world teleport reset from
// §4.7: the watched cylinder resets to radius 1 and the chunk-streaming
// queue starts fresh in the destination world, and the player is no
// longer considered loaded until the client-loaded timeout runs out again.
func (p *Player) ResetForWorldChange() {
	p.clientLoaded.Store(false)
	p.clientLoadedTimeout.Store(clientLoadedTimeoutTicks)
	p.Watched = WatchedChunkCylinder{Radius: 1}
	p.ChunkQueue = chunkqueue.New()
}
