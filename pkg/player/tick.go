package player

import "github.com/pumpkincraft/pumpkincore/pkg/chunkqueue"

const (
	keepAliveIntervalMs  = 15_000
	clientLoadedTimeoutTicks int32 = 60
)

// TickHooks are the IO-performing callbacks the per-tick sequence invokes.
// Injecting them keeps this package decoupled from the wire protocol and
// from the world (block lookups).
type TickHooks struct {
	FlushScreenContentUpdates  func(ScreenHandler)
	SendAcknowledgeBlockChange func(sequence int32)
	DrainChunkQueue            func(*chunkqueue.Queue)
	LookupBlockIsAir           func(BlockPos) bool
	MiningStageFor             func(pos BlockPos, ticksElapsed int64) int8
	BroadcastStopMining        func(pos BlockPos)
	TickLivingEntity           func(*LivingEntity)
	TickHunger                 func(*HungerState)
	SendExperience             func(progress float32, points, level int32)
	SendHealth                 func(health float32, food int32, saturationIsZero bool)
	SendKeepAlive              func(id int64)
	KickTimeout                func()
	NowMs                      func() int64
}

// Tick runs the §4.7 ordered per-tick sequence, step by step.
func (p *Player) Tick(hooks TickHooks) {
	// 1. Flush pending screen-handler content updates.
	if h := p.CurrentScreenHandler(); h != nil {
		hooks.FlushScreenContentUpdates(h)
	}

	// 2. Acknowledge block change if a sequence is pending.
	if seq := p.packetSequence.Load(); seq >= 0 {
		hooks.SendAcknowledgeBlockChange(seq)
		p.packetSequence.Store(-1)
	}

	// 3. XP pickup delay lives on dropped-item entities, not on Player;
	// nothing to decrement here in the player runtime itself.

	// 4. Chunk streaming.
	hooks.DrainChunkQueue(p.ChunkQueue)

	// 5. Tick counter.
	tick := p.tickCounter.Add(1)

	// 6. Sleeping-since, capped at 101.
	if s := p.sleepingSince.Load(); s > 0 && s < 101 {
		p.sleepingSince.Add(1)
	}

	// 7. Mining.
	if p.IsMining() {
		stopped, pos := p.TickMining(hooks.LookupBlockIsAir, hooks.MiningStageFor, tick)
		if stopped {
			hooks.BroadcastStopMining(pos)
		}
	}

	// 8. last_attacked_ticks.
	p.lastAttackedTicks.Add(1)

	// 9. Living entity / hunger / experience / health.
	hooks.TickLivingEntity(&p.Entity)
	p.Hunger.Update(func(h *HungerState) { hooks.TickHunger(h) })
	p.tickExperience(hooks.SendExperience)
	p.tickHealth(hooks.SendHealth)

	// 10. client_loaded_timeout.
	if !p.clientLoaded.Load() {
		if t := p.clientLoadedTimeout.Add(-1); t <= 0 {
			p.clientLoaded.Store(true)
		}
	}

	// 11. Keep-alive.
	p.tickKeepAlive(hooks.NowMs, hooks.SendKeepAlive, hooks.KickTimeout)
}

// tickHealth sends SetHealth only when health/food/saturation-is-zero
// changed since the last send (§4.7's no-op suppression rule).
func (p *Player) tickHealth(send func(health float32, food int32, saturationIsZero bool)) {
	p.lastSentMu.Lock()
	defer p.lastSentMu.Unlock()

	health := p.Entity.Health
	hunger := p.Hunger.Get()
	saturationIsZero := hunger.Saturation <= 0

	if health != p.lastSent.Health || hunger.Level != p.lastSent.Food || saturationIsZero != p.lastSent.SaturationIsZero {
		p.lastSent.Health = health
		p.lastSent.Food = hunger.Level
		p.lastSent.SaturationIsZero = saturationIsZero
		send(health, hunger.Level, saturationIsZero)
	}
}

// tickKeepAlive implements §4.7 step 11 exactly: kick on a missed
// response past 15s, otherwise (re)send and arm the awaiting flag.
func (p *Player) tickKeepAlive(nowMs func() int64, send func(id int64), kick func()) {
	p.KeepAlive.mu.Lock()
	defer p.KeepAlive.mu.Unlock()

	now := nowMs()
	if now-p.KeepAlive.LastSentMs < keepAliveIntervalMs {
		return
	}
	if p.KeepAlive.Awaiting {
		kick()
		return
	}
	p.KeepAlive.LastSentMs = now
	p.KeepAlive.ExpectedID = now
	p.KeepAlive.Awaiting = true
	send(now)
}

// AcknowledgeKeepAlive clears the awaiting flag iff id matches the
// expected id, and reports whether it did.
func (p *Player) AcknowledgeKeepAlive(id int64) bool {
	p.KeepAlive.mu.Lock()
	defer p.KeepAlive.mu.Unlock()
	if !p.KeepAlive.Awaiting || p.KeepAlive.ExpectedID != id {
		return false
	}
	p.KeepAlive.Awaiting = false
	return true
}

// MarkBlockChangeSequence records a pending block-change sequence number
// for step 2 of the next tick to acknowledge.
func (p *Player) MarkBlockChangeSequence(seq int32) { p.packetSequence.Store(seq) }
