package player

// StartMining enters the §4.9 Breaking(pos) state on a Start-Digging
// packet.
func (p *Player) StartMining(pos BlockPos, startTick int64) {
	p.Mining.mu.Lock()
	defer p.Mining.mu.Unlock()
	p.Mining.Active = true
	p.Mining.Pos = pos
	p.Mining.StartTick = startTick
	p.Mining.Stage = 0
}

// TickMining implements §4.7 step 7: if the target block is air, clears
// mining and reports the stop; otherwise advances the breaking stage.
// isAir/stageFor are injected so this package stays world-agnostic.
func (p *Player) TickMining(isAir func(BlockPos) bool, stageFor func(pos BlockPos, ticksElapsed int64) int8, currentTick int64) (stopped bool, pos BlockPos) {
	p.Mining.mu.Lock()
	defer p.Mining.mu.Unlock()
	if !p.Mining.Active {
		return false, BlockPos{}
	}
	if isAir(p.Mining.Pos) {
		p.Mining.Active = false
		return true, p.Mining.Pos
	}
	p.Mining.Stage = stageFor(p.Mining.Pos, currentTick-p.Mining.StartTick)
	return false, p.Mining.Pos
}

// FinishMining transitions Breaking -> Idle on a Finish-Digging packet.
func (p *Player) FinishMining() (pos BlockPos, wasActive bool) {
	p.Mining.mu.Lock()
	defer p.Mining.mu.Unlock()
	pos = p.Mining.Pos
	wasActive = p.Mining.Active
	p.Mining.Active = false
	return pos, wasActive
}

// IsMining reports whether the player is currently in the Breaking state.
func (p *Player) IsMining() bool {
	p.Mining.mu.Lock()
	defer p.Mining.mu.Unlock()
	return p.Mining.Active
}
