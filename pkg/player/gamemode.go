package player

// SetGameMode implements the §4.7 gamemode-change rule: refuses a no-op
// change, otherwise records the current mode as previous and stores the
// new one, rewrites Abilities via
// SetForGamemode, and reports whether anything changed so the caller can
// broadcast PlayerInfoUpdate / GameEvent.
func (p *Player) SetGameMode(gm GameMode) (changed bool) {
	current := GameMode(p.gamemode.Load())
	if current == gm {
		return false
	}
	p.previousGamemode.Store(int32(current))
	p.gamemode.Store(int32(gm))
	p.Abilities.Update(func(a *Abilities) { a.SetForGamemode(gm) })
	return true
}

// PreviousGameMode returns the gamemode the player held before the most
// recent SetGameMode call.
func (p *Player) PreviousGameMode() GameMode { return GameMode(p.previousGamemode.Load()) }
