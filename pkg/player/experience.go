package player

// PointsInLevel returns how many experience points are needed to go from
// `level` to `level+1`, using the vanilla piecewise formula.
func PointsInLevel(level int32) int32 {
	switch {
	case level <= 15:
		return 2*level + 7
	case level <= 30:
		return 5*level - 38
	default:
		return 9*level - 158
	}
}

// PointsToLevel returns the cumulative total experience required to reach
// `level` from zero (the XpTotal contribution of every level below it).
func PointsToLevel(level int32) int32 {
	switch {
	case level <= 16:
		return level*level + 6*level
	case level <= 31:
		return int32(2.5*float64(level)*float64(level) - 40.5*float64(level) + 360)
	default:
		return int32(4.5*float64(level)*float64(level) - 162.5*float64(level) + 2220)
	}
}

// TotalToLevelAndPoints inverts PointsToLevel: given a total experience
// value, finds the level and in-level point remainder such that
// PointsToLevel(level) + points == totalExp (§8's universal property).
func TotalToLevelAndPoints(totalExp int32) (level, points int32) {
	if totalExp < 0 {
		totalExp = 0
	}
	level = 0
	for PointsToLevel(level+1) <= totalExp {
		level++
	}
	points = totalExp - PointsToLevel(level)
	return level, points
}

// ProgressInLevel is points/points_in_level(level), clamped to [0, 1].
func ProgressInLevel(points, level int32) float32 {
	max := PointsInLevel(level)
	if max <= 0 {
		return 0
	}
	p := float32(points) / float32(max)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

// XPSnapshot is the (level, points, progress) triple sent to the client.
type XPSnapshot struct {
	Level    int32
	Points   int32
	Progress float32
}

// Experience returns the player's current level/points/progress.
func (p *Player) Experience() XPSnapshot {
	return XPSnapshot{
		Level:    p.experienceLevel.Load(),
		Points:   p.experiencePoints.Load(),
		Progress: p.experienceProgress.Load(),
	}
}

// SetExperience stores level/progress/points directly and marks the last-
// sent snapshot stale so the next tick pushes an update (§4.7).
func (p *Player) SetExperience(level int32, progress float32, points int32) {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	p.experienceLevel.Store(level)
	p.experienceProgress.Store(progress)
	p.experiencePoints.Store(points)
	p.lastSentXP.Store(-1)
}

// SetExperienceLevel sets the level directly; when keepProgress is true,
// in-level points are rescaled by new_max/old_max so visual progress is
// preserved across the jump.
func (p *Player) SetExperienceLevel(newLevel int32, keepProgress bool) {
	progress := p.experienceProgress.Load()
	points := p.experiencePoints.Load()

	if keepProgress {
		currentLevel := p.experienceLevel.Load()
		currentMax := PointsInLevel(currentLevel)
		newMax := PointsInLevel(newLevel)
		if currentMax > 0 {
			scale := float32(newMax) / float32(currentMax)
			points = int32(float32(points) * scale)
		}
	}
	p.SetExperience(newLevel, progress, points)
}

// AddExperienceLevels shifts the level directly by addedLevels, keeping
// progress scaled the way SetExperienceLevel does.
func (p *Player) AddExperienceLevels(addedLevels int32) {
	p.SetExperienceLevel(p.experienceLevel.Load()+addedLevels, true)
}

// SetExperiencePoints sets in-level points directly; fails (returns false)
// if out of [0, points_in_level(level)].
func (p *Player) SetExperiencePoints(newPoints int32) bool {
	current := p.experiencePoints.Load()
	if newPoints == current {
		return true
	}
	level := p.experienceLevel.Load()
	max := PointsInLevel(level)
	if newPoints < 0 || newPoints > max {
		return false
	}
	progress := float32(newPoints) / float32(max)
	p.SetExperience(level, progress, newPoints)
	return true
}

// AddExperiencePoints folds addedPoints into the total, then recomputes
// (level, in-level points) the way §4.7 describes: "adding points folds
// into total, then recomputes (level, points_in_level)".
func (p *Player) AddExperiencePoints(addedPoints int32) {
	level := p.experienceLevel.Load()
	points := p.experiencePoints.Load()
	total := PointsToLevel(level) + points
	newTotal := total + addedPoints
	newLevel, newPoints := TotalToLevelAndPoints(newTotal)
	progress := ProgressInLevel(newPoints, newLevel)
	p.SetExperience(newLevel, progress, newPoints)
}

// tickExperience sends CSetExperience only when the level changed since
// the last send (§4.7's no-op suppression pattern, applied to xp).
func (p *Player) tickExperience(send func(progress float32, points, level int32)) {
	level := p.experienceLevel.Load()
	if p.lastSentXP.Load() != level {
		progress := p.experienceProgress.Load()
		points := p.experiencePoints.Load()
		p.lastSentXP.Store(level)
		send(progress, points, level)
	}
}
