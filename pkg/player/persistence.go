package player

import (
	"bytes"
	"io"

	"github.com/Tnze/go-mc/nbt"
)

const persistedDataVersion = 4189

// PersistedPlayer is the on-disk mirror of Player, matching the §6
// Persisted Player NBT schema. The in-memory Player is the runtime
// projection of this; Save/Load round-trip through it.
type PersistedPlayer struct {
	DataVersion             int32  `nbt:"DataVersion"`
	XpTotal                 int32  `nbt:"XpTotal"`
	PlayerGameType          byte   `nbt:"playerGameType"`
	PreviousPlayerGameType  *byte  `nbt:"previousPlayerGameType,omitempty"`
	HasPlayedBefore         bool   `nbt:"HasPlayedBefore"`
	Dimension               string `nbt:"Dimension"`
	Abilities               persistedAbilities `nbt:"abilities"`
	Inventory               []persistedSlot    `nbt:"Inventory"`
	Equipment               persistedEquipment `nbt:"equipment"`
	HungerLevel             int32   `nbt:"foodLevel"`
	HungerSaturation        float32 `nbt:"foodSaturationLevel"`
	HungerExhaustion        float32 `nbt:"foodExhaustionLevel"`
	Health                  float32 `nbt:"Health"`
	Pos                     []float64 `nbt:"Pos"`
}

type persistedAbilities struct {
	Invulnerable bool    `nbt:"invulnerable"`
	Flying       bool    `nbt:"flying"`
	MayFly       bool    `nbt:"mayfly"`
	Instabuild   bool    `nbt:"instabuild"`
	MayBuild     bool    `nbt:"mayBuild"`
	FlySpeed     float32 `nbt:"flySpeed"`
	WalkSpeed    float32 `nbt:"walkSpeed"`
}

type persistedSlot struct {
	Slot   int8  `nbt:"Slot"`
	ItemID int32 `nbt:"id"`
	Count  int32 `nbt:"count"`
}

type persistedEquipment struct {
	Offhand *persistedItem `nbt:"offhand,omitempty"`
	Feet    *persistedItem `nbt:"feet,omitempty"`
	Legs    *persistedItem `nbt:"legs,omitempty"`
	Chest   *persistedItem `nbt:"chest,omitempty"`
	Head    *persistedItem `nbt:"head,omitempty"`
}

type persistedItem struct {
	ItemID int32 `nbt:"id"`
	Count  int32 `nbt:"count"`
}

// ToPersisted projects the in-memory Player into its on-disk shape.
func (p *Player) ToPersisted(dimension string) PersistedPlayer {
	xp := p.Experience()
	total := PointsToLevel(xp.Level) + xp.Points
	abilities := p.Abilities.Get()
	hunger := p.Hunger.Get()
	pos, _ := p.Entity.Snapshot()

	inv := make([]persistedSlot, 0, len(p.Inventory.Slots))
	for i, stack := range p.Inventory.Slots {
		if stack.Count == 0 {
			continue
		}
		inv = append(inv, persistedSlot{Slot: int8(i), ItemID: stack.ItemID, Count: stack.Count})
	}

	prevGM := byte(p.PreviousGameMode())

	return PersistedPlayer{
		DataVersion:            persistedDataVersion,
		XpTotal:                total,
		PlayerGameType:         byte(p.GameMode()),
		PreviousPlayerGameType: &prevGM,
		HasPlayedBefore:        true,
		Dimension:              dimension,
		Abilities: persistedAbilities{
			Invulnerable: abilities.Invulnerable,
			Flying:       abilities.Flying,
			MayFly:       abilities.AllowFlying,
			Instabuild:   abilities.Creative,
			MayBuild:     abilities.AllowModifyWorld,
			FlySpeed:     abilities.FlySpeed,
			WalkSpeed:    abilities.WalkSpeed,
		},
		Inventory:        inv,
		HungerLevel:      hunger.Level,
		HungerSaturation: hunger.Saturation,
		HungerExhaustion: hunger.Exhaustion,
		Health:           p.Entity.Health,
		Pos:              []float64{pos.X, pos.Y, pos.Z},
	}
}

// ApplyPersisted restores a freshly-created Player from its on-disk form.
func (p *Player) ApplyPersisted(pp PersistedPlayer) {
	level, points := TotalToLevelAndPoints(pp.XpTotal)
	p.SetExperience(level, ProgressInLevel(points, level), points)

	p.gamemode.Store(int32(pp.PlayerGameType))
	if pp.PreviousPlayerGameType != nil {
		p.previousGamemode.Store(int32(*pp.PreviousPlayerGameType))
	}

	p.Abilities.Update(func(a *Abilities) {
		a.Invulnerable = pp.Abilities.Invulnerable
		a.Flying = pp.Abilities.Flying
		a.AllowFlying = pp.Abilities.MayFly
		a.Creative = pp.Abilities.Instabuild
		a.AllowModifyWorld = pp.Abilities.MayBuild
		a.FlySpeed = pp.Abilities.FlySpeed
		a.WalkSpeed = pp.Abilities.WalkSpeed
	})

	p.Hunger.Update(func(h *HungerState) {
		h.Level = pp.HungerLevel
		h.Saturation = pp.HungerSaturation
		h.Exhaustion = pp.HungerExhaustion
	})

	p.Entity.Health = pp.Health
	if len(pp.Pos) == 3 {
		p.Entity.SetPos(Position{X: pp.Pos[0], Y: pp.Pos[1], Z: pp.Pos[2]})
	}

	p.Inventory.mu.Lock()
	for _, slot := range pp.Inventory {
		if int(slot.Slot) >= 0 && int(slot.Slot) < len(p.Inventory.Slots) {
			p.Inventory.Slots[slot.Slot] = ItemStack{ItemID: slot.ItemID, Count: slot.Count}
		}
	}
	p.Inventory.mu.Unlock()
}

// EncodePersisted serializes pp as the tagged binary format used for
// player data files.
func EncodePersisted(pp PersistedPlayer) ([]byte, error) {
	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(pp, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePersisted parses the tagged binary format back into a
// PersistedPlayer.
func DecodePersisted(r io.Reader) (PersistedPlayer, error) {
	var pp PersistedPlayer
	_, err := nbt.NewDecoder(r).Decode(&pp)
	return pp, err
}
