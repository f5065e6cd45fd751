// Package player implements the per-connection Play-phase runtime: living
// entity state, inventory, abilities, experience, gamemode, mining, screen
// handlers, and the per-tick sequence that drives all of it (§4.7).
package player

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/pumpkincraft/pumpkincore/pkg/chat"
	"github.com/pumpkincraft/pumpkincore/pkg/chunkqueue"
)

// Position is a floating-point world-space coordinate.
type Position struct{ X, Y, Z float64 }

// Rotation is yaw/pitch in degrees.
type Rotation struct{ Yaw, Pitch float32 }

// BlockPos is an integer block-grid coordinate.
type BlockPos struct{ X, Y, Z int32 }

// GameMode mirrors the four vanilla game modes.
type GameMode int32

const (
	GameModeSurvival GameMode = iota
	GameModeCreative
	GameModeAdventure
	GameModeSpectator
)

// GameProfile is immutable after login (§3).
type GameProfile struct {
	ID   uuid.UUID
	Name string
}

// LivingEntity holds the position/rotation/health state common to anything
// alive in the world; Player embeds one.
type LivingEntity struct {
	mu         sync.Mutex
	Pos        Position
	LastPos    Position
	Rot        Rotation
	Pose       string
	Velocity   Position
	OnGround   bool
	Sprinting  bool
	Effects    []StatusEffect
	Health     float32
	MaxHealth  float32
}

// StatusEffect is a single active potion-style effect.
type StatusEffect struct {
	ID       int32
	Amplifier int32
	Duration  int32
}

func (e *LivingEntity) SetPos(p Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.LastPos = e.Pos
	e.Pos = p
}

func (e *LivingEntity) SetRotation(r Rotation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Rot = r
}

func (e *LivingEntity) Snapshot() (Position, Rotation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Pos, e.Rot
}

// ItemStack is a single inventory cell.
type ItemStack struct {
	ItemID int32
	Count  int32
	NBT    map[string]any
}

// Inventory is the fixed-size main inventory plus an equipment sub-map,
// per §3/§6. Lock ordering: held_item (Inventory.mu) before screen_handler.
type Inventory struct {
	mu           sync.Mutex
	Slots        [46]ItemStack
	SelectedSlot int
	Equipment    map[string]ItemStack
}

func NewInventory() *Inventory {
	return &Inventory{Equipment: make(map[string]ItemStack)}
}

func (inv *Inventory) HeldItem() ItemStack {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.Slots[inv.SelectedSlot]
}

func (inv *Inventory) SetHeldSlot(slot int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.SelectedSlot = slot
}

// HungerState tracks the three hunger-related scalars.
type HungerState struct {
	Level      int32
	Saturation float32
	Exhaustion float32
}

// MiningState is the §4.9 mining state machine's payload.
type MiningState struct {
	mu        sync.Mutex
	Active    bool
	Pos       BlockPos
	Stage     int8
	StartTick int64
}

// TeleportState is the player's pending-teleport handle.
type TeleportState struct {
	mu      sync.Mutex
	Pending bool
	ID      int32
	Target  Position
}

// WatchedChunkCylinder is the set of chunks currently streamed to a player.
type WatchedChunkCylinder struct {
	CenterX, CenterZ int32
	Radius           int32
}

// KeepAlive tracks the per-tick keep-alive handshake state (§4.7 step 11).
type KeepAlive struct {
	mu         sync.Mutex
	LastSentMs int64
	Awaiting   bool
	ExpectedID int64
}

// LastSentSnapshot records what was last pushed to the client, to suppress
// no-op health/food/xp packets (§4.7).
type LastSentSnapshot struct {
	Health           float32
	Food             int32
	SaturationIsZero bool
	XPLevel          int32
}

// ScreenHandler is the flattened behavioral surface named in §9's design
// notes, replacing a deep inheritance chain with one interface.
type ScreenHandler interface {
	OnSlotClick(slot int, button int32)
	SyncState()
	SendContentUpdates()
	WindowType() int32
	SyncID() int32
}

// Player is the Play-phase runtime object (§3). Scalars are atomics;
// structured fields each carry their own mutex so a `Player` can be a
// shared, reference-counted object mutated from many goroutines per the
// §5 concurrency model.
type Player struct {
	Profile GameProfile
	Entity  LivingEntity

	Inventory *Inventory
	Abilities AbilitiesHandle

	Hunger hungerHandle

	experienceLevel    atomic.Int32
	experiencePoints   atomic.Int32
	experienceProgress atomicFloat32
	lastSentXP         atomic.Int32

	gamemode         atomic.Int32
	previousGamemode atomic.Int32

	RespawnPoint atomic.Pointer[BlockPos]

	sleepingSince atomic.Int32

	Mining MiningState

	Teleport          TeleportState
	teleportIDCounter atomic.Int32

	Watched WatchedChunkCylinder

	KeepAlive KeepAlive

	lastSent LastSentSnapshot
	lastSentMu sync.Mutex

	screenMu             sync.Mutex
	currentScreenHandler ScreenHandler
	playerScreenHandler  ScreenHandler

	ChatSession      []byte
	SignatureCache   *chat.SignatureCache
	ChunkQueue       *chunkqueue.Queue

	tickCounter        atomic.Int64
	lastAttackedTicks  atomic.Int64
	clientLoaded       atomic.Bool
	clientLoadedTimeout atomic.Int32
	packetSequence     atomic.Int32
}

// AbilitiesHandle is a mutex-guarded Abilities (§5: "abilities is a leaf").
type AbilitiesHandle struct {
	mu sync.Mutex
	v  Abilities
}

func (h *AbilitiesHandle) Get() Abilities {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.v
}

func (h *AbilitiesHandle) Update(fn func(*Abilities)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.v)
}

type hungerHandle struct {
	mu sync.Mutex
	v  HungerState
}

func (h *hungerHandle) Get() HungerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.v
}

func (h *hungerHandle) Update(fn func(*HungerState)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.v)
}

// New creates a Player at Play-phase entry with defaults matching vanilla
// fresh-join values.
func New(profile GameProfile, gm GameMode) *Player {
	p := &Player{
		Profile:   profile,
		Inventory: NewInventory(),
		ChunkQueue: chunkqueue.New(),
		SignatureCache: chat.NewSignatureCache(),
		Watched:   WatchedChunkCylinder{Radius: 1},
	}
	p.Entity.Health = 20
	p.Entity.MaxHealth = 20
	p.Hunger.v = HungerState{Level: 20}
	p.Abilities.v = DefaultAbilities()
	p.gamemode.Store(int32(gm))
	p.previousGamemode.Store(int32(gm))
	p.clientLoadedTimeout.Store(60)
	p.packetSequence.Store(-1)
	p.Abilities.Update(func(a *Abilities) { a.SetForGamemode(gm) })
	p.playerScreenHandler = nil
	return p
}

// GameMode returns the player's current gamemode.
func (p *Player) GameMode() GameMode { return GameMode(p.gamemode.Load()) }

// CurrentScreenHandler returns the player's active screen handler,
// defaulting to the player's own inventory handler when none is open.
func (p *Player) CurrentScreenHandler() ScreenHandler {
	p.screenMu.Lock()
	defer p.screenMu.Unlock()
	if p.currentScreenHandler != nil {
		return p.currentScreenHandler
	}
	return p.playerScreenHandler
}

// SetPlayerScreenHandler installs the player's own default handler.
func (p *Player) SetPlayerScreenHandler(h ScreenHandler) {
	p.screenMu.Lock()
	defer p.screenMu.Unlock()
	p.playerScreenHandler = h
}

// OpenScreenHandler makes h the current handler.
func (p *Player) OpenScreenHandler(h ScreenHandler) {
	p.screenMu.Lock()
	defer p.screenMu.Unlock()
	p.currentScreenHandler = h
}

// CloseScreenHandler reverts to the player's own inventory handler.
func (p *Player) CloseScreenHandler() {
	p.screenMu.Lock()
	defer p.screenMu.Unlock()
	p.currentScreenHandler = nil
}
