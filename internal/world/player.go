package world

import "time"

const (
	PlayerMaxHealth = 100.0
	InventorySlots  = 24
)

// ItemStack is one inventory or container slot.
type ItemStack struct {
	InstanceID uint64
	DefID      uint64
	Quantity   uint32
}

// KillStats tracks per-weapon-class kill counters for achievements.
type KillStats struct {
	BowKills        int
	CrossbowKills   int
	SpearKills      int
	GunKills        int
	HarpoonGunKills int
	MeleeKills      int
	AnimalsKilled   int
	PlayersKilled   int
}

// Player is the authoritative row for one character. Mutated only on the
// game-loop goroutine.
type Player struct {
	ID       uint64
	Username string

	X, Y   float64
	Facing string // up, down, left, right

	Health float64

	IsDead       bool
	IsOnline     bool
	IsKnockedOut bool
	IsCrouching  bool
	IsSnorkeling bool
	IsTorchLit   bool
	IsOnWater    bool
	PvPEnabled   bool

	DeathTime       time.Time
	KnockedOutAt    time.Time
	LastPvPCombat   time.Time
	PvPEnabledUntil time.Time
	LastHitTime     time.Time
	LastUpdate      time.Time

	// Active (held) item and worn armor by piece name.
	ActiveItemDefID uint64
	Armor           []string

	Inventory [InventorySlots]ItemStack

	Insanity float64 // [0,100], raised by mining Memory ore

	XP    int
	Level int

	Stats         KillStats
	QuestProgress map[string]int

	Dirty bool // pending persistence
}

// Alive reports whether the player can act and be targeted directly.
func (p *Player) Alive() bool {
	return p.IsOnline && !p.IsDead
}

// MarkDirty flags the row for the next autosave flush.
func (p *Player) MarkDirty() { p.Dirty = true }

// DeathMarker stores a player's last death position, upserted on every death.
type DeathMarker struct {
	Owner  uint64
	X, Y   float64
	DiedAt time.Time
}
