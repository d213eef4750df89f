package world

import (
	"time"

	"github.com/shorebound/server/internal/data"
)

// Deployable is a free-placed player construction (campfire, box, shelter,
// furnace, ...). Kind reuses the combat target taxonomy so the dispatcher
// is one switch per function.
type Deployable struct {
	ID   uint64
	Kind data.TargetType
	X, Y float64

	Owner uint64

	Health    float64
	MaxHealth float64

	IsDestroyed bool
	DestroyedAt time.Time
	IsMonument  bool
	IsBurning   bool // campfires

	Slots []ItemStack

	LastHitTime   time.Time
	LastDamagedBy uint64
	ChunkIndex    uint32
}

// Destructible reports whether PvP-range weapons treat this kind as a valid
// fallback target.
func (d *Deployable) Destructible() bool { return !d.IsMonument }

// StructureKind distinguishes the cell-aligned building pieces.
type StructureKind string

const (
	StructWall       StructureKind = "Wall"
	StructDoor       StructureKind = "Door"
	StructFence      StructureKind = "Fence"
	StructFoundation StructureKind = "Foundation"
)

// CellKey addresses one foundation cell on the building grid.
type CellKey struct {
	CX, CY int
}

// Structure is a wall, door, fence or foundation bound to a cell edge.
// Walls/doors/fences sit on one edge of their cell; foundations fill it.
type Structure struct {
	ID   uint64
	Kind StructureKind

	Cell CellKey
	Edge string // north, south, east, west; empty for foundations

	Owner uint64

	Health    float64
	MaxHealth float64

	IsDestroyed bool
	DestroyedAt time.Time

	// Door-only fields.
	IsOpen   bool
	DoorType string

	LastHitTime time.Time
}

// CorpseKind separates harvest semantics of the two corpse rows.
type CorpseKind string

const (
	CorpsePlayer CorpseKind = "Player"
	CorpseAnimal CorpseKind = "Animal"
)

// Corpse is the harvestable remains of a player or animal. Health is the
// harvest budget; on depletion the remaining slots scatter as dropped items.
type Corpse struct {
	ID   uint64
	Kind CorpseKind
	X, Y float64

	SpawnedAt time.Time
	DeathTime time.Time
	Health    float64

	Slots   []ItemStack // player corpses only
	Species string      // animal corpses only
	Owner   uint64      // player corpses only

	ChunkIndex uint32
}

// DroppedItem is a loose stack on the ground.
type DroppedItem struct {
	ID       uint64
	DefID    uint64
	Quantity uint32
	X, Y     float64
	ChunkIndex uint32
	CreatedAt  time.Time
}

// RuneStone is an indestructible seeded landmark. Its AABB blocks knockback.
type RuneStone struct {
	ID    uint64
	X, Y  float64
	Color string
}

// SeaStack is a decorative deep-ocean rock column.
type SeaStack struct {
	ID   uint64
	X, Y float64
}

// Cloud drifts across the map on a schedule; purely ambient but seeded and
// persisted with everything else.
type Cloud struct {
	ID         uint64
	X, Y       float64
	DriftX     float64
	DriftY     float64
	ChunkIndex uint32
}
