package world

import "time"

// Resource node initial tunables. Final-hit bonuses and respawn windows in
// the damage code reference the initial health values.
const (
	TreeInitialHealth  = 800.0
	StoneInitialHealth = 400.0
	CoralInitialHealth = 200.0
	GrassInitialHealth = 30.0

	TreeInitialResource  = 300
	StoneInitialResource = 200
	CoralInitialResource = 60
)

// Tree is a choppable resource node.
type Tree struct {
	ID                uint64
	X, Y              float64
	Kind              string // Pine, Birch, Fruit
	Health            float64
	ResourceRemaining uint32
	RespawnAt         time.Time // zero value = not respawning
	ChunkIndex        uint32
	LastHitTime       time.Time
	PlayerPlanted     bool
}

// Depleted reports whether the node is waiting on respawn. A node with no
// resource left is treated as depleted regardless of health.
func (t *Tree) Depleted() bool {
	return !t.RespawnAt.IsZero() || t.ResourceRemaining == 0
}

// Stone is a mineable resource node. OreType is re-rolled deterministically
// from the node position on every respawn.
type Stone struct {
	ID                uint64
	X, Y              float64
	OreType           string // Stone, Iron, Sulfur, Memory
	Health            float64
	ResourceRemaining uint32
	RespawnAt         time.Time
	ChunkIndex        uint32
	LastHitTime       time.Time
}

func (s *Stone) Depleted() bool {
	return !s.RespawnAt.IsZero() || s.ResourceRemaining == 0
}

// LivingCoral is harvestable only while snorkeling with a diving pick.
type LivingCoral struct {
	ID                uint64
	X, Y              float64
	Health            float64
	ResourceRemaining uint32
	RespawnAt         time.Time
	ChunkIndex        uint32
	LastHitTime       time.Time
}

func (c *LivingCoral) Depleted() bool {
	return !c.RespawnAt.IsZero() || c.ResourceRemaining == 0
}

// GrassClump is a one-or-two-swing fiber node.
type GrassClump struct {
	ID          uint64
	X, Y        float64
	Appearance  string
	Health      float64
	RespawnAt   time.Time
	ChunkIndex  uint32
	LastHitTime time.Time
}

func (g *GrassClump) Depleted() bool { return !g.RespawnAt.IsZero() }

// PlantNode is a seasonal harvestable (berries, willow, kale).
type PlantNode struct {
	ID         uint64
	Name       string // key into the plant table
	X, Y       float64
	Health     float64
	RespawnAt  time.Time
	ChunkIndex uint32
}

func (p *PlantNode) Depleted() bool { return !p.RespawnAt.IsZero() }
