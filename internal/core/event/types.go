package event

import "time"

// Simulation events. Emitters run in the update phases; subscribers see
// them at the start of the next tick via the double-buffered bus.

// SoundEmitted is a world-space noise animals can investigate.
type SoundEmitted struct {
	X, Y     float64
	RadiusPx float64
	Source   uint64 // player id, 0 for environmental
	Kind     string // swing, impact, gunshot, footstep
}

// PlayerDamaged fires after a player hit resolves (post armor).
type PlayerDamaged struct {
	PlayerID   uint64
	AttackerID uint64 // player id; 0 when an animal dealt it
	Amount     float64
}

// PlayerKnockedOut fires when damage drops a player to zero the first time.
type PlayerKnockedOut struct {
	PlayerID uint64
	At       time.Time
}

// PlayerDied fires when a knocked-out player takes damage again.
type PlayerDied struct {
	PlayerID uint64
	KillerID uint64
	X, Y     float64
}

// AnimalKilled fires when an animal's health reaches zero.
type AnimalKilled struct {
	AnimalID uint64
	Species  string
	KillerID uint64 // player id, 0 for environmental deaths
	WeaponID uint64 // item definition id of the killing weapon
	X, Y     float64
}

// NodeDepleted fires when a resource node's pool empties.
type NodeDepleted struct {
	NodeID uint64
	Kind   string // tree, stone, coral, grass, plant
	X, Y   float64
}

// StructureDestroyed fires when a wall, door, fence or foundation breaks.
type StructureDestroyed struct {
	StructureID uint64
	Kind        string
	AttackerID  uint64
}

// DeployableDestroyed fires when a placed construction breaks.
type DeployableDestroyed struct {
	DeployableID uint64
	Kind         string
	AttackerID   uint64
}
