package world

import "time"

// AnimalState is the closed state enumeration of the AI state machine.
type AnimalState string

const (
	StateIdle          AnimalState = "Idle"
	StatePatrolling    AnimalState = "Patrolling"
	StateChasing       AnimalState = "Chasing"
	StateAttacking     AnimalState = "Attacking"
	StateFleeing       AnimalState = "Fleeing"
	StateHiding        AnimalState = "Hiding"
	StateBurrowed      AnimalState = "Burrowed"
	StateInvestigating AnimalState = "Investigating"
	StateAlert         AnimalState = "Alert"
	StateFollowing     AnimalState = "Following"
	StateProtecting    AnimalState = "Protecting"
	StateFlying        AnimalState = "Flying"
	StateFlyingChase   AnimalState = "FlyingChase"
	StateGrounded      AnimalState = "Grounded"
	StateScavenging    AnimalState = "Scavenging"
	StateStealing      AnimalState = "Stealing"
)

// ActiveState reports whether the state exempts the animal from viewport
// culling: an engaged animal keeps ticking even with no player nearby.
func (s AnimalState) ActiveState() bool {
	switch s {
	case StateChasing, StateAttacking, StateFleeing, StateFollowing,
		StateProtecting, StateFlyingChase, StateScavenging, StateStealing:
		return true
	}
	return false
}

// WildAnimal is the authoritative row for one autonomous animal.
type WildAnimal struct {
	ID      uint64
	Species string

	X, Y         float64
	DirX, DirY   float64
	Facing       string
	State        AnimalState
	Health       float64
	SpawnX       float64 // patrol anchor
	SpawnY       float64
	ChunkIndex   uint32
	PatrolPhase  float64 // [0,1) position along the patrol pattern

	TargetPlayerID  uint64
	LastAttackTime  time.Time
	StateChangeTime time.Time
	HideUntil       time.Time

	InvestigateX, InvestigateY float64

	// Pack fields (wolves).
	PackID        uint64
	IsPackLeader  bool
	PackJoinTime  time.Time
	LastPackCheck time.Time

	// Per-attacker fire-fear override: being struck by this player while
	// cowering lets the animal chase them through fire.
	FireFearOverriddenBy uint64

	// Taming fields.
	TamedBy           uint64
	TamedAt           time.Time
	HeartEffectUntil  time.Time
	CryingEffectUntil time.Time
	LastFoodCheck     time.Time

	// Bird fields.
	IsFlying         bool
	FlyingTargetX    float64
	FlyingTargetY    float64
	HeldItemName     string
	HeldItemQuantity uint32

	// Hostile-NPC fields (night-cycle spawns).
	IsHostileNpc    bool
	TargetStructure uint64
	StalkAngle      float64
	StalkDistance   float64
	DespawnAt       time.Time

	Dirty bool
}

// SetState records a transition and its timestamp. The timestamp mutation
// is part of the row contract; behaviors key durations off it.
func (a *WildAnimal) SetState(s AnimalState, now time.Time) {
	if a.State != s {
		a.State = s
		a.StateChangeTime = now
	}
}

// Tamed reports whether the animal currently has an owner.
func (a *WildAnimal) Tamed() bool { return a.TamedBy != 0 }
