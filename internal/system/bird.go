package system

import (
	"math"
	"time"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// Bird tunables.
const (
	flyingSpeedMult    = 2.0
	flightTargetMinPx  = 400.0
	flightTargetMaxPx  = 1000.0
	scavengeDetectPx   = 500.0
	stealDetectPx      = 450.0
	birdChaseLeashPx   = 900.0
	groundedWalkChance = 0.3
	takeOffChance      = 0.15
)

// ternBehavior scavenges dropped items: it flies to loose stacks and eats
// (removes) them.
type ternBehavior struct{}

func (ternBehavior) UpdateState(ai *AI, ctx *tickContext, a *world.WildAnimal, stats *data.SpeciesStats, now time.Time) {
	if a.State == world.StateScavenging {
		return
	}
	var prize *world.DroppedItem
	ai.State.Grid.EachInNeighborhood(world.KindDropped, a.X, a.Y, func(id uint64) {
		if prize != nil {
			return
		}
		d := ai.State.Dropped[id]
		if d != nil && geom.DistanceSq(a.X, a.Y, d.X, d.Y) <= scavengeDetectPx*scavengeDetectPx {
			prize = d
		}
	})
	if prize != nil {
		a.FlyingTargetX, a.FlyingTargetY = prize.X, prize.Y
		a.IsFlying = true
		a.SetState(world.StateScavenging, now)
		a.Dirty = true
		return
	}
	birdIdle(ai, a, now)
}

// crowBehavior steals from players carrying food: it flies at a victim,
// snatches one unit and escapes with it held.
type crowBehavior struct{}

func (crowBehavior) UpdateState(ai *AI, ctx *tickContext, a *world.WildAnimal, stats *data.SpeciesStats, now time.Time) {
	if a.State == world.StateStealing || a.HeldItemName != "" {
		return
	}
	for _, p := range ctx.nearby {
		if geom.DistanceSq(a.X, a.Y, p.X, p.Y) > stealDetectPx*stealDetectPx {
			continue
		}
		if slot := ai.stealableSlot(p); slot >= 0 {
			a.TargetPlayerID = p.ID
			a.IsFlying = true
			a.SetState(world.StateStealing, now)
			a.Dirty = true
			return
		}
	}
	birdIdle(ai, a, now)
}

// stealableSlot returns the index of an enticing (material) stack.
func (ai *AI) stealableSlot(p *world.Player) int {
	for i := range p.Inventory {
		if p.Inventory[i].Quantity == 0 {
			continue
		}
		if def := ai.Items.Get(p.Inventory[i].DefID); def != nil && def.Category == "Material" {
			return i
		}
	}
	return -1
}

// birdIdle alternates between grounded walking and aimless flight.
func birdIdle(ai *AI, a *world.WildAnimal, now time.Time) {
	switch a.State {
	case world.StateFlying, world.StateFlyingChase:
		return
	case world.StateGrounded:
		if ai.Rng.Float64() < takeOffChance {
			ai.pickFlightTarget(a)
			a.IsFlying = true
			a.SetState(world.StateFlying, now)
			a.Dirty = true
		}
	default:
		a.IsFlying = false
		a.SetState(world.StateGrounded, now)
		a.Dirty = true
	}
}

func (ai *AI) pickFlightTarget(a *world.WildAnimal) {
	ang := ai.Rng.Float64() * 2 * math.Pi
	dist := flightTargetMinPx + ai.Rng.Float64()*(flightTargetMaxPx-flightTargetMinPx)
	a.FlyingTargetX = a.X + math.Cos(ang)*dist
	a.FlyingTargetY = a.Y + math.Sin(ang)*dist
	a.FlyingTargetX, a.FlyingTargetY = geom.ClampToWorld(a.FlyingTargetX, a.FlyingTargetY, animalWorldMarginPx)
}

// birdStep is the movement half of the bird state machine.
func (ai *AI) birdStep(a *world.WildAnimal, stats *data.SpeciesStats, dt float64, now time.Time) (float64, float64) {
	switch a.State {
	case world.StateFlying:
		nx, ny := ai.seekStep(a, stats.MoveSpeed*flyingSpeedMult, dt, a.FlyingTargetX, a.FlyingTargetY)
		if arrived(a.X+nx, a.Y+ny, a.FlyingTargetX, a.FlyingTargetY) {
			a.IsFlying = false
			a.SetState(world.StateGrounded, now)
		}
		return nx, ny
	case world.StateScavenging:
		nx, ny := ai.seekStep(a, stats.MoveSpeed*flyingSpeedMult, dt, a.FlyingTargetX, a.FlyingTargetY)
		if arrived(a.X+nx, a.Y+ny, a.FlyingTargetX, a.FlyingTargetY) {
			ai.finishScavenge(a, now)
		}
		return nx, ny
	case world.StateStealing:
		target := ai.State.Players[a.TargetPlayerID]
		if target == nil || !target.Alive() {
			a.SetState(world.StateGrounded, now)
			return 0, 0
		}
		nx, ny := ai.seekStep(a, stats.SprintSpeed*flyingSpeedMult, dt, target.X, target.Y)
		if arrived(a.X+nx, a.Y+ny, target.X, target.Y) {
			ai.finishSteal(a, target, now)
		}
		return nx, ny
	case world.StateFlyingChase:
		target := ai.State.Players[a.TargetPlayerID]
		if target == nil || !target.Alive() ||
			geom.DistanceSq(a.X, a.Y, target.X, target.Y) > birdChaseLeashPx*birdChaseLeashPx {
			a.TargetPlayerID = 0
			ai.pickFlightTarget(a)
			a.SetState(world.StateFlying, now)
			return 0, 0
		}
		return ai.seekStep(a, stats.SprintSpeed*flyingSpeedMult, dt, target.X, target.Y)
	default: // Grounded: short random hops.
		if ai.Rng.Float64() < groundedWalkChance {
			ang := ai.Rng.Float64() * 2 * math.Pi
			step := stats.MoveSpeed * dt
			return math.Cos(ang) * step, math.Sin(ang) * step
		}
		return 0, 0
	}
}

func (ai *AI) finishScavenge(a *world.WildAnimal, now time.Time) {
	ai.State.Grid.EachInNeighborhood(world.KindDropped, a.X, a.Y, func(id uint64) {
		d := ai.State.Dropped[id]
		if d != nil && arrived(a.X, a.Y, d.X, d.Y) {
			ai.State.RemoveDropped(id)
		}
	})
	ai.pickFlightTarget(a)
	a.SetState(world.StateFlying, now)
	a.Dirty = true
}

func (ai *AI) finishSteal(a *world.WildAnimal, target *world.Player, now time.Time) {
	if slot := ai.stealableSlot(target); slot >= 0 {
		def := ai.Items.Get(target.Inventory[slot].DefID)
		target.Inventory[slot].Quantity--
		if target.Inventory[slot].Quantity == 0 {
			target.Inventory[slot] = world.ItemStack{}
		}
		target.MarkDirty()
		if def != nil {
			a.HeldItemName = def.Name
			a.HeldItemQuantity = 1
		}
	}
	a.TargetPlayerID = 0
	ai.pickFlightTarget(a)
	a.SetState(world.StateFlying, now)
	a.Dirty = true
}
