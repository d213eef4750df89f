package system

import (
	"time"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// speciesBehavior is the per-species state machine hook. The dispatch is a
// closed switch so adding a species forces a decision here.
type speciesBehavior interface {
	UpdateState(ai *AI, ctx *tickContext, a *world.WildAnimal, stats *data.SpeciesStats, now time.Time)
}

func behaviorFor(species string) speciesBehavior {
	switch species {
	case "TundraWolf":
		return wolfBehavior{}
	case "PolarBear":
		return bearBehavior{}
	case "Wolverine":
		return wolverineBehavior{}
	case "CableViper":
		return viperBehavior{}
	case "ShoreStalker":
		return stalkerBehavior{}
	case "ArcticWalrus":
		return walrusBehavior{}
	case "SnowFox":
		return foxBehavior{}
	case "Caribou":
		return caribouBehavior{}
	case "ArcticTern":
		return ternBehavior{}
	case "Crow":
		return crowBehavior{}
	default:
		return timidCore{}
	}
}

// hostileCore chases the first detected player and drops the chase when
// the target escapes 1.5x perception range.
type hostileCore struct{}

func (hostileCore) UpdateState(ai *AI, ctx *tickContext, a *world.WildAnimal, stats *data.SpeciesStats, now time.Time) {
	if a.State == world.StateChasing {
		target := ai.State.Players[a.TargetPlayerID]
		escape := stats.PerceptionRangePx * 1.5
		if target == nil || !target.Alive() ||
			geom.DistanceSq(a.X, a.Y, target.X, target.Y) > escape*escape {
			a.TargetPlayerID = 0
			a.SetState(world.StateAlert, now)
			a.Dirty = true
		}
		return
	}
	for _, p := range ctx.nearby {
		if !ai.CanDetect(a, stats, p) {
			continue
		}
		a.TargetPlayerID = p.ID
		a.SetState(world.StateChasing, now)
		a.Dirty = true
		return
	}
	maybePatrol(ai, ctx, a, now)
}

// timidCore flees from any detected player.
type timidCore struct{}

func (timidCore) UpdateState(ai *AI, ctx *tickContext, a *world.WildAnimal, stats *data.SpeciesStats, now time.Time) {
	if a.State == world.StateFleeing {
		return
	}
	for _, p := range ctx.nearby {
		if ai.CanDetect(a, stats, p) {
			ai.fleeFrom(a, stats, p.X, p.Y, now)
			return
		}
	}
	maybePatrol(ai, ctx, a, now)
}

type wolfBehavior struct{ hostileCore }
type bearBehavior struct{ hostileCore }
type wolverineBehavior struct{ hostileCore }
type foxBehavior struct{ timidCore }
type caribouBehavior struct{ timidCore }

// viperBehavior ambushes: it holds still until a player wanders inside its
// omni perception, then strikes.
type viperBehavior struct{ hostileCore }

func (v viperBehavior) UpdateState(ai *AI, ctx *tickContext, a *world.WildAnimal, stats *data.SpeciesStats, now time.Time) {
	if a.State == world.StateIdle || a.State == world.StatePatrolling {
		for _, p := range ctx.nearby {
			if ai.CanDetect(a, stats, p) {
				a.TargetPlayerID = p.ID
				a.SetState(world.StateChasing, now)
				a.Dirty = true
				return
			}
		}
		// Vipers slither their figure-eight instead of idling.
		if a.State == world.StateIdle {
			a.SetState(world.StatePatrolling, now)
		}
		return
	}
	v.hostileCore.UpdateState(ai, ctx, a, stats, now)
}

// walrusBehavior is territorial: it ignores players until one steps within
// half its perception range, then charges. Walruses never flee.
type walrusBehavior struct{}

func (walrusBehavior) UpdateState(ai *AI, ctx *tickContext, a *world.WildAnimal, stats *data.SpeciesStats, now time.Time) {
	if a.State == world.StateChasing {
		target := ai.State.Players[a.TargetPlayerID]
		if target == nil || !target.Alive() ||
			geom.DistanceSq(a.X, a.Y, target.X, target.Y) > stats.PerceptionRangePx*stats.PerceptionRangePx {
			a.TargetPlayerID = 0
			a.SetState(world.StateIdle, now)
			a.Dirty = true
		}
		return
	}
	guard := stats.PerceptionRangePx / 2
	for _, p := range ctx.nearby {
		if geom.DistanceSq(a.X, a.Y, p.X, p.Y) <= guard*guard && ai.CanDetect(a, stats, p) {
			a.TargetPlayerID = p.ID
			a.SetState(world.StateChasing, now)
			a.Dirty = true
			return
		}
	}
	maybePatrol(ai, ctx, a, now)
}

// stalkerBehavior circles its victim at a stalk distance before closing
// in. Stalkers despawn at their scheduled time.
type stalkerBehavior struct{ hostileCore }

func (s stalkerBehavior) UpdateState(ai *AI, ctx *tickContext, a *world.WildAnimal, stats *data.SpeciesStats, now time.Time) {
	if !a.DespawnAt.IsZero() && now.After(a.DespawnAt) {
		ai.State.RemoveAnimal(a.ID)
		return
	}
	s.hostileCore.UpdateState(ai, ctx, a, stats, now)
	if a.State == world.StateChasing {
		if target := ai.State.Players[a.TargetPlayerID]; target != nil {
			// Drift the stalk angle so the approach spirals.
			a.StalkAngle += 0.25
			a.Dirty = true
		}
	}
}

// maybePatrol upgrades an idle animal to patrolling when a player is near
// enough to possibly watch it, keeping far-off animals perfectly still.
func maybePatrol(ai *AI, ctx *tickContext, a *world.WildAnimal, now time.Time) {
	if a.State != world.StateIdle {
		return
	}
	for _, p := range ctx.players {
		if geom.DistanceSq(a.X, a.Y, p.X, p.Y) <= wanderActivationDistPx*wanderActivationDistPx {
			a.SetState(world.StatePatrolling, now)
			a.Dirty = true
			return
		}
	}
}
