package system

import (
	"math"
	"time"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

const (
	facingHysteresisPx  = 2.0
	alertHoldDuration   = 3 * time.Second
	arriveEpsilonPx     = 8.0
	animalWorldMarginPx = geom.TileSizePx
	animalOverlapPx     = 36.0
	attackOverlapSlack  = 12.0
)

// moveAnimal advances the animal one AI tick according to its state, then
// fixes facing from the actual delta, clamps to the world and re-buckets
// the chunk index. Every movement path ends here.
func (ai *AI) moveAnimal(a *world.WildAnimal, stats *data.SpeciesStats, dt float64, now time.Time) {
	oldX, oldY := a.X, a.Y
	var nx, ny float64

	switch a.State {
	case world.StatePatrolling:
		nx, ny = ai.patrolStep(a, stats, dt)
	case world.StateChasing, world.StateProtecting:
		nx, ny = ai.chaseStep(a, stats, dt)
	case world.StateInvestigating:
		nx, ny = ai.seekStep(a, stats.MoveSpeed, dt, a.InvestigateX, a.InvestigateY)
		if arrived(a.X+nx, a.Y+ny, a.InvestigateX, a.InvestigateY) {
			a.SetState(world.StateAlert, now)
		}
	case world.StateFleeing:
		nx, ny = ai.seekStep(a, stats.SprintSpeed, dt, a.InvestigateX, a.InvestigateY)
		if arrived(a.X+nx, a.Y+ny, a.InvestigateX, a.InvestigateY) {
			a.SetState(world.StateAlert, now)
		}
	case world.StateAlert:
		if now.Sub(a.StateChangeTime) > alertHoldDuration {
			a.SetState(world.StateIdle, now)
		}
	case world.StateFollowing:
		if owner := ai.State.Players[a.TamedBy]; owner != nil {
			nx, ny = ai.seekStep(a, stats.MoveSpeed, dt, owner.X, owner.Y)
			if geom.DistanceSq(a.X, a.Y, owner.X, owner.Y) <= followDistancePx*followDistancePx {
				nx, ny = 0, 0
			}
		}
	case world.StateFlying, world.StateFlyingChase, world.StateGrounded,
		world.StateScavenging, world.StateStealing:
		nx, ny = ai.birdStep(a, stats, dt, now)
	case world.StateAttacking:
		// Hold position; the attack itself resolves in the tick pipeline.
	default:
		// Idle, Hiding, Burrowed: no movement.
	}

	// Pack cohesion steering.
	sx, sy := ai.packSteer(a)
	nx += sx * stats.MoveSpeed * dt
	ny += sy * stats.MoveSpeed * dt

	px, py := a.X+nx, a.Y+ny
	px, py = geom.ClampToWorld(px, py, animalWorldMarginPx)
	px, py = ai.resolveAnimalCollision(a, px, py, a.State == world.StateChasing || a.State == world.StateAttacking)

	a.X, a.Y = px, py
	a.DirX, a.DirY = a.X-oldX, a.Y-oldY
	a.Facing = geom.FacingFromDelta(a.DirX, a.DirY, a.Facing, facingHysteresisPx)
	ai.State.SyncAnimalChunk(a)
	if a.X != oldX || a.Y != oldY {
		a.Dirty = true
	}
}

// patrolStep advances the movement pattern around the spawn anchor.
func (ai *AI) patrolStep(a *world.WildAnimal, stats *data.SpeciesStats, dt float64) (float64, float64) {
	radius := stats.PatrolRadiusPx
	if radius <= 0 {
		radius = 150
	}
	switch stats.MovementPattern {
	case "wander":
		if arrived(a.X, a.Y, a.InvestigateX, a.InvestigateY) ||
			(a.InvestigateX == 0 && a.InvestigateY == 0) {
			ang := ai.Rng.Float64() * 2 * math.Pi
			r := ai.Rng.Float64() * radius
			a.InvestigateX = a.SpawnX + math.Cos(ang)*r
			a.InvestigateY = a.SpawnY + math.Sin(ang)*r
		}
		return ai.seekStep(a, stats.MoveSpeed, dt, a.InvestigateX, a.InvestigateY)
	case "figure8":
		speed := stats.MoveSpeed * dt
		a.PatrolPhase += speed / (2 * math.Pi * radius)
		a.PatrolPhase -= math.Floor(a.PatrolPhase)
		t := a.PatrolPhase * 2 * math.Pi
		tx := a.SpawnX + radius*math.Sin(t)
		ty := a.SpawnY + radius*math.Sin(t)*math.Cos(t)
		return ai.seekStep(a, stats.MoveSpeed, dt, tx, ty)
	default: // loop
		speed := stats.MoveSpeed * dt
		a.PatrolPhase += speed / (2 * math.Pi * radius)
		a.PatrolPhase -= math.Floor(a.PatrolPhase)
		t := a.PatrolPhase * 2 * math.Pi
		tx := a.SpawnX + radius*math.Cos(t)
		ty := a.SpawnY + radius*math.Sin(t)
		return ai.seekStep(a, stats.MoveSpeed, dt, tx, ty)
	}
}

func (ai *AI) chaseStep(a *world.WildAnimal, stats *data.SpeciesStats, dt float64) (float64, float64) {
	target := ai.State.Players[a.TargetPlayerID]
	if target == nil || !target.Alive() {
		return 0, 0
	}
	// Stop just inside attack range so the swing connects.
	if geom.DistanceSq(a.X, a.Y, target.X, target.Y) <=
		(stats.AttackRangePx*0.8)*(stats.AttackRangePx*0.8) {
		return 0, 0
	}
	return ai.seekStep(a, stats.SprintSpeed, dt, target.X, target.Y)
}

// seekStep is a straight-line step toward a point, never overshooting.
func (ai *AI) seekStep(a *world.WildAnimal, speed, dt, tx, ty float64) (float64, float64) {
	nx, ny, dist := geom.Normalize(tx-a.X, ty-a.Y)
	if dist == 0 {
		return 0, 0
	}
	step := speed * dt
	if step > dist {
		step = dist
	}
	return nx * step, ny * step
}

func arrived(x, y, tx, ty float64) bool {
	return geom.DistanceSq(x, y, tx, ty) <= arriveEpsilonPx*arriveEpsilonPx
}

// resolveAnimalCollision keeps the proposed position out of other animals
// and players. Attacking animals get a small overlap tolerance so their
// swings can land.
func (ai *AI) resolveAnimalCollision(a *world.WildAnimal, px, py float64, attacking bool) (float64, float64) {
	sep := animalOverlapPx
	if attacking {
		sep -= attackOverlapSlack
	}
	blocked := false
	ai.State.Grid.EachInNeighborhood(world.KindAnimal, px, py, func(id uint64) {
		if blocked || id == a.ID {
			return
		}
		o := ai.State.Animals[id]
		if o != nil && geom.DistanceSq(px, py, o.X, o.Y) < sep*sep {
			blocked = true
		}
	})
	if !blocked {
		ai.State.Grid.EachInNeighborhood(world.KindPlayer, px, py, func(id uint64) {
			if blocked {
				return
			}
			p := ai.State.Players[id]
			if p != nil && p.Alive() && geom.DistanceSq(px, py, p.X, p.Y) < sep*sep {
				blocked = true
			}
		})
	}
	if blocked {
		return a.X, a.Y
	}
	return px, py
}
