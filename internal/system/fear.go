package system

import (
	"time"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// Fear tunables.
const (
	groupCourageThreshold = 3
	groupCourageRadiusPx  = 300.0
	fleeDistanceMinPx     = 200.0
	fleeDistanceMaxPx     = 500.0
)

// applyFear runs the centralized fear rules and returns true when the
// animal is now fleeing.
//
// Foundations frighten every species unconditionally, group or not. Fire
// (campfires, lit torches) frightens species without the fire immunity,
// unless three or more conspecifics stand within 300 px, and never applies
// to a torchbearer the animal has a personal grudge against.
func (ai *AI) applyFear(ctx *tickContext, a *world.WildAnimal, stats *data.SpeciesStats, now time.Time) bool {
	// Foundation fear: no exception at all.
	for _, st := range ctx.foundations {
		fx, fy := world.FoundationCenter(st)
		if geom.DistanceSq(a.X, a.Y, fx, fy) <= world.FoundationFearRadiusPx*world.FoundationFearRadiusPx {
			ai.fleeFrom(a, stats, fx, fy, now)
			return true
		}
	}

	if stats.ImmuneToFireFear {
		return false
	}
	if ai.groupCourage(a) {
		return false
	}

	fx, fy, afraid := ai.nearestFearedFire(ctx, a)
	if !afraid {
		return false
	}
	ai.fleeFrom(a, stats, fx, fy, now)
	return true
}

// nearestFearedFire picks the closest threatening fire source, skipping a
// lit torch held by the animal's override player.
func (ai *AI) nearestFearedFire(ctx *tickContext, a *world.WildAnimal) (float64, float64, bool) {
	best := -1.0
	var bx, by float64
	consider := func(x, y, radius float64) {
		dSq := geom.DistanceSq(a.X, a.Y, x, y)
		if dSq > radius*radius {
			return
		}
		if best < 0 || dSq < best {
			best, bx, by = dSq, x, y
		}
	}
	for _, f := range ctx.fires {
		consider(f.X, f.Y, world.FireFearRadiusPx)
	}
	for _, p := range ctx.torchbearers {
		if p.ID == a.FireFearOverriddenBy {
			continue
		}
		consider(p.X, p.Y, world.TorchFearRadiusPx)
	}
	return bx, by, best >= 0
}

// groupCourage reports whether enough conspecifics stand close by to
// suppress fire fear.
func (ai *AI) groupCourage(a *world.WildAnimal) bool {
	count := 0
	ai.State.Grid.EachInNeighborhood(world.KindAnimal, a.X, a.Y, func(id uint64) {
		if id == a.ID {
			return
		}
		o := ai.State.Animals[id]
		if o != nil && o.Species == a.Species &&
			geom.DistanceSq(a.X, a.Y, o.X, o.Y) <= groupCourageRadiusPx*groupCourageRadiusPx {
			count++
		}
	})
	return count >= groupCourageThreshold
}

// fleeFrom sets the flee state with a destination directly away from the
// threat, scaled by the species flee distance.
func (ai *AI) fleeFrom(a *world.WildAnimal, stats *data.SpeciesStats, threatX, threatY float64, now time.Time) {
	nx, ny, dist := geom.Normalize(a.X-threatX, a.Y-threatY)
	if dist == 0 {
		nx, ny = 0, -1
	}
	fleeDist := stats.FleeDistancePx
	if fleeDist < fleeDistanceMinPx {
		fleeDist = fleeDistanceMinPx
	}
	if fleeDist > fleeDistanceMaxPx {
		fleeDist = fleeDistanceMaxPx
	}
	a.InvestigateX = a.X + nx*fleeDist
	a.InvestigateY = a.Y + ny*fleeDist
	a.InvestigateX, a.InvestigateY = geom.ClampToWorld(a.InvestigateX, a.InvestigateY, geom.TileSizePx)
	a.TargetPlayerID = 0
	a.SetState(world.StateFleeing, now)
	a.Dirty = true
}
