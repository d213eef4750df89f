package system

import (
	"time"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// Taming tunables.
const (
	foodCheckInterval    = 2 * time.Second
	foodDetectRadiusPx   = 150.0
	heartEffectDuration  = 3 * time.Second
	followDistancePx     = 100.0
	protectRadiusPx      = 300.0
	tameStayRadiusPx     = 400.0
)

// updateTaming runs the taming checks: untamed tameables eat nearby
// dropped food and imprint on its dropper; tamed animals alternate between
// Following (stay near owner) and Protecting (engage threats near owner).
func (ai *AI) updateTaming(a *world.WildAnimal, stats *data.SpeciesStats, now time.Time) {
	if !stats.Tameable {
		return
	}

	if !a.Tamed() {
		ai.tryEatTamingFood(a, stats, now)
		return
	}

	owner := ai.State.Players[a.TamedBy]
	if owner == nil || !owner.Alive() {
		return
	}

	// Engage whoever hurt the owner recently and stands close.
	if threat := ai.ownerThreat(owner, now); threat != nil {
		a.TargetPlayerID = threat.ID
		a.SetState(world.StateProtecting, now)
		a.Dirty = true
		return
	}

	if geom.DistanceSq(a.X, a.Y, owner.X, owner.Y) > followDistancePx*followDistancePx {
		a.SetState(world.StateFollowing, now)
	} else if a.State == world.StateFollowing {
		a.SetState(world.StateIdle, now)
	}
	a.Dirty = true
}

// tryEatTamingFood looks for an accepted food stack on the ground. Eating
// consumes one unit, shows hearts, and on the stack's owner being known
// imprints the animal.
func (ai *AI) tryEatTamingFood(a *world.WildAnimal, stats *data.SpeciesStats, now time.Time) {
	if now.Sub(a.LastFoodCheck) < foodCheckInterval {
		return
	}
	a.LastFoodCheck = now

	var food *world.DroppedItem
	ai.State.Grid.EachInNeighborhood(world.KindDropped, a.X, a.Y, func(id uint64) {
		if food != nil {
			return
		}
		d := ai.State.Dropped[id]
		if d == nil || geom.DistanceSq(a.X, a.Y, d.X, d.Y) > foodDetectRadiusPx*foodDetectRadiusPx {
			return
		}
		def := ai.Items.Get(d.DefID)
		if def == nil {
			return
		}
		for _, name := range stats.TamingFoods {
			if def.Name == name {
				food = d
				return
			}
		}
	})
	if food == nil {
		return
	}

	// Walk onto the food and eat one unit.
	a.InvestigateX, a.InvestigateY = food.X, food.Y
	if geom.DistanceSq(a.X, a.Y, food.X, food.Y) > (geom.TileSizePx/2)*(geom.TileSizePx/2) {
		a.SetState(world.StateInvestigating, now)
		a.Dirty = true
		return
	}
	food.Quantity--
	if food.Quantity == 0 {
		ai.State.RemoveDropped(food.ID)
	}
	a.HeartEffectUntil = now.Add(heartEffectDuration)

	// The most recent nearby dropper becomes the owner.
	if tamer := ai.nearestPlayer(a.X, a.Y, foodDetectRadiusPx*2); tamer != nil {
		a.TamedBy = tamer.ID
		a.TamedAt = now
		a.SetState(world.StateFollowing, now)
	}
	a.Dirty = true
}

// ownerThreat returns a hostile player close to the owner worth engaging.
func (ai *AI) ownerThreat(owner *world.Player, now time.Time) *world.Player {
	if owner.LastHitTime.IsZero() || now.Sub(owner.LastHitTime) > 10*time.Second {
		return nil
	}
	var threat *world.Player
	ai.State.Grid.EachInNeighborhood(world.KindPlayer, owner.X, owner.Y, func(id uint64) {
		if threat != nil || id == owner.ID {
			return
		}
		p := ai.State.Players[id]
		if p != nil && p.Alive() &&
			geom.DistanceSq(owner.X, owner.Y, p.X, p.Y) <= protectRadiusPx*protectRadiusPx &&
			PvPActive(p, now) {
			threat = p
		}
	})
	return threat
}

func (ai *AI) nearestPlayer(x, y, radius float64) *world.Player {
	var best *world.Player
	bestSq := radius * radius
	for _, p := range ai.State.Players {
		if !p.Alive() {
			continue
		}
		if dSq := geom.DistanceSq(x, y, p.X, p.Y); dSq <= bestSq {
			best, bestSq = p, dSq
		}
	}
	return best
}
