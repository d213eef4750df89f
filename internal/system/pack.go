package system

import (
	"sort"
	"time"

	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// Pack tunables (wolves).
const (
	packCheckInterval   = 5 * time.Second
	packFormationRadius = 400.0
	packMaxSize         = 5
	packFormChance      = 0.20
	packLeaveChance     = 0.03
	packCohesionRadius  = 350.0
	packSteerWeight     = 0.3
)

// updatePack runs the periodic pack bookkeeping for one packable animal:
// solo wolves may join or found a pack, members may drift away, and packs
// over the cap peel their newest joiners back to solo.
func (ai *AI) updatePack(a *world.WildAnimal, now time.Time) {
	if now.Sub(a.LastPackCheck) < packCheckInterval {
		return
	}
	a.LastPackCheck = now
	a.Dirty = true

	if a.PackID == 0 {
		ai.tryFormPack(a, now)
		return
	}

	// Leave rolls. Alphas and members of big packs are more invested.
	leave := packLeaveChance
	if a.IsPackLeader || ai.packSize(a.PackID) >= 4 {
		leave /= 3
	}
	if ai.Rng.Float64() < leave {
		ai.leavePack(a)
		return
	}
	ai.enforcePackCap(a.PackID)
}

func (ai *AI) tryFormPack(a *world.WildAnimal, now time.Time) {
	var candidate *world.WildAnimal
	ai.State.Grid.EachInNeighborhood(world.KindAnimal, a.X, a.Y, func(id uint64) {
		if candidate != nil || id == a.ID {
			return
		}
		o := ai.State.Animals[id]
		if o == nil || o.Species != a.Species || o.Tamed() {
			return
		}
		if geom.DistanceSq(a.X, a.Y, o.X, o.Y) <= packFormationRadius*packFormationRadius {
			candidate = o
		}
	})
	if candidate == nil || ai.Rng.Float64() >= packFormChance {
		return
	}

	switch {
	case candidate.PackID != 0:
		ai.joinPack(a, candidate.PackID, now)
	default:
		// Found a new pack; alpha dominance decides the leader.
		packID := ai.State.NextID()
		leader, follower := a, candidate
		if ai.dominance(candidate) > ai.dominance(a) {
			leader, follower = candidate, a
		}
		leader.PackID = packID
		leader.IsPackLeader = true
		leader.PackJoinTime = now
		leader.Dirty = true
		follower.PackID = packID
		follower.IsPackLeader = false
		follower.PackJoinTime = now
		follower.Dirty = true
	}
	ai.enforcePackCap(a.PackID)
}

// dominance ranks a wolf for alpha selection: health plus noise.
func (ai *AI) dominance(a *world.WildAnimal) float64 {
	return a.Health + ai.Rng.Float64()*20
}

func (ai *AI) joinPack(a *world.WildAnimal, packID uint64, now time.Time) {
	a.PackID = packID
	a.IsPackLeader = false
	a.PackJoinTime = now
	a.Dirty = true
}

func (ai *AI) leavePack(a *world.WildAnimal) {
	wasLeader := a.IsPackLeader
	packID := a.PackID
	a.PackID = 0
	a.IsPackLeader = false
	a.Dirty = true
	if wasLeader {
		ai.promoteNewAlpha(packID)
	}
}

func (ai *AI) packMembers(packID uint64) []*world.WildAnimal {
	var out []*world.WildAnimal
	for _, o := range ai.State.Animals {
		if o.PackID == packID {
			out = append(out, o)
		}
	}
	return out
}

func (ai *AI) packSize(packID uint64) int {
	return len(ai.packMembers(packID))
}

// enforcePackCap peels excess members off newest-first until the pack is
// back at the cap.
func (ai *AI) enforcePackCap(packID uint64) {
	if packID == 0 {
		return
	}
	members := ai.packMembers(packID)
	if len(members) <= packMaxSize {
		return
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].PackJoinTime.After(members[j].PackJoinTime)
	})
	for _, m := range members[:len(members)-packMaxSize] {
		if m.IsPackLeader {
			continue
		}
		m.PackID = 0
		m.Dirty = true
	}
	// Leaders never peel; re-check in case everyone newest was the alpha.
	if ai.packSize(packID) > packMaxSize {
		for _, m := range members {
			if !m.IsPackLeader && m.PackID == packID {
				m.PackID = 0
				m.Dirty = true
				if ai.packSize(packID) <= packMaxSize {
					break
				}
			}
		}
	}
}

func (ai *AI) promoteNewAlpha(packID uint64) {
	members := ai.packMembers(packID)
	if len(members) == 0 {
		return
	}
	best := members[0]
	for _, m := range members[1:] {
		if ai.dominance(m) > ai.dominance(best) {
			best = m
		}
	}
	best.IsPackLeader = true
	best.Dirty = true
}

// packSteer pulls a pack member toward its alpha when it strays past the
// cohesion radius. Returns a steering delta to add to the movement.
func (ai *AI) packSteer(a *world.WildAnimal) (float64, float64) {
	if a.PackID == 0 || a.IsPackLeader {
		return 0, 0
	}
	for _, m := range ai.packMembers(a.PackID) {
		if !m.IsPackLeader {
			continue
		}
		if geom.DistanceSq(a.X, a.Y, m.X, m.Y) <= packCohesionRadius*packCohesionRadius {
			return 0, 0
		}
		nx, ny, _ := geom.Normalize(m.X-a.X, m.Y-a.Y)
		return nx * packSteerWeight, ny * packSteerWeight
	}
	return 0, 0
}
