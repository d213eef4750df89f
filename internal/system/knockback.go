package system

import (
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// Knockback and pushback tunables.
const (
	knockbackDistancePx = 32.0
	slideSeparationPx   = 2.0
	treeCollisionRadius = 28.0
	stoneCollisionRadius = 34.0
	boxHalfExtentPx     = 24.0
	runeStoneHalfExtent = 40.0
	pushbackIterations  = 4
)

// knockbackBlocked reports whether placing a player circle at (x, y) would
// overlap a solid: another player, a live tree or stone, a rune stone AABB
// or a storage box. Campfires, sleeping bags and stashes deliberately do
// not block, so fights can spill over camp clutter.
func (c *Combat) knockbackBlocked(moverID uint64, x, y float64) bool {
	s := c.State
	blocked := false

	s.Grid.EachInNeighborhood(world.KindPlayer, x, y, func(id uint64) {
		if blocked || id == moverID {
			return
		}
		o := s.Players[id]
		if o != nil && o.Alive() &&
			geom.DistanceSq(x, y, o.X, o.Y) < (2*geom.PlayerRadius)*(2*geom.PlayerRadius) {
			blocked = true
		}
	})
	if blocked {
		return true
	}

	s.Grid.EachInNeighborhood(world.KindTree, x, y, func(id uint64) {
		if blocked {
			return
		}
		n := s.Trees[id]
		if n != nil && !n.Depleted() &&
			geom.DistanceSq(x, y, n.X, n.Y) < (geom.PlayerRadius+treeCollisionRadius)*(geom.PlayerRadius+treeCollisionRadius) {
			blocked = true
		}
	})
	if blocked {
		return true
	}

	s.Grid.EachInNeighborhood(world.KindStone, x, y, func(id uint64) {
		if blocked {
			return
		}
		n := s.Stones[id]
		if n != nil && !n.Depleted() &&
			geom.DistanceSq(x, y, n.X, n.Y) < (geom.PlayerRadius+stoneCollisionRadius)*(geom.PlayerRadius+stoneCollisionRadius) {
			blocked = true
		}
	})
	if blocked {
		return true
	}

	s.Grid.EachInNeighborhood(world.KindRuneStone, x, y, func(id uint64) {
		if blocked {
			return
		}
		r := s.RuneStones[id]
		if r != nil && geom.CircleIntersectsAABB(x, y, geom.PlayerRadius,
			r.X-runeStoneHalfExtent, r.Y-runeStoneHalfExtent,
			r.X+runeStoneHalfExtent, r.Y+runeStoneHalfExtent) {
			blocked = true
		}
	})
	if blocked {
		return true
	}

	s.Grid.EachInNeighborhood(world.KindDeployable, x, y, func(id uint64) {
		if blocked {
			return
		}
		d := s.Deployables[id]
		if d == nil || d.IsDestroyed {
			return
		}
		if d.Kind != data.TargetBox {
			return
		}
		if geom.CircleIntersectsAABB(x, y, geom.PlayerRadius,
			d.X-boxHalfExtentPx, d.Y-boxHalfExtentPx,
			d.X+boxHalfExtentPx, d.Y+boxHalfExtentPx) {
			blocked = true
		}
	})
	return blocked
}

// applyKnockback pushes the target 32 px away from the attacker along the
// hit line. A destination inside a solid rejects the whole move, leaving
// the target where it stood.
func (c *Combat) applyKnockback(attackerX, attackerY float64, target *world.Player) {
	nx, ny, dist := geom.Normalize(target.X-attackerX, target.Y-attackerY)
	if dist == 0 {
		nx, ny = 0, 1
	}
	px := target.X + nx*knockbackDistancePx
	py := target.Y + ny*knockbackDistancePx
	px, py = geom.ClampToWorld(px, py, geom.PlayerRadius)
	if c.knockbackBlocked(target.ID, px, py) {
		return
	}
	c.State.MovePlayer(target, px, py)
	target.MarkDirty()
}

// applyMeleeRecoil nudges the attacker a third of the knockback distance
// back along the opposite line. Recoil shares the solid rejection rules.
func (c *Combat) applyMeleeRecoil(attacker *world.Player, targetX, targetY float64) {
	nx, ny, dist := geom.Normalize(attacker.X-targetX, attacker.Y-targetY)
	if dist == 0 {
		return
	}
	px := attacker.X + nx*(knockbackDistancePx/3)
	py := attacker.Y + ny*(knockbackDistancePx/3)
	px, py = geom.ClampToWorld(px, py, geom.PlayerRadius)
	if c.knockbackBlocked(attacker.ID, px, py) {
		return
	}
	c.State.MovePlayer(attacker, px, py)
	attacker.MarkDirty()
}

// CheckDoorCollision resolves a proposed move against wall/door collision
// bands in a ±2 tile window. It returns the corrected position after
// re-projecting out of every intersecting band, up to the iteration cap.
func CheckDoorCollision(s *world.State, x, y, radius float64) (float64, float64) {
	for i := 0; i < pushbackIterations; i++ {
		pushed := false
		s.EachStructureInWindow(x, y, 2, func(st *world.Structure) {
			if pushed {
				return
			}
			switch st.Kind {
			case world.StructWall:
			case world.StructDoor:
				if st.IsOpen {
					return
				}
			default:
				return
			}
			minX, minY, maxX, maxY := structureAABB(st)
			if !geom.CircleIntersectsAABB(x, y, radius, minX, minY, maxX, maxY) {
				return
			}
			// Closest-point-out normal.
			cx := clampF(x, minX, maxX)
			cy := clampF(y, minY, maxY)
			nx, ny, dist := geom.Normalize(x-cx, y-cy)
			if dist == 0 {
				// Center inside the band: push along the band's thin axis.
				if maxX-minX < maxY-minY {
					nx, ny = 1, 0
				} else {
					nx, ny = 0, 1
				}
			}
			x = cx + nx*(radius+slideSeparationPx)
			y = cy + ny*(radius+slideSeparationPx)
			pushed = true
		})
		if !pushed {
			return x, y
		}
	}
	return x, y
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
