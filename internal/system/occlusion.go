package system

import (
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// Structure collision geometry. Edge pieces are thin bands along one side
// of their cell; the south band sits 24 px inside the tile bottom so door
// sprites do not clip the player standing below them.
const (
	doorCollisionThicknessPx = 6.0
	southDoorOffsetPx        = 24.0
	structureWindowCells     = 3
	shelterHalfExtentPx      = 72.0
)

// structureAABB returns the collision box of a wall, door, fence or
// foundation in world pixels.
func structureAABB(st *world.Structure) (minX, minY, maxX, maxY float64) {
	left := float64(st.Cell.CX) * geom.TileSizePx
	top := float64(st.Cell.CY) * geom.TileSizePx
	right := left + geom.TileSizePx
	bottom := top + geom.TileSizePx

	if st.Kind == world.StructFoundation {
		return left, top, right, bottom
	}
	switch st.Edge {
	case "north":
		return left, top - doorCollisionThicknessPx/2, right, top + doorCollisionThicknessPx/2
	case "south":
		y := bottom - southDoorOffsetPx
		return left, y - doorCollisionThicknessPx/2, right, y + doorCollisionThicknessPx/2
	case "west":
		return left - doorCollisionThicknessPx/2, top, left + doorCollisionThicknessPx/2, bottom
	default: // east
		return right - doorCollisionThicknessPx/2, top, right + doorCollisionThicknessPx/2, bottom
	}
}

// lineHitsStructure returns the nearest live structure of the kind whose
// collision band crosses the segment, searching the tile window around the
// segment midpoint. Closed-only applies to doors.
func (c *Combat) lineHitsStructure(kind world.StructureKind, closedOnly bool, x1, y1, x2, y2 float64) *world.Structure {
	var best *world.Structure
	bestSq := 0.0
	mx, my := (x1+x2)/2, (y1+y2)/2
	c.State.EachStructureInWindow(mx, my, structureWindowCells, func(st *world.Structure) {
		if st.Kind != kind {
			return
		}
		if closedOnly && st.IsOpen {
			return
		}
		minX, minY, maxX, maxY := structureAABB(st)
		if !geom.LineIntersectsAABB(x1, y1, x2, y2, minX, minY, maxX, maxY) {
			return
		}
		cx, cy := (minX+maxX)/2, (minY+maxY)/2
		dSq := geom.DistanceSq(x1, y1, cx, cy)
		if best == nil || dSq < bestSq {
			best, bestSq = st, dSq
		}
	})
	return best
}

func (c *Combat) lineHitsWall(x1, y1, x2, y2 float64) *world.Structure {
	return c.lineHitsStructure(world.StructWall, false, x1, y1, x2, y2)
}

func (c *Combat) lineHitsFence(x1, y1, x2, y2 float64) *world.Structure {
	return c.lineHitsStructure(world.StructFence, false, x1, y1, x2, y2)
}

func (c *Combat) lineHitsClosedDoor(x1, y1, x2, y2 float64) *world.Structure {
	return c.lineHitsStructure(world.StructDoor, true, x1, y1, x2, y2)
}

// shelterBlocks reports whether the segment crosses a shelter that neither
// the attacker nor the target's owner controls. A player inside their own
// shelter stays attackable by themselves and protected from everyone else.
func (c *Combat) shelterBlocks(attackerID, targetOwnerID uint64, x1, y1, x2, y2 float64) bool {
	blocked := false
	mx, my := (x1+x2)/2, (y1+y2)/2
	c.State.Grid.EachInNeighborhood(world.KindDeployable, mx, my, func(id uint64) {
		if blocked {
			return
		}
		d := c.State.Deployables[id]
		if d == nil || d.Kind != data.TargetShelter || d.IsDestroyed {
			return
		}
		if d.Owner == attackerID || d.Owner == targetOwnerID {
			return
		}
		if geom.LineIntersectsAABB(x1, y1, x2, y2,
			d.X-shelterHalfExtentPx, d.Y-shelterHalfExtentPx,
			d.X+shelterHalfExtentPx, d.Y+shelterHalfExtentPx) {
			blocked = true
		}
	})
	return blocked
}
