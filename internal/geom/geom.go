// Package geom holds the spatial primitives shared by combat, AI and
// environment seeding: tile/chunk index math, squared distances, the
// perception-cone test and the segment/circle vs AABB intersections.
// Everything here is a pure function; world state never enters.
package geom

import "math"

// World dimensions. A tile is 48 px; a chunk is 16x16 tiles.
const (
	TileSizePx     = 48.0
	ChunkSizeTiles = 16

	WorldWidthTiles  = 1000
	WorldHeightTiles = 1000

	WorldWidthPx  = float64(WorldWidthTiles) * TileSizePx
	WorldHeightPx = float64(WorldHeightTiles) * TileSizePx

	WorldWidthChunks  = (WorldWidthTiles + ChunkSizeTiles - 1) / ChunkSizeTiles
	WorldHeightChunks = (WorldHeightTiles + ChunkSizeTiles - 1) / ChunkSizeTiles

	PlayerRadius = 32.0
)

// TileCoords converts a world pixel position to tile coordinates.
func TileCoords(x, y float64) (int, int) {
	return int(math.Floor(x / TileSizePx)), int(math.Floor(y / TileSizePx))
}

// ChunkIndex maps a world pixel position to its chunk index. The index is a
// btree key in the store, so it must be stable: row-major over chunk cells,
// clamped at the world border.
func ChunkIndex(x, y float64) uint32 {
	tx, ty := TileCoords(x, y)
	cx := tx / ChunkSizeTiles
	cy := ty / ChunkSizeTiles
	if cx < 0 {
		cx = 0
	}
	if cy < 0 {
		cy = 0
	}
	if cx >= WorldWidthChunks {
		cx = WorldWidthChunks - 1
	}
	if cy >= WorldHeightChunks {
		cy = WorldHeightChunks - 1
	}
	return uint32(cy*WorldWidthChunks + cx)
}

// ChunkIndexOfTile maps tile coordinates to the containing chunk index.
func ChunkIndexOfTile(tx, ty int) uint32 {
	return ChunkIndex(float64(tx)*TileSizePx, float64(ty)*TileSizePx)
}

// DistanceSq returns the squared Euclidean distance. Callers compare against
// squared radii; sqrt only happens when a direction is actually needed.
func DistanceSq(ax, ay, bx, by float64) float64 {
	dx := bx - ax
	dy := by - ay
	return dx*dx + dy*dy
}

// ForwardVector maps a cardinal facing string to a unit vector.
// Unrecognized facings default to down.
func ForwardVector(facing string) (float64, float64) {
	switch facing {
	case "up":
		return 0, -1
	case "down":
		return 0, 1
	case "left":
		return -1, 0
	case "right":
		return 1, 0
	default:
		return 0, 1
	}
}

// AngleWithinCone reports whether the normalized target vector lies within
// halfAngle radians of the forward vector. Both vectors must be unit length.
func AngleWithinCone(fx, fy, tx, ty, halfAngle float64) bool {
	dot := fx*tx + fy*ty
	if dot > 1 {
		dot = 1
	}
	if dot < -1 {
		dot = -1
	}
	return dot >= math.Cos(halfAngle)
}

// Normalize returns the unit vector of (dx, dy) and its length. A zero
// vector normalizes to zero with length zero.
func Normalize(dx, dy float64) (float64, float64, float64) {
	l := math.Sqrt(dx*dx + dy*dy)
	if l == 0 {
		return 0, 0, 0
	}
	return dx / l, dy / l, l
}

// LineIntersectsAABB performs the parametric slab test for the 2D segment
// (x1,y1)-(x2,y2) against the box [minX,maxX]x[minY,maxY]. Degenerate axes
// (delta below 1e-4) fall back to containment tests.
func LineIntersectsAABB(x1, y1, x2, y2, minX, minY, maxX, maxY float64) bool {
	const eps = 1e-4
	tMin := 0.0
	tMax := 1.0

	dx := x2 - x1
	if math.Abs(dx) < eps {
		if x1 < minX || x1 > maxX {
			return false
		}
	} else {
		t1 := (minX - x1) / dx
		t2 := (maxX - x1) / dx
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}

	dy := y2 - y1
	if math.Abs(dy) < eps {
		if y1 < minY || y1 > maxY {
			return false
		}
	} else {
		t1 := (minY - y1) / dy
		t2 := (maxY - y1) / dy
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}

	return true
}

// CircleIntersectsAABB clamps the circle center onto the box and compares
// the residual distance against the radius.
func CircleIntersectsAABB(px, py, radius, minX, minY, maxX, maxY float64) bool {
	cx := math.Max(minX, math.Min(px, maxX))
	cy := math.Max(minY, math.Min(py, maxY))
	return DistanceSq(px, py, cx, cy) < radius*radius
}

// ClampToWorld clamps a position into [margin, dim-margin] on both axes.
func ClampToWorld(x, y, margin float64) (float64, float64) {
	if x < margin {
		x = margin
	}
	if x > WorldWidthPx-margin {
		x = WorldWidthPx - margin
	}
	if y < margin {
		y = margin
	}
	if y > WorldHeightPx-margin {
		y = WorldHeightPx - margin
	}
	return x, y
}

// FacingFromDelta derives a cardinal facing string from a movement delta.
// Deltas below the hysteresis threshold keep the previous facing so sprites
// do not flip while an animal herds around an obstacle.
func FacingFromDelta(dx, dy float64, prev string, hysteresis float64) string {
	if math.Abs(dx) < hysteresis && math.Abs(dy) < hysteresis {
		return prev
	}
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return "right"
		}
		return "left"
	}
	if dy > 0 {
		return "down"
	}
	return "up"
}
