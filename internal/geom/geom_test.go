package geom

import (
	"math"
	"testing"
)

func TestChunkIndexStable(t *testing.T) {
	// Same position always maps to the same index.
	a := ChunkIndex(12345, 6789)
	b := ChunkIndex(12345, 6789)
	if a != b {
		t.Fatalf("chunk index not stable: %d vs %d", a, b)
	}

	// One chunk is 16 tiles = 768 px. Positions inside the same chunk share
	// an index; crossing the boundary changes it.
	if ChunkIndex(0, 0) != ChunkIndex(767, 767) {
		t.Error("positions in the same chunk got different indices")
	}
	if ChunkIndex(0, 0) == ChunkIndex(768, 0) {
		t.Error("crossing the chunk border did not change the index")
	}

	// Row-major: moving one chunk down advances by the chunk-row width.
	if ChunkIndex(0, 768)-ChunkIndex(0, 0) != uint32(WorldWidthChunks) {
		t.Error("chunk index is not row-major")
	}
}

func TestChunkIndexClampsAtBorder(t *testing.T) {
	inside := ChunkIndex(WorldWidthPx-1, WorldHeightPx-1)
	outside := ChunkIndex(WorldWidthPx+500, WorldHeightPx+500)
	if inside != outside {
		t.Errorf("out-of-bounds position not clamped: %d vs %d", inside, outside)
	}
	if ChunkIndex(-50, -50) != 0 {
		t.Error("negative position should clamp to chunk 0")
	}
}

func TestForwardVector(t *testing.T) {
	cases := []struct {
		facing string
		fx, fy float64
	}{
		{"up", 0, -1},
		{"down", 0, 1},
		{"left", -1, 0},
		{"right", 1, 0},
		{"sideways", 0, 1}, // unknown facing defaults to down
	}
	for _, c := range cases {
		fx, fy := ForwardVector(c.facing)
		if fx != c.fx || fy != c.fy {
			t.Errorf("ForwardVector(%q) = (%v,%v), want (%v,%v)", c.facing, fx, fy, c.fx, c.fy)
		}
	}
}

func TestAngleWithinCone(t *testing.T) {
	half := 45 * math.Pi / 180

	// Straight ahead.
	if !AngleWithinCone(1, 0, 1, 0, half) {
		t.Error("straight ahead should be inside the cone")
	}
	// 30 degrees off, inside a 45 degree half-angle.
	tx, ty, _ := Normalize(math.Cos(30*math.Pi/180), math.Sin(30*math.Pi/180))
	if !AngleWithinCone(1, 0, tx, ty, half) {
		t.Error("30 deg off-axis should be inside a 45 deg cone")
	}
	// 60 degrees off, outside.
	tx, ty, _ = Normalize(math.Cos(60*math.Pi/180), math.Sin(60*math.Pi/180))
	if AngleWithinCone(1, 0, tx, ty, half) {
		t.Error("60 deg off-axis should be outside a 45 deg cone")
	}
	// Omni cone (pi) accepts everything, including directly behind.
	if !AngleWithinCone(1, 0, -1, 0, math.Pi) {
		t.Error("a pi half-angle cone must accept targets behind")
	}
}

func TestLineIntersectsAABB(t *testing.T) {
	// Horizontal segment crossing a box.
	if !LineIntersectsAABB(0, 5, 20, 5, 8, 0, 12, 10) {
		t.Error("crossing segment should intersect")
	}
	// Segment ending before the box.
	if LineIntersectsAABB(0, 5, 6, 5, 8, 0, 12, 10) {
		t.Error("short segment should not intersect")
	}
	// Segment passing above the box.
	if LineIntersectsAABB(0, 20, 20, 20, 8, 0, 12, 10) {
		t.Error("segment above the box should not intersect")
	}
	// Degenerate vertical segment inside the x-slab.
	if !LineIntersectsAABB(10, -5, 10, 15, 8, 0, 12, 10) {
		t.Error("vertical segment through the box should intersect")
	}
	// Degenerate vertical segment outside the x-slab.
	if LineIntersectsAABB(20, -5, 20, 15, 8, 0, 12, 10) {
		t.Error("vertical segment beside the box should not intersect")
	}
	// Diagonal through a thin door-like band.
	if !LineIntersectsAABB(0, 0, 100, 100, 40, 47, 88, 53) {
		t.Error("diagonal through a thin band should intersect")
	}
}

func TestCircleIntersectsAABB(t *testing.T) {
	if !CircleIntersectsAABB(5, 5, 3, 7, 0, 20, 10) {
		t.Error("circle overlapping the box edge should intersect")
	}
	if CircleIntersectsAABB(0, 5, 3, 7, 0, 20, 10) {
		t.Error("circle clear of the box should not intersect")
	}
	if !CircleIntersectsAABB(10, 5, 1, 7, 0, 20, 10) {
		t.Error("circle centered inside the box should intersect")
	}
}

func TestClampToWorld(t *testing.T) {
	x, y := ClampToWorld(-100, WorldHeightPx+100, 50)
	if x != 50 || y != WorldHeightPx-50 {
		t.Errorf("clamp = (%v,%v)", x, y)
	}
	x, y = ClampToWorld(500, 500, 50)
	if x != 500 || y != 500 {
		t.Error("interior position must be unchanged")
	}
}

func TestFacingFromDelta(t *testing.T) {
	if f := FacingFromDelta(5, 1, "up", 2); f != "right" {
		t.Errorf("got %q, want right", f)
	}
	if f := FacingFromDelta(1, 1, "up", 2); f != "up" {
		t.Errorf("hysteresis should keep previous facing, got %q", f)
	}
	if f := FacingFromDelta(0, -4, "left", 2); f != "up" {
		t.Errorf("got %q, want up", f)
	}
}
