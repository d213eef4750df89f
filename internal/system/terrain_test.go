package system

import (
	"testing"

	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

func TestTerrainIsDeterministic(t *testing.T) {
	a := world.NewState()
	b := world.NewState()
	GenerateTerrain(a, 99)
	GenerateTerrain(b, 99)

	for ty := 0; ty < geom.WorldHeightTiles; ty += 37 {
		for tx := 0; tx < geom.WorldWidthTiles; tx += 37 {
			ta, _ := a.Tiles.TypeAt(tx, ty)
			tb, _ := b.Tiles.TypeAt(tx, ty)
			if ta != tb {
				t.Fatalf("tile (%d,%d) differs between runs: %v vs %v", tx, ty, ta, tb)
			}
		}
	}
}

func TestTerrainOceanBorderAndCompound(t *testing.T) {
	s := world.NewState()
	GenerateTerrain(s, 7)

	for tx := 0; tx < geom.WorldWidthTiles; tx += 50 {
		for _, ty := range []int{0, geom.WorldHeightTiles - 1} {
			tt, _ := s.Tiles.TypeAt(tx, ty)
			if tt != world.TileSea {
				t.Fatalf("border tile (%d,%d) is %v, want sea", tx, ty, tt)
			}
		}
	}

	cx := geom.WorldWidthTiles / 2
	cy := geom.WorldHeightTiles / 2
	center, _ := s.Tiles.TypeAt(cx, cy)
	if center != world.TileAsphalt {
		t.Fatalf("compound center is %v, want asphalt", center)
	}
	edge, _ := s.Tiles.TypeAt(cx-world.CentralCompoundHalfX, cy)
	if edge != world.TileDirtRoad {
		t.Fatalf("compound edge is %v, want dirt road", edge)
	}

	land := 0
	sea := 0
	for ty := 0; ty < geom.WorldHeightTiles; ty += 13 {
		for tx := 0; tx < geom.WorldWidthTiles; tx += 13 {
			tt, _ := s.Tiles.TypeAt(tx, ty)
			if tt == world.TileSea {
				sea++
			} else {
				land++
			}
		}
	}
	if land == 0 || sea == 0 {
		t.Fatalf("degenerate map: land=%d sea=%d", land, sea)
	}
}
