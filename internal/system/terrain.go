package system

import (
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/shorebound/server/internal/world"
)

// Terrain tunables. Elevation and moisture are sampled at non-integer
// frequencies; integer lattice frequencies make perlin return zero
// everywhere.
const (
	elevationFreq = 0.011
	moistureFreq  = 0.023

	// Radial falloff pushes the coastline inward so the map is an island
	// with a guaranteed ocean border.
	coastFalloffPower = 2.2

	seaLevel      = 0.34
	beachLevel    = 0.38
	alpineLevel   = 0.78
	forestCutoff  = 0.58
	tundraLatFrac = 0.22 // northern fraction of the island that freezes

	hotSpringElevMin = 0.66
	hotSpringElevMax = 0.72
)

// GenerateTerrain fills the tile map deterministically from the world
// seed. Terrain is never persisted; boot regenerates it from the seed
// stored in the world singleton and arrives at the identical grid.
func GenerateTerrain(s *world.State, seed int64) {
	elev := perlin.NewPerlin(2, 2, 3, seed+100)
	moist := perlin.NewPerlin(2, 2, 3, seed+101)

	w := s.Tiles.Width
	h := s.Tiles.Height
	cx := float64(w) / 2
	cy := float64(h) / 2
	maxDist := math.Sqrt(cx*cx + cy*cy)

	for ty := 0; ty < h; ty++ {
		for tx := 0; tx < w; tx++ {
			e := noise01(elev, float64(tx)*elevationFreq, float64(ty)*elevationFreq)
			m := noise01(moist, float64(tx)*moistureFreq, float64(ty)*moistureFreq)

			// Island mask: elevation decays toward the map border.
			dx := (float64(tx) - cx) / maxDist
			dy := (float64(ty) - cy) / maxDist
			e *= 1 - math.Pow(math.Sqrt(dx*dx+dy*dy)*math.Sqrt2, coastFalloffPower)

			s.Tiles.SetTile(tx, ty, classify(tx, ty, h, e, m))
		}
	}

	carveCompound(s.Tiles)
}

func classify(tx, ty, height int, e, m float64) world.TileType {
	switch {
	case e < seaLevel:
		return world.TileSea
	case e < beachLevel:
		if m < 0.35 {
			return world.TileSand
		}
		return world.TileBeach
	case e >= alpineLevel:
		if m < 0.25 {
			return world.TileQuarry
		}
		return world.TileAlpine
	case e >= hotSpringElevMin && e < hotSpringElevMax && m > 0.85:
		return world.TileHotSpringWater
	case ty < int(float64(height)*tundraLatFrac):
		if m > forestCutoff {
			return world.TileTundraGrass
		}
		return world.TileTundra
	case m > forestCutoff:
		return world.TileForest
	case m < 0.3:
		return world.TileDirt
	default:
		return world.TileGrass
	}
}

// carveCompound levels the protected rectangle at the world center:
// asphalt pad ringed by dirt road, with road spurs out to each edge of
// the rectangle. The compound is the only man-made terrain.
func carveCompound(tiles *world.TileMap) {
	cx := tiles.Width / 2
	cy := tiles.Height / 2
	hx := world.CentralCompoundHalfX
	hy := world.CentralCompoundHalfY

	for ty := cy - hy; ty <= cy+hy; ty++ {
		for tx := cx - hx; tx <= cx+hx; tx++ {
			onEdge := tx == cx-hx || tx == cx+hx || ty == cy-hy || ty == cy+hy
			if onEdge {
				tiles.SetTile(tx, ty, world.TileDirtRoad)
			} else {
				tiles.SetTile(tx, ty, world.TileAsphalt)
			}
		}
	}

	// Road spurs north and south of the compound.
	for _, dir := range []int{-1, 1} {
		ty := cy + dir*(hy+1)
		for i := 0; i < 40; i++ {
			t, ok := tiles.TypeAt(cx, ty)
			if !ok || t.IsWater() {
				break
			}
			tiles.SetTile(cx, ty, world.TileDirtRoad)
			ty += dir
		}
	}
}

func noise01(p *perlin.Perlin, x, y float64) float64 {
	return (p.Noise2D(x, y) + 1) / 2
}
