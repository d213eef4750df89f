package system

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

func newTestSeeder(t *testing.T, seed int64) (*world.State, *Seeder) {
	t.Helper()
	species, err := data.LoadSpeciesTable()
	if err != nil {
		t.Fatalf("species: %v", err)
	}
	plants, err := data.LoadPlantTable()
	if err != nil {
		t.Fatalf("plants: %v", err)
	}
	s := world.NewState()
	GenerateTerrain(s, seed)
	return s, NewSeeder(s, species, plants, seed, zap.NewNop())
}

func TestSeedEnvironmentIsIdempotent(t *testing.T) {
	s, sd := newTestSeeder(t, 42)
	now := time.Now()
	sd.SeedEnvironment(now)

	trees := len(s.Trees)
	stones := len(s.Stones)
	animals := len(s.Animals)
	if trees == 0 || stones == 0 || animals == 0 {
		t.Fatalf("seeding produced an empty world: %d trees, %d stones, %d animals",
			trees, stones, animals)
	}

	sd.SeedEnvironment(now)
	if len(s.Trees) != trees || len(s.Stones) != stones || len(s.Animals) != animals {
		t.Fatal("second seeding pass duplicated entities")
	}
}

func TestSeedingAvoidsWaterAndCompound(t *testing.T) {
	s, sd := newTestSeeder(t, 42)
	sd.SeedEnvironment(time.Now())

	for _, tr := range s.Trees {
		if s.Tiles.OnWater(tr.X, tr.Y) {
			t.Fatalf("tree seeded on water at (%v, %v)", tr.X, tr.Y)
		}
		if s.Tiles.InCentralCompound(tr.X, tr.Y) {
			t.Fatalf("tree seeded inside the central compound at (%v, %v)", tr.X, tr.Y)
		}
	}
	for _, st := range s.Stones {
		if s.Tiles.OnWater(st.X, st.Y) {
			t.Fatalf("stone seeded on water at (%v, %v)", st.X, st.Y)
		}
	}
}

func TestStoneSpacingRespected(t *testing.T) {
	s, sd := newTestSeeder(t, 42)
	sd.seedStones()

	stones := make([]*world.Stone, 0, len(s.Stones))
	for _, st := range s.Stones {
		stones = append(stones, st)
	}
	for i := range stones {
		for j := i + 1; j < len(stones); j++ {
			d := geom.DistanceSq(stones[i].X, stones[i].Y, stones[j].X, stones[j].Y)
			if d < minStoneDistancePx*minStoneDistancePx {
				t.Fatalf("stones %d and %d closer than the minimum spacing", stones[i].ID, stones[j].ID)
			}
		}
	}
}

func TestSeedingIsDeterministic(t *testing.T) {
	s1, sd1 := newTestSeeder(t, 99)
	s2, sd2 := newTestSeeder(t, 99)
	sd1.seedTrees()
	sd2.seedTrees()

	if len(s1.Trees) != len(s2.Trees) {
		t.Fatalf("tree counts diverge: %d vs %d", len(s1.Trees), len(s2.Trees))
	}
	type pos struct{ x, y float64 }
	set := make(map[pos]bool, len(s1.Trees))
	for _, tr := range s1.Trees {
		set[pos{tr.X, tr.Y}] = true
	}
	for _, tr := range s2.Trees {
		if !set[pos{tr.X, tr.Y}] {
			t.Fatalf("tree at (%v, %v) only exists in one world", tr.X, tr.Y)
		}
	}
}

func TestOreTypeIsPositionDeterministic(t *testing.T) {
	s, _ := newTestSeeder(t, 1)
	for _, c := range [][2]float64{{1000, 2000}, {504, 504}, {9000, 120}} {
		a := OreTypeAt(c[0], c[1], s.Tiles)
		b := OreTypeAt(c[0], c[1], s.Tiles)
		if a != b {
			t.Fatalf("ore type at (%v, %v) not deterministic: %s vs %s", c[0], c[1], a, b)
		}
	}
}

func TestScaledCountSublinear(t *testing.T) {
	_, sd := newTestSeeder(t, 1)
	ref := sd.scaledCount(1000)

	small := world.NewState()
	small.Tiles = world.NewTileMap(300, 300)
	sd.State = small
	smallCount := sd.scaledCount(1000)

	if smallCount >= ref {
		t.Fatalf("smaller map should seed fewer entities: %d vs %d", smallCount, ref)
	}
	// A quarter of the area keeps more than a quarter of the density.
	quarterRef := world.NewTileMap(geom.WorldWidthTiles, geom.WorldHeightTiles)
	quarterArea := float64(300*300) / float64(quarterRef.Width*quarterRef.Height)
	if float64(smallCount) <= float64(ref)*quarterArea {
		t.Fatalf("scaling is not sublinear: %d of %d", smallCount, ref)
	}
}

func TestMonumentsSeededInCompound(t *testing.T) {
	s, sd := newTestSeeder(t, 42)
	sd.SeedEnvironment(time.Now())

	monuments := 0
	for _, d := range s.Deployables {
		if !d.IsMonument {
			continue
		}
		monuments++
		if !s.Tiles.InCentralCompound(d.X, d.Y) {
			t.Fatalf("%s seeded outside the compound at (%v, %v)", d.Kind, d.X, d.Y)
		}
		if !s.Tiles.OnMonument(d.X, d.Y) {
			t.Fatalf("%s at (%v, %v) missing from the monument tile cache", d.Kind, d.X, d.Y)
		}
	}
	if monuments == 0 {
		t.Fatal("seeding placed no monuments")
	}

	sd.SeedEnvironment(time.Now())
	again := 0
	for _, d := range s.Deployables {
		if d.IsMonument {
			again++
		}
	}
	if again != monuments {
		t.Fatalf("second pass duplicated monuments: %d vs %d", again, monuments)
	}
}

func TestTileBlockedRejectsMonumentTiles(t *testing.T) {
	s, sd := newTestSeeder(t, 42)
	tx := s.Tiles.Width/2 + 30
	ty := s.Tiles.Height / 2
	if s.Tiles.OnMonument(float64(tx)*geom.TileSizePx, float64(ty)*geom.TileSizePx) {
		t.Fatalf("tile (%d, %d) already marked before any monument exists", tx, ty)
	}
	s.Tiles.MarkMonument(tx, ty)
	if !sd.tileBlocked(tx, ty, true) {
		t.Fatal("monument tile still open for seeding")
	}
}
