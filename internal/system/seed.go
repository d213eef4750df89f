package system

import (
	"math"
	"math/rand"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// Seeding tunables. Counts are calibrated for the 600x600-tile reference
// map and scale sublinearly with area.
const (
	referenceAreaTiles = 360000.0
	areaScaleExponent  = 0.85

	baseTreeCount      = 1800
	baseStoneCount     = 900
	baseGrassCount     = 1200
	basePlantCount     = 400
	baseCoralClusters  = 60
	baseSeaStackCount  = 40
	baseBarrelCount    = 120
	baseCloudCount     = 30
	baseAnimalCount    = 300

	minTreeDistancePx    = 200.0
	minStoneDistancePx   = 150.0
	stoneFromTreePx      = 100.0
	seaStackSpacingPx    = 360.0
	coralClusterSpacePx  = 300.0
	coralInClusterPx     = 60.0

	treeNoiseFreq      = 0.13
	treeNoiseThreshold = 0.7
	denseForestFreq    = 0.003
	denseForestCutoff  = 0.6

	seedMarginTiles   = 4
	spawnAttemptsMult = 30

	runeStoneGridTiles = 120
)

// Seeder populates a fresh world. All randomness flows from the world
// seed, so two servers started from the same seed agree on every rock.
type Seeder struct {
	State   *world.State
	Species *data.SpeciesTable
	Plants  *data.PlantTable
	Log     *zap.Logger

	rng   *rand.Rand
	noise *perlin.Perlin
	dense *perlin.Perlin

	used map[[2]int]struct{} // tiles taken this seeding pass
}

func NewSeeder(s *world.State, species *data.SpeciesTable, plants *data.PlantTable,
	seed int64, log *zap.Logger) *Seeder {
	return &Seeder{
		State:   s,
		Species: species,
		Plants:  plants,
		Log:     log,
		rng:     rand.New(rand.NewSource(seed)),
		noise:   perlin.NewPerlin(2, 2, 3, seed),
		dense:   perlin.NewPerlin(2, 2, 3, seed+1),
		used:    make(map[[2]int]struct{}),
	}
}

// scaledCount applies the sublinear area scaling to a reference count.
func (sd *Seeder) scaledCount(base int) int {
	area := float64(sd.State.Tiles.Width * sd.State.Tiles.Height)
	return int(float64(base) * math.Pow(area/referenceAreaTiles, areaScaleExponent))
}

// SeedEnvironment runs every category, each of which short-circuits when
// its table is already populated, so a partially-seeded world finishes
// seeding on the next boot without duplicating anything.
func (sd *Seeder) SeedEnvironment(now time.Time) {
	if len(sd.State.Trees) == 0 {
		sd.seedTrees()
	}
	if len(sd.State.Stones) == 0 {
		sd.seedStones()
	}
	if len(sd.State.Grass) == 0 {
		sd.seedGrass()
	}
	if len(sd.State.Plants) == 0 {
		sd.seedPlants()
	}
	if len(sd.State.Corals) == 0 {
		sd.seedCorals()
	}
	if len(sd.State.SeaStacks) == 0 {
		sd.seedSeaStacks()
	}
	if len(sd.State.RuneStones) == 0 {
		sd.seedRuneStones()
	}
	if !sd.anyMonument() {
		sd.seedMonuments()
	}
	if !sd.anyBarrel() {
		sd.seedBarrels()
	}
	if len(sd.State.Clouds) == 0 {
		sd.seedClouds(now)
	}
	if len(sd.State.Animals) == 0 {
		sd.seedAnimals()
	}
	sd.Log.Info("environment seeded",
		zap.Int("trees", len(sd.State.Trees)),
		zap.Int("stones", len(sd.State.Stones)),
		zap.Int("grass", len(sd.State.Grass)),
		zap.Int("animals", len(sd.State.Animals)))
}

// randomTile samples a uniform tile inside the margin.
func (sd *Seeder) randomTile() (int, int) {
	tx := seedMarginTiles + sd.rng.Intn(sd.State.Tiles.Width-2*seedMarginTiles)
	ty := seedMarginTiles + sd.rng.Intn(sd.State.Tiles.Height-2*seedMarginTiles)
	return tx, ty
}

// tileBlocked applies the global placement rejections: occupied this pass,
// water, monuments, central compound, hot springs.
func (sd *Seeder) tileBlocked(tx, ty int, allowWater bool) bool {
	if _, taken := sd.used[[2]int{tx, ty}]; taken {
		return true
	}
	x := (float64(tx) + 0.5) * geom.TileSizePx
	y := (float64(ty) + 0.5) * geom.TileSizePx
	if !allowWater && sd.State.Tiles.OnWater(x, y) {
		return true
	}
	if sd.State.Tiles.OnMonument(x, y) {
		return true
	}
	if sd.State.Tiles.InCentralCompound(x, y) {
		return true
	}
	if sd.State.Tiles.InHotSpringArea(x, y) {
		return true
	}
	return false
}

func (sd *Seeder) claim(tx, ty int) (float64, float64) {
	sd.used[[2]int{tx, ty}] = struct{}{}
	return (float64(tx) + 0.5) * geom.TileSizePx, (float64(ty) + 0.5) * geom.TileSizePx
}

// fbm samples the seeding noise normalized to [0,1].
func fbm(p *perlin.Perlin, x, y, freq float64) float64 {
	return (p.Noise2D(x*freq, y*freq) + 1) / 2
}

// denseForest reports whether a tile sits in a noise-dense forest band.
func (sd *Seeder) denseForest(tx, ty int) bool {
	return fbm(sd.dense, float64(tx), float64(ty), denseForestFreq) > denseForestCutoff
}

func (sd *Seeder) seedTrees() {
	target := sd.scaledCount(baseTreeCount)
	attempts := target * spawnAttemptsMult
	for i := 0; i < attempts && len(sd.State.Trees) < target; i++ {
		tx, ty := sd.randomTile()
		if sd.tileBlocked(tx, ty, false) {
			continue
		}
		x := (float64(tx) + 0.5) * geom.TileSizePx
		y := (float64(ty) + 0.5) * geom.TileSizePx

		// Forest tiles always pass the noise gate and pack tighter;
		// dense-forest noise bands relax both without the biome.
		threshold := treeNoiseThreshold
		minDist := minTreeDistancePx
		onForest := sd.State.Tiles.OnForest(x, y)
		switch {
		case onForest:
			threshold = -1.0
			minDist *= 0.1
		case sd.denseForest(tx, ty):
			threshold *= 0.3
			minDist *= 0.4
		}
		if fbm(sd.noise, float64(tx), float64(ty), treeNoiseFreq) <= threshold {
			continue
		}
		if sd.anyTreeWithin(x, y, minDist) {
			continue
		}
		x, y = sd.claim(tx, ty)

		kind := "Pine"
		if sd.State.Tiles.OnTundra(x, y) || sd.rng.Float64() < 0.3 {
			kind = "Birch"
		}
		sd.State.AddTree(&world.Tree{
			ID:                sd.State.NextID(),
			X:                 x,
			Y:                 y,
			Kind:              kind,
			Health:            world.TreeInitialHealth,
			ResourceRemaining: world.TreeInitialResource,
		})
	}
}

func (sd *Seeder) anyTreeWithin(x, y, dist float64) bool {
	found := false
	sd.State.Grid.EachInNeighborhood(world.KindTree, x, y, func(id uint64) {
		if found {
			return
		}
		if t := sd.State.Trees[id]; t != nil && geom.DistanceSq(x, y, t.X, t.Y) < dist*dist {
			found = true
		}
	})
	return found
}

func (sd *Seeder) seedStones() {
	target := sd.scaledCount(baseStoneCount)
	attempts := target * spawnAttemptsMult
	for i := 0; i < attempts && len(sd.State.Stones) < target; i++ {
		tx, ty := sd.randomTile()
		if sd.tileBlocked(tx, ty, false) {
			continue
		}
		x := (float64(tx) + 0.5) * geom.TileSizePx
		y := (float64(ty) + 0.5) * geom.TileSizePx
		if sd.anyStoneWithin(x, y, minStoneDistancePx) || sd.anyTreeWithin(x, y, stoneFromTreePx) {
			continue
		}
		x, y = sd.claim(tx, ty)
		sd.State.AddStone(&world.Stone{
			ID:                sd.State.NextID(),
			X:                 x,
			Y:                 y,
			OreType:           OreTypeAt(x, y, sd.State.Tiles),
			Health:            world.StoneInitialHealth,
			ResourceRemaining: world.StoneInitialResource,
		})
	}
}

func (sd *Seeder) anyStoneWithin(x, y, dist float64) bool {
	found := false
	sd.State.Grid.EachInNeighborhood(world.KindStone, x, y, func(id uint64) {
		if found {
			return
		}
		if s := sd.State.Stones[id]; s != nil && geom.DistanceSq(x, y, s.X, s.Y) < dist*dist {
			found = true
		}
	})
	return found
}

// OreTypeAt rolls the ore type from a position-seeded RNG, so a respawning
// stone re-rolls to the same type. Quarry and alpine tiles skew metallic.
func OreTypeAt(x, y float64, tiles *world.TileMap) string {
	seed := (int64(x) << 32) ^ int64(y)
	rng := rand.New(rand.NewSource(seed))

	roll := rng.Float64()
	if tiles.OnAlpine(x, y) {
		switch {
		case roll < 0.40:
			return "Iron"
		case roll < 0.50:
			return "Sulfur"
		case roll < 0.53:
			return "Memory"
		default:
			return "Stone"
		}
	}
	switch {
	case roll < 0.15:
		return "Iron"
	case roll < 0.20:
		return "Sulfur"
	case roll < 0.21:
		return "Memory"
	default:
		return "Stone"
	}
}

func (sd *Seeder) seedGrass() {
	target := sd.scaledCount(baseGrassCount)
	attempts := target * spawnAttemptsMult
	appearances := []string{"tall", "short", "reed"}
	for i := 0; i < attempts && len(sd.State.Grass) < target; i++ {
		tx, ty := sd.randomTile()
		if sd.tileBlocked(tx, ty, false) {
			continue
		}
		x, y := sd.claim(tx, ty)
		sd.State.AddGrass(&world.GrassClump{
			ID:         sd.State.NextID(),
			X:          x,
			Y:          y,
			Appearance: appearances[sd.rng.Intn(len(appearances))],
			Health:     world.GrassInitialHealth,
		})
	}
}

func (sd *Seeder) seedPlants() {
	names := sd.Plants.Names()
	if len(names) == 0 {
		return
	}
	target := sd.scaledCount(basePlantCount)
	attempts := target * spawnAttemptsMult
	for i := 0; i < attempts && len(sd.State.Plants) < target; i++ {
		tx, ty := sd.randomTile()
		if sd.tileBlocked(tx, ty, false) {
			continue
		}
		x, y := sd.claim(tx, ty)
		sd.State.AddPlant(&world.PlantNode{
			ID:     sd.State.NextID(),
			Name:   names[sd.rng.Intn(len(names))],
			X:      x,
			Y:      y,
			Health: 20,
		})
	}
}

// seedCorals places clusters of 2-4 heads on ocean water, clusters spaced
// apart, heads tight.
func (sd *Seeder) seedCorals() {
	target := sd.scaledCount(baseCoralClusters)
	attempts := target * spawnAttemptsMult
	placed := 0
	var clusterCenters [][2]float64
	for i := 0; i < attempts && placed < target; i++ {
		tx, ty := sd.randomTile()
		x := (float64(tx) + 0.5) * geom.TileSizePx
		y := (float64(ty) + 0.5) * geom.TileSizePx
		if !sd.State.Tiles.OnOceanWater(x, y) {
			continue
		}
		tooClose := false
		for _, cc := range clusterCenters {
			if geom.DistanceSq(x, y, cc[0], cc[1]) < coralClusterSpacePx*coralClusterSpacePx {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		clusterCenters = append(clusterCenters, [2]float64{x, y})
		heads := 2 + sd.rng.Intn(3)
		for h := 0; h < heads; h++ {
			ang := sd.rng.Float64() * 2 * math.Pi
			r := sd.rng.Float64() * coralInClusterPx
			sd.State.AddCoral(&world.LivingCoral{
				ID:                sd.State.NextID(),
				X:                 x + math.Cos(ang)*r,
				Y:                 y + math.Sin(ang)*r,
				Health:            world.CoralInitialHealth,
				ResourceRemaining: world.CoralInitialResource,
			})
		}
		placed++
	}
}

// seedSeaStacks places rock columns on deep ocean only.
func (sd *Seeder) seedSeaStacks() {
	target := sd.scaledCount(baseSeaStackCount)
	attempts := target * spawnAttemptsMult
	for i := 0; i < attempts && len(sd.State.SeaStacks) < target; i++ {
		tx, ty := sd.randomTile()
		x := (float64(tx) + 0.5) * geom.TileSizePx
		y := (float64(ty) + 0.5) * geom.TileSizePx
		if !sd.State.Tiles.OnOceanWater(x, y) {
			continue
		}
		tooClose := false
		for _, st := range sd.State.SeaStacks {
			if geom.DistanceSq(x, y, st.X, st.Y) < seaStackSpacingPx*seaStackSpacingPx {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		id := sd.State.NextID()
		sd.State.SeaStacks[id] = &world.SeaStack{ID: id, X: x, Y: y}
	}
}

// seedRuneStones walks a coarse grid so every region of the map gets one,
// cycling colors so each appears at least once.
func (sd *Seeder) seedRuneStones() {
	colors := []string{"red", "blue", "green", "amber"}
	i := 0
	for ty := runeStoneGridTiles / 2; ty < sd.State.Tiles.Height; ty += runeStoneGridTiles {
		for tx := runeStoneGridTiles / 2; tx < sd.State.Tiles.Width; tx += runeStoneGridTiles {
			// Jitter inside the grid cell, retrying off water.
			for try := 0; try < 10; try++ {
				jx := tx + sd.rng.Intn(runeStoneGridTiles/2) - runeStoneGridTiles/4
				jy := ty + sd.rng.Intn(runeStoneGridTiles/2) - runeStoneGridTiles/4
				if sd.tileBlocked(jx, jy, false) {
					continue
				}
				x, y := sd.claim(jx, jy)
				sd.State.AddRuneStone(&world.RuneStone{
					ID:    sd.State.NextID(),
					X:     x,
					Y:     y,
					Color: colors[i%len(colors)],
				})
				i++
				break
			}
		}
	}
}

// seedBarrels scatters lootable barrels on dirt roads and beaches.
func (sd *Seeder) anyMonument() bool {
	for _, d := range sd.State.Deployables {
		if d.IsMonument {
			return true
		}
	}
	return false
}

func (sd *Seeder) anyBarrel() bool {
	for _, d := range sd.State.Deployables {
		if d.Kind == data.TargetBarrel {
			return true
		}
	}
	return false
}

// seedMonuments places the permanent compound fixtures at the world center:
// a homestead hearth flanked by a furnace and a rain collector. They never
// despawn and refuse all damage.
func (sd *Seeder) seedMonuments() {
	cx := sd.State.Tiles.Width / 2
	cy := sd.State.Tiles.Height / 2
	fixtures := []struct {
		kind   data.TargetType
		dx, dy int
	}{
		{data.TargetHearth, 0, 0},
		{data.TargetFurnace, -3, 0},
		{data.TargetRainBarrel, 3, 0},
	}
	for _, f := range fixtures {
		x, y := sd.claim(cx+f.dx, cy+f.dy)
		sd.State.AddDeployable(&world.Deployable{
			ID:         sd.State.NextID(),
			Kind:       f.kind,
			X:          x,
			Y:          y,
			Health:     500,
			MaxHealth:  500,
			IsMonument: true,
		})
	}
}

func (sd *Seeder) seedBarrels() {
	target := sd.scaledCount(baseBarrelCount)
	attempts := target * spawnAttemptsMult
	placed := 0
	for i := 0; i < attempts && placed < target; i++ {
		tx, ty := sd.randomTile()
		x := (float64(tx) + 0.5) * geom.TileSizePx
		y := (float64(ty) + 0.5) * geom.TileSizePx
		if !sd.State.Tiles.OnDirtRoad(x, y) && !sd.State.Tiles.OnBeach(x, y) {
			continue
		}
		if sd.tileBlocked(tx, ty, false) {
			continue
		}
		x, y = sd.claim(tx, ty)
		sd.State.AddDeployable(&world.Deployable{
			ID:        sd.State.NextID(),
			Kind:      data.TargetBarrel,
			X:         x,
			Y:         y,
			Health:    50,
			MaxHealth: 50,
		})
		placed++
	}
}

func (sd *Seeder) seedClouds(now time.Time) {
	target := sd.scaledCount(baseCloudCount)
	for i := 0; i < target; i++ {
		id := sd.State.NextID()
		ang := sd.rng.Float64() * 2 * math.Pi
		sd.State.Clouds[id] = &world.Cloud{
			ID:     id,
			X:      sd.rng.Float64() * float64(sd.State.Tiles.Width) * geom.TileSizePx,
			Y:      sd.rng.Float64() * float64(sd.State.Tiles.Height) * geom.TileSizePx,
			DriftX: math.Cos(ang) * 4,
			DriftY: math.Sin(ang) * 4,
		}
	}
	if target > 0 {
		sd.State.Schedule.InsertInterval(world.ScheduleCloudDrift,
			now.Add(10*time.Second), 10*time.Second)
	}
}

// seedAnimals distributes fauna across land, skipping the hostile-NPC
// species: those are spawned by the night cycle, never by seeding.
func (sd *Seeder) seedAnimals() {
	names := sd.Species.Names()
	var spawnable []string
	for _, n := range names {
		if s := sd.Species.Get(n); s != nil && !s.IsHostileNpc {
			spawnable = append(spawnable, n)
		}
	}
	if len(spawnable) == 0 {
		return
	}
	target := sd.scaledCount(baseAnimalCount)
	attempts := target * spawnAttemptsMult
	for i := 0; i < attempts && len(sd.State.Animals) < target; i++ {
		tx, ty := sd.randomTile()
		if sd.tileBlocked(tx, ty, false) {
			continue
		}
		x := (float64(tx) + 0.5) * geom.TileSizePx
		y := (float64(ty) + 0.5) * geom.TileSizePx
		species := spawnable[sd.rng.Intn(len(spawnable))]
		stats := sd.Species.Get(species)

		state := world.StateIdle
		if stats.IsBird {
			state = world.StateGrounded
		}
		sd.State.AddAnimal(&world.WildAnimal{
			ID:      sd.State.NextID(),
			Species: species,
			X:       x,
			Y:       y,
			SpawnX:  x,
			SpawnY:  y,
			Facing:  "down",
			State:   state,
			Health:  stats.MaxHealth,
		})
	}
}
