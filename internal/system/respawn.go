package system

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/world"
)

// Seasonal growth slows as a season wears on; a freshly-turned season
// regrows plants fastest.
const (
	seasonRespawnMaxMult = 5.0
	seasonRespawnExp     = 2.5

	plantRetryInterval = 60 * time.Second
)

// Respawn restores depleted resource nodes when their timer lapses.
type Respawn struct {
	State  *world.State
	Plants *data.PlantTable
	Log    *zap.Logger
}

func NewRespawn(s *world.State, plants *data.PlantTable, log *zap.Logger) *Respawn {
	return &Respawn{State: s, Plants: plants, Log: log.Named("respawn")}
}

// seasonRespawnMult is the current seasonal slowdown applied to harvestable
// respawn times.
func seasonRespawnMult(progress float64) float64 {
	return 1 + (seasonRespawnMaxMult-1)*math.Pow(progress, seasonRespawnExp)
}

// CheckRespawn restores the node with the given id if its timer has lapsed.
// Called from the scheduler for each due one-shot; unknown ids are fine,
// the node may have been deleted while waiting.
func (r *Respawn) CheckRespawn(id uint64, now time.Time) {
	if t, ok := r.State.Trees[id]; ok {
		r.respawnTree(t, now)
		return
	}
	if s, ok := r.State.Stones[id]; ok {
		r.respawnStone(s, now)
		return
	}
	if c, ok := r.State.Corals[id]; ok {
		r.respawnCoral(c, now)
		return
	}
	if g, ok := r.State.Grass[id]; ok {
		r.respawnGrass(g, now)
		return
	}
	if p, ok := r.State.Plants[id]; ok {
		r.respawnPlant(p, now)
		return
	}
}

// CheckResourceRespawns is the batch sweep used at boot to catch timers
// that lapsed while the server was down.
func (r *Respawn) CheckResourceRespawns(now time.Time) {
	n := 0
	for _, t := range r.State.Trees {
		if !t.RespawnAt.IsZero() && !t.RespawnAt.After(now) {
			r.respawnTree(t, now)
			n++
		}
	}
	for _, s := range r.State.Stones {
		if !s.RespawnAt.IsZero() && !s.RespawnAt.After(now) {
			r.respawnStone(s, now)
			n++
		}
	}
	for _, c := range r.State.Corals {
		if !c.RespawnAt.IsZero() && !c.RespawnAt.After(now) {
			r.respawnCoral(c, now)
			n++
		}
	}
	for _, g := range r.State.Grass {
		if !g.RespawnAt.IsZero() && !g.RespawnAt.After(now) {
			r.respawnGrass(g, now)
			n++
		}
	}
	for _, p := range r.State.Plants {
		if !p.RespawnAt.IsZero() && !p.RespawnAt.After(now) {
			r.respawnPlant(p, now)
			n++
		}
	}
	if n > 0 {
		r.Log.Info("resource nodes respawned", zap.Int("count", n))
	}
}

func (r *Respawn) respawnTree(t *world.Tree, now time.Time) {
	if t.RespawnAt.IsZero() || t.RespawnAt.After(now) {
		return
	}
	t.Health = world.TreeInitialHealth
	t.ResourceRemaining = world.TreeInitialResource
	t.RespawnAt = time.Time{}
	t.LastHitTime = time.Time{}
}

func (r *Respawn) respawnStone(s *world.Stone, now time.Time) {
	if s.RespawnAt.IsZero() || s.RespawnAt.After(now) {
		return
	}
	s.Health = world.StoneInitialHealth
	s.ResourceRemaining = world.StoneInitialResource
	s.OreType = OreTypeAt(s.X, s.Y, r.State.Tiles)
	s.RespawnAt = time.Time{}
	s.LastHitTime = time.Time{}
}

func (r *Respawn) respawnCoral(c *world.LivingCoral, now time.Time) {
	if c.RespawnAt.IsZero() || c.RespawnAt.After(now) {
		return
	}
	c.Health = world.CoralInitialHealth
	c.ResourceRemaining = world.CoralInitialResource
	c.RespawnAt = time.Time{}
	c.LastHitTime = time.Time{}
}

func (r *Respawn) respawnGrass(g *world.GrassClump, now time.Time) {
	if g.RespawnAt.IsZero() || g.RespawnAt.After(now) {
		return
	}
	g.Health = world.GrassInitialHealth
	g.RespawnAt = time.Time{}
	g.LastHitTime = time.Time{}
}

// respawnPlant additionally gates on the season: a plant that cannot grow
// right now stays dormant and re-checks later.
func (r *Respawn) respawnPlant(p *world.PlantNode, now time.Time) {
	if p.RespawnAt.IsZero() || p.RespawnAt.After(now) {
		return
	}
	def := r.Plants.Get(p.Name)
	if def == nil {
		r.Log.Warn("plant node with unknown definition", zap.String("name", p.Name))
		return
	}
	if !def.CanGrowIn(r.State.Season) {
		r.State.Schedule.Insert(world.ScheduleRespawnCheck, p.ID, now.Add(plantRetryInterval))
		return
	}
	p.Health = 20
	p.RespawnAt = time.Time{}
}

// plantRespawnDelay rolls the base window scaled by the seasonal slowdown.
func plantRespawnDelay(def *data.PlantDefinition, progress float64, rng *rand.Rand) time.Duration {
	base := def.RespawnMinSecs
	if def.RespawnMaxSecs > base {
		base += rng.Intn(def.RespawnMaxSecs - def.RespawnMinSecs)
	}
	return time.Duration(float64(base)*seasonRespawnMult(progress)) * time.Second
}
