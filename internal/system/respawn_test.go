package system

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shorebound/server/internal/world"
)

func newTestRespawn(t *testing.T) (*world.State, *Combat, *Respawn) {
	t.Helper()
	s, c := newTestCombat(t)
	return s, c, NewRespawn(s, c.Plants, zap.NewNop())
}

func TestTreeRespawnResetsNode(t *testing.T) {
	s, _, r := newTestRespawn(t)
	now := time.Now()

	tr := &world.Tree{
		ID: s.NextID(), X: 500, Y: 500, Kind: "Pine",
		Health: 0, ResourceRemaining: 0,
		RespawnAt:   now.Add(-time.Second),
		LastHitTime: now.Add(-time.Hour),
	}
	s.AddTree(tr)

	r.CheckRespawn(tr.ID, now)
	if tr.Health != world.TreeInitialHealth || tr.ResourceRemaining != world.TreeInitialResource {
		t.Fatalf("tree not reset: health=%v remaining=%d", tr.Health, tr.ResourceRemaining)
	}
	if !tr.RespawnAt.IsZero() || !tr.LastHitTime.IsZero() {
		t.Fatal("respawn sentinel or hit timestamp not cleared")
	}
}

func TestFutureRespawnIsLeftAlone(t *testing.T) {
	s, _, r := newTestRespawn(t)
	now := time.Now()

	tr := &world.Tree{
		ID: s.NextID(), X: 500, Y: 500,
		Health: 0, RespawnAt: now.Add(time.Hour),
	}
	s.AddTree(tr)

	r.CheckRespawn(tr.ID, now)
	if tr.Health != 0 {
		t.Fatal("tree respawned before its timer lapsed")
	}
}

func TestStoneRespawnRerollsSameOre(t *testing.T) {
	s, _, r := newTestRespawn(t)
	now := time.Now()

	x, y := 1000.0, 2000.0
	original := OreTypeAt(x, y, s.Tiles)
	st := &world.Stone{
		ID: s.NextID(), X: x, Y: y, OreType: original,
		Health: 0, ResourceRemaining: 0,
		RespawnAt: now.Add(-time.Second),
	}
	s.AddStone(st)

	r.CheckRespawn(st.ID, now)
	if st.OreType != original {
		t.Fatalf("position-seeded ore re-roll diverged: %s vs %s", st.OreType, original)
	}
	if st.Health != world.StoneInitialHealth {
		t.Fatalf("stone not reset: %v", st.Health)
	}
}

func TestPlantRespawnGatesOnSeason(t *testing.T) {
	s, _, r := newTestRespawn(t)
	now := time.Now()

	// Arctic Willow grows in Spring and Summer only.
	p := &world.PlantNode{
		ID: s.NextID(), Name: "Arctic Willow", X: 500, Y: 500,
		Health: 0, RespawnAt: now.Add(-time.Second),
	}
	s.AddPlant(p)

	s.Season = "Winter"
	r.CheckRespawn(p.ID, now)
	if p.Health != 0 {
		t.Fatal("willow regrew in winter")
	}
	if !s.Schedule.Has(world.ScheduleRespawnCheck, p.ID) {
		t.Fatal("dormant plant did not book a re-check")
	}

	s.Season = "Spring"
	r.CheckRespawn(p.ID, now)
	if p.Health == 0 {
		t.Fatal("willow did not regrow in spring")
	}
	if !p.RespawnAt.IsZero() {
		t.Fatal("respawn sentinel not cleared")
	}
}

func TestSeasonRespawnMultiplierRises(t *testing.T) {
	early := seasonRespawnMult(0)
	late := seasonRespawnMult(1)
	if early != 1 {
		t.Fatalf("season start multiplier: %v, want 1", early)
	}
	if late != seasonRespawnMaxMult {
		t.Fatalf("season end multiplier: %v, want %v", late, seasonRespawnMaxMult)
	}
	if seasonRespawnMult(0.5) >= seasonRespawnMult(0.9) {
		t.Fatal("multiplier must rise with season progress")
	}
}

func TestBootSweepCatchesLapsedTimers(t *testing.T) {
	s, _, r := newTestRespawn(t)
	now := time.Now()

	for i := 0; i < 3; i++ {
		s.AddTree(&world.Tree{
			ID: s.NextID(), X: float64(100 * i), Y: 100,
			Health: 0, RespawnAt: now.Add(-time.Minute),
		})
	}
	s.AddStone(&world.Stone{
		ID: s.NextID(), X: 900, Y: 900,
		Health: 0, RespawnAt: now.Add(-time.Minute),
	})

	r.CheckResourceRespawns(now)
	for _, tr := range s.Trees {
		if tr.Health != world.TreeInitialHealth {
			t.Fatal("boot sweep missed a tree")
		}
	}
	for _, st := range s.Stones {
		if st.Health != world.StoneInitialHealth {
			t.Fatal("boot sweep missed a stone")
		}
	}
}

func TestSchedulerDispatch(t *testing.T) {
	s, c := newTestCombat(t)
	ai := NewAI(s, c.Species, c.Armor, c.Items, c, c.Log, c.Rng)
	r := NewRespawn(s, c.Plants, zap.NewNop())
	sched := NewSchedulerSystem(s, ai, c, r, zap.NewNop())
	now := time.Now()

	// Knocked-out recovery.
	p := addAlivePlayer(s, 100, 100)
	p.IsKnockedOut = true
	p.KnockedOutAt = now.Add(-time.Minute)
	p.Health = 1
	s.Schedule.Insert(world.ScheduleKnockedOutRecover, p.ID, now.Add(-time.Second))

	// Corpse despawn with a remaining stack.
	co := &world.Corpse{
		ID: s.NextID(), Kind: world.CorpsePlayer, X: 200, Y: 200,
		Slots: []world.ItemStack{{InstanceID: 1, DefID: 40, Quantity: 5}},
	}
	s.AddCorpse(co)
	s.Schedule.Insert(world.ScheduleCorpseDespawn, co.ID, now.Add(-time.Second))

	// Lapsed tree respawn.
	tr := &world.Tree{ID: s.NextID(), X: 300, Y: 300, Health: 0,
		RespawnAt: now.Add(-time.Second)}
	s.AddTree(tr)
	s.Schedule.Insert(world.ScheduleRespawnCheck, tr.ID, now.Add(-time.Second))

	sched.Drain(now)

	if p.IsKnockedOut {
		t.Fatal("recovery row did not wake the player")
	}
	if s.Corpses[co.ID] != nil {
		t.Fatal("corpse survived its despawn")
	}
	if len(s.Dropped) == 0 {
		t.Fatal("corpse slots were not scattered")
	}
	if tr.Health != world.TreeInitialHealth {
		t.Fatal("respawn row did not restore the tree")
	}
	if s.Schedule.Count() != 0 {
		t.Fatalf("one-shot rows survived the drain: %d", s.Schedule.Count())
	}
}

func TestIntervalRowSurvivesDrain(t *testing.T) {
	s, c := newTestCombat(t)
	ai := NewAI(s, c.Species, c.Armor, c.Items, c, c.Log, c.Rng)
	r := NewRespawn(s, c.Plants, zap.NewNop())
	sched := NewSchedulerSystem(s, ai, c, r, zap.NewNop())
	now := time.Now()

	ai.Start(now.Add(-AITickInterval * 2))
	sched.Drain(now)
	if s.Schedule.Count() != 1 {
		t.Fatalf("interval row dropped by the drain: %d rows", s.Schedule.Count())
	}
}

func TestRebookTimersRestoresLostRows(t *testing.T) {
	s, c := newTestCombat(t)
	ai := NewAI(s, c.Species, c.Armor, c.Items, c, c.Log, c.Rng)
	r := NewRespawn(s, c.Plants, zap.NewNop())
	sched := NewSchedulerSystem(s, ai, c, r, zap.NewNop())
	now := time.Now()

	// A loaded world arrives with timestamps but no schedule rows.
	tr := &world.Tree{
		ID: s.NextID(), X: 500, Y: 500, Kind: "Pine",
		RespawnAt: now.Add(10 * time.Minute),
	}
	s.AddTree(tr)

	p := addAlivePlayer(s, 100, 100)
	p.IsKnockedOut = true
	p.Health = 1
	p.KnockedOutAt = now.Add(-2 * knockedOutRecoverAfter)

	co := &world.Corpse{
		ID: s.NextID(), Kind: world.CorpseAnimal, X: 200, Y: 200,
		Species: "SnowFox", DeathTime: now.Add(-time.Hour),
	}
	s.AddCorpse(co)

	sched.RebookTimers(now)
	if s.Schedule.Count() != 3 {
		t.Fatalf("expected 3 rebooked rows, got %d", s.Schedule.Count())
	}

	// Lapsed timers fire on the first drain; the future tree row stays.
	sched.Drain(now)
	if p.IsKnockedOut || p.Health <= 1 {
		t.Fatalf("knocked-out recovery did not fire: ko=%v health=%v", p.IsKnockedOut, p.Health)
	}
	if s.Corpses[co.ID] != nil {
		t.Fatal("lapsed corpse not despawned")
	}
	if s.Schedule.Count() != 1 {
		t.Fatalf("future respawn row should remain, got %d rows", s.Schedule.Count())
	}
}
