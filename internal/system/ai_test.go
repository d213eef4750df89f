package system

import (
	"testing"
	"time"

	"github.com/shorebound/server/internal/core/event"
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/world"
)

func newTestAI(t *testing.T) (*world.State, *AI) {
	t.Helper()
	s, c := newTestCombat(t)
	ai := NewAI(s, c.Species, c.Armor, c.Items, c, c.Log, c.Rng)
	return s, ai
}

func addWolf(s *world.State, x, y float64) *world.WildAnimal {
	a := &world.WildAnimal{
		ID: s.NextID(), Species: "TundraWolf",
		X: x, Y: y, SpawnX: x, SpawnY: y,
		Facing: "down", State: world.StateIdle, Health: 80,
	}
	s.AddAnimal(a)
	return a
}

func TestAIStartIsIdempotent(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()
	ai.Start(now)
	first := ai.scheduleID
	ai.Start(now)
	if ai.scheduleID != first {
		t.Fatal("second Start replaced the schedule row")
	}
	if s.Schedule.Count() != 1 {
		t.Fatalf("expected 1 schedule row, got %d", s.Schedule.Count())
	}
}

func TestForeignSchedulerEntryIgnored(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()
	ai.Start(now)
	addAlivePlayer(s, 0, 0)
	a := addWolf(s, 100, 0)

	entry := world.ScheduleEntry{Kind: world.ScheduleAITick, SchedulerID: ai.scheduleID + 99}
	before := *a
	ai.ProcessWildAnimalAI(entry, now.Add(time.Second))
	if *a != before {
		t.Fatal("foreign scheduler entry mutated an animal")
	}
}

func TestCullingSkipsDistantAnimals(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()
	ai.Start(now)
	addAlivePlayer(s, 0, 0)

	far := addWolf(s, 5000, 5000)
	before := *far

	entry := world.ScheduleEntry{Kind: world.ScheduleAITick, SchedulerID: ai.scheduleID}
	ai.ProcessWildAnimalAI(entry, now.Add(time.Second))

	if *far != before {
		t.Fatal("culled animal was mutated")
	}
}

func TestEngagedAnimalExemptFromCulling(t *testing.T) {
	s, ai := newTestAI(t)
	p := addAlivePlayer(s, 0, 0)

	far := addWolf(s, 5000, 5000)
	far.State = world.StateChasing
	far.TargetPlayerID = p.ID

	ctx := &tickContext{players: []*world.Player{p}}
	if ai.culled(ctx, far) {
		t.Fatal("chasing animal must keep ticking regardless of distance")
	}
}

func TestFoundationFearIsUnconditional(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()

	// Pack four wolves together: group courage applies to fire, never to
	// foundations.
	wolves := []*world.WildAnimal{
		addWolf(s, 100, 100), addWolf(s, 120, 100),
		addWolf(s, 100, 120), addWolf(s, 120, 120),
	}
	foundation := &world.Structure{
		ID: s.NextID(), Kind: world.StructFoundation,
		Cell: world.CellKey{CX: 2, CY: 2}, Health: 500, MaxHealth: 500,
	}
	s.AddStructure(foundation)

	stats := ai.Species.Get("TundraWolf")
	ctx := &tickContext{now: now, foundations: []*world.Structure{foundation}}
	if !ai.applyFear(ctx, wolves[0], stats, now) {
		t.Fatal("foundation fear suppressed")
	}
	if wolves[0].State != world.StateFleeing {
		t.Fatalf("expected fleeing, got %v", wolves[0].State)
	}
}

func TestGroupCourageSuppressesFireFear(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()

	fire := &world.Deployable{
		ID: s.NextID(), Kind: data.TargetCampfire, X: 150, Y: 100,
		Health: 100, MaxHealth: 100, IsBurning: true,
	}
	s.AddDeployable(fire)
	stats := ai.Species.Get("TundraWolf")
	ctx := &tickContext{now: now, fires: []*world.Deployable{fire}}

	lone := addWolf(s, 100, 100)
	if !ai.applyFear(ctx, lone, stats, now) {
		t.Fatal("lone wolf should fear the campfire")
	}

	// Three packmates within 300 px flip the courage check.
	pack := addWolf(s, 300, 1000)
	addWolf(s, 320, 1000)
	addWolf(s, 340, 1000)
	addWolf(s, 360, 1000)
	fire2 := &world.Deployable{
		ID: s.NextID(), Kind: data.TargetCampfire, X: 350, Y: 1000,
		Health: 100, MaxHealth: 100, IsBurning: true,
	}
	s.AddDeployable(fire2)
	ctx2 := &tickContext{now: now, fires: []*world.Deployable{fire2}}
	if ai.applyFear(ctx2, pack, stats, now) {
		t.Fatal("grouped wolf should hold its ground at a fire")
	}
}

func TestTorchFearSkipsOverridePlayer(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()

	bearer := addAlivePlayer(s, 150, 100)
	bearer.IsTorchLit = true
	stats := ai.Species.Get("TundraWolf")

	a := addWolf(s, 100, 100)
	ctx := &tickContext{now: now, torchbearers: []*world.Player{bearer}}
	if !ai.applyFear(ctx, a, stats, now) {
		t.Fatal("wolf should fear a lit torch at 50 px")
	}

	a2 := addWolf(s, 100, 2000)
	bearer2 := addAlivePlayer(s, 150, 2000)
	bearer2.IsTorchLit = true
	// Only the grudge target carries a torch nearby.
	a2.FireFearOverriddenBy = bearer2.ID
	ctx2 := &tickContext{now: now, torchbearers: []*world.Player{bearer2}}
	if ai.applyFear(ctx2, a2, stats, now) {
		t.Fatal("override player's torch must not frighten the animal")
	}
}

func TestPackCapPeelsNewestFirst(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()

	packID := s.NextID()
	var members []*world.WildAnimal
	for i := 0; i < 7; i++ {
		w := addWolf(s, float64(100+i*30), 100)
		w.PackID = packID
		w.PackJoinTime = now.Add(time.Duration(i) * time.Minute)
		members = append(members, w)
	}
	members[0].IsPackLeader = true

	ai.enforcePackCap(packID)

	if got := ai.packSize(packID); got != packMaxSize {
		t.Fatalf("pack size after cap: %d, want %d", got, packMaxSize)
	}
	if members[0].PackID != packID {
		t.Fatal("leader was peeled off its own pack")
	}
	// The two newest joiners are the ones pushed out.
	if members[6].PackID != 0 || members[5].PackID != 0 {
		t.Fatal("cap did not peel the newest joiners")
	}
}

func TestLeaderLeavingPromotesNewAlpha(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()

	packID := s.NextID()
	leader := addWolf(s, 100, 100)
	leader.PackID = packID
	leader.IsPackLeader = true
	second := addWolf(s, 140, 100)
	second.PackID = packID
	second.PackJoinTime = now

	ai.leavePack(leader)

	if leader.PackID != 0 {
		t.Fatal("leader still in pack")
	}
	if !second.IsPackLeader {
		t.Fatal("no new alpha promoted")
	}
}

func TestSnorkelersAreInvisible(t *testing.T) {
	s, ai := newTestAI(t)
	a := addWolf(s, 100, 100)
	a.DirX = 1
	stats := ai.Species.Get("TundraWolf")

	p := addAlivePlayer(s, 120, 100)
	p.IsSnorkeling = true
	if ai.CanDetect(a, stats, p) {
		t.Fatal("snorkeling player detected")
	}
	p.IsSnorkeling = false
	if !ai.CanDetect(a, stats, p) {
		t.Fatal("adjacent surface player not detected")
	}
}

func TestCrouchHalvesPerceptionRange(t *testing.T) {
	s, ai := newTestAI(t)
	a := addWolf(s, 0, 0)
	a.DirX, a.DirY = 1, 0
	stats := ai.Species.Get("TundraWolf")

	// Standing at 60% of perception range: visible. Crouched, effective
	// range halves and the same spot is out of reach.
	p := addAlivePlayer(s, stats.PerceptionRangePx*0.6, 0)
	if !ai.CanDetect(a, stats, p) {
		t.Fatal("standing player in range not detected")
	}
	p.IsCrouching = true
	if ai.CanDetect(a, stats, p) {
		t.Fatal("crouched player outside halved range was detected")
	}
}

func TestFullWolfFurIntimidatesAllButWalrus(t *testing.T) {
	s, ai := newTestAI(t)
	set := []string{"Wolf Fur Cloak", "Wolf Fur Hood", "Wolf Fur Leggings",
		"Wolf Fur Gloves", "Wolf Fur Boots"}

	wolf := addWolf(s, 0, 0)
	wolf.DirX = 1
	p := addAlivePlayer(s, 60, 0)
	p.Armor = set

	if ai.CanDetect(wolf, ai.Species.Get("TundraWolf"), p) {
		t.Fatal("full wolf-fur set should intimidate a wolf")
	}

	walrus := &world.WildAnimal{
		ID: s.NextID(), Species: "ArcticWalrus", X: 0, Y: 0, DirX: 1,
		State: world.StateIdle, Health: 200,
	}
	s.AddAnimal(walrus)
	if !ai.CanDetect(walrus, ai.Species.Get("ArcticWalrus"), p) {
		t.Fatal("walrus must ignore wolf-fur intimidation")
	}
}

func TestSpawnWildAnimalValidation(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()

	if _, err := ai.SpawnWildAnimal("NoSuchBeast", 100, 100, now); err == nil {
		t.Fatal("unknown species accepted")
	}
	if _, err := ai.SpawnWildAnimal("TundraWolf", -5, 100, now); err == nil {
		t.Fatal("out-of-bounds position accepted")
	}

	id, err := ai.SpawnWildAnimal("ArcticTern", 500, 500, now)
	if err != nil {
		t.Fatalf("bird spawn failed: %v", err)
	}
	if s.Animals[id].State != world.StateGrounded {
		t.Fatalf("birds must start Grounded, got %v", s.Animals[id].State)
	}

	s.Tiles.SetTile(10, 10, world.TileGrass)
	id, err = ai.SpawnWildAnimal("TundraWolf", 500, 500, now)
	if err != nil {
		t.Fatalf("wolf spawn failed: %v", err)
	}
	if s.Animals[id].State != world.StateIdle {
		t.Fatalf("land animals start Idle, got %v", s.Animals[id].State)
	}
}

func TestCalmAnimalInvestigatesNoise(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()
	ai.Start(now)

	// In the active zone but well outside wolf perception, so sight never
	// engages: only the noise can move this animal.
	addAlivePlayer(s, 1200, 0)
	wolf := addWolf(s, 0, 0)

	event.Emit(ai.Combat.Bus, event.SoundEmitted{
		X: 100, Y: 100, RadiusPx: 160, Source: 999, Kind: "footstep",
	})
	ai.Combat.Bus.SwapBuffers()
	ai.Combat.Bus.DispatchAll()

	entry := world.ScheduleEntry{Kind: world.ScheduleAITick, SchedulerID: ai.scheduleID}
	ai.ProcessWildAnimalAI(entry, now.Add(time.Second))

	if wolf.State != world.StateInvestigating {
		t.Fatalf("wolf state = %v, want Investigating", wolf.State)
	}
	if wolf.InvestigateX != 100 || wolf.InvestigateY != 100 {
		t.Fatalf("investigate point = (%v, %v), want (100, 100)",
			wolf.InvestigateX, wolf.InvestigateY)
	}
}

func TestNoiseOutOfEarshotIgnored(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()
	ai.Start(now)

	addAlivePlayer(s, 1200, 0)
	wolf := addWolf(s, 0, 0)

	event.Emit(ai.Combat.Bus, event.SoundEmitted{
		X: 800, Y: 800, RadiusPx: 160, Source: 999, Kind: "footstep",
	})
	ai.Combat.Bus.SwapBuffers()
	ai.Combat.Bus.DispatchAll()

	entry := world.ScheduleEntry{Kind: world.ScheduleAITick, SchedulerID: ai.scheduleID}
	ai.ProcessWildAnimalAI(entry, now.Add(time.Second))

	if wolf.State == world.StateInvestigating {
		t.Fatal("wolf investigated a noise far outside its radius")
	}
}

func TestWalrusIgnoresFireFear(t *testing.T) {
	s, ai := newTestAI(t)
	now := time.Now()

	fire := &world.Deployable{
		ID: s.NextID(), Kind: data.TargetCampfire, X: 150, Y: 100,
		Health: 100, MaxHealth: 100, IsBurning: true,
	}
	s.AddDeployable(fire)
	stats := ai.Species.Get("ArcticWalrus")
	if !stats.ImmuneToFireFear {
		t.Fatal("walrus species data must carry the fire-fear immunity")
	}

	walrus := &world.WildAnimal{
		ID: s.NextID(), Species: "ArcticWalrus",
		X: 100, Y: 100, SpawnX: 100, SpawnY: 100,
		Facing: "down", State: world.StateIdle, Health: 300,
	}
	s.AddAnimal(walrus)

	ctx := &tickContext{now: now, fires: []*world.Deployable{fire}}
	if ai.applyFear(ctx, walrus, stats, now) {
		t.Fatal("walrus fled a campfire despite the species exemption")
	}
	if walrus.State == world.StateFleeing {
		t.Fatalf("walrus state = %v, want calm", walrus.State)
	}
}
