package world

import (
	"testing"
	"time"

	"github.com/shorebound/server/internal/geom"
)

func TestChunkGridMoveRebuckets(t *testing.T) {
	g := NewChunkGrid()
	from := geom.ChunkIndex(100, 100)
	to := geom.ChunkIndex(5000, 5000)
	g.Add(KindAnimal, 7, from)
	g.Move(KindAnimal, 7, from, to)

	seen := 0
	g.EachInNeighborhood(KindAnimal, 100, 100, func(id uint64) { seen++ })
	if seen != 0 {
		t.Fatalf("entity still bucketed at origin after move, saw %d", seen)
	}
	g.EachInNeighborhood(KindAnimal, 5000, 5000, func(id uint64) {
		if id != 7 {
			t.Fatalf("unexpected id %d", id)
		}
		seen++
	})
	if seen != 1 {
		t.Fatalf("entity not found at destination")
	}
}

func TestSyncAnimalChunkFollowsPosition(t *testing.T) {
	s := NewState()
	a := &WildAnimal{ID: s.NextID(), X: 100, Y: 100, Species: "TundraWolf"}
	s.AddAnimal(a)

	a.X, a.Y = 9000, 9000
	s.SyncAnimalChunk(a)

	if a.ChunkIndex != geom.ChunkIndex(a.X, a.Y) {
		t.Fatalf("chunk index %d does not match position chunk %d",
			a.ChunkIndex, geom.ChunkIndex(a.X, a.Y))
	}
	found := false
	s.Grid.EachInNeighborhood(KindAnimal, 9000, 9000, func(id uint64) {
		found = found || id == a.ID
	})
	if !found {
		t.Fatalf("animal not bucketed at its new position")
	}
}

func TestScheduleOneShotFiresOnce(t *testing.T) {
	s := NewSchedule()
	now := time.Now()
	s.Insert(ScheduleRespawnCheck, 42, now.Add(-time.Second))

	due := s.Due(now)
	if len(due) != 1 || due[0].TargetID != 42 {
		t.Fatalf("expected one due entry for target 42, got %v", due)
	}
	if len(s.Due(now)) != 0 {
		t.Fatalf("one-shot entry fired twice")
	}
}

func TestScheduleIntervalAdvances(t *testing.T) {
	s := NewSchedule()
	now := time.Now()
	id := s.InsertInterval(ScheduleAITick, now.Add(-time.Millisecond), 500*time.Millisecond)

	due := s.Due(now)
	if len(due) != 1 {
		t.Fatalf("interval entry not due")
	}
	if due[0].SchedulerID != id {
		t.Fatalf("scheduler identity %d != entry id %d", due[0].SchedulerID, id)
	}
	if len(s.Due(now)) != 0 {
		t.Fatalf("interval entry due again before its period elapsed")
	}
	if len(s.Due(now.Add(time.Second))) != 1 {
		t.Fatalf("interval entry did not re-arm")
	}
}

func TestScheduleCancelTarget(t *testing.T) {
	s := NewSchedule()
	now := time.Now()
	s.Insert(ScheduleKnockedOutRecover, 9, now.Add(time.Minute))
	s.Insert(ScheduleKnockedOutRecover, 9, now.Add(2*time.Minute))
	s.Insert(ScheduleKnockedOutRecover, 10, now.Add(time.Minute))

	if n := s.CancelTarget(ScheduleKnockedOutRecover, 9); n != 2 {
		t.Fatalf("cancelled %d rows, want 2", n)
	}
	if s.Has(ScheduleKnockedOutRecover, 9) {
		t.Fatalf("target 9 still scheduled after cancel")
	}
	if !s.Has(ScheduleKnockedOutRecover, 10) {
		t.Fatalf("cancel removed another target's row")
	}
}

func TestEffectApplyRefreshes(t *testing.T) {
	et := NewEffectTable()
	now := time.Now()
	et.Apply(ActiveEffect{
		TargetKind: EffectOnPlayer, TargetID: 1, Kind: EffectBleed,
		Amount: 2, ExpiresAt: now.Add(time.Second),
	})
	et.Apply(ActiveEffect{
		TargetKind: EffectOnPlayer, TargetID: 1, Kind: EffectBleed,
		Amount: 2, ExpiresAt: now.Add(6 * time.Second),
	})

	count := 0
	et.Each(func(e *ActiveEffect) { count++ })
	if count != 1 {
		t.Fatalf("refresh left %d bleed rows, want 1", count)
	}
	e := et.Get(EffectOnPlayer, 1, EffectBleed)
	if e == nil || !e.ExpiresAt.Equal(now.Add(6*time.Second)) {
		t.Fatalf("refresh did not extend expiry")
	}
}

func TestEffectClearTarget(t *testing.T) {
	et := NewEffectTable()
	now := time.Now()
	et.Apply(ActiveEffect{TargetKind: EffectOnPlayer, TargetID: 1, Kind: EffectBleed, ExpiresAt: now.Add(time.Minute)})
	et.Apply(ActiveEffect{TargetKind: EffectOnPlayer, TargetID: 1, Kind: EffectBurn, ExpiresAt: now.Add(time.Minute)})
	et.Apply(ActiveEffect{TargetKind: EffectOnAnimal, TargetID: 1, Kind: EffectBurn, ExpiresAt: now.Add(time.Minute)})

	et.ClearTarget(EffectOnPlayer, 1)

	if et.Has(EffectOnPlayer, 1, EffectBleed) || et.Has(EffectOnPlayer, 1, EffectBurn) {
		t.Fatalf("player effects survived ClearTarget")
	}
	if !et.Has(EffectOnAnimal, 1, EffectBurn) {
		t.Fatalf("animal effect removed by player ClearTarget")
	}
}

func TestOceanVersusInlandWater(t *testing.T) {
	m := NewTileMap(100, 100)
	// Interior lake.
	m.SetTile(50, 50, TileSea)
	// Hot spring near the center.
	m.SetTile(52, 50, TileHotSpringWater)

	edgeX := 5.0 * geom.TileSizePx
	if !m.OnOceanWater(edgeX, edgeX) {
		t.Fatalf("edge sea tile not classified as ocean")
	}
	inX := (50.0 + 0.5) * geom.TileSizePx
	inY := (50.0 + 0.5) * geom.TileSizePx
	if m.OnOceanWater(inX, inY) {
		t.Fatalf("interior sea tile classified as ocean")
	}
	if !m.OnInlandWater(inX, inY) {
		t.Fatalf("interior sea tile not classified as inland water")
	}
	springX := (52.0 + 0.5) * geom.TileSizePx
	if m.OnOceanWater(springX, inY) {
		t.Fatalf("hot spring classified as ocean")
	}
	if !m.OnWater(springX, inY) {
		t.Fatalf("hot spring not water")
	}
}

func TestOutOfBoundsIsWater(t *testing.T) {
	m := NewTileMap(10, 10)
	if !m.OnWater(-100, -100) {
		t.Fatalf("out of bounds should count as water")
	}
}

func TestDepletedSentinels(t *testing.T) {
	tr := &Tree{Health: TreeInitialHealth, ResourceRemaining: TreeInitialResource}
	if tr.Depleted() {
		t.Fatalf("fresh tree reported depleted")
	}
	tr.ResourceRemaining = 0
	if !tr.Depleted() {
		t.Fatalf("empty tree not reported depleted")
	}
	tr.ResourceRemaining = TreeInitialResource
	tr.RespawnAt = time.Now().Add(time.Hour)
	if !tr.Depleted() {
		t.Fatalf("respawn-pending tree not reported depleted")
	}
}

func TestTryGiveItemMergesAndFills(t *testing.T) {
	s := NewState()
	p := &Player{ID: s.NextID(), Health: PlayerMaxHealth}
	s.AddPlayer(p)

	if !s.TryGiveItem(p, 3, 5) {
		t.Fatalf("give into empty inventory failed")
	}
	if !s.TryGiveItem(p, 3, 4) {
		t.Fatalf("merge give failed")
	}
	slots := 0
	for i := range p.Inventory {
		if p.Inventory[i].Quantity > 0 {
			slots++
			if p.Inventory[i].DefID == 3 && p.Inventory[i].Quantity != 9 {
				t.Fatalf("merge quantity %d, want 9", p.Inventory[i].Quantity)
			}
		}
	}
	if slots != 1 {
		t.Fatalf("merge used %d slots, want 1", slots)
	}

	for i := range p.Inventory {
		p.Inventory[i] = ItemStack{InstanceID: uint64(i + 100), DefID: uint64(i + 100), Quantity: 1}
	}
	if s.TryGiveItem(p, 999, 1) {
		t.Fatalf("give into full inventory succeeded")
	}
}

func TestConsolidationMergesSameDefinition(t *testing.T) {
	s := NewState()
	now := time.Now()
	s.CreateDroppedItemNoConsolidation(1, 3, 1000, 1000, now)
	s.CreateDroppedItemNoConsolidation(1, 4, 1020, 1000, now)
	s.CreateDroppedItemNoConsolidation(2, 5, 1010, 1010, now) // different item
	s.CreateDroppedItemNoConsolidation(1, 6, 2000, 2000, now) // out of range

	s.TriggerConsolidationAt(1000, 1000)

	if len(s.Dropped) != 3 {
		t.Fatalf("have %d ground stacks after consolidation, want 3", len(s.Dropped))
	}
	var merged *DroppedItem
	for _, d := range s.Dropped {
		if d.DefID == 1 && d.X == 1000 {
			merged = d
		}
	}
	if merged == nil || merged.Quantity != 7 {
		t.Fatalf("merged stack missing or wrong quantity: %+v", merged)
	}
}

func TestFireNearbyRadii(t *testing.T) {
	fires := []*Deployable{{X: 0, Y: 0, IsBurning: true}}
	torches := []*Player{{X: 1000, Y: 0, IsTorchLit: true}}

	if !FireNearby(150, 0, fires, nil, nil) {
		t.Fatalf("campfire at 150px should register")
	}
	if FireNearby(250, 0, fires, nil, nil) {
		t.Fatalf("campfire at 250px should not register")
	}
	if !FireNearby(1100, 0, nil, torches, nil) {
		t.Fatalf("torch at 100px should register")
	}
	if FireNearby(1150, 0, nil, torches, nil) {
		t.Fatalf("torch at 150px should not register")
	}
}
