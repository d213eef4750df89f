package system

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shorebound/server/internal/core/event"
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/scripting"
	"github.com/shorebound/server/internal/world"
)

func newTestCombat(t *testing.T) (*world.State, *Combat) {
	t.Helper()
	items, err := data.LoadItemTable()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	species, err := data.LoadSpeciesTable()
	if err != nil {
		t.Fatalf("species: %v", err)
	}
	armor, err := data.LoadArmorTable()
	if err != nil {
		t.Fatalf("armor: %v", err)
	}
	plants, err := data.LoadPlantTable()
	if err != nil {
		t.Fatalf("plants: %v", err)
	}
	lua, err := scripting.NewEngine("", zap.NewNop())
	if err != nil {
		t.Fatalf("lua: %v", err)
	}
	t.Cleanup(lua.Close)

	s := world.NewState()
	c := NewCombat(s, items, species, armor, plants, event.NewBus(), lua,
		zap.NewNop(), rand.New(rand.NewSource(7)))
	return s, c
}

func addAlivePlayer(s *world.State, x, y float64) *world.Player {
	p := &world.Player{
		ID:       s.NextID(),
		X:        x,
		Y:        y,
		Facing:   "right",
		Health:   world.PlayerMaxHealth,
		IsOnline: true,
	}
	s.AddPlayer(p)
	return p
}

func enablePvP(p *world.Player, now time.Time) {
	TogglePvP(p, true, now)
}

func TestPvPGateTruthTable(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name          string
		enabled       bool
		enabledUntil  time.Time
		lastCombat    time.Time
		want          bool
	}{
		{"disabled", false, now.Add(time.Hour), now, false},
		{"enabled window open", true, now.Add(time.Minute), time.Time{}, true},
		{"window closed no combat", true, now.Add(-time.Minute), time.Time{}, false},
		{"window closed recent combat", true, now.Add(-time.Minute), now.Add(-4 * time.Minute), true},
		{"window closed stale combat", true, now.Add(-time.Minute), now.Add(-6 * time.Minute), false},
	}
	for _, tc := range cases {
		p := &world.Player{
			PvPEnabled:      tc.enabled,
			PvPEnabledUntil: tc.enabledUntil,
			LastPvPCombat:   tc.lastCombat,
		}
		if got := PvPActive(p, now); got != tc.want {
			t.Errorf("%s: PvPActive = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPvPHitRefreshesBothParties(t *testing.T) {
	now := time.Now()
	a := &world.Player{PvPEnabled: true, PvPEnabledUntil: now.Add(-time.Minute),
		LastPvPCombat: now.Add(-time.Minute)}
	b := &world.Player{PvPEnabled: true, PvPEnabledUntil: now.Add(-time.Minute),
		LastPvPCombat: now.Add(-time.Minute)}
	recordPvPHit(a, b, now)
	for i, p := range [2]*world.Player{a, b} {
		if !p.LastPvPCombat.Equal(now) {
			t.Errorf("party %d: LastPvPCombat not refreshed", i)
		}
		if !p.PvPEnabledUntil.After(now) {
			t.Errorf("party %d: enabled window not auto-extended", i)
		}
	}
}

func TestDamagePlayerRequiresBothGatesOpen(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	attacker := addAlivePlayer(s, 0, 0)
	target := addAlivePlayer(s, 40, 0)
	enablePvP(attacker, now)

	res, err := c.damagePlayer(attacker, target.ID, 20, nil, now)
	if err != nil || res.Hit {
		t.Fatalf("hit landed with target gate closed: %+v, %v", res, err)
	}
	if target.Health != world.PlayerMaxHealth {
		t.Fatalf("target health mutated through a closed gate: %v", target.Health)
	}

	enablePvP(target, now)
	res, err = c.damagePlayer(attacker, target.ID, 20, nil, now)
	if err != nil || !res.Hit {
		t.Fatalf("hit rejected with both gates open: %+v, %v", res, err)
	}
	if target.Health >= world.PlayerMaxHealth {
		t.Fatalf("no damage applied: %v", target.Health)
	}
}

func TestTypedArmorResistance(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	attacker := addAlivePlayer(s, 0, 0)
	target := addAlivePlayer(s, 40, 0)
	target.Armor = []string{"Hide Vest"}
	enablePvP(attacker, now)
	enablePvP(target, now)

	knife := c.Items.GetByName("Combat Knife")
	if knife == nil {
		t.Fatal("Combat Knife missing from item table")
	}
	res, err := c.damagePlayer(attacker, target.ID, 20, knife, now)
	if err != nil || !res.Hit {
		t.Fatalf("hit failed: %+v, %v", res, err)
	}
	// Sharp resistance of the vest is 0.12: 20 * 0.88 = 17.6.
	got := world.PlayerMaxHealth - target.Health
	if got < 17.5 || got > 17.7 {
		t.Fatalf("typed resistance off: took %v, want ~17.6", got)
	}
}

func TestWolfFurDesperationBonus(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	attacker := addAlivePlayer(s, 0, 0)
	attacker.Health = 25 // below the low-health gate
	attacker.Armor = []string{"Wolf Fur Cloak", "Wolf Fur Hood"}
	target := addAlivePlayer(s, 40, 0)
	enablePvP(attacker, now)
	enablePvP(target, now)

	res, err := c.damagePlayer(attacker, target.ID, 20, nil, now)
	if err != nil || !res.Hit {
		t.Fatalf("hit failed: %+v, %v", res, err)
	}
	// Two pieces at 5% each: 20 * 1.10 = 22.
	got := world.PlayerMaxHealth - target.Health
	if got < 21.9 || got > 22.1 {
		t.Fatalf("wolf fur bonus off: took %v, want 22", got)
	}
}

func TestKnockedOutSchedulingFailureRollsBackDamage(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	attacker := addAlivePlayer(s, 0, 0)
	target := addAlivePlayer(s, 40, 0)
	target.Health = 5
	enablePvP(attacker, now)
	enablePvP(target, now)

	c.scheduleRecovery = func(uint64, time.Time) error {
		return errors.New("schedule insert rejected")
	}
	res, err := c.damagePlayer(attacker, target.ID, 50, nil, now)
	if err == nil {
		t.Fatal("expected the scheduling failure to propagate")
	}
	if res.Hit {
		t.Fatal("failed hit reported as landed")
	}
	if target.Health != 5 {
		t.Fatalf("damage not rolled back: health %v, want 5", target.Health)
	}
	if target.IsKnockedOut || target.IsDead {
		t.Fatal("state flags leaked through the rollback")
	}
}

func TestKnockedOutThenHitDies(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	attacker := addAlivePlayer(s, 0, 0)
	target := addAlivePlayer(s, 40, 0)
	target.Health = 5
	enablePvP(attacker, now)
	enablePvP(target, now)

	res, err := c.damagePlayer(attacker, target.ID, 50, nil, now)
	if err != nil || !res.Hit {
		t.Fatalf("first hit failed: %+v, %v", res, err)
	}
	if !target.IsKnockedOut || target.IsDead {
		t.Fatalf("first lethal hit should knock out, got KO=%v dead=%v",
			target.IsKnockedOut, target.IsDead)
	}
	if target.Health != 1.0 {
		t.Fatalf("knocked-out health floor is 1, got %v", target.Health)
	}
	if !s.Schedule.Has(world.ScheduleKnockedOutRecover, target.ID) {
		t.Fatal("knockout did not book its recovery")
	}

	res, err = c.damagePlayer(attacker, target.ID, 50, nil, now.Add(time.Second))
	if err != nil || !res.Killed {
		t.Fatalf("finishing hit did not kill: %+v, %v", res, err)
	}
	if !target.IsDead || target.Health != 0 {
		t.Fatalf("death invariant broken: dead=%v health=%v", target.IsDead, target.Health)
	}
	if s.Schedule.Has(world.ScheduleKnockedOutRecover, target.ID) {
		t.Fatal("recovery row survived the death")
	}
	found := false
	for _, co := range s.Corpses {
		if co.Kind == world.CorpsePlayer && co.Owner == target.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("no player corpse created")
	}
	if s.DeathMarkers[target.ID] == nil {
		t.Fatal("death marker not upserted")
	}
}

func TestRepairHammerNeverDamages(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	p := addAlivePlayer(s, 24, 24)
	hammer := c.Items.GetByName("Repair Hammer")
	if hammer == nil || !hammer.IsRepairHammer {
		t.Fatal("Repair Hammer missing or misflagged")
	}

	fire := &world.Deployable{
		ID: s.NextID(), Kind: data.TargetCampfire,
		X: 60, Y: 24, Health: 40, MaxHealth: 100,
	}
	s.AddDeployable(fire)

	res, err := c.ProcessAttack(p, Target{Type: data.TargetCampfire, ID: fire.ID}, hammer, now)
	if err != nil {
		t.Fatalf("repair errored: %v", err)
	}
	if !res.Hit {
		t.Fatal("repair swing reported as miss")
	}
	if fire.Health <= 40 {
		t.Fatalf("repair hammer failed to heal: %v", fire.Health)
	}
	if fire.Health > fire.MaxHealth {
		t.Fatalf("healed past max: %v", fire.Health)
	}
}

func TestWallAbsorbsOccludedSwing(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	attacker := addAlivePlayer(s, 10, 24)
	target := addAlivePlayer(s, 90, 24)
	enablePvP(attacker, now)
	enablePvP(target, now)

	// A west wall of cell (1,0) sits between x=10 and x=90 at y=24.
	wall := &world.Structure{
		ID: s.NextID(), Kind: world.StructWall,
		Cell: world.CellKey{CX: 1, CY: 0}, Edge: "west",
		Health: 200, MaxHealth: 200,
	}
	s.AddStructure(wall)

	knife := c.Items.GetByName("Combat Knife")
	res, err := c.ProcessAttack(attacker, Target{Type: data.TargetPlayer, ID: target.ID}, knife, now)
	if err != nil {
		t.Fatalf("attack errored: %v", err)
	}
	if res.TargetType != data.TargetWall {
		t.Fatalf("swing should have been swapped onto the wall, got %v", res.TargetType)
	}
	if target.Health != world.PlayerMaxHealth {
		t.Fatalf("occluded target took damage: %v", target.Health)
	}
	if wall.Health >= 200 {
		t.Fatal("wall absorbed nothing")
	}
}

func TestKnockbackRejectedByTree(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	attacker := addAlivePlayer(s, 0, 100)
	target := addAlivePlayer(s, 40, 100)
	enablePvP(attacker, now)
	enablePvP(target, now)

	// The knockback destination (72, 100) lands inside this tree.
	s.AddTree(&world.Tree{
		ID: s.NextID(), X: 75, Y: 100,
		Health: world.TreeInitialHealth, ResourceRemaining: world.TreeInitialResource,
	})

	res, err := c.damagePlayer(attacker, target.ID, 10, nil, now)
	if err != nil || !res.Hit {
		t.Fatalf("hit failed: %+v, %v", res, err)
	}
	if target.X != 40 || target.Y != 100 {
		t.Fatalf("knockback moved target into a tree: (%v, %v)", target.X, target.Y)
	}
}

func TestYieldCapNeverExceedsRemaining(t *testing.T) {
	s, c := newTestCombat(t)
	p := addAlivePlayer(s, 0, 0)

	s.Effects.Apply(world.ActiveEffect{
		TargetKind: world.EffectOnPlayer, TargetID: p.ID,
		Kind: world.EffectHarvestBoost,
	})
	got := c.applyYieldModifiers(p, 10, false, false, 3)
	if got != 3 {
		t.Fatalf("yield exceeded remaining pool: %d, want 3", got)
	}
}

func TestYieldModifierOrder(t *testing.T) {
	s, c := newTestCombat(t)
	p := addAlivePlayer(s, 0, 0)
	s.Effects.Apply(world.ActiveEffect{
		TargetKind: world.EffectOnPlayer, TargetID: p.ID,
		Kind: world.EffectHarvestBoost,
	})
	// Planted 0.6 then boost 1.5: 10 * 0.6 * 1.5 = 9.
	if got := c.applyYieldModifiers(p, 10, true, false, 1000); got != 9 {
		t.Fatalf("modifier order off: %d, want 9", got)
	}
}

func TestAnimalKillRecordsStatsAndCorpse(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	killer := addAlivePlayer(s, 0, 0)
	killer.QuestProgress = map[string]int{}

	a := &world.WildAnimal{
		ID: s.NextID(), Species: "SnowFox", X: 50, Y: 0,
		Health: 5, State: world.StateIdle,
	}
	s.AddAnimal(a)

	bow := c.Items.GetByName("Hunting Bow")
	res := c.DamageWildAnimal(a.ID, 50, killer.ID, bow, now)
	if !res.Killed {
		t.Fatalf("animal survived lethal damage: %+v", res)
	}
	if s.Animals[a.ID] != nil {
		t.Fatal("dead animal still in table")
	}
	if killer.Stats.BowKills != 1 || killer.Stats.AnimalsKilled != 1 {
		t.Fatalf("kill stats not recorded: %+v", killer.Stats)
	}
	if killer.QuestProgress["KillAnyAnimal"] != 1 ||
		killer.QuestProgress["KillSpecificAnimal:SnowFox"] != 1 {
		t.Fatalf("quest counters not advanced: %+v", killer.QuestProgress)
	}
	if killer.XP == 0 {
		t.Fatal("no XP awarded for the kill")
	}
	found := false
	for _, co := range s.Corpses {
		if co.Kind == world.CorpseAnimal && co.Species == "SnowFox" {
			found = true
		}
	}
	if !found {
		t.Fatal("no animal corpse created")
	}
}

func TestSpearKillCountsMeleeToo(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	killer := addAlivePlayer(s, 0, 0)

	a := &world.WildAnimal{ID: s.NextID(), Species: "Caribou", Health: 1}
	s.AddAnimal(a)

	spear := c.Items.GetByName("Stone Spear")
	c.DamageWildAnimal(a.ID, 10, killer.ID, spear, now)
	if killer.Stats.SpearKills != 1 || killer.Stats.MeleeKills != 1 {
		t.Fatalf("spear kill should count both classes: %+v", killer.Stats)
	}
}

func TestSurvivingHostileOverridesFireFear(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	attacker := addAlivePlayer(s, 0, 0)

	a := &world.WildAnimal{
		ID: s.NextID(), Species: "TundraWolf", X: 50, Y: 0,
		Health: 100, State: world.StateFleeing,
	}
	s.AddAnimal(a)

	res := c.DamageWildAnimal(a.ID, 10, attacker.ID, nil, now)
	if res.Killed {
		t.Fatal("animal should survive")
	}
	if a.FireFearOverriddenBy != attacker.ID {
		t.Fatal("fire fear not overridden for the attacker")
	}
	if a.State != world.StateChasing || a.TargetPlayerID != attacker.ID {
		t.Fatalf("struck wolf should turn on its attacker: state=%v target=%v",
			a.State, a.TargetPlayerID)
	}
}

func TestTreeFinalChopBonusScalesWithInitialHealth(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	p := addAlivePlayer(s, 100, 100)

	tree := &world.Tree{
		ID: s.NextID(), X: 160, Y: 100, Kind: "Pine",
		Health: 1, ResourceRemaining: world.TreeInitialResource,
	}
	s.AddTree(tree)

	// Zero base yield isolates the final-chop bonus in the inventory.
	res := c.damageTree(p, tree.ID, 5, 0, "Wood", nil, now)
	if !res.Killed {
		t.Fatal("tree survived a lethal chop")
	}

	woodID := c.resourceDefID("Wood")
	var wood uint32
	for _, st := range p.Inventory {
		if st.DefID == woodID {
			wood += st.Quantity
		}
	}
	lo := uint32(0.20 * world.TreeInitialHealth)
	hi := uint32(0.40 * world.TreeInitialHealth)
	if wood < lo || wood > hi {
		t.Fatalf("final-chop bonus = %d wood, want within [%d, %d]", wood, lo, hi)
	}
}

func TestMonumentRefusesDamageWithError(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	p := addAlivePlayer(s, 100, 100)
	hearth := &world.Deployable{
		ID: s.NextID(), Kind: data.TargetHearth, X: 150, Y: 100,
		Health: 500, MaxHealth: 500, IsMonument: true,
	}
	s.AddDeployable(hearth)

	res, err := c.damageDeployable(p, hearth.ID, 40, now)
	if err == nil {
		t.Fatal("monument hit returned no error")
	}
	if res.Hit {
		t.Fatal("monument hit reported as landed")
	}
	if hearth.Health != 500 {
		t.Fatalf("monument health = %v, want untouched 500", hearth.Health)
	}
}

func TestStruckBirdChasesOnTheWing(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	p := addAlivePlayer(s, 100, 100)
	crow := &world.WildAnimal{
		ID: s.NextID(), Species: "Crow",
		X: 140, Y: 100, SpawnX: 140, SpawnY: 100,
		Facing: "down", State: world.StateGrounded, Health: 30,
	}
	s.AddAnimal(crow)

	res := c.DamageWildAnimal(crow.ID, 2, p.ID, nil, now)
	if !res.Hit || res.Killed {
		t.Fatalf("hit=%v killed=%v, want a surviving hit", res.Hit, res.Killed)
	}
	if crow.State != world.StateFlyingChase {
		t.Fatalf("crow state = %v, want FlyingChase", crow.State)
	}
	if !crow.IsFlying || crow.TargetPlayerID != p.ID {
		t.Fatalf("flying=%v target=%d, want airborne chase of the attacker", crow.IsFlying, crow.TargetPlayerID)
	}
}

func TestBadlyHurtBirdDoesNotChase(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	p := addAlivePlayer(s, 100, 100)
	crow := &world.WildAnimal{
		ID: s.NextID(), Species: "Crow",
		X: 140, Y: 100, SpawnX: 140, SpawnY: 100,
		Facing: "down", State: world.StateGrounded, Health: 30,
	}
	s.AddAnimal(crow)

	c.DamageWildAnimal(crow.ID, 10, p.ID, nil, now)
	if crow.State == world.StateFlyingChase {
		t.Fatal("crow below the flee threshold still entered FlyingChase")
	}
}
