package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/shorebound/server/internal/core/event"
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// AI tick tunables.
const (
	AITickInterval         = 500 * time.Millisecond
	animalActiveZonePx     = 1400.0
	wanderActivationDistPx = 900.0
	fleeHealthDefaultPct   = 0.25
	nearbySearchMult       = 1.5
)

// AI owns the wild-animal tick. All methods run on the game loop.
type AI struct {
	State   *world.State
	Species *data.SpeciesTable
	Armor   *data.ArmorTable
	Items   *data.ItemTable
	Combat  *Combat
	Log     *zap.Logger
	Rng     *rand.Rand

	// scheduleID is the identity of the interval row that drives the
	// tick. Rows with any other scheduler identity are ignored.
	scheduleID uint64

	// pendingSounds accumulates bus noises between AI ticks; consumed
	// and cleared at the start of each tick.
	pendingSounds []heardSound
}

// heardSound is one world-space noise captured off the bus.
type heardSound struct {
	x, y, radius float64
	source       uint64
}

func NewAI(s *world.State, species *data.SpeciesTable, armor *data.ArmorTable,
	items *data.ItemTable, combat *Combat, log *zap.Logger, rng *rand.Rand) *AI {
	ai := &AI{
		State: s, Species: species, Armor: armor, Items: items,
		Combat: combat, Log: log, Rng: rng,
	}
	event.Subscribe(combat.Bus, func(e event.SoundEmitted) {
		ai.pendingSounds = append(ai.pendingSounds, heardSound{
			x: e.X, y: e.Y, radius: e.RadiusPx, source: e.Source,
		})
	})
	return ai
}

// Start books the interval row. Idempotent: an existing row keeps driving.
func (ai *AI) Start(now time.Time) {
	if ai.scheduleID != 0 {
		return
	}
	ai.scheduleID = ai.State.Schedule.InsertInterval(world.ScheduleAITick,
		now.Add(AITickInterval), AITickInterval)
}

// tickContext is the per-tick prefetch: one read pass over the hot tables,
// shared by every animal. Per-animal code never re-queries these.
type tickContext struct {
	now          time.Time
	players      []*world.Player     // alive only
	fires        []*world.Deployable // burning campfires
	torchbearers []*world.Player
	foundations  []*world.Structure
	sounds       []heardSound

	// nearby is re-sliced per animal from players.
	nearby []*world.Player
}

// ProcessWildAnimalAI advances every active animal one tick. Early exits:
// foreign scheduler identity, nobody online, empty animal table (the
// schedule row stays in all three cases).
func (ai *AI) ProcessWildAnimalAI(entry world.ScheduleEntry, now time.Time) {
	if entry.SchedulerID != ai.scheduleID {
		ai.Log.Warn("ignoring ai tick from foreign scheduler",
			zap.Uint64("scheduler", entry.SchedulerID))
		return
	}
	sounds := ai.pendingSounds
	ai.pendingSounds = nil
	if !ai.State.AnyPlayersOnline() {
		return
	}
	if len(ai.State.Animals) == 0 {
		return
	}

	ctx := &tickContext{
		now:         now,
		players:     ai.State.AlivePlayers(),
		fires:       ai.State.BurningCampfires(),
		foundations: ai.State.ActiveFoundations(),
		sounds:      sounds,
	}
	for _, p := range ctx.players {
		if p.IsTorchLit {
			ctx.torchbearers = append(ctx.torchbearers, p)
		}
	}

	// The map can shrink mid-tick (kills, despawns), so iterate a
	// snapshot of ids.
	ids := make([]uint64, 0, len(ai.State.Animals))
	for id := range ai.State.Animals {
		ids = append(ids, id)
	}
	dt := AITickInterval.Seconds()
	for _, id := range ids {
		a := ai.State.Animals[id]
		if a == nil {
			continue
		}
		if ai.culled(ctx, a) {
			continue
		}
		ai.tickAnimal(ctx, a, dt)
	}
}

// culled applies viewport activation: a calm, untamed animal with no
// player within the active zone is skipped entirely, leaving its row
// untouched this tick.
func (ai *AI) culled(ctx *tickContext, a *world.WildAnimal) bool {
	if a.Tamed() || a.State.ActiveState() {
		return false
	}
	for _, p := range ctx.players {
		if geom.DistanceSq(a.X, a.Y, p.X, p.Y) <= animalActiveZonePx*animalActiveZonePx {
			return false
		}
	}
	return true
}

// tickAnimal is the per-animal pipeline, isolated so one bad row cannot
// abort the whole tick.
func (ai *AI) tickAnimal(ctx *tickContext, a *world.WildAnimal, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			ai.Log.Error("animal tick panicked",
				zap.Uint64("animal", a.ID),
				zap.String("species", a.Species),
				zap.Any("panic", r))
		}
	}()

	stats := ai.Species.Get(a.Species)
	if stats == nil {
		ai.Log.Warn("animal with unknown species skipped",
			zap.Uint64("animal", a.ID), zap.String("species", a.Species))
		return
	}
	now := ctx.now

	ctx.nearby = nearbyPlayers(ctx.players, a.X, a.Y, stats.PerceptionRangePx*nearbySearchMult)

	// Low health overrides everything except taming bonds.
	fleePct := stats.FleeHealthPct
	if fleePct == 0 {
		fleePct = fleeHealthDefaultPct
	}
	if !a.Tamed() && a.Health <= stats.MaxHealth*fleePct && a.State != world.StateFleeing {
		threatX, threatY := a.X, a.Y+1
		if t := ai.State.Players[a.TargetPlayerID]; t != nil {
			threatX, threatY = t.X, t.Y
		}
		ai.fleeFrom(a, stats, threatX, threatY, now)
	}

	feared := false
	if a.State != world.StateFleeing {
		feared = ai.applyFear(ctx, a, stats, now)
	}
	if !feared && a.State != world.StateFleeing {
		behaviorFor(a.Species).UpdateState(ai, ctx, a, stats, now)
	}
	if ai.State.Animals[a.ID] == nil {
		return // behavior despawned it
	}

	if !feared {
		ai.hearSounds(ctx, a, now)
	}

	if stats.CanPack {
		ai.updatePack(a, now)
	}
	ai.updateTaming(a, stats, now)

	if a.State == world.StateChasing || a.State == world.StateProtecting {
		ai.tryAttack(a, stats, now)
	}

	ai.moveAnimal(a, stats, dt, now)
}

// hearSounds sends a calm animal to investigate the nearest noise whose
// radius reaches it. Sight beats hearing: engaged states never respond.
func (ai *AI) hearSounds(ctx *tickContext, a *world.WildAnimal, now time.Time) {
	if a.Tamed() {
		return
	}
	switch a.State {
	case world.StateIdle, world.StatePatrolling, world.StateAlert:
	default:
		return
	}
	for _, snd := range ctx.sounds {
		if snd.source == a.ID {
			continue
		}
		if geom.DistanceSq(a.X, a.Y, snd.x, snd.y) <= snd.radius*snd.radius {
			a.InvestigateX, a.InvestigateY = snd.x, snd.y
			a.SetState(world.StateInvestigating, now)
			a.Dirty = true
			return
		}
	}
}

// tryAttack lands the animal's hit when the target is inside attack range
// and the cooldown has elapsed. Damage routes through the player pipeline
// with typed resistance and knockback; animal attacks bypass the PvP gate.
func (ai *AI) tryAttack(a *world.WildAnimal, stats *data.SpeciesStats, now time.Time) {
	target := ai.State.Players[a.TargetPlayerID]
	if target == nil || !target.Alive() {
		return
	}
	if geom.DistanceSq(a.X, a.Y, target.X, target.Y) > stats.AttackRangePx*stats.AttackRangePx {
		return
	}
	cooldown := time.Duration(stats.AttackCooldownMs) * time.Millisecond
	if now.Sub(a.LastAttackTime) < cooldown {
		return
	}
	a.LastAttackTime = now
	a.SetState(world.StateAttacking, now)
	a.Dirty = true

	ai.Combat.DamagePlayerByAnimal(a, target, stats.AttackDamage, now)

	// Resume the chase next tick.
	a.SetState(world.StateChasing, now)
}
