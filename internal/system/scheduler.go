package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/shorebound/server/internal/core/system"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// SchedulerSystem drains due schedule rows each tick and dispatches them.
// Everything long-lived in the simulation (AI cadence, node respawn, corpse
// despawn, knocked-out recovery, cloud drift) arrives here as a row.
type SchedulerSystem struct {
	state   *world.State
	ai      *AI
	combat  *Combat
	respawn *Respawn
	log     *zap.Logger
	clock   func() time.Time
}

func NewSchedulerSystem(s *world.State, ai *AI, combat *Combat, respawn *Respawn,
	log *zap.Logger) *SchedulerSystem {
	return &SchedulerSystem{
		state:   s,
		ai:      ai,
		combat:  combat,
		respawn: respawn,
		log:     log.Named("sched"),
		clock:   time.Now,
	}
}

func (s *SchedulerSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SchedulerSystem) Update(_ time.Duration) {
	s.Drain(s.clock())
}

// Drain fires every due entry. Due() already advanced intervals and removed
// one-shots, so a handler that panics or errors cannot wedge the queue.
func (s *SchedulerSystem) Drain(now time.Time) {
	for _, entry := range s.state.Schedule.Due(now) {
		switch entry.Kind {
		case world.ScheduleAITick:
			s.ai.ProcessWildAnimalAI(entry, now)
		case world.ScheduleRespawnCheck:
			s.respawn.CheckRespawn(entry.TargetID, now)
		case world.ScheduleCorpseDespawn:
			s.despawnCorpse(entry.TargetID, now)
		case world.ScheduleKnockedOutRecover:
			s.combat.RecoverKnockedOut(entry.TargetID, now)
		case world.ScheduleCloudDrift:
			s.driftClouds()
		default:
			s.log.Warn("unknown schedule kind", zap.String("kind", string(entry.Kind)))
		}
	}
}

// RebookTimers re-creates the schedule rows a loaded world lost at
// shutdown: pending node respawns, corpse despawns, knocked-out exits and
// the cloud drift interval. Timestamps that lapsed while the server was
// down fire on the first drain.
func (s *SchedulerSystem) RebookTimers(now time.Time) {
	sched := s.state.Schedule
	book := func(kind world.ScheduleKind, target uint64, at time.Time) {
		if at.Before(now) {
			at = now
		}
		sched.Insert(kind, target, at)
	}

	for _, t := range s.state.Trees {
		if !t.RespawnAt.IsZero() {
			book(world.ScheduleRespawnCheck, t.ID, t.RespawnAt)
		}
	}
	for _, st := range s.state.Stones {
		if !st.RespawnAt.IsZero() {
			book(world.ScheduleRespawnCheck, st.ID, st.RespawnAt)
		}
	}
	for _, c := range s.state.Corals {
		if !c.RespawnAt.IsZero() {
			book(world.ScheduleRespawnCheck, c.ID, c.RespawnAt)
		}
	}
	for _, g := range s.state.Grass {
		if !g.RespawnAt.IsZero() {
			book(world.ScheduleRespawnCheck, g.ID, g.RespawnAt)
		}
	}
	for _, p := range s.state.Plants {
		if !p.RespawnAt.IsZero() {
			book(world.ScheduleRespawnCheck, p.ID, p.RespawnAt)
		}
	}
	for _, co := range s.state.Corpses {
		book(world.ScheduleCorpseDespawn, co.ID, co.DeathTime.Add(corpseDespawnAfter))
	}
	for _, p := range s.state.Players {
		if p.IsKnockedOut {
			book(world.ScheduleKnockedOutRecover, p.ID,
				p.KnockedOutAt.Add(knockedOutRecoverAfter))
		}
	}
	if len(s.state.Clouds) > 0 {
		sched.InsertInterval(world.ScheduleCloudDrift,
			now.Add(10*time.Second), 10*time.Second)
	}
}

// despawnCorpse removes a corpse whose linger window lapsed, spilling any
// remaining inventory onto the ground.
func (s *SchedulerSystem) despawnCorpse(id uint64, now time.Time) {
	co := s.state.Corpses[id]
	if co == nil {
		return
	}
	s.combat.scatterSlots(co.Slots, co.X, co.Y, now)
	s.state.RemoveCorpse(id)
}

func (s *SchedulerSystem) driftClouds() {
	w := float64(s.state.Tiles.Width) * geom.TileSizePx
	h := float64(s.state.Tiles.Height) * geom.TileSizePx
	for _, c := range s.state.Clouds {
		c.X += c.DriftX
		c.Y += c.DriftY
		// Wrap instead of clamp so the sky never empties on one side.
		if c.X < 0 {
			c.X += w
		} else if c.X >= w {
			c.X -= w
		}
		if c.Y < 0 {
			c.Y += h
		} else if c.Y >= h {
			c.Y -= h
		}
	}
}
