package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shorebound/server/internal/core/event"
	coresys "github.com/shorebound/server/internal/core/system"
	"github.com/shorebound/server/internal/persist"
	"github.com/shorebound/server/internal/world"
)

const saveTimeout = 20 * time.Second

// Persistence flushes the kill WAL every tick and performs a full batch
// save on the autosave interval. Irreversible events (kills, deaths,
// destructions) reach the database ahead of the entity tables, so a crash
// between autosaves cannot resurrect anything the log recorded.
type Persistence struct {
	state   *world.State
	players *persist.PlayerRepo
	worlds  *persist.WorldRepo
	wal     *persist.WALRepo
	seed    int64

	every    time.Duration
	lastSave time.Time
	pending  []persist.WALEntry

	log   *zap.Logger
	clock func() time.Time
}

func NewPersistence(s *world.State, players *persist.PlayerRepo, worlds *persist.WorldRepo,
	wal *persist.WALRepo, seed int64, every time.Duration, bus *event.Bus,
	log *zap.Logger) *Persistence {
	p := &Persistence{
		state:    s,
		players:  players,
		worlds:   worlds,
		wal:      wal,
		seed:     seed,
		every:    every,
		lastSave: time.Now(),
		log:      log.Named("persist"),
		clock:    time.Now,
	}

	event.Subscribe(bus, func(e event.AnimalKilled) {
		p.pending = append(p.pending, persist.WALEntry{
			EventType:  "kill",
			SubjectID:  e.AnimalID,
			ActorID:    e.KillerID,
			Detail:     e.Species,
			X:          e.X,
			Y:          e.Y,
			OccurredAt: p.clock(),
		})
	})
	event.Subscribe(bus, func(e event.PlayerDied) {
		p.pending = append(p.pending, persist.WALEntry{
			EventType:  "death",
			SubjectID:  e.PlayerID,
			ActorID:    e.KillerID,
			X:          e.X,
			Y:          e.Y,
			OccurredAt: p.clock(),
		})
	})
	event.Subscribe(bus, func(e event.StructureDestroyed) {
		p.pending = append(p.pending, persist.WALEntry{
			EventType:  "destruction",
			SubjectID:  e.StructureID,
			ActorID:    e.AttackerID,
			Detail:     e.Kind,
			OccurredAt: p.clock(),
		})
	})
	event.Subscribe(bus, func(e event.DeployableDestroyed) {
		p.pending = append(p.pending, persist.WALEntry{
			EventType:  "destruction",
			SubjectID:  e.DeployableID,
			ActorID:    e.AttackerID,
			Detail:     e.Kind,
			OccurredAt: p.clock(),
		})
	})

	return p
}

func (p *Persistence) Phase() coresys.Phase { return coresys.PhasePersist }

func (p *Persistence) Update(_ time.Duration) {
	now := p.clock()
	p.flushWAL()
	if now.Sub(p.lastSave) >= p.every {
		p.SaveNow()
		p.lastSave = now
	}
}

func (p *Persistence) flushWAL() {
	if len(p.pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := p.wal.WriteWAL(ctx, p.pending); err != nil {
		// Keep the batch; the next tick retries.
		p.log.Error("wal flush failed", zap.Int("entries", len(p.pending)), zap.Error(err))
		return
	}
	p.pending = p.pending[:0]
}

// SaveNow performs a full synchronous save: world tables, every player,
// the world singleton, then retires the WAL. Called on the autosave
// interval and once more at shutdown.
func (p *Persistence) SaveNow() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	start := p.clock()

	if err := p.worlds.SaveWorld(ctx, p.state); err != nil {
		p.log.Error("world save failed", zap.Error(err))
		return
	}
	saved := 0
	for _, pl := range p.state.Players {
		if err := p.players.Save(ctx, pl); err != nil {
			p.log.Error("player save failed", zap.Uint64("player", pl.ID), zap.Error(err))
			continue
		}
		saved++
	}
	for _, m := range p.state.DeathMarkers {
		if err := p.players.SaveDeathMarker(ctx, m); err != nil {
			p.log.Error("death marker save failed", zap.Uint64("owner", m.Owner), zap.Error(err))
		}
	}
	meta := &persist.WorldMeta{
		Seed:           p.seed,
		Season:         p.state.Season,
		SeasonProgress: p.state.SeasonProgress,
		NextEntityID:   p.state.PeekNextID(),
	}
	if err := p.worlds.SaveMeta(ctx, meta); err != nil {
		p.log.Error("world meta save failed", zap.Error(err))
		return
	}
	if err := p.wal.MarkProcessed(ctx); err != nil {
		p.log.Warn("wal mark processed failed", zap.Error(err))
	}

	p.log.Info("autosave complete",
		zap.Int("players", saved),
		zap.Duration("took", p.clock().Sub(start)))
}
