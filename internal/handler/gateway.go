package handler

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/shorebound/server/internal/core/system"
	"github.com/shorebound/server/internal/net"
	"github.com/shorebound/server/internal/world"
)

// Gateway owns the session table on the game loop: it adopts new
// connections, reaps dead ones and drains each session's command queue
// through the registry. Runs at the input phase, which the main loop
// polls between full ticks to keep command latency low.
type Gateway struct {
	server     *net.Server
	reg        *Registry
	deps       *Deps
	maxPerTick int
	log        *zap.Logger
}

func NewGateway(server *net.Server, reg *Registry, deps *Deps, maxPerTick int,
	log *zap.Logger) *Gateway {
	if deps.Sessions == nil {
		deps.Sessions = make(map[uint64]*net.Session)
	}
	return &Gateway{
		server:     server,
		reg:        reg,
		deps:       deps,
		maxPerTick: maxPerTick,
		log:        log.Named("gateway"),
	}
}

func (g *Gateway) Phase() coresys.Phase { return coresys.PhaseInput }

func (g *Gateway) Update(_ time.Duration) {
	g.adoptNew()
	g.reapDead()

	for _, sess := range g.deps.Sessions {
	drain:
		for n := 0; n < g.maxPerTick; n++ {
			select {
			case cmd := <-sess.InQueue:
				g.reg.Dispatch(cmd, g.deps)
			default:
				break drain
			}
		}
		if sess.IsClosed() {
			g.server.NotifyDead(sess.ID)
		}
	}
}

func (g *Gateway) adoptNew() {
	for {
		select {
		case sess := <-g.server.NewSessions():
			g.deps.Sessions[sess.ID] = sess
		default:
			return
		}
	}
}

func (g *Gateway) reapDead() {
	for {
		select {
		case id := <-g.server.DeadSessions():
			sess, ok := g.deps.Sessions[id]
			if !ok {
				continue
			}
			g.disconnect(sess)
		default:
			return
		}
	}
}

// disconnect marks the bound player offline. The row stays in memory for
// the autosave flush; combat against a corpse or a logged-out body keeps
// working.
func (g *Gateway) disconnect(sess *net.Session) {
	if p := g.deps.playerFor(sess); p != nil {
		p.IsOnline = false
		p.MarkDirty()
		g.log.Info("玩家離線", zap.String("username", p.Username), zap.Uint64("id", p.ID))
	}
	sess.Close()
	delete(g.deps.Sessions, sess.ID)
}

// CloseAll force-saves nothing itself; it just drops every connection.
// Called at shutdown after the final save.
func (g *Gateway) CloseAll() {
	for _, sess := range g.deps.Sessions {
		sess.Close()
	}
}

// snapshotEntity is one row in the per-tick view sent to each client.
type snapshotEntity struct {
	ID        uint64  `json:"id"`
	Kind      string  `json:"kind"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Extra     string  `json:"extra,omitempty"` // species, ore type, tree kind
	Health    float64 `json:"health,omitempty"`
	Facing    string  `json:"facing,omitempty"`
	AnimState string  `json:"state,omitempty"`
}

type snapshot struct {
	Self     snapshotSelf     `json:"self"`
	Season   string           `json:"season"`
	Entities []snapshotEntity `json:"entities"`
}

type snapshotSelf struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Health     float64 `json:"health"`
	KnockedOut bool    `json:"knocked_out"`
	Dead       bool    `json:"dead"`
	PvP        bool    `json:"pvp"`
	Insanity   float64 `json:"insanity"`
	XP         int     `json:"xp"`
	Level      int     `json:"level"`
}

// Output builds and flushes per-session world views. Separate system so
// it runs at the output phase after all simulation phases mutate state.
type Output struct {
	deps *Deps
}

func NewOutput(deps *Deps) *Output {
	return &Output{deps: deps}
}

func (o *Output) Phase() coresys.Phase { return coresys.PhaseOutput }

func (o *Output) Update(_ time.Duration) {
	for _, sess := range o.deps.Sessions {
		if sess.State() == net.StateInWorld {
			if p := o.deps.playerFor(sess); p != nil {
				sess.Send(net.Encode("snapshot", o.build(p)))
			}
		}
		sess.FlushOutput()
	}
}

func (o *Output) build(p *world.Player) snapshot {
	s := o.deps.State
	snap := snapshot{
		Self: snapshotSelf{
			X: p.X, Y: p.Y, Health: p.Health,
			KnockedOut: p.IsKnockedOut, Dead: p.IsDead, PvP: p.PvPEnabled,
			Insanity: p.Insanity, XP: p.XP, Level: p.Level,
		},
		Season: s.Season,
	}

	s.Grid.EachInNeighborhood(world.KindPlayer, p.X, p.Y, func(id uint64) {
		other := s.Players[id]
		if other == nil || other.ID == p.ID || !other.IsOnline || other.IsSnorkeling {
			return
		}
		snap.Entities = append(snap.Entities, snapshotEntity{
			ID: id, Kind: "player", X: other.X, Y: other.Y,
			Extra: other.Username, Facing: other.Facing,
		})
	})
	s.Grid.EachInNeighborhood(world.KindAnimal, p.X, p.Y, func(id uint64) {
		a := s.Animals[id]
		if a == nil {
			return
		}
		snap.Entities = append(snap.Entities, snapshotEntity{
			ID: id, Kind: "animal", X: a.X, Y: a.Y,
			Extra: a.Species, Health: a.Health,
			Facing: a.Facing, AnimState: string(a.State),
		})
	})
	s.Grid.EachInNeighborhood(world.KindCorpse, p.X, p.Y, func(id uint64) {
		c := s.Corpses[id]
		if c == nil {
			return
		}
		snap.Entities = append(snap.Entities, snapshotEntity{
			ID: id, Kind: "corpse", X: c.X, Y: c.Y, Extra: c.Species,
		})
	})
	s.Grid.EachInNeighborhood(world.KindDropped, p.X, p.Y, func(id uint64) {
		d := s.Dropped[id]
		if d == nil {
			return
		}
		snap.Entities = append(snap.Entities, snapshotEntity{
			ID: id, Kind: "dropped", X: d.X, Y: d.Y,
		})
	})

	return snap
}
