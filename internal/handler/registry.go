package handler

import (
	"go.uber.org/zap"

	"github.com/shorebound/server/internal/net"
)

// HandlerFunc processes one decoded client command on the game loop.
type HandlerFunc func(cmd net.Command, deps *Deps)

type entry struct {
	states  []net.SessionState
	handler HandlerFunc
}

// Registry maps message types to handlers with session-state gating.
// Registered once at boot, read-only afterwards.
type Registry struct {
	entries map[string]entry
	log     *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		entries: make(map[string]entry),
		log:     log.Named("handler"),
	}
}

func (r *Registry) Register(msgType string, states []net.SessionState, fn HandlerFunc) {
	if _, dup := r.entries[msgType]; dup {
		panic("handler: duplicate registration for " + msgType)
	}
	r.entries[msgType] = entry{states: states, handler: fn}
}

// Dispatch runs the handler for one command. Unknown types and commands
// sent in the wrong session state are logged and dropped, never fatal.
func (r *Registry) Dispatch(cmd net.Command, deps *Deps) {
	e, ok := r.entries[cmd.Type]
	if !ok {
		r.log.Debug("未知指令", zap.String("type", cmd.Type),
			zap.Uint64("session", cmd.Session.ID))
		return
	}
	st := cmd.Session.State()
	for _, allowed := range e.states {
		if st == allowed {
			e.handler(cmd, deps)
			return
		}
	}
	r.log.Debug("指令狀態不符", zap.String("type", cmd.Type),
		zap.Int32("state", int32(st)), zap.Uint64("session", cmd.Session.ID))
}
