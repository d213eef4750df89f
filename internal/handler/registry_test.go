package handler

import (
	"testing"

	"go.uber.org/zap"

	"github.com/shorebound/server/internal/net"
)

func newTestRegistry() *Registry {
	return NewRegistry(zap.NewNop())
}

func TestDispatchRunsHandlerInAllowedState(t *testing.T) {
	reg := newTestRegistry()
	called := 0
	reg.Register("noop", []net.SessionState{net.StateInWorld},
		func(net.Command, *Deps) { called++ })

	sess := &net.Session{ID: 1}
	sess.SetState(net.StateInWorld)
	reg.Dispatch(net.Command{Session: sess, Type: "noop"}, nil)

	if called != 1 {
		t.Fatalf("handler ran %d times, want 1", called)
	}
}

func TestDispatchDropsWrongState(t *testing.T) {
	reg := newTestRegistry()
	called := 0
	reg.Register("noop", []net.SessionState{net.StateInWorld},
		func(net.Command, *Deps) { called++ })

	// Zero-value session is StateConnected.
	sess := &net.Session{ID: 2}
	reg.Dispatch(net.Command{Session: sess, Type: "noop"}, nil)

	if called != 0 {
		t.Fatalf("handler ran in a disallowed state")
	}
}

func TestDispatchIgnoresUnknownType(t *testing.T) {
	reg := newTestRegistry()
	sess := &net.Session{ID: 3}
	// Must not panic or call anything.
	reg.Dispatch(net.Command{Session: sess, Type: "no_such_command"}, nil)
}

func TestRegisterPanicsOnDuplicate(t *testing.T) {
	reg := newTestRegistry()
	fn := func(net.Command, *Deps) {}
	reg.Register("dup", []net.SessionState{net.StateConnected}, fn)

	defer func() {
		if recover() == nil {
			t.Fatalf("duplicate registration did not panic")
		}
	}()
	reg.Register("dup", []net.SessionState{net.StateConnected}, fn)
}
