package system

import (
	"time"

	"github.com/shorebound/server/internal/core/event"
	coresys "github.com/shorebound/server/internal/core/system"
)

// EventDispatch rotates the double-buffered bus at the start of each tick
// and delivers last tick's events to their subscribers.
type EventDispatch struct {
	bus *event.Bus
}

func NewEventDispatch(bus *event.Bus) *EventDispatch {
	return &EventDispatch{bus: bus}
}

func (e *EventDispatch) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (e *EventDispatch) Update(_ time.Duration) {
	e.bus.SwapBuffers()
	e.bus.DispatchAll()
}
