package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain gateway command queues
	PhasePreUpdate               // 1: process last tick's events
	PhaseUpdate                  // 2: combat, AI, movement, effects
	PhasePostUpdate              // 3: respawn checks, scheduled rows
	PhaseOutput                  // 4: build + send state snapshots
	PhasePersist                 // 5: WAL flush + batch save
	PhaseCleanup                 // 6: despawn queued entities
)

// System is the interface every simulation system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
