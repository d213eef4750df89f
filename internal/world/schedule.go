package world

import (
	"time"
)

// ScheduleKind enumerates the long-lived behaviors modeled as rows.
// Cancelling a behavior is deleting its row.
type ScheduleKind string

const (
	ScheduleAITick            ScheduleKind = "AITick"
	ScheduleRespawnCheck      ScheduleKind = "RespawnCheck"
	ScheduleCorpseDespawn     ScheduleKind = "CorpseDespawn"
	ScheduleKnockedOutRecover ScheduleKind = "KnockedOutRecover"
	ScheduleCloudDrift        ScheduleKind = "CloudDrift"
)

// ScheduleEntry is one pending trigger. Interval zero means one-shot; the
// entry is removed when it fires. SchedulerID is compared by self-scheduled
// reducers so only their own row can drive them.
type ScheduleEntry struct {
	ID          uint64
	Kind        ScheduleKind
	TargetID    uint64
	DueAt       time.Time
	Interval    time.Duration
	SchedulerID uint64
}

// Schedule is the scheduled-rows store.
type Schedule struct {
	entries map[uint64]*ScheduleEntry
	nextID  uint64
}

func NewSchedule() *Schedule {
	return &Schedule{entries: make(map[uint64]*ScheduleEntry)}
}

// Insert adds a one-shot entry and returns its id.
func (s *Schedule) Insert(kind ScheduleKind, target uint64, dueAt time.Time) uint64 {
	return s.insert(kind, target, dueAt, 0)
}

// InsertInterval adds a repeating entry. The entry's id doubles as its
// scheduler identity.
func (s *Schedule) InsertInterval(kind ScheduleKind, dueAt time.Time, every time.Duration) uint64 {
	return s.insert(kind, 0, dueAt, every)
}

func (s *Schedule) insert(kind ScheduleKind, target uint64, dueAt time.Time, every time.Duration) uint64 {
	s.nextID++
	e := &ScheduleEntry{
		ID:       s.nextID,
		Kind:     kind,
		TargetID: target,
		DueAt:    dueAt,
		Interval: every,
	}
	e.SchedulerID = e.ID
	s.entries[e.ID] = e
	return e.ID
}

// CancelTarget deletes every entry of the kind bound to the target.
// Returns how many rows were removed.
func (s *Schedule) CancelTarget(kind ScheduleKind, target uint64) int {
	n := 0
	for id, e := range s.entries {
		if e.Kind == kind && e.TargetID == target {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Has reports whether an entry of the kind exists for the target.
func (s *Schedule) Has(kind ScheduleKind, target uint64) bool {
	for _, e := range s.entries {
		if e.Kind == kind && e.TargetID == target {
			return true
		}
	}
	return false
}

// Due collects every entry due at or before now. One-shots are removed;
// interval entries are advanced before being returned, so a fired tick can
// never double-drain. Returned copies are safe to hold across mutation.
func (s *Schedule) Due(now time.Time) []ScheduleEntry {
	var due []ScheduleEntry
	for id, e := range s.entries {
		if e.DueAt.After(now) {
			continue
		}
		due = append(due, *e)
		if e.Interval > 0 {
			e.DueAt = now.Add(e.Interval)
		} else {
			delete(s.entries, id)
		}
	}
	return due
}

// Count returns the number of pending entries.
func (s *Schedule) Count() int { return len(s.entries) }
