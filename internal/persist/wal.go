package persist

import (
	"context"
	"fmt"
	"time"
)

// WALEntry records one irreversible world event ahead of the next
// autosave: a kill, a structure destruction or a player death.
type WALEntry struct {
	EventType  string // "kill", "destruction", "death"
	SubjectID  uint64
	ActorID    uint64
	Detail     string // species, structure kind or weapon name
	X, Y       float64
	OccurredAt time.Time
}

type WALRepo struct {
	db *DB
}

func NewWALRepo(db *DB) *WALRepo {
	return &WALRepo{db: db}
}

// WriteWAL atomically writes a batch of WAL entries in a single transaction.
// Returns nil on success. If it fails, the caller should retry on the next
// flush rather than drop the batch.
func (r *WALRepo) WriteWAL(ctx context.Context, entries []WALEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("wal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO kill_wal (event_type, subject_id, actor_id, detail, pos_x, pos_y, occurred_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.EventType, e.SubjectID, e.ActorID, e.Detail, e.X, e.Y, e.OccurredAt,
		); err != nil {
			return fmt.Errorf("wal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// MarkProcessed marks all WAL entries as processed (called after a full
// world save commits, at which point the log is redundant).
func (r *WALRepo) MarkProcessed(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE kill_wal SET processed = TRUE WHERE processed = FALSE`,
	)
	return err
}
