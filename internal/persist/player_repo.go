package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shorebound/server/internal/world"
)

type PlayerRepo struct {
	db *DB
}

func NewPlayerRepo(db *DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

// LoadAll reads every player row. Everyone loads offline; the gateway
// flips the flag on login.
func (r *PlayerRepo) LoadAll(ctx context.Context) ([]*world.Player, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, username, pos_x, pos_y, facing, health, is_dead,
		       is_knocked_out, pvp_enabled, pvp_enabled_until, last_pvp_combat,
		       active_item_def, armor, inventory, insanity, xp, level,
		       kill_stats, quest_progress
		FROM players`)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	defer rows.Close()

	var out []*world.Player
	for rows.Next() {
		p := &world.Player{}
		var pvpUntil, lastCombat *time.Time
		var armorJSON, invJSON, statsJSON, questJSON []byte
		if err := rows.Scan(&p.ID, &p.Username, &p.X, &p.Y, &p.Facing,
			&p.Health, &p.IsDead, &p.IsKnockedOut, &p.PvPEnabled,
			&pvpUntil, &lastCombat, &p.ActiveItemDefID,
			&armorJSON, &invJSON, &p.Insanity, &p.XP, &p.Level,
			&statsJSON, &questJSON); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		if pvpUntil != nil {
			p.PvPEnabledUntil = *pvpUntil
		}
		if lastCombat != nil {
			p.LastPvPCombat = *lastCombat
		}
		if err := json.Unmarshal(armorJSON, &p.Armor); err != nil {
			return nil, fmt.Errorf("player %d armor: %w", p.ID, err)
		}
		var inv []world.ItemStack
		if err := json.Unmarshal(invJSON, &inv); err != nil {
			return nil, fmt.Errorf("player %d inventory: %w", p.ID, err)
		}
		copy(p.Inventory[:], inv)
		if err := json.Unmarshal(statsJSON, &p.Stats); err != nil {
			return nil, fmt.Errorf("player %d stats: %w", p.ID, err)
		}
		if err := json.Unmarshal(questJSON, &p.QuestProgress); err != nil {
			return nil, fmt.Errorf("player %d quests: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindByUsername returns nil when no such player exists.
func (r *PlayerRepo) FindByUsername(ctx context.Context, username string) (uint64, error) {
	var id uint64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id FROM players WHERE username = $1`, username).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// Save upserts one player row.
func (r *PlayerRepo) Save(ctx context.Context, p *world.Player) error {
	armorJSON, err := json.Marshal(p.Armor)
	if err != nil {
		return err
	}
	invJSON, err := json.Marshal(p.Inventory[:])
	if err != nil {
		return err
	}
	statsJSON, err := json.Marshal(p.Stats)
	if err != nil {
		return err
	}
	questJSON, err := json.Marshal(p.QuestProgress)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO players (id, username, pos_x, pos_y, facing, health,
			is_dead, is_knocked_out, pvp_enabled, pvp_enabled_until,
			last_pvp_combat, active_item_def, armor, inventory, insanity,
			xp, level, kill_stats, quest_progress)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		ON CONFLICT (id) DO UPDATE SET
			pos_x = EXCLUDED.pos_x, pos_y = EXCLUDED.pos_y,
			facing = EXCLUDED.facing, health = EXCLUDED.health,
			is_dead = EXCLUDED.is_dead, is_knocked_out = EXCLUDED.is_knocked_out,
			pvp_enabled = EXCLUDED.pvp_enabled,
			pvp_enabled_until = EXCLUDED.pvp_enabled_until,
			last_pvp_combat = EXCLUDED.last_pvp_combat,
			active_item_def = EXCLUDED.active_item_def,
			armor = EXCLUDED.armor, inventory = EXCLUDED.inventory,
			insanity = EXCLUDED.insanity, xp = EXCLUDED.xp,
			level = EXCLUDED.level, kill_stats = EXCLUDED.kill_stats,
			quest_progress = EXCLUDED.quest_progress`,
		p.ID, p.Username, p.X, p.Y, p.Facing, p.Health,
		p.IsDead, p.IsKnockedOut, p.PvPEnabled,
		nullTime(p.PvPEnabledUntil), nullTime(p.LastPvPCombat),
		p.ActiveItemDefID, armorJSON, invJSON, p.Insanity,
		p.XP, p.Level, statsJSON, questJSON)
	return err
}

// SaveDeathMarker upserts the per-player last-death position.
func (r *PlayerRepo) SaveDeathMarker(ctx context.Context, m *world.DeathMarker) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO death_markers (owner_id, pos_x, pos_y, died_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id) DO UPDATE SET
			pos_x = EXCLUDED.pos_x, pos_y = EXCLUDED.pos_y,
			died_at = EXCLUDED.died_at`,
		m.Owner, m.X, m.Y, m.DiedAt)
	return err
}

// LoadDeathMarkers reads the death marker table.
func (r *PlayerRepo) LoadDeathMarkers(ctx context.Context) (map[uint64]*world.DeathMarker, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT owner_id, pos_x, pos_y, died_at FROM death_markers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64]*world.DeathMarker)
	for rows.Next() {
		m := &world.DeathMarker{}
		if err := rows.Scan(&m.Owner, &m.X, &m.Y, &m.DiedAt); err != nil {
			return nil, err
		}
		out[m.Owner] = m
	}
	return out, rows.Err()
}

// nullTime maps the zero time onto SQL NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
