package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// WorldRepo persists everything that is not a player: fauna, resource
// nodes, constructions, loose items and the world singleton.
type WorldRepo struct {
	db *DB
}

func NewWorldRepo(db *DB) *WorldRepo {
	return &WorldRepo{db: db}
}

// WorldMeta is the singleton row: seed, season clock, id counter.
type WorldMeta struct {
	Seed           int64
	Season         string
	SeasonProgress float64
	NextEntityID   uint64
}

// LoadMeta returns nil when the world has never been saved (fresh boot).
func (r *WorldRepo) LoadMeta(ctx context.Context) (*WorldMeta, error) {
	m := &WorldMeta{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT world_seed, season, season_progress, next_entity_id
		FROM world_state`).Scan(&m.Seed, &m.Season, &m.SeasonProgress, &m.NextEntityID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load world meta: %w", err)
	}
	return m, nil
}

func (r *WorldRepo) SaveMeta(ctx context.Context, m *WorldMeta) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO world_state (singleton, world_seed, season, season_progress, next_entity_id)
		VALUES (TRUE, $1, $2, $3, $4)
		ON CONFLICT (singleton) DO UPDATE SET
			season = EXCLUDED.season,
			season_progress = EXCLUDED.season_progress,
			next_entity_id = EXCLUDED.next_entity_id`,
		m.Seed, m.Season, m.SeasonProgress, m.NextEntityID)
	return err
}

// LoadWorld populates the state from every entity table. Intended for
// boot; the state must be empty.
func (r *WorldRepo) LoadWorld(ctx context.Context, s *world.State) error {
	if err := r.loadAnimals(ctx, s); err != nil {
		return err
	}
	if err := r.loadNodes(ctx, s); err != nil {
		return err
	}
	if err := r.loadConstructions(ctx, s); err != nil {
		return err
	}
	return r.loadLoose(ctx, s)
}

func (r *WorldRepo) loadAnimals(ctx context.Context, s *world.State) error {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, species, pos_x, pos_y, spawn_x, spawn_y, facing, state,
		       health, pack_id, is_pack_leader, tamed_by, is_hostile_npc, despawn_at
		FROM wild_animals`)
	if err != nil {
		return fmt.Errorf("load animals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		a := &world.WildAnimal{}
		var state string
		var despawn *time.Time
		if err := rows.Scan(&a.ID, &a.Species, &a.X, &a.Y, &a.SpawnX, &a.SpawnY,
			&a.Facing, &state, &a.Health, &a.PackID, &a.IsPackLeader,
			&a.TamedBy, &a.IsHostileNpc, &despawn); err != nil {
			return fmt.Errorf("scan animal: %w", err)
		}
		a.State = world.AnimalState(state)
		if despawn != nil {
			a.DespawnAt = *despawn
		}
		s.AddAnimal(a)
	}
	return rows.Err()
}

func (r *WorldRepo) loadNodes(ctx context.Context, s *world.State) error {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, pos_x, pos_y, kind, health, resource_remaining, respawn_at, player_planted
		FROM trees`)
	if err != nil {
		return fmt.Errorf("load trees: %w", err)
	}
	for rows.Next() {
		t := &world.Tree{}
		var respawn *time.Time
		if err := rows.Scan(&t.ID, &t.X, &t.Y, &t.Kind, &t.Health,
			&t.ResourceRemaining, &respawn, &t.PlayerPlanted); err != nil {
			rows.Close()
			return fmt.Errorf("scan tree: %w", err)
		}
		if respawn != nil {
			t.RespawnAt = *respawn
		}
		s.AddTree(t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT id, pos_x, pos_y, ore_type, health, resource_remaining, respawn_at
		FROM stones`)
	if err != nil {
		return fmt.Errorf("load stones: %w", err)
	}
	for rows.Next() {
		st := &world.Stone{}
		var respawn *time.Time
		if err := rows.Scan(&st.ID, &st.X, &st.Y, &st.OreType, &st.Health,
			&st.ResourceRemaining, &respawn); err != nil {
			rows.Close()
			return fmt.Errorf("scan stone: %w", err)
		}
		if respawn != nil {
			st.RespawnAt = *respawn
		}
		s.AddStone(st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT id, pos_x, pos_y, health, resource_remaining, respawn_at FROM corals`)
	if err != nil {
		return fmt.Errorf("load corals: %w", err)
	}
	for rows.Next() {
		c := &world.LivingCoral{}
		var respawn *time.Time
		if err := rows.Scan(&c.ID, &c.X, &c.Y, &c.Health,
			&c.ResourceRemaining, &respawn); err != nil {
			rows.Close()
			return fmt.Errorf("scan coral: %w", err)
		}
		if respawn != nil {
			c.RespawnAt = *respawn
		}
		s.AddCoral(c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT id, pos_x, pos_y, appearance, health, respawn_at FROM grass_clumps`)
	if err != nil {
		return fmt.Errorf("load grass: %w", err)
	}
	for rows.Next() {
		g := &world.GrassClump{}
		var respawn *time.Time
		if err := rows.Scan(&g.ID, &g.X, &g.Y, &g.Appearance, &g.Health, &respawn); err != nil {
			rows.Close()
			return fmt.Errorf("scan grass: %w", err)
		}
		if respawn != nil {
			g.RespawnAt = *respawn
		}
		s.AddGrass(g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT id, name, pos_x, pos_y, health, respawn_at FROM plants`)
	if err != nil {
		return fmt.Errorf("load plants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p := &world.PlantNode{}
		var respawn *time.Time
		if err := rows.Scan(&p.ID, &p.Name, &p.X, &p.Y, &p.Health, &respawn); err != nil {
			return fmt.Errorf("scan plant: %w", err)
		}
		if respawn != nil {
			p.RespawnAt = *respawn
		}
		s.AddPlant(p)
	}
	return rows.Err()
}

func (r *WorldRepo) loadConstructions(ctx context.Context, s *world.State) error {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, kind, pos_x, pos_y, owner_id, health, max_health,
		       is_destroyed, destroyed_at, is_monument, is_burning, slots
		FROM deployables`)
	if err != nil {
		return fmt.Errorf("load deployables: %w", err)
	}
	for rows.Next() {
		d := &world.Deployable{}
		var destroyed *time.Time
		var slotsJSON []byte
		var kind string
		if err := rows.Scan(&d.ID, &kind, &d.X, &d.Y, &d.Owner, &d.Health,
			&d.MaxHealth, &d.IsDestroyed, &destroyed, &d.IsMonument,
			&d.IsBurning, &slotsJSON); err != nil {
			rows.Close()
			return fmt.Errorf("scan deployable: %w", err)
		}
		d.Kind = data.TargetType(kind)
		if destroyed != nil {
			d.DestroyedAt = *destroyed
		}
		if err := json.Unmarshal(slotsJSON, &d.Slots); err != nil {
			rows.Close()
			return fmt.Errorf("deployable %d slots: %w", d.ID, err)
		}
		s.AddDeployable(d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT id, kind, cell_x, cell_y, edge, owner_id, health, max_health,
		       is_destroyed, destroyed_at, is_open, door_type
		FROM structures`)
	if err != nil {
		return fmt.Errorf("load structures: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		st := &world.Structure{}
		var destroyed *time.Time
		var kind string
		if err := rows.Scan(&st.ID, &kind, &st.Cell.CX, &st.Cell.CY, &st.Edge,
			&st.Owner, &st.Health, &st.MaxHealth, &st.IsDestroyed,
			&destroyed, &st.IsOpen, &st.DoorType); err != nil {
			return fmt.Errorf("scan structure: %w", err)
		}
		st.Kind = world.StructureKind(kind)
		if destroyed != nil {
			st.DestroyedAt = *destroyed
		}
		s.AddStructure(st)
	}
	return rows.Err()
}

func (r *WorldRepo) loadLoose(ctx context.Context, s *world.State) error {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, kind, pos_x, pos_y, death_time, health, slots, species, owner_id
		FROM corpses`)
	if err != nil {
		return fmt.Errorf("load corpses: %w", err)
	}
	for rows.Next() {
		co := &world.Corpse{}
		var slotsJSON []byte
		var kind string
		if err := rows.Scan(&co.ID, &kind, &co.X, &co.Y, &co.DeathTime,
			&co.Health, &slotsJSON, &co.Species, &co.Owner); err != nil {
			rows.Close()
			return fmt.Errorf("scan corpse: %w", err)
		}
		co.Kind = world.CorpseKind(kind)
		if err := json.Unmarshal(slotsJSON, &co.Slots); err != nil {
			rows.Close()
			return fmt.Errorf("corpse %d slots: %w", co.ID, err)
		}
		s.AddCorpse(co)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT id, def_id, quantity, pos_x, pos_y, created_at FROM dropped_items`)
	if err != nil {
		return fmt.Errorf("load dropped: %w", err)
	}
	for rows.Next() {
		d := &world.DroppedItem{}
		if err := rows.Scan(&d.ID, &d.DefID, &d.Quantity, &d.X, &d.Y, &d.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan dropped: %w", err)
		}
		s.AddDropped(d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Pool.Query(ctx, `SELECT id, pos_x, pos_y, color FROM rune_stones`)
	if err != nil {
		return fmt.Errorf("load rune stones: %w", err)
	}
	for rows.Next() {
		rs := &world.RuneStone{}
		if err := rows.Scan(&rs.ID, &rs.X, &rs.Y, &rs.Color); err != nil {
			rows.Close()
			return fmt.Errorf("scan rune stone: %w", err)
		}
		s.AddRuneStone(rs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Pool.Query(ctx, `SELECT id, pos_x, pos_y FROM sea_stacks`)
	if err != nil {
		return fmt.Errorf("load sea stacks: %w", err)
	}
	for rows.Next() {
		ss := &world.SeaStack{}
		if err := rows.Scan(&ss.ID, &ss.X, &ss.Y); err != nil {
			rows.Close()
			return fmt.Errorf("scan sea stack: %w", err)
		}
		s.SeaStacks[ss.ID] = ss
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Pool.Query(ctx, `SELECT id, pos_x, pos_y, drift_x, drift_y FROM clouds`)
	if err != nil {
		return fmt.Errorf("load clouds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c := &world.Cloud{}
		if err := rows.Scan(&c.ID, &c.X, &c.Y, &c.DriftX, &c.DriftY); err != nil {
			return fmt.Errorf("scan cloud: %w", err)
		}
		s.Clouds[c.ID] = c
	}
	return rows.Err()
}

// SaveWorld rewrites every entity table from the in-memory state in one
// transaction. The state is small enough that delete-and-reinsert beats
// dirty tracking for everything except players.
func (r *WorldRepo) SaveWorld(ctx context.Context, s *world.State) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save world begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tables := []string{"wild_animals", "trees", "stones", "corals",
		"grass_clumps", "plants", "deployables", "structures", "corpses",
		"dropped_items", "rune_stones", "sea_stacks", "clouds"}
	for _, table := range tables {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, a := range s.Animals {
		if _, err := tx.Exec(ctx, `
			INSERT INTO wild_animals (id, species, pos_x, pos_y, spawn_x, spawn_y,
				facing, state, health, chunk_index, pack_id, is_pack_leader,
				tamed_by, is_hostile_npc, despawn_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			a.ID, a.Species, a.X, a.Y, a.SpawnX, a.SpawnY, a.Facing,
			string(a.State), a.Health, geom.ChunkIndex(a.X, a.Y), a.PackID,
			a.IsPackLeader, a.TamedBy, a.IsHostileNpc, nullTime(a.DespawnAt)); err != nil {
			return fmt.Errorf("save animal %d: %w", a.ID, err)
		}
	}
	for _, t := range s.Trees {
		if _, err := tx.Exec(ctx, `
			INSERT INTO trees (id, pos_x, pos_y, kind, health, resource_remaining,
				respawn_at, player_planted, chunk_index)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			t.ID, t.X, t.Y, t.Kind, t.Health, t.ResourceRemaining,
			nullTime(t.RespawnAt), t.PlayerPlanted, geom.ChunkIndex(t.X, t.Y)); err != nil {
			return fmt.Errorf("save tree %d: %w", t.ID, err)
		}
	}
	for _, st := range s.Stones {
		if _, err := tx.Exec(ctx, `
			INSERT INTO stones (id, pos_x, pos_y, ore_type, health,
				resource_remaining, respawn_at, chunk_index)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			st.ID, st.X, st.Y, st.OreType, st.Health, st.ResourceRemaining,
			nullTime(st.RespawnAt), geom.ChunkIndex(st.X, st.Y)); err != nil {
			return fmt.Errorf("save stone %d: %w", st.ID, err)
		}
	}
	for _, c := range s.Corals {
		if _, err := tx.Exec(ctx, `
			INSERT INTO corals (id, pos_x, pos_y, health, resource_remaining,
				respawn_at, chunk_index)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			c.ID, c.X, c.Y, c.Health, c.ResourceRemaining,
			nullTime(c.RespawnAt), geom.ChunkIndex(c.X, c.Y)); err != nil {
			return fmt.Errorf("save coral %d: %w", c.ID, err)
		}
	}
	for _, g := range s.Grass {
		if _, err := tx.Exec(ctx, `
			INSERT INTO grass_clumps (id, pos_x, pos_y, appearance, health,
				respawn_at, chunk_index)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			g.ID, g.X, g.Y, g.Appearance, g.Health,
			nullTime(g.RespawnAt), geom.ChunkIndex(g.X, g.Y)); err != nil {
			return fmt.Errorf("save grass %d: %w", g.ID, err)
		}
	}
	for _, p := range s.Plants {
		if _, err := tx.Exec(ctx, `
			INSERT INTO plants (id, name, pos_x, pos_y, health, respawn_at, chunk_index)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, p.Name, p.X, p.Y, p.Health,
			nullTime(p.RespawnAt), geom.ChunkIndex(p.X, p.Y)); err != nil {
			return fmt.Errorf("save plant %d: %w", p.ID, err)
		}
	}
	for _, d := range s.Deployables {
		slotsJSON, err := json.Marshal(d.Slots)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO deployables (id, kind, pos_x, pos_y, owner_id, health,
				max_health, is_destroyed, destroyed_at, is_monument, is_burning,
				slots, chunk_index)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			d.ID, string(d.Kind), d.X, d.Y, d.Owner, d.Health, d.MaxHealth,
			d.IsDestroyed, nullTime(d.DestroyedAt), d.IsMonument, d.IsBurning,
			slotsJSON, geom.ChunkIndex(d.X, d.Y)); err != nil {
			return fmt.Errorf("save deployable %d: %w", d.ID, err)
		}
	}
	for _, st := range s.Structures {
		if _, err := tx.Exec(ctx, `
			INSERT INTO structures (id, kind, cell_x, cell_y, edge, owner_id,
				health, max_health, is_destroyed, destroyed_at, is_open, door_type)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			st.ID, string(st.Kind), st.Cell.CX, st.Cell.CY, st.Edge, st.Owner,
			st.Health, st.MaxHealth, st.IsDestroyed, nullTime(st.DestroyedAt),
			st.IsOpen, st.DoorType); err != nil {
			return fmt.Errorf("save structure %d: %w", st.ID, err)
		}
	}
	for _, co := range s.Corpses {
		slotsJSON, err := json.Marshal(co.Slots)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO corpses (id, kind, pos_x, pos_y, death_time, health,
				slots, species, owner_id, chunk_index)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			co.ID, string(co.Kind), co.X, co.Y, co.DeathTime, co.Health,
			slotsJSON, co.Species, co.Owner, geom.ChunkIndex(co.X, co.Y)); err != nil {
			return fmt.Errorf("save corpse %d: %w", co.ID, err)
		}
	}
	for _, d := range s.Dropped {
		if _, err := tx.Exec(ctx, `
			INSERT INTO dropped_items (id, def_id, quantity, pos_x, pos_y,
				created_at, chunk_index)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			d.ID, d.DefID, d.Quantity, d.X, d.Y, d.CreatedAt,
			geom.ChunkIndex(d.X, d.Y)); err != nil {
			return fmt.Errorf("save dropped %d: %w", d.ID, err)
		}
	}
	for _, rs := range s.RuneStones {
		if _, err := tx.Exec(ctx, `
			INSERT INTO rune_stones (id, pos_x, pos_y, color) VALUES ($1,$2,$3,$4)`,
			rs.ID, rs.X, rs.Y, rs.Color); err != nil {
			return fmt.Errorf("save rune stone %d: %w", rs.ID, err)
		}
	}
	for _, ss := range s.SeaStacks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sea_stacks (id, pos_x, pos_y) VALUES ($1,$2,$3)`,
			ss.ID, ss.X, ss.Y); err != nil {
			return fmt.Errorf("save sea stack %d: %w", ss.ID, err)
		}
	}
	for _, c := range s.Clouds {
		if _, err := tx.Exec(ctx, `
			INSERT INTO clouds (id, pos_x, pos_y, drift_x, drift_y)
			VALUES ($1,$2,$3,$4,$5)`,
			c.ID, c.X, c.Y, c.DriftX, c.DriftY); err != nil {
			return fmt.Errorf("save cloud %d: %w", c.ID, err)
		}
	}

	return tx.Commit(ctx)
}
