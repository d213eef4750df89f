package system

import (
	"errors"
	"time"

	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// Hostile night spawns that outlive their welcome despawn on a timer.
const hostileDespawnAfter = 8 * time.Minute

var (
	errUnknownSpecies = errors.New("unknown species")
	errBadSpawnPos    = errors.New("invalid spawn position")
)

// SpawnWildAnimal validates the position and inserts a fresh animal in its
// species-appropriate initial state. Land species reject water tiles;
// birds start Grounded; hostile night spawns carry a despawn deadline.
func (ai *AI) SpawnWildAnimal(species string, x, y float64, now time.Time) (uint64, error) {
	stats := ai.Species.Get(species)
	if stats == nil {
		return 0, errUnknownSpecies
	}
	if x < 0 || y < 0 ||
		x >= float64(ai.State.Tiles.Width)*geom.TileSizePx ||
		y >= float64(ai.State.Tiles.Height)*geom.TileSizePx {
		return 0, errBadSpawnPos
	}
	if !stats.IsBird && ai.State.Tiles.OnWater(x, y) {
		return 0, errBadSpawnPos
	}

	state := world.StateIdle
	if stats.IsBird {
		state = world.StateGrounded
	}
	a := &world.WildAnimal{
		ID:           ai.State.NextID(),
		Species:      species,
		X:            x,
		Y:            y,
		SpawnX:       x,
		SpawnY:       y,
		Facing:       "down",
		State:        state,
		Health:       stats.MaxHealth,
		IsHostileNpc: stats.IsHostileNpc,
	}
	if stats.IsHostileNpc {
		a.DespawnAt = now.Add(hostileDespawnAfter)
	}
	ai.State.AddAnimal(a)
	return a.ID, nil
}
