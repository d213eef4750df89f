package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/shorebound/server/internal/config"
	"github.com/shorebound/server/internal/core/event"
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/scripting"
	"github.com/shorebound/server/internal/world"
)

// AttackResult is what every damage entry point returns to its caller.
type AttackResult struct {
	Hit          bool
	TargetType   data.TargetType
	ResourceName string
	ResourceQty  uint32
	Killed       bool
}

// Combat is the damage dispatcher. One instance lives on the game loop; all
// of the damage_* methods mutate world state directly and emit events for
// the next tick.
type Combat struct {
	State   *world.State
	Items   *data.ItemTable
	Species *data.SpeciesTable
	Armor   *data.ArmorTable
	Plants  *data.PlantTable
	Bus     *event.Bus
	Lua     *scripting.Engine
	Log     *zap.Logger
	Rng     *rand.Rand
	Rates   config.RatesConfig

	// scheduleRecovery books the knocked-out exit check. Overridable so
	// failure handling (damage rollback) is testable.
	scheduleRecovery func(playerID uint64, now time.Time) error
}

func NewCombat(s *world.State, items *data.ItemTable, species *data.SpeciesTable,
	armor *data.ArmorTable, plants *data.PlantTable, bus *event.Bus,
	lua *scripting.Engine, log *zap.Logger, rng *rand.Rand) *Combat {

	c := &Combat{
		State: s, Items: items, Species: species, Armor: armor, Plants: plants,
		Bus: bus, Lua: lua, Log: log, Rng: rng,
	}
	c.scheduleRecovery = func(playerID uint64, now time.Time) error {
		s.Schedule.Insert(world.ScheduleKnockedOutRecover, playerID,
			now.Add(knockedOutRecoverAfter))
		return nil
	}
	return c
}

// scaleYield applies the operator yield multiplier. Zero means unset.
func (c *Combat) scaleYield(q uint32) uint32 {
	if c.Rates.YieldRate > 0 && q > 0 {
		scaled := uint32(float64(q) * c.Rates.YieldRate)
		if scaled == 0 {
			scaled = 1
		}
		return scaled
	}
	return q
}

// scaleRespawn stretches resource respawn delays by the operator multiplier.
func (c *Combat) scaleRespawn(d time.Duration) time.Duration {
	if c.Rates.RespawnRate > 0 {
		return time.Duration(float64(d) * c.Rates.RespawnRate)
	}
	return d
}

// emitSound queues a world-space noise for the next tick; animals pick it
// up as an investigation point.
func (c *Combat) emitSound(x, y, radius float64, source uint64, kind string) {
	event.Emit(c.Bus, event.SoundEmitted{X: x, Y: y, RadiusPx: radius, Source: source, Kind: kind})
}

// ProcessAttack is the canonical combat entry point: one swing or
// projectile hit from a player against an acquired target.
//
// The occlusion order is load-bearing. Walls are tested before fences,
// fences before closed doors, doors before shelters; each test is skipped
// when the target IS that kind of obstacle, and the first hit swaps the
// effective target (or, with a repair hammer, reroutes into a repair).
// Shelters only block, they never absorb.
func (c *Combat) ProcessAttack(attacker *world.Player, target Target, def *data.ItemDefinition, now time.Time) (AttackResult, error) {
	miss := AttackResult{Hit: false, TargetType: target.Type}

	tx, ty, ok := c.TargetPosition(target)
	if !ok {
		return miss, nil
	}

	if def != nil && def.IsRepairHammer {
		return c.repairTarget(attacker, target, now), nil
	}

	if target.Type != data.TargetWall {
		if wall := c.lineHitsWall(attacker.X, attacker.Y, tx, ty); wall != nil {
			target = Target{Type: data.TargetWall, ID: wall.ID}
		}
	}
	if target.Type != data.TargetFence && target.Type != data.TargetWall {
		if fence := c.lineHitsFence(attacker.X, attacker.Y, tx, ty); fence != nil {
			target = Target{Type: data.TargetFence, ID: fence.ID}
		}
	}
	if target.Type != data.TargetDoor && target.Type != data.TargetWall && target.Type != data.TargetFence {
		if door := c.lineHitsClosedDoor(attacker.X, attacker.Y, tx, ty); door != nil {
			target = Target{Type: data.TargetDoor, ID: door.ID}
		}
	}
	if target.Type != data.TargetShelter {
		ownerID := c.targetOwner(target)
		if c.shelterBlocks(attacker.ID, ownerID, attacker.X, attacker.Y, tx, ty) {
			return miss, nil
		}
	}

	damage, yieldQty, resource := CalculateDamageAndYield(def, target.Type, c.Rng)
	yieldQty = c.scaleYield(yieldQty)

	switch target.Type {
	case data.TargetTree:
		return c.damageTree(attacker, target.ID, damage, yieldQty, resource, def, now), nil
	case data.TargetStone:
		return c.damageStone(attacker, target.ID, damage, yieldQty, resource, def, now), nil
	case data.TargetLivingCoral:
		return c.damageCoral(attacker, target.ID, damage, yieldQty, resource, def, now), nil
	case data.TargetGrass:
		return c.damageGrass(attacker, target.ID, damage, yieldQty, resource, now), nil
	case data.TargetPlayer:
		return c.damagePlayer(attacker, target.ID, damage, def, now)
	case data.TargetAnimal:
		return c.DamageWildAnimal(target.ID, damage, attacker.ID, def, now), nil
	case data.TargetPlayerCorpse, data.TargetAnimalCorpse:
		return c.damageCorpse(attacker, target.ID, damage, now), nil
	case data.TargetWall, data.TargetDoor, data.TargetFence, data.TargetFoundation:
		return c.damageStructure(attacker, target.ID, damage, now), nil
	default:
		return c.damageDeployable(attacker, target.ID, damage, now)
	}
}

// Attack resolves a raw swing: acquire candidates in the weapon's cone,
// pick the best target, dispatch. No target in the cone is a silent miss.
func (c *Combat) Attack(attacker *world.Player, now time.Time) (AttackResult, error) {
	if attacker.IsDead || attacker.IsKnockedOut {
		return AttackResult{}, nil
	}
	def := c.Items.Get(attacker.ActiveItemDefID)
	rangePx, angleDeg := 96.0, 90.0
	if def != nil {
		rangePx, angleDeg = def.AttackRangePx, def.AttackAngleDeg
	}
	candidates := c.FindTargetsInCone(attacker, rangePx, angleDeg)
	c.emitSound(attacker.X, attacker.Y, 300, attacker.ID, "swing")
	if def == nil {
		if len(candidates) == 0 {
			return AttackResult{}, nil
		}
		return c.ProcessAttack(attacker, candidates[0], nil, now)
	}
	best, ok := FindBestTarget(candidates, def)
	if !ok {
		return AttackResult{}, nil
	}
	return c.ProcessAttack(attacker, best, def, now)
}

func (c *Combat) targetOwner(t Target) uint64 {
	switch t.Type {
	case data.TargetPlayer:
		return t.ID
	case data.TargetWall, data.TargetDoor, data.TargetFence, data.TargetFoundation:
		if st := c.State.Structures[t.ID]; st != nil {
			return st.Owner
		}
	default:
		if d := c.State.Deployables[t.ID]; d != nil {
			return d.Owner
		}
	}
	return 0
}

// repairTarget heals a damaged wall/fence/door/deployable back toward max
// health. Repair hammers never deal damage, even through occluders.
func (c *Combat) repairTarget(attacker *world.Player, target Target, now time.Time) AttackResult {
	const repairPerHit = 25.0
	miss := AttackResult{Hit: false, TargetType: target.Type}

	tx, ty, ok := c.TargetPosition(target)
	if !ok {
		return miss
	}
	// A damaged occluder on the swing line is repaired instead of the
	// aimed target.
	if wall := c.lineHitsWall(attacker.X, attacker.Y, tx, ty); wall != nil && wall.ID != target.ID {
		target = Target{Type: data.TargetWall, ID: wall.ID}
	} else if fence := c.lineHitsFence(attacker.X, attacker.Y, tx, ty); fence != nil && fence.ID != target.ID {
		target = Target{Type: data.TargetFence, ID: fence.ID}
	} else if door := c.lineHitsClosedDoor(attacker.X, attacker.Y, tx, ty); door != nil && door.ID != target.ID {
		target = Target{Type: data.TargetDoor, ID: door.ID}
	}

	switch target.Type {
	case data.TargetWall, data.TargetDoor, data.TargetFence, data.TargetFoundation:
		st := c.State.Structures[target.ID]
		if st == nil || st.IsDestroyed {
			return miss
		}
		st.Health = minF(st.Health+repairPerHit, st.MaxHealth)
		c.emitSound(tx, ty, 200, attacker.ID, "repair")
		return AttackResult{Hit: true, TargetType: target.Type}
	default:
		d := c.State.Deployables[target.ID]
		if d == nil || d.IsDestroyed {
			return miss
		}
		d.Health = minF(d.Health+repairPerHit, d.MaxHealth)
		c.emitSound(tx, ty, 200, attacker.ID, "repair")
		return AttackResult{Hit: true, TargetType: target.Type}
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
