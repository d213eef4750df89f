package system

import (
	"errors"
	"time"

	"github.com/shorebound/server/internal/core/event"
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/world"
)

const scatterOffsetPx = 20.0

var errIndestructible = errors.New("That cannot be damaged.")

// damageDeployable applies a hit to a placed construction. Monuments
// reject all damage with an error; raiding another player's property passes
// through the PvP gate. Destruction scatters the inventory, consolidates
// once, cancels any processing schedule and deletes the row.
func (c *Combat) damageDeployable(attacker *world.Player, id uint64, damage float64, now time.Time) (AttackResult, error) {
	d := c.State.Deployables[id]
	if d == nil || d.IsDestroyed || damage <= 0 {
		return AttackResult{Hit: false}, nil
	}
	res := AttackResult{TargetType: d.Kind}
	if !d.Destructible() {
		return res, errIndestructible
	}
	if d.Owner != 0 && d.Owner != attacker.ID {
		victim := c.State.Players[d.Owner]
		if victim == nil || !PvPActive(attacker, now) || !PvPActive(victim, now) {
			return res, nil
		}
	}

	d.Health = maxF(d.Health-damage, 0)
	d.LastHitTime = now
	d.LastDamagedBy = attacker.ID
	c.emitSound(d.X, d.Y, 300, attacker.ID, "hit_structure")
	res.Hit = true

	if d.Health > 0 {
		return res, nil
	}

	res.Killed = true
	d.IsDestroyed = true
	d.DestroyedAt = now
	c.emitSound(d.X, d.Y, 450, attacker.ID, "structure_destroyed")
	event.Emit(c.Bus, event.DeployableDestroyed{
		DeployableID: id, Kind: string(d.Kind), AttackerID: attacker.ID,
	})

	c.scatterSlots(d.Slots, d.X, d.Y, now)
	c.State.Schedule.CancelTarget(world.ScheduleRespawnCheck, id)
	c.State.Schedule.CancelTarget(world.ScheduleCorpseDespawn, id)
	c.State.RemoveDeployable(id)
	return res, nil
}

// damageStructure covers the cell-bound pieces: walls, doors, fences,
// foundations. Raiding shares the deployable PvP gate.
func (c *Combat) damageStructure(attacker *world.Player, id uint64, damage float64, now time.Time) AttackResult {
	st := c.State.Structures[id]
	if st == nil || st.IsDestroyed || damage <= 0 {
		return AttackResult{Hit: false}
	}
	res := AttackResult{TargetType: structureTargetType(st.Kind)}
	if st.Owner != 0 && st.Owner != attacker.ID {
		victim := c.State.Players[st.Owner]
		if victim == nil || !PvPActive(attacker, now) || !PvPActive(victim, now) {
			return res
		}
	}

	st.Health = maxF(st.Health-damage, 0)
	st.LastHitTime = now
	minX, minY, maxX, maxY := structureAABB(st)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	c.emitSound(cx, cy, 300, attacker.ID, "hit_structure")
	res.Hit = true

	if st.Health > 0 {
		return res
	}

	res.Killed = true
	st.IsDestroyed = true
	st.DestroyedAt = now
	c.emitSound(cx, cy, 450, attacker.ID, "structure_destroyed")
	event.Emit(c.Bus, event.StructureDestroyed{
		StructureID: id, Kind: string(st.Kind), AttackerID: attacker.ID,
	})
	c.State.RemoveStructure(id)
	return res
}

// damageCorpse decrements the harvest budget; depletion scatters the
// remaining slots and removes the corpse along with its despawn row.
func (c *Combat) damageCorpse(attacker *world.Player, id uint64, damage float64, now time.Time) AttackResult {
	co := c.State.Corpses[id]
	if co == nil || damage <= 0 {
		return AttackResult{Hit: false}
	}
	t := data.TargetAnimalCorpse
	if co.Kind == world.CorpsePlayer {
		t = data.TargetPlayerCorpse
	}

	co.Health = maxF(co.Health-damage, 0)
	c.emitSound(co.X, co.Y, 200, attacker.ID, "harvest")

	// Animal corpses yield meat and bone per harvest hit.
	if co.Kind == world.CorpseAnimal {
		c.State.GiveOrDrop(attacker, c.resourceDefID("Raw Meat"), uniformU(c.Rng, 1, 2), now)
		if c.Rng.Float64() < 0.5 {
			c.State.GiveOrDrop(attacker, c.resourceDefID("Bone"), 1, now)
		}
		if c.Rng.Float64() < 0.35 {
			c.State.GiveOrDrop(attacker, c.resourceDefID("Animal Hide"), 1, now)
		}
	}

	if co.Health > 0 {
		return AttackResult{Hit: true, TargetType: t}
	}

	c.scatterSlots(co.Slots, co.X, co.Y, now)
	c.State.Schedule.CancelTarget(world.ScheduleCorpseDespawn, id)
	c.State.RemoveCorpse(id)
	return AttackResult{Hit: true, TargetType: t, Killed: true}
}

// scatterSlots spills container slots onto the ground with a random ±20 px
// offset each, then consolidates the drop site exactly once.
func (c *Combat) scatterSlots(slots []world.ItemStack, x, y float64, now time.Time) {
	dropped := false
	for _, slot := range slots {
		if slot.Quantity == 0 {
			continue
		}
		ox := uniformF(c.Rng, -scatterOffsetPx, scatterOffsetPx)
		oy := uniformF(c.Rng, -scatterOffsetPx, scatterOffsetPx)
		c.State.CreateDroppedItemNoConsolidation(slot.DefID, slot.Quantity, x+ox, y+oy, now)
		dropped = true
	}
	if dropped {
		c.State.TriggerConsolidationAt(x, y)
	}
}

func structureTargetType(k world.StructureKind) data.TargetType {
	switch k {
	case world.StructWall:
		return data.TargetWall
	case world.StructDoor:
		return data.TargetDoor
	case world.StructFence:
		return data.TargetFence
	default:
		return data.TargetFoundation
	}
}
