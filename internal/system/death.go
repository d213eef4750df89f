package system

import (
	"time"

	"github.com/shorebound/server/internal/core/event"
	"github.com/shorebound/server/internal/world"
)

const (
	knockedOutRecoverAfter = 60 * time.Second
	corpseDespawnAfter     = 10 * time.Minute
	playerCorpseHealth     = 100.0
)

// knockOut puts a freshly-zeroed player into the knocked-out state and
// books the recovery check. The scheduling error propagates: a knockout
// that cannot be exited must not be entered.
func (c *Combat) knockOut(p *world.Player, now time.Time) error {
	if err := c.scheduleRecovery(p.ID, now); err != nil {
		return err
	}
	p.IsKnockedOut = true
	p.Health = 1.0
	p.KnockedOutAt = now
	p.MarkDirty()
	event.Emit(c.Bus, event.PlayerKnockedOut{PlayerID: p.ID, At: now})
	return nil
}

// promoteToDead finishes off a knocked-out player: flags, weapon drop,
// effect cleanup, corpse, death marker. The recovery row is cancelled so
// the dead cannot wake up.
func (c *Combat) promoteToDead(p *world.Player, killerID uint64, now time.Time) {
	p.IsDead = true
	p.IsKnockedOut = false
	p.Health = 0
	p.DeathTime = now

	c.State.Schedule.CancelTarget(world.ScheduleKnockedOutRecover, p.ID)
	c.dropActiveWeapon(p, now)
	p.ActiveItemDefID = 0
	c.State.Effects.ClearTarget(world.EffectOnPlayer, p.ID)
	c.createPlayerCorpse(p, now)
	c.State.UpsertDeathMarker(p.ID, p.X, p.Y, now)
	p.MarkDirty()

	event.Emit(c.Bus, event.PlayerDied{PlayerID: p.ID, KillerID: killerID, X: p.X, Y: p.Y})

	if killerID != 0 {
		if killer := c.State.Players[killerID]; killer != nil {
			killer.Stats.PlayersKilled++
			c.awardXP(killer, c.Lua.XPForPlayerKill())
		}
	}
}

// dropActiveWeapon moves the held weapon onto the ground at the player.
func (c *Combat) dropActiveWeapon(p *world.Player, now time.Time) {
	if p.ActiveItemDefID == 0 {
		return
	}
	c.State.CreateDroppedItemNoConsolidation(p.ActiveItemDefID, 1, p.X, p.Y, now)
	c.State.TriggerConsolidationAt(p.X, p.Y)
}

// createPlayerCorpse snapshots the player's inventory into a corpse row
// and books its despawn. The inventory itself is wiped.
func (c *Combat) createPlayerCorpse(p *world.Player, now time.Time) {
	slots := make([]world.ItemStack, 0, len(p.Inventory))
	for i := range p.Inventory {
		if p.Inventory[i].Quantity > 0 {
			slots = append(slots, p.Inventory[i])
			p.Inventory[i] = world.ItemStack{}
		}
	}
	co := &world.Corpse{
		ID:        c.State.NextID(),
		Kind:      world.CorpsePlayer,
		X:         p.X,
		Y:         p.Y,
		SpawnedAt: now,
		DeathTime: now,
		Health:    playerCorpseHealth,
		Slots:     slots,
		Owner:     p.ID,
	}
	c.State.AddCorpse(co)
	c.State.Schedule.Insert(world.ScheduleCorpseDespawn, co.ID, now.Add(corpseDespawnAfter))
}

// RecoverKnockedOut is the scheduled exit from the knocked-out state: the
// player wakes with a sliver of health if nobody finished them.
func (c *Combat) RecoverKnockedOut(playerID uint64, now time.Time) {
	p := c.State.Players[playerID]
	if p == nil || !p.IsKnockedOut || p.IsDead {
		return
	}
	p.IsKnockedOut = false
	p.Health = world.PlayerMaxHealth * 0.2
	p.MarkDirty()
}
