package system

import (
	"time"

	coresys "github.com/shorebound/server/internal/core/system"
	"github.com/shorebound/server/internal/world"
)

// EffectSystem ticks active status effects: expiry, periodic damage, and
// the death pipeline when a dot finishes someone off.
type EffectSystem struct {
	combat *Combat
	clock  func() time.Time
}

func NewEffectSystem(c *Combat) *EffectSystem {
	return &EffectSystem{combat: c, clock: time.Now}
}

func (s *EffectSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *EffectSystem) Update(_ time.Duration) {
	s.combat.TickEffects(s.clock())
}

// TickEffects advances every effect row against now.
func (c *Combat) TickEffects(now time.Time) {
	var expired []uint64
	var ticks []*world.ActiveEffect

	c.State.Effects.Each(func(e *world.ActiveEffect) {
		if !e.ExpiresAt.IsZero() && !e.ExpiresAt.After(now) {
			expired = append(expired, e.ID)
			return
		}
		if e.TickInterval > 0 && !e.NextTickAt.After(now) {
			ticks = append(ticks, e)
		}
	})

	for _, e := range ticks {
		e.NextTickAt = now.Add(e.TickInterval)
		if e.Amount <= 0 {
			continue
		}
		switch e.TargetKind {
		case world.EffectOnPlayer:
			c.applyEffectDamageToPlayer(e, now)
		case world.EffectOnAnimal:
			c.DamageWildAnimal(e.TargetID, e.Amount, e.Source, nil, now)
		}
	}
	for _, id := range expired {
		c.State.Effects.Remove(id)
	}
}

// applyEffectDamageToPlayer is the dot variant of the hit pipeline: no
// gates, no knockback, straight health drain into knockout or death.
func (c *Combat) applyEffectDamageToPlayer(e *world.ActiveEffect, now time.Time) {
	p := c.State.Players[e.TargetID]
	if p == nil || p.IsDead || !p.IsOnline {
		return
	}
	wasKnockedOut := p.IsKnockedOut
	p.Health = maxF(p.Health-e.Amount, 0)
	p.LastHitTime = now
	p.MarkDirty()
	if p.Health > 0 {
		return
	}
	if wasKnockedOut {
		c.promoteToDead(p, e.Source, now)
		return
	}
	if err := c.knockOut(p, now); err != nil {
		// A dot that cannot book the recovery leaves the player at a
		// sliver instead of in a stuck knockout.
		p.Health = 1.0
		c.Log.Error("knockout scheduling failed during effect tick")
	}
}
