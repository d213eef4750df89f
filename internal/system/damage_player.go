package system

import (
	"time"

	"github.com/shorebound/server/internal/core/event"
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/world"
)

const (
	wolfFurLowHealthGate   = 30.0
	wolfFurBonusPerPiece   = 0.05
	torchBurnDuration      = 3 * time.Second
	torchBurnDamagePerTick = 2.0
	torchBurnTickInterval  = time.Second
	stunDuration           = 1500 * time.Millisecond
)

// armorResistance folds the target's worn pieces multiplicatively on the
// surviving fraction for a damage type.
func (c *Combat) armorResistance(p *world.Player, dt data.DamageType) float64 {
	surviving := 1.0
	for _, name := range p.Armor {
		piece := c.Armor.Get(name)
		if piece == nil {
			continue
		}
		if r, ok := piece.Resistances[dt]; ok {
			surviving *= 1 - r
		}
	}
	return 1 - surviving
}

func (c *Combat) wolfFurCount(p *world.Player) int {
	n := 0
	for _, name := range p.Armor {
		if piece := c.Armor.Get(name); piece != nil && piece.IsWolfFur {
			n++
		}
	}
	return n
}

func (c *Combat) armorFlag(p *world.Player, fn func(*data.ArmorPiece) bool) bool {
	for _, name := range p.Armor {
		if piece := c.Armor.Get(name); piece != nil && fn(piece) {
			return true
		}
	}
	return false
}

func (c *Combat) meleeReflectPct(p *world.Player) float64 {
	total := 0.0
	for _, name := range p.Armor {
		if piece := c.Armor.Get(name); piece != nil {
			total += piece.MeleeReflectPct
		}
	}
	return total
}

// damagePlayer runs the ordered PvP hit pipeline. Every gate short-circuits
// with hit=false and no mutation; past the gates, the whole sequence
// commits or — when booking the knockout exit fails — rolls the health
// change back and errors out.
func (c *Combat) damagePlayer(attacker *world.Player, targetID uint64, damage float64, def *data.ItemDefinition, now time.Time) (AttackResult, error) {
	miss := AttackResult{Hit: false, TargetType: data.TargetPlayer}
	target := c.State.Players[targetID]

	// Gates 1-4: liveness, online (corpse diversion), safe zone, PvP.
	if target == nil || target.IsDead || damage <= 0 {
		return miss, nil
	}
	if !target.IsOnline {
		if co := c.corpseOfPlayer(targetID); co != nil {
			return c.damageCorpse(attacker, co.ID, playerCorpseHarvestDamage, now), nil
		}
		return miss, nil
	}
	if c.State.Effects.Has(world.EffectOnPlayer, target.ID, world.EffectSafeZone) {
		return miss, nil
	}
	if !PvPActive(attacker, now) || !PvPActive(target, now) {
		return miss, nil
	}
	recordPvPHit(attacker, target, now)

	// 5. Wolf-fur desperation bonus for a near-dead attacker.
	if attacker.Health <= wolfFurLowHealthGate {
		damage *= 1 + wolfFurBonusPerPiece*float64(c.wolfFurCount(attacker))
	}

	// 6. Typed armor resistance.
	damageType := data.DamageMelee
	if def != nil {
		damageType = def.DamageType
	}
	damage *= 1 - c.armorResistance(target, damageType)

	// 7. Commit the health change.
	oldHealth := target.Health
	wasKnockedOut := target.IsKnockedOut
	actual := minF(damage, target.Health)
	target.Health -= actual
	target.LastHitTime = now
	target.LastUpdate = now
	target.MarkDirty()
	event.Emit(c.Bus, event.PlayerDamaged{PlayerID: target.ID, AttackerID: attacker.ID, Amount: actual})

	// 8. Wooden-armor melee reflection, recursive on an attacker kill.
	if damageType == data.DamageMelee {
		if pct := c.meleeReflectPct(target); pct > 0 {
			reflected := actual * pct
			attacker.Health = maxF(attacker.Health-reflected, 0)
			attacker.MarkDirty()
			if attacker.Health == 0 && !attacker.IsDead {
				if attacker.IsKnockedOut {
					c.promoteToDead(attacker, target.ID, now)
				} else if err := c.knockOut(attacker, now); err != nil {
					attacker.Health = reflected // undo only the reflection
					target.Health = oldHealth
					return miss, err
				}
			}
		}
	}

	// 9. Knockback plus melee recoil.
	if !c.armorFlag(target, func(a *data.ArmorPiece) bool { return a.KnockbackImmune }) {
		c.applyKnockback(attacker.X, attacker.Y, target)
	}
	if damageType == data.DamageMelee || damageType == data.DamageSharp || damageType == data.DamageBlunt {
		c.applyMeleeRecoil(attacker, target.X, target.Y)
	}

	// 10. Weapon voice.
	c.emitSound(target.X, target.Y, 300, attacker.ID, hitSoundFor(def, attacker))

	// 11. Status effects from item properties.
	c.applyOnHitEffects(attacker, target, def, now)

	// 12. Damage interrupts an in-progress bandage.
	c.State.Effects.RemoveKind(world.EffectOnPlayer, target.ID, world.EffectBandageBurst)

	// 13. Death pipeline.
	if target.Health == 0 {
		if wasKnockedOut {
			c.promoteToDead(target, attacker.ID, now)
			return AttackResult{Hit: true, TargetType: data.TargetPlayer, Killed: true}, nil
		}
		if err := c.knockOut(target, now); err != nil {
			target.Health = oldHealth
			target.MarkDirty()
			return miss, err
		}
	}
	return AttackResult{Hit: true, TargetType: data.TargetPlayer}, nil
}

// DamagePlayerByAnimal is the animal-bite variant of the pipeline: no PvP
// gate and no weapon effects, but the same typed resistance, knockback and
// death handling.
func (c *Combat) DamagePlayerByAnimal(a *world.WildAnimal, target *world.Player, damage float64, now time.Time) {
	if target.IsDead || !target.IsOnline || damage <= 0 {
		return
	}
	if c.State.Effects.Has(world.EffectOnPlayer, target.ID, world.EffectSafeZone) {
		return
	}
	damage *= 1 - c.armorResistance(target, data.DamageMelee)

	wasKnockedOut := target.IsKnockedOut
	oldHealth := target.Health
	target.Health = maxF(target.Health-damage, 0)
	target.LastHitTime = now
	target.LastUpdate = now
	target.MarkDirty()
	event.Emit(c.Bus, event.PlayerDamaged{PlayerID: target.ID, Amount: oldHealth - target.Health})

	if !c.armorFlag(target, func(p *data.ArmorPiece) bool { return p.KnockbackImmune }) {
		c.applyKnockback(a.X, a.Y, target)
	}
	c.emitSound(target.X, target.Y, 300, 0, "animal_bite")
	c.State.Effects.RemoveKind(world.EffectOnPlayer, target.ID, world.EffectBandageBurst)

	if target.Health == 0 {
		if wasKnockedOut {
			c.promoteToDead(target, 0, now)
			return
		}
		if err := c.knockOut(target, now); err != nil {
			target.Health = oldHealth
			target.MarkDirty()
		}
	}
}

// applyOnHitEffects derives bleed, burn, poison transfer and stun from the
// weapon's properties.
func (c *Combat) applyOnHitEffects(attacker, target *world.Player, def *data.ItemDefinition, now time.Time) {
	if def == nil {
		return
	}
	if def.HasBleed() &&
		!c.armorFlag(target, func(a *data.ArmorPiece) bool { return a.BleedImmune }) {
		interval := time.Duration(def.BleedIntervalSecs * float64(time.Second))
		c.State.Effects.Apply(world.ActiveEffect{
			TargetKind:   world.EffectOnPlayer,
			TargetID:     target.ID,
			Kind:         world.EffectBleed,
			Amount:       def.BleedDamagePerTick,
			TickInterval: interval,
			NextTickAt:   now.Add(interval),
			ExpiresAt:    now.Add(time.Duration(def.BleedDurationSecs * float64(time.Second))),
			Source:       attacker.ID,
		})
	}
	if def.IsTorch && attacker.IsTorchLit {
		c.State.Effects.Apply(world.ActiveEffect{
			TargetKind:   world.EffectOnPlayer,
			TargetID:     target.ID,
			Kind:         world.EffectBurn,
			Amount:       torchBurnDamagePerTick,
			TickInterval: torchBurnTickInterval,
			NextTickAt:   now.Add(torchBurnTickInterval),
			ExpiresAt:    now.Add(torchBurnDuration),
			Source:       attacker.ID,
		})
	}
	if coat := c.State.Effects.Get(world.EffectOnPlayer, attacker.ID, world.EffectPoisonCoating); coat != nil {
		duration := 10 * time.Second
		if c.State.Effects.Has(world.EffectOnPlayer, target.ID, world.EffectPoisonResistance) {
			duration /= 2
		}
		c.State.Effects.Apply(world.ActiveEffect{
			TargetKind:   world.EffectOnPlayer,
			TargetID:     target.ID,
			Kind:         world.EffectPoison,
			Amount:       coat.Amount,
			TickInterval: time.Second,
			NextTickAt:   now.Add(time.Second),
			ExpiresAt:    now.Add(duration),
			Source:       attacker.ID,
		})
	}
	if def.StunChance > 0 && c.Rng.Float64() < def.StunChance {
		c.State.Effects.Apply(world.ActiveEffect{
			TargetKind: world.EffectOnPlayer,
			TargetID:   target.ID,
			Kind:       world.EffectStun,
			ExpiresAt:  now.Add(stunDuration),
			Source:     attacker.ID,
		})
	}
}

func hitSoundFor(def *data.ItemDefinition, attacker *world.Player) string {
	if def == nil {
		return "hit_blunt"
	}
	if def.IsTorch {
		if attacker.IsTorchLit {
			return "hit_torch_lit"
		}
		return "hit_torch"
	}
	switch def.DamageType {
	case data.DamageSharp:
		return "hit_sharp"
	case data.DamagePierce:
		return "hit_spear"
	default:
		return "hit_blunt"
	}
}

func (c *Combat) corpseOfPlayer(playerID uint64) *world.Corpse {
	for _, co := range c.State.Corpses {
		if co.Kind == world.CorpsePlayer && co.Owner == playerID {
			return co
		}
	}
	return nil
}
