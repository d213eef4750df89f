package system

import (
	"strings"
	"time"

	"github.com/shorebound/server/internal/core/event"
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/world"
)

// DamageWildAnimal applies a hit to an animal. On a kill: corpse, XP,
// kill-stat counters, quest progress, delete. On survival, a fearful or
// fleeing animal turns on its attacker: fire fear is overridden for that
// player alone and the animal starts chasing.
func (c *Combat) DamageWildAnimal(animalID uint64, damage float64, attackerID uint64, def *data.ItemDefinition, now time.Time) AttackResult {
	a := c.State.Animals[animalID]
	if a == nil || damage <= 0 {
		return AttackResult{Hit: false, TargetType: data.TargetAnimal}
	}
	attacker := c.State.Players[attackerID]

	a.Health = maxF(a.Health-damage, 0)
	a.Dirty = true
	if attacker != nil {
		c.emitSound(a.X, a.Y, 300, attackerID, hitSoundFor(def, attacker))
	}

	if a.Health > 0 {
		stats := c.Species.Get(a.Species)
		if attacker != nil && stats != nil && !stats.ImmuneToIntimidation {
			if a.State == world.StateFleeing || a.FireFearOverriddenBy == 0 {
				a.FireFearOverriddenBy = attackerID
			}
			switch {
			case stats.IsBird:
				// Birds retaliate on the wing until the flee
				// threshold takes over.
				if a.Health > stats.MaxHealth*stats.FleeHealthPct {
					a.TargetPlayerID = attackerID
					a.IsFlying = true
					a.SetState(world.StateFlyingChase, now)
				}
			case stats.Hostile || a.State == world.StateFleeing:
				a.TargetPlayerID = attackerID
				a.SetState(world.StateChasing, now)
			}
		}
		return AttackResult{Hit: true, TargetType: data.TargetAnimal}
	}

	// Kill cascade.
	c.createAnimalCorpse(a, now)
	c.emitSound(a.X, a.Y, 400, attackerID, "animal_death")
	event.Emit(c.Bus, event.AnimalKilled{
		AnimalID: animalID, Species: a.Species, KillerID: attackerID,
		WeaponID: weaponDefID(def), X: a.X, Y: a.Y,
	})

	if attacker != nil {
		c.recordAnimalKill(attacker, a.Species, def)
	}
	c.State.RemoveAnimal(animalID)
	return AttackResult{Hit: true, TargetType: data.TargetAnimal, Killed: true}
}

func weaponDefID(def *data.ItemDefinition) uint64 {
	if def == nil {
		return 0
	}
	return def.ID
}

func (c *Combat) createAnimalCorpse(a *world.WildAnimal, now time.Time) {
	health := 100.0
	if stats := c.Species.Get(a.Species); stats != nil {
		health = stats.CorpseHealth
	}
	co := &world.Corpse{
		ID:        c.State.NextID(),
		Kind:      world.CorpseAnimal,
		X:         a.X,
		Y:         a.Y,
		SpawnedAt: now,
		DeathTime: now,
		Health:    health,
		Species:   a.Species,
	}
	c.State.AddCorpse(co)
	c.State.Schedule.Insert(world.ScheduleCorpseDespawn, co.ID, now.Add(corpseDespawnAfter))
}

// recordAnimalKill advances kill-stat counters, quest progress and XP.
// Spear kills count under melee as well.
func (c *Combat) recordAnimalKill(p *world.Player, species string, def *data.ItemDefinition) {
	p.Stats.AnimalsKilled++
	switch weaponClass(def) {
	case "bow":
		p.Stats.BowKills++
	case "crossbow":
		p.Stats.CrossbowKills++
	case "spear":
		p.Stats.SpearKills++
		p.Stats.MeleeKills++
	case "gun":
		p.Stats.GunKills++
	case "harpoon":
		p.Stats.HarpoonGunKills++
	default:
		p.Stats.MeleeKills++
	}

	if p.QuestProgress == nil {
		p.QuestProgress = make(map[string]int)
	}
	p.QuestProgress["KillAnyAnimal"]++
	p.QuestProgress["KillSpecificAnimal:"+species]++

	c.awardXP(p, c.Lua.XPForKill(species))
	p.MarkDirty()
}

// awardXP adds XP and re-derives the level from the Lua curve.
func (c *Combat) awardXP(p *world.Player, xp int) {
	if c.Rates.XPRate > 0 {
		xp = int(float64(xp) * c.Rates.XPRate)
	}
	if xp <= 0 {
		return
	}
	p.XP += xp
	if lvl := c.Lua.LevelFromXP(p.XP); lvl > p.Level {
		p.Level = lvl
	}
	p.MarkDirty()
}

func weaponClass(def *data.ItemDefinition) string {
	if def == nil {
		return "melee"
	}
	name := strings.ToLower(def.Name)
	switch {
	case strings.Contains(name, "crossbow"):
		return "crossbow"
	case strings.Contains(name, "bow"):
		return "bow"
	case strings.Contains(name, "spear"):
		return "spear"
	case strings.Contains(name, "harpoon"):
		return "harpoon"
	case strings.Contains(name, "rifle"), strings.Contains(name, "pistol"), strings.Contains(name, "gun"):
		return "gun"
	default:
		return "melee"
	}
}
