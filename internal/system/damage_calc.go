package system

import (
	"math/rand"

	"github.com/shorebound/server/internal/data"
)

// Harvest budgets for corpse hits and the generic-tool fallback.
const (
	playerCorpseHarvestDamage = 25.0
	animalCorpseHarvestDamage = 20.0
	fallbackDamageFraction    = 0.5
	defaultDamage             = 1.0
)

// CalculateDamageAndYield is the pure damage/yield formula. It never reads
// world state: target type in, (damage, yield, resource) out.
//
// Specialty hits use the item's primary ranges. Weapons connect with
// players, animals and destructible deployables through their PvP range.
// Corpses take flat harvest damage. Generic tools against trees and stones
// fall back to half their primary damage with a token wood/stone yield, so
// a pickaxe swung at a tree still makes slow progress. Everything else is
// 1 damage.
func CalculateDamageAndYield(def *data.ItemDefinition, target data.TargetType, rng *rand.Rand) (float64, uint32, string) {
	if def == nil || def.IsWaterContainer || def.Category == "Material" {
		return 0, 0, ""
	}

	if target == def.PrimaryTargetType {
		dmg := uniformF(rng, def.PrimaryDamageMin, def.PrimaryDamageMax)
		qty := uniformU(rng, def.PrimaryYieldMin, def.PrimaryYieldMax)
		return dmg, qty, def.PrimaryYieldName
	}

	switch target {
	case data.TargetPlayer, data.TargetAnimal:
		if def.HasPvPDamage() {
			return uniformF(rng, def.PvPDamageMin, def.PvPDamageMax), 0, ""
		}
	case data.TargetPlayerCorpse:
		return playerCorpseHarvestDamage, 0, ""
	case data.TargetAnimalCorpse:
		return animalCorpseHarvestDamage, 0, ""
	case data.TargetTree:
		if def.PrimaryDamageMax > 0 {
			return fallbackDamageFraction * uniformF(rng, def.PrimaryDamageMin, def.PrimaryDamageMax),
				uniformU(rng, 5, 10), "Wood"
		}
	case data.TargetStone:
		if def.PrimaryDamageMax > 0 {
			return fallbackDamageFraction * uniformF(rng, def.PrimaryDamageMin, def.PrimaryDamageMax),
				uniformU(rng, 5, 10), "Stone"
		}
	default:
		// Deployables and structures take the weapon's PvP damage.
		if def.HasPvPDamage() {
			return uniformF(rng, def.PvPDamageMin, def.PvPDamageMax), 0, ""
		}
	}

	return defaultDamage, 0, ""
}

func uniformF(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

func uniformU(rng *rand.Rand, lo, hi uint32) uint32 {
	if hi <= lo {
		return lo
	}
	return lo + uint32(rng.Intn(int(hi-lo+1)))
}
