package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/shorebound/server/internal/core/event"
	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/world"
)

// Resource node tunables. Final-blow bonuses are a percentage of the node's
// initial health, rolled once when the node breaks.
const (
	treeRespawnMinSecs  = 600
	treeRespawnMaxSecs  = 1200
	stoneRespawnMinSecs = 240
	stoneRespawnMaxSecs = 480
	coralRespawnMinSecs = 900
	coralRespawnMaxSecs = 1800
	grassRespawnMinSecs = 180
	grassRespawnMaxSecs = 360

	treeFinalBonusMinPct  = 0.20
	treeFinalBonusMaxPct  = 0.40
	stoneFinalBonusMinPct = 0.02
	stoneFinalBonusMaxPct = 0.04

	plantedTreeYieldMult = 0.6
	harvestBoostMult     = 1.5
	miningPerkMult       = 1.3

	memoryOreInsanityPerHit = 2.0
	maxInsanity             = 100.0
)

// applyYieldModifiers multiplies the base yield in the fixed order
// (planted penalty, harvest boost, mining perk) and caps the result by the
// node's remaining pool. The cap is the combat law that the sum of grants
// never exceeds resource_remaining.
func (c *Combat) applyYieldModifiers(p *world.Player, base uint32, playerPlanted, miningNode bool, remaining uint32) uint32 {
	q := float64(base)
	if playerPlanted {
		q *= plantedTreeYieldMult
	}
	if c.State.Effects.Has(world.EffectOnPlayer, p.ID, world.EffectHarvestBoost) {
		q *= harvestBoostMult
	}
	if miningNode && c.State.Effects.Has(world.EffectOnPlayer, p.ID, world.EffectMiningEfficiency) {
		q *= miningPerkMult
	}
	qty := uint32(q)
	if qty > remaining {
		qty = remaining
	}
	return qty
}

func (c *Combat) damageTree(p *world.Player, id uint64, damage float64, yieldQty uint32, resource string, def *data.ItemDefinition, now time.Time) AttackResult {
	n := c.State.Trees[id]
	if n == nil || n.Depleted() || damage <= 0 {
		return AttackResult{Hit: false, TargetType: data.TargetTree}
	}
	n.Health = maxF(n.Health-damage, 0)
	n.LastHitTime = now
	c.emitSound(n.X, n.Y, 250, p.ID, "chop")

	res := AttackResult{Hit: true, TargetType: data.TargetTree}
	qty := c.applyYieldModifiers(p, yieldQty, n.PlayerPlanted, false, n.ResourceRemaining)
	if qty > 0 {
		n.ResourceRemaining -= qty
		c.State.GiveOrDrop(p, c.resourceDefID(resource), qty, now)
		res.ResourceName, res.ResourceQty = resource, qty
	}

	// Secondary bark roll keyed to the tool.
	if def != nil && def.BarkChance > 0 && c.Rng.Float64() < def.BarkChance {
		bark := uniformU(c.Rng, 1, 3)
		c.State.GiveOrDrop(p, c.resourceDefID(barkFor(n.Kind)), bark, now)
	}

	if n.Health <= 0 || n.ResourceRemaining == 0 {
		res.Killed = true
		bonusPct := uniformF(c.Rng, treeFinalBonusMinPct, treeFinalBonusMaxPct)
		bonus := uint32(bonusPct * world.TreeInitialHealth)
		if bonus > 0 {
			c.State.GiveOrDrop(p, c.resourceDefID("Wood"), bonus, now)
		}
		c.emitSound(n.X, n.Y, 400, p.ID, "treefall")
		event.Emit(c.Bus, event.NodeDepleted{NodeID: id, Kind: "tree", X: n.X, Y: n.Y})
		if n.PlayerPlanted {
			c.State.RemoveTree(id)
			return res
		}
		n.Health = 0
		n.RespawnAt = now.Add(c.scaleRespawn(time.Duration(uniformU(c.Rng, treeRespawnMinSecs, treeRespawnMaxSecs)) * time.Second))
		c.State.Schedule.Insert(world.ScheduleRespawnCheck, id, n.RespawnAt)
	}
	return res
}

func (c *Combat) damageStone(p *world.Player, id uint64, damage float64, yieldQty uint32, resource string, def *data.ItemDefinition, now time.Time) AttackResult {
	n := c.State.Stones[id]
	if n == nil || n.Depleted() || damage <= 0 {
		return AttackResult{Hit: false, TargetType: data.TargetStone}
	}
	n.Health = maxF(n.Health-damage, 0)
	n.LastHitTime = now
	c.emitSound(n.X, n.Y, 250, p.ID, "mine")

	res := AttackResult{Hit: true, TargetType: data.TargetStone}
	if n.OreType != "" && resource != "" {
		resource = oreResourceName(n.OreType)
	}
	qty := c.applyYieldModifiers(p, yieldQty, false, true, n.ResourceRemaining)
	if qty > 0 {
		n.ResourceRemaining -= qty
		c.State.GiveOrDrop(p, c.resourceDefID(resource), qty, now)
		res.ResourceName, res.ResourceQty = resource, qty
	}

	// Memory ore erodes the miner's mind.
	if n.OreType == "Memory" {
		p.Insanity = minF(p.Insanity+memoryOreInsanityPerHit, maxInsanity)
		if p.Insanity >= maxInsanity && !c.State.Effects.Has(world.EffectOnPlayer, p.ID, world.EffectEntrainment) {
			c.State.Effects.Apply(world.ActiveEffect{
				TargetKind: world.EffectOnPlayer, TargetID: p.ID,
				Kind: world.EffectEntrainment, ExpiresAt: now.Add(2 * time.Minute),
			})
		}
		p.MarkDirty()
	}

	if n.Health <= 0 || n.ResourceRemaining == 0 {
		res.Killed = true
		bonusPct := uniformF(c.Rng, stoneFinalBonusMinPct, stoneFinalBonusMaxPct)
		bonus := uint32(bonusPct * world.StoneInitialHealth)
		if bonus > 0 {
			c.State.GiveOrDrop(p, c.resourceDefID(resource), bonus, now)
		}
		c.emitSound(n.X, n.Y, 400, p.ID, "rockbreak")
		event.Emit(c.Bus, event.NodeDepleted{NodeID: id, Kind: "stone", X: n.X, Y: n.Y})
		n.Health = 0
		n.RespawnAt = now.Add(c.scaleRespawn(time.Duration(uniformU(c.Rng, stoneRespawnMinSecs, stoneRespawnMaxSecs)) * time.Second))
		c.State.Schedule.Insert(world.ScheduleRespawnCheck, id, n.RespawnAt)
	}
	return res
}

func (c *Combat) damageCoral(p *world.Player, id uint64, damage float64, yieldQty uint32, resource string, def *data.ItemDefinition, now time.Time) AttackResult {
	n := c.State.Corals[id]
	if n == nil || n.Depleted() {
		return AttackResult{Hit: false, TargetType: data.TargetLivingCoral}
	}
	// Coral harvest needs both the snorkel and the right tool to begin.
	if !p.IsSnorkeling || def == nil || !def.IsDivingPick {
		return AttackResult{Hit: false, TargetType: data.TargetLivingCoral}
	}
	n.Health = maxF(n.Health-damage, 0)
	n.LastHitTime = now

	res := AttackResult{Hit: true, TargetType: data.TargetLivingCoral}
	qty := c.applyYieldModifiers(p, yieldQty, false, false, n.ResourceRemaining)
	if qty > 0 {
		n.ResourceRemaining -= qty
		c.State.GiveOrDrop(p, c.resourceDefID(resource), qty, now)
		res.ResourceName, res.ResourceQty = resource, qty
	}
	// Low-probability pearl alongside the limestone.
	if c.Rng.Float64() < 0.03 {
		c.State.GiveOrDrop(p, c.resourceDefID("Pearl"), 1, now)
	}

	if n.Health <= 0 || n.ResourceRemaining == 0 {
		res.Killed = true
		event.Emit(c.Bus, event.NodeDepleted{NodeID: id, Kind: "coral", X: n.X, Y: n.Y})
		n.Health = 0
		n.RespawnAt = now.Add(c.scaleRespawn(time.Duration(uniformU(c.Rng, coralRespawnMinSecs, coralRespawnMaxSecs)) * time.Second))
		c.State.Schedule.Insert(world.ScheduleRespawnCheck, id, n.RespawnAt)
	}
	return res
}

func (c *Combat) damageGrass(p *world.Player, id uint64, damage float64, yieldQty uint32, resource string, now time.Time) AttackResult {
	n := c.State.Grass[id]
	if n == nil || n.Depleted() || damage <= 0 {
		return AttackResult{Hit: false, TargetType: data.TargetGrass}
	}
	n.Health = maxF(n.Health-damage, 0)
	n.LastHitTime = now
	c.emitSound(n.X, n.Y, 150, p.ID, "rustle")

	res := AttackResult{Hit: true, TargetType: data.TargetGrass}
	if resource == "" {
		resource = "Plant Fiber"
	}
	if yieldQty == 0 {
		yieldQty = uniformU(c.Rng, 1, 3)
	}
	c.State.GiveOrDrop(p, c.resourceDefID(resource), yieldQty, now)
	res.ResourceName, res.ResourceQty = resource, yieldQty

	if n.Health <= 0 {
		res.Killed = true
		event.Emit(c.Bus, event.NodeDepleted{NodeID: id, Kind: "grass", X: n.X, Y: n.Y})
		n.RespawnAt = now.Add(c.scaleRespawn(time.Duration(uniformU(c.Rng, grassRespawnMinSecs, grassRespawnMaxSecs)) * time.Second))
		c.State.Schedule.Insert(world.ScheduleRespawnCheck, id, n.RespawnAt)
	}
	return res
}

// resourceDefID maps a resource name to its item definition id. Unknown
// names grant nothing; seeing this log means the item list is missing a
// material entry.
func (c *Combat) resourceDefID(name string) uint64 {
	if def := c.Items.GetByName(name); def != nil {
		return def.ID
	}
	c.Log.Warn("unknown resource name", zap.String("resource", name))
	return 0
}

func barkFor(treeKind string) string {
	if treeKind == "Birch" {
		return "Birch Bark"
	}
	return "Pine Bark"
}

func oreResourceName(oreType string) string {
	switch oreType {
	case "Iron":
		return "Metal Ore"
	case "Sulfur":
		return "Sulfur"
	case "Memory":
		return "Memory"
	default:
		return "Stone"
	}
}
