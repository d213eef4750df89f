package system

import (
	"errors"
	"time"

	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

const plantHarvestDistancePx = 96.0

var (
	errPlantMissing  = errors.New("That plant is gone.")
	errPlantTooFar   = errors.New("Too far away to harvest.")
	errPlantDepleted = errors.New("Nothing left to pick here.")
)

// HarvestPlant picks a seasonal harvestable: yields its resource and puts
// the node to sleep for a season-scaled respawn window.
func (c *Combat) HarvestPlant(playerID, plantID uint64, now time.Time) error {
	p := c.State.Players[playerID]
	if p == nil || p.IsDead || p.IsKnockedOut {
		return errors.New("You cannot do that right now.")
	}
	node := c.State.Plants[plantID]
	if node == nil {
		return errPlantMissing
	}
	if node.Depleted() {
		return errPlantDepleted
	}
	if geom.DistanceSq(p.X, p.Y, node.X, node.Y) > plantHarvestDistancePx*plantHarvestDistancePx {
		return errPlantTooFar
	}
	def := c.Plants.Get(node.Name)
	if def == nil {
		return errPlantMissing
	}

	qty := def.YieldMin
	if def.YieldMax > def.YieldMin {
		qty += uint32(c.Rng.Intn(int(def.YieldMax - def.YieldMin + 1)))
	}
	c.State.GiveOrDrop(p, c.resourceDefID(def.YieldResource), qty, now)

	node.Health = 0
	node.RespawnAt = now.Add(c.scaleRespawn(plantRespawnDelay(def, c.State.SeasonProgress, c.Rng)))
	c.State.Schedule.Insert(world.ScheduleRespawnCheck, node.ID, node.RespawnAt)
	return nil
}
