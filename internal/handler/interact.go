package handler

import (
	"encoding/json"

	"github.com/shorebound/server/internal/net"
	"github.com/shorebound/server/internal/system"
)

type togglePvPRequest struct {
	Enable bool `json:"enable"`
}

// HandleTogglePvP flips the opt-in flag. Disabling never ends an open
// combat window, so the ack reports the effective state.
func HandleTogglePvP(cmd net.Command, deps *Deps) {
	var req togglePvPRequest
	if err := json.Unmarshal(cmd.Data, &req); err != nil {
		return
	}
	p := deps.playerFor(cmd.Session)
	if p == nil || !p.Alive() {
		return
	}

	system.TogglePvP(p, req.Enable, deps.now())
	p.MarkDirty()
	cmd.Session.Send(net.Encode("pvp_state", map[string]bool{"enabled": p.PvPEnabled}))
}

type harvestRequest struct {
	PlantID uint64 `json:"plant_id"`
}

// HandleHarvestPlant picks a seasonal plant by hand.
func HandleHarvestPlant(cmd net.Command, deps *Deps) {
	var req harvestRequest
	if err := json.Unmarshal(cmd.Data, &req); err != nil {
		return
	}
	p := deps.playerFor(cmd.Session)
	if p == nil {
		return
	}

	if err := deps.Combat.HarvestPlant(p.ID, req.PlantID, deps.now()); err != nil {
		sendError(cmd.Session, err.Error())
		return
	}
	cmd.Session.Send(net.Encode("harvest_ok", map[string]uint64{"plant_id": req.PlantID}))
}

type spawnAnimalRequest struct {
	Species string  `json:"species"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// HandleSpawnAnimal is an operator command; non-admin sessions are
// rejected.
func HandleSpawnAnimal(cmd net.Command, deps *Deps) {
	if !deps.Config.Server.IsAdmin(cmd.Session.Username) {
		sendError(cmd.Session, "not authorized")
		return
	}
	var req spawnAnimalRequest
	if err := json.Unmarshal(cmd.Data, &req); err != nil {
		return
	}

	id, err := deps.AI.SpawnWildAnimal(req.Species, req.X, req.Y, deps.now())
	if err != nil {
		sendError(cmd.Session, err.Error())
		return
	}
	cmd.Session.Send(net.Encode("spawn_ok", map[string]uint64{"animal_id": id}))
}
