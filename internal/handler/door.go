package handler

import (
	"encoding/json"

	"github.com/shorebound/server/internal/net"
)

type placeDoorRequest struct {
	CellX int    `json:"cell_x"`
	CellY int    `json:"cell_y"`
	Edge  string `json:"edge"`
	DefID uint64 `json:"def_id"`
}

// HandlePlaceDoor builds a door from inventory onto a cell edge.
func HandlePlaceDoor(cmd net.Command, deps *Deps) {
	var req placeDoorRequest
	if err := json.Unmarshal(cmd.Data, &req); err != nil {
		return
	}
	p := deps.playerFor(cmd.Session)
	if p == nil || !p.Alive() || p.IsKnockedOut {
		return
	}

	door, err := deps.Combat.PlaceDoor(p, req.CellX, req.CellY, req.Edge, req.DefID, deps.now())
	if err != nil {
		sendError(cmd.Session, err.Error())
		return
	}
	cmd.Session.Send(net.Encode("door_placed", map[string]any{
		"door_id": door.ID,
		"cell_x":  door.Cell.CX,
		"cell_y":  door.Cell.CY,
		"edge":    door.Edge,
	}))
}

type doorRequest struct {
	DoorID uint64 `json:"door_id"`
}

// HandleInteractDoor toggles a door open or closed.
func HandleInteractDoor(cmd net.Command, deps *Deps) {
	var req doorRequest
	if err := json.Unmarshal(cmd.Data, &req); err != nil {
		return
	}
	p := deps.playerFor(cmd.Session)
	if p == nil || !p.Alive() || p.IsKnockedOut {
		return
	}

	if err := deps.Combat.InteractDoor(p, req.DoorID, deps.now()); err != nil {
		sendError(cmd.Session, err.Error())
		return
	}
	door := deps.State.Structures[req.DoorID]
	cmd.Session.Send(net.Encode("door_state", map[string]any{
		"door_id": req.DoorID,
		"open":    door != nil && door.IsOpen,
	}))
}

// HandlePickupDoor returns an owned door to inventory.
func HandlePickupDoor(cmd net.Command, deps *Deps) {
	var req doorRequest
	if err := json.Unmarshal(cmd.Data, &req); err != nil {
		return
	}
	p := deps.playerFor(cmd.Session)
	if p == nil || !p.Alive() || p.IsKnockedOut {
		return
	}

	if err := deps.Combat.PickupDoor(p, req.DoorID, deps.now()); err != nil {
		sendError(cmd.Session, err.Error())
		return
	}
	cmd.Session.Send(net.Encode("door_removed", map[string]uint64{"door_id": req.DoorID}))
}
