package system

import (
	"errors"
	"time"

	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// Door interaction tunables.
const (
	doorInteractionDistancePx  = 96.0
	buildingPlacementMaxDistPx = 144.0
	woodDoorHealth             = 300.0
	metalDoorHealth            = 800.0
)

var (
	errDoorTooFar       = errors.New("Door is too far away.")
	errNoFoundation     = errors.New("Cannot place door: no foundation at this location.")
	errNoDoorItem       = errors.New("You do not have a door to place.")
	errNoPrivilege      = errors.New("You lack building privilege here.")
	errEdgeOccupied     = errors.New("That edge already holds a structure.")
	errDoorDestroyed    = errors.New("That door is destroyed.")
	errPlayerIncapable  = errors.New("You cannot do that right now.")
)

// PlaceDoor consumes one door item and inserts a Door row on a foundation
// edge near the player.
func (c *Combat) PlaceDoor(p *world.Player, cellX, cellY int, edge string, doorDefID uint64, now time.Time) (*world.Structure, error) {
	if p.IsDead || p.IsKnockedOut {
		return nil, errPlayerIncapable
	}
	cell := world.CellKey{CX: cellX, CY: cellY}

	hasFoundation := false
	for _, st := range c.State.StructuresAtCell(cell) {
		if st.Kind == world.StructFoundation {
			hasFoundation = true
		}
		if st.Edge == edge && st.Kind != world.StructFoundation {
			return nil, errEdgeOccupied
		}
	}
	if !hasFoundation {
		return nil, errNoFoundation
	}

	ex, ey := edgeCenter(cell, edge)
	if geom.DistanceSq(p.X, p.Y, ex, ey) > buildingPlacementMaxDistPx*buildingPlacementMaxDistPx {
		return nil, errDoorTooFar
	}

	def := c.Items.Get(doorDefID)
	if def == nil || !consumeItem(p, doorDefID) {
		return nil, errNoDoorItem
	}

	health := woodDoorHealth
	doorType := "wood"
	if def.Name == "Metal Door" {
		health = metalDoorHealth
		doorType = "metal"
	}
	st := &world.Structure{
		ID:        c.State.NextID(),
		Kind:      world.StructDoor,
		Cell:      cell,
		Edge:      edge,
		Owner:     p.ID,
		Health:    health,
		MaxHealth: health,
		DoorType:  doorType,
	}
	c.State.AddStructure(st)
	c.emitSound(ex, ey, 200, p.ID, "door_place")
	return st, nil
}

// InteractDoor toggles a door open or closed. Building privilege is waived
// in the early game, before anyone has raised a homestead hearth.
func (c *Combat) InteractDoor(p *world.Player, doorID uint64, now time.Time) error {
	st := c.State.Structures[doorID]
	if st == nil || st.Kind != world.StructDoor {
		return errDoorDestroyed
	}
	if st.IsDestroyed {
		return errDoorDestroyed
	}
	minX, minY, maxX, maxY := structureAABB(st)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	if geom.DistanceSq(p.X, p.Y, cx, cy) > doorInteractionDistancePx*doorInteractionDistancePx {
		return errDoorTooFar
	}
	if c.State.AnyHearthExists() && st.Owner != p.ID {
		return errNoPrivilege
	}
	st.IsOpen = !st.IsOpen
	c.emitSound(cx, cy, 200, p.ID, "door_toggle")
	return nil
}

// PickupDoor returns the door item to the player and deletes the row.
// Same distance and privilege rules as InteractDoor.
func (c *Combat) PickupDoor(p *world.Player, doorID uint64, now time.Time) error {
	st := c.State.Structures[doorID]
	if st == nil || st.Kind != world.StructDoor || st.IsDestroyed {
		return errDoorDestroyed
	}
	minX, minY, maxX, maxY := structureAABB(st)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	if geom.DistanceSq(p.X, p.Y, cx, cy) > doorInteractionDistancePx*doorInteractionDistancePx {
		return errDoorTooFar
	}
	if c.State.AnyHearthExists() && st.Owner != p.ID {
		return errNoPrivilege
	}

	name := "Wood Door"
	if st.DoorType == "metal" {
		name = "Metal Door"
	}
	c.State.GiveOrDrop(p, c.resourceDefID(name), 1, now)
	c.State.RemoveStructure(doorID)
	c.emitSound(cx, cy, 200, p.ID, "door_pickup")
	return nil
}

// edgeCenter returns the world midpoint of a cell edge.
func edgeCenter(cell world.CellKey, edge string) (float64, float64) {
	left := float64(cell.CX) * geom.TileSizePx
	top := float64(cell.CY) * geom.TileSizePx
	switch edge {
	case "north":
		return left + geom.TileSizePx/2, top
	case "south":
		return left + geom.TileSizePx/2, top + geom.TileSizePx
	case "west":
		return left, top + geom.TileSizePx/2
	default:
		return left + geom.TileSizePx, top + geom.TileSizePx/2
	}
}

// consumeItem removes one unit of the definition from the inventory.
func consumeItem(p *world.Player, defID uint64) bool {
	for i := range p.Inventory {
		if p.Inventory[i].DefID == defID && p.Inventory[i].Quantity > 0 {
			p.Inventory[i].Quantity--
			if p.Inventory[i].Quantity == 0 {
				p.Inventory[i] = world.ItemStack{}
			}
			p.MarkDirty()
			return true
		}
	}
	return false
}
