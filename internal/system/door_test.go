package system

import (
	"testing"
	"time"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/world"
)

func addFoundation(s *world.State, cx, cy int) *world.Structure {
	st := &world.Structure{
		ID: s.NextID(), Kind: world.StructFoundation,
		Cell: world.CellKey{CX: cx, CY: cy},
		Health: 500, MaxHealth: 500,
	}
	s.AddStructure(st)
	return st
}

func giveDoorItem(p *world.Player, defID uint64) {
	p.Inventory[0] = world.ItemStack{InstanceID: 1, DefID: defID, Quantity: 1}
}

func TestPlaceDoorRequiresFoundation(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	p := addAlivePlayer(s, 120, 120)
	door := c.Items.GetByName("Wood Door")
	giveDoorItem(p, door.ID)

	if _, err := c.PlaceDoor(p, 2, 2, "north", door.ID, now); err != errNoFoundation {
		t.Fatalf("placed a door without a foundation: %v", err)
	}

	addFoundation(s, 2, 2)
	st, err := c.PlaceDoor(p, 2, 2, "north", door.ID, now)
	if err != nil {
		t.Fatalf("placement failed on a valid edge: %v", err)
	}
	if st.Kind != world.StructDoor || st.Owner != p.ID {
		t.Fatalf("bad door row: %+v", st)
	}
	if p.Inventory[0].Quantity != 0 {
		t.Fatal("door item not consumed")
	}
	// Same edge again: occupied, and the item is gone anyway.
	giveDoorItem(p, door.ID)
	if _, err := c.PlaceDoor(p, 2, 2, "north", door.ID, now); err != errEdgeOccupied {
		t.Fatalf("double placement on one edge: %v", err)
	}
}

func TestPlaceDoorDistanceGate(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	p := addAlivePlayer(s, 2000, 2000)
	door := c.Items.GetByName("Wood Door")
	giveDoorItem(p, door.ID)
	addFoundation(s, 2, 2)

	if _, err := c.PlaceDoor(p, 2, 2, "north", door.ID, now); err != errDoorTooFar {
		t.Fatalf("distant placement accepted: %v", err)
	}
}

func TestInteractDoorPrivilegeWaivedBeforeHearths(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	owner := addAlivePlayer(s, 120, 100)
	stranger := addAlivePlayer(s, 120, 100)
	addFoundation(s, 2, 2)
	door := c.Items.GetByName("Wood Door")
	giveDoorItem(owner, door.ID)
	st, err := c.PlaceDoor(owner, 2, 2, "north", door.ID, now)
	if err != nil {
		t.Fatalf("placement failed: %v", err)
	}

	// No hearth anywhere: anyone may toggle.
	if err := c.InteractDoor(stranger, st.ID, now); err != nil {
		t.Fatalf("early-game toggle rejected: %v", err)
	}
	if !st.IsOpen {
		t.Fatal("door did not open")
	}

	// A hearth anywhere in the world restores the privilege check.
	s.AddDeployable(&world.Deployable{
		ID: s.NextID(), Kind: data.TargetHearth,
		X: 5000, Y: 5000, Health: 100, MaxHealth: 100,
	})
	if err := c.InteractDoor(stranger, st.ID, now); err != errNoPrivilege {
		t.Fatalf("stranger toggled a door past the privilege gate: %v", err)
	}
	if err := c.InteractDoor(owner, st.ID, now); err != nil {
		t.Fatalf("owner toggle rejected: %v", err)
	}
	if st.IsOpen {
		t.Fatal("owner toggle did not close the door")
	}
}

func TestPickupDoorReturnsItem(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	p := addAlivePlayer(s, 120, 100)
	addFoundation(s, 2, 2)
	door := c.Items.GetByName("Wood Door")
	giveDoorItem(p, door.ID)
	st, err := c.PlaceDoor(p, 2, 2, "north", door.ID, now)
	if err != nil {
		t.Fatalf("placement failed: %v", err)
	}

	if err := c.PickupDoor(p, st.ID, now); err != nil {
		t.Fatalf("pickup failed: %v", err)
	}
	if s.Structures[st.ID] != nil {
		t.Fatal("door row survived pickup")
	}
	got := uint32(0)
	for _, slot := range p.Inventory {
		if slot.DefID == door.ID {
			got += slot.Quantity
		}
	}
	if got != 1 {
		t.Fatalf("door item not returned: have %d", got)
	}
}

func TestClosedDoorOccludesUntilOpened(t *testing.T) {
	s, c := newTestCombat(t)
	now := time.Now()
	attacker := addAlivePlayer(s, 120, 10)
	target := addAlivePlayer(s, 120, 90)
	enablePvP(attacker, now)
	enablePvP(target, now)

	door := &world.Structure{
		ID: s.NextID(), Kind: world.StructDoor,
		Cell: world.CellKey{CX: 2, CY: 1}, Edge: "north",
		Health: 300, MaxHealth: 300, DoorType: "wood",
	}
	s.AddStructure(door)

	knife := c.Items.GetByName("Combat Knife")
	res, err := c.ProcessAttack(attacker, Target{Type: data.TargetPlayer, ID: target.ID}, knife, now)
	if err != nil {
		t.Fatalf("attack errored: %v", err)
	}
	if res.TargetType != data.TargetDoor {
		t.Fatalf("closed door should absorb the swing, got %v", res.TargetType)
	}
	if target.Health != world.PlayerMaxHealth {
		t.Fatal("occluded target took damage")
	}

	door.IsOpen = true
	res, err = c.ProcessAttack(attacker, Target{Type: data.TargetPlayer, ID: target.ID}, knife, now)
	if err != nil {
		t.Fatalf("attack errored: %v", err)
	}
	if res.TargetType != data.TargetPlayer || !res.Hit {
		t.Fatalf("open door still blocks: %+v", res)
	}
	if target.Health == world.PlayerMaxHealth {
		t.Fatal("target unharmed through an open doorway")
	}
}

func TestDoorCollisionPushesOut(t *testing.T) {
	s, _ := newTestCombat(t)

	door := &world.Structure{
		ID: s.NextID(), Kind: world.StructDoor,
		Cell: world.CellKey{CX: 2, CY: 2}, Edge: "north",
		Health: 300, MaxHealth: 300,
	}
	s.AddStructure(door)

	// The north edge of cell (2,2) runs along y=96 for x in [96,144].
	x, y := CheckDoorCollision(s, 120, 96, 16)
	if y == 96 {
		t.Fatal("position inside the door band was not re-projected")
	}

	door.IsOpen = true
	x, y = CheckDoorCollision(s, 120, 96, 16)
	if x != 120 || y != 96 {
		t.Fatalf("open door still collides: (%v, %v)", x, y)
	}
}
