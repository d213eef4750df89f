package world

import (
	"time"

	"github.com/shorebound/server/internal/geom"
)

// ConsolidationRadiusPx is the merge window for ground stacks: dropped
// items of the same definition within this radius collapse into one stack.
const ConsolidationRadiusPx = 60.0

// TryGiveItem puts a stack into a player's inventory, first merging onto
// an existing stack of the same definition, then taking the first empty
// slot. Returns false with the inventory untouched when it is full.
func (s *State) TryGiveItem(p *Player, defID uint64, quantity uint32) bool {
	if quantity == 0 {
		return true
	}
	for i := range p.Inventory {
		if p.Inventory[i].Quantity > 0 && p.Inventory[i].DefID == defID {
			p.Inventory[i].Quantity += quantity
			p.MarkDirty()
			return true
		}
	}
	for i := range p.Inventory {
		if p.Inventory[i].Quantity == 0 {
			p.Inventory[i] = ItemStack{
				InstanceID: s.NextID(),
				DefID:      defID,
				Quantity:   quantity,
			}
			p.MarkDirty()
			return true
		}
	}
	return false
}

// GiveOrDrop gives the stack to the player, and on a full inventory drops
// it on the ground at the player's feet instead. The loot is never lost.
func (s *State) GiveOrDrop(p *Player, defID uint64, quantity uint32, now time.Time) {
	if defID == 0 || s.TryGiveItem(p, defID, quantity) {
		return
	}
	s.CreateDroppedItemNoConsolidation(defID, quantity, p.X, p.Y, now)
}

// CreateDroppedItemNoConsolidation places a raw stack on the ground without
// merging. Scatter paths call this in a loop and then run one consolidation
// pass over the drop site, which keeps the merge O(drops) instead of
// O(drops squared).
func (s *State) CreateDroppedItemNoConsolidation(defID uint64, quantity uint32, x, y float64, now time.Time) *DroppedItem {
	d := &DroppedItem{
		ID:        s.NextID(),
		DefID:     defID,
		Quantity:  quantity,
		X:         x,
		Y:         y,
		CreatedAt: now,
	}
	s.AddDropped(d)
	return d
}

// TriggerConsolidationAt merges same-definition ground stacks within the
// consolidation radius of (x, y) into the oldest stack at each position.
func (s *State) TriggerConsolidationAt(x, y float64) {
	const r2 = ConsolidationRadiusPx * ConsolidationRadiusPx

	// Survivor per definition is the lowest id, which is the oldest drop.
	survivors := make(map[uint64]*DroppedItem)
	var absorbed []uint64

	s.Grid.EachInNeighborhood(KindDropped, x, y, func(id uint64) {
		d := s.Dropped[id]
		if d == nil || geom.DistanceSq(x, y, d.X, d.Y) > r2 {
			return
		}
		keep, ok := survivors[d.DefID]
		if !ok {
			survivors[d.DefID] = d
			return
		}
		if d.ID < keep.ID {
			keep, d = d, keep
			survivors[keep.DefID] = keep
		}
		keep.Quantity += d.Quantity
		absorbed = append(absorbed, d.ID)
	})

	for _, id := range absorbed {
		s.RemoveDropped(id)
	}
}
