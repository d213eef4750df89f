package system

import (
	"math"
	"sort"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// Range overrides applied during cone acquisition. Walls and fences are
// thin edge bands so the swing has to connect almost point-blank; grass
// gets a forgiving arc so clearing brush is not pixel hunting.
const (
	wallTargetRangePx    = 80.0
	fenceTargetRangePx   = 120.0
	animalHitboxRadiusPx = 40.0
	grassExtraRangePx    = 20.0
	grassArcWiden        = 1.8
)

// Target is one acquisition candidate: a (type, id) pair parallel to the
// damage dispatch switch, plus the squared distance used for sorting.
type Target struct {
	Type   data.TargetType
	ID     uint64
	DistSq float64
}

// targetCenterYOffset lifts the aim point from an entity's feet to its
// visual body center.
func targetCenterYOffset(t data.TargetType) float64 {
	switch t {
	case data.TargetTree:
		return 60
	case data.TargetStone:
		return 50
	case data.TargetCampfire:
		return 42
	default:
		return 0
	}
}

// TargetPosition resolves a candidate's aim point (visual center).
func (c *Combat) TargetPosition(t Target) (float64, float64, bool) {
	x, y, ok := c.targetFeet(t)
	return x, y - targetCenterYOffset(t.Type), ok
}

func (c *Combat) targetFeet(t Target) (float64, float64, bool) {
	s := c.State
	switch t.Type {
	case data.TargetTree:
		if n := s.Trees[t.ID]; n != nil {
			return n.X, n.Y, true
		}
	case data.TargetStone:
		if n := s.Stones[t.ID]; n != nil {
			return n.X, n.Y, true
		}
	case data.TargetLivingCoral:
		if n := s.Corals[t.ID]; n != nil {
			return n.X, n.Y, true
		}
	case data.TargetGrass:
		if n := s.Grass[t.ID]; n != nil {
			return n.X, n.Y, true
		}
	case data.TargetPlayer:
		if p := s.Players[t.ID]; p != nil {
			return p.X, p.Y, true
		}
	case data.TargetAnimal:
		if a := s.Animals[t.ID]; a != nil {
			return a.X, a.Y, true
		}
	case data.TargetPlayerCorpse, data.TargetAnimalCorpse:
		if co := s.Corpses[t.ID]; co != nil {
			return co.X, co.Y, true
		}
	case data.TargetWall, data.TargetDoor, data.TargetFence, data.TargetFoundation:
		if st := s.Structures[t.ID]; st != nil {
			minX, minY, maxX, maxY := structureAABB(st)
			return (minX + maxX) / 2, (minY + maxY) / 2, true
		}
	default: // deployables
		if d := s.Deployables[t.ID]; d != nil {
			return d.X, d.Y, true
		}
	}
	return 0, 0, false
}

// FindTargetsInCone gathers every attackable entity inside the player's
// forward cone, nearest first. Per-category rules from acquisition:
// destroyed/respawning/dead candidates are skipped, walls and fences clamp
// to short ranges, animals get a generous angular hitbox computed from
// their radius, coral is only reachable while the attacker is on water,
// and player/deployable candidates behind a non-owned shelter are dropped.
func (c *Combat) FindTargetsInCone(p *world.Player, rangePx, angleDeg float64) []Target {
	s := c.State
	fx, fy := geom.ForwardVector(p.Facing)
	halfAngle := angleDeg * math.Pi / 360
	rangeSq := rangePx * rangePx

	var out []Target

	inCone := func(x, y float64, maxSq float64, widen float64) (float64, bool) {
		dx, dy := x-p.X, y-p.Y
		dSq := dx*dx + dy*dy
		if dSq >= maxSq || dSq == 0 {
			return 0, false
		}
		nx, ny, _ := geom.Normalize(dx, dy)
		if !geom.AngleWithinCone(fx, fy, nx, ny, halfAngle*widen) {
			return 0, false
		}
		return dSq, true
	}

	consider := func(t data.TargetType, id uint64, x, y float64) {
		maxSq := rangeSq
		widen := 1.0
		switch t {
		case data.TargetWall, data.TargetDoor:
			r := math.Min(rangePx, wallTargetRangePx)
			maxSq = r * r
		case data.TargetFence:
			r := math.Min(rangePx, fenceTargetRangePx)
			maxSq = r * r
		case data.TargetGrass:
			r := rangePx + grassExtraRangePx
			maxSq = r * r
			widen = grassArcWiden
		}
		aimY := y - targetCenterYOffset(t)
		dSq, ok := inCone(x, aimY, maxSq, widen)
		if !ok {
			return
		}
		out = append(out, Target{Type: t, ID: id, DistSq: dSq})
	}

	s.Grid.EachInNeighborhood(world.KindTree, p.X, p.Y, func(id uint64) {
		if n := s.Trees[id]; n != nil && !n.Depleted() {
			consider(data.TargetTree, id, n.X, n.Y)
		}
	})
	s.Grid.EachInNeighborhood(world.KindStone, p.X, p.Y, func(id uint64) {
		if n := s.Stones[id]; n != nil && !n.Depleted() {
			consider(data.TargetStone, id, n.X, n.Y)
		}
	})
	if p.IsOnWater {
		s.Grid.EachInNeighborhood(world.KindCoral, p.X, p.Y, func(id uint64) {
			if n := s.Corals[id]; n != nil && !n.Depleted() {
				consider(data.TargetLivingCoral, id, n.X, n.Y)
			}
		})
	}
	s.Grid.EachInNeighborhood(world.KindGrass, p.X, p.Y, func(id uint64) {
		if n := s.Grass[id]; n != nil && !n.Depleted() {
			consider(data.TargetGrass, id, n.X, n.Y)
		}
	})

	s.Grid.EachInNeighborhood(world.KindPlayer, p.X, p.Y, func(id uint64) {
		t := s.Players[id]
		if t == nil || t.ID == p.ID || t.IsDead || !t.IsOnline {
			return
		}
		dSq, ok := inCone(t.X, t.Y, rangeSq, 1.0)
		if !ok {
			return
		}
		if c.shelterBlocks(p.ID, t.ID, p.X, p.Y, t.X, t.Y) {
			return
		}
		out = append(out, Target{Type: data.TargetPlayer, ID: id, DistSq: dSq})
	})

	s.Grid.EachInNeighborhood(world.KindAnimal, p.X, p.Y, func(id uint64) {
		a := s.Animals[id]
		if a == nil || a.State == world.StateHiding || a.State == world.StateBurrowed {
			return
		}
		dx, dy := a.X-p.X, a.Y-p.Y
		dSq := dx*dx + dy*dy
		if dSq >= rangeSq || dSq == 0 {
			return
		}
		// The angular hitbox widens at close range: a cone edge that
		// clips any part of the 40 px body counts as a hit.
		nx, ny, dist := geom.Normalize(dx, dy)
		slack := math.Atan(animalHitboxRadiusPx / dist)
		if !geom.AngleWithinCone(fx, fy, nx, ny, halfAngle+slack) {
			return
		}
		out = append(out, Target{Type: data.TargetAnimal, ID: id, DistSq: dSq})
	})

	s.Grid.EachInNeighborhood(world.KindCorpse, p.X, p.Y, func(id uint64) {
		co := s.Corpses[id]
		if co == nil {
			return
		}
		t := data.TargetAnimalCorpse
		if co.Kind == world.CorpsePlayer {
			t = data.TargetPlayerCorpse
		}
		consider(t, id, co.X, co.Y)
	})

	s.Grid.EachInNeighborhood(world.KindDeployable, p.X, p.Y, func(id uint64) {
		d := s.Deployables[id]
		if d == nil || d.IsDestroyed {
			return
		}
		dSq, ok := inCone(d.X, d.Y, rangeSq, 1.0)
		if !ok {
			return
		}
		if d.Kind != data.TargetShelter &&
			c.shelterBlocks(p.ID, d.Owner, p.X, p.Y, d.X, d.Y) {
			return
		}
		out = append(out, Target{Type: d.Kind, ID: id, DistSq: dSq})
	})

	s.EachStructureInWindow(p.X, p.Y, 3, func(st *world.Structure) {
		var t data.TargetType
		switch st.Kind {
		case world.StructWall:
			t = data.TargetWall
		case world.StructDoor:
			t = data.TargetDoor
		case world.StructFence:
			t = data.TargetFence
		default:
			return // foundations are not cone targets
		}
		minX, minY, maxX, maxY := structureAABB(st)
		consider(t, st.ID, (minX+maxX)/2, (minY+maxY)/2+targetCenterYOffset(t))
	})

	sort.Slice(out, func(i, j int) bool { return out[i].DistSq < out[j].DistSq })
	return out
}

// FindBestTarget picks the swing's effective target: the tool's specialty
// first, then a player if the weapon fights at all, then whatever is
// nearest. Misused tools still connect; the damage formula decides what,
// if anything, that does.
func FindBestTarget(candidates []Target, def *data.ItemDefinition) (Target, bool) {
	if len(candidates) == 0 {
		return Target{}, false
	}
	for _, t := range candidates {
		if t.Type == def.PrimaryTargetType {
			return t, true
		}
	}
	if def.HasPvPDamage() {
		for _, t := range candidates {
			if t.Type == data.TargetPlayer {
				return t, true
			}
		}
	}
	return candidates[0], true
}
