package system

import (
	"math"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
	"github.com/shorebound/server/internal/world"
)

// Stealth multipliers. They stack multiplicatively on perception range.
const (
	crouchPerceptionMult  = 0.5
	foxFurBootsMult       = 0.7
	wolfFurSetPieces      = 5
)

// CanDetect reports whether the animal can see the player right now.
// Snorkelers are invisible, a full wolf-fur set intimidates everything but
// the walrus, and crouch/fox-fur shrink the effective perception range.
// Detection outside the perception cone fails unless the species is omni.
func (ai *AI) CanDetect(a *world.WildAnimal, stats *data.SpeciesStats, p *world.Player) bool {
	if p.IsSnorkeling {
		return false
	}
	if !stats.ImmuneToIntimidation && ai.wearsFullWolfFur(p) {
		return false
	}

	rangePx := stats.PerceptionRangePx * ai.perceptionMult(p)
	dSq := geom.DistanceSq(a.X, a.Y, p.X, p.Y)
	if dSq > rangePx*rangePx {
		return false
	}
	if stats.PerceptionAngleDeg >= 360 {
		return true
	}

	fx, fy := geom.ForwardVector(a.Facing)
	if a.DirX != 0 || a.DirY != 0 {
		fx, fy, _ = geom.Normalize(a.DirX, a.DirY)
	}
	nx, ny, dist := geom.Normalize(p.X-a.X, p.Y-a.Y)
	if dist == 0 {
		return true
	}
	halfAngle := stats.PerceptionAngleDeg * math.Pi / 360
	return geom.AngleWithinCone(fx, fy, nx, ny, halfAngle)
}

// perceptionMult folds the player's stealth modifiers.
func (ai *AI) perceptionMult(p *world.Player) float64 {
	mult := 1.0
	if p.IsCrouching {
		mult *= crouchPerceptionMult
	}
	for _, name := range p.Armor {
		piece := ai.Armor.Get(name)
		if piece == nil {
			continue
		}
		if piece.DetectionBonus > 0 {
			mult *= 1 - piece.DetectionBonus
		}
		if piece.IsFoxFur && piece.Slot == "feet" {
			mult *= foxFurBootsMult
		}
	}
	return mult
}

func (ai *AI) wearsFullWolfFur(p *world.Player) bool {
	n := 0
	for _, name := range p.Armor {
		if piece := ai.Armor.Get(name); piece != nil && piece.IsWolfFur {
			n++
		}
	}
	return n >= wolfFurSetPieces
}

// nearbyDetectablePlayers filters the prefetched player list down to those
// within the search radius of the animal.
func nearbyPlayers(players []*world.Player, x, y, radius float64) []*world.Player {
	var out []*world.Player
	rSq := radius * radius
	for _, p := range players {
		if geom.DistanceSq(x, y, p.X, p.Y) <= rSq {
			out = append(out, p)
		}
	}
	return out
}
