package data

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// SpeciesStats holds the static tunables of one wild-animal species. The
// per-species behavior (state machine, flee logic, attack effects) is a
// tagged union in the AI system; only numbers live here.
type SpeciesStats struct {
	Species string `yaml:"species"`

	MaxHealth float64 `yaml:"max_health"`

	AttackDamage     float64 `yaml:"attack_damage"`
	AttackRangePx    float64 `yaml:"attack_range_px"`
	AttackCooldownMs int     `yaml:"attack_cooldown_ms"`

	MoveSpeed   float64 `yaml:"move_speed"`   // px/s while patrolling
	SprintSpeed float64 `yaml:"sprint_speed"` // px/s while chasing or fleeing

	PerceptionRangePx  float64 `yaml:"perception_range_px"`
	PerceptionAngleDeg float64 `yaml:"perception_angle_deg"` // 360 = omni

	PatrolRadiusPx  float64 `yaml:"patrol_radius_px"`
	MovementPattern string  `yaml:"movement_pattern"` // loop, wander, figure8, flying

	FleeHealthPct  float64 `yaml:"flee_health_pct"`  // flee below this health ratio
	FleeDistancePx float64 `yaml:"flee_distance_px"` // foundation/fire flee destination scale

	Hostile bool `yaml:"hostile"` // chases on detection

	// Fear exemptions. Walrus ignores wolf-fur intimidation; wolverines,
	// hostile stalkers and bees ignore fire.
	ImmuneToFireFear     bool `yaml:"immune_to_fire_fear"`
	ImmuneToIntimidation bool `yaml:"immune_to_intimidation"`

	Tameable    bool     `yaml:"tameable"`
	TamingFoods []string `yaml:"taming_foods"`

	IsBird    bool `yaml:"is_bird"`
	CanPack   bool `yaml:"can_pack"`
	IsHostileNpc bool `yaml:"is_hostile_npc"` // spawned by the night cycle, not by seeding

	CorpseHealth float64 `yaml:"corpse_health"` // harvest budget of the corpse
}

type speciesListFile struct {
	Species []SpeciesStats `yaml:"species"`
}

// SpeciesTable holds all species stats indexed by name.
type SpeciesTable struct {
	stats map[string]*SpeciesStats
	order []string
}

// LoadSpeciesTable parses the embedded species list.
func LoadSpeciesTable() (*SpeciesTable, error) {
	raw, err := embeddedYaml.ReadFile("yaml/species_list.yaml")
	if err != nil {
		return nil, fmt.Errorf("read species_list: %w", err)
	}
	var f speciesListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse species_list: %w", err)
	}
	t := &SpeciesTable{stats: make(map[string]*SpeciesStats, len(f.Species))}
	for i := range f.Species {
		s := &f.Species[i]
		if s.PerceptionAngleDeg == 0 {
			s.PerceptionAngleDeg = 120
		}
		if s.CorpseHealth == 0 {
			s.CorpseHealth = 100
		}
		t.stats[s.Species] = s
		t.order = append(t.order, s.Species)
	}
	return t, nil
}

func (t *SpeciesTable) Get(species string) *SpeciesStats { return t.stats[species] }
func (t *SpeciesTable) Count() int                       { return len(t.stats) }

// Names returns all species names in file order (stable for seeding).
func (t *SpeciesTable) Names() []string { return t.order }
