package data

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ArmorPiece describes one wearable slot item: typed resistances plus the
// set flags the combat and perception code reads (wolf fur, fox fur, wooden
// reflection).
type ArmorPiece struct {
	Name string `yaml:"name"`
	Slot string `yaml:"slot"` // head, chest, legs, feet, hands

	// Resistance per damage type, each in [0,1). Multiple worn pieces
	// combine multiplicatively on the remaining fraction.
	Resistances map[DamageType]float64 `yaml:"resistances"`

	BleedImmune     bool    `yaml:"bleed_immune"`
	KnockbackImmune bool    `yaml:"knockback_immune"`
	MeleeReflectPct float64 `yaml:"melee_reflect_pct"` // wooden armor

	IsWolfFur     bool    `yaml:"is_wolf_fur"`
	IsFoxFur      bool    `yaml:"is_fox_fur"`
	DetectionBonus float64 `yaml:"detection_bonus"` // fox fur: shrinks animal perception
}

type armorListFile struct {
	Armor []ArmorPiece `yaml:"armor"`
}

// ArmorTable holds armor pieces indexed by item name.
type ArmorTable struct {
	pieces map[string]*ArmorPiece
}

// LoadArmorTable parses the embedded armor list.
func LoadArmorTable() (*ArmorTable, error) {
	raw, err := embeddedYaml.ReadFile("yaml/armor_list.yaml")
	if err != nil {
		return nil, fmt.Errorf("read armor_list: %w", err)
	}
	var f armorListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse armor_list: %w", err)
	}
	t := &ArmorTable{pieces: make(map[string]*ArmorPiece, len(f.Armor))}
	for i := range f.Armor {
		t.pieces[f.Armor[i].Name] = &f.Armor[i]
	}
	return t, nil
}

func (t *ArmorTable) Get(name string) *ArmorPiece { return t.pieces[name] }
func (t *ArmorTable) Count() int                  { return len(t.pieces) }
