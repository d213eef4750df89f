package data

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed yaml/*.yaml
var embeddedYaml embed.FS

// TargetType classifies what a swing can connect with. Item definitions key
// their primary damage/yield ranges to one of these; the combat dispatcher
// keeps a parallel tagged union of concrete target ids.
type TargetType string

const (
	TargetTree         TargetType = "Tree"
	TargetStone        TargetType = "Stone"
	TargetLivingCoral  TargetType = "LivingCoral"
	TargetGrass        TargetType = "Grass"
	TargetPlayer       TargetType = "Player"
	TargetAnimal       TargetType = "Animal"
	TargetPlayerCorpse TargetType = "PlayerCorpse"
	TargetAnimalCorpse TargetType = "AnimalCorpse"
	TargetCampfire     TargetType = "Campfire"
	TargetLantern      TargetType = "Lantern"
	TargetBox          TargetType = "Box"
	TargetStash        TargetType = "Stash"
	TargetSleepingBag  TargetType = "SleepingBag"
	TargetRainBarrel   TargetType = "RainCollector"
	TargetFurnace      TargetType = "Furnace"
	TargetTurret       TargetType = "Turret"
	TargetHearth       TargetType = "HomesteadHearth"
	TargetBrothPot     TargetType = "BrothPot"
	TargetBarrel       TargetType = "Barrel"
	TargetShelter      TargetType = "Shelter"
	TargetWall         TargetType = "Wall"
	TargetDoor         TargetType = "Door"
	TargetFence        TargetType = "Fence"
	TargetFoundation   TargetType = "Foundation"
)

// DamageType drives typed armor resistance on players.
type DamageType string

const (
	DamageMelee     DamageType = "Melee"
	DamageSharp     DamageType = "Sharp"
	DamageBlunt     DamageType = "Blunt"
	DamagePierce    DamageType = "Pierce"
	DamageBallistic DamageType = "Ballistic"
	DamageFire      DamageType = "Fire"
)

// ItemDefinition holds the combat-relevant static data of one item.
// Inventory bookkeeping (stack sizes, icons, crafting) lives elsewhere; the
// combat core only reads these fields.
type ItemDefinition struct {
	ID       uint64 `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"` // Tool, Weapon, RangedWeapon, Material, Placeable

	DamageType        DamageType `yaml:"damage_type"`
	PrimaryTargetType TargetType `yaml:"primary_target_type"`
	PrimaryDamageMin  float64    `yaml:"primary_damage_min"`
	PrimaryDamageMax  float64    `yaml:"primary_damage_max"`
	PrimaryYieldMin   uint32     `yaml:"primary_yield_min"`
	PrimaryYieldMax   uint32     `yaml:"primary_yield_max"`
	PrimaryYieldName  string     `yaml:"primary_yield_resource"`

	PvPDamageMin float64 `yaml:"pvp_damage_min"`
	PvPDamageMax float64 `yaml:"pvp_damage_max"`

	AttackRangePx  float64 `yaml:"attack_range_px"`
	AttackAngleDeg float64 `yaml:"attack_angle_deg"`

	// Bleed trio: all three non-zero means the weapon can open a bleed.
	BleedDamagePerTick float64 `yaml:"bleed_damage_per_tick"`
	BleedIntervalSecs  float64 `yaml:"bleed_interval_secs"`
	BleedDurationSecs  float64 `yaml:"bleed_duration_secs"`

	StunChance float64 `yaml:"stun_chance"` // blunt weapons

	BarkChance float64 `yaml:"bark_chance"` // secondary drop roll vs trees

	IsWaterContainer bool `yaml:"is_water_container"`
	IsRepairHammer   bool `yaml:"is_repair_hammer"`
	IsTorch          bool `yaml:"is_torch"`
	IsDivingPick     bool `yaml:"is_diving_pick"`
}

// HasBleed reports whether the full bleed trio is configured.
func (d *ItemDefinition) HasBleed() bool {
	return d.BleedDamagePerTick > 0 && d.BleedIntervalSecs > 0 && d.BleedDurationSecs > 0
}

// HasPvPDamage reports whether the item carries any PvP damage range.
func (d *ItemDefinition) HasPvPDamage() bool {
	return d.PvPDamageMax > 0
}

type itemListFile struct {
	Items []ItemDefinition `yaml:"items"`
}

// ItemTable holds all item definitions indexed by id and name.
type ItemTable struct {
	byID   map[uint64]*ItemDefinition
	byName map[string]*ItemDefinition
}

// LoadItemTable parses the embedded item list. Definitions missing an attack
// reach fall back to the standard melee cone (96 px, 90 degrees).
func LoadItemTable() (*ItemTable, error) {
	raw, err := embeddedYaml.ReadFile("yaml/item_list.yaml")
	if err != nil {
		return nil, fmt.Errorf("read item_list: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item_list: %w", err)
	}
	t := &ItemTable{
		byID:   make(map[uint64]*ItemDefinition, len(f.Items)),
		byName: make(map[string]*ItemDefinition, len(f.Items)),
	}
	for i := range f.Items {
		it := &f.Items[i]
		if it.AttackRangePx == 0 {
			it.AttackRangePx = 96
		}
		if it.AttackAngleDeg == 0 {
			it.AttackAngleDeg = 90
		}
		if it.DamageType == "" {
			it.DamageType = DamageMelee
		}
		t.byID[it.ID] = it
		t.byName[it.Name] = it
	}
	return t, nil
}

func (t *ItemTable) Get(id uint64) *ItemDefinition        { return t.byID[id] }
func (t *ItemTable) GetByName(name string) *ItemDefinition { return t.byName[name] }
func (t *ItemTable) Count() int                            { return len(t.byID) }
