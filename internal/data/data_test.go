package data

import "testing"

func TestLoadItemTable(t *testing.T) {
	items, err := LoadItemTable()
	if err != nil {
		t.Fatalf("LoadItemTable: %v", err)
	}
	if items.Count() == 0 {
		t.Fatal("empty item table")
	}

	hatchet := items.GetByName("Metal Hatchet")
	if hatchet == nil {
		t.Fatal("Metal Hatchet missing")
	}
	if hatchet.PrimaryTargetType != TargetTree {
		t.Errorf("Metal Hatchet primary = %q, want Tree", hatchet.PrimaryTargetType)
	}
	if hatchet.PrimaryDamageMin != 15 || hatchet.PrimaryDamageMax != 25 {
		t.Errorf("Metal Hatchet damage range = [%v,%v]", hatchet.PrimaryDamageMin, hatchet.PrimaryDamageMax)
	}
	// Defaults applied when the sheet omits a reach.
	if hatchet.AttackRangePx != 96 || hatchet.AttackAngleDeg != 90 {
		t.Errorf("default reach not applied: %v px %v deg", hatchet.AttackRangePx, hatchet.AttackAngleDeg)
	}
	if items.Get(hatchet.ID) != hatchet {
		t.Error("id index and name index disagree")
	}

	jug := items.GetByName("Water Jug")
	if jug == nil || !jug.IsWaterContainer {
		t.Error("Water Jug must be flagged as a water container")
	}

	knife := items.GetByName("Combat Knife")
	if knife == nil || !knife.HasBleed() {
		t.Error("Combat Knife must carry a full bleed trio")
	}
	if spear := items.GetByName("Wooden Spear"); spear.HasBleed() {
		t.Error("Wooden Spear has no bleed configured")
	}
}

func TestLoadSpeciesTable(t *testing.T) {
	species, err := LoadSpeciesTable()
	if err != nil {
		t.Fatalf("LoadSpeciesTable: %v", err)
	}
	wolf := species.Get("TundraWolf")
	if wolf == nil {
		t.Fatal("TundraWolf missing")
	}
	if !wolf.CanPack || !wolf.Hostile {
		t.Error("TundraWolf must be hostile and packable")
	}
	viper := species.Get("CableViper")
	if viper == nil || viper.PerceptionAngleDeg != 360 {
		t.Error("CableViper perception must be omni")
	}
	walrus := species.Get("ArcticWalrus")
	if walrus == nil || !walrus.ImmuneToIntimidation {
		t.Error("ArcticWalrus must ignore wolf-fur intimidation")
	}
	stalker := species.Get("ShoreStalker")
	if stalker == nil || !stalker.IsHostileNpc {
		t.Error("ShoreStalker must be a hostile NPC variant")
	}
}

func TestLoadArmorTable(t *testing.T) {
	armor, err := LoadArmorTable()
	if err != nil {
		t.Fatalf("LoadArmorTable: %v", err)
	}
	wooden := armor.Get("Wooden Chestplate")
	if wooden == nil || wooden.MeleeReflectPct == 0 {
		t.Error("Wooden Chestplate must reflect melee")
	}
	if r := wooden.Resistances[DamageMelee]; r <= 0 || r >= 1 {
		t.Errorf("melee resistance out of range: %v", r)
	}
	if metal := armor.Get("Metal Chestplate"); metal == nil || !metal.KnockbackImmune {
		t.Error("Metal Chestplate must be knockback immune")
	}
}

func TestLoadPlantTable(t *testing.T) {
	plants, err := LoadPlantTable()
	if err != nil {
		t.Fatalf("LoadPlantTable: %v", err)
	}
	cb := plants.Get("Cloudberry Bush")
	if cb == nil {
		t.Fatal("Cloudberry Bush missing")
	}
	if !cb.CanGrowIn("Summer") || cb.CanGrowIn("Winter") {
		t.Error("Cloudberry Bush season gating wrong")
	}
}
