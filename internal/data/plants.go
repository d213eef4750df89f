package data

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PlantDefinition describes a seasonal harvestable. Respawn of these gates
// on the current season; plants that cannot grow simply stay depleted until
// an eligible season arrives.
type PlantDefinition struct {
	Name            string   `yaml:"name"`
	GrowsInSeasons  []string `yaml:"grows_in_seasons"` // Spring, Summer, Autumn, Winter
	RespawnMinSecs  int      `yaml:"respawn_min_secs"`
	RespawnMaxSecs  int      `yaml:"respawn_max_secs"`
	YieldResource   string   `yaml:"yield_resource"`
	YieldMin        uint32   `yaml:"yield_min"`
	YieldMax        uint32   `yaml:"yield_max"`
	SpawnOnBiomes   []string `yaml:"spawn_on_biomes"`
}

// CanGrowIn reports whether the plant grows in the named season.
func (p *PlantDefinition) CanGrowIn(season string) bool {
	for _, s := range p.GrowsInSeasons {
		if s == season {
			return true
		}
	}
	return false
}

type plantListFile struct {
	Plants []PlantDefinition `yaml:"plants"`
}

// PlantTable holds plant definitions indexed by name.
type PlantTable struct {
	plants map[string]*PlantDefinition
	order  []string
}

// LoadPlantTable parses the embedded plant list.
func LoadPlantTable() (*PlantTable, error) {
	raw, err := embeddedYaml.ReadFile("yaml/plant_list.yaml")
	if err != nil {
		return nil, fmt.Errorf("read plant_list: %w", err)
	}
	var f plantListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse plant_list: %w", err)
	}
	t := &PlantTable{plants: make(map[string]*PlantDefinition, len(f.Plants))}
	for i := range f.Plants {
		t.plants[f.Plants[i].Name] = &f.Plants[i]
		t.order = append(t.order, f.Plants[i].Name)
	}
	return t, nil
}

func (t *PlantTable) Get(name string) *PlantDefinition { return t.plants[name] }
func (t *PlantTable) Count() int                       { return len(t.plants) }
func (t *PlantTable) Names() []string                  { return t.order }
