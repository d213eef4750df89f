// Package world owns the authoritative game state: every entity table, the
// chunk-index spatial grid, the tile map, the scheduled-rows store and the
// active-effect table. All of it is mutated only on the game loop goroutine,
// so none of it carries locks.
package world

import (
	"time"

	"github.com/shorebound/server/internal/data"
	"github.com/shorebound/server/internal/geom"
)

// Fire and foundation proximity radii used by AI fear and the nearest-fire
// search.
const (
	FireFearRadiusPx       = 200.0
	TorchFearRadiusPx      = 120.0
	FoundationFearRadiusPx = 100.0
)

// State is the whole simulation in memory.
type State struct {
	Players map[uint64]*Player
	Animals map[uint64]*WildAnimal

	Trees  map[uint64]*Tree
	Stones map[uint64]*Stone
	Corals map[uint64]*LivingCoral
	Grass  map[uint64]*GrassClump
	Plants map[uint64]*PlantNode

	Deployables map[uint64]*Deployable
	Structures  map[uint64]*Structure
	Corpses     map[uint64]*Corpse
	Dropped     map[uint64]*DroppedItem

	RuneStones map[uint64]*RuneStone
	SeaStacks  map[uint64]*SeaStack
	Clouds     map[uint64]*Cloud

	DeathMarkers map[uint64]*DeathMarker // keyed by owner

	structureCells map[CellKey][]uint64

	Grid     *ChunkGrid
	Tiles    *TileMap
	Schedule *Schedule
	Effects  *EffectTable

	// Season state, advanced by the clock system.
	Season         string  // Spring, Summer, Autumn, Winter
	SeasonProgress float64 // [0,1] fraction of the current season

	nextID uint64
}

func NewState() *State {
	return &State{
		Players:        make(map[uint64]*Player),
		Animals:        make(map[uint64]*WildAnimal),
		Trees:          make(map[uint64]*Tree),
		Stones:         make(map[uint64]*Stone),
		Corals:         make(map[uint64]*LivingCoral),
		Grass:          make(map[uint64]*GrassClump),
		Plants:         make(map[uint64]*PlantNode),
		Deployables:    make(map[uint64]*Deployable),
		Structures:     make(map[uint64]*Structure),
		Corpses:        make(map[uint64]*Corpse),
		Dropped:        make(map[uint64]*DroppedItem),
		RuneStones:     make(map[uint64]*RuneStone),
		SeaStacks:      make(map[uint64]*SeaStack),
		Clouds:         make(map[uint64]*Cloud),
		DeathMarkers:   make(map[uint64]*DeathMarker),
		structureCells: make(map[CellKey][]uint64),
		Grid:           NewChunkGrid(),
		Tiles:          NewTileMap(geom.WorldWidthTiles, geom.WorldHeightTiles),
		Schedule:       NewSchedule(),
		Effects:        NewEffectTable(),
		Season:         "Summer",
	}
}

// NextID hands out a fresh entity id. Ids are unique across all kinds.
func (s *State) NextID() uint64 {
	s.nextID++
	return s.nextID
}

// BumpNextID raises the counter past ids loaded from the database.
func (s *State) BumpNextID(loadedMax uint64) {
	if loadedMax > s.nextID {
		s.nextID = loadedMax
	}
}

// PeekNextID reads the counter without consuming an id. Used by the save
// path to persist the allocator alongside the entities.
func (s *State) PeekNextID() uint64 {
	return s.nextID
}

// ─── Entity registration ───────────────────────────────────────────

func (s *State) AddPlayer(p *Player) {
	s.Players[p.ID] = p
	s.Grid.Add(KindPlayer, p.ID, geom.ChunkIndex(p.X, p.Y))
}

func (s *State) RemovePlayer(id uint64) {
	if p, ok := s.Players[id]; ok {
		s.Grid.Remove(KindPlayer, id, geom.ChunkIndex(p.X, p.Y))
		delete(s.Players, id)
	}
}

// MovePlayer updates a player position and keeps the grid consistent.
func (s *State) MovePlayer(p *Player, x, y float64) {
	old := geom.ChunkIndex(p.X, p.Y)
	p.X, p.Y = x, y
	s.Grid.Move(KindPlayer, p.ID, old, geom.ChunkIndex(x, y))
}

func (s *State) AddAnimal(a *WildAnimal) {
	a.ChunkIndex = geom.ChunkIndex(a.X, a.Y)
	s.Animals[a.ID] = a
	s.Grid.Add(KindAnimal, a.ID, a.ChunkIndex)
}

func (s *State) RemoveAnimal(id uint64) {
	if a, ok := s.Animals[id]; ok {
		s.Grid.Remove(KindAnimal, id, a.ChunkIndex)
		delete(s.Animals, id)
	}
}

// SyncAnimalChunk keeps chunk_index equal to the function of position.
// Every movement path funnels through here before commit.
func (s *State) SyncAnimalChunk(a *WildAnimal) {
	idx := geom.ChunkIndex(a.X, a.Y)
	if idx != a.ChunkIndex {
		s.Grid.Move(KindAnimal, a.ID, a.ChunkIndex, idx)
		a.ChunkIndex = idx
	}
}

func (s *State) AddTree(t *Tree) {
	t.ChunkIndex = geom.ChunkIndex(t.X, t.Y)
	s.Trees[t.ID] = t
	s.Grid.Add(KindTree, t.ID, t.ChunkIndex)
}

func (s *State) RemoveTree(id uint64) {
	if t, ok := s.Trees[id]; ok {
		s.Grid.Remove(KindTree, id, t.ChunkIndex)
		delete(s.Trees, id)
	}
}

func (s *State) AddStone(st *Stone) {
	st.ChunkIndex = geom.ChunkIndex(st.X, st.Y)
	s.Stones[st.ID] = st
	s.Grid.Add(KindStone, st.ID, st.ChunkIndex)
}

func (s *State) AddCoral(c *LivingCoral) {
	c.ChunkIndex = geom.ChunkIndex(c.X, c.Y)
	s.Corals[c.ID] = c
	s.Grid.Add(KindCoral, c.ID, c.ChunkIndex)
}

func (s *State) AddGrass(g *GrassClump) {
	g.ChunkIndex = geom.ChunkIndex(g.X, g.Y)
	s.Grass[g.ID] = g
	s.Grid.Add(KindGrass, g.ID, g.ChunkIndex)
}

func (s *State) AddPlant(p *PlantNode) {
	p.ChunkIndex = geom.ChunkIndex(p.X, p.Y)
	s.Plants[p.ID] = p
	s.Grid.Add(KindPlant, p.ID, p.ChunkIndex)
}

func (s *State) AddDeployable(d *Deployable) {
	d.ChunkIndex = geom.ChunkIndex(d.X, d.Y)
	s.Deployables[d.ID] = d
	s.Grid.Add(KindDeployable, d.ID, d.ChunkIndex)
	if d.IsMonument {
		s.Tiles.MarkMonument(geom.TileCoords(d.X, d.Y))
	}
}

func (s *State) RemoveDeployable(id uint64) {
	if d, ok := s.Deployables[id]; ok {
		s.Grid.Remove(KindDeployable, id, d.ChunkIndex)
		delete(s.Deployables, id)
	}
}

func (s *State) AddStructure(st *Structure) {
	s.Structures[st.ID] = st
	s.structureCells[st.Cell] = append(s.structureCells[st.Cell], st.ID)
}

func (s *State) RemoveStructure(id uint64) {
	st, ok := s.Structures[id]
	if !ok {
		return
	}
	delete(s.Structures, id)
	ids := s.structureCells[st.Cell]
	for i, sid := range ids {
		if sid == id {
			s.structureCells[st.Cell] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(s.structureCells[st.Cell]) == 0 {
		delete(s.structureCells, st.Cell)
	}
}

// StructuresAtCell returns the live building pieces on one cell.
func (s *State) StructuresAtCell(c CellKey) []*Structure {
	ids := s.structureCells[c]
	out := make([]*Structure, 0, len(ids))
	for _, id := range ids {
		if st := s.Structures[id]; st != nil && !st.IsDestroyed {
			out = append(out, st)
		}
	}
	return out
}

// EachStructureInWindow visits live structures whose cell lies within the
// given tile window around a world position.
func (s *State) EachStructureInWindow(x, y float64, windowCells int, fn func(st *Structure)) {
	tx, ty := geom.TileCoords(x, y)
	for cy := ty - windowCells; cy <= ty+windowCells; cy++ {
		for cx := tx - windowCells; cx <= tx+windowCells; cx++ {
			for _, st := range s.StructuresAtCell(CellKey{cx, cy}) {
				fn(st)
			}
		}
	}
}

func (s *State) AddCorpse(c *Corpse) {
	c.ChunkIndex = geom.ChunkIndex(c.X, c.Y)
	s.Corpses[c.ID] = c
	s.Grid.Add(KindCorpse, c.ID, c.ChunkIndex)
}

func (s *State) RemoveCorpse(id uint64) {
	if c, ok := s.Corpses[id]; ok {
		s.Grid.Remove(KindCorpse, id, c.ChunkIndex)
		delete(s.Corpses, id)
	}
}

func (s *State) AddDropped(d *DroppedItem) {
	d.ChunkIndex = geom.ChunkIndex(d.X, d.Y)
	s.Dropped[d.ID] = d
	s.Grid.Add(KindDropped, d.ID, d.ChunkIndex)
}

func (s *State) RemoveDropped(id uint64) {
	if d, ok := s.Dropped[id]; ok {
		s.Grid.Remove(KindDropped, id, d.ChunkIndex)
		delete(s.Dropped, id)
	}
}

func (s *State) AddRuneStone(r *RuneStone) {
	s.RuneStones[r.ID] = r
	s.Grid.Add(KindRuneStone, r.ID, geom.ChunkIndex(r.X, r.Y))
}

// ─── Queries ───────────────────────────────────────────────────────

// AlivePlayers returns every online, non-dead player. The AI tick calls
// this once and reuses the slice across all animals.
func (s *State) AlivePlayers() []*Player {
	out := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

// AnyPlayersOnline reports whether at least one player is connected.
func (s *State) AnyPlayersOnline() bool {
	for _, p := range s.Players {
		if p.IsOnline {
			return true
		}
	}
	return false
}

// BurningCampfires returns every lit, non-destroyed campfire.
func (s *State) BurningCampfires() []*Deployable {
	var out []*Deployable
	for _, d := range s.Deployables {
		if d.Kind == data.TargetCampfire && d.IsBurning && !d.IsDestroyed {
			out = append(out, d)
		}
	}
	return out
}

// ActiveFoundations returns every live foundation cell.
func (s *State) ActiveFoundations() []*Structure {
	var out []*Structure
	for _, st := range s.Structures {
		if st.Kind == StructFoundation && !st.IsDestroyed {
			out = append(out, st)
		}
	}
	return out
}

// FoundationCenter returns the world center of a foundation's cell.
func FoundationCenter(st *Structure) (float64, float64) {
	return (float64(st.Cell.CX) + 0.5) * geom.TileSizePx,
		(float64(st.Cell.CY) + 0.5) * geom.TileSizePx
}

// FireNearby reports whether any fire source threatens (x, y): a burning
// campfire within 200 px, a lit torch carrier within 120 px, or an active
// foundation within 100 px. Callers pass the pre-fetched slices from the
// tick so the scan never re-queries tables.
func FireNearby(x, y float64, fires []*Deployable, torchbearers []*Player, foundations []*Structure) bool {
	for _, f := range fires {
		if geom.DistanceSq(x, y, f.X, f.Y) <= FireFearRadiusPx*FireFearRadiusPx {
			return true
		}
	}
	for _, p := range torchbearers {
		if geom.DistanceSq(x, y, p.X, p.Y) <= TorchFearRadiusPx*TorchFearRadiusPx {
			return true
		}
	}
	for _, st := range foundations {
		fx, fy := FoundationCenter(st)
		if geom.DistanceSq(x, y, fx, fy) <= FoundationFearRadiusPx*FoundationFearRadiusPx {
			return true
		}
	}
	return false
}

// ClosestFirePosition returns the nearest fire source among campfires, lit
// torches and foundations, for flee-direction computation.
func ClosestFirePosition(x, y float64, fires []*Deployable, torchbearers []*Player, foundations []*Structure) (float64, float64, bool) {
	best := -1.0
	var bx, by float64
	consider := func(px, py float64) {
		d := geom.DistanceSq(x, y, px, py)
		if best < 0 || d < best {
			best, bx, by = d, px, py
		}
	}
	for _, f := range fires {
		consider(f.X, f.Y)
	}
	for _, p := range torchbearers {
		consider(p.X, p.Y)
	}
	for _, st := range foundations {
		fx, fy := FoundationCenter(st)
		consider(fx, fy)
	}
	return bx, by, best >= 0
}

// AnyHearthExists reports whether any homestead hearth stands anywhere in
// the world. Door privileges are waived in the early game before the first
// hearth is built.
func (s *State) AnyHearthExists() bool {
	for _, d := range s.Deployables {
		if d.Kind == data.TargetHearth && !d.IsDestroyed {
			return true
		}
	}
	return false
}

// UpsertDeathMarker records a player's latest death position.
func (s *State) UpsertDeathMarker(owner uint64, x, y float64, now time.Time) {
	s.DeathMarkers[owner] = &DeathMarker{Owner: owner, X: x, Y: y, DiedAt: now}
}
