package world

import "github.com/shorebound/server/internal/geom"

// EntityKind selects a chunk-grid bucket family.
type EntityKind uint8

const (
	KindPlayer EntityKind = iota
	KindAnimal
	KindTree
	KindStone
	KindCoral
	KindGrass
	KindPlant
	KindDeployable
	KindCorpse
	KindDropped
	KindRuneStone
)

type gridKey struct {
	kind  EntityKind
	chunk uint32
}

// ChunkGrid maintains per-kind spatial buckets keyed by chunk index.
// Queries walk the 3x3 chunk neighborhood of a position, which at 16 tiles
// per chunk generously covers every interaction radius in the game.
type ChunkGrid struct {
	cells map[gridKey]map[uint64]struct{}
}

func NewChunkGrid() *ChunkGrid {
	return &ChunkGrid{cells: make(map[gridKey]map[uint64]struct{})}
}

func (g *ChunkGrid) Add(kind EntityKind, id uint64, chunk uint32) {
	k := gridKey{kind, chunk}
	set, ok := g.cells[k]
	if !ok {
		set = make(map[uint64]struct{})
		g.cells[k] = set
	}
	set[id] = struct{}{}
}

func (g *ChunkGrid) Remove(kind EntityKind, id uint64, chunk uint32) {
	k := gridKey{kind, chunk}
	if set, ok := g.cells[k]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move re-buckets an entity whose chunk changed. No-op when it did not.
func (g *ChunkGrid) Move(kind EntityKind, id uint64, from, to uint32) {
	if from == to {
		return
	}
	g.Remove(kind, id, from)
	g.Add(kind, id, to)
}

// EachInNeighborhood visits every id of the kind bucketed in the 3x3 chunk
// neighborhood around (x, y). Visiting order is unspecified.
func (g *ChunkGrid) EachInNeighborhood(kind EntityKind, x, y float64, fn func(id uint64)) {
	center := geom.ChunkIndex(x, y)
	cx := int(center) % geom.WorldWidthChunks
	cy := int(center) / geom.WorldWidthChunks
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := cx+dx, cy+dy
			if nx < 0 || ny < 0 || nx >= geom.WorldWidthChunks || ny >= geom.WorldHeightChunks {
				continue
			}
			k := gridKey{kind, uint32(ny*geom.WorldWidthChunks + nx)}
			for id := range g.cells[k] {
				fn(id)
			}
		}
	}
}

// CountKind returns the number of bucketed entities of a kind.
func (g *ChunkGrid) CountKind(kind EntityKind) int {
	n := 0
	for k, set := range g.cells {
		if k.kind == kind {
			n += len(set)
		}
	}
	return n
}
