package world

import (
	"github.com/shorebound/server/internal/geom"
)

// TileType is the closed biome enumeration. The tile grid is read-only
// after generation.
type TileType uint8

const (
	TileGrass TileType = iota
	TileForest
	TileDirt
	TileDirtRoad
	TileSand
	TileBeach
	TileSea
	TileTundra
	TileTundraGrass
	TileAlpine
	TileQuarry
	TileHotSpringWater
	TileAsphalt
)

// IsWater covers both salt water and hot springs.
func (t TileType) IsWater() bool { return t == TileSea || t == TileHotSpringWater }

const hotSpringRadiusPx = 600.0

// CentralCompoundHalfX and CentralCompoundHalfY are the half-extents, in
// tiles, of the protected rectangle around the world center.
const (
	CentralCompoundHalfX = 8
	CentralCompoundHalfY = 15
)

// TileMap is the row-major biome grid plus the derived lookups maintained
// by SetTile (hot-spring tile cache) and the seeder (monument tiles).
type TileMap struct {
	Width, Height int
	tiles         []TileType
	hotSprings    []CellKey // tile coords of every HotSpringWater tile
	monuments     map[CellKey]struct{}
}

// NewTileMap creates an all-sea map of the given tile dimensions.
func NewTileMap(width, height int) *TileMap {
	tiles := make([]TileType, width*height)
	for i := range tiles {
		tiles[i] = TileSea
	}
	return &TileMap{Width: width, Height: height, tiles: tiles}
}

// SetTile writes one cell and maintains derived caches. Generation-time only.
func (m *TileMap) SetTile(tx, ty int, t TileType) {
	if tx < 0 || ty < 0 || tx >= m.Width || ty >= m.Height {
		return
	}
	m.tiles[ty*m.Width+tx] = t
	if t == TileHotSpringWater {
		m.hotSprings = append(m.hotSprings, CellKey{tx, ty})
	}
}

// TypeAt returns the tile type at tile coordinates. Out of bounds reports
// not-ok; callers treat that as water for movement and as unsuitable for
// spawning.
func (m *TileMap) TypeAt(tx, ty int) (TileType, bool) {
	if tx < 0 || ty < 0 || tx >= m.Width || ty >= m.Height {
		return TileSea, false
	}
	return m.tiles[ty*m.Width+tx], true
}

// TypeAtPos is TypeAt for a world pixel position.
func (m *TileMap) TypeAtPos(x, y float64) (TileType, bool) {
	tx, ty := geom.TileCoords(x, y)
	return m.TypeAt(tx, ty)
}

// OnWater reports whether the position is on any water tile. Out of bounds
// counts as water.
func (m *TileMap) OnWater(x, y float64) bool {
	t, ok := m.TypeAtPos(x, y)
	return !ok || t.IsWater()
}

// OnOceanWater reports salt water: a sea tile within 20% of any map edge.
// Interior sea tiles are inland (fresh) water.
func (m *TileMap) OnOceanWater(x, y float64) bool {
	tx, ty := geom.TileCoords(x, y)
	t, ok := m.TypeAt(tx, ty)
	if !ok {
		return true
	}
	if t != TileSea {
		return false
	}
	return m.nearMapEdge(tx, ty)
}

// OnInlandWater reports fresh water: sea or hot spring away from the edges.
func (m *TileMap) OnInlandWater(x, y float64) bool {
	tx, ty := geom.TileCoords(x, y)
	t, ok := m.TypeAt(tx, ty)
	if !ok || !t.IsWater() {
		return false
	}
	return !m.nearMapEdge(tx, ty)
}

func (m *TileMap) nearMapEdge(tx, ty int) bool {
	mx := m.Width / 5
	my := m.Height / 5
	return tx < mx || tx >= m.Width-mx || ty < my || ty >= m.Height-my
}

func (m *TileMap) OnBeach(x, y float64) bool {
	t, ok := m.TypeAtPos(x, y)
	return ok && (t == TileBeach || t == TileSand)
}

func (m *TileMap) OnForest(x, y float64) bool {
	t, ok := m.TypeAtPos(x, y)
	return ok && t == TileForest
}

func (m *TileMap) OnTundra(x, y float64) bool {
	t, ok := m.TypeAtPos(x, y)
	return ok && (t == TileTundra || t == TileTundraGrass)
}

func (m *TileMap) OnAlpine(x, y float64) bool {
	t, ok := m.TypeAtPos(x, y)
	return ok && (t == TileAlpine || t == TileQuarry)
}

func (m *TileMap) OnAsphalt(x, y float64) bool {
	t, ok := m.TypeAtPos(x, y)
	return ok && t == TileAsphalt
}

func (m *TileMap) OnDirtRoad(x, y float64) bool {
	t, ok := m.TypeAtPos(x, y)
	return ok && t == TileDirtRoad
}

// InHotSpringArea reports whether the position lies within 600 px of any
// HotSpringWater tile. The scan is bounded by the cached hot-spring list.
func (m *TileMap) InHotSpringArea(x, y float64) bool {
	const r2 = hotSpringRadiusPx * hotSpringRadiusPx
	for _, c := range m.hotSprings {
		cx := (float64(c.CX) + 0.5) * geom.TileSizePx
		cy := (float64(c.CY) + 0.5) * geom.TileSizePx
		if geom.DistanceSq(x, y, cx, cy) <= r2 {
			return true
		}
	}
	return false
}

// MarkMonument records a tile as occupied by a monument fixture. Called by
// the seeder when it places one and on boot when monuments load from the DB.
func (m *TileMap) MarkMonument(tx, ty int) {
	if m.monuments == nil {
		m.monuments = make(map[CellKey]struct{})
	}
	m.monuments[CellKey{tx, ty}] = struct{}{}
}

// OnMonument reports whether the position falls on a monument tile.
func (m *TileMap) OnMonument(x, y float64) bool {
	if len(m.monuments) == 0 {
		return false
	}
	tx, ty := geom.TileCoords(x, y)
	_, on := m.monuments[CellKey{tx, ty}]
	return on
}

// InCentralCompound reports whether the position falls inside the protected
// rectangle around the world center.
func (m *TileMap) InCentralCompound(x, y float64) bool {
	tx, ty := geom.TileCoords(x, y)
	cx := m.Width / 2
	cy := m.Height / 2
	return tx >= cx-CentralCompoundHalfX && tx <= cx+CentralCompoundHalfX &&
		ty >= cy-CentralCompoundHalfY && ty <= cy+CentralCompoundHalfY
}
