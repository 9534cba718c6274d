// Package systems provides ECS systems for the simulation.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/varbee/components"
)

// SpatialGrid buckets entities by field cell for O(1) co-location lookups.
type SpatialGrid struct {
	cols  int
	rows  int
	cells [][]ecs.Entity // flat grid of entity lists, row-major
}

// NewSpatialGrid creates a grid with one bucket per field cell.
func NewSpatialGrid(cols, rows int) *SpatialGrid {
	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 4)
	}
	return &SpatialGrid{
		cols:  cols,
		rows:  rows,
		cells: cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity at p. Positions off the grid are ignored.
func (g *SpatialGrid) Insert(e ecs.Entity, p components.Position) {
	if idx := g.cellIndex(p); idx >= 0 {
		g.cells[idx] = append(g.cells[idx], e)
	}
}

// At returns the entities on p in insertion order. The slice is owned by
// the grid and valid until the next Clear.
func (g *SpatialGrid) At(p components.Position) []ecs.Entity {
	if idx := g.cellIndex(p); idx >= 0 {
		return g.cells[idx]
	}
	return nil
}

func (g *SpatialGrid) cellIndex(p components.Position) int {
	if p.X < 0 || p.Y < 0 || p.X >= g.cols || p.Y >= g.rows {
		return -1
	}
	return p.Y*g.cols + p.X
}

// BeeHosts indexes the bee registry for mites: which bees stand on a cell,
// and what a host handle currently points at.
type BeeHosts struct {
	world   *ecs.World
	grid    *SpatialGrid
	filter  *ecs.Filter3[components.Position, components.Lifecycle, components.Bee]
	posMap  *ecs.Map[components.Position]
	lifeMap *ecs.Map[components.Lifecycle]
	beeMap  *ecs.Map[components.Bee]
	count   int
}

// NewBeeHosts creates a host index for a cols x rows field.
func NewBeeHosts(w *ecs.World, cols, rows int) *BeeHosts {
	return &BeeHosts{
		world:   w,
		grid:    NewSpatialGrid(cols, rows),
		filter:  ecs.NewFilter3[components.Position, components.Lifecycle, components.Bee](w),
		posMap:  ecs.NewMap[components.Position](w),
		lifeMap: ecs.NewMap[components.Lifecycle](w),
		beeMap:  ecs.NewMap[components.Bee](w),
	}
}

// Rebuild re-indexes live bees by cell and returns the registry size.
func (h *BeeHosts) Rebuild() int {
	h.grid.Clear()
	h.count = 0

	query := h.filter.Query()
	for query.Next() {
		pos, life, _ := query.Get()
		h.count++
		if life.Alive {
			h.grid.Insert(query.Entity(), *pos)
		}
	}
	return h.count
}

// Count returns the registry size seen by the last Rebuild.
func (h *BeeHosts) Count() int {
	return h.count
}

// At returns the live bees on p as of the last Rebuild.
func (h *BeeHosts) At(p components.Position) []ecs.Entity {
	return h.grid.At(p)
}

// Resolve follows a host handle. ok is false when the bee has been removed
// from the registry.
func (h *BeeHosts) Resolve(e ecs.Entity) (pos *components.Position, life *components.Lifecycle, bee *components.Bee, ok bool) {
	if e == (ecs.Entity{}) || !h.world.Alive(e) || !h.beeMap.Has(e) {
		return nil, nil, nil, false
	}
	return h.posMap.Get(e), h.lifeMap.Get(e), h.beeMap.Get(e), true
}
