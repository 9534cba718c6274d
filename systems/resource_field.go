package systems

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/varbee/components"
)

// ErrEmptyField is returned when a field has no cells.
var ErrEmptyField = errors.New("field has no cells")

// ResourceField is the nectar grid shared by every agent. Levels only drop
// through foraging and only rise through Update, never above the level the
// cell started with.
type ResourceField struct {
	W, H int

	Res  []int // Current level, row-major
	Orig []int // Frozen starting level
	Rate []int // Per-tick replenishment, fixed at construction
}

// NewResourceField builds a field from rows of levels. rate = orig^2 / divisor.
func NewResourceField(grid [][]int, divisor int) (*ResourceField, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, ErrEmptyField
	}
	if divisor <= 0 {
		return nil, fmt.Errorf("replenish divisor must be positive, got %d", divisor)
	}

	h := len(grid)
	w := len(grid[0])
	rf := &ResourceField{
		W:    w,
		H:    h,
		Res:  make([]int, w*h),
		Orig: make([]int, w*h),
		Rate: make([]int, w*h),
	}

	for y, row := range grid {
		if len(row) != w {
			return nil, fmt.Errorf("row %d has %d cells, want %d", y, len(row), w)
		}
		for x, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("cell (%d,%d) has negative level %d", x, y, v)
			}
			i := y*w + x
			rf.Res[i] = v
			rf.Orig[i] = v
			rf.Rate[i] = v * v / divisor
		}
	}

	return rf, nil
}

// Update replenishes every depleted cell by its rate, clamped to its original level.
func (rf *ResourceField) Update() {
	for i, cur := range rf.Res {
		orig := rf.Orig[i]
		if cur >= orig {
			continue
		}
		cur += rf.Rate[i]
		if cur > orig {
			cur = orig
		}
		rf.Res[i] = cur
	}
}

// InBounds reports whether p lies on the field.
func (rf *ResourceField) InBounds(p components.Position) bool {
	return p.X >= 0 && p.X < rf.W && p.Y >= 0 && p.Y < rf.H
}

// Center returns the fallback location for invalid placements.
func (rf *ResourceField) Center() components.Position {
	return components.Position{X: rf.W / 2, Y: rf.H / 2}
}

// Clamp moves p onto the nearest edge cell if it is outside the field.
func (rf *ResourceField) Clamp(p components.Position) components.Position {
	p.X = clampInt(p.X, 0, rf.W-1)
	p.Y = clampInt(p.Y, 0, rf.H-1)
	return p
}

// Level returns the current level at p, or 0 outside the field.
func (rf *ResourceField) Level(p components.Position) int {
	if !rf.InBounds(p) {
		return 0
	}
	return rf.Res[p.Y*rf.W+p.X]
}

// Original returns the starting level at p, or 0 outside the field.
func (rf *ResourceField) Original(p components.Position) int {
	if !rf.InBounds(p) {
		return 0
	}
	return rf.Orig[p.Y*rf.W+p.X]
}

// Take extracts nectar from p: everything if the level is below max,
// otherwise exactly max. Returns the amount taken.
func (rf *ResourceField) Take(p components.Position, max int) int {
	if !rf.InBounds(p) {
		return 0
	}
	i := p.Y*rf.W + p.X
	level := rf.Res[i]
	if level <= 0 {
		return 0
	}
	taken := max
	if level < max {
		taken = level
	}
	rf.Res[i] = level - taken
	return taken
}

// Total returns the sum of current levels.
func (rf *ResourceField) Total() int {
	var sum int
	for _, v := range rf.Res {
		sum += v
	}
	return sum
}

// Rows returns a copy of the current levels as rows.
func (rf *ResourceField) Rows() [][]int {
	rows := make([][]int, rf.H)
	for y := range rows {
		rows[y] = append([]int(nil), rf.Res[y*rf.W:(y+1)*rf.W]...)
	}
	return rows
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
