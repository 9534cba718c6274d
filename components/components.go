// Package components defines ECS components for the simulation.
package components

import "math"

// Position is a cell on the field. X is the column and Y is the row, so a
// position addresses grid[Y][X] everywhere in the engine.
type Position struct {
	X, Y int
}

// Offset is a relative move between neighboring cells.
type Offset struct {
	DX, DY int
}

// Moore lists the 8 neighbor offsets in a fixed order.
var Moore = [8]Offset{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Add returns the position moved by o.
func (p Position) Add(o Offset) Position {
	return Position{X: p.X + o.DX, Y: p.Y + o.DY}
}

// DistanceTo returns the Euclidean distance between p and q.
func (p Position) DistanceTo(q Position) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Less orders positions row-major. Used wherever map keys must be visited
// in a reproducible order.
func (p Position) Less(q Position) bool {
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.X < q.X
}

// Mode is implemented by the per-agent mode enums.
type Mode interface {
	String() string
	Valid() bool
}

// Lifecycle is the state shared by every agent: remaining lifespan, whether
// it is alive, and whether it carries the virus.
type Lifecycle struct {
	Lifespan     int
	Alive        bool
	VirusPresent bool
}

// NewLifecycle returns a live agent lifecycle.
func NewLifecycle(lifespan int, virus bool) Lifecycle {
	return Lifecycle{Lifespan: lifespan, Alive: true, VirusPresent: virus}
}

// Advance removes cost from the lifespan. A negative cost extends it.
func (l *Lifecycle) Advance(cost int) {
	l.Lifespan -= cost
}

// SurvivesDraw applies the death rule: the agent dies when its lifespan is
// below draw. Returns whether it is still alive.
func (l *Lifecycle) SurvivesDraw(draw int) bool {
	if l.Lifespan < draw {
		l.Alive = false
	}
	return l.Alive
}

// Kill marks the agent dead.
func (l *Lifecycle) Kill() {
	l.Alive = false
}
