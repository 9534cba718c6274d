package systems

import (
	"errors"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/varbee/components"
)

// ErrColonyExtinct is returned by Hive.Spawn when there are no bees left to
// grow the colony from.
var ErrColonyExtinct = errors.New("colony extinct: bee registry is empty")

// BeeTemplate holds the defaults every bee spawned by a hive starts with.
type BeeTemplate struct {
	Lifespan     int
	Mode         components.BeeMode
	VirusPresent bool
}

// BeeRegistry is the part of the bee registry a hive needs to grow.
type BeeRegistry interface {
	BeeCount() int
	SpawnBee(pos components.Position, life components.Lifecycle, bee components.Bee) ecs.Entity
}

// Hive is a stationary colony: it banks nectar, remembers flowers and
// produces one new bee per tick.
type Hive struct {
	Location components.Position
	Store    int
	Known    map[components.Position]int
	Template BeeTemplate
	Spawned  int
}

// NewHive creates a hive at loc, falling back to the field center when loc
// is off the field.
func NewHive(rf *ResourceField, loc components.Position, tmpl BeeTemplate) *Hive {
	return &Hive{
		Location: ValidatePlacement(rf, loc, "hive"),
		Known:    make(map[components.Position]int),
		Template: tmpl,
	}
}

// ValidatePlacement returns p if it lies on the field, otherwise the field
// center with a warning.
func ValidatePlacement(rf *ResourceField, p components.Position, what string) components.Position {
	if rf.InBounds(p) {
		return p
	}
	c := rf.Center()
	slog.Warn("invalid_placement",
		"agent", what,
		"x", p.X,
		"y", p.Y,
		"fallback_x", c.X,
		"fallback_y", c.Y,
	)
	return c
}

// Deposit banks nectar.
func (h *Hive) Deposit(amount int) {
	if amount > 0 {
		h.Store += amount
	}
}

// Learn records the latest known amount at a flower.
func (h *Hive) Learn(flower components.Position, amount int) {
	h.Known[flower] = amount
}

// BestFlower picks uniformly among the known flowers with the highest
// remembered amount. Returns false when no flower is known.
func (h *Hive) BestFlower(rng *rand.Rand) (components.Position, bool) {
	if len(h.Known) == 0 {
		return components.Position{}, false
	}

	best := -1
	var ties []components.Position
	for loc, amount := range h.Known {
		switch {
		case amount > best:
			best = amount
			ties = append(ties[:0], loc)
		case amount == best:
			ties = append(ties, loc)
		}
	}
	if len(ties) == 1 {
		return ties[0], true
	}

	// Map order is random; sort so seeded runs draw the same flower.
	sort.Slice(ties, func(i, j int) bool { return ties[i].Less(ties[j]) })
	return ties[rng.Intn(len(ties))], true
}

// Spawn adds one bee at the hive. It refuses with ErrColonyExtinct when the
// registry is empty, leaving the registry unchanged.
func (h *Hive) Spawn(reg BeeRegistry) (ecs.Entity, error) {
	if reg.BeeCount() == 0 {
		return ecs.Entity{}, ErrColonyExtinct
	}

	bee := components.NewBee(h.Location)
	bee.SetMode(h.Template.Mode)
	life := components.NewLifecycle(h.Template.Lifespan, h.Template.VirusPresent)

	e := reg.SpawnBee(h.Location, life, bee)
	h.Spawned++
	return e, nil
}

// HiveRegistry holds hives keyed by location.
type HiveRegistry struct {
	byLoc map[components.Position]*Hive
	order []components.Position // sorted
}

// NewHiveRegistry creates an empty registry.
func NewHiveRegistry() *HiveRegistry {
	return &HiveRegistry{byLoc: make(map[components.Position]*Hive)}
}

// Add registers h. A hive already at the same location wins and is returned.
func (r *HiveRegistry) Add(h *Hive) *Hive {
	if existing, ok := r.byLoc[h.Location]; ok {
		return existing
	}
	r.byLoc[h.Location] = h
	i := sort.Search(len(r.order), func(i int) bool { return !r.order[i].Less(h.Location) })
	r.order = append(r.order, components.Position{})
	copy(r.order[i+1:], r.order[i:])
	r.order[i] = h.Location
	return h
}

// Get returns the hive at loc, or nil.
func (r *HiveRegistry) Get(loc components.Position) *Hive {
	return r.byLoc[loc]
}

// All returns the hives in location order.
func (r *HiveRegistry) All() []*Hive {
	hives := make([]*Hive, len(r.order))
	for i, loc := range r.order {
		hives[i] = r.byLoc[loc]
	}
	return hives
}

// Len returns the number of hives.
func (r *HiveRegistry) Len() int {
	return len(r.order)
}

// TotalStore returns the nectar banked across all hives.
func (r *HiveRegistry) TotalStore() int {
	var sum int
	for _, h := range r.byLoc {
		sum += h.Store
	}
	return sum
}
