package systems

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/varbee/components"
)

// fakeBees is a slice-backed BeeRegistry.
type fakeBees struct {
	pos  []components.Position
	life []components.Lifecycle
	bees []components.Bee
}

func (f *fakeBees) BeeCount() int { return len(f.bees) }

func (f *fakeBees) SpawnBee(pos components.Position, life components.Lifecycle, bee components.Bee) ecs.Entity {
	f.pos = append(f.pos, pos)
	f.life = append(f.life, life)
	f.bees = append(f.bees, bee)
	return ecs.Entity{}
}

var testTemplate = BeeTemplate{Lifespan: 100, Mode: components.BeeSearch}

func TestHiveSpawnAddsOneBee(t *testing.T) {
	rf := emptyField(t, 10, 10)
	h := NewHive(rf, components.Position{X: 3, Y: 4}, testTemplate)
	reg := &fakeBees{}
	reg.SpawnBee(components.Position{}, components.NewLifecycle(1, false), components.NewBee(components.Position{}))

	for tick := 1; tick <= 5; tick++ {
		if _, err := h.Spawn(reg); err != nil {
			t.Fatalf("tick %d: Spawn error: %v", tick, err)
		}
		if got := reg.BeeCount(); got != 1+tick {
			t.Errorf("tick %d: bee count = %d, want %d", tick, got, 1+tick)
		}
	}

	last := len(reg.bees) - 1
	if reg.pos[last] != h.Location || reg.bees[last].Hive != h.Location {
		t.Errorf("spawned bee at %v with hive %v, want %v", reg.pos[last], reg.bees[last].Hive, h.Location)
	}
	if reg.life[last].Lifespan != 100 || !reg.life[last].Alive {
		t.Errorf("spawned bee lifecycle = %+v", reg.life[last])
	}
	if reg.bees[last].Mode != components.BeeSearch || reg.bees[last].Nectar != 0 {
		t.Errorf("spawned bee = %+v, want fresh searcher", reg.bees[last])
	}
	if h.Spawned != 5 {
		t.Errorf("Spawned = %d, want 5", h.Spawned)
	}
}

func TestHiveSpawnEmptyRegistry(t *testing.T) {
	rf := emptyField(t, 10, 10)
	h := NewHive(rf, components.Position{X: 3, Y: 4}, testTemplate)
	reg := &fakeBees{}

	_, err := h.Spawn(reg)
	if !errors.Is(err, ErrColonyExtinct) {
		t.Fatalf("Spawn on empty registry = %v, want ErrColonyExtinct", err)
	}
	if reg.BeeCount() != 0 {
		t.Errorf("registry changed on extinction: %d bees", reg.BeeCount())
	}
	if h.Spawned != 0 {
		t.Errorf("Spawned = %d, want 0", h.Spawned)
	}
}

func TestNewHiveInvalidLocationFallsBackToCenter(t *testing.T) {
	rf := emptyField(t, 10, 6)
	h := NewHive(rf, components.Position{X: 25, Y: 25}, testTemplate)
	if h.Location != (components.Position{X: 5, Y: 3}) {
		t.Errorf("Location = %v, want field center", h.Location)
	}
}

func TestHiveBestFlower(t *testing.T) {
	rf := emptyField(t, 10, 10)
	h := NewHive(rf, components.Position{X: 5, Y: 5}, testTemplate)
	rng := rand.New(rand.NewSource(5))

	if _, ok := h.BestFlower(rng); ok {
		t.Error("hive with no knowledge returned a flower")
	}

	h.Learn(components.Position{X: 1, Y: 1}, 30)
	h.Learn(components.Position{X: 2, Y: 2}, 90)
	h.Learn(components.Position{X: 3, Y: 3}, 60)
	if got, _ := h.BestFlower(rng); got != (components.Position{X: 2, Y: 2}) {
		t.Errorf("BestFlower = %v, want (2,2)", got)
	}

	// Re-learning overwrites
	h.Learn(components.Position{X: 2, Y: 2}, 0)
	if got, _ := h.BestFlower(rng); got != (components.Position{X: 3, Y: 3}) {
		t.Errorf("BestFlower after update = %v, want (3,3)", got)
	}
}

func TestHiveBestFlowerTiesAreUniform(t *testing.T) {
	rf := emptyField(t, 10, 10)
	h := NewHive(rf, components.Position{X: 5, Y: 5}, testTemplate)
	a := components.Position{X: 1, Y: 8}
	b := components.Position{X: 8, Y: 1}
	h.Learn(a, 50)
	h.Learn(b, 50)
	h.Learn(components.Position{X: 0, Y: 0}, 10)

	rng := rand.New(rand.NewSource(99))
	counts := map[components.Position]int{}
	for i := 0; i < 2000; i++ {
		got, _ := h.BestFlower(rng)
		counts[got]++
	}
	if len(counts) != 2 {
		t.Fatalf("picked %v, want only the two tied flowers", counts)
	}
	if counts[a] < 800 || counts[b] < 800 {
		t.Errorf("tie break looks biased: %v", counts)
	}

	// Same seed, same pick regardless of map order
	r1 := rand.New(rand.NewSource(4))
	r2 := rand.New(rand.NewSource(4))
	for i := 0; i < 20; i++ {
		x, _ := h.BestFlower(r1)
		y, _ := h.BestFlower(r2)
		if x != y {
			t.Fatalf("draw %d differs under the same seed: %v vs %v", i, x, y)
		}
	}
}

func TestHiveRegistry(t *testing.T) {
	rf := emptyField(t, 10, 10)
	reg := NewHiveRegistry()
	h1 := reg.Add(NewHive(rf, components.Position{X: 7, Y: 2}, testTemplate))
	h2 := reg.Add(NewHive(rf, components.Position{X: 1, Y: 1}, testTemplate))
	dup := reg.Add(NewHive(rf, components.Position{X: 7, Y: 2}, testTemplate))

	if dup != h1 {
		t.Error("duplicate location should return the existing hive")
	}
	if reg.Len() != 2 {
		t.Errorf("Len = %d, want 2", reg.Len())
	}
	all := reg.All()
	if all[0] != h2 || all[1] != h1 {
		t.Error("All should be ordered by location")
	}
	if reg.Get(components.Position{X: 1, Y: 1}) != h2 {
		t.Error("Get by location failed")
	}

	h1.Deposit(12)
	h2.Deposit(3)
	h2.Deposit(-5)
	if got := reg.TotalStore(); got != 15 {
		t.Errorf("TotalStore = %d, want 15", got)
	}
}
