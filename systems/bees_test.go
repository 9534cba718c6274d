package systems

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/varbee/components"
)

func singleFlowerField(t *testing.T) *ResourceField {
	t.Helper()
	grid := make([][]int, 10)
	for y := range grid {
		grid[y] = make([]int, 10)
	}
	grid[5][5] = 50
	rf, err := NewResourceField(grid, 2000)
	if err != nil {
		t.Fatalf("NewResourceField: %v", err)
	}
	return rf
}

// immortal never fails a death draw.
var immortalParams = BeeParams{ForageAmount: 10, VirusCost: 3, DeathDrawMax: 0}

func TestBeeSingleFlowerRoundTrip(t *testing.T) {
	rf := singleFlowerField(t)
	hiveLoc := components.Position{X: 1, Y: 2}
	hive := NewHive(rf, hiveLoc, testTemplate)
	sys := &BeeSystem{params: immortalParams}
	rng := rand.New(rand.NewSource(42))
	flower := components.Position{X: 5, Y: 5}

	pos := hiveLoc
	life := components.NewLifecycle(1_000_000, false)
	bee := components.NewBee(hiveLoc)
	var ev BeeEvents

	// Search until the flower is stumbled upon.
	for i := 0; bee.Mode == components.BeeSearch; i++ {
		if i > 100_000 {
			t.Fatal("bee never found the flower")
		}
		sys.UpdateBee(rng, rf, hive, &pos, &life, &bee, &ev)
		if bee.Mode == components.BeeSearch && pos == flower {
			t.Fatal("bee on the flower stayed in SEARCH")
		}
	}
	if pos != flower || bee.Target != flower {
		t.Fatalf("switched to FORAGE at %v targeting %v, want %v", pos, bee.Target, flower)
	}
	if bee.Nectar != 0 {
		t.Fatalf("nectar before harvest = %d", bee.Nectar)
	}

	// Harvest.
	sys.UpdateBee(rng, rf, hive, &pos, &life, &bee, &ev)
	if bee.Nectar != 10 || rf.Level(flower) != 40 {
		t.Fatalf("after harvest nectar=%d level=%d, want 10 and 40", bee.Nectar, rf.Level(flower))
	}
	if !bee.TargetIsHive() {
		t.Fatalf("target after harvest = %v, want hive %v", bee.Target, hiveLoc)
	}
	if !bee.HasLast || bee.LastTarget != flower || bee.LastAmount != 40 {
		t.Fatalf("memo = %+v", bee)
	}

	// Fly home, never getting farther away.
	prev := pos.DistanceTo(hiveLoc)
	for pos != hiveLoc {
		sys.UpdateBee(rng, rf, hive, &pos, &life, &bee, &ev)
		d := pos.DistanceTo(hiveLoc)
		if d > prev {
			t.Fatalf("distance to hive grew: %.3f -> %.3f at %v", prev, d, pos)
		}
		prev = d
	}

	// Unload and get sent back to the only known flower.
	sys.UpdateBee(rng, rf, hive, &pos, &life, &bee, &ev)
	if hive.Store != 10 {
		t.Errorf("hive store = %d, want 10", hive.Store)
	}
	if bee.Nectar != 0 {
		t.Errorf("nectar after deposit = %d, want 0", bee.Nectar)
	}
	if hive.Known[flower] != 40 {
		t.Errorf("hive knowledge = %v, want %v:40", hive.Known, flower)
	}
	if bee.Mode != components.BeeForage || bee.Target != flower {
		t.Errorf("after unload mode=%v target=%v, want FORAGE to %v", bee.Mode, bee.Target, flower)
	}
	if ev.Harvests != 1 || ev.Deposits != 1 || ev.NectarDeposited != 10 {
		t.Errorf("events = %+v", ev)
	}
}

func TestBeeEmptyFlowerReturnsToSearch(t *testing.T) {
	rf := singleFlowerField(t)
	hive := NewHive(rf, components.Position{X: 0, Y: 0}, testTemplate)
	sys := &BeeSystem{params: immortalParams}
	rng := rand.New(rand.NewSource(1))

	flower := components.Position{X: 5, Y: 5}
	rf.Take(flower, 50)

	pos := flower
	life := components.NewLifecycle(100, false)
	bee := components.NewBee(hive.Location)
	bee.SetMode(components.BeeForage)
	bee.SetTarget(flower)

	var ev BeeEvents
	sys.UpdateBee(rng, rf, hive, &pos, &life, &bee, &ev)
	if bee.Mode != components.BeeSearch || bee.HasTarget {
		t.Errorf("bee at empty flower: mode=%v hasTarget=%v", bee.Mode, bee.HasTarget)
	}
	if ev.EmptyFlowers != 1 {
		t.Errorf("EmptyFlowers = %d, want 1", ev.EmptyFlowers)
	}
}

func TestBeeUnloadWithNoKnowledgeSearches(t *testing.T) {
	rf := singleFlowerField(t)
	hive := NewHive(rf, components.Position{X: 0, Y: 0}, testTemplate)
	sys := &BeeSystem{params: immortalParams}
	rng := rand.New(rand.NewSource(1))

	pos := hive.Location
	life := components.NewLifecycle(100, false)
	bee := components.NewBee(hive.Location)
	bee.SetMode(components.BeeForage)
	bee.SetTarget(hive.Location)
	bee.Nectar = 7

	var ev BeeEvents
	sys.UpdateBee(rng, rf, hive, &pos, &life, &bee, &ev)
	if hive.Store != 7 || bee.Nectar != 0 {
		t.Errorf("store=%d nectar=%d, want 7 and 0", hive.Store, bee.Nectar)
	}
	if bee.Mode != components.BeeSearch {
		t.Errorf("mode = %v, want SEARCH", bee.Mode)
	}
}

func TestBeeAging(t *testing.T) {
	rf := emptyField(t, 5, 5)
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name     string
		virus    bool
		wantLife int
	}{
		{"healthy", false, 99},
		{"infected", true, 96},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &BeeSystem{params: immortalParams}
			pos := components.Position{X: 2, Y: 2}
			life := components.NewLifecycle(100, tt.virus)
			bee := components.NewBee(pos)
			var ev BeeEvents
			sys.UpdateBee(rng, rf, nil, &pos, &life, &bee, &ev)
			if life.Lifespan != tt.wantLife {
				t.Errorf("lifespan = %d, want %d", life.Lifespan, tt.wantLife)
			}
		})
	}
}

func TestBeeDiesWhenLifespanBelowDraw(t *testing.T) {
	rf := emptyField(t, 5, 5)
	rng := rand.New(rand.NewSource(1))
	sys := &BeeSystem{params: BeeParams{ForageAmount: 10, DeathDrawMax: 45}}

	// Lifespan drops below zero, below every possible draw.
	pos := components.Position{X: 2, Y: 2}
	life := components.NewLifecycle(0, false)
	bee := components.NewBee(pos)
	var ev BeeEvents
	sys.UpdateBee(rng, rf, nil, &pos, &life, &bee, &ev)
	if life.Alive {
		t.Error("bee with negative lifespan survived")
	}
}

func TestBeeNectarNeverExceedsExtracted(t *testing.T) {
	grid := make([][]int, 12)
	for y := range grid {
		grid[y] = make([]int, 12)
		for x := range grid[y] {
			if (x+y)%4 == 0 {
				grid[y][x] = 5 + x*y
			}
		}
	}
	rf, err := NewResourceField(grid, 2000)
	if err != nil {
		t.Fatal(err)
	}
	hive := NewHive(rf, components.Position{X: 6, Y: 6}, testTemplate)
	sys := &BeeSystem{params: immortalParams}
	rng := rand.New(rand.NewSource(8))

	pos := hive.Location
	life := components.NewLifecycle(1_000_000, false)
	bee := components.NewBee(hive.Location)

	var ev BeeEvents
	sinceDeposit := 0
	for i := 0; i < 2000; i++ {
		before := ev.Extracted
		deposits := ev.Deposits
		sys.UpdateBee(rng, rf, hive, &pos, &life, &bee, &ev)
		rf.Update()
		if ev.Deposits != deposits {
			sinceDeposit = 0
		}
		sinceDeposit += ev.Extracted - before
		if bee.Nectar > sinceDeposit {
			t.Fatalf("tick %d: carrying %d, only extracted %d since last deposit", i, bee.Nectar, sinceDeposit)
		}
		if !rf.InBounds(pos) {
			t.Fatalf("tick %d: bee left the field at %v", i, pos)
		}
	}
	if ev.Deposits == 0 {
		t.Error("bee never completed a trip")
	}
}

func TestBeeSystemUpdateObservesLiveBees(t *testing.T) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap3[components.Position, components.Lifecycle, components.Bee](w)
	rf := emptyField(t, 6, 6)
	hives := NewHiveRegistry()
	hive := hives.Add(NewHive(rf, components.Position{X: 3, Y: 3}, testTemplate))

	for i := 0; i < 4; i++ {
		pos := hive.Location
		life := components.NewLifecycle(1_000, false)
		bee := components.NewBee(hive.Location)
		mapper.NewEntity(&pos, &life, &bee)
	}
	doomedPos := hive.Location
	doomed := components.NewLifecycle(-10, false)
	doomedBee := components.NewBee(hive.Location)
	mapper.NewEntity(&doomedPos, &doomed, &doomedBee)

	sys := NewBeeSystem(w, BeeParams{ForageAmount: 10, DeathDrawMax: 0})
	rng := rand.New(rand.NewSource(3))

	observed := 0
	ev := sys.Update(rng, rf, hives, func(p components.Position) {
		if !rf.InBounds(p) {
			t.Errorf("observed out of bounds position %v", p)
		}
		observed++
	})
	if observed != 4 {
		t.Errorf("observed %d bees, want 4", observed)
	}
	if ev.Deaths != 1 {
		t.Errorf("Deaths = %d, want 1", ev.Deaths)
	}
}

func TestBeeFlowerOnHiveCellIsNeverHarvested(t *testing.T) {
	rf := singleFlowerField(t)
	flower := components.Position{X: 5, Y: 5}
	hive := NewHive(rf, flower, testTemplate)
	sys := &BeeSystem{params: immortalParams}
	rng := rand.New(rand.NewSource(7))

	pos := components.Position{X: 4, Y: 5}
	life := components.NewLifecycle(1_000_000, false)
	bee := components.NewBee(flower)
	var ev BeeEvents

	for i := 0; bee.Mode == components.BeeSearch; i++ {
		if i > 100_000 {
			t.Fatal("bee never stepped onto the hive cell")
		}
		sys.UpdateBee(rng, rf, hive, &pos, &life, &bee, &ev)
	}
	if pos != flower || !bee.TargetIsHive() {
		t.Fatalf("FORAGE at %v targeting %v, want the hive cell", pos, bee.Target)
	}

	sys.UpdateBee(rng, rf, hive, &pos, &life, &bee, &ev)
	if ev.Deposits != 1 || ev.Harvests != 0 {
		t.Errorf("deposits=%d harvests=%d, want an unload and no harvest", ev.Deposits, ev.Harvests)
	}
	if got := rf.Level(flower); got != 50 {
		t.Errorf("hive cell level = %d, want 50 untouched", got)
	}
	if bee.Nectar != 0 || hive.Store != 0 {
		t.Errorf("nectar=%d store=%d, want both 0", bee.Nectar, hive.Store)
	}
}
