package sim

import (
	"errors"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/varbee/components"
	"github.com/pthm-cable/varbee/systems"
)

// buildHives registers the configured hives. With none configured a single
// hive is placed at the field center.
func (s *Simulation) buildHives() {
	tmpl := systems.BeeTemplate{
		Lifespan: s.cfg.Bee.Lifespan,
		Mode:     components.BeeSearch,
	}

	locs := make([]components.Position, 0, len(s.cfg.Hives))
	for _, h := range s.cfg.Hives {
		locs = append(locs, components.Position{X: h.X, Y: h.Y})
	}
	if len(locs) == 0 {
		locs = append(locs, s.field.Center())
	}

	for _, loc := range locs {
		s.hives.Add(systems.NewHive(s.field, loc, tmpl))
	}
}

// spawnInitialPopulation places the starting bees at their hives, dealt
// round-robin in hive order, and scatters mites uniformly over the field.
func (s *Simulation) spawnInitialPopulation() {
	hives := s.hives.All()
	for i := 0; i < s.cfg.Population.Bees; i++ {
		hive := hives[i%len(hives)]
		virus := s.draw(s.cfg.Bee.InitialVirusChance)
		bee := components.NewBee(hive.Location)
		bee.SetMode(hive.Template.Mode)
		s.SpawnBee(hive.Location, components.NewLifecycle(hive.Template.Lifespan, virus), bee)
	}

	for i := 0; i < s.cfg.Population.Mites; i++ {
		pos := components.Position{
			X: s.rng.Intn(s.field.W),
			Y: s.rng.Intn(s.field.H),
		}
		s.spawnMite(pos, s.draw(s.cfg.Mite.InitialVirusChance))
	}
}

// draw returns true with probability p. No random number is consumed when
// p is zero, so runs without the virus keep the same random stream.
func (s *Simulation) draw(p float64) bool {
	if p <= 0 {
		return false
	}
	return s.rng.Float64() < p
}

// SpawnBee adds a bee to the registry.
func (s *Simulation) SpawnBee(pos components.Position, life components.Lifecycle, bee components.Bee) ecs.Entity {
	pos = s.field.Clamp(pos)
	e := s.beeMapper.NewEntity(&pos, &life, &bee)
	s.lifetimes.Register(e, s.tick)
	s.numBees++
	return e
}

// spawnMite adds a waiting mite to the registry.
func (s *Simulation) spawnMite(pos components.Position, virus bool) ecs.Entity {
	pos = s.field.Clamp(pos)
	life := components.NewLifecycle(s.cfg.Mite.Lifespan, virus)
	mite := components.NewMite()
	e := s.miteMapper.NewEntity(&pos, &life, &mite)
	s.lifetimes.Register(e, s.tick)
	s.numMites++
	return e
}

// updateHives lets every hive grow by one bee, in location order.
func (s *Simulation) updateHives() {
	failed := 0
	for _, hive := range s.hives.All() {
		if _, err := hive.Spawn(s); err != nil {
			if errors.Is(err, systems.ErrColonyExtinct) {
				failed++
				continue
			}
			slog.Error("hive_spawn_failed", "run_id", s.runID, "tick", s.tick, "error", err)
			continue
		}
		s.collector.RecordBeeBirth()
	}

	if failed > 0 {
		s.hiveFailTicks++
		s.collector.RecordExtinctTick()
		slog.Warn("hive_growth_suppressed",
			"run_id", s.runID,
			"tick", s.tick,
			"hives", failed,
			"error", systems.ErrColonyExtinct,
		)
	}
}

// cleanupDeadBees removes dead bees from the registry.
func (s *Simulation) cleanupDeadBees() {
	// First pass: collect dead entities (must complete before modifying)
	var toRemove []ecs.Entity
	query := s.beeFilter.Query()
	for query.Next() {
		_, life, _ := query.Get()
		if !life.Alive {
			toRemove = append(toRemove, query.Entity())
		}
	}

	// Second pass: remove entities (query iteration complete)
	for _, e := range toRemove {
		if age, ok := s.lifetimes.Remove(e, s.tick); ok {
			s.collector.RecordBeeAgeAtDeath(age)
		}
		s.world.RemoveEntity(e)
		s.numBees--
	}
}

// cleanupDeadMites removes dead mites from the registry.
func (s *Simulation) cleanupDeadMites() {
	var toRemove []ecs.Entity
	query := s.miteFilter.Query()
	for query.Next() {
		_, life, _ := query.Get()
		if !life.Alive {
			toRemove = append(toRemove, query.Entity())
		}
	}

	for _, e := range toRemove {
		if age, ok := s.lifetimes.Remove(e, s.tick); ok {
			s.collector.RecordMiteAgeAtDeath(age)
		}
		s.world.RemoveEntity(e)
		s.numMites--
	}
}
