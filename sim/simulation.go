// Package sim runs the bee, mite and field simulation.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/varbee/components"
	"github.com/pthm-cable/varbee/config"
	"github.com/pthm-cable/varbee/systems"
	"github.com/pthm-cable/varbee/telemetry"
)

// Options holds per-run settings that are not part of the model config.
type Options struct {
	Seed          int64  // RNG seed; callers resolve "time based" before this point
	RunID         string // Empty = random UUID
	LogStats      bool   // Log window stats, perf and bookmarks via slog
	OutputDir     string // CSV output directory; empty disables file output
	StatsCallback func(telemetry.WindowStats)
}

// Outcome summarizes a finished (or interrupted) run.
type Outcome struct {
	Ticks         int32
	Bees          int
	Mites         int
	HiveStore     int
	Extinct       bool  // No bees left at the end
	ExtinctAt     int32 // First tick that ended with no bees, 0 if never
	MitesExtinct  bool
	StoppedEarly  bool // Ended on extinction before the requested ticks
	HiveFailTicks int  // Ticks in which hive growth was refused
}

// Simulation holds the complete model state.
type Simulation struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand

	// Agent registries
	beeMapper  *ecs.Map3[components.Position, components.Lifecycle, components.Bee]
	miteMapper *ecs.Map3[components.Position, components.Lifecycle, components.Mite]
	beeFilter  *ecs.Filter3[components.Position, components.Lifecycle, components.Bee]
	miteFilter *ecs.Filter3[components.Position, components.Lifecycle, components.Mite]

	field *systems.ResourceField
	hives *systems.HiveRegistry
	hosts *systems.BeeHosts
	bees  *systems.BeeSystem
	mites *systems.MiteSystem

	// Outputs
	series *telemetry.Series
	heat   *telemetry.HeatMap

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	lifetimes     *telemetry.LifetimeTracker
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	// State
	runID         string
	seed          int64
	tick          int32
	numBees       int
	numMites      int
	extinctAt     int32
	hiveFailTicks int
}

// New builds a simulation over field and seeds the initial population.
func New(cfg *config.Config, field *systems.ResourceField, opts Options) (*Simulation, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if field == nil {
		return nil, fmt.Errorf("nil field")
	}

	world := ecs.NewWorld()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	s := &Simulation{
		cfg:   cfg,
		world: world,
		rng:   rand.New(rand.NewSource(opts.Seed)),

		beeMapper:  ecs.NewMap3[components.Position, components.Lifecycle, components.Bee](world),
		miteMapper: ecs.NewMap3[components.Position, components.Lifecycle, components.Mite](world),
		beeFilter:  ecs.NewFilter3[components.Position, components.Lifecycle, components.Bee](world),
		miteFilter: ecs.NewFilter3[components.Position, components.Lifecycle, components.Mite](world),

		field: field,
		hives: systems.NewHiveRegistry(),
		hosts: systems.NewBeeHosts(world, field.W, field.H),
		bees: systems.NewBeeSystem(world, systems.BeeParams{
			ForageAmount: cfg.Bee.ForageAmount,
			VirusCost:    cfg.Bee.VirusCost,
			DeathDrawMax: cfg.Bee.DeathDrawMax,
		}),
		mites: systems.NewMiteSystem(world, systems.MiteParams{
			DropChance:     cfg.Mite.DropChance,
			SettleChance:   cfg.Mite.SettleChance,
			CapRatio:       cfg.Mite.CapRatio,
			ParasitismCost: cfg.Mite.ParasitismCost,
			DeathDrawMax:   cfg.Mite.DeathDrawMax,
			TransmitChance: cfg.Mite.TransmitChance,
		}),

		series: telemetry.NewSeries(cfg.Simulation.Iterations),
		heat:   telemetry.NewHeatMap(field.W, field.H),

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks:     telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Telemetry.Bookmarks, cfg.Mite.CapRatio),
		lifetimes:     telemetry.NewLifetimeTracker(),
		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,

		runID: runID,
		seed:  opts.Seed,
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	s.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	s.buildHives()
	s.spawnInitialPopulation()

	slog.Info("simulation_created",
		"run_id", s.runID,
		"seed", s.seed,
		"field_width", field.W,
		"field_height", field.H,
		"field_total", humanize.Comma(int64(field.Total())),
		"hives", s.hives.Len(),
		"bees", s.numBees,
		"mites", s.numMites,
	)

	return s, nil
}

// Step advances the simulation by one tick.
func (s *Simulation) Step() {
	s.tick++
	s.perfCollector.StartTick()

	// Bee registry size at the start of the mite phase, and who stands where
	s.perfCollector.StartPhase(telemetry.PhaseHostIndex)
	beeCount := s.hosts.Rebuild()

	s.perfCollector.StartPhase(telemetry.PhaseMites)
	mev := s.mites.Update(s.rng, s.hosts, beeCount, s.numMites, s.spawnMite)
	s.collector.RecordMiteEvents(mev)

	s.perfCollector.StartPhase(telemetry.PhaseBees)
	bev := s.bees.Update(s.rng, s.field, s.hives, s.heat.Observe)
	s.collector.RecordBeeEvents(bev)

	s.perfCollector.StartPhase(telemetry.PhaseHives)
	s.updateHives()

	s.perfCollector.StartPhase(telemetry.PhaseCleanup)
	s.cleanupDeadBees()
	s.cleanupDeadMites()

	s.perfCollector.StartPhase(telemetry.PhaseField)
	s.field.Update()

	s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	s.series.Append(s.tick, s.numBees, s.numMites)
	if s.numBees == 0 && s.extinctAt == 0 {
		s.extinctAt = s.tick
		slog.Info("colony_extinct", "run_id", s.runID, "tick", s.tick, "mites", s.numMites)
	}
	s.flushTelemetry()

	s.perfCollector.EndTick(s.numBees + s.numMites)
}

// Run advances up to n ticks. It stops early on context cancellation, and
// on colony extinction when simulation.stop_on_extinction is set.
func (s *Simulation) Run(ctx context.Context, n int) (Outcome, error) {
	interval := s.cfg.Simulation.ProgressInterval
	start := s.tick

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return s.Outcome(false), err
		}

		s.Step()

		if interval > 0 && (i+1)%interval == 0 {
			s.logProgress(i+1, n)
		}

		if s.numBees == 0 && s.cfg.Simulation.StopOnExtinction {
			slog.Info("run_stopped",
				"run_id", s.runID,
				"reason", "colony_extinct",
				"tick", s.tick,
				"ticks_run", s.tick-start,
			)
			return s.Outcome(i+1 < n), nil
		}
	}

	return s.Outcome(false), nil
}

// Outcome reports the current state as a run outcome.
func (s *Simulation) Outcome(stoppedEarly bool) Outcome {
	return Outcome{
		Ticks:         s.tick,
		Bees:          s.numBees,
		Mites:         s.numMites,
		HiveStore:     s.hives.TotalStore(),
		Extinct:       s.numBees == 0,
		ExtinctAt:     s.extinctAt,
		MitesExtinct:  s.numMites == 0,
		StoppedEarly:  stoppedEarly,
		HiveFailTicks: s.hiveFailTicks,
	}
}

// Close writes the population series and heat map and closes all output
// files. It returns the first error.
func (s *Simulation) Close() error {
	var firstErr error
	if err := s.outputManager.WriteResults(s.series); err != nil {
		firstErr = err
	}
	if err := s.outputManager.WriteHeatMap(s.heat); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.outputManager.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int32 {
	return s.tick
}

// RunID returns the identifier attached to this run's logs.
func (s *Simulation) RunID() string {
	return s.runID
}

// BeeCount returns the bee registry size, including bees that died this
// tick and have not been purged yet.
func (s *Simulation) BeeCount() int {
	return s.numBees
}

// MiteCount returns the mite registry size.
func (s *Simulation) MiteCount() int {
	return s.numMites
}

// Field returns the shared nectar field.
func (s *Simulation) Field() *systems.ResourceField {
	return s.field
}

// Hives returns the hive registry.
func (s *Simulation) Hives() *systems.HiveRegistry {
	return s.hives
}

// Series returns the per-tick population record.
func (s *Simulation) Series() *telemetry.Series {
	return s.series
}

// HeatMap returns the bee occupancy heat map.
func (s *Simulation) HeatMap() *telemetry.HeatMap {
	return s.heat
}
