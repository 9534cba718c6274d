package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/varbee/config"
	"github.com/pthm-cable/varbee/fieldio"
	"github.com/pthm-cable/varbee/sim"
	"github.com/pthm-cable/varbee/systems"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	iterations := flag.Int("iterations", 0, "Ticks to run (0 = use config)")
	bees := flag.Int("bees", 0, "Initial bees (overrides config when set)")
	mites := flag.Int("mites", 0, "Initial mites (overrides config when set)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	fieldPath := flag.String("field", "", "Field CSV (empty = config path or generated meadow)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV results and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	stopOnExtinction := flag.Bool("stop-on-extinction", false, "End the run once no bees are left")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [FIELD.csv [iterations [bees [mites]]]]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Positional arguments first, explicit flags win
	applyPositional(cfg, flag.Args())
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "iterations":
			cfg.Simulation.Iterations = *iterations
		case "bees":
			cfg.Population.Bees = *bees
		case "mites":
			cfg.Population.Mites = *mites
		case "seed":
			cfg.Simulation.Seed = *seed
		case "field":
			cfg.Field.Path = *fieldPath
		case "stop-on-extinction":
			cfg.Simulation.StopOnExtinction = *stopOnExtinction
		}
	})
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Set up seed
	rngSeed := cfg.Simulation.Seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	grid, err := fieldio.FromConfig(cfg.Field, rngSeed)
	if err != nil {
		slog.Error("failed to load field", "error", err)
		os.Exit(1)
	}
	field, err := systems.NewResourceField(grid, cfg.Field.ReplenishDivisor)
	if err != nil {
		slog.Error("invalid field", "error", err)
		os.Exit(1)
	}

	s, err := sim.New(cfg, field, sim.Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting simulation",
		"run_id", s.RunID(),
		"seed", rngSeed,
		"iterations", cfg.Simulation.Iterations,
		"field", cfg.Field.Path,
		"output_dir", *outputDir,
	)

	start := time.Now()
	out, runErr := s.Run(ctx, cfg.Simulation.Iterations)
	if runErr != nil {
		slog.Warn("run interrupted", "tick", out.Ticks, "error", runErr)
	}
	if err := s.Close(); err != nil {
		slog.Error("failed to write results", "error", err)
	}

	slog.Info("simulation_finished",
		"run_id", s.RunID(),
		"ticks", humanize.Comma(int64(out.Ticks)),
		"bees", humanize.Comma(int64(out.Bees)),
		"mites", humanize.Comma(int64(out.Mites)),
		"hive_store", humanize.Comma(int64(out.HiveStore)),
		"extinct", out.Extinct,
		"extinct_at", out.ExtinctAt,
		"mites_extinct", out.MitesExtinct,
		"stopped_early", out.StoppedEarly,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
}

// applyPositional handles the FIELD [iterations [bees [mites]]] form.
// Non-positive or unparseable numbers keep the configured value.
func applyPositional(cfg *config.Config, args []string) {
	if len(args) > 0 && args[0] != "" {
		cfg.Field.Path = args[0]
	}
	targets := []*int{&cfg.Simulation.Iterations, &cfg.Population.Bees, &cfg.Population.Mites}
	for i, target := range targets {
		if len(args) <= i+1 {
			return
		}
		n, err := strconv.Atoi(args[i+1])
		if err != nil {
			slog.Warn("ignoring positional argument", "position", i+2, "value", args[i+1], "error", err)
			continue
		}
		if n > 0 {
			*target = n
		}
	}
}
