// Command sweep runs the same configuration over several seeds and
// summarizes how the colonies fared.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/varbee/config"
	"github.com/pthm-cable/varbee/fieldio"
	"github.com/pthm-cable/varbee/sim"
	"github.com/pthm-cable/varbee/systems"
)

// RunRow is one line of sweep.csv.
type RunRow struct {
	RunID     string `csv:"run_id"`
	Seed      int64  `csv:"seed"`
	Ticks     int32  `csv:"ticks"`
	Bees      int    `csv:"bees"`
	Mites     int    `csv:"mites"`
	Extinct   bool   `csv:"extinct"`
	ExtinctAt int32  `csv:"extinct_at"`
	HiveStore int    `csv:"hive_store"`
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	seeds := flag.Int("seeds", 5, "Number of seeds to run")
	firstSeed := flag.Int64("first-seed", 42, "Seed of the first run; later runs add 1000 each")
	outputDir := flag.String("output", "", "Output directory (one subdirectory per run plus sweep.csv)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var rows []RunRow
	for i := 0; i < *seeds; i++ {
		seed := *firstSeed + int64(i)*1000
		row, err := runSeed(ctx, cfg, seed, *outputDir)
		if err != nil {
			slog.Error("run failed", "seed", seed, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		rows = append(rows, row)
	}

	if *outputDir != "" && len(rows) > 0 {
		if err := writeRows(filepath.Join(*outputDir, "sweep.csv"), rows); err != nil {
			slog.Error("failed to write sweep.csv", "error", err)
		}
	}

	summarize(rows)
}

// runSeed executes one full run with its own field, simulation and output
// subdirectory.
func runSeed(ctx context.Context, cfg *config.Config, seed int64, outputDir string) (RunRow, error) {
	grid, err := fieldio.FromConfig(cfg.Field, seed)
	if err != nil {
		return RunRow{}, err
	}
	field, err := systems.NewResourceField(grid, cfg.Field.ReplenishDivisor)
	if err != nil {
		return RunRow{}, err
	}

	runDir := ""
	if outputDir != "" {
		runDir = filepath.Join(outputDir, fmt.Sprintf("seed_%d", seed))
	}

	s, err := sim.New(cfg, field, sim.Options{Seed: seed, OutputDir: runDir})
	if err != nil {
		return RunRow{}, err
	}

	out, runErr := s.Run(ctx, cfg.Simulation.Iterations)
	if err := s.Close(); err != nil {
		slog.Error("failed to write run output", "run_id", s.RunID(), "error", err)
	}
	if runErr != nil {
		return RunRow{}, runErr
	}

	return RunRow{
		RunID:     s.RunID(),
		Seed:      seed,
		Ticks:     out.Ticks,
		Bees:      out.Bees,
		Mites:     out.Mites,
		Extinct:   out.Extinct,
		ExtinctAt: out.ExtinctAt,
		HiveStore: out.HiveStore,
	}, nil
}

func writeRows(path string, rows []RunRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := gocsv.Marshal(rows, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// summarize logs the spread of final populations across seeds.
func summarize(rows []RunRow) {
	if len(rows) == 0 {
		slog.Warn("sweep produced no runs")
		return
	}

	bees := make([]float64, len(rows))
	mites := make([]float64, len(rows))
	stores := make([]float64, len(rows))
	extinct := 0
	for i, r := range rows {
		bees[i] = float64(r.Bees)
		mites[i] = float64(r.Mites)
		stores[i] = float64(r.HiveStore)
		if r.Extinct {
			extinct++
		}
	}

	beeMean, beeStd := meanStd(bees)
	miteMean, miteStd := meanStd(mites)
	storeMean, _ := meanStd(stores)

	slog.Info("sweep_summary",
		"runs", len(rows),
		"extinct", extinct,
		"bees_mean", humanize.FtoaWithDigits(beeMean, 1),
		"bees_std", humanize.FtoaWithDigits(beeStd, 1),
		"mites_mean", humanize.FtoaWithDigits(miteMean, 1),
		"mites_std", humanize.FtoaWithDigits(miteStd, 1),
		"hive_store_mean", humanize.Comma(int64(storeMean)),
	)
}

// meanStd returns the mean and sample standard deviation, with a zero
// deviation for a single value.
func meanStd(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}
