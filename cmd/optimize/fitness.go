package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/varbee/config"
	"github.com/pthm-cable/varbee/fieldio"
	"github.com/pthm-cable/varbee/sim"
	"github.com/pthm-cable/varbee/systems"
	"github.com/pthm-cable/varbee/telemetry"
)

// FitnessEvaluator runs simulations and scores how well bees and mites
// coexist under a parameter vector.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	bestFitness float64
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int32                   // ticks until either species died out (or maxTicks)
	windowStats   []telemetry.WindowStats // collected via StatsCallback each window
	err           error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative coexistence ticks, scaled up by up to 20% for quality.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Seeds are independent simulations
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		if r.err != nil {
			// Unrunnable parameters score as immediate extinction
			continue
		}
		quality := computeQuality(r.windowStats)
		totalFitness += computeFitness(r.survivalTicks, quality)
		totalQuality += quality
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single run until bees or mites die out, or
// maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) runResult {
	var result runResult

	grid, err := fieldio.FromConfig(cfg.Field, seed)
	if err != nil {
		result.err = err
		return result
	}
	field, err := systems.NewResourceField(grid, cfg.Field.ReplenishDivisor)
	if err != nil {
		result.err = err
		return result
	}

	s, err := sim.New(cfg, field, sim.Options{
		Seed: seed,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		result.err = err
		return result
	}
	defer s.Close()

	for s.Tick() < int32(fe.maxTicks) {
		s.Step()
		if s.BeeCount() == 0 || s.MiteCount() == 0 {
			result.survivalTicks = s.Tick()
			return result
		}
	}

	result.survivalTicks = s.Tick()
	return result
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Hives = append([]config.HiveConfig(nil), fe.baseConfig.Hives...)
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
func computeFitness(survivalTicks int32, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.40
	qualityWeightStability = 0.35
	qualityWeightForaging  = 0.25

	qualityWarmupWindows = 2 // skip first N windows (warmup)
	qualityMinPop        = 3 // exclude windows where either species < this
	targetMitesPerBee    = 1.0
)

// computeQuality computes coexistence quality ∈ [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	var ratioSum, forageSum float64
	var n int
	beeCounts := make([]float64, 0, len(windows))
	miteCounts := make([]float64, 0, len(windows))

	for _, w := range windows[qualityWarmupWindows:] {
		if w.Bees < qualityMinPop || w.Mites < qualityMinPop {
			continue
		}
		beeCounts = append(beeCounts, float64(w.Bees))
		miteCounts = append(miteCounts, float64(w.Mites))

		// Mite load near the target ratio, on a log scale
		logErr := math.Log(float64(w.Mites) / float64(w.Bees) / targetMitesPerBee)
		ratioSum += math.Exp(-logErr * logErr)

		// Colony still bringing nectar home
		depositsPerBee := float64(w.Deposits) / float64(w.Bees)
		forageSum += 1.0 - math.Exp(-depositsPerBee*5)
		n++
	}

	if n == 0 {
		return 0
	}

	stabilityScore := 0.0
	if len(beeCounts) >= 2 {
		cvBees := cv(beeCounts)
		cvMites := cv(miteCounts)
		stabilityScore = math.Exp(-(cvBees*cvBees + cvMites*cvMites))
	}

	quality := qualityWeightRatio*ratioSum/float64(n) +
		qualityWeightStability*stabilityScore +
		qualityWeightForaging*forageSum/float64(n)

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := stat.Mean(values, nil)
	if mean == 0 {
		return 0
	}
	return stat.PopStdDev(values, nil) / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
