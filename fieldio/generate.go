package fieldio

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/varbee/config"
)

// Generate builds a meadow from layered simplex noise: patches where the
// noise clears the threshold become flowers whose level grows with the
// noise, everything else is bare ground.
func Generate(cfg config.GeneratorConfig, seed int64) [][]int {
	noise := opensimplex.NewNormalized(seed)

	span := 1 - cfg.Threshold
	if span <= 0 {
		span = 1
	}

	grid := make([][]int, cfg.Height)
	for y := range grid {
		grid[y] = make([]int, cfg.Width)
		for x := range grid[y] {
			v := octaveNoise(noise, float64(x), float64(y), cfg.Octaves, cfg.Scale, cfg.Persistence)
			if v < cfg.Threshold {
				continue
			}
			t := (v - cfg.Threshold) / span
			grid[y][x] = int(math.Round(t * float64(cfg.MaxLevel)))
		}
	}
	return grid
}

// octaveNoise sums octaves of noise, normalized to [0, 1].
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if maxVal == 0 {
		return 0
	}
	return total / maxVal
}

// FromConfig loads the configured field CSV, or generates a meadow from seed
// when no path is set.
func FromConfig(cfg config.FieldConfig, seed int64) ([][]int, error) {
	if cfg.Path != "" {
		return Load(cfg.Path)
	}
	return Generate(cfg.Generator, seed), nil
}
