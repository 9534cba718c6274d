// Package main provides CMA-ES calibration of bee and mite parameters.
package main

import (
	"math"

	"github.com/pthm-cable/varbee/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // Rounded before it is applied
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Bees (lifespan locked at the configured value)
			{Name: "bee_forage_amount", Path: "bee.forage_amount", Min: 1, Max: 40, Default: 10, Integer: true},
			{Name: "bee_virus_cost", Path: "bee.virus_cost", Min: 0, Max: 10, Default: 3, Integer: true},
			{Name: "bee_death_draw_max", Path: "bee.death_draw_max", Min: 10, Max: 100, Default: 45, Integer: true},
			// Mites
			{Name: "mite_drop_chance", Path: "mite.drop_chance", Min: 0, Max: 0.2, Default: 0.02},
			{Name: "mite_settle_chance", Path: "mite.settle_chance", Min: 0.01, Max: 0.5, Default: 0.05},
			{Name: "mite_cap_ratio", Path: "mite.cap_ratio", Min: 1, Max: 10, Default: 4, Integer: true},
			{Name: "mite_parasitism_cost", Path: "mite.parasitism_cost", Min: 0, Max: 5, Default: 1, Integer: true},
			{Name: "mite_death_draw_max", Path: "mite.death_draw_max", Min: 10, Max: 100, Default: 45, Integer: true},
			{Name: "mite_transmit_chance", Path: "mite.transmit_chance", Min: 0, Max: 1, Default: 1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds and integer parameters are whole.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Max(spec.Min, math.Min(spec.Max, v[i]))
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	// Order must match Specs order
	i := 0
	next := func() float64 {
		v := clamped[i]
		i++
		return v
	}

	cfg.Bee.ForageAmount = int(next())
	cfg.Bee.VirusCost = int(next())
	cfg.Bee.DeathDrawMax = int(next())

	cfg.Mite.DropChance = next()
	cfg.Mite.SettleChance = next()
	cfg.Mite.CapRatio = int(next())
	cfg.Mite.ParasitismCost = int(next())
	cfg.Mite.DeathDrawMax = int(next())
	cfg.Mite.TransmitChance = next()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		float64(cfg.Bee.ForageAmount),
		float64(cfg.Bee.VirusCost),
		float64(cfg.Bee.DeathDrawMax),
		cfg.Mite.DropChance,
		cfg.Mite.SettleChance,
		float64(cfg.Mite.CapRatio),
		float64(cfg.Mite.ParasitismCost),
		float64(cfg.Mite.DeathDrawMax),
		cfg.Mite.TransmitChance,
	}
}
