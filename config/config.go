// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned (wrapped) when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Field      FieldConfig      `yaml:"field"`
	Population PopulationConfig `yaml:"population"`
	Hives      []HiveConfig     `yaml:"hives"`
	Bee        BeeConfig        `yaml:"bee"`
	Mite       MiteConfig       `yaml:"mite"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// SimulationConfig holds run-level parameters.
type SimulationConfig struct {
	Iterations       int   `yaml:"iterations"`
	Seed             int64 `yaml:"seed"`               // 0 = time-based
	StopOnExtinction bool  `yaml:"stop_on_extinction"` // End the run early once no bees are left
	ProgressInterval int   `yaml:"progress_interval"`  // Ticks between progress logs (0 disables)
}

// FieldConfig holds resource field parameters.
type FieldConfig struct {
	Path             string          `yaml:"path"`              // CSV grid; empty = generate
	ReplenishDivisor int             `yaml:"replenish_divisor"` // rate = original^2 / divisor
	Generator        GeneratorConfig `yaml:"generator"`
}

// GeneratorConfig holds parameters for the procedural meadow used when no CSV is given.
type GeneratorConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Scale       float64 `yaml:"scale"`       // Base noise frequency
	Octaves     int     `yaml:"octaves"`     // Noise layers
	Persistence float64 `yaml:"persistence"` // Amplitude multiplier per octave
	Threshold   float64 `yaml:"threshold"`   // Noise below this is bare ground
	MaxLevel    int     `yaml:"max_level"`   // Level at noise = 1
}

// PopulationConfig holds initial agent counts.
type PopulationConfig struct {
	Bees  int `yaml:"bees"`
	Mites int `yaml:"mites"`
}

// HiveConfig is a hive location in field coordinates (X = column, Y = row).
type HiveConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// BeeConfig holds bee behavior parameters.
type BeeConfig struct {
	Lifespan           int     `yaml:"lifespan"`
	ForageAmount       int     `yaml:"forage_amount"`  // Max nectar taken per flower visit
	VirusCost          int     `yaml:"virus_cost"`     // Extra lifespan lost per tick when infected
	DeathDrawMax       int     `yaml:"death_draw_max"` // Death when lifespan < uniform[0, this]
	InitialVirusChance float64 `yaml:"initial_virus_chance"`
}

// MiteConfig holds mite behavior parameters.
type MiteConfig struct {
	Lifespan           int     `yaml:"lifespan"`
	DropChance         float64 `yaml:"drop_chance"`     // Per-tick chance to fall off a host
	SettleChance       float64 `yaml:"settle_chance"`   // Per-tick chance to leave REPRODUCE
	CapRatio           int     `yaml:"cap_ratio"`       // Soft cap: mites per bee
	ParasitismCost     int     `yaml:"parasitism_cost"` // Host lifespan lost per tick
	DeathDrawMax       int     `yaml:"death_draw_max"`
	InitialVirusChance float64 `yaml:"initial_virus_chance"`
	TransmitChance     float64 `yaml:"transmit_chance"` // Virus crossing chance on attach
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int             `yaml:"stats_window"` // Ticks per stats window
	BookmarkHistorySize int             `yaml:"bookmark_history_size"`
	PerfCollectorWindow int             `yaml:"perf_collector_window"`
	Bookmarks           BookmarksConfig `yaml:"bookmarks"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	BeeCrash     BeeCrashConfig     `yaml:"bee_crash"`
	StableColony StableColonyConfig `yaml:"stable_colony"`
}

// BeeCrashConfig holds bee crash detection parameters.
type BeeCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// StableColonyConfig holds stable colony detection parameters.
type StableColonyConfig struct {
	MinBees       int     `yaml:"min_bees"`
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file; a hives list replaces the default one.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Errors wrap ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Simulation.Iterations > 0, "simulation.iterations must be positive, got %d", c.Simulation.Iterations)
	check(c.Simulation.ProgressInterval >= 0, "simulation.progress_interval must be >= 0")
	check(c.Field.ReplenishDivisor > 0, "field.replenish_divisor must be positive, got %d", c.Field.ReplenishDivisor)
	if c.Field.Path == "" {
		g := c.Field.Generator
		check(g.Width > 0 && g.Height > 0, "field.generator size must be positive, got %dx%d", g.Width, g.Height)
		check(g.Octaves > 0, "field.generator.octaves must be positive")
		check(g.MaxLevel >= 0, "field.generator.max_level must be >= 0")
	}
	check(c.Population.Bees >= 0, "population.bees must be >= 0, got %d", c.Population.Bees)
	check(c.Population.Mites >= 0, "population.mites must be >= 0, got %d", c.Population.Mites)
	check(c.Bee.ForageAmount > 0, "bee.forage_amount must be positive")
	check(c.Bee.Lifespan >= 0, "bee.lifespan must be >= 0, got %d", c.Bee.Lifespan)
	check(c.Bee.VirusCost >= 0, "bee.virus_cost must be >= 0, got %d", c.Bee.VirusCost)
	check(c.Bee.DeathDrawMax >= 0, "bee.death_draw_max must be >= 0")
	check(c.Mite.Lifespan >= 0, "mite.lifespan must be >= 0, got %d", c.Mite.Lifespan)
	check(c.Mite.ParasitismCost >= 0, "mite.parasitism_cost must be >= 0, got %d", c.Mite.ParasitismCost)
	check(c.Mite.DeathDrawMax >= 0, "mite.death_draw_max must be >= 0")
	check(c.Mite.CapRatio >= 0, "mite.cap_ratio must be >= 0")
	for name, p := range map[string]float64{
		"bee.initial_virus_chance":  c.Bee.InitialVirusChance,
		"mite.initial_virus_chance": c.Mite.InitialVirusChance,
		"mite.drop_chance":          c.Mite.DropChance,
		"mite.settle_chance":        c.Mite.SettleChance,
		"mite.transmit_chance":      c.Mite.TransmitChance,
	} {
		check(p >= 0 && p <= 1, "%s must be in [0,1], got %v", name, p)
	}
	check(c.Telemetry.StatsWindow > 0, "telemetry.stats_window must be positive")

	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
