package main

import (
	"testing"

	"github.com/pthm-cable/varbee/config"
)

func TestApplyPositional(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantPath  string
		wantIters int
		wantBees  int
		wantMites int
	}{
		{"none", nil, "", 100, 40, 40},
		{"field only", []string{"meadow.csv"}, "meadow.csv", 100, 40, 40},
		{"all", []string{"meadow.csv", "500", "10", "3"}, "meadow.csv", 500, 10, 3},
		{"non-positive keeps default", []string{"meadow.csv", "0", "-5", "7"}, "meadow.csv", 100, 40, 7},
		{"unparseable keeps default", []string{"meadow.csv", "lots"}, "meadow.csv", 100, 40, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			applyPositional(cfg, tt.args)
			if cfg.Field.Path != tt.wantPath {
				t.Errorf("path = %q, want %q", cfg.Field.Path, tt.wantPath)
			}
			if cfg.Simulation.Iterations != tt.wantIters || cfg.Population.Bees != tt.wantBees || cfg.Population.Mites != tt.wantMites {
				t.Errorf("got iterations=%d bees=%d mites=%d, want %d %d %d",
					cfg.Simulation.Iterations, cfg.Population.Bees, cfg.Population.Mites,
					tt.wantIters, tt.wantBees, tt.wantMites)
			}
		})
	}
}
