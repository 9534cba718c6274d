package fieldio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pthm-cable/varbee/config"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    [][]int
		wantErr error
	}{
		{
			name:  "integers",
			input: "0,1,2\n3,4,5\n",
			want:  [][]int{{0, 1, 2}, {3, 4, 5}},
		},
		{
			name:  "floats and spaces",
			input: "0.0, 12.0, 7.9\n1, 2, 3\n",
			want:  [][]int{{0, 12, 7}, {1, 2, 3}},
		},
		{
			name:  "trailing commas and blank lines",
			input: "1,2,\n\n3,4,\n",
			want:  [][]int{{1, 2}, {3, 4}},
		},
		{
			name:    "ragged",
			input:   "1,2,3\n4,5\n",
			wantErr: ErrNotRectangular,
		},
		{
			name:    "empty",
			input:   "\n\n",
			wantErr: ErrEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("grid mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadRejectsBadValues(t *testing.T) {
	for _, input := range []string{"1,-2\n", "1,abc\n", "NaN,1\n"} {
		if _, err := Read(strings.NewReader(input)); err == nil {
			t.Errorf("Read(%q) succeeded, want error", input)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.csv")
	if err := os.WriteFile(path, []byte("0,50\n10,0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	grid, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([][]int{{0, 50}, {10, 0}}, grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestGenerate(t *testing.T) {
	cfg := config.GeneratorConfig{
		Width:       30,
		Height:      20,
		Scale:       0.1,
		Octaves:     3,
		Persistence: 0.5,
		Threshold:   0.5,
		MaxLevel:    200,
	}

	grid := Generate(cfg, 7)
	if len(grid) != cfg.Height || len(grid[0]) != cfg.Width {
		t.Fatalf("size = %dx%d, want %dx%d", len(grid[0]), len(grid), cfg.Width, cfg.Height)
	}
	for y, row := range grid {
		for x, v := range row {
			if v < 0 || v > cfg.MaxLevel {
				t.Fatalf("level at (%d,%d) = %d, want 0..%d", x, y, v, cfg.MaxLevel)
			}
		}
	}

	if diff := cmp.Diff(grid, Generate(cfg, 7)); diff != "" {
		t.Errorf("same seed produced different fields:\n%s", diff)
	}

	cfg.Threshold = 1.1
	for _, row := range Generate(cfg, 7) {
		for _, v := range row {
			if v != 0 {
				t.Fatal("threshold above noise range should leave the field bare")
			}
		}
	}
}

func TestFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "field.csv")
	if err := os.WriteFile(path, []byte("1,2\n3,4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default().Field
	cfg.Path = path
	grid, err := FromConfig(cfg, 1)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if diff := cmp.Diff([][]int{{1, 2}, {3, 4}}, grid); diff != "" {
		t.Errorf("loaded grid mismatch (-want +got):\n%s", diff)
	}

	cfg.Path = ""
	grid, err = FromConfig(cfg, 1)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(grid) != cfg.Generator.Height || len(grid[0]) != cfg.Generator.Width {
		t.Errorf("generated %dx%d grid, want %dx%d", len(grid[0]), len(grid), cfg.Generator.Width, cfg.Generator.Height)
	}
}
