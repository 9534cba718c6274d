package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/varbee/components"
	"github.com/pthm-cable/varbee/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Nil receiver is a no-op
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteResults(NewSeries(0)); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	series := NewSeries(3)
	series.Append(1, 41, 40)
	series.Append(2, 42, 38)
	series.Append(3, 40, 39)

	heat := NewHeatMap(3, 2)
	heat.Observe(components.Position{X: 2, Y: 1})
	heat.Observe(components.Position{X: 2, Y: 1})
	heat.Observe(components.Position{X: 0, Y: 0})
	heat.Observe(components.Position{X: 5, Y: 5})

	for _, write := range []func() error{
		func() error { return om.WriteConfig(config.Default()) },
		func() error { return om.WriteTelemetry(WindowStats{WindowEndTick: 10, Bees: 40}) },
		func() error { return om.WriteTelemetry(WindowStats{WindowEndTick: 20, Bees: 45}) },
		func() error { return om.WritePerf(PerfStats{}, 10) },
		func() error { return om.WriteBookmark(Bookmark{Type: BookmarkBeeCrash, Tick: 20, Description: "x"}) },
		func() error { return om.WriteResults(series) },
		func() error { return om.WriteHeatMap(heat) },
	} {
		if err := write(); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	read := func(name string) []string {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}

	results := read("results.csv")
	if len(results) != 4 || results[0] != "tick,bees,mites" || results[2] != "2,42,38" {
		t.Errorf("results.csv = %q", results)
	}

	heatRows := read("heatmap.csv")
	if len(heatRows) != 2 || heatRows[0] != "1,0,0" || heatRows[1] != "0,0,2" {
		t.Errorf("heatmap.csv = %q", heatRows)
	}

	telemetry := read("telemetry.csv")
	if len(telemetry) != 3 || !strings.HasPrefix(telemetry[0], "window_end,bees,") {
		t.Errorf("telemetry.csv should have one header and two rows, got %q", telemetry)
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}

func TestHeatMap(t *testing.T) {
	h := NewHeatMap(4, 3)
	h.Observe(components.Position{X: 3, Y: 2})
	h.Observe(components.Position{X: -1, Y: 0})
	h.Observe(components.Position{X: 4, Y: 0})

	if got := h.At(components.Position{X: 3, Y: 2}); got != 1 {
		t.Errorf("At(3,2) = %d, want 1", got)
	}
	if got := h.Total(); got != 1 {
		t.Errorf("Total = %d, want 1 (off-field observations ignored)", got)
	}
	rows := h.Rows()
	if len(rows) != 3 || len(rows[0]) != 4 || rows[2][3] != 1 {
		t.Errorf("Rows = %v", rows)
	}
}

func TestLifetimeTracker(t *testing.T) {
	w := ecs.NewWorld()
	bee := ecs.NewMap1[components.Position](w).NewEntity(&components.Position{})

	lt := NewLifetimeTracker()
	lt.Register(bee, 5)
	if age, ok := lt.Remove(bee, 17); !ok || age != 12 {
		t.Errorf("Remove = %d, %v; want 12, true", age, ok)
	}
	if _, ok := lt.Remove(bee, 20); ok {
		t.Error("second Remove found the agent again")
	}
	if lt.Len() != 0 {
		t.Errorf("Len = %d, want 0", lt.Len())
	}
}
