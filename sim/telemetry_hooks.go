package sim

import (
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/varbee/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick, s.samplePopulation())
	perfStats := s.perfCollector.Stats()

	// Call stats callback if provided
	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

// samplePopulation gathers the end-of-window state of both registries.
func (s *Simulation) samplePopulation() telemetry.Population {
	pop := telemetry.Population{
		Bees:       s.numBees,
		Mites:      s.numMites,
		HiveStore:  s.hives.TotalStore(),
		FieldTotal: s.field.Total(),

		BeeLifespans:  make([]float64, 0, s.numBees),
		MiteLifespans: make([]float64, 0, s.numMites),
	}

	beeQuery := s.beeFilter.Query()
	for beeQuery.Next() {
		_, life, _ := beeQuery.Get()
		pop.BeeLifespans = append(pop.BeeLifespans, float64(life.Lifespan))
		if life.VirusPresent {
			pop.InfectedBees++
		}
	}

	miteQuery := s.miteFilter.Query()
	for miteQuery.Next() {
		_, life, mite := miteQuery.Get()
		pop.MiteLifespans = append(pop.MiteLifespans, float64(life.Lifespan))
		if life.VirusPresent {
			pop.InfectedMites++
		}
		if mite.Attached {
			pop.AttachedMites++
		}
	}

	return pop
}

// logProgress reports how far a Run has got.
func (s *Simulation) logProgress(done, total int) {
	pct := 100.0
	if total > 0 {
		pct = float64(done) / float64(total) * 100
	}
	slog.Info("progress",
		"run_id", s.runID,
		"tick", s.tick,
		"done", humanize.Comma(int64(done)),
		"total", humanize.Comma(int64(total)),
		"percent", humanize.FtoaWithDigits(pct, 1),
		"bees", humanize.Comma(int64(s.numBees)),
		"mites", humanize.Comma(int64(s.numMites)),
		"hive_store", humanize.Comma(int64(s.hives.TotalStore())),
	)
}
