package telemetry

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/varbee/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkColonyExtinct BookmarkType = "colony_extinct"
	BookmarkMitesExtinct  BookmarkType = "mites_extinct"
	BookmarkMiteOutbreak  BookmarkType = "mite_outbreak"
	BookmarkBeeCrash      BookmarkType = "bee_crash"
	BookmarkStableColony  BookmarkType = "stable_colony"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	cfg      config.BookmarksConfig
	capRatio int

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentBeePeak      int  // peak bee count since the last crash
	stableWindowsCount int  // consecutive windows with a steady colony
	colonyExtinct      bool // one-shot
	mitesSeen          bool
	mitesExtinct       bool // one-shot
	inOutbreak         bool // re-arms once the outbreak ends
}

// NewBookmarkDetector creates a detector with the given history size.
// capRatio is the mite-per-bee ratio that counts as an outbreak.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig, capRatio int) *BookmarkDetector {
	if historySize < 2 {
		historySize = 2
	}
	return &BookmarkDetector{
		cfg:         cfg,
		capRatio:    capRatio,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	for _, check := range []func(WindowStats) *Bookmark{
		bd.checkColonyExtinct,
		bd.checkMitesExtinct,
		bd.checkMiteOutbreak,
		bd.checkBeeCrash,
		bd.checkStableColony,
	} {
		if b := check(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Bees > bd.recentBeePeak {
		bd.recentBeePeak = stats.Bees
	}
	if stats.Mites > 0 {
		bd.mitesSeen = true
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the stored windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	out := make([]WindowStats, 0, bd.historySize)
	out = append(out, bd.history[bd.historyIdx:]...)
	return append(out, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkColonyExtinct(stats WindowStats) *Bookmark {
	if bd.colonyExtinct || stats.Bees > 0 {
		return nil
	}
	bd.colonyExtinct = true
	return &Bookmark{
		Type:        BookmarkColonyExtinct,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("No bees left; %d mites remain", stats.Mites),
	}
}

func (bd *BookmarkDetector) checkMitesExtinct(stats WindowStats) *Bookmark {
	if bd.mitesExtinct || !bd.mitesSeen || stats.Mites > 0 {
		return nil
	}
	bd.mitesExtinct = true
	return &Bookmark{
		Type:        BookmarkMitesExtinct,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Mites died out with %d bees alive", stats.Bees),
	}
}

func (bd *BookmarkDetector) checkMiteOutbreak(stats WindowStats) *Bookmark {
	if stats.Bees == 0 || bd.capRatio <= 0 {
		bd.inOutbreak = false
		return nil
	}
	over := stats.Mites >= bd.capRatio*stats.Bees
	if !over {
		bd.inOutbreak = false
		return nil
	}
	if bd.inOutbreak {
		return nil
	}
	bd.inOutbreak = true
	return &Bookmark{
		Type:        BookmarkMiteOutbreak,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d mites on %d bees reached the %dx cap", stats.Mites, stats.Bees, bd.capRatio),
	}
}

func (bd *BookmarkDetector) checkBeeCrash(stats WindowStats) *Bookmark {
	if bd.recentBeePeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Bees)/float64(bd.recentBeePeak)
	if dropPercent >= bd.cfg.BeeCrash.DropPercent && bd.recentBeePeak-stats.Bees >= bd.cfg.BeeCrash.MinDrop {
		// Reset peak after crash
		oldPeak := bd.recentBeePeak
		bd.recentBeePeak = stats.Bees

		return &Bookmark{
			Type:        BookmarkBeeCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Bees crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Bees),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStableColony(stats WindowStats) *Bookmark {
	sc := bd.cfg.StableColony
	if stats.Bees < sc.MinBees || stats.Mites == 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	recent := append(history[len(history)-3:len(history):len(history)], stats)

	var sum float64
	for _, h := range recent {
		sum += float64(h.Bees)
	}
	mean := sum / float64(len(recent))

	var variance float64
	for _, h := range recent {
		d := float64(h.Bees) - mean
		variance += d * d
	}
	variance /= float64(len(recent))

	cv := 0.0
	if mean > 0 {
		cv = math.Sqrt(variance) / mean
	}

	if cv < sc.CVThreshold {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == sc.StableWindows { // trigger once per stable stretch
		return &Bookmark{
			Type:        BookmarkStableColony,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Colony steady at %d bees with %d mites over %d windows", stats.Bees, stats.Mites, sc.StableWindows),
		}
	}

	return nil
}
