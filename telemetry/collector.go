// Package telemetry provides windowed colony statistics, bookmarks, perf timing
// and CSV output.
package telemetry

import "github.com/pthm-cable/varbee/systems"

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	beeBirths  int
	miteBirths int
	bees       systems.BeeEvents
	mites      systems.MiteEvents

	extinctTicks int

	beeAges  []float64
	miteAges []float64
}

// NewCollector creates a stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowDurationTicks: int32(windowTicks)}
}

// RecordBeeEvents adds one bee pass.
func (c *Collector) RecordBeeEvents(ev systems.BeeEvents) {
	c.bees.FlowersFound += ev.FlowersFound
	c.bees.Harvests += ev.Harvests
	c.bees.Extracted += ev.Extracted
	c.bees.EmptyFlowers += ev.EmptyFlowers
	c.bees.Deposits += ev.Deposits
	c.bees.NectarDeposited += ev.NectarDeposited
	c.bees.Deaths += ev.Deaths
}

// RecordMiteEvents adds one mite pass.
func (c *Collector) RecordMiteEvents(ev systems.MiteEvents) {
	c.mites.Attachments += ev.Attachments
	c.mites.Arrivals += ev.Arrivals
	c.mites.Drops += ev.Drops
	c.mites.Settles += ev.Settles
	c.mites.Orphaned += ev.Orphaned
	c.mites.Infections += ev.Infections
	c.mites.Deaths += ev.Deaths
	c.miteBirths += ev.Births
}

// RecordBeeBirth records a bee spawned by a hive.
func (c *Collector) RecordBeeBirth() {
	c.beeBirths++
}

// RecordExtinctTick records a tick in which a hive could not grow.
func (c *Collector) RecordExtinctTick() {
	c.extinctTicks++
}

// RecordBeeAgeAtDeath records how many ticks a purged bee lived.
func (c *Collector) RecordBeeAgeAtDeath(age int32) {
	c.beeAges = append(c.beeAges, float64(age))
}

// RecordMiteAgeAtDeath records how many ticks a purged mite lived.
func (c *Collector) RecordMiteAgeAtDeath(age int32) {
	c.miteAges = append(c.miteAges, float64(age))
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Population is the state sampled at window end.
type Population struct {
	Bees          int
	Mites         int
	InfectedBees  int
	InfectedMites int
	AttachedMites int
	HiveStore     int
	FieldTotal    int

	BeeLifespans  []float64
	MiteLifespans []float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop Population) WindowStats {
	beeLife := Summarize(pop.BeeLifespans)
	miteLife := Summarize(pop.MiteLifespans)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Bees:          pop.Bees,
		Mites:         pop.Mites,
		InfectedBees:  pop.InfectedBees,
		InfectedMites: pop.InfectedMites,
		AttachedMites: pop.AttachedMites,

		BeeBirths:  c.beeBirths,
		BeeDeaths:  c.bees.Deaths,
		MiteBirths: c.miteBirths,
		MiteDeaths: c.mites.Deaths,

		FlowersFound:    c.bees.FlowersFound,
		Harvests:        c.bees.Harvests,
		EmptyFlowers:    c.bees.EmptyFlowers,
		Deposits:        c.bees.Deposits,
		NectarExtracted: c.bees.Extracted,
		NectarDeposited: c.bees.NectarDeposited,

		Attachments: c.mites.Attachments,
		Arrivals:    c.mites.Arrivals,
		Drops:       c.mites.Drops,
		Orphaned:    c.mites.Orphaned,
		Infections:  c.mites.Infections,

		ExtinctTicks: c.extinctTicks,

		BeeLifespanMean:  beeLife.Mean,
		BeeLifespanStd:   beeLife.Std,
		BeeLifespanP50:   beeLife.P50,
		MiteLifespanMean: miteLife.Mean,
		MiteLifespanStd:  miteLife.Std,
		MiteLifespanP50:  miteLife.P50,

		BeeAgeAtDeath:  Summarize(c.beeAges).Mean,
		MiteAgeAtDeath: Summarize(c.miteAges).Mean,

		HiveStore:  pop.HiveStore,
		FieldTotal: pop.FieldTotal,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.beeBirths = 0
	c.miteBirths = 0
	c.bees = systems.BeeEvents{}
	c.mites = systems.MiteEvents{}
	c.extinctTicks = 0
	c.beeAges = c.beeAges[:0]
	c.miteAges = c.miteAges[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
