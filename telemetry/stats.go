package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int32 `csv:"-"`
	WindowEndTick   int32 `csv:"window_end"`

	// Population counts at window end
	Bees          int `csv:"bees"`
	Mites         int `csv:"mites"`
	InfectedBees  int `csv:"infected_bees"`
	InfectedMites int `csv:"infected_mites"`
	AttachedMites int `csv:"attached_mites"`

	// Events during window
	BeeBirths  int `csv:"bee_births"`
	BeeDeaths  int `csv:"bee_deaths"`
	MiteBirths int `csv:"mite_births"`
	MiteDeaths int `csv:"mite_deaths"`

	// Foraging
	FlowersFound    int `csv:"flowers_found"`
	Harvests        int `csv:"harvests"`
	EmptyFlowers    int `csv:"empty_flowers"`
	Deposits        int `csv:"deposits"`
	NectarExtracted int `csv:"nectar_extracted"`
	NectarDeposited int `csv:"nectar_deposited"`

	// Parasitism
	Attachments int `csv:"attachments"`
	Arrivals    int `csv:"arrivals"`
	Drops       int `csv:"drops"`
	Orphaned    int `csv:"orphaned"`
	Infections  int `csv:"infections"`

	// Ticks in the window where a hive could not grow
	ExtinctTicks int `csv:"extinct_ticks"`

	// Lifespan distribution of live agents (sampled at window end)
	BeeLifespanMean  float64 `csv:"bee_lifespan_mean"`
	BeeLifespanStd   float64 `csv:"bee_lifespan_std"`
	BeeLifespanP50   float64 `csv:"bee_lifespan_p50"`
	MiteLifespanMean float64 `csv:"mite_lifespan_mean"`
	MiteLifespanStd  float64 `csv:"mite_lifespan_std"`
	MiteLifespanP50  float64 `csv:"mite_lifespan_p50"`

	// Age at death over the window
	BeeAgeAtDeath  float64 `csv:"bee_age_at_death"`
	MiteAgeAtDeath float64 `csv:"mite_age_at_death"`

	// Stores
	HiveStore  int `csv:"hive_store"`
	FieldTotal int `csv:"field_total"`
}

// Summary holds mean, standard deviation and quantiles of a sample.
type Summary struct {
	Mean float64
	Std  float64
	P10  float64
	P50  float64
	P90  float64
}

// Summarize computes a Summary. Std is the sample standard deviation and
// is 0 for fewer than two values.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var s Summary
	if n == 1 {
		s.Mean = sorted[0]
	} else {
		s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
		if math.IsNaN(s.Std) {
			s.Std = 0
		}
	}
	s.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	s.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Int("bees", s.Bees),
		slog.Int("mites", s.Mites),
		slog.Int("infected_bees", s.InfectedBees),
		slog.Int("infected_mites", s.InfectedMites),
		slog.Int("attached_mites", s.AttachedMites),
		slog.Int("bee_births", s.BeeBirths),
		slog.Int("bee_deaths", s.BeeDeaths),
		slog.Int("mite_births", s.MiteBirths),
		slog.Int("mite_deaths", s.MiteDeaths),
		slog.Int("deposits", s.Deposits),
		slog.Int("nectar_deposited", s.NectarDeposited),
		slog.Int("attachments", s.Attachments),
		slog.Int("drops", s.Drops),
		slog.Int("orphaned", s.Orphaned),
		slog.Int("extinct_ticks", s.ExtinctTicks),
		slog.Float64("bee_lifespan_mean", s.BeeLifespanMean),
		slog.Float64("mite_lifespan_mean", s.MiteLifespanMean),
		slog.Int("hive_store", s.HiveStore),
		slog.Int("field_total", s.FieldTotal),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"bees", s.Bees,
		"mites", s.Mites,
		"infected_bees", s.InfectedBees,
		"attached_mites", s.AttachedMites,
		"bee_births", s.BeeBirths,
		"bee_deaths", s.BeeDeaths,
		"mite_births", s.MiteBirths,
		"mite_deaths", s.MiteDeaths,
		"flowers_found", s.FlowersFound,
		"harvests", s.Harvests,
		"deposits", s.Deposits,
		"nectar_deposited", s.NectarDeposited,
		"attachments", s.Attachments,
		"arrivals", s.Arrivals,
		"drops", s.Drops,
		"orphaned", s.Orphaned,
		"infections", s.Infections,
		"extinct_ticks", s.ExtinctTicks,
		"bee_lifespan_mean", s.BeeLifespanMean,
		"bee_lifespan_p50", s.BeeLifespanP50,
		"mite_lifespan_mean", s.MiteLifespanMean,
		"bee_age_at_death", s.BeeAgeAtDeath,
		"mite_age_at_death", s.MiteAgeAtDeath,
		"hive_store", s.HiveStore,
		"field_total", s.FieldTotal,
	)
}
