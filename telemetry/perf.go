package telemetry

import (
	"log/slog"
	"time"
)

// Phase is one stage of a simulation step.
type Phase uint8

const (
	PhaseHostIndex Phase = iota // Bee cell index for mites
	PhaseMites
	PhaseBees
	PhaseHives
	PhaseCleanup
	PhaseField
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{
	"host_index", "mites", "bees", "hives", "cleanup", "field", "telemetry",
}

// String returns the phase name used in logs and CSV headers.
func (p Phase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// tickSample is the timing of one step.
type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
	agents int // bees + mites alive in the registries at tick end
}

// PerfCollector times step phases over a ring of recent ticks.
type PerfCollector struct {
	samples []tickSample
	next    int
	filled  int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector keeps the last window ticks. Non-positive windows use 50.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 50
	}
	return &PerfCollector{samples: make([]tickSample, window)}
}

// StartTick begins timing a step.
func (p *PerfCollector) StartTick() {
	p.cur = tickSample{}
	p.tickStart = time.Now()
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = ph
	p.phaseStart = now
	p.inPhase = true
}

// EndTick closes the step. agents is the registry size the step left behind.
func (p *PerfCollector) EndTick(agents int) {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)
	p.cur.agents = agents
	p.record(p.cur)
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase < numPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

func (p *PerfCollector) record(s tickSample) {
	p.samples[p.next] = s
	p.next = (p.next + 1) % len(p.samples)
	if p.filled < len(p.samples) {
		p.filled++
	}
}

// PerfStats summarizes the ticks in the window.
type PerfStats struct {
	Ticks int

	TickMean time.Duration
	TickP50  time.Duration
	TickP90  time.Duration
	TickMax  time.Duration

	PhaseMean [numPhases]time.Duration
	PhasePct  [numPhases]float64 // Share of summed tick time

	AgentsMean     float64
	NsPerAgent     float64 // Mean tick time per live agent
	TicksPerSecond float64
}

// Stats aggregates the window. An empty window yields zero stats.
func (p *PerfCollector) Stats() PerfStats {
	n := p.filled
	if n == 0 {
		return PerfStats{}
	}

	ticks := make([]float64, n)
	var total, maxTick time.Duration
	var phaseSum [numPhases]time.Duration
	agents := 0
	for i, s := range p.samples[:n] {
		ticks[i] = float64(s.total)
		total += s.total
		if s.total > maxTick {
			maxTick = s.total
		}
		for ph, d := range s.phases {
			phaseSum[ph] += d
		}
		agents += s.agents
	}

	sum := Summarize(ticks)
	st := PerfStats{
		Ticks:      n,
		TickMean:   time.Duration(sum.Mean),
		TickP50:    time.Duration(sum.P50),
		TickP90:    time.Duration(sum.P90),
		TickMax:    maxTick,
		AgentsMean: float64(agents) / float64(n),
	}
	for ph := range phaseSum {
		st.PhaseMean[ph] = phaseSum[ph] / time.Duration(n)
		if total > 0 {
			st.PhasePct[ph] = float64(phaseSum[ph]) / float64(total) * 100
		}
	}
	if st.TickMean > 0 {
		st.TicksPerSecond = float64(time.Second) / float64(st.TickMean)
	}
	if st.AgentsMean > 0 {
		st.NsPerAgent = float64(st.TickMean) / st.AgentsMean
	}
	return st
}

// LogStats logs the window at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer. Phases under 0.1% are left out.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("mean_tick_us", s.TickMean.Microseconds()),
		slog.Int64("p90_tick_us", s.TickP90.Microseconds()),
		slog.Int64("max_tick_us", s.TickMax.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
		slog.Float64("ns_per_agent", s.NsPerAgent),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	Ticks        int     `csv:"ticks"`
	MeanTickUS   int64   `csv:"mean_tick_us"`
	P50TickUS    int64   `csv:"p50_tick_us"`
	P90TickUS    int64   `csv:"p90_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	AgentsMean   float64 `csv:"agents_mean"`
	NsPerAgent   float64 `csv:"ns_per_agent"`
	HostIndexPct float64 `csv:"host_index_pct"`
	MitesPct     float64 `csv:"mites_pct"`
	BeesPct      float64 `csv:"bees_pct"`
	HivesPct     float64 `csv:"hives_pct"`
	CleanupPct   float64 `csv:"cleanup_pct"`
	FieldPct     float64 `csv:"field_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		Ticks:        s.Ticks,
		MeanTickUS:   s.TickMean.Microseconds(),
		P50TickUS:    s.TickP50.Microseconds(),
		P90TickUS:    s.TickP90.Microseconds(),
		MaxTickUS:    s.TickMax.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		AgentsMean:   s.AgentsMean,
		NsPerAgent:   s.NsPerAgent,
		HostIndexPct: s.PhasePct[PhaseHostIndex],
		MitesPct:     s.PhasePct[PhaseMites],
		BeesPct:      s.PhasePct[PhaseBees],
		HivesPct:     s.PhasePct[PhaseHives],
		CleanupPct:   s.PhasePct[PhaseCleanup],
		FieldPct:     s.PhasePct[PhaseField],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
