package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/varbee/components"
)

// PopulationSample is one row of results.csv.
type PopulationSample struct {
	Tick  int32 `csv:"tick"`
	Bees  int   `csv:"bees"`
	Mites int   `csv:"mites"`
}

// Series is the per-tick population record.
type Series struct {
	samples []PopulationSample
}

// NewSeries creates a series with room for n ticks.
func NewSeries(n int) *Series {
	if n < 0 {
		n = 0
	}
	return &Series{samples: make([]PopulationSample, 0, n)}
}

// Append records the live counts after a tick.
func (s *Series) Append(tick int32, bees, mites int) {
	s.samples = append(s.samples, PopulationSample{Tick: tick, Bees: bees, Mites: mites})
}

// Samples returns the recorded rows. The slice must not be modified.
func (s *Series) Samples() []PopulationSample {
	return s.samples
}

// Len returns the number of recorded ticks.
func (s *Series) Len() int {
	return len(s.samples)
}

// Last returns the latest sample, or false if nothing was recorded.
func (s *Series) Last() (PopulationSample, bool) {
	if len(s.samples) == 0 {
		return PopulationSample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// WriteCSV writes the series with a header row.
func (s *Series) WriteCSV(w io.Writer) error {
	if err := gocsv.Marshal(s.samples, w); err != nil {
		return fmt.Errorf("writing population series: %w", err)
	}
	return nil
}

// HeatMap counts, per field cell, the ticks in which a live bee stood there.
type HeatMap struct {
	width  int
	height int
	counts []int // row-major
}

// NewHeatMap creates an empty heat map for a width x height field.
func NewHeatMap(width, height int) *HeatMap {
	return &HeatMap{
		width:  width,
		height: height,
		counts: make([]int, width*height),
	}
}

// Observe adds one observation at p. Positions off the field are ignored.
func (h *HeatMap) Observe(p components.Position) {
	if p.X < 0 || p.Y < 0 || p.X >= h.width || p.Y >= h.height {
		return
	}
	h.counts[p.Y*h.width+p.X]++
}

// At returns the count at p.
func (h *HeatMap) At(p components.Position) int {
	if p.X < 0 || p.Y < 0 || p.X >= h.width || p.Y >= h.height {
		return 0
	}
	return h.counts[p.Y*h.width+p.X]
}

// Total returns the sum of all counts.
func (h *HeatMap) Total() int {
	var sum int
	for _, c := range h.counts {
		sum += c
	}
	return sum
}

// Rows returns a copy of the counts as a grid indexed [y][x].
func (h *HeatMap) Rows() [][]int {
	rows := make([][]int, h.height)
	for y := range rows {
		rows[y] = make([]int, h.width)
		copy(rows[y], h.counts[y*h.width:(y+1)*h.width])
	}
	return rows
}

// WriteCSV writes one CSV line per field row, without a header.
func (h *HeatMap) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	record := make([]string, h.width)
	for y := 0; y < h.height; y++ {
		for x := 0; x < h.width; x++ {
			record[x] = strconv.Itoa(h.counts[y*h.width+x])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing heat map row %d: %w", y, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing heat map: %w", err)
	}
	return nil
}
