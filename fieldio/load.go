// Package fieldio reads and generates nectar fields.
package fieldio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrNotRectangular is returned when grid rows have different lengths.
var ErrNotRectangular = errors.New("field grid is not rectangular")

// ErrEmpty is returned for a grid with no cells.
var ErrEmpty = errors.New("field grid is empty")

// Load reads a field grid from a CSV file.
func Load(path string) ([][]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening field: %w", err)
	}
	defer f.Close()

	grid, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading field %s: %w", path, err)
	}
	return grid, nil
}

// Read parses a CSV grid of non-negative levels, one field row per line.
// Values may be written as floats ("12.0") and are truncated. Empty cells
// and blank lines are skipped, and every remaining row must have the same
// number of values.
func Read(r io.Reader) ([][]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var grid [][]int
	line := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing csv: %w", err)
		}
		line++

		row := make([]int, 0, len(record))
		for col, cell := range record {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := parseLevel(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, col+1, err)
			}
			row = append(row, v)
		}
		if len(row) == 0 {
			continue
		}
		if len(grid) > 0 && len(row) != len(grid[0]) {
			return nil, fmt.Errorf("line %d has %d values, want %d: %w", line, len(row), len(grid[0]), ErrNotRectangular)
		}
		grid = append(grid, row)
	}

	if len(grid) == 0 {
		return nil, ErrEmpty
	}
	return grid, nil
}

func parseLevel(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("negative level %d", v)
		}
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid level %q", s)
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid level %q", s)
	}
	return int(f), nil
}
