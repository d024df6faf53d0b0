package bench

import (
	"time"

	"github.com/notargets/ReduceBench/config"
	"gonum.org/v1/gonum/stat"
)

// Host baseline columns, always first in a matrix
const (
	ColumnHostSingle = "host-single"
	ColumnHostMulti  = "host-multi"
)

// TrialResult is one timed reduction
type TrialResult struct {
	Elapsed time.Duration
	Scalar  uint32
	Correct bool
}

// ElapsedMicroseconds returns the elapsed time in microseconds
func (r TrialResult) ElapsedMicroseconds() float64 {
	return float64(r.Elapsed.Nanoseconds()) / 1e3
}

// Cell holds the trial series of one (size, column) pair
type Cell struct {
	Trials     []TrialResult
	Skipped    bool
	SkipReason string
}

// Series returns the trial times in microseconds, in trial order
func (c *Cell) Series() []float64 {
	xs := make([]float64, len(c.Trials))
	for i, t := range c.Trials {
		xs[i] = t.ElapsedMicroseconds()
	}
	return xs
}

// Mean is the arithmetic mean trial time in microseconds
func (c *Cell) Mean() float64 {
	if len(c.Trials) == 0 {
		return 0
	}
	return stat.Mean(c.Series(), nil)
}

// StdDev is the sample standard deviation in microseconds
func (c *Cell) StdDev() float64 {
	if len(c.Trials) < 2 {
		return 0
	}
	return stat.StdDev(c.Series(), nil)
}

// Matrix is the result of one sweep: a cell per (size, column)
type Matrix struct {
	Mode    config.TimingMode
	Sizes   []int
	Columns []string
	cells   [][]*Cell
	columns map[string]int
}

// NewMatrix creates an empty matrix with one cell per size and column
func NewMatrix(mode config.TimingMode, sizes []int, columns []string) *Matrix {
	m := &Matrix{
		Mode:    mode,
		Sizes:   append([]int(nil), sizes...),
		Columns: append([]string(nil), columns...),
		cells:   make([][]*Cell, len(sizes)),
		columns: make(map[string]int, len(columns)),
	}
	for j, name := range columns {
		m.columns[name] = j
	}
	for i := range m.cells {
		m.cells[i] = make([]*Cell, len(columns))
		for j := range m.cells[i] {
			m.cells[i][j] = &Cell{}
		}
	}
	return m
}

// Cell returns the cell for a size exponent and column, or nil if either
// is out of range.
func (m *Matrix) Cell(exponent int, column string) *Cell {
	j, ok := m.columns[column]
	if !ok || exponent < 0 || exponent >= len(m.cells) {
		return nil
	}
	return m.cells[exponent][j]
}

// Means returns the per-column means for one size exponent, in column order
func (m *Matrix) Means(exponent int) []float64 {
	means := make([]float64, len(m.Columns))
	for j := range m.Columns {
		means[j] = m.cells[exponent][j].Mean()
	}
	return means
}

// Record appends a trial to a cell. The cell must exist.
func (m *Matrix) Record(exponent int, column string, r TrialResult) {
	c := m.Cell(exponent, column)
	c.Trials = append(c.Trials, r)
}

// Skip marks a cell as not applicable at its size
func (m *Matrix) Skip(exponent int, column, reason string) {
	c := m.Cell(exponent, column)
	c.Skipped = true
	c.SkipReason = reason
}
