package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/notargets/ReduceBench/bench"
)

func formatMicros(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// WriteSummaryCSV writes one row per size: the size, its exponent, then a
// mean and standard deviation per column in matrix order. Skipped cells are
// left empty.
func WriteSummaryCSV(w io.Writer, m *bench.Matrix) error {
	cw := csv.NewWriter(w)

	header := []string{"size", "exponent"}
	for _, column := range m.Columns {
		header = append(header, column+"_mean_us", column+"_stddev_us")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for exponent, size := range m.Sizes {
		row := []string{strconv.Itoa(size), strconv.Itoa(exponent)}
		for _, column := range m.Columns {
			c := m.Cell(exponent, column)
			if c.Skipped || len(c.Trials) == 0 {
				row = append(row, "", "")
				continue
			}
			row = append(row, formatMicros(c.Mean()), formatMicros(c.StdDev()))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTrialsCSV writes every trial of every matrix, one series per
// (mode, column, size) in trial order.
func WriteTrialsCSV(w io.Writer, matrices ...*bench.Matrix) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"mode", "column", "size", "trial", "elapsed_us", "scalar", "correct"}); err != nil {
		return err
	}

	for _, m := range matrices {
		for _, column := range m.Columns {
			for exponent, size := range m.Sizes {
				for trial, r := range m.Cell(exponent, column).Trials {
					row := []string{
						m.Mode.String(),
						column,
						strconv.Itoa(size),
						strconv.Itoa(trial),
						formatMicros(r.ElapsedMicroseconds()),
						strconv.FormatUint(uint64(r.Scalar), 10),
						strconv.FormatBool(r.Correct),
					}
					if err := cw.Write(row); err != nil {
						return err
					}
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// SkipLegend explains "-" cells in the console table
const SkipLegend = "- skipped: size is not a power of the group size (iterative) or has fewer elements than groups (fixed)"

// PrintSummary prints the mean table of one matrix, "-" marking skipped
// cells, followed by SkipLegend when any cell was skipped.
func PrintSummary(w io.Writer, m *bench.Matrix) error {
	fmt.Fprintf(w, "\nMean time (us), %s\n", m.Mode)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "size\t")
	for _, column := range m.Columns {
		fmt.Fprintf(tw, "%s\t", column)
	}
	fmt.Fprintln(tw)

	skipped := false
	for exponent, size := range m.Sizes {
		fmt.Fprintf(tw, "%d\t", size)
		for _, column := range m.Columns {
			c := m.Cell(exponent, column)
			if c.Skipped || len(c.Trials) == 0 {
				skipped = skipped || c.Skipped
				fmt.Fprint(tw, "-\t")
				continue
			}
			fmt.Fprintf(tw, "%.1f\t", c.Mean())
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if skipped {
		fmt.Fprintln(w, SkipLegend)
	}
	return nil
}

// WriteFiles writes summary_<mode>.csv for each matrix and a shared
// trials.csv into dir, returning the paths written.
func WriteFiles(dir string, matrices []*bench.Matrix) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	var paths []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err = fn(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err = f.Close(); err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}

	for _, m := range matrices {
		err := write("summary_"+m.Mode.String()+".csv", func(w io.Writer) error {
			return WriteSummaryCSV(w, m)
		})
		if err != nil {
			return paths, err
		}
	}
	err := write("trials.csv", func(w io.Writer) error {
		return WriteTrialsCSV(w, matrices...)
	})
	return paths, err
}
