package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/notargets/ReduceBench/config"
	"github.com/notargets/ReduceBench/dataset"
	"github.com/notargets/ReduceBench/hostsum"
	"github.com/notargets/ReduceBench/reduce"
	"github.com/notargets/ReduceBench/strategy"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// Reducer runs one device reduction. *reduce.Orchestrator implements it.
type Reducer interface {
	Prepare(s strategy.Strategy) error
	Run(s strategy.Strategy, data dataset.Dataset, mode config.TimingMode) (reduce.Result, error)
}

// CorrectnessError reports a trial whose scalar disagrees with the
// single-threaded host reference.
type CorrectnessError struct {
	Mode     config.TimingMode
	Column   string
	Size     int
	Trial    int
	Expected uint32
	Actual   uint32
}

func (e *CorrectnessError) Error() string {
	return fmt.Sprintf("%s: %s at size %d trial %d: expected %d, got %d",
		e.Mode, e.Column, e.Size, e.Trial, e.Expected, e.Actual)
}

// Runner sweeps every configured size through the host baselines and each
// selected strategy.
type Runner struct {
	cfg        config.Config
	strategies []strategy.Strategy
	reducer    Reducer
	gen        *dataset.Generator
	log        zerolog.Logger

	// Progress bars are drawn here when cfg.Progress is set
	ProgressWriter io.Writer
}

// NewRunner creates a trial runner. The generator is shared by every sweep.
func NewRunner(cfg config.Config, strategies []strategy.Strategy, reducer Reducer,
	gen *dataset.Generator, log zerolog.Logger) *Runner {
	return &Runner{
		cfg:            cfg,
		strategies:     strategies,
		reducer:        reducer,
		gen:            gen,
		log:            log,
		ProgressWriter: os.Stderr,
	}
}

// Columns returns the matrix column names: host baselines, then strategies
// in selection order.
func (r *Runner) Columns() []string {
	return append([]string{ColumnHostSingle, ColumnHostMulti}, strategy.Names(r.strategies)...)
}

// RunAll performs one sweep per configured timing mode, in order
func (r *Runner) RunAll(ctx context.Context) ([]*Matrix, error) {
	modes, err := r.cfg.Modes()
	if err != nil {
		return nil, err
	}
	matrices := make([]*Matrix, 0, len(modes))
	for _, mode := range modes {
		m, err := r.Sweep(ctx, mode)
		if err != nil {
			return matrices, err
		}
		matrices = append(matrices, m)
	}
	return matrices, nil
}

// Sweep fills one matrix for a timing mode. The first error aborts the
// sweep; a strategy that cannot reduce a size is skipped for that size.
func (r *Runner) Sweep(ctx context.Context, mode config.TimingMode) (*Matrix, error) {
	sizes := r.cfg.Sizes()
	m := NewMatrix(mode, sizes, r.Columns())
	log := r.log.With().Stringer("mode", mode).Logger()

	for _, s := range r.strategies {
		if err := r.reducer.Prepare(s); err != nil {
			return m, err
		}
	}

	bar := r.newBar(len(sizes)*len(m.Columns)*r.cfg.Trials, mode.String())
	defer func() { _ = bar.Finish() }()

	for exponent, size := range sizes {
		if err := ctx.Err(); err != nil {
			return m, err
		}

		data, err := r.gen.Generate(size)
		if err != nil {
			return m, fmt.Errorf("size %d: %w", size, err)
		}
		expected := hostsum.Sum(data)
		log.Info().Int("exponent", exponent).Int("size", size).Int64("bytes", data.Bytes()).
			Uint32("expected", expected).Msg("size")

		if err = r.hostTrials(ctx, m, mode, exponent, data, expected, bar); err != nil {
			return m, err
		}

		for _, s := range r.strategies {
			if err = ctx.Err(); err != nil {
				return m, err
			}
			if _, err = s.Plan(size, r.cfg.GroupSize, r.cfg.GroupCount); err != nil {
				if errors.Is(err, strategy.ErrIncompatibleSize) {
					m.Skip(exponent, s.Name, err.Error())
					log.Warn().Str("strategy", s.Name).Int("size", size).Err(err).Msg("skipped")
					_ = bar.Add(r.cfg.Trials)
					continue
				}
				return m, err
			}

			for trial := 0; trial < r.cfg.Trials; trial++ {
				res, err := r.reducer.Run(s, data, mode)
				if err != nil {
					return m, fmt.Errorf("%s at size %d trial %d: %w", s.Name, size, trial, err)
				}
				if res.Scalar != expected {
					return m, &CorrectnessError{Mode: mode, Column: s.Name, Size: size,
						Trial: trial, Expected: expected, Actual: res.Scalar}
				}
				m.Record(exponent, s.Name, TrialResult{Elapsed: res.Elapsed, Scalar: res.Scalar, Correct: true})
				_ = bar.Add(1)
			}
			c := m.Cell(exponent, s.Name)
			log.Debug().Str("strategy", s.Name).Int("size", size).
				Float64("mean_us", c.Mean()).Float64("stddev_us", c.StdDev()).Msg("cell")
		}
	}
	return m, nil
}

func (r *Runner) hostTrials(ctx context.Context, m *Matrix, mode config.TimingMode, exponent int,
	data dataset.Dataset, expected uint32, bar *progressbar.ProgressBar) error {
	size := len(data)

	for trial := 0; trial < r.cfg.Trials; trial++ {
		got, elapsed := hostsum.SingleThreaded(data)
		if got != expected {
			return &CorrectnessError{Mode: mode, Column: ColumnHostSingle, Size: size,
				Trial: trial, Expected: expected, Actual: got}
		}
		m.Record(exponent, ColumnHostSingle, TrialResult{Elapsed: elapsed, Scalar: got, Correct: true})
		_ = bar.Add(1)
	}

	for trial := 0; trial < r.cfg.Trials; trial++ {
		elapsed, err := hostsum.MultiThreaded(ctx, data, r.cfg.HostWorkers, expected)
		var mismatch *hostsum.MismatchError
		if errors.As(err, &mismatch) {
			return &CorrectnessError{Mode: mode, Column: ColumnHostMulti, Size: size,
				Trial: trial, Expected: expected, Actual: mismatch.Actual}
		}
		if err != nil {
			return fmt.Errorf("%s at size %d trial %d: %w", ColumnHostMulti, size, trial, err)
		}
		m.Record(exponent, ColumnHostMulti, TrialResult{Elapsed: elapsed, Scalar: expected, Correct: true})
		_ = bar.Add(1)
	}
	return nil
}

func (r *Runner) newBar(total int, description string) *progressbar.ProgressBar {
	if !r.cfg.Progress || r.ProgressWriter == nil {
		return progressbar.DefaultSilent(int64(total), description)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.ProgressWriter),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
