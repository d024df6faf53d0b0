package hostsum

import (
	"context"
	"fmt"
	"time"

	"github.com/notargets/ReduceBench/dataset"
	"golang.org/x/sync/errgroup"
)

// MismatchError reports a host parallel sum that disagrees with the
// sequential reference.
type MismatchError struct {
	Workers  int
	Expected uint32
	Actual   uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("host %d-way sum mismatch: expected %d, got %d",
		e.Workers, e.Expected, e.Actual)
}

// Span is a half-open index range [Start, End)
type Span struct {
	Start, End int
}

// Sum folds values sequentially with uint32 wraparound
func Sum(values []uint32) uint32 {
	var total uint32
	for _, v := range values {
		total += v
	}
	return total
}

// SingleThreaded returns the reference sum and how long it took
func SingleThreaded(data dataset.Dataset) (uint32, time.Duration) {
	start := time.Now()
	total := Sum(data)
	return total, time.Since(start)
}

// Partition splits n indices into one contiguous span per worker. The last
// span absorbs the remainder, so every index is covered exactly once.
func Partition(n, workers int) []Span {
	if workers < 1 {
		workers = 1
	}
	chunk := n / workers
	spans := make([]Span, workers)
	for i := range spans {
		spans[i] = Span{Start: i * chunk, End: (i + 1) * chunk}
	}
	spans[workers-1].End = n
	return spans
}

// MultiThreaded sums one span per task, waits for every task, then folds the
// per-task results. A result that differs from expected is a
// *MismatchError.
func MultiThreaded(ctx context.Context, data dataset.Dataset, workers int,
	expected uint32) (time.Duration, error) {
	start := time.Now()

	spans := Partition(len(data), workers)
	partials := make([]uint32, len(spans))

	g, _ := errgroup.WithContext(ctx)
	for i, span := range spans {
		g.Go(func() error {
			partials[i] = Sum(data[span.Start:span.End])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("host worker failed: %w", err)
	}

	total := Sum(partials)
	elapsed := time.Since(start)

	if total != expected {
		return elapsed, &MismatchError{Workers: len(spans), Expected: expected, Actual: total}
	}
	return elapsed, nil
}
