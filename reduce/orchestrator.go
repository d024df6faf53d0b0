package reduce

import (
	"fmt"
	"time"

	"github.com/notargets/ReduceBench/config"
	"github.com/notargets/ReduceBench/dataset"
	"github.com/notargets/ReduceBench/runner"
	"github.com/notargets/ReduceBench/strategy"
	"github.com/rs/zerolog"
)

// Result is the outcome of reducing one dataset with one strategy
type Result struct {
	Scalar  uint32
	Elapsed time.Duration
	Passes  int
}

// Orchestrator drives a dataset down to one scalar with repeated passes of
// a strategy's kernel, ping-ponging between an input and an output buffer
// on the device.
type Orchestrator struct {
	kr  *runner.Runner
	log zerolog.Logger
}

// NewOrchestrator binds an orchestrator to a runner. The group shape of
// every plan comes from the runner's builder.
func NewOrchestrator(kr *runner.Runner, log zerolog.Logger) *Orchestrator {
	if kr == nil {
		panic("NewOrchestrator requires a runner")
	}
	return &Orchestrator{kr: kr, log: log}
}

// Prepare compiles the strategy's kernel and the copy-back kernel ahead of
// the first timed run
func (o *Orchestrator) Prepare(s strategy.Strategy) error {
	if _, err := o.kr.BuildReduction(s.Kernel, s.Body, s.Defines(o.kr.GroupSize)); err != nil {
		return err
	}
	_, err := o.kr.BuildCopy()
	return err
}

// release drains the device before freeing, so no enqueued pass still
// targets the buffers. Nil buffers are ignored.
func (o *Orchestrator) release(buffers ...*runner.Buffer) {
	o.kr.Finish()
	for _, b := range buffers {
		if b != nil {
			b.Free()
		}
	}
}

// Run reduces data with s. Under IncludeSetup the timed region covers
// buffer allocation and upload; under ExcludeSetup it starts once the
// upload has drained. The timer always stops after the device drains.
func (o *Orchestrator) Run(s strategy.Strategy, data dataset.Dataset, mode config.TimingMode) (Result, error) {
	var res Result

	passes, err := s.Plan(len(data), o.kr.GroupSize, o.kr.GroupCount)
	if err != nil {
		return res, err
	}
	if err = o.Prepare(s); err != nil {
		return res, err
	}

	var start time.Time
	if mode == config.IncludeSetup {
		start = time.Now()
	}

	var in, out *runner.Buffer
	defer func() { o.release(in, out) }()

	if in, err = o.kr.AllocateBuffer(len(data), runner.RoleInput, data); err != nil {
		return res, fmt.Errorf("%s input: %w", s.Name, err)
	}
	if out, err = o.kr.AllocateBuffer(len(data), runner.RoleOutput, nil); err != nil {
		return res, fmt.Errorf("%s output: %w", s.Name, err)
	}

	if mode != config.IncludeSetup {
		o.kr.Finish()
		start = time.Now()
	}

	for i, p := range passes {
		if err = o.kr.Dispatch(s.Kernel, in, out, p.ElementCount, p.GroupCount); err != nil {
			return res, fmt.Errorf("%s pass %d: %w", s.Name, i, err)
		}
		if err = o.kr.CopyPrefix(in, out, p.ResultCount); err != nil {
			return res, fmt.Errorf("%s pass %d copy-back: %w", s.Name, i, err)
		}
	}
	o.kr.Finish()
	res.Elapsed = time.Since(start)

	if res.Scalar, err = in.ReadScalar(0); err != nil {
		return res, fmt.Errorf("%s result: %w", s.Name, err)
	}
	res.Passes = len(passes)

	o.log.Debug().
		Str("strategy", s.Name).
		Int("size", len(data)).
		Int("passes", res.Passes).
		Stringer("mode", mode).
		Dur("elapsed", res.Elapsed).
		Msg("reduction complete")
	return res, nil
}
