package runner

import (
	"errors"
	"fmt"

	"github.com/notargets/ReduceBench/runner/builder"
	"github.com/notargets/gocca"
	"github.com/rs/zerolog"
)

var (
	ErrBuild      = errors.New("kernel build failed")
	ErrDispatch   = errors.New("kernel dispatch failed")
	ErrAllocation = errors.New("device allocation failed")
)

// Runner owns the device-side state shared by every reduction in a run:
// the device, its in-order stream and the compiled programs.
type Runner struct {
	*builder.Builder
	Device  *gocca.OCCADevice
	Kernels map[string]*gocca.OCCAKernel
	log     zerolog.Logger
}

// NewRunner creates a new Runner instance
func NewRunner(device *gocca.OCCADevice, cfg builder.Config) (kr *Runner) {
	if device == nil {
		panic("NewRunner requires a device")
	}
	kr = &Runner{
		Builder: builder.NewBuilder(cfg),
		Device:  device,
		Kernels: make(map[string]*gocca.OCCAKernel),
		log:     zerolog.Nop(),
	}
	return
}

// SetLogger replaces the default no-op logger
func (kr *Runner) SetLogger(log zerolog.Logger) {
	kr.log = log
}

// BuildKernel compiles and registers a kernel. A kernel already registered
// under kernelName is returned as is.
func (kr *Runner) BuildKernel(kernelSource, kernelName string) (*gocca.OCCAKernel, error) {
	if kernel, exists := kr.Kernels[kernelName]; exists {
		return kernel, nil
	}

	var kernel *gocca.OCCAKernel
	var err error

	if kr.Device.Mode() == "OpenMP" {
		// Workaround for OCCA bug: OpenMP doesn't get default -O3 flag
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = kr.Device.BuildKernelFromString(kernelSource, kernelName, props)
	} else {
		kernel, err = kr.Device.BuildKernelFromString(kernelSource, kernelName, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBuild, kernelName, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("%w: %s: build returned nil", ErrBuild, kernelName)
	}

	kr.log.Debug().Str("kernel", kernelName).Str("mode", kr.Device.Mode()).Msg("kernel built")
	kr.Kernels[kernelName] = kernel
	return kernel, nil
}

// BuildReduction generates the full program for a reduction body and
// compiles it under kernelName.
func (kr *Runner) BuildReduction(kernelName, body string, defines []builder.Define) (*gocca.OCCAKernel, error) {
	if kernel, exists := kr.Kernels[kernelName]; exists {
		return kernel, nil
	}
	source, err := kr.GenerateKernel(kernelName, body, defines, builder.ReductionParams()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBuild, kernelName, err)
	}
	return kr.BuildKernel(source, kernelName)
}

// HasKernel reports whether kernelName is compiled
func (kr *Runner) HasKernel(kernelName string) bool {
	_, exists := kr.Kernels[kernelName]
	return exists
}

// Finish blocks until all work enqueued on the device has completed
func (kr *Runner) Finish() {
	kr.Device.Finish()
}

// Free releases all compiled kernels. The device belongs to the caller.
func (kr *Runner) Free() {
	for name, kernel := range kr.Kernels {
		kernel.Free()
		delete(kr.Kernels, name)
	}
}
