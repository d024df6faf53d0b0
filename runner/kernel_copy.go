package runner

import (
	"fmt"

	"github.com/notargets/ReduceBench/runner/builder"
	"github.com/notargets/gocca"
)

const copyKernelName = "copyPrefix"

// Blocks of GROUP_SIZE items, one element each
const copyPrefixBody = `{
	for (int block = 0; block < (entries + GROUP_SIZE - 1) / GROUP_SIZE; ++block; @outer) {
		for (int item = 0; item < GROUP_SIZE; ++item; @inner) {
			const int_t i = block * GROUP_SIZE + item;
			if (i < entries) {
				dst[i] = src[i];
			}
		}
	}
}`

// BuildCopy compiles the prefix copy kernel, or returns it if already built
func (kr *Runner) BuildCopy() (*gocca.OCCAKernel, error) {
	if kernel, exists := kr.Kernels[copyKernelName]; exists {
		return kernel, nil
	}
	source, err := kr.GenerateKernel(copyKernelName, copyPrefixBody, nil, builder.CopyParams()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBuild, copyKernelName, err)
	}
	return kr.BuildKernel(source, copyKernelName)
}

// CopyPrefix enqueues a device-to-device copy of the first count elements
// of src into dst. No data passes through the host.
func (kr *Runner) CopyPrefix(dst, src *Buffer, count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: copy count must be positive, got %d", ErrDispatch, count)
	}
	if count > src.Count || count > dst.Count {
		return fmt.Errorf("%w: copy of %d elements exceeds buffers (src %d, dst %d)",
			ErrDispatch, count, src.Count, dst.Count)
	}

	kernel, err := kr.BuildCopy()
	if err != nil {
		return err
	}

	if err = kernel.RunWithArgs(src.Mem, dst.Mem, int32(count)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDispatch, copyKernelName, err)
	}
	return nil
}
