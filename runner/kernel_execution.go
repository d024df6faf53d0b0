package runner

import "fmt"

// Dispatch enqueues one reduction pass of a compiled kernel. It does not
// wait for completion; passes on the same device run in enqueue order and
// callers drain with Finish before reading results.
func (kr *Runner) Dispatch(kernelName string, in, out *Buffer, entries, groups int) error {
	kernel, exists := kr.Kernels[kernelName]
	if !exists {
		return fmt.Errorf("%w: kernel %s not compiled - use BuildKernel first", ErrDispatch, kernelName)
	}
	if entries <= 0 || entries > in.Count {
		return fmt.Errorf("%w: %s reads %d elements from a buffer of %d",
			ErrDispatch, kernelName, entries, in.Count)
	}
	if groups <= 0 || groups > out.Count {
		return fmt.Errorf("%w: %s writes %d partials to a buffer of %d",
			ErrDispatch, kernelName, groups, out.Count)
	}

	if err := kernel.RunWithArgs(in.Mem, out.Mem, int32(entries), int32(groups)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDispatch, kernelName, err)
	}
	return nil
}
