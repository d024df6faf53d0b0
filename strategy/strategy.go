package strategy

import (
	"errors"
	"fmt"

	"github.com/notargets/ReduceBench/runner/builder"
)

var (
	ErrInvalidCount      = errors.New("element count must be positive")
	ErrIncompatibleSize  = errors.New("element count is not an exact power of the group size")
	ErrIncompatibleShape = errors.New("group shape is incompatible with strategy")
	ErrUnknown           = errors.New("unknown strategy")
)

// Policy is a strategy's termination rule
type Policy int

const (
	// Iterative repeats passes, dividing the live count by the group size,
	// until one element remains.
	Iterative Policy = iota + 1
	// FixedTwoPass dispatches GROUP_SIZE × GROUP_COUNT work items twice: the
	// first pass leaves GROUP_COUNT partials, the second folds them into
	// slot 0.
	FixedTwoPass
)

// FixedPasses is the pass count of the FixedTwoPass policy
const FixedPasses = 2

func (p Policy) String() string {
	switch p {
	case Iterative:
		return "iterative"
	case FixedTwoPass:
		return "fixed-two-pass"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ScratchRegion declares one local scratch array. Its element count is
// GroupSize × Num / Den and it is exposed to the kernel as <Name>_SIZE.
type ScratchRegion struct {
	Name string
	Num  int
	Den  int
}

// Elements returns the region's element count for a group size
func (r ScratchRegion) Elements(groupSize int) int {
	return groupSize * r.Num / r.Den
}

// Strategy is a named, pluggable reduction kernel plus the policy data the
// orchestrator needs to drive it.
type Strategy struct {
	Name    string
	Kernel  string // entry point
	Body    string // OKL body following the generated declaration
	Policy  Policy
	Scratch []ScratchRegion
}

// PassDescriptor describes one dispatch of a strategy's kernel
type PassDescriptor struct {
	ElementCount      int // live elements read by the pass
	GroupSize         int
	GroupCount        int // work groups dispatched
	LocalScratchBytes int
	ResultCount       int // output slots written, copied back as next input
}

// GlobalSize is the number of work items in the dispatch
func (p PassDescriptor) GlobalSize() int {
	return p.GroupSize * p.GroupCount
}

// ScratchBytes totals the local memory the strategy needs per group
func (s Strategy) ScratchBytes(groupSize int) int {
	total := 0
	for _, r := range s.Scratch {
		total += r.Elements(groupSize) * int(builder.SizeOfType(builder.UINT32))
	}
	return total
}

// Defines returns the scratch size constants for the kernel preamble
func (s Strategy) Defines(groupSize int) []builder.Define {
	defines := make([]builder.Define, 0, len(s.Scratch))
	for _, r := range s.Scratch {
		defines = append(defines, builder.Define{Name: r.Name + "_SIZE", Value: r.Elements(groupSize)})
	}
	return defines
}

// validateShape checks that every scratch region is a positive power of two
// that fits in one group.
func (s Strategy) validateShape(groupSize, groupCount int) error {
	if groupSize < 2 || groupSize&(groupSize-1) != 0 {
		return fmt.Errorf("%w: %s needs a power-of-two group size, got %d",
			ErrIncompatibleShape, s.Name, groupSize)
	}
	if groupCount < 1 {
		return fmt.Errorf("%w: %s needs a positive group count, got %d",
			ErrIncompatibleShape, s.Name, groupCount)
	}
	for _, r := range s.Scratch {
		if r.Num < 1 || r.Den < 1 || (groupSize*r.Num)%r.Den != 0 {
			return fmt.Errorf("%w: %s scratch %s is not whole at group size %d",
				ErrIncompatibleShape, s.Name, r.Name, groupSize)
		}
		n := r.Elements(groupSize)
		if n < 1 || n > groupSize || n&(n-1) != 0 {
			return fmt.Errorf("%w: %s scratch %s has %d elements at group size %d",
				ErrIncompatibleShape, s.Name, r.Name, n, groupSize)
		}
	}
	return nil
}

// Plan computes the passes needed to reduce count elements to one
func (s Strategy) Plan(count, groupSize, groupCount int) ([]PassDescriptor, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	if err := s.validateShape(groupSize, groupCount); err != nil {
		return nil, err
	}
	scratch := s.ScratchBytes(groupSize)

	switch s.Policy {
	case Iterative:
		var passes []PassDescriptor
		for remaining := count; remaining > 1; remaining /= groupSize {
			if remaining%groupSize != 0 {
				return nil, fmt.Errorf("%w: %s cannot reduce %d elements (remainder %d at %d with group size %d)",
					ErrIncompatibleSize, s.Name, count, remaining%groupSize, remaining, groupSize)
			}
			groups := remaining / groupSize
			passes = append(passes, PassDescriptor{
				ElementCount:      remaining,
				GroupSize:         groupSize,
				GroupCount:        groups,
				LocalScratchBytes: scratch,
				ResultCount:       groups,
			})
		}
		return passes, nil

	case FixedTwoPass:
		if groupCount > groupSize {
			return nil, fmt.Errorf("%w: %s folds %d partials with one group of %d",
				ErrIncompatibleShape, s.Name, groupCount, groupSize)
		}
		if count < groupCount {
			return nil, fmt.Errorf("%w: %s needs at least %d elements for its %d partials, got %d",
				ErrIncompatibleSize, s.Name, groupCount, groupCount, count)
		}
		passes := make([]PassDescriptor, 0, FixedPasses)
		remaining := count
		for i := 0; i < FixedPasses; i++ {
			passes = append(passes, PassDescriptor{
				ElementCount:      remaining,
				GroupSize:         groupSize,
				GroupCount:        groupCount,
				LocalScratchBytes: scratch,
				ResultCount:       groupCount,
			})
			remaining = groupCount
		}
		return passes, nil
	}

	return nil, fmt.Errorf("strategy %s has unknown policy %s", s.Name, s.Policy)
}

// Supports reports whether Plan would accept the given shape
func (s Strategy) Supports(count, groupSize, groupCount int) bool {
	_, err := s.Plan(count, groupSize, groupCount)
	return err == nil
}
