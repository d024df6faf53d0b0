package builder

import "fmt"

// Direction indicates parameter data flow
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
	DirectionScalar
)

// ParamBuilder provides a fluent interface for building kernel parameters
type ParamBuilder struct {
	Spec ParamSpec
}

// ParamSpec holds the specification for one kernel argument. Buffers are
// value_t, scalars int_t.
type ParamSpec struct {
	Name      string
	Direction Direction
}

// Input creates a parameter specification for a const device buffer
func Input(deviceName string) *ParamBuilder {
	return &ParamBuilder{
		Spec: ParamSpec{
			Name:      deviceName,
			Direction: DirectionInput,
		},
	}
}

// Output creates a parameter specification for a writable device buffer
func Output(deviceName string) *ParamBuilder {
	return &ParamBuilder{
		Spec: ParamSpec{
			Name:      deviceName,
			Direction: DirectionOutput,
		},
	}
}

// Scalar creates a parameter specification for a by-value argument
func Scalar(name string) *ParamBuilder {
	return &ParamBuilder{
		Spec: ParamSpec{
			Name:      name,
			Direction: DirectionScalar,
		},
	}
}

// Validate checks that the parameter specification is usable
func (ps *ParamSpec) Validate() error {
	if ps.Name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}
	switch ps.Direction {
	case DirectionInput, DirectionOutput, DirectionScalar:
	default:
		return fmt.Errorf("parameter %s: unknown direction %d", ps.Name, ps.Direction)
	}
	return nil
}

// ReductionParams is the argument contract every reduction kernel follows:
// the pass input, the pass output, the live element count, and the number
// of work groups in the dispatch.
func ReductionParams() []*ParamBuilder {
	return []*ParamBuilder{
		Input("input"),
		Output("output"),
		Scalar("entries"),
		Scalar("groups"),
	}
}

// CopyParams is the argument contract of the device-side prefix copy
func CopyParams() []*ParamBuilder {
	return []*ParamBuilder{
		Input("src"),
		Output("dst"),
		Scalar("entries"),
	}
}
