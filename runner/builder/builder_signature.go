package builder

import (
	"fmt"
	"strings"
)

// GenerateKernelSignature generates the parameter list for a kernel function.
// Buffers come first in declaration order, scalars follow, matching the
// order arguments are passed to RunWithArgs.
func (kb *Builder) GenerateKernelSignature(params ...*ParamBuilder) (string, error) {
	var buffers, scalars []string

	for i, p := range params {
		if err := p.Spec.Validate(); err != nil {
			return "", fmt.Errorf("parameter %d: %w", i, err)
		}
		switch p.Spec.Direction {
		case DirectionInput:
			buffers = append(buffers, "const value_t *"+p.Spec.Name)
		case DirectionOutput:
			buffers = append(buffers, "value_t *"+p.Spec.Name)
		case DirectionScalar:
			scalars = append(scalars, "const int_t "+p.Spec.Name)
		}
	}

	return strings.Join(append(buffers, scalars...), ",\n\t"), nil
}

// GenerateKernelDeclaration generates a complete kernel function declaration
func (kb *Builder) GenerateKernelDeclaration(kernelName string, params ...*ParamBuilder) (string, error) {
	signature, err := kb.GenerateKernelSignature(params...)
	if err != nil {
		return "", fmt.Errorf("kernel %s: %w", kernelName, err)
	}
	return fmt.Sprintf("@kernel void %s(\n\t%s\n)", kernelName, signature), nil
}

// GenerateKernel assembles preamble, declaration and body into one program
func (kb *Builder) GenerateKernel(kernelName, body string, defines []Define,
	params ...*ParamBuilder) (string, error) {
	decl, err := kb.GenerateKernelDeclaration(kernelName, params...)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(kb.GeneratePreamble(defines...))
	sb.WriteString(decl)
	sb.WriteString(" ")
	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n")
	return sb.String(), nil
}
