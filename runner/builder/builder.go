package builder

import (
	"fmt"
	"strings"
)

// DataType represents the element type held in device buffers
type DataType int

const (
	UINT32 DataType = iota + 1
	INT32
)

// Define is a compile-time constant injected into a kernel preamble
type Define struct {
	Name  string
	Value int
}

// Builder generates the source shared by every reduction kernel built for
// one group shape
type Builder struct {
	// Work-group shape
	GroupSize  int
	GroupCount int

	// Type configuration
	ValueType DataType
	IntType   DataType

	// Generated code
	KernelPreamble string
}

// Config holds configuration for creating a Builder
type Config struct {
	GroupSize  int
	GroupCount int
	ValueType  DataType
	IntType    DataType
}

// NewBuilder creates a new Builder instance
func NewBuilder(cfg Config) *Builder {
	if cfg.GroupSize < 1 {
		panic("GroupSize must be positive")
	}
	if cfg.GroupCount < 1 {
		panic("GroupCount must be positive")
	}
	// Set defaults
	valueType := cfg.ValueType
	if valueType == 0 {
		valueType = UINT32
	}
	intType := cfg.IntType
	if intType == 0 {
		intType = INT32
	}
	return &Builder{
		GroupSize:  cfg.GroupSize,
		GroupCount: cfg.GroupCount,
		ValueType:  valueType,
		IntType:    intType,
	}
}

// GlobalSize is the fixed dispatch width used by fixed-pass kernels
func (kb *Builder) GlobalSize() int {
	return kb.GroupSize * kb.GroupCount
}

// GeneratePreamble generates the kernel preamble. Extra defines carry
// per-program constants such as scratch region sizes.
func (kb *Builder) GeneratePreamble(extra ...Define) string {
	var sb strings.Builder

	// 1. Type definitions
	sb.WriteString(kb.generateTypeDefinitions())

	// 2. Group shape
	sb.WriteString(fmt.Sprintf("#define GROUP_SIZE %d\n", kb.GroupSize))
	sb.WriteString(fmt.Sprintf("#define GROUP_COUNT %d\n", kb.GroupCount))
	sb.WriteString(fmt.Sprintf("#define GLOBAL_SIZE %d\n", kb.GlobalSize()))
	sb.WriteString("\n")

	// 3. Program specific constants
	if len(extra) > 0 {
		for _, d := range extra {
			sb.WriteString(fmt.Sprintf("#define %s %d\n", d.Name, d.Value))
		}
		sb.WriteString("\n")
	}

	kb.KernelPreamble = sb.String()
	return kb.KernelPreamble
}

// generateTypeDefinitions creates type definitions based on type settings
func (kb *Builder) generateTypeDefinitions() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("typedef %s value_t;\n", TypeName(kb.ValueType)))
	sb.WriteString(fmt.Sprintf("typedef %s int_t;\n", TypeName(kb.IntType)))
	sb.WriteString("#define VALUE_ZERO 0\n")
	sb.WriteString("\n")
	return sb.String()
}

// TypeName returns the C type name for a given DataType
func TypeName(dt DataType) string {
	switch dt {
	case UINT32:
		return "unsigned int"
	case INT32:
		return "int"
	default:
		return "unsigned int"
	}
}

// SizeOfType returns the size in bytes of a data type
func SizeOfType(dt DataType) int64 {
	switch dt {
	case UINT32, INT32:
		return 4
	}
	panic(fmt.Sprintf("unknown DataType %d", dt))
}
