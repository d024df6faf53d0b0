package runner

import (
	"github.com/notargets/ReduceBench/runner/builder"
	"github.com/notargets/gocca"
)

// BufferRole says which side of a pass a buffer currently serves
type BufferRole int

const (
	RoleInput BufferRole = iota + 1
	RoleOutput
)

func (r BufferRole) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Buffer is a device-resident array of value_t elements
type Buffer struct {
	Mem   *gocca.OCCAMemory
	Count int
	Role  BufferRole
}

// Bytes returns the buffer size in bytes
func (b *Buffer) Bytes() int64 {
	return int64(b.Count) * valueSize
}

var valueSize = builder.SizeOfType(builder.UINT32)
