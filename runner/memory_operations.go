package runner

import (
	"fmt"
	"unsafe"
)

// AllocateBuffer allocates count elements of device read-write memory. When
// host is non-nil its contents are copied in at allocation time; the device
// keeps no reference to the host slice.
func (kr *Runner) AllocateBuffer(count int, role BufferRole, host []uint32) (*Buffer, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: element count must be positive, got %d", ErrAllocation, count)
	}
	if host != nil && len(host) != count {
		return nil, fmt.Errorf("%w: host data has %d elements, buffer has %d",
			ErrAllocation, len(host), count)
	}

	bytes := int64(count) * valueSize
	var src unsafe.Pointer
	if host != nil {
		src = unsafe.Pointer(&host[0])
	}

	mem := kr.Device.Malloc(bytes, src, nil)
	if mem == nil {
		return nil, fmt.Errorf("%w: %d bytes", ErrAllocation, bytes)
	}

	return &Buffer{Mem: mem, Count: count, Role: role}, nil
}

// Download copies the first len(host) elements of the buffer to the host
func (b *Buffer) Download(host []uint32) error {
	if len(host) == 0 {
		return nil
	}
	if len(host) > b.Count {
		return fmt.Errorf("download of %d elements exceeds buffer of %d", len(host), b.Count)
	}
	b.Mem.CopyTo(unsafe.Pointer(&host[0]), int64(len(host))*valueSize)
	return nil
}

// ReadScalar copies one element back to the host
func (b *Buffer) ReadScalar(index int) (uint32, error) {
	if index < 0 || index >= b.Count {
		return 0, fmt.Errorf("index %d out of range for buffer of %d", index, b.Count)
	}
	var value uint32
	if index == 0 {
		b.Mem.CopyTo(unsafe.Pointer(&value), valueSize)
	} else {
		b.Mem.CopyToWithOffset(unsafe.Pointer(&value), valueSize, int64(index)*valueSize)
	}
	return value, nil
}

// Free releases the device memory
func (b *Buffer) Free() {
	if b.Mem != nil {
		b.Mem.Free()
		b.Mem = nil
	}
}
