package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notargets/gocca"
)

// ErrNoDevice is returned when none of the requested modes is available
var ErrNoDevice = errors.New("no OCCA device available")

// CreateDevice tries each OCCA property string in order and returns the
// first device that opens.
func CreateDevice(modes []string) (*gocca.OCCADevice, error) {
	var failures []string
	for _, props := range modes {
		device, err := gocca.NewDevice(props)
		if err == nil {
			return device, nil
		}
		failures = append(failures, fmt.Sprintf("%s: %v", props, err))
	}
	return nil, fmt.Errorf("%w (tried %d modes)\n\t%s", ErrNoDevice, len(modes),
		strings.Join(failures, "\n\t"))
}

// CreateTestDevice creates a Device for testing, preferring parallel backends
func CreateTestDevice() *gocca.OCCADevice {
	// OpenMP, then CUDA, then fall back to Serial
	backends := []string{
		`{"mode": "OpenMP"}`,
		`{"mode": "CUDA", "device_id": 0}`,
		`{"mode": "Serial"}`,
	}

	device, err := CreateDevice(backends)
	if err != nil {
		// Should not reach here
		panic(fmt.Sprintf("Failed to create any Device: %v", err))
	}
	fmt.Printf("Created %s Device\n", device.Mode())
	return device
}
