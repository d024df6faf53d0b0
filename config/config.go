package config

import (
	"errors"
	"fmt"
	"math/bits"
	"os"

	"github.com/notargets/ReduceBench/dataset"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// MaxGroupSize matches the CUDA @inner thread limit
const MaxGroupSize = 1024

// TimingMode selects whether one-time buffer setup is inside the timed region
type TimingMode int

const (
	ExcludeSetup TimingMode = iota + 1
	IncludeSetup
)

func (m TimingMode) String() string {
	switch m {
	case ExcludeSetup:
		return "exclude-setup"
	case IncludeSetup:
		return "include-setup"
	default:
		return fmt.Sprintf("TimingMode(%d)", int(m))
	}
}

// ParseTimingMode converts the configuration spelling of a timing mode
func ParseTimingMode(s string) (TimingMode, error) {
	switch s {
	case "exclude-setup":
		return ExcludeSetup, nil
	case "include-setup":
		return IncludeSetup, nil
	}
	return 0, fmt.Errorf("%w: unknown timing mode %q", ErrInvalidConfig, s)
}

// DatasetConfig controls generated values: baseOffset - index + noise
type DatasetConfig struct {
	BaseOffset uint32 `yaml:"base_offset"`
	NoiseSpan  uint32 `yaml:"noise_span"`
}

// Config holds everything needed for a benchmark run
type Config struct {
	// OCCA device property strings, tried in order
	DeviceModes []string `yaml:"device_modes"`

	GroupSize   int `yaml:"group_size"`
	GroupCount  int `yaml:"group_count"`
	MaxExponent int `yaml:"max_exponent"`
	Trials      int `yaml:"trials"`
	HostWorkers int `yaml:"host_workers"`

	Dataset DatasetConfig `yaml:"dataset"`

	// Empty selects the whole catalog
	Strategies  []string `yaml:"strategies"`
	TimingModes []string `yaml:"timing_modes"`

	OutputDir string `yaml:"output_dir"`
	Progress  bool   `yaml:"progress"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		DeviceModes: []string{
			`{"mode": "OpenCL", "platform_id": 0, "device_id": 0}`,
			`{"mode": "CUDA", "device_id": 0}`,
			`{"mode": "OpenMP"}`,
			`{"mode": "Serial"}`,
		},
		GroupSize:   128,
		GroupCount:  64,
		MaxExponent: 8,
		Trials:      10,
		HostWorkers: 16,
		Dataset: DatasetConfig{
			BaseOffset: 1 << 31,
			NoiseSpan:  1 << 16,
		},
		TimingModes: []string{"exclude-setup", "include-setup"},
		OutputDir:   "results",
		Progress:    true,
	}
}

// Load reads a YAML file on top of Default and validates the result
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the structural constraints kernels and the sweep rely on
func (c *Config) Validate() error {
	if c.GroupSize < 2 || c.GroupSize > MaxGroupSize || bits.OnesCount(uint(c.GroupSize)) != 1 {
		return fmt.Errorf("%w: group_size must be a power of two in [2, %d], got %d",
			ErrInvalidConfig, MaxGroupSize, c.GroupSize)
	}
	if c.GroupCount < 1 {
		return fmt.Errorf("%w: group_count must be positive, got %d", ErrInvalidConfig, c.GroupCount)
	}
	if c.MaxExponent < 0 || c.MaxExponent > 20 {
		return fmt.Errorf("%w: max_exponent must be in [0, 20], got %d", ErrInvalidConfig, c.MaxExponent)
	}
	if int64(c.BaseUnit())<<c.MaxExponent > dataset.MaxElements {
		return fmt.Errorf("%w: largest size %d×2^%d exceeds %d elements",
			ErrInvalidConfig, c.BaseUnit(), c.MaxExponent, dataset.MaxElements)
	}
	if c.Trials < 1 {
		return fmt.Errorf("%w: trials must be positive, got %d", ErrInvalidConfig, c.Trials)
	}
	if c.HostWorkers < 1 {
		return fmt.Errorf("%w: host_workers must be positive, got %d", ErrInvalidConfig, c.HostWorkers)
	}
	if c.Dataset.NoiseSpan == 0 {
		return fmt.Errorf("%w: dataset.noise_span must be positive", ErrInvalidConfig)
	}
	if len(c.DeviceModes) == 0 {
		return fmt.Errorf("%w: at least one device mode is required", ErrInvalidConfig)
	}
	if _, err := c.Modes(); err != nil {
		return err
	}
	return nil
}

// BaseUnit is the smallest swept size, one element per work item
func (c *Config) BaseUnit() int {
	return c.GroupSize * c.GroupCount
}

// Sizes returns BaseUnit × 2^i for i = 0..MaxExponent
func (c *Config) Sizes() []int {
	sizes := make([]int, c.MaxExponent+1)
	for i := range sizes {
		sizes[i] = c.BaseUnit() << i
	}
	return sizes
}

// Modes returns the parsed timing modes in sweep order
func (c *Config) Modes() ([]TimingMode, error) {
	if len(c.TimingModes) == 0 {
		return nil, fmt.Errorf("%w: at least one timing mode is required", ErrInvalidConfig)
	}
	modes := make([]TimingMode, 0, len(c.TimingModes))
	seen := make(map[TimingMode]bool)
	for _, s := range c.TimingModes {
		m, err := ParseTimingMode(s)
		if err != nil {
			return nil, err
		}
		if seen[m] {
			return nil, fmt.Errorf("%w: timing mode %s listed twice", ErrInvalidConfig, m)
		}
		seen[m] = true
		modes = append(modes, m)
	}
	return modes, nil
}

// DatasetOptions converts the dataset section for the generator
func (c *Config) DatasetOptions() dataset.Options {
	return dataset.Options{BaseOffset: c.Dataset.BaseOffset, NoiseSpan: c.Dataset.NoiseSpan}
}
