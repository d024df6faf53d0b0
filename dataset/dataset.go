package dataset

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

var (
	ErrInvalidSize = errors.New("dataset size must be positive")
	ErrTooLarge    = errors.New("dataset size exceeds element limit")
)

// MaxElements bounds a single dataset at 4 GiB of uint32 values
const MaxElements = 1 << 30

// Dataset is an immutable sequence of values shared by every strategy in a
// sweep cell. Callers must not modify it.
type Dataset []uint32

// Options controls the generated value pattern
type Options struct {
	BaseOffset uint32
	NoiseSpan  uint32
}

// Generator owns the random stream used for every dataset in a run
type Generator struct {
	opts Options
	rng  *rand.Rand
}

// NewGenerator creates a generator with an explicit seed
func NewGenerator(seed uint64, opts Options) *Generator {
	if opts.NoiseSpan == 0 {
		opts.NoiseSpan = 1
	}
	return &Generator{
		opts: opts,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// NewTimeSeededGenerator seeds from the wall clock at the start of a run
func NewTimeSeededGenerator(opts Options) *Generator {
	return NewGenerator(uint64(time.Now().UnixNano()), opts)
}

// Generate produces baseOffset - index + noise for each index, with
// wraparound, advancing the shared stream.
func (g *Generator) Generate(size int) (Dataset, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if size > MaxElements {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, size, MaxElements)
	}

	data := make(Dataset, size)
	for i := range data {
		noise := g.rng.Uint32N(g.opts.NoiseSpan)
		data[i] = g.opts.BaseOffset - uint32(i) + noise
	}
	return data, nil
}

// Bytes returns the dataset size in bytes
func (d Dataset) Bytes() int64 {
	return int64(len(d)) * 4
}
