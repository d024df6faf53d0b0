package strategy

import "fmt"

// WideScratchFactor is the lanes-per-consumer ratio of wide-local-scratch
const WideScratchFactor = 4

func singleScratch() []ScratchRegion {
	return []ScratchRegion{{Name: "SCRATCH", Num: 1, Den: 1}}
}

// Catalog returns every strategy in fixed column order
func Catalog() []Strategy {
	return []Strategy{
		{
			Name:    "tree-interleaved-divergent",
			Kernel:  "reduceInterleavedDivergent",
			Body:    treeInterleavedDivergent,
			Policy:  Iterative,
			Scratch: singleScratch(),
		},
		{
			Name:    "tree-interleaved",
			Kernel:  "reduceInterleaved",
			Body:    treeInterleaved,
			Policy:  Iterative,
			Scratch: singleScratch(),
		},
		{
			Name:    "tree-sequential",
			Kernel:  "reduceSequential",
			Body:    treeSequential,
			Policy:  Iterative,
			Scratch: singleScratch(),
		},
		{
			Name:    "tree-sequential-unrolled",
			Kernel:  "reduceSequentialUnrolled",
			Body:    treeSequentialUnrolled,
			Policy:  Iterative,
			Scratch: singleScratch(),
		},
		{
			Name:    "fixed-two-pass",
			Kernel:  "reduceFixedCoalesced",
			Body:    fixedCoalesced,
			Policy:  FixedTwoPass,
			Scratch: singleScratch(),
		},
		{
			Name:    "fixed-two-pass-blocked",
			Kernel:  "reduceFixedBlocked",
			Body:    fixedBlocked,
			Policy:  FixedTwoPass,
			Scratch: singleScratch(),
		},
		{
			Name:    "fixed-two-pass-unrolled",
			Kernel:  "reduceFixedUnrolled",
			Body:    fixedUnrolled,
			Policy:  FixedTwoPass,
			Scratch: singleScratch(),
		},
		{
			Name:   "wide-local-scratch",
			Kernel: "reduceWideLocalScratch",
			Body:   wideLocalScratch,
			Policy: FixedTwoPass,
			Scratch: []ScratchRegion{
				{Name: "LANES", Num: 1, Den: 1},
				{Name: "PARTIALS", Num: 1, Den: WideScratchFactor},
			},
		},
	}
}

// Lookup finds a catalog strategy by name
func Lookup(name string) (Strategy, error) {
	for _, s := range Catalog() {
		if s.Name == name {
			return s, nil
		}
	}
	return Strategy{}, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Select resolves names in the given order; an empty list selects the
// whole catalog.
func Select(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return Catalog(), nil
	}
	selected := make([]Strategy, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("strategy %q selected twice", name)
		}
		seen[name] = true
		s, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, s)
	}
	return selected, nil
}

// Names returns the names of the given strategies
func Names(strategies []Strategy) []string {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name
	}
	return names
}
