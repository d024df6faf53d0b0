package strategy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLookup(t *testing.T, name string) Strategy {
	t.Helper()
	s, err := Lookup(name)
	require.NoError(t, err)
	return s
}

func TestPlan_IterativeCube(t *testing.T) {
	s := mustLookup(t, "tree-sequential")

	passes, err := s.Plan(128*128*128, 128, 64)
	require.NoError(t, err)
	require.Len(t, passes, 3)

	counts := []int{2097152, 16384, 128}
	groups := []int{16384, 128, 1}
	for i, p := range passes {
		assert.Equal(t, counts[i], p.ElementCount, "pass %d", i)
		assert.Equal(t, groups[i], p.GroupCount, "pass %d", i)
		assert.Equal(t, groups[i], p.ResultCount, "pass %d", i)
		assert.Equal(t, 128, p.GroupSize)
		assert.Equal(t, 512, p.LocalScratchBytes)
		assert.Equal(t, counts[i], p.GlobalSize())
	}
}

func TestPlan_IterativePassCount(t *testing.T) {
	s := mustLookup(t, "tree-interleaved")
	testCases := []struct {
		count, groupSize, passes int
	}{
		{1, 128, 0},
		{128, 128, 1},
		{16384, 128, 2},
		{64, 2, 6},
		{4096, 16, 3},
	}
	for _, tc := range testCases {
		passes, err := s.Plan(tc.count, tc.groupSize, 1)
		require.NoError(t, err, "count=%d g=%d", tc.count, tc.groupSize)
		assert.Len(t, passes, tc.passes, "count=%d g=%d", tc.count, tc.groupSize)
	}
}

func TestPlan_IterativeRejectsNonPowers(t *testing.T) {
	s := mustLookup(t, "tree-interleaved-divergent")
	for _, count := range []int{8192, 256, 100, 128*128 + 128} {
		_, err := s.Plan(count, 128, 64)
		assert.ErrorIs(t, err, ErrIncompatibleSize, "count=%d", count)
		assert.False(t, s.Supports(count, 128, 64))
	}
	assert.True(t, s.Supports(16384, 128, 64))
}

func TestPlan_FixedTwoPass(t *testing.T) {
	s := mustLookup(t, "fixed-two-pass")

	passes, err := s.Plan(8192, 128, 64)
	require.NoError(t, err)
	require.Len(t, passes, 2)

	assert.Equal(t, PassDescriptor{
		ElementCount: 8192, GroupSize: 128, GroupCount: 64,
		LocalScratchBytes: 512, ResultCount: 64,
	}, passes[0])
	assert.Equal(t, PassDescriptor{
		ElementCount: 64, GroupSize: 128, GroupCount: 64,
		LocalScratchBytes: 512, ResultCount: 64,
	}, passes[1])

	// Any count covering the partials works, the dispatch shape never changes
	for _, count := range []int{64, 8193, 8192 << 5} {
		passes, err := s.Plan(count, 128, 64)
		require.NoError(t, err)
		assert.Len(t, passes, FixedPasses)
		assert.Equal(t, 8192, passes[0].GlobalSize())
	}
}

func TestPlan_FixedRejectsTooManyGroups(t *testing.T) {
	s := mustLookup(t, "fixed-two-pass-blocked")
	_, err := s.Plan(8192, 32, 256)
	assert.ErrorIs(t, err, ErrIncompatibleShape)
}

func TestPlan_FixedRejectsFewerElementsThanGroups(t *testing.T) {
	for _, s := range Catalog() {
		if s.Policy != FixedTwoPass {
			continue
		}
		passes, err := s.Plan(1, 32, 4)
		assert.ErrorIs(t, err, ErrIncompatibleSize, s.Name)
		assert.Nil(t, passes, s.Name)
		assert.False(t, s.Supports(3, 32, 4), s.Name)
		assert.True(t, s.Supports(4, 32, 4), s.Name)
	}
}

func TestPlan_InvalidInputs(t *testing.T) {
	s := mustLookup(t, "fixed-two-pass-unrolled")

	_, err := s.Plan(0, 128, 64)
	assert.ErrorIs(t, err, ErrInvalidCount)

	_, err = s.Plan(8192, 100, 64)
	assert.ErrorIs(t, err, ErrIncompatibleShape)

	_, err = s.Plan(8192, 128, 0)
	assert.ErrorIs(t, err, ErrIncompatibleShape)

	bogus := Strategy{Name: "bogus", Policy: Policy(9)}
	_, err = bogus.Plan(8192, 128, 64)
	assert.Error(t, err)
}

func TestWideLocalScratch_Regions(t *testing.T) {
	s := mustLookup(t, "wide-local-scratch")
	require.Len(t, s.Scratch, 2)

	assert.Equal(t, 128*4+32*4, s.ScratchBytes(128))

	defines := s.Defines(128)
	require.Len(t, defines, 2)
	assert.Equal(t, "LANES_SIZE", defines[0].Name)
	assert.Equal(t, 128, defines[0].Value)
	assert.Equal(t, "PARTIALS_SIZE", defines[1].Name)
	assert.Equal(t, 32, defines[1].Value)

	// Two lanes cannot be split four ways
	_, err := s.Plan(8192, 2, 2)
	assert.ErrorIs(t, err, ErrIncompatibleShape)
}

func TestCatalog_Contract(t *testing.T) {
	catalog := Catalog()
	require.Len(t, catalog, 8)

	seenNames := make(map[string]bool)
	seenKernels := make(map[string]bool)
	for _, s := range catalog {
		assert.False(t, seenNames[s.Name], "duplicate name %s", s.Name)
		assert.False(t, seenKernels[s.Kernel], "duplicate kernel %s", s.Kernel)
		seenNames[s.Name] = true
		seenKernels[s.Kernel] = true

		assert.NotEmpty(t, s.Scratch, s.Name)
		assert.LessOrEqual(t, len(s.Scratch), 2, s.Name)
		assert.True(t, strings.HasPrefix(strings.TrimSpace(s.Body), "{"), s.Name)
		assert.Contains(t, s.Body, "@outer", s.Name)
		assert.Contains(t, s.Body, "@inner", s.Name)
		assert.Contains(t, s.Body, "@shared", s.Name)
		for _, r := range s.Scratch {
			assert.Contains(t, s.Body, r.Name+"_SIZE", s.Name)
		}
		assert.Equal(t, strings.Count(s.Body, "{"), strings.Count(s.Body, "}"), s.Name)
	}
}

func TestSelect(t *testing.T) {
	all, err := Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 8)

	picked, err := Select([]string{"wide-local-scratch", "tree-sequential"})
	require.NoError(t, err)
	assert.Equal(t, []string{"wide-local-scratch", "tree-sequential"}, Names(picked))

	_, err = Select([]string{"tree-sequential", "nope"})
	assert.ErrorIs(t, err, ErrUnknown)

	_, err = Select([]string{"tree-sequential", "tree-sequential"})
	assert.Error(t, err)
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "iterative", Iterative.String())
	assert.Equal(t, "fixed-two-pass", FixedTwoPass.String())
	assert.Equal(t, "Policy(7)", Policy(7).String())
}
