package runner

import (
	"errors"
	"testing"

	"github.com/notargets/ReduceBench/runner/builder"
	"github.com/notargets/ReduceBench/strategy"
	"github.com/notargets/ReduceBench/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Section 1: Creation
// ============================================================================

func TestRunner_Creation(t *testing.T) {
	t.Run("NilDevice", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic for nil Device")
			}
		}()
		NewRunner(nil, builder.Config{GroupSize: 128, GroupCount: 64})
	})

	t.Run("Shape", func(t *testing.T) {
		device := utils.CreateTestDevice()
		defer device.Free()

		kr := NewRunner(device, builder.Config{GroupSize: 64, GroupCount: 8})
		defer kr.Free()

		assert.Equal(t, 64, kr.GroupSize)
		assert.Equal(t, 8, kr.GroupCount)
		assert.Equal(t, builder.UINT32, kr.ValueType)
		assert.Empty(t, kr.Kernels)
	})
}

// ============================================================================
// Section 2: Buffers
// ============================================================================

func TestRunner_BufferRoundTrip(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()

	kr := NewRunner(device, builder.Config{GroupSize: 32, GroupCount: 4})
	defer kr.Free()

	host := make([]uint32, 100)
	for i := range host {
		host[i] = uint32(i*7 + 3)
	}

	buf, err := kr.AllocateBuffer(len(host), RoleInput, host)
	require.NoError(t, err)
	defer buf.Free()
	assert.Equal(t, int64(400), buf.Bytes())
	assert.Equal(t, "input", buf.Role.String())

	back := make([]uint32, len(host))
	require.NoError(t, buf.Download(back))
	assert.Equal(t, host, back)

	v, err := buf.ReadScalar(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)

	v, err = buf.ReadScalar(10)
	require.NoError(t, err)
	assert.Equal(t, uint32(73), v)

	_, err = buf.ReadScalar(100)
	assert.Error(t, err)
	assert.Error(t, buf.Download(make([]uint32, 101)))
}

func TestRunner_AllocateBufferErrors(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()

	kr := NewRunner(device, builder.Config{GroupSize: 32, GroupCount: 4})
	defer kr.Free()

	_, err := kr.AllocateBuffer(0, RoleOutput, nil)
	assert.ErrorIs(t, err, ErrAllocation)

	_, err = kr.AllocateBuffer(4, RoleInput, []uint32{1, 2})
	assert.ErrorIs(t, err, ErrAllocation)
}

// ============================================================================
// Section 3: Device copies and dispatch
// ============================================================================

func TestRunner_CopyPrefix(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()

	kr := NewRunner(device, builder.Config{GroupSize: 16, GroupCount: 4})
	defer kr.Free()

	src := make([]uint32, 50)
	dst := make([]uint32, 50)
	for i := range src {
		src[i] = uint32(1000 + i)
		dst[i] = 7
	}

	srcBuf, err := kr.AllocateBuffer(len(src), RoleOutput, src)
	require.NoError(t, err)
	defer srcBuf.Free()
	dstBuf, err := kr.AllocateBuffer(len(dst), RoleInput, dst)
	require.NoError(t, err)
	defer dstBuf.Free()

	// 37 is not a multiple of the group size
	require.NoError(t, kr.CopyPrefix(dstBuf, srcBuf, 37))
	kr.Finish()

	back := make([]uint32, len(dst))
	require.NoError(t, dstBuf.Download(back))
	for i := range back {
		if i < 37 {
			assert.Equal(t, uint32(1000+i), back[i], "element %d", i)
		} else {
			assert.Equal(t, uint32(7), back[i], "element %d", i)
		}
	}
	assert.True(t, kr.HasKernel("copyPrefix"))

	assert.ErrorIs(t, kr.CopyPrefix(dstBuf, srcBuf, 0), ErrDispatch)
	assert.ErrorIs(t, kr.CopyPrefix(dstBuf, srcBuf, 51), ErrDispatch)
}

func TestRunner_BuildCopy(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()

	kr := NewRunner(device, builder.Config{GroupSize: 16, GroupCount: 4})
	defer kr.Free()

	assert.False(t, kr.HasKernel("copyPrefix"))
	first, err := kr.BuildCopy()
	require.NoError(t, err)
	assert.True(t, kr.HasKernel("copyPrefix"))

	second, err := kr.BuildCopy()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRunner_DispatchOnePass(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()

	const groupSize, groups = 32, 8
	kr := NewRunner(device, builder.Config{GroupSize: groupSize, GroupCount: groups})
	defer kr.Free()

	s, err := strategy.Lookup("tree-sequential")
	require.NoError(t, err)
	_, err = kr.BuildReduction(s.Kernel, s.Body, s.Defines(groupSize))
	require.NoError(t, err)

	host := make([]uint32, groupSize*groups)
	expected := make([]uint32, groups)
	for i := range host {
		host[i] = 0xF0000000 + uint32(i)
		expected[i/groupSize] += host[i]
	}

	in, err := kr.AllocateBuffer(len(host), RoleInput, host)
	require.NoError(t, err)
	defer in.Free()
	out, err := kr.AllocateBuffer(len(host), RoleOutput, nil)
	require.NoError(t, err)
	defer out.Free()

	require.NoError(t, kr.Dispatch(s.Kernel, in, out, len(host), groups))
	kr.Finish()

	partials := make([]uint32, groups)
	require.NoError(t, out.Download(partials))
	assert.Equal(t, expected, partials)
}

func TestRunner_DispatchErrors(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()

	kr := NewRunner(device, builder.Config{GroupSize: 32, GroupCount: 2})
	defer kr.Free()

	in, err := kr.AllocateBuffer(64, RoleInput, nil)
	require.NoError(t, err)
	defer in.Free()
	out, err := kr.AllocateBuffer(64, RoleOutput, nil)
	require.NoError(t, err)
	defer out.Free()

	err = kr.Dispatch("neverBuilt", in, out, 64, 2)
	assert.ErrorIs(t, err, ErrDispatch)

	s, err := strategy.Lookup("fixed-two-pass")
	require.NoError(t, err)
	_, err = kr.BuildReduction(s.Kernel, s.Body, s.Defines(32))
	require.NoError(t, err)

	assert.ErrorIs(t, kr.Dispatch(s.Kernel, in, out, 65, 2), ErrDispatch)
	assert.ErrorIs(t, kr.Dispatch(s.Kernel, in, out, 64, 65), ErrDispatch)
	assert.ErrorIs(t, kr.Dispatch(s.Kernel, in, out, 0, 2), ErrDispatch)
}

func TestRunner_BuildFailure(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()

	kr := NewRunner(device, builder.Config{GroupSize: 32, GroupCount: 2})
	defer kr.Free()

	_, err := kr.BuildKernel("@kernel void broken( { this is not OKL", "broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBuild))
	assert.False(t, kr.HasKernel("broken"))
}

func TestRunner_BuildIsCached(t *testing.T) {
	device := utils.CreateTestDevice()
	defer device.Free()

	kr := NewRunner(device, builder.Config{GroupSize: 32, GroupCount: 2})
	defer kr.Free()

	s, err := strategy.Lookup("tree-interleaved")
	require.NoError(t, err)
	first, err := kr.BuildReduction(s.Kernel, s.Body, s.Defines(32))
	require.NoError(t, err)
	second, err := kr.BuildReduction(s.Kernel, s.Body, s.Defines(32))
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, kr.Kernels, 1)

	kr.Free()
	assert.Empty(t, kr.Kernels)
}
