// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package device

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

func TestStreamFIFOOrder(t *testing.T) {
	h := New()
	defer func() { require.NoError(t, h.Finalize()) }()
	s := h.Stream()

	var order []int
	for i := 0; i < 100; i++ {
		i := i
		s.Submit(func() { order = append(order, i) })
	}
	s.Synchronize()
	require.Len(t, order, 100)
	for i, got := range order {
		require.Equal(t, i, got)
	}
}

func TestStreamSubmitIsAsync(t *testing.T) {
	h := New()
	defer func() { _ = h.Finalize() }()
	s := h.Stream()

	release := make(chan struct{})
	var ran atomic.Bool
	s.Submit(func() {
		<-release
		ran.Store(true)
	})
	// Submit must not wait for the task.
	require.False(t, ran.Load())
	close(release)
	s.Synchronize()
	require.True(t, ran.Load())
}

func TestLaunchCoversGrid(t *testing.T) {
	h := New(WithMaxParallelism(4))
	defer func() { _ = h.Finalize() }()
	s := h.Stream()

	for _, n := range []int{0, 1, 3, 64, 1000} {
		hits := make([]int32, max(n, 1))
		s.Submit(func() {
			s.Launch(n, func(i int) {
				atomic.AddInt32(&hits[i], 1)
			})
		})
		s.Synchronize()
		for i := 0; i < n; i++ {
			require.Equal(t, int32(1), hits[i], "n=%d i=%d", n, i)
		}
	}
}

func TestLaunchSequencing(t *testing.T) {
	// Consecutive launches inside one task must see each other's writes.
	h := New()
	defer func() { _ = h.Finalize() }()
	s := h.Stream()

	const n = 256
	v := make([]int, n)
	s.Submit(func() {
		s.Launch(n, func(i int) { v[i] = i })
		s.Launch(n, func(i int) { v[i] *= 2 })
	})
	s.Synchronize()
	for i := range v {
		require.Equal(t, 2*i, v[i])
	}
}

func TestLaunch2D(t *testing.T) {
	h := New()
	defer func() { _ = h.Finalize() }()
	s := h.Stream()

	const n, m = 7, 5
	var count atomic.Int32
	s.Submit(func() {
		s.Launch2D(n, m, func(i, j int) {
			require.Less(t, i, n)
			require.Less(t, j, m)
			count.Add(1)
		})
	})
	s.Synchronize()
	require.Equal(t, int32(n*m), count.Load())
}

func TestArenaTakeAlignmentAndExclusivity(t *testing.T) {
	h := New()
	defer func() { _ = h.Finalize() }()

	a, err := h.AllocWorkspace(1024)
	require.NoError(t, err)
	r1 := a.Take(10)
	r2 := a.Take(100)
	require.Len(t, r1, 10)
	require.Len(t, r2, 100)
	// Regions never overlap and start 16-byte aligned within the slab.
	r1[9] = 0xAA
	r2[0] = 0xBB
	require.Equal(t, byte(0xAA), r1[9])
	require.Nil(t, a.Take(0))
	a.Release()
}

func TestArenaSlabReuse(t *testing.T) {
	h := New()
	defer func() { _ = h.Finalize() }()

	a, err := h.AllocWorkspace(4096)
	require.NoError(t, err)
	slab := a.slab
	a.Release()

	// Same size class gets the pooled slab back.
	b, err := h.AllocWorkspace(3000)
	require.NoError(t, err)
	require.Equal(t, &slab[0], &b.slab[0])
	b.Release()
}

func TestAllocWorkspaceLimit(t *testing.T) {
	h := New(WithWorkspaceLimit(1 << 10))
	defer func() { _ = h.Finalize() }()

	_, err := h.AllocWorkspace(1 << 20)
	require.Error(t, err)

	a, err := h.AllocWorkspace(1 << 10)
	require.NoError(t, err)
	a.Release()

	_, err = h.AllocWorkspace(-1)
	require.Error(t, err)
}

func TestSizeQueryProtocol(t *testing.T) {
	h := New()
	defer func() { _ = h.Finalize() }()

	require.False(t, h.InSizeQuery())
	h.StartSizeQuery()
	require.True(t, h.InSizeQuery())

	// The query keeps the maximum over all recorded calls.
	h.SetOptimalWorkspaceSize(100)
	h.SetOptimalWorkspaceSize(500)
	h.SetOptimalWorkspaceSize(200)
	require.Equal(t, uint64(500), h.StopSizeQuery())
	require.False(t, h.InSizeQuery())

	// A new query starts from zero.
	h.StartSizeQuery()
	require.Equal(t, uint64(0), h.StopSizeQuery())
}

func TestHandleOptions(t *testing.T) {
	h := New()
	require.True(t, h.Index64Enabled())
	require.NoError(t, h.Finalize())
	require.Error(t, h.Finalize())

	h2 := New(WithIndex64(false))
	require.False(t, h2.Index64Enabled())
	require.NoError(t, h2.Finalize())
}

func TestSlabClass(t *testing.T) {
	require.Equal(t, 0, slabClass(0))
	require.Equal(t, 1, slabClass(1))
	require.Equal(t, 1024, slabClass(1000))
	require.Equal(t, 1024, slabClass(1024))
	require.Equal(t, 2048, slabClass(1025))
}
