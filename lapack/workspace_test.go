// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lapack

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomlx/gosolver/blas"
	"github.com/gomlx/gosolver/types/matrix"
)

func TestPlannerDeterminism(t *testing.T) {
	// Identical inputs must produce identical descriptors: the caller's size
	// query and the sizing at execution time have to agree.
	a := GetrfSizes[float64, int32](500, 300, true, 7, 512)
	b := GetrfSizes[float64, int32](500, 300, true, 7, 512)
	require.Equal(t, a, b)

	c := GetriSizes[complex128, int64](200, false, 3)
	d := GetriSizes[complex128, int64](200, false, 3)
	require.Equal(t, c, d)
}

func TestPlannerZeroProblem(t *testing.T) {
	for _, sizes := range []WorkspaceSizes{
		GetrfSizes[float64, int32](0, 10, true, 1, 10),
		GetrfSizes[float64, int32](10, 10, true, 0, 10),
		GetrsSizes[float64, int32](matrix.NoTrans, 10, 0, 1, 10, 10),
		GesvOutofplaceSizes[float64, int32](0, 1, 1),
		GetriSizes[float64, int32](0, true, 4),
	} {
		require.Zero(t, sizes.Total())
		require.True(t, sizes.OptimalMemory)
	}
}

func TestPlannerBaseCaseVsBlocked(t *testing.T) {
	base := GetrfSizes[float64, int32](BlockSize, BlockSize, true, 2, BlockSize)
	require.Zero(t, base.Work1, "base case needs no trsm scratch")
	require.Zero(t, base.InnerPivots)
	require.NotZero(t, base.Scalars)
	require.NotZero(t, base.PivotVal)
	require.True(t, base.OptimalMemory)

	blocked := GetrfSizes[float64, int32](BlockSize+1, BlockSize+1, true, 2, BlockSize+1)
	require.NotZero(t, blocked.Work1)
	require.NotZero(t, blocked.InnerPivots)
	require.NotZero(t, blocked.InnerInfo)
	require.Greater(t, blocked.Total(), base.Total())

	// Without pivoting there is nothing to stage for the pivot search rows.
	npvt := GetrfSizes[float64, int32](BlockSize+1, BlockSize+1, false, 2, BlockSize+1)
	require.Zero(t, npvt.PivotIdx)
	require.Zero(t, npvt.InnerPivots)
}

func TestPlannerIndexWidth(t *testing.T) {
	w32 := GetrfSizes[float64, int32](200, 200, true, 3, 200)
	w64 := GetrfSizes[float64, int64](200, 200, true, 3, 200)
	require.Equal(t, 2*w32.PivotIdx, w64.PivotIdx)
	require.Equal(t, 2*w32.InnerPivots, w64.InnerPivots)
	require.Equal(t, w32.Work1, w64.Work1, "element scratch does not depend on the index width")
}

func TestMaxWith(t *testing.T) {
	a := WorkspaceSizes{Work1: 10, Work3: 5, TmpCopy: 1, OptimalMemory: true}
	b := WorkspaceSizes{Work1: 3, Work3: 50, PivotVal: 8, OptimalMemory: true}
	m := a.MaxWith(b)
	require.Equal(t, 10, m.Work1)
	require.Equal(t, 50, m.Work3)
	require.Equal(t, 8, m.PivotVal)
	require.Equal(t, 1, m.TmpCopy)
	require.True(t, m.OptimalMemory)

	b.OptimalMemory = false
	require.False(t, a.MaxWith(b).OptimalMemory, "one degraded constituent degrades the composite")
}

func TestTotalIsAlignedAndCoversRoles(t *testing.T) {
	sizes := GetrfSizes[float64, int32](130, 130, true, 3, 130)
	total := sizes.Total()
	require.Zero(t, total%16)
	sum := sizes.Scalars + sizes.Work1 + sizes.Work2 + sizes.Work3 + sizes.Work4 +
		sizes.PivotVal + sizes.PivotIdx + sizes.InnerPivots + sizes.InnerInfo + sizes.TmpCopy
	require.GreaterOrEqual(t, total, sum)
}

func TestGesvSizesAreTheComposite(t *testing.T) {
	const n, nrhs, batch = 150, 9, 2
	factor := GetrfSizes[float64, int32](n, n, true, batch, n)
	solve := GetrsSizes[float64, int32](matrix.NoTrans, n, nrhs, batch, n, n)
	require.Equal(t, factor.MaxWith(solve), GesvOutofplaceSizes[float64, int32](n, nrhs, batch))
}

func TestGetriOutofplaceSizesMatchInplace(t *testing.T) {
	require.Equal(t,
		GetriSizes[float64, int32](90, true, 3),
		GetriOutofplaceSizes[float64, int32](90, true, 3))
}

func TestPlannerOptimalCeiling(t *testing.T) {
	// A problem whose wide-path roles blow past the ceiling degrades to the
	// narrow path instead of demanding the memory.
	huge := GetrfSizes[float64, int32](1 << 21, 1 << 21, true, 1, 1<<21)
	require.False(t, huge.OptimalMemory)
	require.Zero(t, huge.Work3)
	require.NotZero(t, huge.Work1, "the narrow path scratch is always granted")
}

func TestCompositePanelDegradation(t *testing.T) {
	// Once n*n elements blow the optimal-role ceiling, the solve's wide-path
	// request is denied, but the factorization's small panel grant survives
	// the composite max. The execution side must then treat Work2 as absent
	// for the solve: capacity decides the path, not presence.
	const n = 2900 // first float64 failure region: n*n*8 > optimalRoleCeiling
	solve := GetrsSizes[float64, int32](matrix.NoTrans, n, 1, 1, n, n)
	require.Zero(t, solve.Work2)
	require.False(t, solve.OptimalMemory)

	composite := GesvOutofplaceSizes[float64, int32](n, 1, 1)
	require.NotZero(t, composite.Work2, "the factorization's panel grant survives the max")
	require.Less(t, composite.Work2, blas.TrsmWorkPanelLen(n)*8)
	require.False(t, composite.OptimalMemory)

	// The capacity gate: a Work2 sized for the panel grant serves block-width
	// triangles but not the full n x n one.
	ws := &workspace[float64, int32]{work2: make([]float64, composite.Work2/8)}
	require.NotNil(t, ws.trsmPanel(BlockSize, 1))
	require.Nil(t, ws.trsmPanel(n, 1))
	require.Nil(t, (&workspace[float64, int32]{}).trsmPanel(1, 1))
}

func TestGetriSizesTmpCopyNeverDegraded(t *testing.T) {
	// TmpCopy is a required stash, not a packing optimization: shapes whose
	// panel stash exceeds the optimal-role ceiling still get it in full, with
	// only the OptimalMemory flag degrading.
	const n, batch = 256, 257 // complex128: n*64*batch*16 just above the ceiling
	sizes := GetriSizes[complex128, int32](n, true, batch)
	require.Equal(t, n*BlockSize*batch*16, sizes.TmpCopy)
	require.False(t, sizes.OptimalMemory)

	small := GetriSizes[float64, int32](100, true, 3)
	require.Equal(t, 100*BlockSize*3*8, small.TmpCopy)
	require.True(t, small.OptimalMemory)
}

func TestGetriSizesCoverFactorization(t *testing.T) {
	const n, batch = 200, 2
	inv := GetriSizes[float64, int32](n, true, batch)
	factor := GetrfSizes[float64, int32](n, n, true, batch, n)
	require.Equal(t, inv, inv.MaxWith(factor), "inversion sizes dominate the factorization's")
	require.NotZero(t, inv.TmpCopy)
}
