// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lapack

import (
	"k8s.io/klog/v2"

	"github.com/gomlx/gosolver/blas"
	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/types/matrix"
)

// getrfTemplate runs the panel-blocked factorization on the stream. It is
// called from within a submitted task; the caller owns argument validation
// and workspace allocation.
//
// On return every instance of A holds its factors: the unit-lower factor L in
// the subdiagonal and the upper factor U on and above the diagonal. ipiv
// holds 1-based absolute row interchanges; info holds 0 or the 1-based column
// of the first exactly-zero pivot. The factorization always completes.
func getrfTemplate[T matrix.Element, I matrix.Index](s *device.Stream, m, n int,
	a matrix.Batch[T], ipiv matrix.Pivots[I], info []I,
	ws *workspace[T, I], pivot bool) {
	count := a.Count

	// info=0 pre-pass: runs even on the zero-size quick return so stale
	// values never leak.
	resetInfo(s, info, count, I(0))
	if m == 0 || n == 0 || count == 0 {
		return
	}

	dim := min(m, n)
	if dim <= BlockSize {
		getf2(s, m, n, a, ipiv, info, ws.pivotVal, ws.pivotIdx, pivot)
		return
	}

	one := ws.scalars[0]
	negOne := ws.scalars[1]
	innerPivots := matrix.NewPivots(ws.innerPivots, BlockSize)

	for j := 0; j < dim; j += BlockSize {
		jb := min(BlockSize, dim-j)

		// Base-case factorization of the current panel.
		resetInfo(s, ws.innerInfo, count, I(0))
		getf2(s, m-j, jb, a.OffsetBy(j, j), innerPivots, ws.innerInfo,
			ws.pivotVal, ws.pivotIdx, pivot)

		// Fold the panel results back into the caller's arrays: pivots become
		// absolute, and only the first singular column of an instance sticks.
		jIdx := I(j)
		s.Launch(count, func(b int) {
			if pivot {
				piv := ipiv.Instance(b)
				inner := innerPivots.Instance(b)
				for k := 0; k < jb; k++ {
					piv[j+k] = inner[k] + jIdx
				}
			}
			if ws.innerInfo[b] > 0 && info[b] == 0 {
				info[b] = ws.innerInfo[b] + jIdx
			}
		})

		if pivot {
			applyPanelInterchanges(s, n, a, j, jb, ipiv)
		}

		// Block row of U via triangular solve against the panel's unit-lower
		// part, then the rank-jb trailing update.
		if n-j-jb > 0 {
			blas.Trsm(s, matrix.Left, matrix.Lower, matrix.NoTrans, matrix.Unit,
				jb, n-j-jb, one, a.OffsetBy(j, j), a.OffsetBy(j, j+jb),
				ws.work1, ws.trsmPanel(jb, count))
			if m-j-jb > 0 {
				blas.Gemm(s, matrix.NoTrans, matrix.NoTrans, m-j-jb, n-j-jb, jb,
					negOne, a.OffsetBy(j+jb, j), a.OffsetBy(j, j+jb),
					one, a.OffsetBy(j+jb, j+jb), ws.work3, ws.work4)
			}
		}
	}
}

// getrfImpl is the shared entry-point body: protocol steps 1-5 around
// getrfTemplate.
func getrfImpl[T matrix.Element, I matrix.Index](h *device.Handle, name string, m, n int,
	a matrix.Batch[T], lda int, ipiv matrix.Pivots[I], info []I, pivot bool) Status {
	klog.V(2).Infof("%s: m=%d n=%d lda=%d batch=%d dtype=%s", name, m, n, lda, a.Count, matrix.DTypeOf[T]())

	if h == nil {
		return StatusInvalidHandle
	}
	if matrix.Is64[I]() && !h.Index64Enabled() {
		return StatusNotImplemented
	}
	if st := getf2GetrfArgCheck(h, m, n, lda, a, ipiv, info, pivot, a.Count); st != StatusContinue {
		return st
	}

	sizes := GetrfSizes[T, I](m, n, pivot, a.Count, lda)
	if h.InSizeQuery() {
		h.SetOptimalWorkspaceSize(uint64(sizes.Total()))
		return StatusSuccess
	}

	ws, st := allocWorkspace[T, I](h, sizes)
	if st != StatusSuccess {
		return st
	}
	s := h.Stream()
	s.Submit(func() {
		defer ws.release()
		getrfTemplate(s, m, n, a, ipiv, info, ws, pivot)
	})
	return StatusSuccess
}

// Getrf computes the LU factorization with partial pivoting of a single
// m x n column-major matrix: P*A = L*U, factors overwriting A.
//
// ipiv must have min(m, n) entries and info one entry. The call is issued
// asynchronously on the handle's stream; synchronize the stream before
// reading A, ipiv or info. info[0] is 0 on a nonsingular factorization, or
// the 1-based index k of the first diagonal entry of U computed as exactly
// zero -- the factorization still completes in that case.
func Getrf[T matrix.Element, I matrix.Index](h *device.Handle, m, n int, a []T, lda int, ipiv []I, info []I) Status {
	return getrfImpl(h, "getrf", m, n, matrix.Single(a, lda), lda, matrix.NewPivots(ipiv, 0), info, true)
}

// GetrfNpvt is Getrf without pivoting: faster, numerically unsafe on general
// input, and mathematically an LU decomposition only when one exists without
// row exchanges. No pivot vector is produced.
func GetrfNpvt[T matrix.Element, I matrix.Index](h *device.Handle, m, n int, a []T, lda int, info []I) Status {
	return getrfImpl(h, "getrf_npvt", m, n, matrix.Single(a, lda), lda, matrix.Pivots[I]{}, info, false)
}

// GetrfBatched factors len(a) independent m x n matrices addressed by an
// array of per-instance slices. ipiv is one flat array with strideP entries
// per instance (strideP >= min(m, n)); info has one entry per instance.
func GetrfBatched[T matrix.Element, I matrix.Index](h *device.Handle, m, n int, a [][]T, lda int,
	ipiv []I, strideP int, info []I) Status {
	return getrfImpl(h, "getrf_batched", m, n, matrix.NewBatched(a, lda), lda,
		matrix.NewPivots(ipiv, strideP), info, true)
}

// GetrfNpvtBatched is the no-pivot form of GetrfBatched.
func GetrfNpvtBatched[T matrix.Element, I matrix.Index](h *device.Handle, m, n int, a [][]T, lda int, info []I) Status {
	return getrfImpl(h, "getrf_npvt_batched", m, n, matrix.NewBatched(a, lda), lda,
		matrix.Pivots[I]{}, info, false)
}

// GetrfStridedBatched factors batch matrices living strideA elements apart in
// one flat slice.
func GetrfStridedBatched[T matrix.Element, I matrix.Index](h *device.Handle, m, n int, a []T, lda int,
	strideA int, ipiv []I, strideP int, info []I, batch int) Status {
	return getrfImpl(h, "getrf_strided_batched", m, n, matrix.NewStrided(a, lda, strideA, batch), lda,
		matrix.NewPivots(ipiv, strideP), info, true)
}

// GetrfNpvtStridedBatched is the no-pivot form of GetrfStridedBatched.
func GetrfNpvtStridedBatched[T matrix.Element, I matrix.Index](h *device.Handle, m, n int, a []T, lda int,
	strideA int, info []I, batch int) Status {
	return getrfImpl(h, "getrf_npvt_strided_batched", m, n, matrix.NewStrided(a, lda, strideA, batch), lda,
		matrix.Pivots[I]{}, info, false)
}
