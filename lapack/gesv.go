// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lapack

import (
	"k8s.io/klog/v2"

	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/types/matrix"
)

// gesvOutofplaceTemplate: factor A in place, copy B into X, then solve in
// place in X. The order matters -- the solver mutates its right-hand side, so
// copying first is what keeps the caller's B byte-for-byte intact.
func gesvOutofplaceTemplate[T matrix.Element, I matrix.Index](s *device.Stream, n, nrhs int,
	a matrix.Batch[T], ipiv matrix.Pivots[I], b, x matrix.Batch[T], info []I,
	ws *workspace[T, I]) {
	count := a.Count

	// Start every instance as nonsingular, even on the quick return.
	resetInfo(s, info, count, I(0))
	if n == 0 || nrhs == 0 || count == 0 {
		return
	}

	getrfTemplate(s, n, n, a, ipiv, info, ws, true)
	copyMat(s, n, nrhs, b, x)
	getrsTemplate(s, matrix.NoTrans, n, nrhs, a, ipiv, x, ws)
}

func gesvOutofplaceImpl[T matrix.Element, I matrix.Index](h *device.Handle, name string, n, nrhs int,
	a matrix.Batch[T], lda int, ipiv matrix.Pivots[I], b matrix.Batch[T], ldb int,
	x matrix.Batch[T], ldx int, info []I) Status {
	klog.V(2).Infof("%s: n=%d nrhs=%d lda=%d ldb=%d ldx=%d batch=%d dtype=%s",
		name, n, nrhs, lda, ldb, ldx, a.Count, matrix.DTypeOf[T]())

	if h == nil {
		return StatusInvalidHandle
	}
	if matrix.Is64[I]() && !h.Index64Enabled() {
		return StatusNotImplemented
	}
	if st := gesvOutofplaceArgCheck(h, n, nrhs, lda, ldb, ldx, a, b, x, ipiv, info, a.Count); st != StatusContinue {
		return st
	}

	sizes := GesvOutofplaceSizes[T, I](n, nrhs, a.Count)
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
		gesvOutofplaceTemplate(s, n, nrhs, a, ipiv, b, x, info, ws)
	})
	return StatusSuccess
}

// GesvOutofplace solves A*X = B for a single system, keeping B intact.
//
// A is factored destructively (it ends up holding its LU factors and ipiv the
// row interchanges -- gesv always pivots); B is copied into X and the solve
// happens there. info reports per-instance singularity exactly like Getrf:
// the call itself still succeeds.
func GesvOutofplace[T matrix.Element, I matrix.Index](h *device.Handle, n, nrhs int,
	a []T, lda int, ipiv []I, b []T, ldb int, x []T, ldx int, info []I) Status {
	return gesvOutofplaceImpl(h, "gesv_outofplace", n, nrhs, matrix.Single(a, lda), lda,
		matrix.NewPivots(ipiv, 0), matrix.Single(b, ldb), ldb, matrix.Single(x, ldx), ldx, info)
}

// GesvOutofplaceBatched is GesvOutofplace over per-instance slice arrays.
func GesvOutofplaceBatched[T matrix.Element, I matrix.Index](h *device.Handle, n, nrhs int,
	a [][]T, lda int, ipiv []I, strideP int, b [][]T, ldb int, x [][]T, ldx int, info []I) Status {
	return gesvOutofplaceImpl(h, "gesv_outofplace_batched", n, nrhs, matrix.NewBatched(a, lda), lda,
		matrix.NewPivots(ipiv, strideP), matrix.NewBatched(b, ldb), ldb, matrix.NewBatched(x, ldx), ldx, info)
}

// GesvOutofplaceStridedBatched is GesvOutofplace over strided batches.
func GesvOutofplaceStridedBatched[T matrix.Element, I matrix.Index](h *device.Handle, n, nrhs int,
	a []T, lda int, strideA int, ipiv []I, strideP int, b []T, ldb int, strideB int,
	x []T, ldx int, strideX int, info []I, batch int) Status {
	return gesvOutofplaceImpl(h, "gesv_outofplace_strided_batched", n, nrhs,
		matrix.NewStrided(a, lda, strideA, batch), lda, matrix.NewPivots(ipiv, strideP),
		matrix.NewStrided(b, ldb, strideB, batch), ldb,
		matrix.NewStrided(x, ldx, strideX, batch), ldx, info)
}
