// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lapack

import (
	"k8s.io/klog/v2"

	"github.com/gomlx/gosolver/blas"
	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/types/matrix"
)

// getrsTemplate solves op(A)*X = B in place in B, using the factors and
// pivots produced by the factorizer.
//
// It does not re-check the factorization's info: a singular factor makes the
// back-substitution divide by zero and Inf/NaN propagate into that instance's
// solution. Screening info after getrf is the caller's documented
// responsibility.
func getrsTemplate[T matrix.Element, I matrix.Index](s *device.Stream, trans matrix.Operation,
	n, nrhs int, a matrix.Batch[T], ipiv matrix.Pivots[I], b matrix.Batch[T],
	ws *workspace[T, I]) {
	if n == 0 || nrhs == 0 || b.Count == 0 {
		return
	}
	one := matrix.One[T]()
	panel := ws.trsmPanel(n, b.Count)

	if trans == matrix.NoTrans {
		// P*B, then L*Y = P*B, then U*X = Y.
		laswpForward(s, nrhs, b, 0, n, ipiv)
		blas.Trsm(s, matrix.Left, matrix.Lower, matrix.NoTrans, matrix.Unit,
			n, nrhs, one, a, b, ws.work1, panel)
		blas.Trsm(s, matrix.Left, matrix.Upper, matrix.NoTrans, matrix.NonUnit,
			n, nrhs, one, a, b, ws.work1, panel)
		return
	}

	// op(A) = op(U)*op(L): solve op(U), then op(L), then undo the
	// permutation in reverse.
	blas.Trsm(s, matrix.Left, matrix.Upper, trans, matrix.NonUnit,
		n, nrhs, one, a, b, ws.work1, panel)
	blas.Trsm(s, matrix.Left, matrix.Lower, trans, matrix.Unit,
		n, nrhs, one, a, b, ws.work1, panel)
	laswpBackward(s, nrhs, b, 0, n, ipiv)
}

func getrsImpl[T matrix.Element, I matrix.Index](h *device.Handle, name string, trans matrix.Operation,
	n, nrhs int, a matrix.Batch[T], lda int, ipiv matrix.Pivots[I], b matrix.Batch[T], ldb int) Status {
	klog.V(2).Infof("%s: trans=%d n=%d nrhs=%d lda=%d ldb=%d batch=%d dtype=%s",
		name, trans, n, nrhs, lda, ldb, b.Count, matrix.DTypeOf[T]())

	if h == nil {
		return StatusInvalidHandle
	}
	if matrix.Is64[I]() && !h.Index64Enabled() {
		return StatusNotImplemented
	}
	if st := getrsArgCheck(h, trans, n, nrhs, lda, ldb, a, b, ipiv, b.Count); st != StatusContinue {
		return st
	}

	sizes := GetrsSizes[T, I](trans, n, nrhs, b.Count, lda, ldb)
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
		getrsTemplate(s, trans, n, nrhs, a, ipiv, b, ws)
	})
	return StatusSuccess
}

// Getrs solves op(A)*X = B for a single right-hand-side matrix B (n x nrhs),
// in place in B, given the factors and pivot vector produced by Getrf on A.
//
// Getrs trusts the caller to have checked Getrf's info: it does not
// re-validate singularity, and solving with a zero diagonal in U produces
// Inf/NaN in the solution rather than an error.
func Getrs[T matrix.Element, I matrix.Index](h *device.Handle, trans matrix.Operation,
	n, nrhs int, a []T, lda int, ipiv []I, b []T, ldb int) Status {
	return getrsImpl(h, "getrs", trans, n, nrhs, matrix.Single(a, lda), lda,
		matrix.NewPivots(ipiv, 0), matrix.Single(b, ldb), ldb)
}

// GetrsBatched is Getrs over an array of per-instance A and B slices, with a
// flat pivot array holding strideP entries per instance.
func GetrsBatched[T matrix.Element, I matrix.Index](h *device.Handle, trans matrix.Operation,
	n, nrhs int, a [][]T, lda int, ipiv []I, strideP int, b [][]T, ldb int) Status {
	return getrsImpl(h, "getrs_batched", trans, n, nrhs, matrix.NewBatched(a, lda), lda,
		matrix.NewPivots(ipiv, strideP), matrix.NewBatched(b, ldb), ldb)
}

// GetrsStridedBatched is Getrs over strided-batched A and B.
func GetrsStridedBatched[T matrix.Element, I matrix.Index](h *device.Handle, trans matrix.Operation,
	n, nrhs int, a []T, lda int, strideA int, ipiv []I, strideP int,
	b []T, ldb int, strideB int, batch int) Status {
	return getrsImpl(h, "getrs_strided_batched", trans, n, nrhs,
		matrix.NewStrided(a, lda, strideA, batch), lda,
		matrix.NewPivots(ipiv, strideP), matrix.NewStrided(b, ldb, strideB, batch), ldb)
}
