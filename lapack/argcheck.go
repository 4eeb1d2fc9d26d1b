// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lapack

import (
	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/types/matrix"
)

// Argument validation, shared by all entry points.
//
// The check order is part of the API contract and tests rely on it:
//  1. unsupported values,
//  2. invalid sizes,
//  3. invalid pointers -- skipped entirely while the handle is in
//     memory-size query mode, which accepts nil data.
//
// A passing check returns StatusContinue, the internal go-ahead sentinel.

func getf2GetrfArgCheck[T matrix.Element, I matrix.Index](h *device.Handle, m, n, lda int,
	a matrix.Batch[T], ipiv matrix.Pivots[I], info []I, pivot bool, batch int) Status {
	// 1. invalid/unsupported values: n/a.

	// 2. invalid sizes
	if m < 0 || n < 0 || lda < m || batch < 0 {
		return StatusInvalidSize
	}

	if h.InSizeQuery() {
		return StatusContinue
	}

	// 3. invalid pointers
	if (m*n > 0 && a.IsNil()) || (pivot && min(m, n) > 0 && ipiv.IsNil()) || (batch > 0 && info == nil) {
		return StatusInvalidPointer
	}
	return StatusContinue
}

func getrsArgCheck[T matrix.Element, I matrix.Index](h *device.Handle, trans matrix.Operation,
	n, nrhs, lda, ldb int, a matrix.Batch[T], bm matrix.Batch[T], ipiv matrix.Pivots[I], batch int) Status {
	// 1. invalid/unsupported values
	if !trans.Valid() {
		return StatusInvalidValue
	}

	// 2. invalid sizes
	if n < 0 || nrhs < 0 || lda < n || ldb < n || batch < 0 {
		return StatusInvalidSize
	}

	if h.InSizeQuery() {
		return StatusContinue
	}

	// 3. invalid pointers
	if (n > 0 && a.IsNil()) || (n > 0 && ipiv.IsNil()) || (n*nrhs > 0 && bm.IsNil()) {
		return StatusInvalidPointer
	}
	return StatusContinue
}

func gesvOutofplaceArgCheck[T matrix.Element, I matrix.Index](h *device.Handle, n, nrhs, lda, ldb, ldx int,
	a, bm, x matrix.Batch[T], ipiv matrix.Pivots[I], info []I, batch int) Status {
	// 1. invalid/unsupported values: n/a.

	// 2. invalid sizes
	if n < 0 || nrhs < 0 || lda < n || ldb < n || ldx < n || batch < 0 {
		return StatusInvalidSize
	}

	if h.InSizeQuery() {
		return StatusContinue
	}

	// 3. invalid pointers
	if (n > 0 && a.IsNil()) || (n > 0 && ipiv.IsNil()) ||
		(n*nrhs > 0 && bm.IsNil()) || (n*nrhs > 0 && x.IsNil()) || (batch > 0 && info == nil) {
		return StatusInvalidPointer
	}
	return StatusContinue
}

func getriArgCheck[T matrix.Element, I matrix.Index](h *device.Handle, n, lda int,
	a matrix.Batch[T], ipiv matrix.Pivots[I], info []I, pivot bool, batch int) Status {
	// 1. invalid/unsupported values: n/a.

	// 2. invalid sizes
	if n < 0 || lda < n || batch < 0 {
		return StatusInvalidSize
	}

	if h.InSizeQuery() {
		return StatusContinue
	}

	// 3. invalid pointers
	if (n > 0 && a.IsNil()) || (pivot && n > 0 && ipiv.IsNil()) || (batch > 0 && info == nil) {
		return StatusInvalidPointer
	}
	return StatusContinue
}

func getriOutofplaceArgCheck[T matrix.Element, I matrix.Index](h *device.Handle, n, lda, ldc int,
	a, c matrix.Batch[T], ipiv matrix.Pivots[I], info []I, pivot bool, batch int) Status {
	// 1. invalid/unsupported values: n/a.

	// 2. invalid sizes
	if n < 0 || lda < n || ldc < n || batch < 0 {
		return StatusInvalidSize
	}

	if h.InSizeQuery() {
		return StatusContinue
	}

	// 3. invalid pointers
	if (n > 0 && (a.IsNil() || c.IsNil())) || (pivot && n > 0 && ipiv.IsNil()) || (batch > 0 && info == nil) {
		return StatusInvalidPointer
	}
	return StatusContinue
}
