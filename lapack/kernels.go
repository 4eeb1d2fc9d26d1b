// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lapack

import (
	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/types/matrix"
)

// resetInfo sets info to value for every instance. Runs as a separate
// pre-pass so stale values never leak, even on zero-size quick returns.
func resetInfo[I matrix.Index](s *device.Stream, info []I, count int, value I) {
	s.Launch(count, func(b int) {
		info[b] = value
	})
}

// copyMat copies the rows x cols region of every src instance to dst.
func copyMat[T matrix.Element](s *device.Stream, rows, cols int, src, dst matrix.Batch[T]) {
	if rows == 0 || cols == 0 {
		return
	}
	s.Launch2D(src.Count, cols, func(b, j int) {
		sInst := src.Instance(b)
		dInst := dst.Instance(b)
		for i := 0; i < rows; i++ {
			dInst[i*dst.Inc+j*dst.Ld] = sInst[i*src.Inc+j*src.Ld]
		}
	})
}

// swapRows exchanges rows r1 and r2 of one instance over columns [c0, c1).
func swapRows[T matrix.Element](inst []T, inc, ld, r1, r2, c0, c1 int) {
	for j := c0; j < c1; j++ {
		i1 := r1*inc + j*ld
		i2 := r2*inc + j*ld
		inst[i1], inst[i2] = inst[i2], inst[i1]
	}
}

// laswpForward applies the row interchanges recorded in ipiv[k1:k2] to the
// n-column matrices, in forward order -- the order the pivots were produced
// during factorization. Pivot entries are 1-based absolute row numbers.
func laswpForward[T matrix.Element, I matrix.Index](s *device.Stream, n int,
	a matrix.Batch[T], k1, k2 int, ipiv matrix.Pivots[I]) {
	if n == 0 || k2 <= k1 {
		return
	}
	s.Launch(a.Count, func(b int) {
		inst := a.Instance(b)
		piv := ipiv.Instance(b)
		for i := k1; i < k2; i++ {
			p := int(piv[i]) - 1
			if p != i {
				swapRows(inst, a.Inc, a.Ld, i, p, 0, n)
			}
		}
	})
}

// laswpBackward undoes the interchanges: reverse order, same swaps.
func laswpBackward[T matrix.Element, I matrix.Index](s *device.Stream, n int,
	a matrix.Batch[T], k1, k2 int, ipiv matrix.Pivots[I]) {
	if n == 0 || k2 <= k1 {
		return
	}
	s.Launch(a.Count, func(b int) {
		inst := a.Instance(b)
		piv := ipiv.Instance(b)
		for i := k2 - 1; i >= k1; i-- {
			p := int(piv[i]) - 1
			if p != i {
				swapRows(inst, a.Inc, a.Ld, i, p, 0, n)
			}
		}
	})
}

// applyPanelInterchanges applies the swaps of panel rows [j, j+jb) to the
// columns OUTSIDE the panel: the already-factored region [0, j) and the
// not-yet-factored region [j+jb, n). The panel's own columns were swapped by
// the base-case factorization.
func applyPanelInterchanges[T matrix.Element, I matrix.Index](s *device.Stream, n int,
	a matrix.Batch[T], j, jb int, ipiv matrix.Pivots[I]) {
	s.Launch(a.Count, func(b int) {
		inst := a.Instance(b)
		piv := ipiv.Instance(b)
		for k := j; k < j+jb; k++ {
			p := int(piv[k]) - 1
			if p == k {
				continue
			}
			swapRows(inst, a.Inc, a.Ld, k, p, 0, j)
			swapRows(inst, a.Inc, a.Ld, k, p, j+jb, n)
		}
	})
}
