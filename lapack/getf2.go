// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lapack

import (
	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/types/matrix"
)

// getf2 is the unblocked base-case factorization: column-by-column
// elimination with partial pivoting over an m x n panel, run independently
// and in parallel for every batch instance.
//
// Pivots are recorded 1-based and panel-relative; the blocked caller offsets
// them. info must have been reset beforehand; only the FIRST exactly-zero
// pivot of an instance is recorded, and the elimination keeps going so the
// factors stay usable for rank-revealing callers.
//
// pivotVal/pivotIdx stage the running column search's candidate magnitude and
// row; they are scratch, one entry per instance.
func getf2[T matrix.Element, I matrix.Index](s *device.Stream, m, n int,
	a matrix.Batch[T], ipiv matrix.Pivots[I], info []I,
	pivotVal []T, pivotIdx []I, pivot bool) {
	if m == 0 || n == 0 {
		return
	}
	dim := min(m, n)
	s.Launch(a.Count, func(b int) {
		inst := a.Instance(b)
		at := func(i, j int) int { return i*a.Inc + j*a.Ld }
		var piv []I
		if pivot {
			piv = ipiv.Instance(b)
		}

		for k := 0; k < dim; k++ {
			p := k
			pv := inst[at(k, k)]
			if pivot {
				// Largest magnitude at or below the diagonal; ties break to
				// the lowest row index (strict > comparison). The running
				// candidate lives in the per-instance staging slots.
				pivotVal[b] = pv
				pivotIdx[b] = I(k + 1)
				for i := k + 1; i < m; i++ {
					if v := inst[at(i, k)]; matrix.Abs1(v) > matrix.Abs1(pivotVal[b]) {
						pivotVal[b] = v
						pivotIdx[b] = I(i + 1)
					}
				}
				p = int(pivotIdx[b]) - 1
				pv = pivotVal[b]
				piv[k] = pivotIdx[b]
			}

			if matrix.IsZero(pv) {
				if info[b] == 0 {
					info[b] = I(k + 1)
				}
			} else {
				if p != k {
					swapRows(inst, a.Inc, a.Ld, k, p, 0, n)
				}
				for i := k + 1; i < m; i++ {
					inst[at(i, k)] /= pv
				}
			}

			// Rank-1 trailing update of the panel.
			for j := k + 1; j < n; j++ {
				akj := inst[at(k, j)]
				if matrix.IsZero(akj) {
					continue
				}
				for i := k + 1; i < m; i++ {
					inst[at(i, j)] -= inst[at(i, k)] * akj
				}
			}
		}
	})
}
