// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package blas

import (
	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/types/matrix"
)

// Gemm computes C = alpha*opA(A)*opB(B) + beta*C for every instance of the
// batch, where opA(A) is m x k, opB(B) is k x n and C is m x n.
//
// packA and packB are optional workspaces. When non-nil, opA(A) is staged
// row-major (m*k elements per instance) and opB(B) column-major (k*n elements
// per instance) so the inner products run over unit strides; when nil the
// operands are read in place through their strides. Passing k=0 reduces to
// C = beta*C.
//
// Must be called from within a stream task; it returns after the grid joined.
func Gemm[T matrix.Element](s *device.Stream, opA, opB matrix.Operation, m, n, k int,
	alpha T, a matrix.Batch[T], b matrix.Batch[T], beta T, c matrix.Batch[T],
	packA, packB []T) {
	count := c.Count
	if count == 0 || m == 0 || n == 0 {
		return
	}

	if k > 0 && packA != nil {
		s.Launch(count, func(bi int) {
			acc := newAccessor(a, bi, opA)
			dst := packA[bi*m*k:]
			for i := 0; i < m; i++ {
				row := dst[i*k:]
				for t := 0; t < k; t++ {
					row[t] = acc.at(i, t)
				}
			}
		})
	}
	if k > 0 && packB != nil {
		s.Launch(count, func(bi int) {
			acc := newAccessor(b, bi, opB)
			dst := packB[bi*k*n:]
			for j := 0; j < n; j++ {
				col := dst[j*k:]
				for t := 0; t < k; t++ {
					col[t] = acc.at(t, j)
				}
			}
		})
	}

	colBlocks := ceilDiv(n, colBlockSize)
	s.Launch2D(count*colBlocks, 1, func(g, _ int) {
		bi, jb := g/colBlocks, g%colBlocks
		j0 := jb * colBlockSize
		j1 := min(j0+colBlockSize, n)

		cInst := c.Instance(bi)
		var aAcc, bAcc accessor[T]
		var aPacked, bPacked []T
		if k > 0 {
			if packA != nil {
				aPacked = packA[bi*m*k:]
			} else {
				aAcc = newAccessor(a, bi, opA)
			}
			if packB != nil {
				bPacked = packB[bi*k*n:]
			} else {
				bAcc = newAccessor(b, bi, opB)
			}
		}

		var zero T
		for j := j0; j < j1; j++ {
			for i := 0; i < m; i++ {
				var sum T
				if aPacked != nil && bPacked != nil {
					lhs := aPacked[i*k : i*k+k]
					rhs := bPacked[j*k : j*k+k]
					for t := range lhs {
						sum += lhs[t] * rhs[t]
					}
				} else {
					for t := 0; t < k; t++ {
						var av, bv T
						if aPacked != nil {
							av = aPacked[i*k+t]
						} else {
							av = aAcc.at(i, t)
						}
						if bPacked != nil {
							bv = bPacked[j*k+t]
						} else {
							bv = bAcc.at(t, j)
						}
						sum += av * bv
					}
				}
				ci := i*c.Inc + j*c.Ld
				if beta == zero {
					cInst[ci] = alpha * sum
				} else {
					cInst[ci] = alpha*sum + beta*cInst[ci]
				}
			}
		}
	})
}
