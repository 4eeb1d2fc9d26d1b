// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package blas

import (
	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/types/matrix"
)

// TrsmBlockSize is the granularity of the diagonal-block packing inside Trsm.
const TrsmBlockSize = 32

// TrsmWorkBlockLen returns the per-instance element count of the diagonal
// block workspace for a triangular operand of the given dimension ("narrow"
// path, always affordable).
func TrsmWorkBlockLen(dim int) int {
	return ceilDiv(dim, TrsmBlockSize) * TrsmBlockSize * TrsmBlockSize
}

// TrsmWorkPanelLen returns the per-instance element count of the full packed
// triangular operand ("wide" path, only granted in optimal-memory mode).
func TrsmWorkPanelLen(dim int) int {
	return dim * dim
}

// Trsm solves op(A)*X = alpha*B (side Left) or X*op(A) = alpha*B (side Right)
// in place in B, for every instance. A is the triangular operand (m x m for
// Left, n x n for Right) with the given fill and diagonal kind; B is m x n.
//
// workBlock and workPanel are optional packing workspaces sized per
// TrsmWorkBlockLen/TrsmWorkPanelLen times the batch count. A nil workPanel
// selects the narrow path; a non-nil one must hold the full
// TrsmWorkPanelLen(dim)*count elements, so callers with a maybe-smaller
// granted role pick the path by capacity and pass nil otherwise. A nil
// workBlock disables packing entirely. The
// diagonal of a singular factor is used as-is: a zero produces Inf/NaN in the
// solution, never an error.
func Trsm[T matrix.Element](s *device.Stream, side matrix.Side, uplo matrix.Fill,
	op matrix.Operation, diag matrix.Diag, m, n int, alpha T,
	a matrix.Batch[T], b matrix.Batch[T], workBlock, workPanel []T) {
	count := b.Count
	if count == 0 || m == 0 || n == 0 {
		return
	}

	dim := m
	if side == matrix.Right {
		dim = n
	}
	// Transposition flips the referenced triangle.
	eff := uplo
	if op != matrix.NoTrans {
		if eff == matrix.Lower {
			eff = matrix.Upper
		} else {
			eff = matrix.Lower
		}
	}

	// Stage the triangular operand: the whole of it on the wide path, just
	// the diagonal blocks on the narrow one.
	packed := workPanel
	full := packed != nil
	if !full {
		packed = workBlock
	}
	if packed != nil {
		s.Launch(count, func(bi int) {
			acc := newAccessor(a, bi, op)
			if full {
				dst := packed[bi*dim*dim:]
				if eff == matrix.Lower {
					for i := 0; i < dim; i++ {
						for t := 0; t <= i; t++ {
							dst[i*dim+t] = acc.at(i, t)
						}
					}
				} else {
					for i := 0; i < dim; i++ {
						for t := i; t < dim; t++ {
							dst[i*dim+t] = acc.at(i, t)
						}
					}
				}
				return
			}
			blockLen := TrsmWorkBlockLen(dim)
			dst := packed[bi*blockLen:]
			for k0 := 0; k0 < dim; k0 += TrsmBlockSize {
				kb := min(TrsmBlockSize, dim-k0)
				blk := dst[(k0/TrsmBlockSize)*TrsmBlockSize*TrsmBlockSize:]
				for i := 0; i < kb; i++ {
					for t := 0; t < kb; t++ {
						blk[i*TrsmBlockSize+t] = acc.at(k0+i, k0+t)
					}
				}
			}
		})
	}

	// read returns op(A)(i, t), preferring the staged copies.
	read := func(bi int, acc accessor[T], i, t int) T {
		if full {
			return packed[bi*dim*dim+i*dim+t]
		}
		if packed != nil && i/TrsmBlockSize == t/TrsmBlockSize {
			blockLen := TrsmWorkBlockLen(dim)
			k0 := (i / TrsmBlockSize) * TrsmBlockSize
			return packed[bi*blockLen+(k0/TrsmBlockSize)*TrsmBlockSize*TrsmBlockSize+
				(i-k0)*TrsmBlockSize+(t-k0)]
		}
		return acc.at(i, t)
	}

	if side == matrix.Left {
		// Columns of B are independent.
		colBlocks := ceilDiv(n, colBlockSize)
		s.Launch(count*colBlocks, func(g int) {
			bi, jb := g/colBlocks, g%colBlocks
			bInst := b.Instance(bi)
			acc := newAccessor(a, bi, op)
			for j := jb * colBlockSize; j < min((jb+1)*colBlockSize, n); j++ {
				col := bInst[j*b.Ld:]
				if eff == matrix.Lower {
					for i := 0; i < m; i++ {
						sum := alpha * col[i*b.Inc]
						for t := 0; t < i; t++ {
							sum -= read(bi, acc, i, t) * col[t*b.Inc]
						}
						if diag == matrix.NonUnit {
							sum /= read(bi, acc, i, i)
						}
						col[i*b.Inc] = sum
					}
				} else {
					for i := m - 1; i >= 0; i-- {
						sum := alpha * col[i*b.Inc]
						for t := i + 1; t < m; t++ {
							sum -= read(bi, acc, i, t) * col[t*b.Inc]
						}
						if diag == matrix.NonUnit {
							sum /= read(bi, acc, i, i)
						}
						col[i*b.Inc] = sum
					}
				}
			}
		})
		return
	}

	// Right side: rows of B are independent.
	rowBlocks := ceilDiv(m, colBlockSize)
	s.Launch(count*rowBlocks, func(g int) {
		bi, ib := g/rowBlocks, g%rowBlocks
		bInst := b.Instance(bi)
		acc := newAccessor(a, bi, op)
		for i := ib * colBlockSize; i < min((ib+1)*colBlockSize, m); i++ {
			row := bInst[i*b.Inc:]
			if eff == matrix.Lower {
				for j := n - 1; j >= 0; j-- {
					sum := alpha * row[j*b.Ld]
					for t := j + 1; t < n; t++ {
						sum -= row[t*b.Ld] * read(bi, acc, t, j)
					}
					if diag == matrix.NonUnit {
						sum /= read(bi, acc, j, j)
					}
					row[j*b.Ld] = sum
				}
			} else {
				for j := 0; j < n; j++ {
					sum := alpha * row[j*b.Ld]
					for t := 0; t < j; t++ {
						sum -= row[t*b.Ld] * read(bi, acc, t, j)
					}
					if diag == matrix.NonUnit {
						sum /= read(bi, acc, j, j)
					}
					row[j*b.Ld] = sum
				}
			}
		}
	})
}
