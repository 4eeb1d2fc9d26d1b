// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lapack

import (
	"k8s.io/klog/v2"

	"github.com/gomlx/gosolver/blas"
	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/types/matrix"
)

// invertFromFactors turns the LU factors held in a into the inverse, in
// place: invert U with a triangular inversion, then peel the unit-lower
// factor off block by block from the right, and finally undo the row
// permutation with column interchanges in reverse pivot order.
//
// Instances flagged singular by the factorization produce Inf/NaN here, not
// an error; the info array is the caller's screen.
func invertFromFactors[T matrix.Element, I matrix.Index](s *device.Stream, n int,
	a matrix.Batch[T], ipiv matrix.Pivots[I], ws *workspace[T, I], pivot bool) {
	count := a.Count
	one := matrix.One[T]()
	negOne := -one

	blas.Trtri(s, matrix.Upper, matrix.NonUnit, n, a)

	// tmp aliases the TmpCopy role as a per-instance n x BlockSize scratch.
	tmp := matrix.NewStrided(ws.tmpCopy, n, n*BlockSize, count)

	jStart := ((n - 1) / BlockSize) * BlockSize
	for j := jStart; j >= 0; j -= BlockSize {
		jb := min(BlockSize, n-j)

		// Stash the unit-lower columns of this block and clear them in A, so
		// A's columns can accumulate the inverse.
		s.Launch2D(count, jb, func(b, c int) {
			inst := a.Instance(b)
			tInst := tmp.Instance(b)
			col := j + c
			for i := col + 1; i < n; i++ {
				tInst[i+c*n] = inst[i*a.Inc+col*a.Ld]
				inst[i*a.Inc+col*a.Ld] = 0
			}
		})

		if n-j-jb > 0 {
			blas.Gemm(s, matrix.NoTrans, matrix.NoTrans, n, jb, n-j-jb,
				negOne, a.OffsetBy(0, j+jb), tmp.OffsetBy(j+jb, 0),
				one, a.OffsetBy(0, j), nil, nil)
		}
		blas.Trsm(s, matrix.Right, matrix.Lower, matrix.NoTrans, matrix.Unit,
			n, jb, one, tmp.OffsetBy(j, 0), a.OffsetBy(0, j),
			ws.work1, ws.trsmPanel(jb, count))
	}

	if pivot {
		// Row interchanges of the factorization become column interchanges
		// of the inverse, undone last-to-first.
		s.Launch(count, func(b int) {
			inst := a.Instance(b)
			piv := ipiv.Instance(b)
			for jc := n - 1; jc >= 0; jc-- {
				p := int(piv[jc]) - 1
				if p == jc {
					continue
				}
				for i := 0; i < n; i++ {
					i1 := i*a.Inc + jc*a.Ld
					i2 := i*a.Inc + p*a.Ld
					inst[i1], inst[i2] = inst[i2], inst[i1]
				}
			}
		})
	}
}

// getriTemplate factors A and overwrites it with its inverse.
func getriTemplate[T matrix.Element, I matrix.Index](s *device.Stream, n int,
	a matrix.Batch[T], ipiv matrix.Pivots[I], info []I, ws *workspace[T, I], pivot bool) {
	getrfTemplate(s, n, n, a, ipiv, info, ws, pivot)
	if n == 0 || a.Count == 0 {
		return
	}
	invertFromFactors(s, n, a, ipiv, ws, pivot)
}

// getriOutofplaceTemplate factors A in place, then builds the inverse in C,
// leaving A holding the raw LU factors -- a documented caller-visible side
// effect, not an accident.
func getriOutofplaceTemplate[T matrix.Element, I matrix.Index](s *device.Stream, n int,
	a matrix.Batch[T], ipiv matrix.Pivots[I], c matrix.Batch[T], info []I,
	ws *workspace[T, I], pivot bool) {
	getrfTemplate(s, n, n, a, ipiv, info, ws, pivot)
	if n == 0 || a.Count == 0 {
		return
	}
	copyMat(s, n, n, a, c)
	invertFromFactors(s, n, c, ipiv, ws, pivot)
}

func getriImpl[T matrix.Element, I matrix.Index](h *device.Handle, name string, n int,
	a matrix.Batch[T], lda int, ipiv matrix.Pivots[I], info []I, pivot bool) Status {
	klog.V(2).Infof("%s: n=%d lda=%d batch=%d dtype=%s", name, n, lda, a.Count, matrix.DTypeOf[T]())

	if h == nil {
		return StatusInvalidHandle
	}
	if matrix.Is64[I]() && !h.Index64Enabled() {
		return StatusNotImplemented
	}
	if st := getriArgCheck(h, n, lda, a, ipiv, info, pivot, a.Count); st != StatusContinue {
		return st
	}

	sizes := GetriSizes[T, I](n, pivot, a.Count)
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
		getriTemplate(s, n, a, ipiv, info, ws, pivot)
	})
	return StatusSuccess
}

func getriOutofplaceImpl[T matrix.Element, I matrix.Index](h *device.Handle, name string, n int,
	a matrix.Batch[T], lda int, ipiv matrix.Pivots[I], c matrix.Batch[T], ldc int,
	info []I, pivot bool) Status {
	klog.V(2).Infof("%s: n=%d lda=%d ldc=%d batch=%d dtype=%s", name, n, lda, ldc, a.Count, matrix.DTypeOf[T]())

	if h == nil {
		return StatusInvalidHandle
	}
	if matrix.Is64[I]() && !h.Index64Enabled() {
		return StatusNotImplemented
	}
	if st := getriOutofplaceArgCheck(h, n, lda, ldc, a, c, ipiv, info, pivot, a.Count); st != StatusContinue {
		return st
	}

	sizes := GetriOutofplaceSizes[T, I](n, pivot, a.Count)
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
		getriOutofplaceTemplate(s, n, a, ipiv, c, info, ws, pivot)
	})
	return StatusSuccess
}

// Getri factors the n x n matrix A and overwrites it with its inverse.
// info reports singular instances exactly like Getrf; the inverse of a
// flagged instance is Inf/NaN-contaminated, not absent.
func Getri[T matrix.Element, I matrix.Index](h *device.Handle, n int, a []T, lda int, ipiv []I, info []I) Status {
	return getriImpl(h, "getri", n, matrix.Single(a, lda), lda, matrix.NewPivots(ipiv, 0), info, true)
}

// GetriNpvt is Getri without pivoting; no pivot vector is produced and the
// factorization's stability caveats apply.
func GetriNpvt[T matrix.Element, I matrix.Index](h *device.Handle, n int, a []T, lda int, info []I) Status {
	return getriImpl(h, "getri_npvt", n, matrix.Single(a, lda), lda, matrix.Pivots[I]{}, info, false)
}

// GetriBatched inverts len(a) matrices in place.
func GetriBatched[T matrix.Element, I matrix.Index](h *device.Handle, n int, a [][]T, lda int,
	ipiv []I, strideP int, info []I) Status {
	return getriImpl(h, "getri_batched", n, matrix.NewBatched(a, lda), lda,
		matrix.NewPivots(ipiv, strideP), info, true)
}

// GetriStridedBatched inverts batch matrices in place, strided layout.
func GetriStridedBatched[T matrix.Element, I matrix.Index](h *device.Handle, n int, a []T, lda int,
	strideA int, ipiv []I, strideP int, info []I, batch int) Status {
	return getriImpl(h, "getri_strided_batched", n, matrix.NewStrided(a, lda, strideA, batch), lda,
		matrix.NewPivots(ipiv, strideP), info, true)
}

// GetriOutofplace factors A in place and writes A's inverse to C, leaving A
// holding the LU factors.
func GetriOutofplace[T matrix.Element, I matrix.Index](h *device.Handle, n int, a []T, lda int,
	ipiv []I, c []T, ldc int, info []I) Status {
	return getriOutofplaceImpl(h, "getri_outofplace", n, matrix.Single(a, lda), lda,
		matrix.NewPivots(ipiv, 0), matrix.Single(c, ldc), ldc, info, true)
}

// GetriOutofplaceStridedBatched is GetriOutofplace over strided batches.
func GetriOutofplaceStridedBatched[T matrix.Element, I matrix.Index](h *device.Handle, n int, a []T, lda int,
	strideA int, ipiv []I, strideP int, c []T, ldc int, strideC int, info []I, batch int) Status {
	return getriOutofplaceImpl(h, "getri_outofplace_strided_batched", n,
		matrix.NewStrided(a, lda, strideA, batch), lda, matrix.NewPivots(ipiv, strideP),
		matrix.NewStrided(c, ldc, strideC, batch), ldc, info, true)
}
