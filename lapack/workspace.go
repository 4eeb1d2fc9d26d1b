// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lapack

import (
	"unsafe"

	"github.com/gomlx/gosolver/blas"
	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/types/matrix"
)

// BlockSize is the panel width of the blocked factorizer. Chosen empirically
// for throughput; independent of the problem shape.
const BlockSize = 64

// optimalRoleCeiling caps the byte size of any single "wide path" scratch
// role. Roles that would exceed it are not granted, and the planner reports
// OptimalMemory=false so execution falls back to the narrow paths.
const optimalRoleCeiling = 64 << 20

// WorkspaceSizes is the workspace descriptor: the byte size of every named
// scratch role a call needs, plus whether the sizes cover the optimal
// (fully packed) execution paths.
//
// Produced by the pure planner functions below; identical inputs always
// produce identical sizes, so a caller's memory-size query and the sizing
// performed just before execution agree by construction.
type WorkspaceSizes struct {
	// Scalars holds the +1/-1/0 constants passed to the blas calls.
	Scalars int
	// Work1..Work4 are the reusable scratch roles. Their meaning rotates with
	// the call phase: triangular-solve block and panel packs (Work1, Work2)
	// and trailing-update operand packs (Work3, Work4).
	Work1, Work2, Work3, Work4 int
	// PivotVal stages the candidate pivot magnitude of the running column
	// search, one element per instance.
	PivotVal int
	// PivotIdx stages the candidate pivot row, one index per instance.
	PivotIdx int
	// InnerPivots holds the panel-relative pivots of the base-case
	// factorization sub-calls.
	InnerPivots int
	// InnerInfo captures the per-instance singularity reports of sub-calls.
	InnerInfo int
	// TmpCopy stages the unit-lower panel during inversion.
	TmpCopy int

	// OptimalMemory is true when every granted role covers the optimal
	// execution path. Composites AND the flags of their constituents.
	OptimalMemory bool
}

func alignUp(n int) int {
	const a = 16
	return (n + a - 1) &^ (a - 1)
}

// Total is the byte size of the single allocation backing all roles.
func (w WorkspaceSizes) Total() int {
	total := 0
	for _, size := range []int{w.Scalars, w.Work1, w.Work2, w.Work3, w.Work4,
		w.PivotVal, w.PivotIdx, w.InnerPivots, w.InnerInfo, w.TmpCopy} {
		total += alignUp(size)
	}
	return total
}

// MaxWith combines two descriptors the way composite routines do: the
// elementwise maximum of every role and the AND of the optimal-memory flags.
func (w WorkspaceSizes) MaxWith(other WorkspaceSizes) WorkspaceSizes {
	return WorkspaceSizes{
		Scalars:       max(w.Scalars, other.Scalars),
		Work1:         max(w.Work1, other.Work1),
		Work2:         max(w.Work2, other.Work2),
		Work3:         max(w.Work3, other.Work3),
		Work4:         max(w.Work4, other.Work4),
		PivotVal:      max(w.PivotVal, other.PivotVal),
		PivotIdx:      max(w.PivotIdx, other.PivotIdx),
		InnerPivots:   max(w.InnerPivots, other.InnerPivots),
		InnerInfo:     max(w.InnerInfo, other.InnerInfo),
		TmpCopy:       max(w.TmpCopy, other.TmpCopy),
		OptimalMemory: w.OptimalMemory && other.OptimalMemory,
	}
}

func indexSize[I matrix.Index]() int {
	if matrix.Is64[I]() {
		return 8
	}
	return 4
}

// grantOptimal returns size if it fits the optimal-role ceiling, else 0.
func grantOptimal(size int) (int, bool) {
	if size > optimalRoleCeiling {
		return 0, false
	}
	return size, true
}

// GetrfSizes computes the workspace required by the getrf family for an
// m x n problem. Pure: no device interaction. The leading dimension does not
// change the requirements but is part of the planner contract.
func GetrfSizes[T matrix.Element, I matrix.Index](m, n int, pivot bool, batch int, lda int) WorkspaceSizes {
	_ = lda
	if m == 0 || n == 0 || batch == 0 {
		return WorkspaceSizes{OptimalMemory: true}
	}
	elem := matrix.DTypeOf[T]().Size()
	idx := indexSize[I]()

	sizes := WorkspaceSizes{
		Scalars:       3 * elem,
		PivotVal:      batch * elem,
		OptimalMemory: true,
	}
	if pivot {
		sizes.PivotIdx = batch * idx
	}

	dim := min(m, n)
	if dim <= BlockSize {
		// Base-case only: no trailing updates, no sub-calls.
		return sizes
	}

	if pivot {
		sizes.InnerPivots = BlockSize * batch * idx
	}
	sizes.InnerInfo = batch * idx

	// Triangular solve of the panel's block row: diagonal blocks plus, in
	// optimal-memory mode, the whole packed panel triangle.
	sizes.Work1 = blas.TrsmWorkBlockLen(BlockSize) * batch * elem
	var ok1, ok2, ok3 bool
	sizes.Work2, ok1 = grantOptimal(blas.TrsmWorkPanelLen(BlockSize) * batch * elem)
	// Trailing update operand packs.
	sizes.Work3, ok2 = grantOptimal(m * BlockSize * batch * elem)
	sizes.Work4, ok3 = grantOptimal(BlockSize * n * batch * elem)
	sizes.OptimalMemory = ok1 && ok2 && ok3
	return sizes
}

// GetrsSizes computes the workspace required by the getrs family.
func GetrsSizes[T matrix.Element, I matrix.Index](trans matrix.Operation, n, nrhs, batch int, lda, ldb int) WorkspaceSizes {
	_, _, _ = trans, lda, ldb
	if n == 0 || nrhs == 0 || batch == 0 {
		return WorkspaceSizes{OptimalMemory: true}
	}
	elem := matrix.DTypeOf[T]().Size()

	sizes := WorkspaceSizes{
		Work1: blas.TrsmWorkBlockLen(n) * batch * elem,
	}
	sizes.Work2, sizes.OptimalMemory = grantOptimal(blas.TrsmWorkPanelLen(n) * batch * elem)
	return sizes
}

// GesvOutofplaceSizes is the composition of the getrf and getrs requirements.
func GesvOutofplaceSizes[T matrix.Element, I matrix.Index](n, nrhs, batch int) WorkspaceSizes {
	if n == 0 || nrhs == 0 || batch == 0 {
		return WorkspaceSizes{OptimalMemory: true}
	}
	factor := GetrfSizes[T, I](n, n, true, batch, n)
	solve := GetrsSizes[T, I](matrix.NoTrans, n, nrhs, batch, n, n)
	return factor.MaxWith(solve)
}

// GetriSizes computes the workspace required by the getri family: the
// factorization requirements plus the inversion's triangular solves and the
// unit-lower panel stash.
func GetriSizes[T matrix.Element, I matrix.Index](n int, pivot bool, batch int) WorkspaceSizes {
	if n == 0 || batch == 0 {
		return WorkspaceSizes{OptimalMemory: true}
	}
	elem := matrix.DTypeOf[T]().Size()

	sizes := GetrfSizes[T, I](n, n, pivot, batch, n)
	var inv WorkspaceSizes
	inv.Work1 = blas.TrsmWorkBlockLen(BlockSize) * batch * elem
	inv.Work2, inv.OptimalMemory = grantOptimal(blas.TrsmWorkPanelLen(BlockSize) * batch * elem)
	// TmpCopy is not a packing optimization: the inversion stashes the
	// unit-lower panel there unconditionally, so it is never degraded away.
	inv.TmpCopy = n * BlockSize * batch * elem
	return sizes.MaxWith(inv)
}

// GetriOutofplaceSizes matches GetriSizes; the extra output copy needs no
// scratch of its own.
func GetriOutofplaceSizes[T matrix.Element, I matrix.Index](n int, pivot bool, batch int) WorkspaceSizes {
	return GetriSizes[T, I](n, pivot, batch)
}

// workspace is the execute-time view of the roles: typed slices carved out of
// one arena, released when the call's stream task finishes.
type workspace[T matrix.Element, I matrix.Index] struct {
	arena *device.Arena
	sizes WorkspaceSizes

	scalars     []T
	work1       []T
	work2       []T
	work3       []T
	work4       []T
	pivotVal    []T
	pivotIdx    []I
	innerPivots []I
	innerInfo   []I
	tmpCopy     []T
}

func bytesAsElems[T matrix.Element](b []byte) []T {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/int(unsafe.Sizeof(*new(T))))
}

func bytesAsIndices[I matrix.Index](b []byte) []I {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*I)(unsafe.Pointer(&b[0])), len(b)/int(unsafe.Sizeof(*new(I))))
}

// allocWorkspace carves all roles out of a single arena allocation. A failed
// allocation surfaces as StatusMemoryError with no other side effect.
func allocWorkspace[T matrix.Element, I matrix.Index](h *device.Handle, sizes WorkspaceSizes) (*workspace[T, I], Status) {
	arena, err := h.AllocWorkspace(sizes.Total())
	if err != nil {
		return nil, StatusMemoryError
	}
	ws := &workspace[T, I]{arena: arena, sizes: sizes}
	ws.scalars = bytesAsElems[T](arena.Take(sizes.Scalars))
	ws.work1 = bytesAsElems[T](arena.Take(sizes.Work1))
	ws.work2 = bytesAsElems[T](arena.Take(sizes.Work2))
	ws.work3 = bytesAsElems[T](arena.Take(sizes.Work3))
	ws.work4 = bytesAsElems[T](arena.Take(sizes.Work4))
	ws.pivotVal = bytesAsElems[T](arena.Take(sizes.PivotVal))
	ws.pivotIdx = bytesAsIndices[I](arena.Take(sizes.PivotIdx))
	ws.innerPivots = bytesAsIndices[I](arena.Take(sizes.InnerPivots))
	ws.innerInfo = bytesAsIndices[I](arena.Take(sizes.InnerInfo))
	ws.tmpCopy = bytesAsElems[T](arena.Take(sizes.TmpCopy))
	if len(ws.scalars) >= 3 {
		one := matrix.One[T]()
		ws.scalars[0] = one
		ws.scalars[1] = -one
		var zero T
		ws.scalars[2] = zero
	}
	return ws, StatusSuccess
}

// release returns the arena to the handle's slab pool.
func (ws *workspace[T, I]) release() {
	ws.arena.Release()
}

// trsmPanel returns the wide-path packing workspace for a triangular operand
// of the given dimension, or nil when the granted role cannot hold it.
// Composite plans take elementwise maxima over their constituents, so Work2
// can be non-nil yet sized for a smaller constituent's request; capacity, not
// presence, has to select the path.
func (ws *workspace[T, I]) trsmPanel(dim, count int) []T {
	if len(ws.work2) < blas.TrsmWorkPanelLen(dim)*count {
		return nil
	}
	return ws.work2
}
