// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package matrix defines the batched matrix and pivot descriptors shared by the
// blas and lapack packages.
//
// A Batch describes where the matrices of one call live: either at a constant
// stride from a base slice (Strided, which also covers the single-matrix case
// with Count=1), or through an explicit per-instance slice array (Pointers).
// All addressing goes through element offsets -- descriptors never copy or own
// data, they alias the caller's storage for the duration of one call.
//
// Matrices are column-major: element (i, j) of instance b lives at
// Instance(b)[Shift + i*Inc + j*Ld]. Inc is normally 1; a transposed layout can
// be expressed with Inc=Ld' and Ld=1.
package matrix

import (
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// Element is the constraint for the supported matrix element types.
type Element interface {
	float32 | float64 | complex64 | complex128
}

// Index is the constraint for pivot/info index widths.
type Index interface {
	int32 | int64
}

// Is64 reports whether the index type instantiation is 64-bit wide.
func Is64[I Index]() bool {
	var i I
	return unsafe.Sizeof(i) == 8
}

// DTypeOf returns the dtypes.DType corresponding to the element type.
func DTypeOf[T Element]() dtypes.DType {
	return dtypes.FromGenericsType[T]()
}

// Operation selects op(A) in solves and multiplies.
type Operation int

const (
	NoTrans Operation = iota
	Trans
	ConjTrans
)

// Valid reports whether the operation is one of the three defined values.
// Anything else is an unsupported value, rejected before size checks.
func (op Operation) Valid() bool {
	return op == NoTrans || op == Trans || op == ConjTrans
}

// Fill selects the referenced triangle of a triangular matrix.
type Fill int

const (
	Upper Fill = iota
	Lower
)

// Diag tells whether a triangular matrix has a unit diagonal (not stored).
type Diag int

const (
	NonUnit Diag = iota
	Unit
)

// Side tells whether the triangular operand multiplies from the left or right.
type Side int

const (
	Left Side = iota
	Right
)

// Layout distinguishes how batch instances are addressed.
type Layout int

const (
	// Strided instances live at a constant element stride from a base slice.
	// A single matrix is Strided with Count=1 and Stride=0.
	Strided Layout = iota
	// Pointers instances are addressed through an explicit array of slices.
	Pointers
)

// Batch is an opaque handle to one or many device-resident matrices.
//
// The zero value is an empty batch. Batches are values; OffsetBy returns
// shifted copies so panel loops never mutate the caller's descriptor.
type Batch[T Element] struct {
	Layout Layout

	// Flat is the base storage for Strided layout.
	Flat []T
	// Ptrs are the per-instance storages for Pointers layout.
	Ptrs [][]T

	// Shift is the element offset of (0,0) within the instance storage.
	Shift int
	// Inc is the element increment between consecutive rows. Normally 1.
	Inc int
	// Ld is the leading dimension: the element increment between columns.
	Ld int
	// Stride is the element distance between instances (Strided layout only).
	Stride int
	// Count is the number of instances in the batch.
	Count int
}

// Single wraps one column-major matrix as a Strided batch of one.
func Single[T Element](a []T, ld int) Batch[T] {
	return Batch[T]{Layout: Strided, Flat: a, Inc: 1, Ld: ld, Count: 1}
}

// NewStrided wraps count matrices at a constant stride from a base slice.
func NewStrided[T Element](a []T, ld int, stride int, count int) Batch[T] {
	return Batch[T]{Layout: Strided, Flat: a, Inc: 1, Ld: ld, Stride: stride, Count: count}
}

// NewBatched wraps count matrices addressed by an array of per-instance slices.
func NewBatched[T Element](a [][]T, ld int) Batch[T] {
	return Batch[T]{Layout: Pointers, Ptrs: a, Inc: 1, Ld: ld, Count: len(a)}
}

// Instance returns the storage of instance b, starting at its element (0,0).
//
// The returned slice aliases the caller's memory.
func (m Batch[T]) Instance(b int) []T {
	switch m.Layout {
	case Strided:
		return m.Flat[m.Shift+b*m.Stride:]
	case Pointers:
		return m.Ptrs[b][m.Shift:]
	}
	exceptions.Panicf("matrix.Batch: invalid layout %d", m.Layout)
	return nil
}

// OffsetBy returns a view of the batch shifted by the given rows and columns.
// Every instance is shifted equally; the panel loops in lapack are built on it.
func (m Batch[T]) OffsetBy(rows, cols int) Batch[T] {
	m.Shift += rows*m.Inc + cols*m.Ld
	return m
}

// IsNil reports whether the batch has no backing storage at all. Used by the
// argument checks; an empty problem (Count==0) with nil storage is still valid.
func (m Batch[T]) IsNil() bool {
	return m.Flat == nil && m.Ptrs == nil
}

// Pivots describes the per-instance pivot (or any index) vectors of a call.
// They are always strided: one flat slice with a constant stride between
// instances, even when the matrices use a Pointers layout.
type Pivots[I Index] struct {
	Flat   []I
	Shift  int
	Stride int
}

// NewPivots wraps a flat pivot array with the given stride between instances.
func NewPivots[I Index](p []I, stride int) Pivots[I] {
	return Pivots[I]{Flat: p, Stride: stride}
}

// Instance returns the pivot vector of instance b.
func (p Pivots[I]) Instance(b int) []I {
	return p.Flat[p.Shift+b*p.Stride:]
}

// IsNil reports whether there is no backing pivot storage.
func (p Pivots[I]) IsNil() bool { return p.Flat == nil }

// Conj returns the complex conjugate for complex element types and the value
// itself for real ones.
func Conj[T Element](v T) T {
	switch x := any(v).(type) {
	case complex64:
		return any(complex(real(x), -imag(x))).(T)
	case complex128:
		return any(complex(real(x), -imag(x))).(T)
	}
	return v
}

// Abs1 is the pivot-search magnitude: |x| for real types and |re|+|im| for
// complex ones (the LAPACK cabs1 convention, cheaper than a true modulus and
// deterministic under IEEE comparison).
func Abs1[T Element](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		if x < 0 {
			return float64(-x)
		}
		return float64(x)
	case float64:
		if x < 0 {
			return -x
		}
		return x
	case complex64:
		return abs(float64(real(x))) + abs(float64(imag(x)))
	case complex128:
		return abs(real(x)) + abs(imag(x))
	}
	return 0
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// One returns the multiplicative identity of the element type.
func One[T Element]() T {
	var one T
	one++
	return one
}

// IsZero reports whether v is exactly zero: the singularity condition the
// factorizer reports through the info array.
func IsZero[T Element](v T) bool {
	var zero T
	return v == zero
}
