// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package blas provides the batched dense BLAS-3 capabilities the solver layer
// composes: general matrix multiply (Gemm), triangular solve (Trsm) and
// triangular inversion (Trtri).
//
// These are shape-and-semantics implementations, not tuned numerics: plain
// blocked loops, with optional packing of operands into caller-provided
// workspace for locality. Kernels are issued on the caller's device.Stream and
// every batch instance runs independently.
package blas

import (
	"github.com/gomlx/gosolver/types/matrix"
)

// accessor reads a (possibly transposed/conjugated) matrix instance.
type accessor[T matrix.Element] struct {
	inst []T
	inc  int
	ld   int
	op   matrix.Operation
}

func newAccessor[T matrix.Element](m matrix.Batch[T], b int, op matrix.Operation) accessor[T] {
	return accessor[T]{inst: m.Instance(b), inc: m.Inc, ld: m.Ld, op: op}
}

func (a accessor[T]) at(i, j int) T {
	if a.op != matrix.NoTrans {
		i, j = j, i
	}
	v := a.inst[i*a.inc+j*a.ld]
	if a.op == matrix.ConjTrans {
		v = matrix.Conj(v)
	}
	return v
}

// colBlockSize is the column-grid granularity used to spread the columns of a
// single wide instance over the worker pool.
const colBlockSize = 32

func ceilDiv(a, b int) int { return (a + b - 1) / b }
