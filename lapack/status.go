// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package lapack implements batched, panel-blocked dense LU factorization and
// solve routines -- getrf, getrs, gesv and getri families -- on top of the
// device execution substrate and the blas capabilities.
//
// Every entry point follows the same call protocol: nil-handle check, argument
// validation in a fixed priority order (unsupported values, then sizes, then
// pointers), memory-size query short-circuit, workspace allocation, and
// asynchronous execution on the handle's stream. Numerical singularity is
// never a call-level error: it is reported per batch instance through the
// info array.
package lapack

//go:generate go run github.com/dmarkham/enumer -type=Status -trimprefix=Status -output=status_enumer.go

// Status is the result of a solver call.
//
// Singularity of an input matrix is NOT a Status: calls on singular matrices
// return StatusSuccess and flag the instance in the info array.
type Status int

const (
	// StatusSuccess means the call was issued (or, for a memory-size query,
	// the sizes were recorded) without error.
	StatusSuccess Status = iota
	// StatusInvalidHandle means the handle was nil.
	StatusInvalidHandle
	// StatusInvalidValue means an argument had an unsupported value, e.g. an
	// undefined Operation. Checked before sizes and pointers.
	StatusInvalidValue
	// StatusInvalidSize means a dimension, leading dimension, or batch count
	// was negative or inconsistent. Checked before pointers.
	StatusInvalidSize
	// StatusInvalidPointer means a required data slice was nil. Never
	// returned while the handle is in memory-size query mode.
	StatusInvalidPointer
	// StatusMemoryError means the workspace allocation failed; no caller
	// buffer was touched.
	StatusMemoryError
	// StatusNotImplemented is returned by 64-bit index instantiations when
	// the handle's 64-bit capability is disabled.
	StatusNotImplemented
	// StatusContinue is the internal "checks passed, keep going" sentinel of
	// the argument validators. It is never returned to callers.
	StatusContinue
)
