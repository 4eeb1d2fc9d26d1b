// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOperationValid(t *testing.T) {
	require.True(t, NoTrans.Valid())
	require.True(t, Trans.Valid())
	require.True(t, ConjTrans.Valid())
	require.False(t, Operation(-1).Valid())
	require.False(t, Operation(3).Valid())
}

func TestIs64(t *testing.T) {
	require.False(t, Is64[int32]())
	require.True(t, Is64[int64]())
}

func TestOneAndIsZero(t *testing.T) {
	require.Equal(t, float32(1), One[float32]())
	require.Equal(t, float64(1), One[float64]())
	require.Equal(t, complex64(1), One[complex64]())
	require.Equal(t, complex128(1), One[complex128]())

	require.True(t, IsZero(float64(0)))
	require.False(t, IsZero(float64(1e-300)))
	require.True(t, IsZero(complex128(0)))
	require.False(t, IsZero(complex(0.0, 1e-300)))
}

func TestConj(t *testing.T) {
	require.Equal(t, float64(-2), Conj(float64(-2)))
	require.Equal(t, complex64(complex(1, -2)), Conj(complex64(complex(1, 2))))
	require.Equal(t, complex(3.0, 4.0), Conj(complex(3.0, -4.0)))
}

func TestAbs1(t *testing.T) {
	require.Equal(t, 2.5, Abs1(float64(-2.5)))
	require.Equal(t, 2.5, Abs1(float32(2.5)))
	// cabs1: |re| + |im|, not the modulus.
	require.Equal(t, 7.0, Abs1(complex(3.0, -4.0)))
	require.Equal(t, 7.0, Abs1(complex64(complex(-3, 4))))
}

func TestBatchStridedAddressing(t *testing.T) {
	// Two 2x2 column-major matrices packed back to back.
	flat := []float64{
		1, 2, 3, 4, // instance 0: [[1 3] [2 4]]
		5, 6, 7, 8, // instance 1: [[5 7] [6 8]]
	}
	b := NewStrided(flat, 2, 4, 2)
	require.Equal(t, 2, b.Count)
	require.Equal(t, 1.0, b.Instance(0)[0])
	require.Equal(t, 3.0, b.Instance(0)[0*b.Inc+1*b.Ld])
	require.Equal(t, 8.0, b.Instance(1)[1*b.Inc+1*b.Ld])

	// OffsetBy shifts the (0,0) origin without touching the receiver.
	sub := b.OffsetBy(1, 1)
	require.Equal(t, 4.0, sub.Instance(0)[0])
	require.Equal(t, 8.0, sub.Instance(1)[0])
	require.Equal(t, 0, b.Shift)

	// Instances alias the caller's storage.
	sub.Instance(0)[0] = 42
	require.Equal(t, 42.0, flat[3])
}

func TestBatchPointersAddressing(t *testing.T) {
	a0 := []float32{1, 2, 3, 4}
	a1 := []float32{5, 6, 7, 8}
	b := NewBatched([][]float32{a0, a1}, 2)
	require.Equal(t, 2, b.Count)
	require.Equal(t, float32(7), b.Instance(1)[0*b.Inc+1*b.Ld])

	sub := b.OffsetBy(0, 1)
	sub.Instance(0)[0] = -1
	require.Equal(t, float32(-1), a0[2])
}

func TestBatchIsNil(t *testing.T) {
	require.True(t, Batch[float64]{}.IsNil())
	require.False(t, Single([]float64{1}, 1).IsNil())
	require.False(t, NewBatched([][]float64{{1}}, 1).IsNil())
	// A non-nil empty slice still counts as backing storage.
	require.False(t, Single([]float64{}, 1).IsNil())
}

func TestPivots(t *testing.T) {
	flat := []int32{1, 2, 3, 4, 5, 6}
	p := NewPivots(flat, 3)
	require.Equal(t, int32(1), p.Instance(0)[0])
	require.Equal(t, int32(5), p.Instance(1)[1])
	require.False(t, p.IsNil())
	require.True(t, Pivots[int32]{}.IsNil())
}
