// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package blas

import (
	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/types/matrix"
)

// Trtri inverts the n x n triangular matrix of every instance in place.
// Only the selected triangle is read and written. A zero diagonal entry
// produces Inf/NaN propagation in that instance, never an error: singularity
// screening belongs to the factorization's info array.
func Trtri[T matrix.Element](s *device.Stream, uplo matrix.Fill, diag matrix.Diag, n int,
	a matrix.Batch[T]) {
	count := a.Count
	if count == 0 || n == 0 {
		return
	}
	s.Launch(count, func(bi int) {
		inst := a.Instance(bi)
		at := func(i, j int) int { return i*a.Inc + j*a.Ld }
		one := matrix.One[T]()

		if uplo == matrix.Upper {
			for j := 0; j < n; j++ {
				var ajj T
				if diag == matrix.NonUnit {
					inst[at(j, j)] = one / inst[at(j, j)]
					ajj = -inst[at(j, j)]
				} else {
					ajj = -one
				}
				// Column j above the diagonal becomes -ajj * U^-1(0:j,0:j) * u(0:j,j),
				// where the leading block is already inverted.
				for i := 0; i < j; i++ {
					sum := inst[at(i, j)]
					if diag == matrix.NonUnit {
						sum *= inst[at(i, i)]
					}
					for t := i + 1; t < j; t++ {
						sum += inst[at(i, t)] * inst[at(t, j)]
					}
					inst[at(i, j)] = sum
				}
				for i := 0; i < j; i++ {
					inst[at(i, j)] *= ajj
				}
			}
			return
		}

		for j := n - 1; j >= 0; j-- {
			var ajj T
			if diag == matrix.NonUnit {
				inst[at(j, j)] = one / inst[at(j, j)]
				ajj = -inst[at(j, j)]
			} else {
				ajj = -one
			}
			for i := n - 1; i > j; i-- {
				sum := inst[at(i, j)]
				if diag == matrix.NonUnit {
					sum *= inst[at(i, i)]
				}
				for t := j + 1; t < i; t++ {
					sum += inst[at(i, t)] * inst[at(t, j)]
				}
				inst[at(i, j)] = sum
			}
			for i := j + 1; i < n; i++ {
				inst[at(i, j)] *= ajj
			}
		}
	})
}
