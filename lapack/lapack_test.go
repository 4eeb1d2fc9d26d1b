// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package lapack

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"

	"github.com/gomlx/gosolver/device"
)

func init() {
	klog.InitFlags(nil)
}

// Test helpers shared by the routine tests. All numeric checks run on float64
// with column-major ld == rows unless a test says otherwise.

func newTestHandle(t *testing.T) *device.Handle {
	t.Helper()
	h := device.New()
	t.Cleanup(func() { _ = h.Finalize() })
	return h
}

func randMat(rng *rand.Rand, m, n int) []float64 {
	a := make([]float64, m*n)
	for i := range a {
		a[i] = 2*rng.Float64() - 1
	}
	return a
}

// randDominant returns a random matrix with a diagonal strong enough that the
// no-pivot elimination stays stable.
func randDominant(rng *rand.Rand, n int) []float64 {
	a := randMat(rng, n, n)
	for i := 0; i < n; i++ {
		a[i+i*n] += float64(n)
	}
	return a
}

// matMul returns the m x n product A*B of an m x k and a k x n column-major
// matrix.
func matMul(m, n, k int, a []float64, lda int, b []float64, ldb int) []float64 {
	c := make([]float64, m*n)
	for j := 0; j < n; j++ {
		for t := 0; t < k; t++ {
			bv := b[t+j*ldb]
			if bv == 0 {
				continue
			}
			for i := 0; i < m; i++ {
				c[i+j*m] += a[i+t*lda] * bv
			}
		}
	}
	return c
}

// luProduct rebuilds L*U from the packed factors of an m x n factorization.
func luProduct(m, n int, lu []float64, ld int) []float64 {
	dim := min(m, n)
	l := make([]float64, m*dim)
	u := make([]float64, dim*n)
	for j := 0; j < dim; j++ {
		l[j+j*m] = 1
		for i := j + 1; i < m; i++ {
			l[i+j*m] = lu[i+j*ld]
		}
	}
	for j := 0; j < n; j++ {
		for i := 0; i <= min(j, dim-1); i++ {
			u[i+j*dim] = lu[i+j*ld]
		}
	}
	return matMul(m, n, dim, l, m, u, dim)
}

// permuteRows applies the recorded interchanges, in factorization order, to a
// copy of the original matrix: the result is P*A.
func permuteRows[I int32 | int64](m, n int, a []float64, ld int, ipiv []I) []float64 {
	pa := make([]float64, len(a))
	copy(pa, a)
	for k := range ipiv {
		p := int(ipiv[k]) - 1
		if p == k {
			continue
		}
		for j := 0; j < n; j++ {
			pa[k+j*ld], pa[p+j*ld] = pa[p+j*ld], pa[k+j*ld]
		}
	}
	return pa
}

// requireAllClose compares two flat buffers elementwise.
func requireAllClose(t *testing.T, want, got []float64, tol float64) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for i := range want {
		require.InDelta(t, want[i], got[i], tol, "element %d", i)
	}
}

// requireFactorization checks P*A = L*U for one instance.
func requireFactorization[I int32 | int64](t *testing.T, m, n int, orig, lu []float64, ld int, ipiv []I, tol float64) {
	t.Helper()
	pa := permuteRows(m, n, orig, ld, ipiv)
	prod := luProduct(m, n, lu, ld)
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			require.InDelta(t, pa[i+j*ld], prod[i+j*m], tol, "(%d,%d)", i, j)
		}
	}
}
