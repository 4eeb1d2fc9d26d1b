// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// solverbench runs one of the LU routines on random input and reports
// workspace usage and throughput.
//
// Example:
//
//	solverbench -routine=gesv -n=1024 -nrhs=16 -iters=5
//	solverbench -routine=getri -n=512 -batch=8 -v=2
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"

	"github.com/gomlx/gosolver/device"
	"github.com/gomlx/gosolver/lapack"
	"github.com/gomlx/gosolver/types/matrix"
)

var (
	flagRoutine = flag.String("routine", "getrf", "Routine to run: getrf, getrs, gesv or getri.")
	flagN       = flag.Int("n", 1024, "Matrix dimension.")
	flagNrhs    = flag.Int("nrhs", 1, "Right-hand sides for getrs/gesv.")
	flagBatch   = flag.Int("batch", 1, "Batch count (strided layout).")
	flagIters   = flag.Int("iters", 3, "Timed repetitions.")
	flagNpvt    = flag.Bool("npvt", false, "Skip pivoting (getrf/getri only).")
	flagSeed    = flag.Int64("seed", 42, "Seed for the random input.")
	flagWorkers = flag.Int("workers", 0, "Kernel-grid parallelism, 0 for NumCPU.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	h := device.New(device.WithMaxParallelism(*flagWorkers))
	defer func() { _ = h.Finalize() }()

	n, nrhs, batch := *flagN, *flagNrhs, *flagBatch
	rng := rand.New(rand.NewSource(*flagSeed))
	stride := n * n
	a := make([]float64, stride*batch)
	for i := range a {
		a[i] = 2*rng.Float64() - 1
	}
	b := make([]float64, n*nrhs*batch)
	for i := range b {
		b[i] = 2*rng.Float64() - 1
	}
	ipiv := make([]int32, n*batch)
	info := make([]int32, batch)

	// Query the workspace once up front; the same handle then reuses one
	// pooled slab across the timed repetitions.
	h.StartSizeQuery()
	if st := issue(h, a, b, ipiv, info); st != lapack.StatusSuccess {
		fmt.Fprintf(os.Stderr, "size query failed: %s\n", st)
		os.Exit(1)
	}
	fmt.Printf("%s: n=%d nrhs=%d batch=%d workspace=%s\n",
		*flagRoutine, n, nrhs, batch, humanize.IBytes(h.StopSizeQuery()))

	work := make([]float64, len(a))
	var best time.Duration
	for it := 0; it < *flagIters; it++ {
		copy(work, a)
		start := time.Now()
		if st := issue(h, work, b, ipiv, info); st != lapack.StatusSuccess {
			fmt.Fprintf(os.Stderr, "%s failed: %s\n", *flagRoutine, st)
			os.Exit(1)
		}
		h.Stream().Synchronize()
		elapsed := time.Since(start)
		klog.V(1).Infof("iter %d: %v", it, elapsed)
		if best == 0 || elapsed < best {
			best = elapsed
		}
	}

	singular := 0
	for _, v := range info {
		if v != 0 {
			singular++
		}
	}
	gflops := flops() / best.Seconds() / 1e9
	fmt.Printf("best of %d: %v (%.2f GFLOP/s), %d singular instance(s)\n",
		*flagIters, best, gflops, singular)
}

// issue dispatches one call of the selected routine. In size-query mode the
// same dispatch records the workspace requirement instead of running.
func issue(h *device.Handle, a, b []float64, ipiv []int32, info []int32) lapack.Status {
	n, nrhs, batch := *flagN, *flagNrhs, *flagBatch
	stride := n * n
	switch *flagRoutine {
	case "getrf":
		if *flagNpvt {
			return lapack.GetrfNpvtStridedBatched(h, n, n, a, n, stride, info, batch)
		}
		return lapack.GetrfStridedBatched(h, n, n, a, n, stride, ipiv, n, info, batch)
	case "getrs":
		if st := lapack.GetrfStridedBatched(h, n, n, a, n, stride, ipiv, n, info, batch); st != lapack.StatusSuccess {
			return st
		}
		return lapack.GetrsStridedBatched(h, matrix.NoTrans, n, nrhs, a, n, stride, ipiv, n, b, n, n*nrhs, batch)
	case "gesv":
		x := make([]float64, len(b))
		if h.InSizeQuery() {
			x = nil
		}
		return lapack.GesvOutofplaceStridedBatched(h, n, nrhs, a, n, stride, ipiv, n,
			b, n, n*nrhs, x, n, n*nrhs, info, batch)
	case "getri":
		if *flagNpvt {
			if batch > 1 {
				fmt.Fprintln(os.Stderr, "getri -npvt supports batch=1 only")
				os.Exit(2)
			}
			return lapack.GetriNpvt(h, n, a, n, info)
		}
		return lapack.GetriStridedBatched(h, n, a, n, stride, ipiv, n, info, batch)
	default:
		fmt.Fprintf(os.Stderr, "unknown routine %q\n", *flagRoutine)
		os.Exit(2)
	}
	return lapack.StatusSuccess
}

// flops is the classic operation count of the selected routine, all batch
// instances included.
func flops() float64 {
	n := float64(*flagN)
	nrhs := float64(*flagNrhs)
	batch := float64(*flagBatch)
	getrf := 2.0 / 3.0 * n * n * n
	switch *flagRoutine {
	case "getrf":
		return batch * getrf
	case "getrs":
		return batch * (getrf + 2*n*n*nrhs)
	case "gesv":
		return batch * (getrf + 2*n*n*nrhs)
	case "getri":
		return batch * 2 * getrf
	}
	return 0
}
