// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package device

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool bounds the parallelism of kernel grids.
//
// maxParallelism is a soft target: the number of live goroutines can be higher
// because of workers sleeping on joins.
type Pool struct {
	maxParallelism int
	mu             sync.Mutex
	cond           sync.Cond // Signaled whenever numRunning decreases.
	numRunning     int

	// extraParallelism is temporarily increased while a worker sleeps.
	extraParallelism atomic.Int32
}

// newPool returns a Pool targeting the given parallelism.
// If maxParallelism is 0 it defaults to runtime.NumCPU(); -1 means unlimited.
func newPool(maxParallelism int) *Pool {
	if maxParallelism == 0 {
		maxParallelism = runtime.NumCPU()
	}
	p := &Pool{maxParallelism: maxParallelism}
	p.cond = sync.Cond{L: &p.mu}
	return p
}

// IsUnlimited returns whether parallelism is unbounded (maxParallelism < 0).
func (p *Pool) IsUnlimited() bool {
	return p.maxParallelism < 0
}

// MaxParallelism is the soft target for concurrently running grid workers.
func (p *Pool) MaxParallelism() int {
	return p.maxParallelism
}

const goroutineToParallelismRatio = 2

// lockedIsFull returns whether all available workers are in use.
// It must be called with p.mu held.
func (p *Pool) lockedIsFull() bool {
	if p.maxParallelism < 0 {
		return false
	}
	return p.numRunning >= goroutineToParallelismRatio*p.maxParallelism+int(p.extraParallelism.Load())
}

// WaitToStart blocks until a worker is available, then runs task on it.
func (p *Pool) WaitToStart(task func()) {
	if p.IsUnlimited() {
		go task()
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.lockedIsFull() {
		p.cond.Wait()
	}
	p.lockedRunTaskInGoroutine(task)
}

// lockedRunTaskInGoroutine keeps tabs on p.numRunning.
// It must be called with p.mu held.
func (p *Pool) lockedRunTaskInGoroutine(task func()) {
	p.numRunning++
	go func() {
		task()
		p.mu.Lock()
		p.numRunning--
		p.cond.Signal()
		p.mu.Unlock()
	}()
}

// StartIfAvailable runs the task in a separate goroutine if there are workers
// left, returning whether it did. The caller synchronizes task completion.
func (p *Pool) StartIfAvailable(task func()) bool {
	if p.IsUnlimited() {
		go task()
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lockedIsFull() {
		return false
	}
	p.lockedRunTaskInGoroutine(task)
	return true
}

// WorkerIsAsleep tells the pool the calling worker is blocked waiting on other
// workers, temporarily raising the available parallelism.
//
// Call WorkerRestarted when the worker is ready to run again.
func (p *Pool) WorkerIsAsleep() {
	p.extraParallelism.Add(1)
}

// WorkerRestarted reverts a WorkerIsAsleep call.
func (p *Pool) WorkerRestarted() {
	p.extraParallelism.Add(-1)
}
