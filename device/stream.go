// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package device

import (
	"sync"
)

// Stream is a single logical ordered stream of work.
//
// Submit enqueues a task and returns immediately; tasks run FIFO on a
// dedicated goroutine, so everything issued within one call executes in issue
// order without host-side synchronization. The caller must Synchronize before
// reading results. No ordering is guaranteed across different streams.
type Stream struct {
	pool  *Pool
	tasks chan func()
	done  chan struct{}
	wg    sync.WaitGroup
}

const streamQueueDepth = 256

func newStream(pool *Pool) *Stream {
	s := &Stream{
		pool:  pool,
		tasks: make(chan func(), streamQueueDepth),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// run drains the FIFO queue. One goroutine per stream.
func (s *Stream) run() {
	for task := range s.tasks {
		task()
		s.wg.Done()
	}
	close(s.done)
}

// Submit enqueues task and returns without waiting for it to run.
func (s *Stream) Submit(task func()) {
	s.wg.Add(1)
	s.tasks <- task
}

// Synchronize blocks until every task submitted so far has completed.
func (s *Stream) Synchronize() {
	s.wg.Wait()
}

// finalize stops the stream goroutine after draining pending work.
func (s *Stream) finalize() {
	s.wg.Wait()
	close(s.tasks)
	<-s.done
}

// Launch runs fn(i) for i in [0, n) data-parallel over the pool and returns
// only when the whole grid completed. It must be called from within a
// submitted task (or any single goroutine): consecutive launches see each
// other's writes, which is what keeps the per-panel ordering of the
// factorization correct.
func (s *Stream) Launch(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if n == 1 {
		fn(0)
		return
	}
	var wg sync.WaitGroup
	var next int
	for next < n-1 {
		i := next
		wg.Add(1)
		if !s.pool.StartIfAvailable(func() {
			fn(i)
			wg.Done()
		}) {
			wg.Done()
			break
		}
		next++
	}
	// Whatever found no worker runs inline.
	for ; next < n; next++ {
		fn(next)
	}
	s.pool.WorkerIsAsleep()
	wg.Wait()
	s.pool.WorkerRestarted()
}

// Launch2D runs fn(i, j) over an n x m grid, parallel on the first axis.
func (s *Stream) Launch2D(n, m int, fn func(i, j int)) {
	s.Launch(n, func(i int) {
		for j := 0; j < m; j++ {
			fn(i, j)
		}
	})
}
