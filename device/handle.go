// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package device is the execution substrate the solver routines run on: a
// single logical ordered stream per handle, a grid-style kernel launcher over
// a bounded worker pool, and a slab-pooled workspace allocator honoring the
// two-phase "query sizes, then allocate, then execute" protocol.
//
// It stands in for the accelerator runtime: the solver layer only ever asks it
// to run elementwise/blockwise kernels on the stream and to hand out workspace
// bytes.
package device

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Handle owns the stream and allocator used by a sequence of solver calls.
//
// A Handle is safe for use from one goroutine at a time; concurrent calls need
// separate handles (separate streams) or external serialization.
type Handle struct {
	stream *Stream
	pool   *Pool

	// slabPools maps slab size class (int) to *sync.Pool of []byte.
	slabPools sync.Map

	// workspaceLimit caps a single call's workspace, 0 meaning unlimited.
	workspaceLimit int

	index64 bool

	// Memory-size query protocol state.
	sizeQuery   atomic.Bool
	querySize   uint64
	finalizedMu sync.Mutex
	finalized   bool
}

// Option configures a Handle at construction.
type Option func(*Handle)

// WithMaxParallelism bounds the kernel-grid parallelism.
// 0 (the default) targets runtime.NumCPU(); -1 is unlimited.
func WithMaxParallelism(n int) Option {
	return func(h *Handle) { h.pool = newPool(n) }
}

// WithWorkspaceLimit caps the workspace of a single call to the given bytes.
// Requests above the cap fail allocation, which callers report as a memory
// error. 0 means unlimited.
func WithWorkspaceLimit(bytes int) Option {
	return func(h *Handle) { h.workspaceLimit = bytes }
}

// WithIndex64 enables or disables the 64-bit index entry points.
// They are enabled by default; when disabled, int64-index calls return a
// not-implemented status.
func WithIndex64(enabled bool) Option {
	return func(h *Handle) { h.index64 = enabled }
}

// New creates a Handle with its own stream.
func New(options ...Option) *Handle {
	h := &Handle{index64: true}
	for _, opt := range options {
		opt(h)
	}
	if h.pool == nil {
		h.pool = newPool(0)
	}
	h.stream = newStream(h.pool)
	return h
}

// Stream returns the handle's logical stream.
func (h *Handle) Stream() *Stream {
	return h.stream
}

// Index64Enabled reports whether 64-bit index entry points are available.
func (h *Handle) Index64Enabled() bool {
	return h.index64
}

// StartSizeQuery puts the handle in memory-size query mode: subsequent calls
// compute and record their workspace requirements without touching any data,
// and data pointers may be nil.
func (h *Handle) StartSizeQuery() {
	h.querySize = 0
	h.sizeQuery.Store(true)
}

// InSizeQuery reports whether the handle is in memory-size query mode.
func (h *Handle) InSizeQuery() bool {
	return h.sizeQuery.Load()
}

// SetOptimalWorkspaceSize records the workspace requirement of a queried
// call. The maximum over all calls made during the query is kept, so one
// query can cover a whole sequence of calls sharing the workspace.
func (h *Handle) SetOptimalWorkspaceSize(bytes uint64) {
	if bytes > h.querySize {
		h.querySize = bytes
	}
}

// StopSizeQuery leaves query mode and returns the recorded requirement.
func (h *Handle) StopSizeQuery() uint64 {
	h.sizeQuery.Store(false)
	return h.querySize
}

// Finalize drains the stream and releases the handle. Using the handle after
// Finalize is an error.
func (h *Handle) Finalize() error {
	h.finalizedMu.Lock()
	defer h.finalizedMu.Unlock()
	if h.finalized {
		return errors.New("device: handle already finalized")
	}
	h.finalized = true
	h.stream.finalize()
	return nil
}
