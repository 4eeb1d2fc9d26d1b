// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package device

import (
	"math/bits"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Arena is the workspace of one in-flight call: a slab of bytes handed out in
// bump order through Take. The slab is exclusively owned by the call and goes
// back to the handle's slab pool on Release.
type Arena struct {
	handle *Handle
	slab   []byte
	next   int
}

// arenaAlign keeps every Take result aligned for the widest element type.
const arenaAlign = 16

// slabClass rounds a byte size up to a power-of-two pool class, so slabs of
// similar calls are actually reused instead of fragmenting the pool.
func slabClass(size int) int {
	if size <= 0 {
		return 0
	}
	return 1 << bits.Len(uint(size-1))
}

// getSlabPool returns the pool of slabs for the given size class.
func (h *Handle) getSlabPool(class int) *sync.Pool {
	poolInterface, ok := h.slabPools.Load(class)
	if !ok {
		poolInterface, _ = h.slabPools.LoadOrStore(class, &sync.Pool{
			New: func() interface{} {
				klog.V(1).Infof("device: growing workspace pool, new %s slab", humanize.IBytes(uint64(class)))
				return make([]byte, class)
			},
		})
	}
	return poolInterface.(*sync.Pool)
}

// AllocWorkspace reserves a workspace arena of at least total bytes.
//
// It fails -- with no side effects -- when total exceeds the handle's
// workspace limit; the caller surfaces that as a memory error status.
func (h *Handle) AllocWorkspace(total int) (*Arena, error) {
	if total < 0 {
		return nil, errors.Errorf("device: negative workspace request (%d bytes)", total)
	}
	if h.workspaceLimit > 0 && total > h.workspaceLimit {
		return nil, errors.Errorf("device: workspace request of %s exceeds the handle limit of %s",
			humanize.IBytes(uint64(total)), humanize.IBytes(uint64(h.workspaceLimit)))
	}
	a := &Arena{handle: h}
	if total > 0 {
		class := slabClass(total)
		a.slab = h.getSlabPool(class).Get().([]byte)
	}
	return a, nil
}

// Take hands out the next size bytes of the slab. Regions never overlap
// within one arena. A zero size yields nil, which the typed workspace views
// treat as "role not needed".
func (a *Arena) Take(size int) []byte {
	if size == 0 {
		return nil
	}
	start := a.next
	a.next = (start + size + arenaAlign - 1) &^ (arenaAlign - 1)
	return a.slab[start : start+size]
}

// Release returns the slab to the pool. The arena and every region taken from
// it must not be used afterwards.
func (a *Arena) Release() {
	if a.slab == nil {
		return
	}
	a.handle.getSlabPool(len(a.slab)).Put(a.slab)
	a.slab = nil
	a.next = 0
}
