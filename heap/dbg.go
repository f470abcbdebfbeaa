// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package heap

import (
	"fmt"
	"unsafe"

	"github.com/intuitivelabs/slog"
)

// ChunkInfo is a JSON-serializable snapshot of one chunk, produced by
// DumpSnapshot for out-of-process inspection (see cmd/qallocctl).
type ChunkInfo struct {
	Offset uint64 `json:"offset"` // byte offset from the arena base
	Size   uint64 `json:"size"`
	Free   bool   `json:"free"`
}

// Snapshot is a point-in-time walk of the whole chunk list.
type Snapshot struct {
	ArenaSize  uint64      `json:"arena_size"`
	UsedBytes  uint64      `json:"used_bytes"`
	MaxUsed    uint64      `json:"max_used_bytes"`
	ChunkCount int         `json:"chunk_count"`
	Chunks     []ChunkInfo `json:"chunks"`
}

// DumpSnapshot walks the chunk list and returns a serializable
// snapshot of the arena's current shape. It is the programmatic,
// always-safe cousin of dumpStatus.
func (h *Heap) DumpSnapshot() Snapshot {
	h.lock()
	defer h.unlock()
	return h.snapshotLocked()
}

func (h *Heap) snapshotLocked() Snapshot {
	if h.head == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		ArenaSize: uint64(uintptr(unsafe.Pointer(h.tail)) - h.base + uintptr(headerSize)),
		UsedBytes: h.used.Bytes,
		MaxUsed:   h.used.MaxBytes,
	}
	for c := h.head; ; c = c.next {
		snap.Chunks = append(snap.Chunks, ChunkInfo{
			Offset: uint64(uintptr(unsafe.Pointer(c)) - h.base),
			Size:   c.size,
			Free:   c.free,
		})
		if c.isTail() {
			break
		}
	}
	snap.ChunkCount = len(snap.Chunks)
	return snap
}

// dumpStatus writes current status information to the log, gated on
// debug-level logging so it costs nothing when disabled.
func (h *Heap) dumpStatus() {
	const lev = slog.LDBG
	const prefix = "qalloc_status "
	if !Log.L(lev) {
		return
	}
	Log.LLog(lev, 0, prefix, "(%p):\n", h)
	if h == nil || h.head == nil {
		return
	}
	Log.LLog(lev, 0, prefix, "used=%d max_used=%d\n", h.used.Bytes, h.used.MaxBytes)
	i := 0
	for c := h.head; ; c = c.next {
		Log.LLog(lev, 0, prefix, "  %3d. addr=%p size=%d free=%t\n",
			i, c.addr(), c.size, c.free)
		i++
		if c.isTail() {
			break
		}
	}
}

// CheckInvariants walks the chunk list and verifies the shape every
// mutation must preserve — proper head/tail sentinels, alignment,
// no two adjacent free chunks, and consistent next/prev links —
// returning a descriptive error identifying the first violation
// instead of panicking. Used by tests. The hot path (when DebugChecks
// is set) calls the non-locking checkInvariants directly and turns a
// returned error into a fatalInvariant panic.
func (h *Heap) CheckInvariants() error {
	h.lock()
	defer h.unlock()
	return h.checkInvariants()
}

func (h *Heap) checkInvariants() error {
	if h.head == nil {
		return nil
	}
	if !h.head.isHead() {
		return fmt.Errorf("qalloc: head chunk %p has non-nil prev", h.head)
	}
	if !h.tail.isTail() {
		return fmt.Errorf("qalloc: tail chunk %p has non-nil next", h.tail)
	}
	if h.tail.size != 0 || h.tail.free {
		return fmt.Errorf("qalloc: tail chunk %p has size=%d free=%t", h.tail, h.tail.size, h.tail.free)
	}
	prevWasFree := false
	for c := h.head; ; c = c.next {
		if c.size%RoundTo != 0 {
			return fmt.Errorf("qalloc: chunk %p size %d not %d-aligned", c, c.size, RoundTo)
		}
		if uintptr(c.addr())%RoundTo != 0 {
			return fmt.Errorf("qalloc: chunk %p payload address not %d-aligned", c, RoundTo)
		}
		if c.free && prevWasFree {
			return fmt.Errorf("qalloc: adjacent free chunks at %p", c)
		}
		prevWasFree = c.free
		if c.isTail() {
			break
		}
		want := uintptr(unsafe.Pointer(c)) + uintptr(headerSize) + uintptr(c.size)
		if uintptr(unsafe.Pointer(c.next)) != want {
			return fmt.Errorf("qalloc: chunk %p (size %d) not adjacent to next %p", c, c.size, c.next)
		}
		if c.next.prev != c {
			return fmt.Errorf("qalloc: chunk %p.next.prev != c", c)
		}
	}
	return nil
}
