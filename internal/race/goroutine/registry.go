// Copyright 2025 The syncprim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goroutine

import (
	"math"
	"sync"
)

// Registry maps goroutine ids to their Context.
//
// TIDs are handed out densely in first-seen order, so vector clocks stay as
// short as the number of goroutines that actually touched traced state.
// TIDs are never recycled; a registry is meant to live for one traced run.
//
// Thread Safety: All methods are safe for concurrent calls.
type Registry struct {
	mu       sync.Mutex
	contexts map[int64]*Context
	next     uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{contexts: make(map[int64]*Context)}
}

// Current returns the Context of the calling goroutine, allocating one on
// first use. The second result reports whether the context is new.
func (r *Registry) Current() (*Context, bool) {
	return r.Lookup(CurrentID())
}

// Lookup returns the Context for goroutine gid, allocating one on first use.
//
// If the 16-bit TID space is exhausted, the last TID is shared, which
// degrades precision but never panics.
func (r *Registry) Lookup(gid int64) (*Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ctx, ok := r.contexts[gid]; ok {
		return ctx, false
	}

	tid := uint16(math.MaxUint16)
	if r.next < math.MaxUint16 {
		tid = uint16(r.next)
		r.next++
	}
	ctx := Alloc(tid)
	r.contexts[gid] = ctx
	return ctx, true
}

// Len returns the number of goroutines seen so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.contexts)
}

// Reset forgets every goroutine and restarts TID allocation at 0.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts = make(map[int64]*Context)
	r.next = 0
}
