// Copyright 2025 The syncprim Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package atomicx

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Bool is an atomic boolean alone on its cache line.
//
// The zero value is false with no observer.
type Bool struct {
	_   cpu.CacheLinePad
	v   atomic.Uint32
	_   cpu.CacheLinePad
	obs Observer
}

// Observe attaches o. It must be called before b is shared.
func (b *Bool) Observe(o Observer) { b.obs = o }

// Addr returns the address reported to the observer.
func (b *Bool) Addr() uintptr { return uintptr(unsafe.Pointer(&b.v)) }

// Load returns the current value.
func (b *Bool) Load(ord Ordering) bool {
	v := b.v.Load() != 0
	acquired(b.obs, b.Addr(), ord)
	return v
}

// Store sets the value to v.
func (b *Bool) Store(v bool, ord Ordering) {
	releasing(b.obs, b.Addr(), ord)
	b.v.Store(b2u(v))
}

// CompareExchange sets the value to new if it is old and reports whether it
// did. success applies when the exchange happens, failure when it does not.
//
// The release half of success is reported after the exchange, so an
// observer may see it later than a real machine would publish it.
func (b *Bool) CompareExchange(old, new bool, success, failure Ordering) bool {
	if b.v.CompareAndSwap(b2u(old), b2u(new)) {
		merging(b.obs, b.Addr(), success)
		acquired(b.obs, b.Addr(), success)
		return true
	}
	acquired(b.obs, b.Addr(), failure)
	return false
}

// Uint64 is an atomic uint64 alone on its cache line.
type Uint64 struct {
	_   cpu.CacheLinePad
	v   atomic.Uint64
	_   cpu.CacheLinePad
	obs Observer
}

// Observe attaches o. It must be called before u is shared.
func (u *Uint64) Observe(o Observer) { u.obs = o }

// Addr returns the address reported to the observer.
func (u *Uint64) Addr() uintptr { return uintptr(unsafe.Pointer(&u.v)) }

// Load returns the current value.
func (u *Uint64) Load(ord Ordering) uint64 {
	v := u.v.Load()
	acquired(u.obs, u.Addr(), ord)
	return v
}

// Store sets the value to v.
func (u *Uint64) Store(v uint64, ord Ordering) {
	releasing(u.obs, u.Addr(), ord)
	u.v.Store(v)
}

// CompareExchange sets the value to new if it is old and reports whether it did.
func (u *Uint64) CompareExchange(old, new uint64, success, failure Ordering) bool {
	if u.v.CompareAndSwap(old, new) {
		merging(u.obs, u.Addr(), success)
		acquired(u.obs, u.Addr(), success)
		return true
	}
	acquired(u.obs, u.Addr(), failure)
	return false
}

// Add adds delta and returns the new value.
func (u *Uint64) Add(delta uint64, ord Ordering) uint64 {
	merging(u.obs, u.Addr(), ord)
	v := u.v.Add(delta)
	acquired(u.obs, u.Addr(), ord)
	return v
}

func acquired(o Observer, addr uintptr, ord Ordering) {
	if o != nil && ord.Acquires() {
		o.Acquire(addr)
	}
}

func releasing(o Observer, addr uintptr, ord Ordering) {
	if o != nil && ord.Releases() {
		o.Release(addr)
	}
}

func merging(o Observer, addr uintptr, ord Ordering) {
	if o != nil && ord.Releases() {
		o.ReleaseMerge(addr)
	}
}

func b2u(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
