// Package stackdepot implements stack trace storage and deduplication for race reports.
//
// A Depot stores each unique stack once, referenced by a 64-bit FNV-1a hash
// of its program counters. Shadow memory keeps only the hash of the last
// write and read, so both sides of a race can be printed without holding a
// full stack per access.
//
// Usage:
//
//	d := stackdepot.New()
//	hash := d.Capture(0)
//	formatted := d.Get(hash).FormatStack()
package stackdepot

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"sync"
)

// MaxFrames is the maximum number of stack frames to capture.
const MaxFrames = 16

// StackTrace represents a captured stack trace with fixed size.
type StackTrace struct {
	PC [MaxFrames]uintptr
}

// Depot is a deduplicating store of stack traces.
//
// Thread Safety: All methods are safe for concurrent calls.
type Depot struct {
	stacks sync.Map // uint64 (hash) → *StackTrace
}

// New creates an empty depot.
func New() *Depot {
	return &Depot{}
}

// Capture records the caller's stack and returns its hash.
//
// skip counts additional frames above Capture's caller to leave out, so a
// helper that wraps Capture passes 1 to start the stack at its own caller.
// Returns 0 if no frames are available.
func (d *Depot) Capture(skip int) uint64 {
	var pcs [MaxFrames]uintptr
	// runtime.Callers, Capture, then skip.
	n := runtime.Callers(2+skip, pcs[:])
	if n == 0 {
		return 0
	}

	hash := hashStack(pcs[:n])
	if _, exists := d.stacks.Load(hash); !exists {
		d.stacks.Store(hash, &StackTrace{PC: pcs})
	}
	return hash
}

// Get retrieves a stack trace by hash, or nil if unknown or zero.
func (d *Depot) Get(hash uint64) *StackTrace {
	if hash == 0 {
		return nil
	}
	val, ok := d.stacks.Load(hash)
	if !ok {
		return nil
	}
	return val.(*StackTrace)
}

// Stats returns the number of unique stacks and their approximate footprint.
func (d *Depot) Stats() (uniqueStacks int, totalMemory int64) {
	d.stacks.Range(func(_, _ any) bool {
		uniqueStacks++
		return true
	})
	// MaxFrames PCs plus roughly 32 bytes of map entry overhead.
	const bytesPerStack = MaxFrames*8 + 32
	return uniqueStacks, int64(uniqueStacks) * bytesPerStack
}

// Reset clears the depot.
//
// Thread Safety: NOT safe for concurrent use with other methods.
func (d *Depot) Reset() {
	d.stacks.Clear()
}

func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, pc := range pcs {
		binary.LittleEndian.PutUint64(buf[:], uint64(pc))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// FormatStack formats a stack trace in the layout of Go's race reports:
//
//	main.worker()
//	    /path/to/file.go:45
//
// runtime frames are skipped.
func (st *StackTrace) FormatStack() string {
	if st == nil {
		return "  <unknown>\n"
	}

	n := 0
	for n < MaxFrames && st.PC[n] != 0 {
		n++
	}
	if n == 0 {
		return "  <unknown>\n"
	}

	frames := runtime.CallersFrames(st.PC[:n])
	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&buf, "  %s()\n      %s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  <runtime internal>\n"
	}
	return buf.String()
}
