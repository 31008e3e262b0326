// Package seq provides flattening adapters over nested sequences.
package seq

import "iter"

// Flatten yields the elements of each inner sequence in turn. It is lazy:
// an inner sequence is not started until the previous one is exhausted.
func Flatten[T any](outer iter.Seq[iter.Seq[T]]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for inner := range outer {
			for v := range inner {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// FlattenSlices is a double-ended cursor over a slice of slices. Next
// consumes from the front and NextBack from the back; together they
// visit every element exactly once.
type FlattenSlices[T any] struct {
	outer [][]T
	front []T
	back  []T
}

// NewFlattenSlices returns a cursor over outer. outer is not copied.
func NewFlattenSlices[T any](outer [][]T) *FlattenSlices[T] {
	return &FlattenSlices[T]{outer: outer}
}

// Next returns the next element from the front.
func (f *FlattenSlices[T]) Next() (v T, ok bool) {
	for {
		if len(f.front) > 0 {
			v, f.front = f.front[0], f.front[1:]
			return v, true
		}
		if len(f.outer) == 0 {
			// The back cursor may hold the last unvisited inner slice.
			if len(f.back) == 0 {
				return v, false
			}
			v, f.back = f.back[0], f.back[1:]
			return v, true
		}
		f.front, f.outer = f.outer[0], f.outer[1:]
	}
}

// NextBack returns the next element from the back.
func (f *FlattenSlices[T]) NextBack() (v T, ok bool) {
	for {
		if n := len(f.back); n > 0 {
			v, f.back = f.back[n-1], f.back[:n-1]
			return v, true
		}
		if n := len(f.outer); n > 0 {
			f.back, f.outer = f.outer[n-1], f.outer[:n-1]
			continue
		}
		if n := len(f.front); n > 0 {
			v, f.front = f.front[n-1], f.front[:n-1]
			return v, true
		}
		return v, false
	}
}

// All yields the remaining elements front to back.
func (f *FlattenSlices[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := f.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Backward yields the remaining elements back to front.
func (f *FlattenSlices[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := f.NextBack()
			if !ok || !yield(v) {
				return
			}
		}
	}
}
