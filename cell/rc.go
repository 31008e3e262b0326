package cell

// rcBox is the single allocation shared by every handle of one value.
type rcBox[T any] struct {
	v      T
	count  int
	onFree func(T)
}

// Rc is a handle to a value with shared ownership. The value is freed,
// and onFree called, exactly once when the last handle is dropped.
type Rc[T any] struct {
	box     *rcBox[T]
	dropped bool
}

// NewRc returns the first handle to v. onFree may be nil.
func NewRc[T any](v T, onFree func(T)) *Rc[T] {
	return &Rc[T]{box: &rcBox[T]{v: v, count: 1, onFree: onFree}}
}

// Clone returns a new handle to the same value.
func (r *Rc[T]) Clone() *Rc[T] {
	r.live("Clone")
	r.box.count++
	return &Rc[T]{box: r.box}
}

// Value returns the shared value.
func (r *Rc[T]) Value() T {
	r.live("Value")
	return r.box.v
}

// Count returns the number of live handles.
func (r *Rc[T]) Count() int {
	r.live("Count")
	return r.box.count
}

// Drop releases the handle. It panics if the handle was already dropped.
func (r *Rc[T]) Drop() {
	r.live("Drop")
	r.dropped = true
	box := r.box
	r.box = nil

	box.count--
	if box.count > 0 {
		return
	}
	v := box.v
	var zero T
	box.v = zero
	if box.onFree != nil {
		box.onFree(v)
	}
}

func (r *Rc[T]) live(op string) {
	if r.dropped {
		panic("cell: " + op + " on dropped Rc")
	}
}
