package cell

import "fmt"

// exclusive marks a mutable borrow in borrowState.
const exclusive = -1

// borrowState is the number of live shared borrows, or exclusive.
type borrowState int

func (s borrowState) String() string {
	if s == exclusive {
		return "Exclusive"
	}
	return fmt.Sprintf("Shared(%d)", int(s))
}

// RefCell checks borrows at run time: any number of shared borrows, or one
// mutable borrow. Conflicting requests fail instead of panicking.
type RefCell[T any] struct {
	v     T
	state borrowState
}

// NewRefCell returns a RefCell holding v.
func NewRefCell[T any](v T) *RefCell[T] {
	return &RefCell[T]{v: v}
}

// Ref is a shared borrow.
type Ref[T any] struct {
	rc       *RefCell[T]
	released bool
}

// RefMut is a mutable borrow.
type RefMut[T any] struct {
	rc       *RefCell[T]
	released bool
}

// Borrow takes a shared borrow. It fails while a mutable borrow is live.
func (rc *RefCell[T]) Borrow() (*Ref[T], bool) {
	if rc.state == exclusive {
		return nil, false
	}
	rc.state++
	return &Ref[T]{rc: rc}, true
}

// BorrowMut takes a mutable borrow. It fails while any borrow is live.
func (rc *RefCell[T]) BorrowMut() (*RefMut[T], bool) {
	if rc.state != 0 {
		return nil, false
	}
	rc.state = exclusive
	return &RefMut[T]{rc: rc}, true
}

// State describes the live borrows, e.g. "Shared(2)" or "Exclusive".
func (rc *RefCell[T]) State() string { return rc.state.String() }

// Value returns the borrowed value. It panics after Release.
func (r *Ref[T]) Value() T {
	if r.released {
		panic("cell: use of released Ref")
	}
	return r.rc.v
}

// Release ends the borrow. Further calls do nothing.
func (r *Ref[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	if r.rc.state <= 0 {
		panic("cell: RefCell borrow state corrupted: " + r.rc.state.String())
	}
	r.rc.state--
}

// Value returns a pointer to the value, valid until Release. It panics
// after Release.
func (r *RefMut[T]) Value() *T {
	if r.released {
		panic("cell: use of released RefMut")
	}
	return &r.rc.v
}

// Release ends the borrow. Further calls do nothing.
func (r *RefMut[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	if r.rc.state != exclusive {
		panic("cell: RefCell borrow state corrupted: " + r.rc.state.String())
	}
	r.rc.state = 0
}
