// Package cell provides single-goroutine containers with interior
// mutability and shared ownership: Cell, RefCell and Rc.
//
// None of these types synchronize. They must not be shared between
// goroutines without external locking, for example inside a spin.Mutex.
package cell
