package cell

// Cell holds a value that is replaced wholesale. Get returns a copy.
type Cell[T any] struct {
	v T
}

// New returns a Cell holding v.
func New[T any](v T) *Cell[T] {
	return &Cell[T]{v: v}
}

// Get returns a copy of the value.
func (c *Cell[T]) Get() T { return c.v }

// Set replaces the value.
func (c *Cell[T]) Set(v T) { c.v = v }

// Swap replaces the value and returns the old one.
func (c *Cell[T]) Swap(v T) T {
	old := c.v
	c.v = v
	return old
}

// Take returns the value and leaves the zero value in its place.
func (c *Cell[T]) Take() T {
	var zero T
	return c.Swap(zero)
}
