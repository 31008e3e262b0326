package atomicx

// Ordering is a memory ordering constraint for an atomic operation.
type Ordering uint8

const (
	// Relaxed guarantees atomicity only.
	Relaxed Ordering = iota
	// Acquire orders later accesses after the load that observes a Release.
	Acquire
	// Release orders earlier accesses before the store.
	Release
	// AcqRel is Acquire for the load half and Release for the store half of
	// a read-modify-write.
	AcqRel
	// SeqCst is AcqRel plus a single total order of all SeqCst operations.
	SeqCst
)

var orderingNames = [...]string{
	Relaxed: "relaxed",
	Acquire: "acquire",
	Release: "release",
	AcqRel:  "acqrel",
	SeqCst:  "seqcst",
}

func (o Ordering) String() string {
	if int(o) < len(orderingNames) {
		return orderingNames[o]
	}
	return "unknown"
}

// Acquires reports whether o includes acquire semantics.
func (o Ordering) Acquires() bool {
	return o == Acquire || o == AcqRel || o == SeqCst
}

// Releases reports whether o includes release semantics.
func (o Ordering) Releases() bool {
	return o == Release || o == AcqRel || o == SeqCst
}

// Observer receives the happens-before edges created by ordered operations.
//
// A plain store with release semantics reports Release. A successful
// read-modify-write reports ReleaseMerge instead, because it continues the
// release sequence headed by earlier stores to the same word.
//
// *race.Tracer satisfies Observer.
type Observer interface {
	Acquire(addr uintptr)
	Release(addr uintptr)
	ReleaseMerge(addr uintptr)
}
