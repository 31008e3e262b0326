package race

import (
	"io"
	"unsafe"

	"github.com/kolkov/syncprim/internal/race/detector"
	"github.com/kolkov/syncprim/internal/race/goroutine"
	"github.com/kolkov/syncprim/log"
)

// Report describes one detected race. See [Tracer.Reports].
type Report = detector.RaceReport

// Stats counts the events a Tracer has processed. See [Tracer.Stats].
type Stats = detector.Stats

// Option configures a Tracer.
type Option func(*Tracer)

// WithReportWriter sets where formatted race reports are written.
// The default discards them; reports are always available from Reports.
func WithReportWriter(w io.Writer) Option {
	return func(t *Tracer) { t.out = w }
}

// WithLogger sets the logger used for thread registration (debug) and for
// one warning per unique race.
func WithLogger(l log.Logger) Option {
	return func(t *Tracer) { t.log = l }
}

// Tracer is a happens-before tracer bound to the goroutines that call it.
//
// Every method attributes the event to the calling goroutine, which gets a
// dense thread id on first use. A Tracer is safe for concurrent use.
//
// The zero value is not usable; create one with New.
type Tracer struct {
	det *detector.Detector
	reg *goroutine.Registry
	log log.Logger
	out io.Writer
}

// New creates a Tracer.
func New(opts ...Option) *Tracer {
	t := &Tracer{
		reg: goroutine.NewRegistry(),
		log: log.Discard(),
		out: io.Discard,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.det = detector.NewDetector(t.out)
	return t
}

// AddrOf returns the address of p for use as a traced location.
func AddrOf[T any](p *T) uintptr {
	return uintptr(unsafe.Pointer(p))
}

func (t *Tracer) thread() *goroutine.Context {
	ctx, isNew := t.reg.Current()
	if isNew {
		t.log.Debug("tracer: goroutine %d registered as thread %d", goroutine.CurrentID(), ctx.TID)
	}
	return ctx
}

func (t *Tracer) warn(r *detector.RaceReport) {
	if r != nil {
		t.log.Warn("tracer: %s race at 0x%x between threads %d and %d",
			r.Type, r.Current.Addr, r.Previous.ThreadID, r.Current.ThreadID)
	}
}

// Read records a read of the location addr by the calling goroutine.
func (t *Tracer) Read(addr uintptr) {
	t.warn(t.det.OnRead(addr, t.thread()))
}

// Write records a write of the location addr by the calling goroutine.
func (t *Tracer) Write(addr uintptr) {
	t.warn(t.det.OnWrite(addr, t.thread()))
}

// Acquire records an acquire on the synchronization word at addr: the
// caller's clock joins the last release published there.
func (t *Tracer) Acquire(addr uintptr) {
	t.det.OnAcquire(addr, t.thread())
}

// Release records a release on the synchronization word at addr: the
// caller's clock replaces the one published there.
func (t *Tracer) Release(addr uintptr) {
	t.det.OnRelease(addr, t.thread())
}

// ReleaseMerge records a read-modify-write release on the synchronization
// word at addr: the caller's clock is joined into the one published there,
// so acquirers stay ordered after every earlier releaser too.
func (t *Tracer) ReleaseMerge(addr uintptr) {
	t.det.OnReleaseMerge(addr, t.thread())
}

// ChannelSend records a completed send on the channel identified by ch.
func (t *Tracer) ChannelSend(ch uintptr) {
	t.det.OnChannelSendAfter(ch, t.thread())
}

// ChannelRecv records a completed receive on the channel identified by ch.
func (t *Tracer) ChannelRecv(ch uintptr) {
	t.det.OnChannelRecvAfter(ch, t.thread())
}

// ChannelClose records that the channel identified by ch was closed.
func (t *Tracer) ChannelClose(ch uintptr) {
	t.det.OnChannelClose(ch, t.thread())
}

// WaitGroupAdd records wg.Add(delta).
func (t *Tracer) WaitGroupAdd(wg uintptr, delta int) {
	t.det.OnWaitGroupAdd(wg, delta, t.thread())
}

// WaitGroupDone records wg.Done(). Call it before the real Done.
func (t *Tracer) WaitGroupDone(wg uintptr) {
	t.det.OnWaitGroupDone(wg, t.thread())
}

// WaitGroupWait records that wg.Wait() returned. Call it after the real Wait.
func (t *Tracer) WaitGroupWait(wg uintptr) {
	t.det.OnWaitGroupWaitAfter(wg, t.thread())
}

// Races returns the number of unique races detected.
func (t *Tracer) Races() int {
	return t.det.RacesDetected()
}

// Reports returns the unique races detected, oldest first.
func (t *Tracer) Reports() []*Report {
	return t.det.Reports()
}

// Stats returns the tracer's activity counters.
func (t *Tracer) Stats() Stats {
	return t.det.Stats()
}

// Threads returns the number of goroutines that have used the tracer.
func (t *Tracer) Threads() int {
	return t.reg.Len()
}

// Reset forgets all traced state, reports and threads.
func (t *Tracer) Reset() {
	t.det.Reset()
	t.reg.Reset()
}
