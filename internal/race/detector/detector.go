package detector

import (
	"io"
	"sync"

	"github.com/kolkov/syncprim/internal/race/epoch"
	"github.com/kolkov/syncprim/internal/race/goroutine"
	"github.com/kolkov/syncprim/internal/race/shadowmem"
	"github.com/kolkov/syncprim/internal/race/stackdepot"
	"github.com/kolkov/syncprim/internal/race/syncshadow"
)

// Stats tracks detector activity.
type Stats struct {
	TotalReads    uint64 // Total read operations.
	TotalWrites   uint64 // Total write operations.
	Promotions    uint64 // Epoch → VectorClock promotions.
	Demotions     uint64 // VectorClock → Epoch demotions (on write).
	FastPathReads uint64 // Reads using Epoch.
	SlowPathReads uint64 // Reads using VectorClock.
	Acquires      uint64 // Acquire edges consumed.
	Releases      uint64 // Release edges published by overwriting.
	ReleaseMerges uint64 // Release edges joined into earlier ones.
	UniqueStacks  int    // Stacks held by the depot.
	StackMemory   int64  // Approximate depot footprint in bytes.
}

// Detector implements the core FastTrack race detection algorithm.
//
// It owns the shadow memory for traced addresses, the sync shadow for
// synchronization points, and the stack depot used in reports.
type Detector struct {
	mu sync.Mutex

	shadowMemory *shadowmem.ShadowMemory
	syncShadow   *syncshadow.SyncShadow
	depot        *stackdepot.Depot

	// reported holds deduplication keys of races already reported.
	reported map[string]struct{}
	reports  []*RaceReport
	stats    Stats

	// out receives a formatted report for every unique race.
	out io.Writer
}

// NewDetector creates a detector that writes formatted reports to out.
// A nil out discards them; reports are still collected.
func NewDetector(out io.Writer) *Detector {
	if out == nil {
		out = io.Discard
	}
	return &Detector{
		shadowMemory: shadowmem.NewShadowMemory(),
		syncShadow:   syncshadow.NewSyncShadow(),
		depot:        stackdepot.New(),
		reported:     make(map[string]struct{}),
		out:          out,
	}
}

// OnWrite handles a traced write to addr.
//
// Algorithm: FastTrack [FT WRITE]
//  1. [SAME EPOCH] If vs.W == current epoch, return
//  2. Write-write race if !vs.W ⊑ ctx.C
//  3. Read-write race if the read epoch / read clock is not ⊑ ctx.C
//  4. vs.W = current epoch, demote read tracking
//  5. ctx.IncrementClock()
//
// Returns the report of a newly detected race, or nil.
func (d *Detector) OnWrite(addr uintptr, ctx *goroutine.Context) *RaceReport {
	d.mu.Lock()
	defer d.mu.Unlock()

	vs := d.shadowMemory.GetOrCreate(addr)
	current := ctx.GetEpoch()
	d.stats.TotalWrites++

	if vs.W.Same(current) {
		return nil
	}

	stack := d.depot.Capture(1)

	var report *RaceReport
	switch {
	case vs.W != 0 && !vs.W.HappensBefore(ctx.C):
		report = d.reportLocked(RaceTypeWriteWrite, addr, vs.W, vs.WriteStack, current, stack)
	case !vs.IsPromoted() && vs.GetReadEpoch() != 0 && !vs.GetReadEpoch().HappensBefore(ctx.C):
		report = d.reportLocked(RaceTypeReadWrite, addr, vs.GetReadEpoch(), vs.ReadStack, current, stack)
	case vs.IsPromoted() && !vs.GetReadClock().HappensBefore(ctx.C):
		// The conflicting reader is one of many; report the last one recorded.
		report = d.reportLocked(RaceTypeReadWrite, addr, epoch.Epoch(0), vs.ReadStack, current, stack)
	}

	// The write still becomes the latest access so that later accesses are
	// checked against it rather than against an older, already-reported one.
	vs.W = current
	vs.WriteStack = stack
	if vs.IsPromoted() {
		d.stats.Demotions++
	}
	vs.Demote()

	ctx.IncrementClock()
	return report
}

// OnRead handles a traced read of addr.
//
// Algorithm: FastTrack [FT READ] (adaptive)
//  1. Write-read race if vs.W != 0 && !vs.W ⊑ ctx.C
//  2. Unpromoted: same epoch → return; same thread or ordered reader →
//     replace the epoch; concurrent reader → promote to a read clock
//  3. Promoted: join ctx.C into the read clock
//  4. ctx.IncrementClock()
//
// Returns the report of a newly detected race, or nil.
func (d *Detector) OnRead(addr uintptr, ctx *goroutine.Context) *RaceReport {
	d.mu.Lock()
	defer d.mu.Unlock()

	vs := d.shadowMemory.GetOrCreate(addr)
	current := ctx.GetEpoch()
	d.stats.TotalReads++

	if !vs.IsPromoted() && vs.GetReadEpoch().Same(current) {
		d.stats.FastPathReads++
		return nil
	}

	stack := d.depot.Capture(1)

	var report *RaceReport
	if vs.W != 0 && !vs.W.HappensBefore(ctx.C) {
		report = d.reportLocked(RaceTypeWriteRead, addr, vs.W, vs.WriteStack, current, stack)
	}

	if vs.IsPromoted() {
		d.stats.SlowPathReads++
		vs.GetReadClock().Set(ctx.TID, ctx.C.Get(ctx.TID))
	} else {
		d.stats.FastPathReads++
		prev := vs.GetReadEpoch()
		prevTID, _ := prev.Decode()
		if prev == 0 || prevTID == ctx.TID || prev.HappensBefore(ctx.C) {
			vs.SetReadEpoch(current)
		} else {
			vs.PromoteToReadClock(ctx.C)
			d.stats.Promotions++
		}
	}
	vs.ReadStack = stack

	ctx.IncrementClock()
	return report
}

// OnAcquire consumes the release clock of a synchronization point.
//
// Algorithm: [FT ACQUIRE] Ct := Ct ⊔ Lm, then Ct[t]++.
func (d *Detector) OnAcquire(addr uintptr, ctx *goroutine.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sv := d.syncShadow.GetOrCreate(addr)
	if rc := sv.GetReleaseClock(); rc != nil {
		ctx.C.Join(rc)
	}
	d.stats.Acquires++
	ctx.IncrementClock()
}

// OnRelease publishes the thread's clock at a synchronization point.
//
// Algorithm: [FT RELEASE] Lm := Ct, then Ct[t]++.
func (d *Detector) OnRelease(addr uintptr, ctx *goroutine.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.syncShadow.GetOrCreate(addr).SetReleaseClock(ctx.C)
	d.stats.Releases++
	ctx.IncrementClock()
}

// OnReleaseMerge publishes the thread's clock without discarding earlier
// releases: Lm := Lm ⊔ Ct, then Ct[t]++.
//
// Used for read-modify-write operations with release semantics, which
// extend the release sequence of earlier stores instead of replacing it.
func (d *Detector) OnReleaseMerge(addr uintptr, ctx *goroutine.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.syncShadow.GetOrCreate(addr).MergeReleaseClock(ctx.C)
	d.stats.ReleaseMerges++
	ctx.IncrementClock()
}

// OnChannelSendAfter records a completed send on channel ch.
func (d *Detector) OnChannelSendAfter(ch uintptr, ctx *goroutine.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.syncShadow.GetOrCreate(ch).MergeChannelSendClock(ctx.C)
	d.stats.Releases++
	ctx.IncrementClock()
}

// OnChannelRecvAfter records a completed receive on channel ch.
//
// The receiver joins the accumulated send clock and, once the channel has
// been closed, the close clock as well.
func (d *Detector) OnChannelRecvAfter(ch uintptr, ctx *goroutine.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sv := d.syncShadow.GetOrCreate(ch)
	ctx.C.Join(sv.GetChannelSendClock())
	if sv.IsChannelClosed() {
		ctx.C.Join(sv.GetChannelCloseClock())
	}
	d.stats.Acquires++
	ctx.IncrementClock()
}

// OnChannelClose records that the last producer of ch went away.
func (d *Detector) OnChannelClose(ch uintptr, ctx *goroutine.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.syncShadow.GetOrCreate(ch).SetChannelCloseClock(ctx.C)
	d.stats.Releases++
	ctx.IncrementClock()
}

// OnWaitGroupAdd records wg.Add(delta). No happens-before edge.
func (d *Detector) OnWaitGroupAdd(wg uintptr, delta int, _ *goroutine.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.syncShadow.GetOrCreate(wg).WaitGroupAdd(delta)
}

// OnWaitGroupDone records wg.Done(): the worker's clock joins the done clock.
func (d *Detector) OnWaitGroupDone(wg uintptr, ctx *goroutine.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.syncShadow.GetOrCreate(wg).MergeWaitGroupDoneClock(ctx.C)
	d.stats.Releases++
	ctx.IncrementClock()
}

// OnWaitGroupWaitAfter records that wg.Wait() returned: the waiter joins
// the clocks of every Done.
func (d *Detector) OnWaitGroupWaitAfter(wg uintptr, ctx *goroutine.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx.C.Join(d.syncShadow.GetOrCreate(wg).GetWaitGroupDoneClock())
	d.stats.Acquires++
	ctx.IncrementClock()
}

// RacesDetected returns the number of unique races detected.
func (d *Detector) RacesDetected() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.reports)
}

// Reports returns the unique races detected so far, oldest first.
func (d *Detector) Reports() []*RaceReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*RaceReport, len(d.reports))
	copy(out, d.reports)
	return out
}

// Stats returns a copy of the activity counters, with the stack depot's
// current size.
func (d *Detector) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.UniqueStacks, s.StackMemory = d.depot.Stats()
	return s
}

// Reset clears shadow state, reports and counters.
//
// Contexts held by callers keep their clocks; callers normally reset their
// goroutine registry at the same time.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.shadowMemory.Reset()
	d.syncShadow.Reset()
	d.depot.Reset()
	d.reported = make(map[string]struct{})
	d.reports = nil
	d.stats = Stats{}
}

// reportLocked records a race unless its location was already reported.
//
// Caller must hold d.mu.
func (d *Detector) reportLocked(raceType string, addr uintptr, prev epoch.Epoch, prevStack uint64, curr epoch.Epoch, currStack uint64) *RaceReport {
	report := newRaceReport(raceType, addr, prev, d.depot.Get(prevStack), curr, d.depot.Get(currStack))
	if _, dup := d.reported[report.DeduplicationKey]; dup {
		return nil
	}
	d.reported[report.DeduplicationKey] = struct{}{}
	d.reports = append(d.reports, report)
	report.Format(d.out)
	return report
}
