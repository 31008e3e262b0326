package detector

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kolkov/syncprim/internal/race/goroutine"
)

const payload uintptr = 0x1000

func TestWriteWriteRace(t *testing.T) {
	d := NewDetector(nil)
	t1, t2 := goroutine.Alloc(0), goroutine.Alloc(1)

	if r := d.OnWrite(payload, t1); r != nil {
		t.Fatalf("first write reported a race: %v", r)
	}
	r := d.OnWrite(payload, t2)
	if r == nil {
		t.Fatal("unordered writes not reported")
	}
	if r.Type != RaceTypeWriteWrite {
		t.Errorf("Type = %q, want %q", r.Type, RaceTypeWriteWrite)
	}
	if r.Current.ThreadID != 1 || r.Previous.ThreadID != 0 {
		t.Errorf("threads = %d/%d, want 1/0", r.Current.ThreadID, r.Previous.ThreadID)
	}
	if got := d.RacesDetected(); got != 1 {
		t.Errorf("RacesDetected() = %d, want 1", got)
	}
}

func TestSameThreadNoRace(t *testing.T) {
	d := NewDetector(nil)
	ctx := goroutine.Alloc(0)

	for range 10 {
		d.OnWrite(payload, ctx)
		d.OnRead(payload, ctx)
	}
	if got := d.RacesDetected(); got != 0 {
		t.Errorf("RacesDetected() = %d, want 0", got)
	}
}

func TestAccessKinds(t *testing.T) {
	tests := []struct {
		name   string
		first  func(d *Detector, ctx *goroutine.Context) *RaceReport
		second func(d *Detector, ctx *goroutine.Context) *RaceReport
		want   string
	}{
		{"write then read", write, read, RaceTypeWriteRead},
		{"read then write", read, write, RaceTypeReadWrite},
		{"write then write", write, write, RaceTypeWriteWrite},
		{"read then read", read, read, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(nil)
			t1, t2 := goroutine.Alloc(0), goroutine.Alloc(1)

			tt.first(d, t1)
			r := tt.second(d, t2)
			switch {
			case tt.want == "" && r != nil:
				t.Errorf("unexpected race %q", r.Type)
			case tt.want != "" && r == nil:
				t.Errorf("race %q not reported", tt.want)
			case r != nil && r.Type != tt.want:
				t.Errorf("Type = %q, want %q", r.Type, tt.want)
			}
		})
	}
}

func write(d *Detector, ctx *goroutine.Context) *RaceReport { return d.OnWrite(payload, ctx) }
func read(d *Detector, ctx *goroutine.Context) *RaceReport  { return d.OnRead(payload, ctx) }

func TestReleaseAcquireOrdersAccesses(t *testing.T) {
	const lock uintptr = 0x2000
	d := NewDetector(nil)
	t1, t2 := goroutine.Alloc(0), goroutine.Alloc(1)

	d.OnWrite(payload, t1)
	d.OnRelease(lock, t1)
	d.OnAcquire(lock, t2)
	if r := d.OnWrite(payload, t2); r != nil {
		t.Fatalf("ordered write reported: %v", r)
	}
	if r := d.OnRead(payload, t2); r != nil {
		t.Fatalf("ordered read reported: %v", r)
	}
}

func TestAcquireWithoutReleaseGivesNoEdge(t *testing.T) {
	const lock uintptr = 0x2000
	d := NewDetector(nil)
	t1, t2 := goroutine.Alloc(0), goroutine.Alloc(1)

	d.OnWrite(payload, t1)
	// Release on a different address does not order anything through lock.
	d.OnRelease(lock+8, t1)
	d.OnAcquire(lock, t2)
	if r := d.OnWrite(payload, t2); r == nil {
		t.Fatal("write after unrelated acquire not reported")
	}
}

func TestAcquireClockAdvances(t *testing.T) {
	const lock uintptr = 0x2000
	d := NewDetector(nil)
	t1, t2 := goroutine.Alloc(0), goroutine.Alloc(1)

	d.OnRelease(lock, t1)
	before := t2.C.Get(1)
	d.OnAcquire(lock, t2)

	if got := t2.C.Get(1); got != before+1 {
		t.Errorf("own clock = %d, want %d", got, before+1)
	}
	if got := t2.C.Get(0); got == 0 {
		t.Error("acquire did not join the release clock")
	}
	if rc := d.syncShadow.GetOrCreate(lock).GetReleaseClock(); rc == nil || rc.Get(0) == 0 {
		t.Errorf("release clock = %v, want t0 entry", rc)
	}
}

func TestReleaseMergeKeepsEarlierReleases(t *testing.T) {
	const point uintptr = 0x2000
	d := NewDetector(nil)
	t1, t2, t3 := goroutine.Alloc(0), goroutine.Alloc(1), goroutine.Alloc(2)

	d.OnWrite(payload, t1)
	d.OnReleaseMerge(point, t1)
	d.OnWrite(payload+8, t2)
	d.OnReleaseMerge(point, t2)

	d.OnAcquire(point, t3)
	if r := d.OnWrite(payload, t3); r != nil {
		t.Errorf("first releaser's write not ordered: %v", r)
	}
	if r := d.OnWrite(payload+8, t3); r != nil {
		t.Errorf("second releaser's write not ordered: %v", r)
	}
	if s := d.Stats(); s.ReleaseMerges != 2 || s.Releases != 0 || s.UniqueStacks == 0 {
		t.Errorf("stats = %+v, want 2 merges, no plain releases, captured stacks", s)
	}
}

func TestConcurrentReadsThenWrite(t *testing.T) {
	d := NewDetector(nil)
	t1, t2, t3 := goroutine.Alloc(0), goroutine.Alloc(1), goroutine.Alloc(2)

	d.OnRead(payload, t1)
	d.OnRead(payload, t2)

	if vs := d.shadowMemory.Get(payload); vs == nil || !vs.IsPromoted() {
		t.Fatal("concurrent reads did not promote to a read clock")
	}
	if s := d.Stats(); s.Promotions != 1 {
		t.Errorf("Promotions = %d, want 1", s.Promotions)
	}

	r := d.OnWrite(payload, t3)
	if r == nil || r.Type != RaceTypeReadWrite {
		t.Fatalf("write after concurrent reads: got %v, want read-write race", r)
	}
	if vs := d.shadowMemory.Get(payload); vs.IsPromoted() {
		t.Error("write did not demote the read clock")
	}
}

func TestDeduplication(t *testing.T) {
	d := NewDetector(nil)
	t1, t2 := goroutine.Alloc(0), goroutine.Alloc(1)

	for range 5 {
		d.OnWrite(payload, t1)
		d.OnWrite(payload, t2)
	}
	if got := d.RacesDetected(); got != 1 {
		t.Errorf("RacesDetected() = %d, want 1", got)
	}
}

func TestChannelEdges(t *testing.T) {
	const ch uintptr = 0x3000

	t.Run("send then receive", func(t *testing.T) {
		d := NewDetector(nil)
		producer, consumer := goroutine.Alloc(0), goroutine.Alloc(1)

		d.OnWrite(payload, producer)
		d.OnChannelSendAfter(ch, producer)
		d.OnChannelRecvAfter(ch, consumer)
		if r := d.OnRead(payload, consumer); r != nil {
			t.Errorf("received value reported: %v", r)
		}
	})

	t.Run("close then receive", func(t *testing.T) {
		d := NewDetector(nil)
		producer, consumer := goroutine.Alloc(0), goroutine.Alloc(1)

		d.OnChannelSendAfter(ch, producer)
		d.OnWrite(payload, producer)
		d.OnChannelClose(ch, producer)
		d.OnChannelRecvAfter(ch, consumer)
		if r := d.OnRead(payload, consumer); r != nil {
			t.Errorf("write before close reported: %v", r)
		}
	})

	t.Run("write after send", func(t *testing.T) {
		d := NewDetector(nil)
		producer, consumer := goroutine.Alloc(0), goroutine.Alloc(1)

		d.OnChannelSendAfter(ch, producer)
		d.OnWrite(payload, producer)
		d.OnChannelRecvAfter(ch, consumer)
		if r := d.OnRead(payload, consumer); r == nil {
			t.Error("write after the send was not reported")
		}
	})
}

func TestWaitGroupEdges(t *testing.T) {
	const wg uintptr = 0x4000
	d := NewDetector(nil)
	waiter := goroutine.Alloc(0)
	workers := []*goroutine.Context{goroutine.Alloc(1), goroutine.Alloc(2), goroutine.Alloc(3)}

	d.OnWaitGroupAdd(wg, len(workers), waiter)
	for i, w := range workers {
		d.OnWrite(payload+uintptr(i)*8, w)
		d.OnWaitGroupDone(wg, w)
	}
	if got := d.syncShadow.GetOrCreate(wg).GetWaitGroupCounter(); got != 0 {
		t.Errorf("counter = %d, want 0", got)
	}

	d.OnWaitGroupWaitAfter(wg, waiter)
	for i := range workers {
		if r := d.OnRead(payload+uintptr(i)*8, waiter); r != nil {
			t.Errorf("worker %d write reported after Wait: %v", i, r)
		}
	}
}

func TestReportOutput(t *testing.T) {
	var buf bytes.Buffer
	d := NewDetector(&buf)
	t1, t2 := goroutine.Alloc(0), goroutine.Alloc(1)

	d.OnRead(payload, t1)
	d.OnWrite(payload, t2)

	out := buf.String()
	for _, want := range []string{
		"WARNING: DATA RACE",
		"Write at 0x0000000000001000 by thread 1:",
		"Previous Read at 0x0000000000001000 by thread 0:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "=================="); got != 2 {
		t.Errorf("separator count = %d, want 2", got)
	}
}

func TestReset(t *testing.T) {
	d := NewDetector(nil)
	t1, t2 := goroutine.Alloc(0), goroutine.Alloc(1)

	d.OnWrite(payload, t1)
	d.OnWrite(payload, t2)
	d.Reset()

	if got := d.RacesDetected(); got != 0 {
		t.Errorf("RacesDetected() after Reset = %d, want 0", got)
	}
	if got := d.shadowMemory.Len(); got != 0 {
		t.Errorf("shadow cells after Reset = %d, want 0", got)
	}
	if s := d.Stats(); s != (Stats{}) {
		t.Errorf("Stats after Reset = %+v, want zero", s)
	}
}

func TestReportsIsACopy(t *testing.T) {
	d := NewDetector(nil)
	d.OnWrite(payload, goroutine.Alloc(0))
	d.OnWrite(payload, goroutine.Alloc(1))

	reports := d.Reports()
	reports[0] = nil
	if d.Reports()[0] == nil {
		t.Error("Reports() exposes internal slice")
	}
}

func BenchmarkOnWriteSameThread(b *testing.B) {
	d := NewDetector(nil)
	ctx := goroutine.Alloc(0)
	b.ResetTimer()
	for range b.N {
		d.OnWrite(payload, ctx)
	}
}

func BenchmarkAcquireRelease(b *testing.B) {
	const lock uintptr = 0x2000
	d := NewDetector(nil)
	ctx := goroutine.Alloc(0)
	b.ResetTimer()
	for range b.N {
		d.OnAcquire(lock, ctx)
		d.OnRelease(lock, ctx)
	}
}
