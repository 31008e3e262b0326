package race

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/kolkov/syncprim/internal/atomicx"
	"github.com/kolkov/syncprim/log"
	"github.com/sirupsen/logrus"
)

// onThread runs f on a fresh goroutine and waits for it.
func onThread(f func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f()
	}()
	wg.Wait()
}

func TestTracerUnorderedWrites(t *testing.T) {
	var buf bytes.Buffer
	tr := New(WithReportWriter(&buf))
	var x int

	onThread(func() { tr.Write(AddrOf(&x)) })
	onThread(func() { tr.Write(AddrOf(&x)) })

	if got := tr.Races(); got != 1 {
		t.Fatalf("Races() = %d, want 1", got)
	}
	if got := tr.Threads(); got != 2 {
		t.Errorf("Threads() = %d, want 2", got)
	}
	if !strings.Contains(buf.String(), "WARNING: DATA RACE") {
		t.Errorf("report not written:\n%s", buf.String())
	}
	r := tr.Reports()[0]
	if r.Current.Addr != AddrOf(&x) {
		t.Errorf("report addr = %#x, want %#x", r.Current.Addr, AddrOf(&x))
	}
}

func TestTracerReleaseAcquire(t *testing.T) {
	tr := New()
	var x, lock int

	onThread(func() {
		tr.Write(AddrOf(&x))
		tr.Release(AddrOf(&lock))
	})
	onThread(func() {
		tr.Acquire(AddrOf(&lock))
		tr.Write(AddrOf(&x))
		tr.Read(AddrOf(&x))
	})

	if got := tr.Races(); got != 0 {
		t.Errorf("Races() = %d, want 0", got)
	}
}

func TestTracerChannel(t *testing.T) {
	tr := New()
	var x, ch int

	onThread(func() {
		tr.Write(AddrOf(&x))
		tr.ChannelSend(AddrOf(&ch))
		tr.ChannelClose(AddrOf(&ch))
	})
	tr.ChannelRecv(AddrOf(&ch))
	tr.Read(AddrOf(&x))

	if got := tr.Races(); got != 0 {
		t.Errorf("Races() = %d, want 0", got)
	}
}

func TestTracerLogsRaces(t *testing.T) {
	var buf bytes.Buffer
	l := log.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	l.SetLevel(log.DebugLevel)

	tr := New(WithLogger(l))
	var x int
	onThread(func() { tr.Write(AddrOf(&x)) })
	tr.Write(AddrOf(&x))

	out := buf.String()
	if !strings.Contains(out, "registered as thread 0") || !strings.Contains(out, "registered as thread 1") {
		t.Errorf("registration not logged:\n%s", out)
	}
	if !strings.Contains(out, "write-write race") {
		t.Errorf("race not logged:\n%s", out)
	}
}

func TestTracerReset(t *testing.T) {
	tr := New()
	var x int
	onThread(func() { tr.Write(AddrOf(&x)) })
	tr.Write(AddrOf(&x))
	tr.Reset()

	if tr.Races() != 0 || tr.Threads() != 0 || len(tr.Reports()) != 0 {
		t.Errorf("after Reset: races=%d threads=%d", tr.Races(), tr.Threads())
	}

	tr.Write(AddrOf(&x))
	if tr.Races() != 0 {
		t.Error("stale shadow state survived Reset")
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		v    string
		want bool
	}{
		{Version, true},
		{"v0.1.0", true},
		{"v0.99.0", false},
		{"v1.0.0", false},
		{"0.3.0", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.v, func(t *testing.T) {
			if got := Compatible(tt.v); got != tt.want {
				t.Errorf("Compatible(%q) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.Version != Version || info.Algorithm == "" {
		t.Errorf("GetInfo() = %+v", info)
	}
}

// TestTracerReleaseSequence checks that a read-modify-write release keeps
// earlier releasers ordered before a later acquirer, while a plain store
// release replaces them.
func TestTracerReleaseSequence(t *testing.T) {
	tests := []struct {
		name      string
		second    func(w *atomicx.Uint64)
		races     int
		releases  uint64
		mergeRels uint64
	}{
		{"add continues the sequence", func(w *atomicx.Uint64) { w.Add(1, atomicx.Release) }, 0, 1, 1},
		{"cas continues the sequence", func(w *atomicx.Uint64) { w.CompareExchange(1, 2, atomicx.AcqRel, atomicx.Relaxed) }, 0, 1, 1},
		{"store starts a new sequence", func(w *atomicx.Uint64) { w.Store(2, atomicx.Release) }, 1, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			var (
				x, y int
				word atomicx.Uint64
			)
			word.Observe(tr)

			onThread(func() {
				tr.Write(AddrOf(&x))
				word.Store(1, atomicx.Release)
			})
			onThread(func() {
				tr.Write(AddrOf(&y))
				tt.second(&word)
			})
			onThread(func() {
				word.Load(atomicx.Acquire)
				tr.Write(AddrOf(&x))
				tr.Write(AddrOf(&y))
			})

			if got := tr.Races(); got != tt.races {
				t.Errorf("Races() = %d, want %d", got, tt.races)
			}
			s := tr.Stats()
			if s.Releases != tt.releases || s.ReleaseMerges != tt.mergeRels {
				t.Errorf("Releases/ReleaseMerges = %d/%d, want %d/%d",
					s.Releases, s.ReleaseMerges, tt.releases, tt.mergeRels)
			}
			if s.TotalWrites != 4 || s.UniqueStacks == 0 {
				t.Errorf("stats = %+v, want 4 writes and captured stacks", s)
			}
		})
	}
}
