package detector

import (
	"strings"
	"testing"

	"github.com/kolkov/syncprim/internal/race/epoch"
)

func TestGenerateDeduplicationKey(t *testing.T) {
	tests := []struct {
		raceType   string
		addr       uintptr
		tid1, tid2 uint16
		want       string
	}{
		{RaceTypeWriteWrite, 0x1234, 5, 3, "write-write:0x1234:3:5"},
		{RaceTypeWriteWrite, 0x1234, 3, 5, "write-write:0x1234:3:5"},
		{RaceTypeReadWrite, 0xabc, 0, 0, "read-write:0xabc:0:0"},
		{RaceTypeWriteRead, 0x10, 7, 1, "write-read:0x10:1:7"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := generateDeduplicationKey(tt.raceType, tt.addr, tt.tid1, tt.tid2); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRaceReportAccessTypes(t *testing.T) {
	tests := []struct {
		raceType      string
		current, prev AccessType
	}{
		{RaceTypeWriteWrite, AccessWrite, AccessWrite},
		{RaceTypeReadWrite, AccessWrite, AccessRead},
		{RaceTypeWriteRead, AccessRead, AccessWrite},
	}

	for _, tt := range tests {
		t.Run(tt.raceType, func(t *testing.T) {
			r := newRaceReport(tt.raceType, 0x10, epoch.NewEpoch(1, 4), nil, epoch.NewEpoch(2, 9), nil)
			if r.Current.Type != tt.current || r.Previous.Type != tt.prev {
				t.Errorf("types = %v/%v, want %v/%v", r.Current.Type, r.Previous.Type, tt.current, tt.prev)
			}
			if r.Current.ThreadID != 2 || r.Previous.ThreadID != 1 {
				t.Errorf("threads = %d/%d, want 2/1", r.Current.ThreadID, r.Previous.ThreadID)
			}
		})
	}
}

func TestReportWithoutStacks(t *testing.T) {
	r := newRaceReport(RaceTypeWriteWrite, 0x10, epoch.NewEpoch(1, 4), nil, epoch.NewEpoch(2, 9), nil)
	if got := strings.Count(r.String(), "(no stack trace available)"); got != 2 {
		t.Errorf("missing-stack markers = %d, want 2\n%s", got, r)
	}
}

func TestReportSeveralReaders(t *testing.T) {
	r := newRaceReport(RaceTypeReadWrite, 0x10, 0, nil, epoch.NewEpoch(2, 9), nil)
	if !strings.Contains(r.String(), "Previous Read at 0x0000000000000010 by several threads:") {
		t.Errorf("unexpected report:\n%s", r)
	}
}

func TestAccessTypeString(t *testing.T) {
	if AccessRead.String() != "Read" || AccessWrite.String() != "Write" || AccessType(9).String() != "Unknown" {
		t.Error("AccessType.String mismatch")
	}
}
