package detector

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/kolkov/syncprim/internal/race/epoch"
	"github.com/kolkov/syncprim/internal/race/stackdepot"
)

// AccessType represents the type of memory access (Read or Write).
type AccessType int

const (
	// AccessRead indicates a read memory access.
	AccessRead AccessType = iota
	// AccessWrite indicates a write memory access.
	AccessWrite
)

// String returns the string representation of an AccessType.
func (a AccessType) String() string {
	switch a {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	default:
		return "Unknown"
	}
}

// Race type constants for deduplication and reporting.
const (
	// RaceTypeWriteWrite indicates a write-write data race.
	RaceTypeWriteWrite = "write-write"
	// RaceTypeReadWrite indicates a read-write data race.
	RaceTypeReadWrite = "read-write"
	// RaceTypeWriteRead indicates a write-read data race.
	RaceTypeWriteRead = "write-read"
)

// AccessInfo represents information about a single memory access.
type AccessInfo struct {
	// Type indicates whether this was a Read or Write access.
	Type AccessType

	// Addr is the traced address.
	Addr uintptr

	// ThreadID is the tracer thread that performed the access.
	// Zero with a zero Epoch when the previous reader is one of several.
	ThreadID uint16

	// Epoch is the logical timestamp when the access occurred.
	Epoch epoch.Epoch

	// Stack is the call stack captured at the access, or nil.
	Stack *stackdepot.StackTrace
}

// RaceReport represents a detected data race between two accesses.
type RaceReport struct {
	// Type is one of RaceTypeWriteWrite, RaceTypeReadWrite, RaceTypeWriteRead.
	Type string

	// Current is the most recent access that triggered race detection.
	Current AccessInfo

	// Previous is the earlier conflicting access.
	Previous AccessInfo

	// DeduplicationKey uniquely identifies this race location.
	// Format: "{type}:{addr}:{tid1}:{tid2}" where tid1 <= tid2.
	DeduplicationKey string
}

// generateDeduplicationKey generates a unique key for a race location.
//
// Thread IDs are sorted so that a race between A and B at address X always
// generates the same key regardless of which thread detected it.
//
// Example:
//
//	key := generateDeduplicationKey(RaceTypeWriteWrite, 0x1234, 5, 3)
//	// Returns: "write-write:0x1234:3:5"
func generateDeduplicationKey(raceType string, addr uintptr, tid1, tid2 uint16) string {
	return fmt.Sprintf("%s:0x%x:%d:%d", raceType, addr, min(tid1, tid2), max(tid1, tid2))
}

func newRaceReport(raceType string, addr uintptr, prev epoch.Epoch, prevStack *stackdepot.StackTrace, curr epoch.Epoch, currStack *stackdepot.StackTrace) *RaceReport {
	currTID, _ := curr.Decode()
	prevTID, _ := prev.Decode()

	report := &RaceReport{
		Type:     raceType,
		Current:  AccessInfo{Addr: addr, ThreadID: currTID, Epoch: curr, Stack: currStack},
		Previous: AccessInfo{Addr: addr, ThreadID: prevTID, Epoch: prev, Stack: prevStack},
	}

	switch raceType {
	case RaceTypeReadWrite:
		report.Current.Type = AccessWrite
		report.Previous.Type = AccessRead
	case RaceTypeWriteRead:
		report.Current.Type = AccessRead
		report.Previous.Type = AccessWrite
	default:
		report.Current.Type = AccessWrite
		report.Previous.Type = AccessWrite
	}

	report.DeduplicationKey = generateDeduplicationKey(raceType, addr, prevTID, currTID)
	return report
}

// String formats the race report in the layout of Go's race detector:
//
//	==================
//	WARNING: DATA RACE
//	Write at 0x00c000012345 by thread 2:
//	  main.worker()
//	      /path/to/main.go:42
//
//	Previous Read at 0x00c000012345 by thread 1:
//	  main.reader()
//	      /path/to/main.go:30
//	==================
func (r *RaceReport) String() string {
	var b strings.Builder
	b.WriteString("==================\n")
	b.WriteString("WARNING: DATA RACE\n")
	fmt.Fprintf(&b, "%s at 0x%016x by thread %d:\n", r.Current.Type, r.Current.Addr, r.Current.ThreadID)
	b.WriteString(formatStack(r.Current.Stack))
	b.WriteString("\n")
	if r.Previous.Epoch == 0 && r.Previous.Type == AccessRead {
		fmt.Fprintf(&b, "Previous %s at 0x%016x by several threads:\n", r.Previous.Type, r.Previous.Addr)
	} else {
		fmt.Fprintf(&b, "Previous %s at 0x%016x by thread %d:\n", r.Previous.Type, r.Previous.Addr, r.Previous.ThreadID)
	}
	b.WriteString(formatStack(r.Previous.Stack))
	b.WriteString("==================\n")
	return b.String()
}

// Format writes the report to w. Write errors are ignored; reports are
// diagnostics and the report is kept in the detector either way.
func (r *RaceReport) Format(w io.Writer) {
	_, _ = io.WriteString(w, r.String())
}

// formatStack renders st, dropping runtime frames and the tracer's own
// frames so the report starts at the caller of the traced operation.
func formatStack(st *stackdepot.StackTrace) string {
	if st == nil {
		return "  (no stack trace available)\n"
	}

	n := 0
	for n < stackdepot.MaxFrames && st.PC[n] != 0 {
		n++
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(st.PC[:n])
	for n > 0 {
		frame, more := frames.Next()
		if !isInternalFrame(frame.Function) {
			fmt.Fprintf(&buf, "  %s()\n      %s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  (all frames filtered - tracer internal)\n"
	}
	return buf.String()
}

func isInternalFrame(fn string) bool {
	return strings.HasPrefix(fn, "runtime.") ||
		strings.Contains(fn, "/internal/race/") ||
		strings.Contains(fn, "syncprim/race.")
}
