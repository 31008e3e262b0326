// Package race provides a happens-before tracer for the synchronization
// primitives in this module.
//
// Go's sync/atomic operations are sequentially consistent, so a lock built
// on "relaxed" operations behaves correctly on every machine Go runs on. The
// tracer makes the weaker contract visible: primitives report the edges their
// declared memory ordering promises, and the FastTrack algorithm (PLDI 2009)
// flags every pair of payload accesses those edges leave unordered.
//
// # Quick Start
//
//	tr := race.New(race.WithReportWriter(os.Stderr))
//	m := spin.New(0, spin.WithTier(spin.Relaxed), spin.WithTracer(tr))
//
//	// run the workload ...
//
//	fmt.Println(tr.Races()) // > 0: relaxed locking gives no happens-before
//
// # API Overview
//
//   - Memory access tracking: [Tracer.Read], [Tracer.Write]
//   - Lock words: [Tracer.Acquire], [Tracer.Release]
//   - Channels: [Tracer.ChannelSend], [Tracer.ChannelRecv], [Tracer.ChannelClose]
//   - Wait groups: [Tracer.WaitGroupAdd], [Tracer.WaitGroupDone], [Tracer.WaitGroupWait]
//   - Results: [Tracer.Races], [Tracer.Reports]
//   - Version information: [GetInfo], [Version]
//
// # Reports
//
// Each unique race is written once to the report writer, in the layout of
// Go's own race detector:
//
//	==================
//	WARNING: DATA RACE
//	Write at 0x000000c000012345 by thread 1:
//	  main.worker()
//	      /path/to/main.go:42
//
//	Previous Write at 0x000000c000012345 by thread 0:
//	  main.worker()
//	      /path/to/main.go:42
//	==================
//
// Thread ids are the tracer's dense ids, assigned in first-use order.
//
// # Cost
//
// All events are serialized by one mutex. The tracer is a diagnostic mode
// for tests and experiments, not something to leave on in production.
package race
