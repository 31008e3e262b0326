// Package detector implements the FastTrack happens-before race detector
// used to observe the memory orderings of this module's primitives.
//
// # Architecture
//
//  1. OnWrite/OnRead handlers: called for traced payload accesses
//  2. OnAcquire/OnRelease and the channel / wait group handlers: called for
//     synchronization points whose declared ordering creates an edge
//  3. Shadow memory: access history (VarState) for each traced address
//
// Go's sync/atomic operations are sequentially consistent on every
// platform, so a spin lock written with "relaxed" operations still works on
// real hardware. The detector does not look at the hardware: it only sees
// the edges the declared orderings promise. A relaxed lock word produces no
// OnAcquire/OnRelease, consecutive critical sections stay unordered, and the
// second one is reported as a race. That is the behavior the memory model
// allows, made deterministic.
//
// # Race Detection Rules
//
//  1. Same-epoch fast path: if the write epoch matches the current epoch, skip
//  2. Write-write race: previous write not ⊑ current clock
//  3. Read-write race: previous read(s) not ⊑ current clock
//  4. Update shadow: vs.W = current epoch, clear reads
//  5. Advance clock: ctx.IncrementClock()
//
// # Thread Safety
//
// Every entry point takes the detector mutex. Tracing is a diagnostic mode;
// serializing it keeps the shadow state simple and exact.
package detector
