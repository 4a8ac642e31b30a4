// Package pmr implements an instrumented, polymorphic memory resource
// for Go: an allocator wrapper that decorates every block with a
// header and guard regions so that buffer overruns, underruns,
// double-frees, and mismatched deallocate calls are caught at the
// point of release instead of silently corrupting the heap.
//
// # Overview
//
// A Resource sits between callers and an upstream MemoryResource
// (DefaultUpstream by default, an aligned malloc/free wrapper). Every
// Allocate call reserves extra space for a header and two guard
// regions, fills the guards with a known byte pattern, and records the
// request's size, alignment, and an owning identity. Deallocate
// re-derives the header from the payload pointer, checks both guards
// for corruption, validates the recorded size and alignment against
// what the caller passed, and only then returns the block to upstream.
//
// # Basic Usage
//
//	r := pmr.NewResource(pmr.WithName("handler"))
//	defer r.Release()
//
//	ptr, err := r.Allocate(1024, 0) // 0 means natural alignment
//	if err != nil {
//		// upstream exhausted
//	}
//	r.Deallocate(ptr, 1024, 0)
//
//	// Typed helpers
//	v := pmr.New[MyStruct](r)
//	s := pmr.NewSlice[int](r, 100)
//
// # Thread Safety
//
// Resource is safe for concurrent use: a single mutex guards the
// allocate/deallocate path, held across the call into upstream.
// Counters are also exposed via atomics so accessors never block on
// that mutex.
//
// # Fault Injection
//
// SetAllocationLimit arms a countdown; the allocation that brings it
// to zero panics with a *LimitExceededError instead of succeeding.
// ExceptionTestLoop drives a workload through increasing limits until
// it completes a trial cleanly, the standard pattern for proving a
// piece of code is exception-safe (or, in Go's terms, panic-safe) at
// every allocation point.
//
// # Reporting
//
// A Resource never writes to a stream directly; it calls back into
// whatever Reporter it was constructed with. ConsoleReporter and
// FileReporter are provided; NullReporter discards everything.
//
// # Important Notes
//
//   - Release returns every outstanding block to upstream and reports
//     a leak for each one still held; it does not panic or abort.
//   - Corruption detected during Deallocate calls AbortHook (by
//     default, os.Exit), not a panic, matching original_source's
//     design: a corrupted heap is not something recover() should paper
//     over.
//   - Allocate panics (never returns an error) when the allocation
//     limit trips or the requested alignment is unsupported; it only
//     returns an error when the upstream allocator itself is
//     exhausted.
package pmr
