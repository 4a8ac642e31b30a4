package pmr

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// AbortHook is called in place of the process-terminating abort the
// reference implementation performs on unrecoverable corruption (a
// freed block with a bad magic number, or blocks still outstanding at
// construction time of a fresh index). It defaults to exiting the
// process with status 2; tests replace it with something that panics
// or records the call instead, so a single corrupted-memory test case
// doesn't take the whole test binary down.
var AbortHook = func() { osExit(2) }

// Resource is an instrumented, non-thread-pooling MemoryResource that
// wraps an upstream allocator and decorates every block with a header
// and guard regions so that over/underruns, double-frees, and
// mismatched deallocate calls are caught at the point of release
// rather than silently corrupting the heap. It is the central type of
// this package; see SPEC_FULL.md §4.2-§4.4. Grounded field-for-field on
// original_source's test_resource.
type Resource struct {
	mu sync.Mutex

	// name, verbose, noAbort, and quiet are read by the bundled
	// reporters while mu is held (Allocate/Deallocate call the
	// reporter without releasing the lock first), so they cannot
	// themselves be guarded by mu without deadlocking. atomic.Bool and
	// a dedicated RWMutex keep them safe for concurrent use instead.
	nameMu sync.RWMutex
	name   string

	verbose  atomic.Bool
	noAbort  atomic.Bool // escape hatch set via WithNoAbort/SetNoAbort
	quiet    atomic.Bool // set via SetQuiet; implies noAbort for reporting purposes
	upstream MemoryResource
	reporter Reporter

	blocks blockList

	allocationLimit int64 // -1 means unlimited
	nextIndex       int64

	allocations   int64
	deallocations int64

	blocksInUse  int64
	bytesInUse   int64
	maxBlocks    int64
	maxBytes     int64
	totalBlocks  int64
	totalBytes   int64
	mismatches   int64
	boundsErrors int64
	badParams    int64

	lastAllocAddr  unsafe.Pointer
	lastAllocBytes uintptr
	lastAllocAlign uintptr
	lastAllocIndex int64

	lastDeallocAddr  unsafe.Pointer
	lastDeallocBytes uintptr
	lastDeallocAlign uintptr
	lastDeallocIndex int64
}

// Option configures a Resource at construction time.
type Option func(*Resource)

// WithName attaches a diagnostic name, echoed by reporters and panics.
func WithName(name string) Option {
	return func(r *Resource) { r.name = name }
}

// WithVerbose enables the verbose diagnostic logging described in
// SPEC_FULL.md §6 (every allocation and deallocation is reported, not
// just anomalies).
func WithVerbose(verbose bool) Option {
	return func(r *Resource) { r.verbose.Store(verbose) }
}

// WithUpstream overrides the allocator this resource draws memory
// from. Defaults to DefaultUpstream().
func WithUpstream(upstream MemoryResource) Option {
	return func(r *Resource) { r.upstream = upstream }
}

// WithReporter overrides the event sink. Defaults to DefaultReporter().
func WithReporter(reporter Reporter) Option {
	return func(r *Resource) { r.reporter = reporter }
}

// WithNoAbort disables AbortHook for this resource, letting corruption
// conditions fall through to their normal counter bump and reporter
// call without terminating anything. Intended for tests that
// deliberately manufacture corrupted blocks.
func WithNoAbort(disable bool) Option {
	return func(r *Resource) { r.noAbort.Store(disable) }
}

// NewResource constructs a Resource ready to serve allocations.
func NewResource(opts ...Option) *Resource {
	r := &Resource{
		upstream:        DefaultUpstream(),
		reporter:        DefaultReporter(),
		allocationLimit: -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// identity returns the address used to stamp header.owner, so that a
// cross-resource free can be detected even after the freeing resource
// itself has since been reconstructed at a reused address (best
// effort, matching the pointer-identity approach of the original).
func (r *Resource) identity() unsafe.Pointer {
	return unsafe.Pointer(r)
}

// Name returns this resource's diagnostic name.
func (r *Resource) Name() string {
	r.nameMu.RLock()
	defer r.nameMu.RUnlock()
	return r.name
}

// SetName changes the diagnostic name, overriding whatever WithName
// supplied at construction.
func (r *Resource) SetName(name string) {
	r.nameMu.Lock()
	defer r.nameMu.Unlock()
	r.name = name
}

// Verbose reports whether verbose diagnostic logging is enabled.
func (r *Resource) Verbose() bool { return r.verbose.Load() }

// SetVerbose toggles verbose diagnostic logging.
func (r *Resource) SetVerbose(verbose bool) { r.verbose.Store(verbose) }

// NoAbort reports whether this resource has been told to skip
// AbortHook on corruption.
func (r *Resource) NoAbort() bool { return r.noAbort.Load() }

// SetNoAbort toggles whether AbortHook runs on corruption. It does not
// affect Quiet, which implies no-abort independently of this flag
// (see SetQuiet).
func (r *Resource) SetNoAbort(disable bool) { r.noAbort.Store(disable) }

// Quiet reports whether this resource is suppressing anomaly reports
// and aborts.
func (r *Resource) Quiet() bool { return r.quiet.Load() }

// SetQuiet suppresses reporting (and, by extension, AbortHook) for
// invalid-block and leak-at-release events while still counting them:
// mismatches, bounds errors, and bad-deallocate-params are unaffected.
// It leaves NoAbort's own value untouched; the two flags are checked
// independently wherever an abort would otherwise occur.
func (r *Resource) SetQuiet(quiet bool) { r.quiet.Store(quiet) }

// AllocationLimit returns the number of allocations still permitted
// before the next one raises a LimitExceededError, or a negative value
// if unlimited.
func (r *Resource) AllocationLimit() int64 {
	return atomic.LoadInt64(&r.allocationLimit)
}

// SetAllocationLimit sets the allocation-limit countdown. A negative
// value disables the limit.
func (r *Resource) SetAllocationLimit(limit int64) {
	atomic.StoreInt64(&r.allocationLimit, limit)
}

// BlocksInUse, BytesInUse, MaxBlocks, MaxBytes, TotalBlocks, TotalBytes
// and the error counters below are the accessor surface from
// SPEC_FULL.md §6; each mirrors a counter original_source keeps on
// test_resource.
func (r *Resource) BlocksInUse() int64         { return atomic.LoadInt64(&r.blocksInUse) }
func (r *Resource) BytesInUse() int64          { return atomic.LoadInt64(&r.bytesInUse) }
func (r *Resource) MaxBlocks() int64           { return atomic.LoadInt64(&r.maxBlocks) }
func (r *Resource) MaxBytes() int64            { return atomic.LoadInt64(&r.maxBytes) }
func (r *Resource) TotalBlocks() int64         { return atomic.LoadInt64(&r.totalBlocks) }
func (r *Resource) TotalBytes() int64          { return atomic.LoadInt64(&r.totalBytes) }
func (r *Resource) Mismatches() int64          { return atomic.LoadInt64(&r.mismatches) }
func (r *Resource) BoundsErrors() int64        { return atomic.LoadInt64(&r.boundsErrors) }
func (r *Resource) BadDeallocateParams() int64 { return atomic.LoadInt64(&r.badParams) }

// Allocations returns the total number of calls made to Allocate,
// including ones that panicked on a limit or an unsupported alignment.
func (r *Resource) Allocations() int64 { return atomic.LoadInt64(&r.allocations) }

// Deallocations returns the total number of calls made to Deallocate,
// including no-ops on a nil pointer and rejected bad-parameter calls.
func (r *Resource) Deallocations() int64 { return atomic.LoadInt64(&r.deallocations) }

// HasAllocations reports whether any block is currently outstanding.
func (r *Resource) HasAllocations() bool { return r.BlocksInUse() > 0 }

// TotalErrors sums every anomaly counter this resource tracks:
// mismatches, bounds errors, and bad-deallocate-params.
func (r *Resource) TotalErrors() int64 {
	return r.Mismatches() + r.BoundsErrors() + r.BadDeallocateParams()
}

// HasErrors reports whether any anomaly has ever been detected.
func (r *Resource) HasErrors() bool { return r.TotalErrors() > 0 }

// Status summarizes this resource's health in a single value: the
// total error count if any error has been detected, -1 if no error has
// occurred but blocks are still outstanding, or 0 if the resource is
// both error-free and fully released.
func (r *Resource) Status() int64 {
	if total := r.TotalErrors(); total > 0 {
		return total
	}
	if r.HasAllocations() {
		return -1
	}
	return 0
}

// LastAllocatedAddress returns the payload address most recently
// returned by Allocate.
func (r *Resource) LastAllocatedAddress() unsafe.Pointer { return r.lastAllocAddr }

// LastAllocatedBytes returns the byte count passed to the most recent
// Allocate call.
func (r *Resource) LastAllocatedBytes() uintptr { return r.lastAllocBytes }

// LastAllocatedAlignment returns the resolved alignment used by the
// most recent Allocate call.
func (r *Resource) LastAllocatedAlignment() uintptr { return r.lastAllocAlign }

// LastDeallocatedAddress returns the payload address most recently
// passed to Deallocate. Reporters use it to re-derive the header for
// diagnostics; callers must not dereference it after a later
// Deallocate call runs on another goroutine.
func (r *Resource) LastDeallocatedAddress() unsafe.Pointer {
	return r.lastDeallocAddr
}

// LastDeallocatedBytes returns the byte count passed to the most
// recent Deallocate call.
func (r *Resource) LastDeallocatedBytes() uintptr { return r.lastDeallocBytes }

// LastDeallocatedAlignment returns the alignment passed to the most
// recent Deallocate call.
func (r *Resource) LastDeallocatedAlignment() uintptr { return r.lastDeallocAlign }

func (r *Resource) lastAllocatedSnapshot() (unsafe.Pointer, uintptr, uintptr, int64) {
	return r.lastAllocAddr, r.lastAllocBytes, r.lastAllocAlign, r.lastAllocIndex
}

func (r *Resource) lastDeallocatedSnapshot() (unsafe.Pointer, uintptr, uintptr, int64) {
	return r.lastDeallocAddr, r.lastDeallocBytes, r.lastDeallocAlign, r.lastDeallocIndex
}

// visitOutstanding calls fn once per currently-outstanding allocation
// index, in list order. It exists so Reporter implementations outside
// this package can enumerate leaks without this package exposing the
// block list itself. Callers (Print, Release) must already hold r.mu;
// this mirrors the reference implementation, where the equivalent
// list walk inside report_print runs under whatever lock its caller
// is already holding rather than re-acquiring one.
func (r *Resource) visitOutstanding(fn func(index int64)) {
	r.blocks.visit(fn)
}

// Allocate returns bytes bytes of memory aligned to align (0 means
// "natural alignment for this byte count"), wrapped in a guarded
// header recording the request for later validation at Deallocate
// time. It implements MemoryResource and is also this package's
// primary entry point (spec.md §4.2).
//
// Allocate panics with *LimitExceededError if the allocation limit has
// been reached, or if align is not a supported power of two.
func (r *Resource) Allocate(bytes, align uintptr) (unsafe.Pointer, error) {
	resolvedAlign, ok := resolveAlignment(bytes, align)
	if !ok {
		panic(&LimitExceededError{Owner: r, Bytes: bytes, Align: align, Cause: ErrInvalidAlignment})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// allocations counts every call, including the one that is about to
	// be refused for hitting the limit: a goroutine that receives
	// LimitExceededError has still consumed a sequence number.
	r.allocations++

	limit := atomic.LoadInt64(&r.allocationLimit)
	if limit == 0 {
		panic(&LimitExceededError{Owner: r, Bytes: bytes, Align: resolvedAlign, Cause: errAllocationLimitReached})
	}
	if limit > 0 {
		atomic.AddInt64(&r.allocationLimit, -1)
	}

	stride := headerStride(resolvedAlign)
	effAlign := effectiveAlignment(resolvedAlign)
	blockSize := stride + bytes + guardSize

	blockStart, err := r.upstream.Allocate(blockSize, effAlign)
	if err != nil {
		return nil, errors.Wrapf(err, "pmr: allocate %d bytes (align %d) from upstream", bytes, align)
	}

	node, err := r.blocks.pushBack(r.nextIndex, blockStart, blockSize, effAlign, r.upstream)
	if err != nil {
		r.upstream.Deallocate(blockStart, blockSize, effAlign)
		return nil, errors.Wrap(err, "pmr: allocate block-list node")
	}

	head := (*header)(blockStart)
	head.magic = magicAllocated
	head.bytes = bytes
	head.alignment = resolvedAlign
	head.index = r.nextIndex
	head.blockLink = node
	head.owner = r.identity()

	payload := payloadFromHeader(blockStart, resolvedAlign)
	fieldsEnd := unsafe.Pointer(uintptr(blockStart) + headerFieldsSize)
	fillBytes(fieldsEnd, uintptr(payload)-uintptr(fieldsEnd), paddedByte)
	fillBytes(unsafe.Pointer(uintptr(payload)+bytes), guardSize, paddedByte)

	r.nextIndex++
	r.blocksInUse++
	r.bytesInUse += int64(bytes)
	r.totalBlocks++
	r.totalBytes += int64(bytes)
	if r.blocksInUse > r.maxBlocks {
		r.maxBlocks = r.blocksInUse
	}
	if r.bytesInUse > r.maxBytes {
		r.maxBytes = r.bytesInUse
	}

	r.lastAllocAddr, r.lastAllocBytes, r.lastAllocAlign, r.lastAllocIndex = payload, bytes, resolvedAlign, head.index

	if r.verbose.Load() {
		r.reporter.OnAllocation(r)
	}
	return payload, nil
}

// Deallocate returns a block previously obtained from Allocate. It
// scans both guard regions for corruption and validates the header's
// magic number, recorded size, and alignment before handing the block
// back to the upstream allocator; any mismatch bumps a counter, calls
// the reporter, and invokes AbortHook (spec.md §4.3).
func (r *Resource) Deallocate(ptr unsafe.Pointer, bytes, align uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deallocations++
	r.lastDeallocAddr = ptr

	// A nil payload never went through Allocate, so there is no header
	// to recover. bytes == 0 is the documented no-op free; bytes != 0
	// is a caller bug, counted but never dereferenced.
	if ptr == nil {
		if bytes != 0 {
			r.badParams++
			if !r.quiet.Load() {
				r.reporter.OnLog("*** freeing a nil pointer using non-zero size (%d) with alignment (%d). ***\n", bytes, align)
				r.abort()
			}
		} else {
			r.lastDeallocBytes, r.lastDeallocAlign = 0, align
		}
		return
	}

	resolvedAlign, ok := resolveAlignment(bytes, align)
	if !ok {
		resolvedAlign = align
	}
	r.lastDeallocBytes, r.lastDeallocAlign = bytes, resolvedAlign

	head := headerFromPayload(ptr, resolvedAlign)
	blockStart := unsafe.Pointer(head)

	if head.magic != magicAllocated {
		r.mismatches++
		r.lastDeallocIndex = -1
		if !r.quiet.Load() {
			r.reporter.OnInvalidBlock(r, bytes, resolvedAlign, 0, 0)
			r.abort()
		}
		return
	}

	fieldsEnd := unsafe.Pointer(uintptr(blockStart) + headerFieldsSize)
	payload := payloadFromHeader(blockStart, resolvedAlign)
	underrunBy := firstNonPaddedBackward(payload, fieldsEnd)
	overrunBy := firstNonPaddedForward(unsafe.Pointer(uintptr(payload)+head.bytes), guardSize)

	badParams := bytes != head.bytes || resolvedAlign != head.alignment
	wrongOwner := head.owner != nil && head.owner != r.identity()

	r.lastDeallocIndex = head.index

	if badParams || wrongOwner || underrunBy != 0 || overrunBy != 0 {
		if badParams {
			r.badParams++
		}
		if underrunBy != 0 || overrunBy != 0 {
			r.boundsErrors++
		}
		if wrongOwner {
			r.mismatches++
		}
		if !r.quiet.Load() {
			r.reporter.OnInvalidBlock(r, bytes, resolvedAlign, underrunBy, overrunBy)
			r.abort()
		}
		return
	}

	node := head.blockLink
	blockSize := headerStride(resolvedAlign) + head.bytes + guardSize
	effAlign := effectiveAlignment(resolvedAlign)

	head.magic = magicDeallocated
	fillBytes(payload, head.bytes, scribbleByte)

	r.blocks.remove(node)
	r.upstream.Deallocate(unsafe.Pointer(node), blockNodeSize, blockNodeAlign)
	r.upstream.Deallocate(blockStart, blockSize, effAlign)

	r.blocksInUse--
	r.bytesInUse -= int64(bytes)

	if r.verbose.Load() {
		r.reporter.OnDeallocation(r)
	}
}

// abort invokes AbortHook unless this resource was constructed with
// WithNoAbort or SetNoAbort. Quiet resources never reach here: their
// callers check Quiet first and skip straight past both the reporter
// call and the abort.
func (r *Resource) abort() {
	if r.noAbort.Load() {
		return
	}
	AbortHook()
}

// Release returns every block still in use to the upstream allocator
// without running any caller-side cleanup and resets the in-use
// counters to zero; the historical Max*/Total* counters are left
// untouched, since they track high-water marks and lifetime totals
// rather than current state. Unless this resource is Quiet, it reports
// a memory leak first if any block was outstanding (spec.md §4.4). It
// is safe to continue using the resource afterward.
func (r *Resource) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.verbose.Load() {
		r.reporter.OnPrint(r)
	}
	if !r.quiet.Load() {
		r.reporter.OnRelease(r)
	}

	r.blocks.clear(r.upstream)
	r.blocksInUse = 0
	r.bytesInUse = 0
}

// Print writes a formatted status report through this resource's
// reporter (spec.md §4.4, "Print").
func (r *Resource) Print() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reporter.OnPrint(r)
}

// IsEqual implements MemoryResource: two Resources are equal only if
// they are the same instance, matching std::pmr::memory_resource's
// identity-based do_is_equal default.
func (r *Resource) IsEqual(other MemoryResource) bool {
	o, ok := other.(*Resource)
	return ok && o == r
}

var _ MemoryResource = (*Resource)(nil)
