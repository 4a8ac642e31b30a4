package pmr

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
)

// ErrUpstreamExhausted is the sentinel wrapped by any error an
// upstream MemoryResource returns when it cannot satisfy a request.
var ErrUpstreamExhausted = errors.New("pmr: upstream allocation failed")

// MemoryResource is this module's equivalent of std::pmr::memory_resource:
// a minimal allocator abstraction that every Resource both consumes (as
// its upstream) and implements (so resources can be layered).
type MemoryResource interface {
	// Allocate returns a pointer to at least bytes bytes, aligned to
	// align (which is always a power of two here), or an error.
	Allocate(bytes, align uintptr) (unsafe.Pointer, error)
	// Deallocate returns memory previously obtained from Allocate with
	// the same bytes and align.
	Deallocate(ptr unsafe.Pointer, bytes, align uintptr)
	// IsEqual reports whether other refers to the same resource
	// identity as this one. Two distinct *Resource values are never
	// equal; this mirrors std::pmr::memory_resource::is_equal.
	IsEqual(other MemoryResource) bool
}

// mallocFreeResource is the default upstream: a thin page-level
// allocator that over-allocates and hands back a forward-aligned
// interior pointer, the Go analogue of aligned_alloc/_aligned_malloc
// used by original_source's detail::local_memory. Deallocate is a
// bookkeeping no-op: Go's garbage collector reclaims the backing array
// once nothing holds a live pointer into it, so there is no explicit
// "free" to perform (documented in SPEC_FULL.md §10, "Immortalized
// globals" / DESIGN.md).
type mallocFreeResource struct{}

func (mallocFreeResource) Allocate(bytes, align uintptr) (unsafe.Pointer, error) {
	if bytes == 0 {
		bytes = 1
	}
	if align < 1 {
		align = 1
	}
	buf := make([]byte, bytes+align-1)
	base := uintptr(unsafe.Pointer(&buf[0]))
	aligned := roundUp(base, align)
	return unsafe.Pointer(aligned), nil
}

func (mallocFreeResource) Deallocate(_ unsafe.Pointer, _, _ uintptr) {
	// Intentionally empty; see type doc comment.
}

func (r mallocFreeResource) IsEqual(other MemoryResource) bool {
	o, ok := other.(mallocFreeResource)
	return ok && o == r
}

var (
	defaultUpstreamOnce sync.Once
	defaultUpstream     MemoryResource
)

// DefaultUpstream returns the process-wide aligned malloc/free
// resource used by resources constructed without an explicit upstream.
// It is constructed once and lives for the remainder of the process,
// mirroring original_source's detail::local_memory::resource().
func DefaultUpstream() MemoryResource {
	defaultUpstreamOnce.Do(func() {
		defaultUpstream = mallocFreeResource{}
	})
	return defaultUpstream
}
