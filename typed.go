package pmr

import "unsafe"

// New allocates a single zero-valued T from r, the Go analogue of
// original_source's polymorphic_allocator<T>::new_object. Panics with
// *LimitExceededError under the same conditions as Allocate.
func New[T any](r *Resource) *T {
	var zero T
	size := unsafe.Sizeof(zero)
	align := uintptr(unsafe.Alignof(zero))
	ptr, err := r.Allocate(size, align)
	if err != nil {
		panic(&LimitExceededError{Owner: r, Bytes: size, Align: align, Cause: err})
	}
	return (*T)(ptr)
}

// NewSlice allocates a slice of n contiguous, zero-valued Ts from r.
// n must be nonnegative; NewSlice(r, 0) returns an empty, non-nil
// slice without touching r, so DeleteSlice on the result is a no-op
// rather than trying to free a block that was never requested.
func NewSlice[T any](r *Resource, n int) []T {
	if n == 0 {
		return []T{}
	}
	var zero T
	elemSize := unsafe.Sizeof(zero)
	align := uintptr(unsafe.Alignof(zero))
	total := elemSize * uintptr(n)
	ptr, err := r.Allocate(total, align)
	if err != nil {
		panic(&LimitExceededError{Owner: r, Bytes: total, Align: align, Cause: err})
	}
	return unsafe.Slice((*T)(ptr), n)
}

// Delete returns a single T previously obtained from New back to r.
func Delete[T any](r *Resource, p *T) {
	var zero T
	size := unsafe.Sizeof(zero)
	align := uintptr(unsafe.Alignof(zero))
	r.Deallocate(unsafe.Pointer(p), size, align)
}

// DeleteSlice returns a slice previously obtained from NewSlice back
// to r. The slice's length must match the one it was allocated with.
func DeleteSlice[T any](r *Resource, s []T) {
	var zero T
	elemSize := unsafe.Sizeof(zero)
	align := uintptr(unsafe.Alignof(zero))
	total := elemSize * uintptr(len(s))
	if len(s) == 0 {
		return
	}
	r.Deallocate(unsafe.Pointer(&s[0]), total, align)
}
