package pmr

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// osExit is os.Exit behind a variable so AbortHook's default value is
// itself replaceable in tests without relying on os.Exit directly.
var osExit = os.Exit

// ErrInvalidAlignment is the sentinel cause wrapped (conceptually) by a
// LimitExceededError raised because the requested alignment was zero
// outside the natural-alignment rule, not a power of two, or exceeded
// maxAlignment. It exists purely so callers can distinguish that cause
// from a genuine allocation-limit trip via errors.Is, even though both
// are surfaced as the same panic type (see SPEC_FULL.md §10).
var ErrInvalidAlignment = errors.New("pmr: invalid or unsupported alignment")

// LimitExceededError is raised (via panic) when a Resource's
// allocation limit reaches zero, or when an allocation request's
// alignment cannot be served. It carries enough information for
// ExceptionTestLoop to tell "this resource's injected failure" apart
// from an unrelated panic.
type LimitExceededError struct {
	Owner *Resource
	Bytes uintptr
	Align uintptr
	Cause error
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("pmr: allocation limit exceeded for resource %q (bytes=%d, align=%d): %v",
		e.Owner.Name(), e.Bytes, e.Align, e.Cause)
}

func (e *LimitExceededError) Unwrap() error {
	return e.Cause
}

var errAllocationLimitReached = errors.New("pmr: allocation limit reached")
