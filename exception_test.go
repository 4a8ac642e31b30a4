package pmr_test

import (
	"testing"

	"github.com/pavanmanishd/pmr"
)

func TestExceptionTestLoopExhaustsEveryLimit(t *testing.T) {
	r := pmr.NewResource(pmr.WithReporter(pmr.NullReporter{}))

	var trials int
	pmr.ExceptionTestLoop(r, func(r *pmr.Resource) {
		trials++
		ptr1, _ := r.Allocate(16, 0)
		ptr2, _ := r.Allocate(16, 0)
		r.Deallocate(ptr1, 16, 0)
		r.Deallocate(ptr2, 16, 0)
	})

	if trials != 3 {
		t.Fatalf("expected 3 trials (limits 0, 1, 2 trip; limit 2 succeeds with exactly 2 allocations), got %d", trials)
	}
	if r.AllocationLimit() >= 0 {
		t.Errorf("allocation limit should be restored to unlimited, got %d", r.AllocationLimit())
	}
}

func TestExceptionTestLoopPropagatesUnrelatedPanic(t *testing.T) {
	r := pmr.NewResource(pmr.WithReporter(pmr.NullReporter{}))

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected the unrelated panic to propagate")
		}
		if s, ok := rec.(string); !ok || s != "boom" {
			t.Fatalf("unexpected recovered value: %#v", rec)
		}
	}()

	pmr.ExceptionTestLoop(r, func(r *pmr.Resource) {
		panic("boom")
	})
}
