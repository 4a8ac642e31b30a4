package pmr_test

import (
	"testing"

	"github.com/pavanmanishd/pmr"
)

type typedTestStruct struct {
	A int64
	B string
	C []int
}

func TestNewZeroesAndRoundTrips(t *testing.T) {
	r := pmr.NewResource(pmr.WithReporter(pmr.NullReporter{}))

	p := pmr.New[typedTestStruct](r)
	if p.A != 0 || p.B != "" || p.C != nil {
		t.Fatal("New should return a zero-valued T")
	}
	p.A = 7
	p.B = "hi"
	if p.A != 7 || p.B != "hi" {
		t.Fatal("could not write through the returned pointer")
	}
	pmr.Delete(r, p)
	if r.BlocksInUse() != 0 {
		t.Fatalf("BlocksInUse after Delete: got %d, want 0", r.BlocksInUse())
	}
}

func TestNewSliceAndDeleteSlice(t *testing.T) {
	r := pmr.NewResource(pmr.WithReporter(pmr.NullReporter{}))

	s := pmr.NewSlice[int32](r, 50)
	if len(s) != 50 {
		t.Fatalf("len(s): got %d, want 50", len(s))
	}
	for i := range s {
		s[i] = int32(i)
	}
	for i, v := range s {
		if v != int32(i) {
			t.Fatalf("s[%d] = %d, want %d", i, v, i)
		}
	}
	pmr.DeleteSlice(r, s)
	if r.BlocksInUse() != 0 {
		t.Fatalf("BlocksInUse after DeleteSlice: got %d, want 0", r.BlocksInUse())
	}
}

func TestNewSliceZero(t *testing.T) {
	r := pmr.NewResource(pmr.WithReporter(pmr.NullReporter{}))
	s := pmr.NewSlice[int](r, 0)
	if s == nil || len(s) != 0 {
		t.Fatalf("NewSlice(r, 0): got %v, want non-nil empty slice", s)
	}
	pmr.DeleteSlice(r, s) // must be a no-op, not a panic
}
