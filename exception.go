package pmr

// ExceptionTestLoop drives f repeatedly against r's allocation limit,
// starting at 0 and incrementing by one each time r raises a
// LimitExceededError that originates from r itself, until f completes
// an iteration without tripping the limit. r's allocation limit is
// always restored to its original value before ExceptionTestLoop
// returns or re-panics.
//
// Because Go has no exceptions, the source's thrown
// test_resource_exception becomes a panic carrying *LimitExceededError;
// ExceptionTestLoop recovers it, inspects Owner, and either continues
// the loop or re-panics with the original value (see SPEC_FULL.md §4.6,
// §10 "Exceptions as panics").
func ExceptionTestLoop(r *Resource, f func(r *Resource)) {
	original := r.AllocationLimit()

	for trial := int64(0); ; trial++ {
		if runOnce(r, f, trial, original) {
			return
		}
	}
}

// runOnce runs a single trial and reports whether the loop should
// stop (true) because f completed cleanly.
func runOnce(r *Resource, f func(r *Resource), trial, original int64) (done bool) {
	r.SetAllocationLimit(trial)
	defer r.SetAllocationLimit(original)

	var caught *LimitExceededError
	func() {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if lee, ok := rec.(*LimitExceededError); ok {
				caught = lee
				return
			}
			panic(rec)
		}()
		f(r)
		done = true
	}()

	if done {
		return true
	}

	if caught.Owner != r {
		currentLogger().Warnw("limit-exceeded error from unexpected resource",
			"expected", r.Name(), "actual", caught.Owner.Name())
		panic(caught)
	}

	if r.Verbose() {
		currentLogger().Infow("exception test trial absorbed expected failure",
			"resource", r.Name(), "trial", trial, "bytes", caught.Bytes, "align", caught.Align)
	}
	return false
}
