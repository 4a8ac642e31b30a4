package pmr

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"unsafe"
)

// Reporter is the pluggable sink for resource lifecycle events
// (spec.md §4.8 / SPEC_FULL.md §7). A Resource never writes directly
// to a stream; it calls back into whatever Reporter it was given.
// Grounded on original_source's test_resource_reporter hierarchy.
type Reporter interface {
	OnAllocation(r *Resource)
	OnDeallocation(r *Resource)
	OnRelease(r *Resource)
	OnInvalidBlock(r *Resource, deallocatedBytes, deallocatedAlign, underrunBy, overrunBy uintptr)
	OnPrint(r *Resource)
	OnLog(format string, args ...any)
}

// NullReporter discards every event. Useful for benchmarks and tests
// that don't want reporter I/O on the hot path.
type NullReporter struct{}

func (NullReporter) OnAllocation(*Resource)   {}
func (NullReporter) OnDeallocation(*Resource) {}
func (NullReporter) OnRelease(*Resource)      {}
func (NullReporter) OnInvalidBlock(*Resource, uintptr, uintptr, uintptr, uintptr) {}
func (NullReporter) OnPrint(*Resource)        {}
func (NullReporter) OnLog(string, ...any)     {}

// ConsoleReporter formats plain-text, line-oriented events to an
// io.Writer (os.Stdout by default). Its exact wording is a contract of
// this default implementation, not of the core Resource.
type ConsoleReporter struct {
	w io.Writer
}

// NewConsoleReporter returns a ConsoleReporter writing to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func plural(n uintptr) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func resourceLabel(r *Resource) string {
	if r.Name() == "" {
		return "pmr resource"
	}
	return fmt.Sprintf("pmr resource [%s]", r.Name())
}

func (c *ConsoleReporter) OnAllocation(r *Resource) {
	addr, bytes, align, index := r.lastAllocatedSnapshot()
	fmt.Fprintf(c.w, "%s [%d]: allocated %d byte%s (aligned %d) at %p.\n",
		resourceLabel(r), index, bytes, plural(bytes), align, addr)
}

func (c *ConsoleReporter) OnDeallocation(r *Resource) {
	addr, bytes, align, index := r.lastDeallocatedSnapshot()
	fmt.Fprintf(c.w, "%s [%d]: deallocated %d byte%s (aligned %d) at %p.\n",
		resourceLabel(r), index, bytes, plural(bytes), align, addr)
}

func (c *ConsoleReporter) OnRelease(r *Resource) {
	if !r.HasAllocations() {
		return
	}
	fmt.Fprintf(c.w, "MEMORY_LEAK from %s:\n   Number of blocks in use = %d\n   Number of bytes in use = %d\n",
		resourceLabel(r), r.BlocksInUse(), r.BytesInUse())
}

func (c *ConsoleReporter) OnInvalidBlock(r *Resource, deallocatedBytes, deallocatedAlign, underrunBy, overrunBy uintptr) {
	payload := r.LastDeallocatedAddress()
	head := headerFromPayload(payload, deallocatedAlign)
	blockStart := unsafe.Pointer(head)

	switch {
	case head.magic != magicAllocated && head.magic != magicDeallocated:
		fmt.Fprintf(c.w, "*** invalid magic number 0x%08x at address %p. ***\n", head.magic, payload)
	case head.magic == magicDeallocated:
		fmt.Fprintf(c.w, "*** deallocating previously deallocated memory at %p. ***\n", payload)
	default:
		if deallocatedBytes != head.bytes {
			fmt.Fprintf(c.w, "*** freeing segment at %p using wrong size (%d vs. %d). ***\n", payload, deallocatedBytes, head.bytes)
		}
		if deallocatedAlign != head.alignment {
			fmt.Fprintf(c.w, "*** freeing segment at %p using wrong alignment (%d vs. %d). ***\n", payload, deallocatedAlign, head.alignment)
		}
		if head.owner != nil && head.owner != r.identity() {
			fmt.Fprintf(c.w, "*** freeing segment at %p from wrong resource. ***\n", payload)
		}
		if underrunBy != 0 {
			fmt.Fprintf(c.w, "*** memory corrupted at %d bytes before %d byte segment at %p. ***\n", underrunBy, head.bytes, payload)
			fieldsEnd := unsafe.Pointer(uintptr(blockStart) + headerFieldsSize)
			padLen := uintptr(payload) - uintptr(fieldsEnd)
			fmt.Fprint(c.w, "Pad area before user segment:\n")
			fmt.Fprint(c.w, dumpBytes(fieldsEnd, padLen))
		}
		if overrunBy != 0 {
			fmt.Fprintf(c.w, "*** memory corrupted at %d bytes after %d byte segment at %p. ***\n", overrunBy, head.bytes, payload)
			fmt.Fprint(c.w, "Pad area after user segment:\n")
			fmt.Fprint(c.w, dumpBytes(unsafe.Pointer(uintptr(payload)+head.bytes), guardSize))
		}
	}

	fmt.Fprint(c.w, "Header + Padding:\n")
	fmt.Fprint(c.w, dumpBytes(blockStart, uintptr(payload)-uintptr(blockStart)))
	fmt.Fprint(c.w, "User segment:\n")
	dumpLen := head.bytes
	if dumpLen > 64 {
		dumpLen = 64
	}
	fmt.Fprint(c.w, dumpBytes(payload, dumpLen))
}

func (c *ConsoleReporter) OnPrint(r *Resource) {
	title := "STATE"
	if r.Name() != "" {
		title = r.Name() + " STATE"
	}
	fmt.Fprintf(c.w, "\n======================================================\n")
	fmt.Fprintf(c.w, "  PMR RESOURCE %s\n", title)
	fmt.Fprintf(c.w, "------------------------------------------------------\n")
	fmt.Fprintf(c.w, "        Category    Blocks          Bytes\n")
	fmt.Fprintf(c.w, "        --------    ------          -----\n")
	fmt.Fprintf(c.w, "          IN USE    %-16d%d\n", r.BlocksInUse(), r.BytesInUse())
	fmt.Fprintf(c.w, "             MAX    %-16d%d\n", r.MaxBlocks(), r.MaxBytes())
	fmt.Fprintf(c.w, "           TOTAL    %-16d%d\n", r.TotalBlocks(), r.TotalBytes())
	fmt.Fprintf(c.w, "      MISMATCHES    %d\n", r.Mismatches())
	fmt.Fprintf(c.w, "   BOUNDS ERRORS    %d\n", r.BoundsErrors())
	fmt.Fprintf(c.w, "   PARAM. ERRORS    %d\n", r.BadDeallocateParams())
	fmt.Fprintf(c.w, "--------------------------------------------------\n")

	var indices []int64
	r.visitOutstanding(func(index int64) { indices = append(indices, index) })
	if len(indices) > 0 {
		fmt.Fprintf(c.w, " Indices of Outstanding Memory Allocations:\n ")
		for i, idx := range indices {
			fmt.Fprintf(c.w, "  %d", idx)
			if (i+1)%8 == 0 {
				fmt.Fprintf(c.w, "\n ")
			}
		}
		fmt.Fprintln(c.w)
	}
}

func (c *ConsoleReporter) OnLog(format string, args ...any) {
	fmt.Fprintf(c.w, format, args...)
}

// dumpBytes renders a 16-byte-per-line hex dump starting at start,
// matching original_source's report_formater::mem2str layout closely
// enough to be recognizable in side-by-side output.
func dumpBytes(start unsafe.Pointer, n uintptr) string {
	if n == 0 {
		return ""
	}
	s := unsafe.Slice((*byte)(start), int(n))
	var out []byte
	for i := 0; i < len(s); i += 16 {
		end := i + 16
		if end > len(s) {
			end = len(s)
		}
		out = append(out, fmt.Sprintf("  %p: ", unsafe.Pointer(uintptr(start)+uintptr(i)))...)
		for _, b := range s[i:end] {
			out = append(out, fmt.Sprintf("%02x ", b)...)
		}
		out = append(out, '\n')
	}
	return string(out)
}

// reporterBox exists only so defaultReporter can hold values of
// varying concrete Reporter implementations: atomic.Value requires
// every Store to carry the same concrete type, which a bare Reporter
// interface value cannot guarantee once callers alternate between
// NullReporter, *ConsoleReporter, and *FileReporter.
type reporterBox struct {
	r Reporter
}

var defaultReporter atomic.Value // holds *reporterBox

func init() {
	defaultReporter.Store(&reporterBox{r: Reporter(NewConsoleReporter(os.Stdout))})
}

// DefaultReporter returns the current process-wide default reporter.
func DefaultReporter() Reporter {
	if v, ok := defaultReporter.Load().(*reporterBox); ok && v != nil && v.r != nil {
		return v.r
	}
	return NullReporter{}
}

// SetDefaultReporter installs reporter as the process-wide default,
// returning the previous one. Passing nil installs a fresh
// ConsoleReporter writing to os.Stdout, matching original_source's
// set_default_test_resource_reporter(nullptr) behavior.
func SetDefaultReporter(reporter Reporter) Reporter {
	previous := DefaultReporter()
	if reporter == nil {
		reporter = NewConsoleReporter(os.Stdout)
	}
	defaultReporter.Store(&reporterBox{r: reporter})
	return previous
}
