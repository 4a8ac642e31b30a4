package pmr

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileReporterOptions configures a FileReporter's rotation policy,
// passed straight through to lumberjack.Logger.
type FileReporterOptions struct {
	// Path is the log file path. Required.
	Path string
	// MaxSizeMB is the size in megabytes a log file reaches before it
	// gets rotated. Defaults to 100 if zero.
	MaxSizeMB int
	// MaxBackups is the number of rotated files to retain. Zero keeps
	// all of them.
	MaxBackups int
	// MaxAgeDays is the number of days to retain rotated files. Zero
	// disables age-based cleanup.
	MaxAgeDays int
	// Compress gzip-compresses rotated files.
	Compress bool
}

// FileReporter wraps a ConsoleReporter's formatting over a rotating
// log file, for long-running processes that want a persistent record
// of allocation anomalies rather than a scrollback-only stream.
// Grounded on SPEC_FULL.md §7.2's rotating-file reporter requirement.
type FileReporter struct {
	mu     sync.Mutex
	inner  *ConsoleReporter
	file   *lumberjack.Logger
	closed bool
}

// NewFileReporter opens (or creates) the log file named by opts.Path
// and returns a FileReporter writing to it.
func NewFileReporter(opts FileReporterOptions) (*FileReporter, error) {
	if opts.Path == "" {
		return nil, errors.New("pmr: FileReporterOptions.Path is required")
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	file := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return &FileReporter{
		inner: NewConsoleReporter(file),
		file:  file,
	}, nil
}

func (f *FileReporter) OnAllocation(r *Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.inner.OnAllocation(r)
}

func (f *FileReporter) OnDeallocation(r *Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.inner.OnDeallocation(r)
}

func (f *FileReporter) OnRelease(r *Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.inner.OnRelease(r)
}

// OnInvalidBlock, like every other event method here, silently drops
// the event once the file is closed rather than panicking: a
// FileReporter kept alive past its log file's lifetime must not take
// down the resource using it.
func (f *FileReporter) OnInvalidBlock(r *Resource, deallocatedBytes, deallocatedAlign, underrunBy, overrunBy uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.inner.OnInvalidBlock(r, deallocatedBytes, deallocatedAlign, underrunBy, overrunBy)
}

func (f *FileReporter) OnPrint(r *Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.inner.OnPrint(r)
}

func (f *FileReporter) OnLog(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	fmt.Fprintf(f.file, format, args...)
}

// Rotate forces an immediate log rotation, matching lumberjack's own
// Rotate method. Rotating a closed FileReporter is a no-op.
func (f *FileReporter) Rotate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	return errors.Wrap(f.file.Rotate(), "pmr: rotate log file")
}

// Close flushes and closes the underlying log file. Once closed, every
// Reporter method on f becomes a silent no-op rather than an error: a
// resource holding a reference to a closed FileReporter keeps running
// normally, it simply stops producing log output.
func (f *FileReporter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return errors.Wrap(f.file.Close(), "pmr: close log file")
}

var _ Reporter = (*FileReporter)(nil)
