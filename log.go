package pmr

import (
	"sync"

	"go.uber.org/zap"
)

// logger is the package-internal structured logger, distinct from the
// Reporter contract (§4.8 / §7.1 of SPEC_FULL.md): it covers
// conditions that are not part of any resource's user-facing event
// stream, such as singleton construction and file-reporter I/O
// failures.
var (
	loggerMu sync.RWMutex
	logger   = mustNewLogger()
)

func mustNewLogger() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar().Named("pmr")
}

// SetLogger replaces the package-internal structured logger. Embedding
// applications that already run a zap logger should call this once at
// startup so pmr's internal diagnostics land in the same sink.
func SetLogger(l *zap.SugaredLogger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	logger = l
}

func currentLogger() *zap.SugaredLogger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}
