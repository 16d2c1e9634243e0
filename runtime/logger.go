package runtime

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	logger    atomic.Pointer[zap.Logger]
	nopLogger = zap.NewNop()
)

// Logger returns the executor logger. It is a no-op logger until SetLogger
// is called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nopLogger
}

// SetLogger replaces the executor logger. A nil logger restores the no-op
// default. It is safe to call while executors run.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
