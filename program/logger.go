package program

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	logger    atomic.Pointer[zap.Logger]
	nopLogger = zap.NewNop()
)

// Logger returns the program loader logger. It is a no-op logger until SetLogger
// is called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nopLogger
}

// SetLogger replaces the program loader logger. A nil logger restores the no-op
// default. It is safe to call while programs load.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
