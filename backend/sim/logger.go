package sim

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	logger    atomic.Pointer[zap.Logger]
	nopLogger = zap.NewNop()
)

// Logger returns the simulator logger. It is a no-op logger until SetLogger
// is called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nopLogger
}

// SetLogger replaces the simulator logger. A nil logger restores the no-op
// default. It is safe to call while simulators run.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
