package lower

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	logger    atomic.Pointer[zap.Logger]
	nopLogger = zap.NewNop()
)

// Logger returns the lowering logger. It is a no-op logger until SetLogger
// is called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nopLogger
}

// SetLogger replaces the lowering logger. A nil logger restores the no-op
// default. It is safe to call while programs are lowered.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
