package runtime

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	qir "github.com/wippyai/qir-runtime"
	"github.com/wippyai/qir-runtime/engine"
	"github.com/wippyai/qir-runtime/errors"
	"github.com/wippyai/qir-runtime/lower"
	"github.com/wippyai/qir-runtime/program"
)

// Option configures an Executor.
type Option func(*engine.Config)

// WithInterpreter runs the program on wazero's interpreter instead of
// native code.
func WithInterpreter(enabled bool) Option {
	return func(c *engine.Config) {
		c.Interpreter = enabled
	}
}

// WithMemoryLimitPages caps the program's linear memory.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *engine.Config) {
		c.MemoryLimitPages = pages
	}
}

// WithEngineConfig replaces the whole engine configuration.
func WithEngineConfig(cfg engine.Config) Option {
	return func(c *engine.Config) {
		*c = cfg
	}
}

// activation is the pair of backends of the execution in flight, plus the
// first error a callback raised.
type activation struct {
	quantum qir.QuantumInterface
	result  qir.ResultInterface
	err     error
}

func (a *activation) fail(symbol string, err error) error {
	if a.err == nil {
		var qe *errors.Error
		if !stderrors.As(err, &qe) {
			err = errors.Backend(symbol, err)
		}
		a.err = err
	}
	return a.err
}

// Executor owns a compiled program and runs its entry routine against a
// pair of backends. Bound callbacks dispatch to the backends of the Run in
// progress on the same Executor; at most one Run is in flight at a time.
type Executor struct {
	engine   *engine.Engine
	instance *engine.Instance
	active   atomic.Pointer[activation]
	closed   atomic.Bool

	symbols []engine.Symbol
	attrs   qir.EntryPointAttrs
	flags   qir.ModuleFlags
	source  string
}

// NewExecutor takes ownership of prog, binds the reserved instruction
// symbols and compiles the program. prog is invalid afterwards.
func NewExecutor(ctx context.Context, prog *program.Program, opts ...Option) (*Executor, error) {
	if !prog.Valid() {
		return nil, errors.InvalidInput(errors.PhaseBind, "program handle is invalid or was moved")
	}
	prog = prog.Move()

	var cfg engine.Config
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	e := &Executor{
		attrs:  prog.EntryPointAttrs(),
		flags:  prog.ModuleFlags(),
		source: prog.Source(),
	}

	binder := engine.NewBinder(prog.Module())
	if err := binder.Bind(e.bindings()); err != nil {
		return nil, err
	}

	res, err := lower.Lower(prog.Module(), prog.Entry())
	if err != nil {
		return nil, err
	}

	host, symbols := binder.Resolve(res, e.unresolved)
	e.symbols = symbols

	e.engine = engine.New(ctx, &cfg)
	e.instance, err = e.engine.Load(ctx, res, host)
	if err != nil {
		e.engine.Close(ctx)
		return nil, err
	}

	Logger().Debug("executor ready",
		zap.String("source", e.source),
		zap.String("entry", res.Entry),
		zap.Int("symbols", len(symbols)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return e, nil
}

// bindings returns the instruction table with trampolines tied to e.
func (e *Executor) bindings() []engine.Binding {
	out := make([]engine.Binding, len(instructions))
	for i, in := range instructions {
		out[i] = engine.Binding{Name: in.name, Sig: in.sig, Func: e.trampoline(in)}
	}
	return out
}

func (e *Executor) trampoline(in instruction) engine.HostFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		a := e.activeOrPanic(in.name)
		if err := in.call(a, mod, stack); err != nil {
			panic(a.fail(in.name, err))
		}
	}
}

// unresolved returns the stub for a declaration with no binding.
func (e *Executor) unresolved(name string) engine.HostFunc {
	return func(context.Context, api.Module, []uint64) {
		a := e.activeOrPanic(name)
		panic(a.fail(name, errors.UnresolvedSymbol(name)))
	}
}

func (e *Executor) activeOrPanic(symbol string) *activation {
	a := e.active.Load()
	if a == nil {
		panic(errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Symbol(symbol).
			Detail("callback invoked with no active backend").
			Build())
	}
	return a
}

// Run sets up the quantum backend, calls the entry routine once and tears
// the backend down. A Run issued while another is in flight on the same
// Executor fails with a reentrancy error and leaves the other untouched.
func (e *Executor) Run(ctx context.Context, quantum qir.QuantumInterface, result qir.ResultInterface) (err error) {
	if quantum == nil || result == nil {
		return errors.InvalidInput(errors.PhaseRuntime, "nil backend")
	}
	if e.closed.Load() {
		return errors.InvalidInput(errors.PhaseRuntime, "executor is closed")
	}

	act := &activation{quantum: quantum, result: result}
	if !e.active.CompareAndSwap(nil, act) {
		return errors.Reentrant()
	}
	defer e.active.Store(nil)

	if err := quantum.SetUp(e.attrs); err != nil {
		return errors.Backend("set_up", err)
	}
	defer func() {
		if tdErr := quantum.TearDown(); tdErr != nil && err == nil {
			err = errors.Backend("tear_down", tdErr)
		}
	}()

	start := time.Now()
	callErr := e.instance.Call(ctx)
	Logger().Debug("entry returned",
		zap.String("entry", e.instance.Entry()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("failed", callErr != nil),
	)
	if act.err != nil {
		return act.err
	}
	if callErr != nil {
		return errors.Trap(e.instance.Entry(), callErr)
	}
	return nil
}

// Running reports whether a Run is in flight.
func (e *Executor) Running() bool {
	return e.active.Load() != nil
}

// Bindings lists every declaration the entry routine can reach and whether
// it resolved to an instruction callback.
func (e *Executor) Bindings() []engine.Symbol {
	out := make([]engine.Symbol, len(e.symbols))
	copy(out, e.symbols)
	return out
}

// EntryPoint returns the name of the entry routine.
func (e *Executor) EntryPoint() string {
	return e.instance.Entry()
}

// EntryPointAttrs returns the entry routine's resource requirements.
func (e *Executor) EntryPointAttrs() qir.EntryPointAttrs {
	return e.attrs
}

// ModuleFlags returns the program's QIR module flags.
func (e *Executor) ModuleFlags() qir.ModuleFlags {
	return e.flags
}

// Source returns the identifier the program was loaded from.
func (e *Executor) Source() string {
	return e.source
}

// Close releases the compiled program. Run fails afterwards.
func (e *Executor) Close(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := e.instance.Close(ctx)
	if cerr := e.engine.Close(ctx); err == nil {
		err = cerr
	}
	return err
}
