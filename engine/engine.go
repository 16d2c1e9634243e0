package engine

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/qir-runtime/errors"
	"github.com/wippyai/qir-runtime/lower"
	"github.com/wippyai/qir-runtime/wasm"
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means wazero's default.
	MemoryLimitPages uint32

	// Interpreter runs programs on wazero's interpreter instead of compiling
	// them to native code.
	Interpreter bool
}

// Engine compiles lowered programs and runs them on a private wazero
// runtime. Nothing but the program's own host module is instantiated in
// that runtime, so imports can only resolve to bound callbacks.
type Engine struct {
	runtime wazero.Runtime
	cfg     Config
}

// New creates an engine. A nil cfg uses defaults.
func New(ctx context.Context, cfg *Config) *Engine {
	var c Config
	if cfg != nil {
		c = *cfg
	}

	var runtimeCfg wazero.RuntimeConfig
	if c.Interpreter {
		runtimeCfg = wazero.NewRuntimeConfigInterpreter()
	} else {
		runtimeCfg = wazero.NewRuntimeConfig()
	}
	if c.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(c.MemoryLimitPages)
	}

	return &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cfg:     c,
	}
}

// Close releases the runtime and every module instantiated in it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Load compiles a lowered program, instantiates a host module exporting
// host[name] for each of its imports, then instantiates the program.
// Every import must have a host function.
func (e *Engine) Load(ctx context.Context, res *lower.Result, host map[string]HostFunc) (*Instance, error) {
	start := time.Now()

	if len(res.Imports) > 0 {
		builder := e.runtime.NewHostModuleBuilder(lower.ImportModule)
		for _, imp := range res.Imports {
			fn, ok := host[imp.Name()]
			if !ok {
				return nil, errors.New(errors.PhaseBind, errors.KindUnresolvedSymbol).
					Symbol(imp.Name()).
					Detailf("no host function for import '%s'", imp.Name()).
					Build()
			}
			builder = builder.NewFunctionBuilder().
				WithGoModuleFunction(api.GoModuleFunc(fn), valueTypes(imp.Type.Params), valueTypes(imp.Type.Results)).
				WithName(imp.Name()).
				Export(imp.Name())
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return nil, errors.Instantiation("instantiate host module", err)
		}
		Logger().Debug("host module instantiated", zap.Int("imports", len(res.Imports)))
	}

	compiled, err := e.runtime.CompileModule(ctx, res.Binary())
	if err != nil {
		return nil, errors.Instantiation("compile program", err)
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		compiled.Close(ctx)
		return nil, errors.Instantiation("instantiate program", err)
	}

	entry := mod.ExportedFunction(res.Entry)
	if entry == nil {
		mod.Close(ctx)
		compiled.Close(ctx)
		return nil, errors.Instantiation("entry routine '"+res.Entry+"' not exported", nil)
	}

	Logger().Debug("program compiled",
		zap.String("entry", res.Entry),
		zap.Int("imports", len(res.Imports)),
		zap.Int("funcs", len(res.Funcs)),
		zap.Uint32("pages", res.Pages),
		zap.Bool("interpreter", e.cfg.Interpreter),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Instance{
		module:   mod,
		compiled: compiled,
		entry:    entry,
		name:     res.Entry,
	}, nil
}

func valueTypes(types []wasm.ValType) []api.ValueType {
	out := make([]api.ValueType, len(types))
	for i, t := range types {
		out[i] = api.ValueType(t)
	}
	return out
}

// Instance is an instantiated program.
type Instance struct {
	module   api.Module
	compiled wazero.CompiledModule
	entry    api.Function
	name     string
}

// Entry returns the entry routine's name.
func (i *Instance) Entry() string {
	return i.name
}

// Call invokes the entry routine with no arguments and discards its
// results.
func (i *Instance) Call(ctx context.Context) error {
	_, err := i.entry.Call(ctx)
	return err
}

// Memory returns the program's linear memory.
func (i *Instance) Memory() api.Memory {
	return i.module.Memory()
}

// Close releases the program instance.
func (i *Instance) Close(ctx context.Context) error {
	var firstErr error
	if i.module != nil {
		firstErr = i.module.Close(ctx)
		i.module = nil
	}
	if i.compiled != nil {
		if err := i.compiled.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		i.compiled = nil
	}
	i.entry = nil
	return firstErr
}
