package program

import (
	"strconv"

	"go.uber.org/zap"

	qir "github.com/wippyai/qir-runtime"
	"github.com/wippyai/qir-runtime/errors"
	"github.com/wippyai/qir-runtime/ll"
	"github.com/wippyai/qir-runtime/ll/ast"
)

// Option configures entry point resolution.
type Option func(*options)

type options struct {
	entry string
}

// WithEntryPoint selects the entry routine by name instead of scanning for
// the entry_point attribute.
func WithEntryPoint(name string) Option {
	return func(o *options) {
		o.entry = name
	}
}

// Program owns a parsed module and its resolved entry routine.
//
// A Program is move-only: Move transfers ownership and leaves the source
// invalid. Module and Entry panic on an invalid Program.
type Program struct {
	mod    *ast.Module
	entry  *ast.Func
	source string
	attrs  qir.EntryPointAttrs
	flags  qir.ModuleFlags
}

// Load reads, parses and resolves the program at path.
func Load(path string, opts ...Option) (*Program, error) {
	mod, err := ll.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return New(path, mod, opts...)
}

// Parse parses and resolves an in-memory program. The name identifies the
// source in diagnostics.
func Parse(name string, src []byte, opts ...Option) (*Program, error) {
	mod, err := ll.Parse(name, src)
	if err != nil {
		return nil, err
	}
	return New(name, mod, opts...)
}

// New resolves the entry routine of an already parsed module and takes
// ownership of it.
func New(source string, mod *ast.Module, opts ...Option) (*Program, error) {
	if mod == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil module")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	entry, err := resolveEntry(source, mod, o.entry)
	if err != nil {
		return nil, err
	}
	attrs, err := entryPointAttrs(source, entry)
	if err != nil {
		return nil, err
	}

	p := &Program{
		mod:    mod,
		entry:  entry,
		source: source,
		attrs:  attrs,
		flags:  moduleFlags(mod),
	}

	Logger().Debug("program loaded",
		zap.String("source", source),
		zap.String("entry", entry.Name),
		zap.Uint64("qubits", attrs.RequiredNumQubits),
		zap.Uint64("results", attrs.RequiredNumResults),
		zap.Int("funcs", len(mod.Funcs)),
	)
	return p, nil
}

func resolveEntry(source string, mod *ast.Module, name string) (*ast.Func, error) {
	if name != "" {
		f := mod.Func(name)
		if f == nil {
			return nil, errors.EntryNotFound(source, name)
		}
		if f.IsDeclaration() {
			return nil, errors.EntryNotDefined(source, name)
		}
		return f, nil
	}

	found := mod.FuncsWithAttr(qir.AttrEntryPoint)
	switch len(found) {
	case 0:
		return nil, errors.NoEntryPoint(source)
	case 1:
		if found[0].IsDeclaration() {
			return nil, errors.EntryNotDefined(source, found[0].Name)
		}
		return found[0], nil
	}
	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.Name
	}
	return nil, errors.AmbiguousEntryPoint(source, names)
}

func entryPointAttrs(source string, entry *ast.Func) (qir.EntryPointAttrs, error) {
	var attrs qir.EntryPointAttrs
	var err error

	attrs.RequiredNumQubits, err = sizeAttr(source, entry, qir.AttrRequiredNumQubits, qir.AttrLegacyNumQubits)
	if err != nil {
		return attrs, err
	}
	attrs.RequiredNumResults, err = sizeAttr(source, entry, qir.AttrRequiredNumResults, qir.AttrLegacyNumResults)
	if err != nil {
		return attrs, err
	}
	attrs.OutputLabelingSchema, _ = entry.Attrs.Get(qir.AttrOutputLabelingSchema)
	attrs.Profiles, _ = entry.Attrs.Get(qir.AttrProfiles)
	return attrs, nil
}

// sizeAttr reads the first present key as an unsigned integer. Absent
// attributes read as zero.
func sizeAttr(source string, entry *ast.Func, keys ...string) (qir.SizeType, error) {
	for _, key := range keys {
		v, ok := entry.Attrs.Get(key)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
				Source(source).
				Symbol(entry.Name).
				Detailf("attribute %q has non-integer value %q", key, v).
				Cause(err).
				Build()
		}
		return n, nil
	}
	return 0, nil
}

func moduleFlags(mod *ast.Module) qir.ModuleFlags {
	raw := mod.ModuleFlags()
	return qir.ModuleFlags{
		MajorVersion:            raw[qir.FlagMajorVersion].Int,
		MinorVersion:            raw[qir.FlagMinorVersion].Int,
		DynamicQubitManagement:  raw[qir.FlagDynamicQubitManagement].Bool(),
		DynamicResultManagement: raw[qir.FlagDynamicResultManagement].Bool(),
	}
}

// Valid reports whether the program still owns its module.
func (p *Program) Valid() bool {
	return p != nil && p.mod != nil && p.entry != nil
}

// Move transfers ownership to a new Program. The receiver becomes invalid.
func (p *Program) Move() *Program {
	p.mustBeValid()
	moved := *p
	*p = Program{}
	return &moved
}

// Module returns the owned module.
func (p *Program) Module() *ast.Module {
	p.mustBeValid()
	return p.mod
}

// Entry returns the resolved entry routine.
func (p *Program) Entry() *ast.Func {
	p.mustBeValid()
	return p.entry
}

// Source returns the source identifier the program was loaded from.
func (p *Program) Source() string {
	return p.source
}

// EntryPointAttrs returns the resource requirements of the entry routine.
func (p *Program) EntryPointAttrs() qir.EntryPointAttrs {
	return p.attrs
}

// ModuleFlags returns the QIR module flags.
func (p *Program) ModuleFlags() qir.ModuleFlags {
	return p.flags
}

func (p *Program) mustBeValid() {
	if !p.Valid() {
		panic("program: use of invalid or moved program")
	}
}
