package lower

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"fortio.org/safecast"
	"go.uber.org/zap"

	"github.com/wippyai/qir-runtime/errors"
	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/wasm"
)

// ImportModule is the WebAssembly module name every external routine is
// imported from.
const ImportModule = "qir"

// MemoryExport is the export name of the linear memory holding globals.
const MemoryExport = "memory"

// dataBase is the first address handed to a global. Lower addresses stay
// unused so that null never aliases a global.
const dataBase = 8

const pageSize = 65536

// Import is an external routine the lowered module calls.
type Import struct {
	Func  *ast.Func
	Type  wasm.FuncType
	Index uint32
}

// Name returns the import's symbol name.
func (i Import) Name() string { return i.Func.Name }

// Result is a lowered program.
type Result struct {
	Module  *wasm.Module
	Globals map[string]uint32 // global name to address
	Entry   string            // export name of the entry routine
	Imports []Import          // in function index order
	Funcs   []string          // lowered routine definitions, entry first
	Pages   uint32
}

// Binary encodes the lowered module.
func (r *Result) Binary() []byte {
	return r.Module.Encode()
}

// Import returns the import for a symbol.
func (r *Result) Import(name string) (Import, bool) {
	for _, imp := range r.Imports {
		if imp.Func.Name == name {
			return imp, true
		}
	}
	return Import{}, false
}

type lowerer struct {
	mod     *ast.Module
	layout  layout
	globals map[string]uint32
	funcIdx map[string]uint32
	out     *wasm.Module
	source  string
}

// Lower translates entry and every routine reachable from it into a
// WebAssembly module. Reachable declarations become imports from
// ImportModule; the entry is exported under its own name.
func Lower(mod *ast.Module, entry *ast.Func) (*Result, error) {
	l := &lowerer{
		mod:     mod,
		layout:  layout{named: mod.NamedTypes},
		globals: make(map[string]uint32),
		funcIdx: make(map[string]uint32),
		out:     &wasm.Module{},
		source:  mod.SourceFilename,
	}

	start := time.Now()
	if entry.IsDeclaration() {
		return nil, errors.EntryNotDefined(l.source, entry.Name)
	}
	if len(entry.Params) > 0 || entry.Variadic {
		return nil, l.errorf(entry, entry.Line, "entry point must take no arguments")
	}

	defs, decls, err := l.reachable(entry)
	if err != nil {
		return nil, err
	}

	res := &Result{Module: l.out, Globals: l.globals, Entry: entry.Name}

	for _, f := range decls {
		ft, err := funcType(f)
		if err != nil {
			return nil, l.errorf(f, f.Line, "%v", err)
		}
		idx := l.out.AddImport(ImportModule, f.Name, ft)
		l.funcIdx[f.Name] = idx
		res.Imports = append(res.Imports, Import{Func: f, Type: ft, Index: idx})
	}

	types := make([]wasm.FuncType, len(defs))
	for i, f := range defs {
		if types[i], err = funcType(f); err != nil {
			return nil, l.errorf(f, f.Line, "%v", err)
		}
		l.funcIdx[f.Name] = uint32(len(decls) + i)
	}

	if res.Pages, err = l.layoutGlobals(); err != nil {
		return nil, err
	}

	for i, f := range defs {
		body, err := l.lowerFunc(f)
		if err != nil {
			return nil, err
		}
		l.out.AddFunc(types[i], body)
		res.Funcs = append(res.Funcs, f.Name)
	}

	l.out.ExportFunc(entry.Name, l.funcIdx[entry.Name])
	l.out.Memories = []wasm.MemoryType{{Min: res.Pages}}
	l.out.Exports = append(l.out.Exports, wasm.Export{Name: MemoryExport, Kind: wasm.KindMemory})

	Logger().Debug("lowered",
		zap.String("source", l.source),
		zap.String("entry", entry.Name),
		zap.Int("routines", len(defs)),
		zap.Int("imports", len(decls)),
		zap.Uint32("pages", res.Pages),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// ignoredIntrinsic reports calls that carry no runtime semantics.
func ignoredIntrinsic(name string) bool {
	return strings.HasPrefix(name, "llvm.dbg.") ||
		strings.HasPrefix(name, "llvm.lifetime.") ||
		name == "llvm.assume"
}

// reachable walks the call graph from entry. Definitions come back in
// discovery order with the entry first, declarations in order of first call.
func (l *lowerer) reachable(entry *ast.Func) (defs, decls []*ast.Func, err error) {
	seen := map[string]bool{entry.Name: true}
	queue := []*ast.Func{entry}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		defs = append(defs, f)
		for _, b := range f.Blocks {
			for _, in := range b.Instrs {
				if in.Op != "call" || in.Indirect || ignoredIntrinsic(in.Callee) || seen[in.Callee] {
					continue
				}
				callee := l.mod.Func(in.Callee)
				if callee == nil {
					return nil, nil, l.errorf(f, in.Line, "call to undeclared routine @%s", in.Callee)
				}
				seen[in.Callee] = true
				if callee.IsDeclaration() {
					decls = append(decls, callee)
				} else {
					queue = append(queue, callee)
				}
			}
		}
	}
	return defs, decls, nil
}

// layoutGlobals assigns addresses to every global and emits data segments
// for their initializers. It returns the number of memory pages required.
func (l *lowerer) layoutGlobals() (uint32, error) {
	end := uint64(dataBase)
	sizes := make([]uint64, len(l.mod.Globals))
	for i, g := range l.mod.Globals {
		size, align, err := l.layout.sizeAlign(g.Type)
		if err != nil {
			return 0, l.globalErr(g, err)
		}
		end = alignUp(end, align)
		addr, err := safecast.Conv[uint32](end)
		if err != nil {
			return 0, l.globalErr(g, fmt.Errorf("global data exceeds linear memory"))
		}
		l.globals[g.Name] = addr
		sizes[i] = size
		end += max(size, 1)
	}

	for i, g := range l.mod.Globals {
		if g.Init == nil {
			continue
		}
		data, err := l.initBytes(g.Init, sizes[i])
		if err != nil {
			return 0, l.globalErr(g, err)
		}
		if len(data) > 0 {
			l.out.Data = append(l.out.Data, wasm.DataSegment{Offset: l.globals[g.Name], Init: data})
		}
	}

	pages, err := safecast.Conv[uint32]((end + pageSize - 1) / pageSize)
	if err != nil {
		return 0, errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Source(l.source).Detail("global data exceeds linear memory").Build()
	}
	return max(pages, 1), nil
}

// initBytes renders a global initializer. Zero initializers need no data
// since linear memory starts zeroed.
func (l *lowerer) initBytes(v *ast.Value, size uint64) ([]byte, error) {
	switch v.Kind {
	case ast.ValueBytes:
		if uint64(len(v.Bytes)) > size {
			return nil, fmt.Errorf("initializer longer than its type")
		}
		return v.Bytes, nil
	case ast.ValueZero, ast.ValueNull, ast.ValueUndef:
		return nil, nil
	case ast.ValueFloat:
		buf := make([]byte, size)
		if size == 4 {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v.Float)))
		} else {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v.Float))
		}
		return buf, nil
	}
	n, err := l.constInt(v)
	if err != nil {
		return nil, err
	}
	var word [8]byte
	binary.LittleEndian.PutUint64(word[:], uint64(n))
	if size > 8 {
		return nil, fmt.Errorf("initializer %s does not fit %d bytes", v, size)
	}
	return word[:size], nil
}

// constInt evaluates integer and address constants.
func (l *lowerer) constInt(v *ast.Value) (int64, error) {
	switch v.Kind {
	case ast.ValueInt, ast.ValueIntToPtr:
		return v.Int, nil
	case ast.ValueNull, ast.ValueZero, ast.ValueUndef:
		return 0, nil
	case ast.ValueGlobal:
		addr, ok := l.globals[v.Name]
		if !ok {
			if l.mod.Func(v.Name) != nil {
				return 0, fmt.Errorf("address of routine @%s is not supported", v.Name)
			}
			return 0, fmt.Errorf("unknown global @%s", v.Name)
		}
		return int64(addr), nil
	case ast.ValueGEP:
		addr, ok := l.globals[v.Name]
		if !ok {
			return 0, fmt.Errorf("getelementptr on unknown global @%s", v.Name)
		}
		off, err := l.layout.offset(v.Elem, v.Indices)
		if err != nil {
			return 0, err
		}
		return int64(addr) + off, nil
	}
	return 0, fmt.Errorf("constant %s is not a scalar", v)
}

func (l *lowerer) errorf(f *ast.Func, line int, format string, args ...any) error {
	return errors.New(errors.PhaseCompile, errors.KindUnsupported).
		Source(l.source).
		Line(line).
		Symbol(f.Name).
		Detailf(format, args...).
		Build()
}

func (l *lowerer) globalErr(g *ast.Global, err error) error {
	return errors.New(errors.PhaseCompile, errors.KindUnsupported).
		Source(l.source).
		Line(g.Line).
		Symbol(g.Name).
		Detailf("%v", err).
		Build()
}
