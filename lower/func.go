package lower

import (
	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/wasm"
)

// funcLowerer lowers one routine body.
//
// A routine with several blocks becomes a dispatch loop. Block i's code sits
// after the end of the i-th nested block, so a br_table on the block index
// local reaches it, and a jump stores the target index and branches back to
// the loop:
//
//	loop
//	  block ... block block
//	    local.get $bb
//	    br_table 0 1 ... n-1
//	  end <block 0> end <block 1> ... end <block n-1>
//	end
//	unreachable
type funcLowerer struct {
	*lowerer
	fn     *ast.Func
	code   *wasm.Code
	locals map[string]uint32
	decls  []wasm.ValType
	blocks map[string]int
	bb     uint32 // block index local
	loop   bool
}

func (l *lowerer) lowerFunc(fn *ast.Func) (wasm.FuncBody, error) {
	f := &funcLowerer{
		lowerer: l,
		fn:      fn,
		code:    wasm.NewCode(),
		locals:  make(map[string]uint32),
		blocks:  make(map[string]int),
	}
	if t := fn.Blocks[0].Term; len(fn.Blocks) > 1 || t != nil && (t.Op == "br" || t.Op == "switch") {
		f.loop = true
	}

	for i, p := range fn.Params {
		f.locals[p.Name] = uint32(i)
	}
	for i, b := range fn.Blocks {
		f.blocks[b.Label] = i
		for _, in := range b.Instrs {
			if in.Name == "" || in.Type.IsVoid() {
				continue
			}
			vt, err := valType(in.Type)
			if err != nil {
				return wasm.FuncBody{}, f.fail(in, "%s result: %v", in.Op, err)
			}
			f.locals[in.Name] = f.local(vt)
		}
	}
	if f.loop {
		f.bb = f.local(wasm.ValI32)
	}

	if err := f.body(); err != nil {
		return wasm.FuncBody{}, err
	}
	return wasm.FuncBody{Locals: compress(f.decls), Code: f.code.Bytes()}, nil
}

func (f *funcLowerer) local(vt wasm.ValType) uint32 {
	f.decls = append(f.decls, vt)
	return uint32(len(f.fn.Params) + len(f.decls) - 1)
}

func compress(types []wasm.ValType) []wasm.LocalEntry {
	var out []wasm.LocalEntry
	for _, vt := range types {
		if n := len(out); n > 0 && out[n-1].ValType == vt {
			out[n-1].Count++
			continue
		}
		out = append(out, wasm.LocalEntry{Count: 1, ValType: vt})
	}
	return out
}

func (f *funcLowerer) body() error {
	if !f.loop {
		if err := f.block(f.fn.Blocks[0], 0); err != nil {
			return err
		}
		f.code.End()
		return nil
	}

	n := len(f.fn.Blocks)
	f.code.Loop()
	for range n {
		f.code.Block()
	}
	f.code.LocalGet(f.bb)
	targets := make([]uint32, n)
	for i := range targets {
		targets[i] = uint32(i)
	}
	f.code.BrTable(targets, uint32(n-1))

	for i, b := range f.fn.Blocks {
		f.code.End()
		if err := f.block(b, uint32(n-1-i)); err != nil {
			return err
		}
	}
	f.code.End()
	f.code.Op(wasm.OpUnreachable)
	f.code.End()
	return nil
}

// block emits the instructions of b. depth is the branch depth of the
// dispatch loop from b's code.
func (f *funcLowerer) block(b *ast.Block, depth uint32) error {
	for _, in := range b.Instrs {
		if err := f.instr(in); err != nil {
			return err
		}
	}
	if b.Term == nil {
		return f.errorf(f.fn, f.fn.Line, "block %%%s has no terminator", b.Label)
	}
	return f.terminator(b, b.Term, depth)
}

func (f *funcLowerer) terminator(b *ast.Block, in *ast.Instr, depth uint32) error {
	switch in.Op {
	case "ret":
		if len(in.Args) > 0 {
			if err := f.value(in.Args[0]); err != nil {
				return f.fail(in, "%v", err)
			}
		}
		f.code.Op(wasm.OpReturn)
		return nil

	case "unreachable":
		f.code.Op(wasm.OpUnreachable)
		return nil

	case "br":
		if len(in.Args) == 0 {
			return f.jump(in, b, in.Targets[0], depth)
		}
		if err := f.value(in.Args[0]); err != nil {
			return f.fail(in, "%v", err)
		}
		f.code.If()
		if err := f.jump(in, b, in.Targets[0], depth+1); err != nil {
			return err
		}
		f.code.Else()
		if err := f.jump(in, b, in.Targets[1], depth+1); err != nil {
			return err
		}
		f.code.End()
		f.code.Op(wasm.OpUnreachable)
		return nil

	case "switch":
		t := in.Args[0].Type
		for _, c := range in.Cases {
			if err := f.value(in.Args[0]); err != nil {
				return f.fail(in, "%v", err)
			}
			if err := f.intConst(c.Value, t); err != nil {
				return f.fail(in, "%v", err)
			}
			if t.Bits <= 32 {
				f.code.Op(wasm.OpI32Eq)
			} else {
				f.code.Op(wasm.OpI64Eq)
			}
			f.code.If()
			if err := f.jump(in, b, c.Label, depth+1); err != nil {
				return err
			}
			f.code.End()
		}
		return f.jump(in, b, in.Targets[0], depth)
	}
	return f.fail(in, "unsupported terminator '%s'", in.Op)
}

// jump transfers control from block from to the block labelled to,
// assigning to's phi nodes first.
func (f *funcLowerer) jump(in *ast.Instr, from *ast.Block, to string, depth uint32) error {
	idx, ok := f.blocks[to]
	if !ok {
		return f.fail(in, "branch to unknown block %%%s", to)
	}
	// phis are assigned in parallel: every incoming value is read before
	// any phi local is written
	var phis []*ast.Instr
	for _, p := range f.fn.Blocks[idx].Instrs {
		if p.Op != "phi" {
			break
		}
		v := incoming(p, from.Label)
		if v == nil {
			return f.fail(p, "phi has no value for predecessor %%%s", from.Label)
		}
		if err := f.value(v); err != nil {
			return f.fail(p, "%v", err)
		}
		phis = append(phis, p)
	}
	for i := len(phis) - 1; i >= 0; i-- {
		f.code.LocalSet(f.locals[phis[i].Name])
	}

	f.code.I32Const(int32(idx))
	f.code.LocalSet(f.bb)
	f.code.Br(depth)
	return nil
}

func incoming(phi *ast.Instr, label string) *ast.Value {
	for _, inc := range phi.Incoming {
		if inc.Label == label {
			return inc.Value
		}
	}
	return nil
}

func (f *funcLowerer) fail(in *ast.Instr, format string, args ...any) error {
	return f.errorf(f.fn, in.Line, format, args...)
}
