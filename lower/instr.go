package lower

import (
	"fmt"

	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/wasm"
)

// integer binary operators as {i32, i64} opcodes
var intOps = map[string][2]byte{
	"add":  {wasm.OpI32Add, wasm.OpI64Add},
	"sub":  {wasm.OpI32Sub, wasm.OpI64Sub},
	"mul":  {wasm.OpI32Mul, wasm.OpI64Mul},
	"sdiv": {wasm.OpI32DivS, wasm.OpI64DivS},
	"udiv": {wasm.OpI32DivU, wasm.OpI64DivU},
	"srem": {wasm.OpI32RemS, wasm.OpI64RemS},
	"urem": {wasm.OpI32RemU, wasm.OpI64RemU},
	"shl":  {wasm.OpI32Shl, wasm.OpI64Shl},
	"lshr": {wasm.OpI32ShrU, wasm.OpI64ShrU},
	"ashr": {wasm.OpI32ShrS, wasm.OpI64ShrS},
	"and":  {wasm.OpI32And, wasm.OpI64And},
	"or":   {wasm.OpI32Or, wasm.OpI64Or},
	"xor":  {wasm.OpI32Xor, wasm.OpI64Xor},
}

// float binary operators as {f32, f64} opcodes
var floatOps = map[string][2]byte{
	"fadd": {wasm.OpF32Add, wasm.OpF64Add},
	"fsub": {wasm.OpF32Sub, wasm.OpF64Sub},
	"fmul": {wasm.OpF32Mul, wasm.OpF64Mul},
	"fdiv": {wasm.OpF32Div, wasm.OpF64Div},
}

// icmp predicates as {i32, i64} opcodes
var icmpOps = map[string][2]byte{
	"eq":  {wasm.OpI32Eq, wasm.OpI64Eq},
	"ne":  {wasm.OpI32Ne, wasm.OpI64Ne},
	"ugt": {wasm.OpI32GtU, wasm.OpI64GtU},
	"uge": {wasm.OpI32GeU, wasm.OpI64GeU},
	"ult": {wasm.OpI32LtU, wasm.OpI64LtU},
	"ule": {wasm.OpI32LeU, wasm.OpI64LeU},
	"sgt": {wasm.OpI32GtS, wasm.OpI64GtS},
	"sge": {wasm.OpI32GeS, wasm.OpI64GeS},
	"slt": {wasm.OpI32LtS, wasm.OpI64LtS},
	"sle": {wasm.OpI32LeS, wasm.OpI64LeS},
}

// ordered fcmp predicates as {f32, f64} opcodes. Unordered predicates are
// the negation of the opposite ordered one.
var fcmpOps = map[string][2]byte{
	"oeq": {wasm.OpF32Eq, wasm.OpF64Eq},
	"ogt": {wasm.OpF32Gt, wasm.OpF64Gt},
	"oge": {wasm.OpF32Ge, wasm.OpF64Ge},
	"olt": {wasm.OpF32Lt, wasm.OpF64Lt},
	"ole": {wasm.OpF32Le, wasm.OpF64Le},
	"une": {wasm.OpF32Ne, wasm.OpF64Ne},
}

var fcmpNegated = map[string]string{
	"ugt": "ole",
	"uge": "olt",
	"ult": "oge",
	"ule": "ogt",
	"ueq": "one",
}

func (f *funcLowerer) instr(in *ast.Instr) error {
	if in.Opaque {
		return f.fail(in, "unsupported instruction '%s'", in.Op)
	}

	var err error
	switch {
	case in.Op == "phi":
		return nil
	case in.Op == "call":
		return f.call(in)
	case in.Op == "icmp":
		err = f.icmp(in)
	case in.Op == "fcmp":
		err = f.fcmp(in)
	case has(intOps, in.Op):
		err = f.intBinary(in)
	case has(floatOps, in.Op):
		err = f.floatBinary(in)
	case in.Op == "fneg":
		if err = f.value(in.Args[0]); err == nil {
			f.code.Op(pick(in.Type, wasm.OpF32Neg, wasm.OpF64Neg))
		}
	case in.Op == "freeze":
		err = f.value(in.Args[0])
	case in.Op == "select":
		err = f.sel(in)
	default:
		if castOp(in.Op) {
			err = f.cast(in)
		} else {
			return f.fail(in, "unsupported instruction '%s'", in.Op)
		}
	}
	if err != nil {
		return f.fail(in, "%v", err)
	}
	return f.store(in)
}

// store writes the value on the stack to the instruction's local.
func (f *funcLowerer) store(in *ast.Instr) error {
	if in.Name == "" {
		f.code.Op(wasm.OpDrop)
		return nil
	}
	f.code.LocalSet(f.locals[in.Name])
	return nil
}

func has(ops map[string][2]byte, op string) bool {
	_, ok := ops[op]
	return ok
}

func pick(t *ast.Type, small, wide byte) byte {
	if t.Kind == ast.TypeFloat || t.IsInt() && t.Bits <= 32 {
		return small
	}
	return wide
}

func (f *funcLowerer) call(in *ast.Instr) error {
	if in.Indirect {
		return f.fail(in, "indirect call is not supported")
	}
	if ignoredIntrinsic(in.Callee) {
		return nil
	}
	callee := f.mod.Func(in.Callee)
	idx, ok := f.funcIdx[in.Callee]
	if callee == nil || !ok {
		return f.fail(in, "call to undeclared routine @%s", in.Callee)
	}
	if len(in.Args) != len(callee.Params) {
		return f.fail(in, "call to @%s with %d arguments, routine takes %d", in.Callee, len(in.Args), len(callee.Params))
	}
	for i, a := range in.Args {
		if err := f.valueAs(a, callee.Params[i].Type); err != nil {
			return f.fail(in, "argument %d of @%s: %v", i, in.Callee, err)
		}
	}
	f.code.Call(idx)
	if callee.RetType.IsVoid() {
		return nil
	}
	return f.store(in)
}

func (f *funcLowerer) intBinary(in *ast.Instr) error {
	t := in.Type
	if !t.IsInt() {
		return fmt.Errorf("%s on %s is not supported", in.Op, t)
	}
	signed := in.Op == "sdiv" || in.Op == "srem" || in.Op == "ashr"
	if err := f.value(in.Args[0]); err != nil {
		return err
	}
	if signed && narrow(t) {
		f.signExtend(t.Bits)
	}
	if err := f.value(in.Args[1]); err != nil {
		return err
	}
	if (in.Op == "sdiv" || in.Op == "srem") && narrow(t) {
		f.signExtend(t.Bits)
	}
	f.code.Op(pick(t, intOps[in.Op][0], intOps[in.Op][1]))

	switch in.Op {
	case "and", "or", "xor", "lshr", "udiv", "urem":
	default:
		f.truncate(t)
	}
	return nil
}

func (f *funcLowerer) floatBinary(in *ast.Instr) error {
	t := in.Type
	if t.Kind != ast.TypeFloat && t.Kind != ast.TypeDouble {
		return fmt.Errorf("%s on %s is not supported", in.Op, t)
	}
	if err := f.value(in.Args[0]); err != nil {
		return err
	}
	if err := f.value(in.Args[1]); err != nil {
		return err
	}
	f.code.Op(pick(t, floatOps[in.Op][0], floatOps[in.Op][1]))
	return nil
}

func (f *funcLowerer) icmp(in *ast.Instr) error {
	ops, ok := icmpOps[in.Pred]
	if !ok {
		return fmt.Errorf("unknown icmp predicate '%s'", in.Pred)
	}
	t := in.Args[0].Type
	signed := in.Pred[0] == 's'
	for _, a := range in.Args[:2] {
		if err := f.value(a); err != nil {
			return err
		}
		if signed && narrow(t) {
			f.signExtend(t.Bits)
		}
	}
	f.code.Op(pick(t, ops[0], ops[1]))
	return nil
}

func (f *funcLowerer) fcmp(in *ast.Instr) error {
	t := in.Args[0].Type
	pred := in.Pred
	negate := false
	if p, ok := fcmpNegated[pred]; ok {
		pred, negate = p, true
	}

	switch pred {
	case "true":
		f.code.I32Const(1)
		return nil
	case "false":
		f.code.I32Const(0)
		return nil
	case "one":
		// (a < b) | (a > b)
		if err := f.fcmpOp(in, t, "olt"); err != nil {
			return err
		}
		if err := f.fcmpOp(in, t, "ogt"); err != nil {
			return err
		}
		f.code.Op(wasm.OpI32Or)
	case "ord", "uno":
		// a == a & b == b
		for _, a := range in.Args[:2] {
			if err := f.value(a); err != nil {
				return err
			}
			if err := f.value(a); err != nil {
				return err
			}
			f.code.Op(pick(t, wasm.OpF32Eq, wasm.OpF64Eq))
		}
		f.code.Op(wasm.OpI32And)
		negate = pred == "uno"
	default:
		if err := f.fcmpOp(in, t, pred); err != nil {
			return err
		}
	}
	if negate {
		f.code.Op(wasm.OpI32Eqz)
	}
	return nil
}

func (f *funcLowerer) fcmpOp(in *ast.Instr, t *ast.Type, pred string) error {
	ops, ok := fcmpOps[pred]
	if !ok {
		return fmt.Errorf("unknown fcmp predicate '%s'", in.Pred)
	}
	if err := f.value(in.Args[0]); err != nil {
		return err
	}
	if err := f.value(in.Args[1]); err != nil {
		return err
	}
	f.code.Op(pick(t, ops[0], ops[1]))
	return nil
}

func (f *funcLowerer) sel(in *ast.Instr) error {
	if err := f.value(in.Args[1]); err != nil {
		return err
	}
	if err := f.value(in.Args[2]); err != nil {
		return err
	}
	if err := f.value(in.Args[0]); err != nil {
		return err
	}
	f.code.Op(wasm.OpSelect)
	return nil
}

func castOp(op string) bool {
	switch op {
	case "trunc", "zext", "sext", "fptrunc", "fpext", "fptoui", "fptosi",
		"uitofp", "sitofp", "ptrtoint", "inttoptr", "bitcast", "addrspacecast":
		return true
	}
	return false
}

func (f *funcLowerer) cast(in *ast.Instr) error {
	src, dst := in.Args[0].Type, in.Type
	if err := f.value(in.Args[0]); err != nil {
		return err
	}
	from, err := valType(src)
	if err != nil {
		return err
	}
	to, err := valType(dst)
	if err != nil {
		return err
	}

	switch in.Op {
	case "trunc", "zext", "ptrtoint", "inttoptr", "addrspacecast":
		f.resize(from, to)
		if in.Op == "trunc" || in.Op == "ptrtoint" {
			f.truncate(dst)
		}
	case "sext":
		if narrow(src) {
			f.signExtend(src.Bits)
		}
		if from == wasm.ValI32 && to == wasm.ValI64 {
			f.code.Op(wasm.OpI64ExtendI32S)
		}
		f.truncate(dst)
	case "bitcast":
		switch {
		case from == to:
		case from == wasm.ValI32 && to == wasm.ValF32:
			f.code.Op(wasm.OpF32ReinterpretI)
		case from == wasm.ValF32 && to == wasm.ValI32:
			f.code.Op(wasm.OpI32ReinterpretF)
		case from == wasm.ValI64 && to == wasm.ValF64:
			f.code.Op(wasm.OpF64ReinterpretI)
		case from == wasm.ValF64 && to == wasm.ValI64:
			f.code.Op(wasm.OpI64ReinterpretF)
		default:
			return fmt.Errorf("bitcast from %s to %s is not supported", src, dst)
		}
	case "fpext":
		if from == wasm.ValF32 && to == wasm.ValF64 {
			f.code.Op(wasm.OpF64PromoteF32)
		}
	case "fptrunc":
		if from == wasm.ValF64 && to == wasm.ValF32 {
			f.code.Op(wasm.OpF32DemoteF64)
		}
	case "sitofp", "uitofp":
		signed := in.Op == "sitofp"
		if signed && narrow(src) {
			f.signExtend(src.Bits)
		}
		f.code.Op(convertOp(from, to, signed))
	case "fptosi", "fptoui":
		f.code.Op(truncOp(from, to, in.Op == "fptosi"))
		f.truncate(dst)
	}
	return nil
}

// resize converts between the i32 and i64 representations, zero-extending
// when widening.
func (f *funcLowerer) resize(from, to wasm.ValType) {
	switch {
	case from == wasm.ValI32 && to == wasm.ValI64:
		f.code.Op(wasm.OpI64ExtendI32U)
	case from == wasm.ValI64 && to == wasm.ValI32:
		f.code.Op(wasm.OpI32WrapI64)
	}
}

func convertOp(from, to wasm.ValType, signed bool) byte {
	ops := map[[2]wasm.ValType][2]byte{
		{wasm.ValI32, wasm.ValF32}: {wasm.OpF32ConvertI32U, wasm.OpF32ConvertI32S},
		{wasm.ValI64, wasm.ValF32}: {wasm.OpF32ConvertI64U, wasm.OpF32ConvertI64S},
		{wasm.ValI32, wasm.ValF64}: {wasm.OpF64ConvertI32U, wasm.OpF64ConvertI32S},
		{wasm.ValI64, wasm.ValF64}: {wasm.OpF64ConvertI64U, wasm.OpF64ConvertI64S},
	}[[2]wasm.ValType{from, to}]
	if signed {
		return ops[1]
	}
	return ops[0]
}

func truncOp(from, to wasm.ValType, signed bool) byte {
	ops := map[[2]wasm.ValType][2]byte{
		{wasm.ValF32, wasm.ValI32}: {wasm.OpI32TruncF32U, wasm.OpI32TruncF32S},
		{wasm.ValF64, wasm.ValI32}: {wasm.OpI32TruncF64U, wasm.OpI32TruncF64S},
		{wasm.ValF32, wasm.ValI64}: {wasm.OpI64TruncF32U, wasm.OpI64TruncF32S},
		{wasm.ValF64, wasm.ValI64}: {wasm.OpI64TruncF64U, wasm.OpI64TruncF64S},
	}[[2]wasm.ValType{from, to}]
	if signed {
		return ops[1]
	}
	return ops[0]
}

// signExtend turns a zero-extended value of the given width on the stack
// into its sign-extended i32 form.
func (f *funcLowerer) signExtend(bits int) {
	shift := int32(32 - bits)
	f.code.I32Const(shift)
	f.code.Op(wasm.OpI32Shl)
	f.code.I32Const(shift)
	f.code.Op(wasm.OpI32ShrS)
}

// truncate clears the bits above t's width.
func (f *funcLowerer) truncate(t *ast.Type) {
	if narrow(t) {
		f.code.I32Const(mask(t.Bits))
		f.code.Op(wasm.OpI32And)
	}
}
