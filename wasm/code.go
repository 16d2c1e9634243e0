package wasm

import (
	"github.com/wippyai/qir-runtime/wasm/internal/binary"
)

// Code builds the instruction stream of a function body.
type Code struct {
	w *binary.Writer
}

// NewCode returns an empty instruction stream.
func NewCode() *Code {
	return &Code{w: binary.NewWriter()}
}

// Bytes returns the encoded instructions.
func (c *Code) Bytes() []byte {
	return c.w.Bytes()
}

// Len returns the encoded length.
func (c *Code) Len() int {
	return c.w.Len()
}

// Op emits opcodes without immediates.
func (c *Code) Op(ops ...byte) {
	for _, op := range ops {
		c.w.Byte(op)
	}
}

func (c *Code) I32Const(v int32) {
	c.w.Byte(OpI32Const)
	c.w.S32(v)
}

func (c *Code) I64Const(v int64) {
	c.w.Byte(OpI64Const)
	c.w.S64(v)
}

func (c *Code) F32Const(v float32) {
	c.w.Byte(OpF32Const)
	c.w.F32(v)
}

func (c *Code) F64Const(v float64) {
	c.w.Byte(OpF64Const)
	c.w.F64(v)
}

func (c *Code) LocalGet(idx uint32) {
	c.w.Byte(OpLocalGet)
	c.w.U32(idx)
}

func (c *Code) LocalSet(idx uint32) {
	c.w.Byte(OpLocalSet)
	c.w.U32(idx)
}

func (c *Code) Call(funcIdx uint32) {
	c.w.Byte(OpCall)
	c.w.U32(funcIdx)
}

// Br branches to the label depth levels out.
func (c *Code) Br(depth uint32) {
	c.w.Byte(OpBr)
	c.w.U32(depth)
}

// BrTable branches to targets[operand], or to def when out of range.
func (c *Code) BrTable(targets []uint32, def uint32) {
	c.w.Byte(OpBrTable)
	c.w.U32(uint32(len(targets)))
	for _, t := range targets {
		c.w.U32(t)
	}
	c.w.U32(def)
}

// Block opens a block with no parameters or results.
func (c *Code) Block() {
	c.w.Byte(OpBlock)
	c.w.Byte(BlockVoid)
}

// Loop opens a loop with no parameters or results.
func (c *Code) Loop() {
	c.w.Byte(OpLoop)
	c.w.Byte(BlockVoid)
}

// If opens a conditional with no parameters or results.
func (c *Code) If() {
	c.w.Byte(OpIf)
	c.w.Byte(BlockVoid)
}

func (c *Code) Else() { c.w.Byte(OpElse) }

func (c *Code) End() { c.w.Byte(OpEnd) }
