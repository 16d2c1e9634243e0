package binary

import (
	"encoding/binary"
	"math"
)

// Writer accumulates WebAssembly binary output.
type Writer struct {
	buf []byte
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf = append(w.buf, b)
}

// Raw writes a byte slice unmodified.
func (w *Writer) Raw(data []byte) {
	w.buf = append(w.buf, data...)
}

// U32 writes an unsigned LEB128 uint32.
func (w *Writer) U32(v uint32) {
	w.U64(uint64(v))
}

// U64 writes an unsigned LEB128 uint64.
func (w *Writer) U64(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			w.buf = append(w.buf, b)
			return
		}
		w.buf = append(w.buf, b|0x80)
	}
}

// S32 writes a signed LEB128 int32.
func (w *Writer) S32(v int32) {
	w.S64(int64(v))
}

// S64 writes a signed LEB128 int64.
func (w *Writer) S64(v int64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.buf = append(w.buf, b)
			return
		}
		w.buf = append(w.buf, b|0x80)
	}
}

// F32 writes a little-endian IEEE 754 float32.
func (w *Writer) F32(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

// F64 writes a little-endian IEEE 754 float64.
func (w *Writer) F64(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// U32LE writes a fixed-width little-endian uint32.
func (w *Writer) U32LE(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// Name writes a length-prefixed UTF-8 name.
func (w *Writer) Name(s string) {
	w.U32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Section writes a section header and its payload.
func (w *Writer) Section(id byte, payload []byte) {
	w.Byte(id)
	w.U32(uint32(len(payload)))
	w.Raw(payload)
}
