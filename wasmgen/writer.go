package wasmgen

import "bytes"

// writer accumulates the binary encoding of a module or section.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

func (w *writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteU32 writes v as unsigned LEB128.
func (w *writer) WriteU32(v uint32) {
	w.WriteU64(uint64(v))
}

// WriteU64 writes v as unsigned LEB128.
func (w *writer) WriteU64(v uint64) {
	w.buf.Write(AppendULEB128(nil, v))
}

// WriteS64 writes v as signed LEB128.
func (w *writer) WriteS64(v int64) {
	w.buf.Write(AppendSLEB128(nil, v))
}

// WriteName writes a length-prefixed UTF-8 name.
func (w *writer) WriteName(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf.WriteString(s)
}

// AppendULEB128 appends the unsigned LEB128 encoding of v to dst.
func AppendULEB128(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// AppendSLEB128 appends the signed LEB128 encoding of v to dst.
func AppendSLEB128(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}
