// Package io provides the fixed-endian binary codec shared by every
// consensus-critical type (blocks, transactions, storage values, wire
// messages). Encoding is little-endian throughout except where a type
// explicitly documents otherwise.
package io

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Sentinel error kinds. Wrapped with fmt.Errorf("%w: ...") at the call site
// so callers can still match with errors.Is.
var (
	ErrEndOfStream = fmt.Errorf("end of stream")
	ErrInvalidData = fmt.Errorf("invalid data")
)

// Serializable is implemented by every type that participates in the wire
// or storage binary format. deserialize(serialize(x)) == x must hold for
// every valid x.
type Serializable interface {
	EncodeBinary(w *BinWriter)
	DecodeBinary(r *BinReader)
}

// BinWriter accumulates encoding errors so call sites can chain writes
// without checking an error after every call; the first error sticks.
type BinWriter struct {
	w   io.Writer
	Err error
}

// NewBinWriterFromIO wraps an io.Writer for sequential binary encoding.
func NewBinWriterFromIO(w io.Writer) *BinWriter {
	return &BinWriter{w: w}
}

func (w *BinWriter) write(p []byte) {
	if w.Err != nil {
		return
	}
	_, w.Err = w.w.Write(p)
}

// WriteByte writes a single byte.
func (w *BinWriter) WriteByte(b byte) {
	w.write([]byte{b})
}

// WriteBool writes a boolean as a single 0x00/0x01 byte.
func (w *BinWriter) WriteBool(b bool) {
	if b {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

// WriteU16LE writes a uint16 in little-endian order.
func (w *BinWriter) WriteU16LE(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	w.write(buf[:])
}

// WriteU32LE writes a uint32 in little-endian order.
func (w *BinWriter) WriteU32LE(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.write(buf[:])
}

// WriteU64LE writes a uint64 in little-endian order.
func (w *BinWriter) WriteU64LE(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.write(buf[:])
}

// WriteBytes writes a raw byte slice with no length prefix.
func (w *BinWriter) WriteBytes(b []byte) {
	w.write(b)
}

// WriteVarUint writes a variable-length unsigned integer using the standard
// 1/3/5/9-byte prefix scheme: values below 0xFD are written directly as a
// single byte; 0xFD introduces a uint16; 0xFE a uint32; 0xFF a uint64.
func (w *BinWriter) WriteVarUint(v uint64) {
	switch {
	case v < 0xFD:
		w.WriteByte(byte(v))
	case v <= 0xFFFF:
		w.WriteByte(0xFD)
		w.WriteU16LE(uint16(v))
	case v <= 0xFFFFFFFF:
		w.WriteByte(0xFE)
		w.WriteU32LE(uint32(v))
	default:
		w.WriteByte(0xFF)
		w.WriteU64LE(v)
	}
}

// WriteVarBytes writes a var-uint length prefix followed by the bytes.
func (w *BinWriter) WriteVarBytes(b []byte) {
	w.WriteVarUint(uint64(len(b)))
	w.WriteBytes(b)
}

// WriteVarString writes a var-uint length prefix followed by the UTF-8
// encoded string.
func (w *BinWriter) WriteVarString(s string) {
	w.WriteVarBytes([]byte(s))
}

// WriteFixedString writes s truncated or zero-padded to exactly size bytes.
func (w *BinWriter) WriteFixedString(s string, size int) {
	buf := make([]byte, size)
	copy(buf, s)
	w.write(buf)
}

// WriteArray writes a var-uint element count followed by each element's
// EncodeBinary output, in order.
func WriteArray[T Serializable](w *BinWriter, items []T) {
	w.WriteVarUint(uint64(len(items)))
	for _, it := range items {
		it.EncodeBinary(w)
	}
}

// BinReader mirrors BinWriter: the first error encountered sticks and all
// subsequent reads become no-ops, so call sites can chain reads and check
// Err once at the end.
type BinReader struct {
	r   io.Reader
	Err error
}

// NewBinReaderFromIO wraps an io.Reader for sequential binary decoding.
func NewBinReaderFromIO(r io.Reader) *BinReader {
	return &BinReader{r: r}
}

func (r *BinReader) readFull(p []byte) {
	if r.Err != nil {
		return
	}
	if _, err := io.ReadFull(r.r, p); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			r.Err = fmt.Errorf("%w: need %d bytes", ErrEndOfStream, len(p))
		} else {
			r.Err = err
		}
	}
}

// ReadByte reads a single byte.
func (r *BinReader) ReadByte() byte {
	var buf [1]byte
	r.readFull(buf[:])
	return buf[0]
}

// ReadBool reads a single byte and reports whether it was nonzero.
func (r *BinReader) ReadBool() bool {
	return r.ReadByte() != 0
}

// ReadU16LE reads a little-endian uint16.
func (r *BinReader) ReadU16LE() uint16 {
	var buf [2]byte
	r.readFull(buf[:])
	return binary.LittleEndian.Uint16(buf[:])
}

// ReadU32LE reads a little-endian uint32.
func (r *BinReader) ReadU32LE() uint32 {
	var buf [4]byte
	r.readFull(buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

// ReadU64LE reads a little-endian uint64.
func (r *BinReader) ReadU64LE() uint64 {
	var buf [8]byte
	r.readFull(buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

// ReadBytes reads exactly len(buf) bytes into buf.
func (r *BinReader) ReadBytes(buf []byte) {
	r.readFull(buf)
}

// MaxVarArraySize bounds the element count accepted by ReadVarUint-based
// array/bytes readers so a malicious length prefix cannot trigger an
// unbounded allocation before any data has actually been read.
const MaxVarArraySize = 0x1000000

// ReadVarUint reads a variable-length unsigned integer and fails with
// ErrInvalidData if the decoded value exceeds max.
func (r *BinReader) ReadVarUint(max uint64) uint64 {
	b := r.ReadByte()
	var v uint64
	switch b {
	case 0xFD:
		v = uint64(r.ReadU16LE())
	case 0xFE:
		v = uint64(r.ReadU32LE())
	case 0xFF:
		v = r.ReadU64LE()
	default:
		v = uint64(b)
	}
	if r.Err != nil {
		return 0
	}
	if v > max {
		r.Err = fmt.Errorf("%w: var-int %d exceeds limit %d", ErrInvalidData, v, max)
		return 0
	}
	return v
}

// ReadVarBytes reads a var-uint length prefix (bounded by maxSize) followed
// by that many bytes.
func (r *BinReader) ReadVarBytes(maxSize uint64) []byte {
	n := r.ReadVarUint(maxSize)
	if r.Err != nil {
		return nil
	}
	buf := make([]byte, n)
	r.readFull(buf)
	if r.Err != nil {
		return nil
	}
	return buf
}

// ReadVarString reads a var-uint-prefixed UTF-8 string, bounded by maxSize.
func (r *BinReader) ReadVarString(maxSize uint64) string {
	return string(r.ReadVarBytes(maxSize))
}

// ReadFixedString reads exactly size bytes and trims trailing NUL padding.
func (r *BinReader) ReadFixedString(size int) string {
	buf := make([]byte, size)
	r.readFull(buf)
	if r.Err != nil {
		return ""
	}
	n := size
	for n > 0 && buf[n-1] == 0 {
		n--
	}
	return string(buf[:n])
}

// ReadArray reads a var-uint element count (bounded by maxCount) and
// decodes that many elements using newElem to construct each one.
func ReadArray[T Serializable](r *BinReader, maxCount uint64, newElem func() T) []T {
	n := r.ReadVarUint(maxCount)
	if r.Err != nil {
		return nil
	}
	items := make([]T, 0, n)
	for i := uint64(0); i < n; i++ {
		it := newElem()
		it.DecodeBinary(r)
		if r.Err != nil {
			return nil
		}
		items = append(items, it)
	}
	return items
}

// ToBytes serializes a Serializable to a byte slice using the local
// byteBuffer under the hood.
func ToBytes(s Serializable) []byte {
	buf := &byteBuffer{}
	w := NewBinWriterFromIO(buf)
	s.EncodeBinary(w)
	return buf.b
}

// byteBuffer is a minimal growable buffer; avoids importing bytes.Buffer
// just for its Write method semantics (identical, kept local for clarity of
// ownership in hot encode paths).
type byteBuffer struct{ b []byte }

func (b *byteBuffer) Write(p []byte) (int, error) {
	b.b = append(b.b, p...)
	return len(p), nil
}

// FromBytes decodes b into s using DecodeBinary, returning the reader's
// sticky error if any.
func FromBytes(s Serializable, b []byte) error {
	r := NewBinReaderFromIO(&bytesReader{b: b})
	s.DecodeBinary(r)
	return r.Err
}

// bytesReader is a minimal io.Reader over a fixed byte slice; avoids
// importing bytes.Reader just for sequential Read.
type bytesReader struct {
	b   []byte
	pos int
}

func (r *bytesReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}
