package stackitem

import (
	"fmt"
	"math/big"
)

// Integer is an arbitrary-precision signed integer, bounded to
// ±2^(8*MaxIntegerSizeBytes-1) at the sites that produce one.
type Integer struct {
	value *big.Int
}

// NewInteger wraps v, panicking if v exceeds the protocol's integer bound —
// callers that accept untrusted magnitudes should call CheckedInteger.
func NewInteger(v *big.Int) *Integer {
	if err := checkIntegerSize(v); err != nil {
		panic(err)
	}
	return &Integer{value: new(big.Int).Set(v)}
}

// NewIntegerFromInt64 wraps a native int64, always within bounds.
func NewIntegerFromInt64(v int64) *Integer {
	return &Integer{value: big.NewInt(v)}
}

// CheckedInteger wraps v, returning ErrInvalidConversion if it exceeds the
// protocol's integer bound.
func CheckedInteger(v *big.Int) (*Integer, error) {
	if err := checkIntegerSize(v); err != nil {
		return nil, err
	}
	return &Integer{value: new(big.Int).Set(v)}, nil
}

func (i *Integer) Type() Type { return TypeInteger }

func (i *Integer) BigInt() (*big.Int, error) { return new(big.Int).Set(i.value), nil }

func (i *Integer) Bool() bool { return i.value.Sign() != 0 }

// Bytes returns the minimal two's-complement little-endian encoding.
func (i *Integer) Bytes() ([]byte, error) {
	return encodeTwosComplementLE(i.value), nil
}

func (i *Integer) Equals(other Item) bool {
	o, ok := other.(*Integer)
	if !ok {
		return false
	}
	return i.value.Cmp(o.value) == 0
}

func (i *Integer) String() string { return fmt.Sprintf("Integer(%s)", i.value.String()) }

// Boolean is a logical true/false value.
type Boolean bool

func NewBoolean(b bool) *Boolean { v := Boolean(b); return &v }

func (b *Boolean) Type() Type { return TypeBoolean }

func (b *Boolean) Bool() bool { return bool(*b) }

func (b *Boolean) BigInt() (*big.Int, error) {
	if bool(*b) {
		return big.NewInt(1), nil
	}
	return big.NewInt(0), nil
}

func (b *Boolean) Bytes() ([]byte, error) {
	if bool(*b) {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (b *Boolean) Equals(other Item) bool {
	o, ok := other.(*Boolean)
	if !ok {
		return false
	}
	return *b == *o
}

func (b *Boolean) String() string { return fmt.Sprintf("Boolean(%v)", bool(*b)) }

// ByteString is an immutable byte sequence, implicitly convertible to
// Integer (when at most 32 bytes) and Boolean (nonzero test).
type ByteString struct {
	data []byte
}

// NewByteString copies data into a new immutable ByteString.
func NewByteString(data []byte) *ByteString {
	return &ByteString{data: append([]byte(nil), data...)}
}

func (s *ByteString) Type() Type { return TypeByteString }

func (s *ByteString) Bytes() ([]byte, error) { return append([]byte(nil), s.data...), nil }

func (s *ByteString) BigInt() (*big.Int, error) {
	if len(s.data) > MaxIntegerSizeBytes {
		return nil, fmt.Errorf("%w: byte string too long for integer conversion", ErrInvalidConversion)
	}
	return decodeTwosComplementLE(s.data), nil
}

func (s *ByteString) Bool() bool {
	for _, b := range s.data {
		if b != 0 {
			return true
		}
	}
	return false
}

func (s *ByteString) Equals(other Item) bool {
	o, ok := other.(*ByteString)
	if !ok {
		return false
	}
	if len(s.data) != len(o.data) {
		return false
	}
	for i := range s.data {
		if s.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

func (s *ByteString) String() string { return fmt.Sprintf("ByteString(%x)", s.data) }

// Buffer is a mutable byte array, distinct from ByteString in copy
// semantics (mutating opcodes like MemCpy target a Buffer in place).
type Buffer struct {
	Data []byte
}

// NewBuffer creates a zero-initialized buffer of the given size.
func NewBuffer(size int) *Buffer {
	return &Buffer{Data: make([]byte, size)}
}

// NewBufferFromBytes copies data into a new mutable Buffer.
func NewBufferFromBytes(data []byte) *Buffer {
	return &Buffer{Data: append([]byte(nil), data...)}
}

func (b *Buffer) Type() Type { return TypeBuffer }

func (b *Buffer) Bytes() ([]byte, error) { return append([]byte(nil), b.Data...), nil }

func (b *Buffer) BigInt() (*big.Int, error) {
	if len(b.Data) > MaxIntegerSizeBytes {
		return nil, fmt.Errorf("%w: buffer too long for integer conversion", ErrInvalidConversion)
	}
	return decodeTwosComplementLE(b.Data), nil
}

func (b *Buffer) Bool() bool {
	for _, x := range b.Data {
		if x != 0 {
			return true
		}
	}
	return false
}

// Equals for Buffer is reference identity — two distinct buffers with equal
// contents are not EQUAL, matching the protocol's mutable-type semantics.
func (b *Buffer) Equals(other Item) bool {
	o, ok := other.(*Buffer)
	if !ok {
		return false
	}
	return b == o
}

func (b *Buffer) String() string { return fmt.Sprintf("Buffer(len=%d)", len(b.Data)) }

// Null represents the VM's null/undefined value.
type Null struct{}

func NewNull() *Null { return &Null{} }

func (n *Null) Type() Type { return TypeNull }

func (n *Null) Bytes() ([]byte, error) {
	return nil, fmt.Errorf("%w: Null has no byte representation", ErrInvalidConversion)
}

func (n *Null) BigInt() (*big.Int, error) {
	return nil, fmt.Errorf("%w: Null has no integer representation", ErrInvalidConversion)
}

func (n *Null) Bool() bool { return false }

func (n *Null) Equals(other Item) bool {
	_, ok := other.(*Null)
	return ok
}

func (n *Null) String() string { return "Null" }

func encodeTwosComplementLE(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{}
	}
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)
	b := abs.Bytes() // big-endian magnitude
	// reverse to little-endian
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	if !neg {
		if len(b) > 0 && b[len(b)-1]&0x80 != 0 {
			b = append(b, 0) // need a padding byte to keep the sign bit clear
		}
		return b
	}
	// two's complement negative encoding, little-endian
	carry := true
	for i := range b {
		b[i] = ^b[i]
		if carry {
			b[i]++
			carry = b[i] == 0
		}
	}
	if len(b) == 0 || b[len(b)-1]&0x80 == 0 {
		b = append(b, 0xFF)
	}
	return b
}

func decodeTwosComplementLE(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	neg := b[len(b)-1]&0x80 != 0
	be := make([]byte, len(b))
	for i, x := range b {
		be[len(b)-1-i] = x
	}
	v := new(big.Int).SetBytes(be)
	if neg {
		bound := new(big.Int).Lsh(big.NewInt(1), uint(8*len(b)))
		v.Sub(v, bound)
	}
	return v
}
