package util

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	nio "github.com/synnergy-network/n3node/internal/io"
)

// Uint256Size is the byte length of a Uint256.
const Uint256Size = 32

// Uint256 is a 32-byte value, stored little-endian, used for block and
// transaction hashes.
type Uint256 [Uint256Size]byte

// Uint256DecodeBytesLE builds a Uint256 from a little-endian byte slice.
func Uint256DecodeBytesLE(b []byte) (u Uint256, err error) {
	if len(b) != Uint256Size {
		return u, fmt.Errorf("%w: expected %d bytes, got %d", nio.ErrInvalidData, Uint256Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// Uint256DecodeStringLE parses a big-endian hex string (optional 0x prefix)
// into a Uint256.
func Uint256DecodeStringLE(s string) (u Uint256, err error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, fmt.Errorf("%w: %v", nio.ErrInvalidData, err)
	}
	if len(b) != Uint256Size {
		return u, fmt.Errorf("%w: expected %d bytes, got %d", nio.ErrInvalidData, Uint256Size, len(b))
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	copy(u[:], b)
	return u, nil
}

// BytesLE returns the raw little-endian bytes.
func (u Uint256) BytesLE() []byte {
	b := make([]byte, Uint256Size)
	copy(b, u[:])
	return b
}

// BytesBE returns the reversed, big-endian bytes.
func (u Uint256) BytesBE() []byte {
	b := u.BytesLE()
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// String renders the hash as "0x"-prefixed big-endian hex.
func (u Uint256) String() string {
	return "0x" + hex.EncodeToString(u.BytesBE())
}

// Equals reports whether u and v hold the same bytes.
func (u Uint256) Equals(v Uint256) bool {
	return u == v
}

// Less orders two hashes lexicographically over their canonical byte form.
func (u Uint256) Less(v Uint256) bool {
	return bytes.Compare(u[:], v[:]) < 0
}

// IsZero reports whether every byte is zero.
func (u Uint256) IsZero() bool {
	return u == Uint256{}
}

// EncodeBinary implements io.Serializable.
func (u Uint256) EncodeBinary(w *nio.BinWriter) {
	w.WriteBytes(u[:])
}

// DecodeBinary implements io.Serializable.
func (u *Uint256) DecodeBinary(r *nio.BinReader) {
	r.ReadBytes(u[:])
}

// MarshalJSON renders the hash the same way String does.
func (u Uint256) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}

// UnmarshalJSON parses the hash the same way Uint256DecodeStringLE does.
func (u *Uint256) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := Uint256DecodeStringLE(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}
