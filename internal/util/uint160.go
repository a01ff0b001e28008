// Package util provides the fixed-size hash value types shared across the
// node: 160-bit script hashes and 256-bit block/transaction hashes. Both are
// stored little-endian internally and render as big-endian hex, matching
// the reference network's on-wire and display conventions.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // consensus primitive, see internal/crypto/hash.

	nio "github.com/synnergy-network/n3node/internal/io"
)

// Uint160Size is the byte length of a Uint160.
const Uint160Size = 20

// Uint160 is a 20-byte value, stored little-endian, used for script hashes
// (contract and account addresses).
type Uint160 [Uint160Size]byte

// Uint160DecodeBytesLE builds a Uint160 from a little-endian byte slice.
func Uint160DecodeBytesLE(b []byte) (u Uint160, err error) {
	if len(b) != Uint160Size {
		return u, fmt.Errorf("%w: expected %d bytes, got %d", nio.ErrInvalidData, Uint160Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// Uint160DecodeStringLE parses a big-endian hex string (optional 0x prefix)
// into a Uint160.
func Uint160DecodeStringLE(s string) (u Uint160, err error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, fmt.Errorf("%w: %v", nio.ErrInvalidData, err)
	}
	if len(b) != Uint160Size {
		return u, fmt.Errorf("%w: expected %d bytes, got %d", nio.ErrInvalidData, Uint160Size, len(b))
	}
	// string is big-endian display order; reverse into little-endian storage.
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	copy(u[:], b)
	return u, nil
}

// BytesLE returns the raw little-endian bytes.
func (u Uint160) BytesLE() []byte {
	b := make([]byte, Uint160Size)
	copy(b, u[:])
	return b
}

// BytesBE returns the reversed, big-endian bytes used for display/hashing
// contexts that expect the conventional byte order.
func (u Uint160) BytesBE() []byte {
	b := u.BytesLE()
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// String renders the hash as "0x"-prefixed big-endian hex.
func (u Uint160) String() string {
	return "0x" + hex.EncodeToString(u.BytesBE())
}

// Equals reports whether u and v hold the same bytes.
func (u Uint160) Equals(v Uint160) bool {
	return u == v
}

// Less orders two hashes lexicographically over their canonical (little
// endian, stored) byte form.
func (u Uint160) Less(v Uint160) bool {
	return bytes.Compare(u[:], v[:]) < 0
}

// IsZero reports whether every byte is zero.
func (u Uint160) IsZero() bool {
	return u == Uint160{}
}

// EncodeBinary implements io.Serializable.
func (u Uint160) EncodeBinary(w *nio.BinWriter) {
	w.WriteBytes(u[:])
}

// DecodeBinary implements io.Serializable.
func (u *Uint160) DecodeBinary(r *nio.BinReader) {
	r.ReadBytes(u[:])
}

// Hash160OfString derives a deterministic script hash from an arbitrary
// name, used by native contracts (which have no NEF to hash) to obtain a
// stable identity seeded from their canonical name instead.
func Hash160OfString(name string) Uint160 {
	first := sha256.Sum256([]byte(name))
	r := ripemd160.New()
	_, _ = r.Write(first[:]) // ripemd160.digest.Write never errors.
	sum := r.Sum(nil)
	var out Uint160
	copy(out[:], sum)
	return out
}

// MarshalJSON renders the hash the same way String does.
func (u Uint160) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}

// UnmarshalJSON parses the hash the same way Uint160DecodeStringLE does.
func (u *Uint160) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := Uint160DecodeStringLE(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}
