// Package keys implements secp256r1 (NIST P-256) ECDSA key handling:
// compressed 33-byte public keys and 64-byte (r||s) fixed-width,
// low-s-canonicalized signatures.
//
// This is one of the few places in the node that deliberately uses only the
// Go standard library (crypto/ecdsa, crypto/elliptic) rather than a
// dependency from the reference corpus: every third-party curve library
// present anywhere in the example pack (decred/dcrd/dcrec/secp256k1,
// kilic/bls12-381, go-ethereum/crypto/secp256k1) implements a *different*
// curve — secp256k1 (Bitcoin/Ethereum) or the BLS12-381 pairing curve —
// neither of which is interchangeable with secp256r1. The standard
// library's P-256 implementation is constant-time and is the canonical
// source for this curve in the Go ecosystem; no wrapper in the corpus adds
// anything beyond what crypto/ecdsa already provides for this specific
// primitive.
package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/synnergy-network/n3node/internal/crypto/hash"
	nio "github.com/synnergy-network/n3node/internal/io"
)

// PublicKeySize is the length of a compressed secp256r1 public key.
const PublicKeySize = 33

// SignatureSize is the length of a fixed-width (r||s) ECDSA signature.
const SignatureSize = 64

// PrivateKey wraps a secp256r1 private key.
type PrivateKey struct {
	ecdsa.PrivateKey
}

// PublicKey wraps a secp256r1 public key; Bytes computes its compressed
// encoding on each call.
type PublicKey struct {
	ecdsa.PublicKey
}

// NewPrivateKey generates a fresh secp256r1 key pair.
func NewPrivateKey() (*PrivateKey, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keys: generate: %w", err)
	}
	return &PrivateKey{*priv}, nil
}

// PublicKey returns the public half of the key pair.
func (p *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{p.PrivateKey.PublicKey}
}

// Sign produces a low-s-canonicalized, fixed-width 64-byte signature over
// the Hash256 digest of msg.
func (p *PrivateKey) Sign(msg []byte) ([]byte, error) {
	digest := hash.Hash256(msg)
	r, s, err := ecdsa.Sign(rand.Reader, &p.PrivateKey, digest[:])
	if err != nil {
		return nil, fmt.Errorf("keys: sign: %w", err)
	}
	s = canonicalizeLowS(s)
	return packSignature(r, s), nil
}

// Bytes returns the compressed 33-byte encoding of the public key.
func (pub *PublicKey) Bytes() []byte {
	return elliptic.MarshalCompressed(elliptic.P256(), pub.X, pub.Y)
}

// PublicKeyFromBytes decodes a compressed 33-byte public key.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	if len(b) != PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes, got %d", nio.ErrInvalidData, PublicKeySize, len(b))
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), b)
	if x == nil {
		return nil, fmt.Errorf("%w: invalid compressed point", nio.ErrInvalidData)
	}
	return &PublicKey{ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}}, nil
}

// ScriptHash returns Hash160 of this key's single-signature verification
// script (PUSHDATA1 <compressed key> SYSCALL System.Crypto.CheckSig), the
// account address this key signs for.
func (pub *PublicKey) ScriptHash() [20]byte {
	id := hash.Sha256([]byte("System.Crypto.CheckSig"))
	script := make([]byte, 0, 2+PublicKeySize+5)
	script = append(script, 0x0C, PublicKeySize) // PUSHDATA1
	script = append(script, pub.Bytes()...)
	script = append(script, 0x41) // SYSCALL
	script = append(script, id[:4]...)
	return hash.Hash160(script)
}

// Verify checks a 64-byte (r||s) signature over the Hash256 digest of msg.
func Verify(pub *PublicKey, msg, sig []byte) bool {
	if len(sig) != SignatureSize {
		return false
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	digest := hash.Hash256(msg)
	return ecdsa.Verify(&pub.PublicKey, digest[:], r, s)
}

// n256 is the order of the secp256r1 base point.
var n256 = elliptic.P256().Params().N

// canonicalizeLowS flips s to n-s whenever s > n/2, the standard low-s
// malleability-avoidance rule.
func canonicalizeLowS(s *big.Int) *big.Int {
	half := new(big.Int).Rsh(n256, 1)
	if s.Cmp(half) > 0 {
		return new(big.Int).Sub(n256, s)
	}
	return s
}

// packSignature renders r and s as a fixed 64-byte big-endian concatenation.
func packSignature(r, s *big.Int) []byte {
	out := make([]byte, SignatureSize)
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return out
}
