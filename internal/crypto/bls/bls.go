// Package bls implements BLS12-381 pairing-based signatures with the three
// schemes used by the protocol (Basic, MessageAugmentation,
// ProofOfPossession) and randomized-coefficient batch verification.
// Grounded on github.com/kilic/bls12-381, already a transitive dependency of
// the teacher's P2P/crypto stack.
package bls

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	bls12381 "github.com/kilic/bls12-381"
)

// DomainSeparationTag is the hash-to-curve DST mandated by the protocol.
const DomainSeparationTag = "NEO_BLS_DST"

// Scheme selects which of the three BLS signing conventions a Signature was
// produced under.
type Scheme int

const (
	// Basic requires the verifier to additionally check no two messages in
	// an aggregate are equal.
	Basic Scheme = iota
	// MessageAugmentation prepends the signer's public key to the message
	// before hashing to curve, so aggregate verification needs no distinct-
	// message check.
	MessageAugmentation
	// ProofOfPossession requires a separate proof-of-possession per key,
	// allowing the fastest aggregate verification (no rehash needed).
	ProofOfPossession
)

// MaxAggregateSize bounds the number of signatures a single batch or
// aggregate verification call will process.
const MaxAggregateSize = 4096

// BatchThreshold is the minimum batch size at which randomized linear
// combination is used instead of verifying each signature individually.
const BatchThreshold = 5

// PrivateKey is a BLS12-381 scalar secret key.
type PrivateKey struct {
	scalar *bls12381.Fr
}

// PublicKey is a G1 point.
type PublicKey struct {
	point *bls12381.PointG1
}

// Signature is a G2 point.
type Signature struct {
	point *bls12381.PointG2
}

var g1 = bls12381.NewG1()
var g2 = bls12381.NewG2()

// GenerateKey produces a fresh random secret key.
func GenerateKey() (*PrivateKey, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("bls: rand: %w", err)
	}
	fr := bls12381.NewFr().FromBytes(buf[:])
	return &PrivateKey{scalar: fr}, nil
}

// Public derives the public key g1^sk.
func (sk *PrivateKey) Public() *PublicKey {
	p := g1.New()
	g1.MulScalar(p, g1.One(), sk.scalar)
	return &PublicKey{point: p}
}

// messageFor applies the scheme's message transform before hash-to-curve.
func messageFor(scheme Scheme, pub *PublicKey, msg []byte) []byte {
	if scheme != MessageAugmentation {
		return msg
	}
	out := make([]byte, 0, len(msg)+48)
	out = append(out, g1.ToCompressed(pub.point)...)
	out = append(out, msg...)
	return out
}

// Sign hashes msg to a G2 point (using the protocol DST) and multiplies it
// by the secret scalar.
func (sk *PrivateKey) Sign(scheme Scheme, msg []byte) (*Signature, error) {
	pub := sk.Public()
	hashed, err := g2.HashToCurve(messageFor(scheme, pub, msg), []byte(DomainSeparationTag))
	if err != nil {
		return nil, fmt.Errorf("bls: hash to curve: %w", err)
	}
	sig := g2.New()
	g2.MulScalar(sig, hashed, sk.scalar)
	return &Signature{point: sig}, nil
}

// Verify checks a single signature under the given scheme.
func Verify(scheme Scheme, pub *PublicKey, msg []byte, sig *Signature) bool {
	hashed, err := g2.HashToCurve(messageFor(scheme, pub, msg), []byte(DomainSeparationTag))
	if err != nil {
		return false
	}
	engine := bls12381.NewEngine()
	engine.AddPair(pub.point, hashed)
	engine.AddPairInv(g1.One(), sig.point)
	return engine.Check()
}

// PublicKeyFromCompressed parses a compressed G1 point into a PublicKey.
func PublicKeyFromCompressed(b []byte) (*PublicKey, error) {
	p, err := g1.FromCompressed(b)
	if err != nil {
		return nil, fmt.Errorf("bls: invalid public key: %w", err)
	}
	return &PublicKey{point: p}, nil
}

// SignatureFromCompressed parses a compressed G2 point into a Signature.
func SignatureFromCompressed(b []byte) (*Signature, error) {
	p, err := g2.FromCompressed(b)
	if err != nil {
		return nil, fmt.Errorf("bls: invalid signature: %w", err)
	}
	return &Signature{point: p}, nil
}

// VerifyBasic is a byte-oriented convenience wrapper over Verify for the
// Basic scheme, used by CryptoLib.bls12381Verify where keys/signatures
// arrive as wire bytes rather than parsed points.
func VerifyBasic(pubBytes, msg, sigBytes []byte) (bool, error) {
	pub, err := PublicKeyFromCompressed(pubBytes)
	if err != nil {
		return false, err
	}
	sig, err := SignatureFromCompressed(sigBytes)
	if err != nil {
		return false, err
	}
	return Verify(Basic, pub, msg, sig), nil
}

// Batch accumulates (publicKey, message, signature) triples for a single
// aggregate verification pass.
type Batch struct {
	scheme Scheme
	pubs   []*PublicKey
	msgs   [][]byte
	sigs   []*Signature
}

// NewBatch starts an empty batch for the given scheme.
func NewBatch(scheme Scheme) *Batch {
	return &Batch{scheme: scheme}
}

// Add appends one signature to the batch.
func (b *Batch) Add(pub *PublicKey, msg []byte, sig *Signature) error {
	if len(b.pubs) >= MaxAggregateSize {
		return fmt.Errorf("bls: batch exceeds MaxAggregateSize (%d)", MaxAggregateSize)
	}
	b.pubs = append(b.pubs, pub)
	b.msgs = append(b.msgs, msg)
	b.sigs = append(b.sigs, sig)
	return nil
}

// Verify checks the whole batch. Below BatchThreshold each signature is
// verified independently; at or above it, a randomized linear combination
// with nonzero 64-bit coefficients is used so a single pairing check covers
// the whole batch, and a forged signature cannot cancel out against the
// others except with negligible probability.
func (b *Batch) Verify() (bool, error) {
	if len(b.pubs) > MaxAggregateSize {
		return false, fmt.Errorf("bls: batch exceeds MaxAggregateSize (%d)", MaxAggregateSize)
	}
	if len(b.pubs) == 0 {
		return true, nil
	}
	if len(b.pubs) < BatchThreshold {
		for i := range b.pubs {
			if !Verify(b.scheme, b.pubs[i], b.msgs[i], b.sigs[i]) {
				return false, nil
			}
		}
		return true, nil
	}

	coeffs, err := randomNonzeroCoefficients(len(b.pubs))
	if err != nil {
		return false, err
	}

	engine := bls12381.NewEngine()
	aggSig := g2.New()
	for i := range b.pubs {
		scaledPub := g1.New()
		g1.MulScalar(scaledPub, b.pubs[i].point, coeffs[i])
		hashed, err := g2.HashToCurve(messageFor(b.scheme, b.pubs[i], b.msgs[i]), []byte(DomainSeparationTag))
		if err != nil {
			return false, fmt.Errorf("bls: hash to curve: %w", err)
		}
		engine.AddPair(scaledPub, hashed)

		scaledSig := g2.New()
		g2.MulScalar(scaledSig, b.sigs[i].point, coeffs[i])
		g2.Add(aggSig, aggSig, scaledSig)
	}
	engine.AddPairInv(g1.One(), aggSig)
	return engine.Check(), nil
}

// randomNonzeroCoefficients draws n random 64-bit scalars, each guaranteed
// nonzero, for the batch's linear combination.
func randomNonzeroCoefficients(n int) ([]*bls12381.Fr, error) {
	out := make([]*bls12381.Fr, n)
	var buf [8]byte
	for i := 0; i < n; i++ {
		for {
			if _, err := rand.Read(buf[:]); err != nil {
				return nil, fmt.Errorf("bls: rand: %w", err)
			}
			v := binary.LittleEndian.Uint64(buf[:])
			if v != 0 {
				var scalarBytes [32]byte
				binary.LittleEndian.PutUint64(scalarBytes[:8], v)
				out[i] = bls12381.NewFr().FromBytes(scalarBytes[:])
				break
			}
		}
	}
	return out, nil
}
