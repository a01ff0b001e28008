// Package hash implements the two composite hash functions used throughout
// the protocol (Hash160, Hash256) and the pairwise Merkle tree over
// transaction hashes. Grounded on the teacher's merkle_tree_operations.go
// (pairwise SHA-256, duplicate-last-leaf-when-odd) generalized from SHA-256
// leaves to the fixed Uint256 domain this protocol hashes over.
package hash

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD-160 is a consensus-mandated primitive, not a TLS cipher choice.

	"github.com/synnergy-network/n3node/internal/util"
)

// Sha256 returns the single SHA-256 digest of data as a Uint256.
func Sha256(data []byte) util.Uint256 {
	return util.Uint256(sha256.Sum256(data))
}

// Hash256 computes SHA-256(SHA-256(data)), the block/transaction hash
// function.
func Hash256(data []byte) util.Uint256 {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return util.Uint256(second)
}

// Hash160 computes RIPEMD160(SHA256(data)), the script-hash function used
// for contract and account addresses.
func Hash160(data []byte) util.Uint160 {
	first := sha256.Sum256(data)
	r := ripemd160.New()
	_, _ = r.Write(first[:]) // ripemd160.digest.Write never errors.
	sum := r.Sum(nil)
	var out util.Uint160
	copy(out[:], sum)
	return out
}

// Checksum returns the first 4 bytes of Hash256(data), used by the NEF
// file's trailing integrity checksum.
func Checksum(data []byte) []byte {
	h := Hash256(data)
	be := h.BytesLE() // Hash256 checksum is taken over the raw digest bytes, not display order.
	return be[:4]
}
