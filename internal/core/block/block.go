// Package block implements the block and header model (§3, §4.2): a fixed
// Header carrying the previous-block link, state commitments, and primary
// witness, plus the Block that pairs a Header with its transaction list.
// Hashing follows internal/core/transaction's memoized SHA-256² pattern,
// grounded on the teacher's transaction_hash.go.
package block

import (
	"fmt"

	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/crypto/hash"
	"github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
)

const MaxTransactionsPerBlock = 65535

var (
	ErrInvalidMerkleRoot = fmt.Errorf("merkle root does not match transactions")
	ErrNoWitness         = fmt.Errorf("header witness missing")
	ErrTooManyTx         = fmt.Errorf("too many transactions in block")
	ErrDuplicateTx       = fmt.Errorf("duplicate transaction in block")
)

// Header is the fixed-size portion of a block: everything needed to link it
// to its parent and commit to its body without holding the transactions
// themselves.
type Header struct {
	Version       uint32
	PrevHash      util.Uint256
	MerkleRoot    util.Uint256
	Timestamp     uint64 // milliseconds since Unix epoch
	Nonce         uint64
	Index         uint32
	PrimaryIndex  byte
	NextConsensus util.Uint160
	Witness       *transaction.Witness

	hash *util.Uint256
}

// EncodeBinaryUnsigned writes every field except the witness, the portion
// that is SHA-256² hashed to produce the block hash.
func (h *Header) EncodeBinaryUnsigned(w *io.BinWriter) {
	w.WriteU32LE(h.Version)
	h.PrevHash.EncodeBinary(w)
	h.MerkleRoot.EncodeBinary(w)
	w.WriteU64LE(h.Timestamp)
	w.WriteU64LE(h.Nonce)
	w.WriteU32LE(h.Index)
	w.WriteByte(h.PrimaryIndex)
	h.NextConsensus.EncodeBinary(w)
}

func (h *Header) EncodeBinary(w *io.BinWriter) {
	h.EncodeBinaryUnsigned(w)
	w.WriteByte(1) // witness count is always 1 for a header
	if h.Witness == nil {
		h.Witness = &transaction.Witness{}
	}
	h.Witness.EncodeBinary(w)
}

func (h *Header) DecodeBinary(r *io.BinReader) {
	h.Version = r.ReadU32LE()
	h.PrevHash.DecodeBinary(r)
	h.MerkleRoot.DecodeBinary(r)
	h.Timestamp = r.ReadU64LE()
	h.Nonce = r.ReadU64LE()
	h.Index = r.ReadU32LE()
	h.PrimaryIndex = r.ReadByte()
	h.NextConsensus.DecodeBinary(r)
	n := r.ReadVarUint(1)
	h.Witness = &transaction.Witness{}
	if n == 1 {
		h.Witness.DecodeBinary(r)
	}
	h.hash = nil
}

type headerUnsignedView struct{ h *Header }

func (v headerUnsignedView) EncodeBinary(w *io.BinWriter) { v.h.EncodeBinaryUnsigned(w) }
func (v headerUnsignedView) DecodeBinary(r *io.BinReader) {}

// Hash returns SHA-256² over the unsigned header encoding, memoizing the
// result. A genesis header (Index == 0, zero PrevHash) hashes the same way
// as any other header; the special-casing lives in the persistence
// pipeline, not here.
func (h *Header) Hash() util.Uint256 {
	if h.hash != nil {
		return *h.hash
	}
	v := hash.Hash256(io.ToBytes(headerUnsignedView{h}))
	h.hash = &v
	return v
}

// Block pairs a Header with its ordered transaction list.
type Block struct {
	Header       *Header
	Transactions []*transaction.Transaction
}

func (b *Block) Hash() util.Uint256 { return b.Header.Hash() }

func (b *Block) EncodeBinary(w *io.BinWriter) {
	b.Header.EncodeBinary(w)
	w.WriteVarUint(uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		tx.EncodeBinary(w)
	}
}

func (b *Block) DecodeBinary(r *io.BinReader) {
	b.Header = &Header{}
	b.Header.DecodeBinary(r)
	n := r.ReadVarUint(MaxTransactionsPerBlock)
	b.Transactions = make([]*transaction.Transaction, n)
	for i := range b.Transactions {
		b.Transactions[i] = &transaction.Transaction{}
		b.Transactions[i].DecodeBinary(r)
	}
}

// ComputeMerkleRoot returns the Merkle root over the block's transaction
// hashes, in order, using the protocol's pairwise SHA-256 duplicate-last-
// leaf-when-odd scheme.
func (b *Block) ComputeMerkleRoot() util.Uint256 {
	leaves := make([]util.Uint256, len(b.Transactions))
	for i, tx := range b.Transactions {
		leaves[i] = tx.Hash()
	}
	return hash.MerkleRoot(leaves)
}

// Validate checks the structural invariants from §3/§4.2 that do not
// require access to the chain (previous-header linkage and primary
// selection are checked by the persistence layer, which has that state).
func (b *Block) Validate() error {
	if b.Header == nil {
		return fmt.Errorf("%w: header", ErrNoWitness)
	}
	if b.Header.Witness == nil || len(b.Header.Witness.VerificationScript) == 0 {
		return ErrNoWitness
	}
	if len(b.Transactions) > MaxTransactionsPerBlock {
		return ErrTooManyTx
	}
	seen := make(map[util.Uint256]bool, len(b.Transactions))
	for _, tx := range b.Transactions {
		h := tx.Hash()
		if seen[h] {
			return ErrDuplicateTx
		}
		seen[h] = true
	}
	if b.Header.Index != 0 || !b.Header.PrevHash.IsZero() {
		// Non-genesis blocks commit to their body via the Merkle root;
		// the genesis block's transaction list is fixed at network start
		// and its root is taken as given rather than recomputed here.
		if b.ComputeMerkleRoot() != b.Header.MerkleRoot {
			return ErrInvalidMerkleRoot
		}
	}
	return nil
}
