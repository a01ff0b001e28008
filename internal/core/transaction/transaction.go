package transaction

import (
	"fmt"

	"github.com/synnergy-network/n3node/internal/crypto/hash"
	"github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
)

const (
	MaxTransactionSize  = 102_400
	MaxScriptSize       = 65535
	MaxSignersOrWitness = 16
	MaxAttributes       = 16
)

var (
	ErrInvalidVersion    = fmt.Errorf("invalid transaction version")
	ErrNoSigners         = fmt.Errorf("transaction has no signers")
	ErrTooManySigners    = fmt.Errorf("too many signers")
	ErrDuplicateSigner   = fmt.Errorf("duplicate signer account")
	ErrTooManyAttributes = fmt.Errorf("too many attributes")
	ErrDuplicateAttr     = fmt.Errorf("duplicate non-multiple attribute")
	ErrWitnessMismatch   = fmt.Errorf("witness count does not match signer count")
	ErrEmptyScript       = fmt.Errorf("transaction script is empty")
	ErrNegativeFee       = fmt.Errorf("fee must be non-negative")
	ErrTooLarge          = fmt.Errorf("transaction exceeds maximum size")
)

// Transaction is the protocol's unit of state change (§3). Once Hash has
// been computed it is memoized; callers must not mutate a hashed
// transaction's fields afterward.
type Transaction struct {
	Version         byte
	Nonce           uint32
	SystemFee       int64
	NetworkFee      int64
	ValidUntilBlock uint32
	Signers         []*Signer
	Attributes      []*Attribute
	Script          []byte
	Witnesses       []*Witness

	hash *util.Uint256
}

// EncodeBinaryUnsigned writes every field except the witnesses — the
// portion that is SHA-256² hashed to produce the transaction id.
func (tx *Transaction) EncodeBinaryUnsigned(w *io.BinWriter) {
	w.WriteByte(tx.Version)
	w.WriteU32LE(tx.Nonce)
	w.WriteU64LE(uint64(tx.SystemFee))
	w.WriteU64LE(uint64(tx.NetworkFee))
	w.WriteU32LE(tx.ValidUntilBlock)
	w.WriteVarUint(uint64(len(tx.Signers)))
	for _, s := range tx.Signers {
		s.EncodeBinary(w)
	}
	w.WriteVarUint(uint64(len(tx.Attributes)))
	for _, a := range tx.Attributes {
		a.EncodeBinary(w)
	}
	w.WriteVarBytes(tx.Script)
}

func (tx *Transaction) EncodeBinary(w *io.BinWriter) {
	tx.EncodeBinaryUnsigned(w)
	w.WriteVarUint(uint64(len(tx.Witnesses)))
	for _, wit := range tx.Witnesses {
		wit.EncodeBinary(w)
	}
}

func (tx *Transaction) DecodeBinary(r *io.BinReader) {
	tx.Version = r.ReadByte()
	tx.Nonce = r.ReadU32LE()
	tx.SystemFee = int64(r.ReadU64LE())
	tx.NetworkFee = int64(r.ReadU64LE())
	tx.ValidUntilBlock = r.ReadU32LE()

	nSigners := r.ReadVarUint(MaxSignersOrWitness)
	tx.Signers = make([]*Signer, nSigners)
	for i := range tx.Signers {
		tx.Signers[i] = &Signer{}
		tx.Signers[i].DecodeBinary(r)
	}

	maxAttrs := uint64(MaxAttributes)
	if len(tx.Signers) < MaxAttributes {
		maxAttrs = uint64(MaxAttributes - len(tx.Signers))
	}
	nAttrs := r.ReadVarUint(maxAttrs)
	tx.Attributes = make([]*Attribute, nAttrs)
	for i := range tx.Attributes {
		tx.Attributes[i] = &Attribute{}
		tx.Attributes[i].DecodeBinary(r)
	}

	tx.Script = r.ReadVarBytes(MaxScriptSize)

	nWit := r.ReadVarUint(MaxSignersOrWitness)
	tx.Witnesses = make([]*Witness, nWit)
	for i := range tx.Witnesses {
		tx.Witnesses[i] = &Witness{}
		tx.Witnesses[i].DecodeBinary(r)
	}
	tx.hash = nil
}

// Hash returns SHA-256² over the unsigned portion, memoizing the result.
func (tx *Transaction) Hash() util.Uint256 {
	if tx.hash != nil {
		return *tx.hash
	}
	h := hash.Hash256(io.ToBytes(unsignedView{tx}))
	tx.hash = &h
	return h
}

// unsignedView adapts Transaction to Serializable using only its unsigned
// encoding, so io.ToBytes can be reused for hashing without a bespoke
// buffer dance.
type unsignedView struct{ tx *Transaction }

func (v unsignedView) EncodeBinary(w *io.BinWriter) { v.tx.EncodeBinaryUnsigned(w) }
func (v unsignedView) DecodeBinary(r *io.BinReader) {}

// Sender returns the first signer's account, the fee-payer by convention.
func (tx *Transaction) Sender() util.Uint160 {
	if len(tx.Signers) == 0 {
		return util.Uint160{}
	}
	return tx.Signers[0].Account
}

// Size returns the encoded wire size including witnesses.
func (tx *Transaction) Size() int { return len(io.ToBytes(tx)) }

// Validate checks the structural invariants from §3 that do not require
// chain state (signature/witness verification happens in the mempool/
// ledger layer against a snapshot).
func (tx *Transaction) Validate() error {
	if tx.Version != 0 {
		return ErrInvalidVersion
	}
	if tx.SystemFee < 0 || tx.NetworkFee < 0 {
		return ErrNegativeFee
	}
	if len(tx.Signers) == 0 {
		return ErrNoSigners
	}
	if len(tx.Signers) > MaxSignersOrWitness {
		return ErrTooManySigners
	}
	seen := make(map[util.Uint160]bool, len(tx.Signers))
	for _, s := range tx.Signers {
		if seen[s.Account] {
			return ErrDuplicateSigner
		}
		seen[s.Account] = true
	}
	if len(tx.Attributes) > MaxSignersOrWitness-len(tx.Signers) {
		return ErrTooManyAttributes
	}
	seenAttr := make(map[AttributeType]bool)
	for _, a := range tx.Attributes {
		if a.Type.notMultiple() {
			if seenAttr[a.Type] {
				return ErrDuplicateAttr
			}
			seenAttr[a.Type] = true
		}
	}
	if len(tx.Witnesses) != len(tx.Signers) {
		return ErrWitnessMismatch
	}
	if len(tx.Script) == 0 {
		return ErrEmptyScript
	}
	if len(tx.Script) > MaxScriptSize {
		return fmt.Errorf("%w: script", ErrTooLarge)
	}
	if tx.Size() > MaxTransactionSize {
		return ErrTooLarge
	}
	return nil
}

// FeePerByte returns NetworkFee divided by the encoded size, used to order
// the mempool's verified pool (§4.8).
func (tx *Transaction) FeePerByte() int64 {
	size := tx.Size()
	if size == 0 {
		return 0
	}
	return tx.NetworkFee / int64(size)
}
