// Package consensus implements the dBFT consensus envelope and message set
// (§4.9): ExtensiblePayload, the six consensus message kinds it carries, and
// a quorum-tallying state machine that drives block construction once a
// view's Commit messages reach threshold. Grounded on the teacher's
// core/consensus.go family for the "network-adapter-driven round, validator
// weights, quorum threshold" shape, rebuilt against the reference
// protocol's ExtensiblePayload/view-change/commit message set instead of
// the teacher's PoH+PoS round.
package consensus

import (
	"fmt"

	"github.com/synnergy-network/n3node/internal/crypto/hash"
	"github.com/synnergy-network/n3node/internal/crypto/keys"
	nio "github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/util"
)

// CategoryDBFT is the only Extensible payload category this node produces
// or accepts (§4.9 "category string 'dBFT'").
const CategoryDBFT = "dBFT"

var (
	ErrNotConsensusCategory = fmt.Errorf("consensus: payload category is not dBFT")
	ErrEmptyValidRange      = fmt.Errorf("consensus: valid-block range is empty")
	ErrOutsideValidWindow   = fmt.Errorf("consensus: current height is outside the payload's valid-block range")
	ErrInvalidWitness       = fmt.Errorf("consensus: witness verification failed")
)

// ExtensiblePayload carries consensus traffic over the P2P transport,
// addressed to any node rather than a specific peer (§4.9 "Consensus
// envelope (ExtensiblePayload)").
type ExtensiblePayload struct {
	Category        string
	ValidBlockStart uint32
	ValidBlockEnd   uint32
	Sender          util.Uint160
	Data            []byte
	Witness         *transaction.Witness
}

type extensibleUnsignedView struct{ p *ExtensiblePayload }

func (v extensibleUnsignedView) EncodeBinary(w *nio.BinWriter) {
	w.WriteVarString(v.p.Category)
	w.WriteU32LE(v.p.ValidBlockStart)
	w.WriteU32LE(v.p.ValidBlockEnd)
	v.p.Sender.EncodeBinary(w)
	w.WriteVarBytes(v.p.Data)
}
func (v extensibleUnsignedView) DecodeBinary(r *nio.BinReader) {}

// EncodeBinary writes the full payload including its witness.
func (p *ExtensiblePayload) EncodeBinary(w *nio.BinWriter) {
	extensibleUnsignedView{p}.EncodeBinary(w)
	w.WriteByte(1)
	if p.Witness == nil {
		p.Witness = &transaction.Witness{}
	}
	p.Witness.EncodeBinary(w)
}

// DecodeBinary reads the full payload including its witness.
func (p *ExtensiblePayload) DecodeBinary(r *nio.BinReader) {
	p.Category = r.ReadVarString(32)
	p.ValidBlockStart = r.ReadU32LE()
	p.ValidBlockEnd = r.ReadU32LE()
	p.Sender.DecodeBinary(r)
	p.Data = r.ReadVarBytes(nio.MaxVarArraySize)
	n := r.ReadVarUint(1)
	p.Witness = &transaction.Witness{}
	if n == 1 {
		p.Witness.DecodeBinary(r)
	}
}

// Hash returns Hash256 over the payload's unsigned encoding, the digest its
// witness signs over -- the same "encode everything but the witness, then
// hash" split block.Header.Hash uses.
func (p *ExtensiblePayload) Hash() util.Uint256 {
	return hash.Hash256(nio.ToBytes(extensibleUnsignedView{p}))
}

// IsConsensus reports whether p carries a dBFT payload (§4.9
// "is_consensus() <=> category == 'dBFT'").
func (p *ExtensiblePayload) IsConsensus() bool { return p.Category == CategoryDBFT }

// Validate checks p against the current chain height: its category, that
// its valid-block range is non-empty and covers currentHeight, and that its
// witness verifies against Sender (§4.9 "validation: range non-empty and
// within current window, witness verifies against sender").
func (p *ExtensiblePayload) Validate(currentHeight uint32) error {
	if !p.IsConsensus() {
		return ErrNotConsensusCategory
	}
	if p.ValidBlockEnd <= p.ValidBlockStart {
		return ErrEmptyValidRange
	}
	if currentHeight < p.ValidBlockStart || currentHeight >= p.ValidBlockEnd {
		return ErrOutsideValidWindow
	}
	return p.verifyWitness()
}

func (p *ExtensiblePayload) verifyWitness() error {
	if p.Witness == nil || p.Witness.ScriptHash() != p.Sender {
		return ErrInvalidWitness
	}
	msg := p.Hash().BytesLE()
	if pub, ok := standardSigPublicKey(p.Witness.VerificationScript); ok {
		sigs := invocationSignatures(p.Witness.InvocationScript)
		if len(sigs) != 1 {
			return ErrInvalidWitness
		}
		key, err := keys.PublicKeyFromBytes(pub)
		if err != nil || !keys.Verify(key, msg, sigs[0]) {
			return ErrInvalidWitness
		}
		return nil
	}
	if m, pubKeys, ok := standardMultiSigKeys(p.Witness.VerificationScript); ok {
		sigs := invocationSignatures(p.Witness.InvocationScript)
		if len(sigs) != m || !verifyMultiSig(pubKeys, sigs, msg) {
			return ErrInvalidWitness
		}
		return nil
	}
	return ErrInvalidWitness
}
