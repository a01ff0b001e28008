package block

import (
	"bytes"
	"testing"

	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
)

func sampleTx(nonce uint32) *transaction.Transaction {
	return &transaction.Transaction{
		Version:         0,
		Nonce:           nonce,
		ValidUntilBlock: 1000,
		Signers: []*transaction.Signer{
			{Account: util.Uint160{1}, Scopes: transaction.ScopeCalledByEntry},
		},
		Script:    []byte{0x51},
		Witnesses: []*transaction.Witness{{}},
	}
}

func sampleBlock() *Block {
	txs := []*transaction.Transaction{sampleTx(1), sampleTx(2)}
	h := &Header{
		Version:       0,
		Index:         5,
		PrimaryIndex:  0,
		NextConsensus: util.Uint160{9},
		Witness:       &transaction.Witness{VerificationScript: []byte{0x51}},
	}
	b := &Block{Header: h, Transactions: txs}
	h.MerkleRoot = b.ComputeMerkleRoot()
	h.PrevHash = util.Uint256{7}
	return b
}

func TestBlockEncodeDecodeRoundTrip(t *testing.T) {
	b := sampleBlock()
	buf := &bytes.Buffer{}
	w := io.NewBinWriterFromIO(buf)
	b.EncodeBinary(w)
	if w.Err != nil {
		t.Fatalf("encode: %v", w.Err)
	}

	r := io.NewBinReaderFromIO(bytes.NewReader(buf.Bytes()))
	var got Block
	got.DecodeBinary(r)
	if r.Err != nil {
		t.Fatalf("decode: %v", r.Err)
	}
	if got.Header.Index != b.Header.Index {
		t.Fatalf("index mismatch: got %d, want %d", got.Header.Index, b.Header.Index)
	}
	if len(got.Transactions) != len(b.Transactions) {
		t.Fatalf("tx count mismatch: got %d, want %d", len(got.Transactions), len(b.Transactions))
	}
	if got.Header.Hash() != b.Header.Hash() {
		t.Fatal("header hash mismatch after round trip")
	}
}

func TestBlockValidateAcceptsWellFormed(t *testing.T) {
	b := sampleBlock()
	if err := b.Validate(); err != nil {
		t.Fatalf("expected valid block, got %v", err)
	}
}

func TestBlockValidateRejectsBadMerkleRoot(t *testing.T) {
	b := sampleBlock()
	b.Header.MerkleRoot = util.Uint256{0xff}
	if err := b.Validate(); err != ErrInvalidMerkleRoot {
		t.Fatalf("got %v, want ErrInvalidMerkleRoot", err)
	}
}

func TestBlockValidateRejectsMissingWitness(t *testing.T) {
	b := sampleBlock()
	b.Header.Witness = nil
	if err := b.Validate(); err != ErrNoWitness {
		t.Fatalf("got %v, want ErrNoWitness", err)
	}
}

func TestBlockValidateRejectsDuplicateTx(t *testing.T) {
	b := sampleBlock()
	b.Transactions = append(b.Transactions, b.Transactions[0])
	if err := b.Validate(); err != ErrDuplicateTx {
		t.Fatalf("got %v, want ErrDuplicateTx", err)
	}
}

func TestGenesisHeaderSkipsMerkleCheck(t *testing.T) {
	h := &Header{
		Index:         0,
		PrevHash:      util.Uint256{},
		MerkleRoot:    util.Uint256{0xaa},
		NextConsensus: util.Uint160{1},
		Witness:       &transaction.Witness{VerificationScript: []byte{0x51}},
	}
	b := &Block{Header: h}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected genesis block with arbitrary merkle root to validate, got %v", err)
	}
}
