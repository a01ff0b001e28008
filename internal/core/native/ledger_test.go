package native

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/core/block"
	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

func testSignedTx(nonce uint32) *transaction.Transaction {
	tx := &transaction.Transaction{
		Version:          0,
		Nonce:            nonce,
		SystemFee:        0,
		NetworkFee:       0,
		ValidUntilBlock:  1000,
		Signers:          []*transaction.Signer{{Account: util.Uint160{0x01}}},
		Script:           []byte{0x51},
		Witnesses:        []*transaction.Witness{{InvocationScript: []byte{}, VerificationScript: []byte{0x51}}},
	}
	return tx
}

func testGenesisHeaderBlock(index uint32, txs []*transaction.Transaction) *block.Block {
	return &block.Block{
		Header: &block.Header{
			Version:       0,
			Index:         index,
			Timestamp:     1,
			NextConsensus: util.Uint160{},
			Witness:       &transaction.Witness{InvocationScript: []byte{}, VerificationScript: []byte{}},
		},
		Transactions: txs,
	}
}

func TestLedgerOnPersistThenGetTransaction(t *testing.T) {
	l := NewLedgerContract(0)
	e := newTestEngine()

	tx := testSignedTx(1)
	blk := testGenesisHeaderBlock(1, []*transaction.Transaction{tx})
	blk.Header.MerkleRoot = blk.ComputeMerkleRoot()

	if err := l.OnPersist(e, blk); err != nil {
		t.Fatalf("OnPersist: %v", err)
	}

	got, err := Invoke(l, e, "getTransaction", []any{tx.Hash().BytesLE()})
	if err != nil {
		t.Fatalf("getTransaction: %v", err)
	}
	rec, ok := got.(*TxRecord)
	if !ok {
		t.Fatalf("expected *TxRecord, got %T", got)
	}
	if rec.VMState != vm.VMStateNone {
		t.Fatalf("expected VMStateNone before PostPersist, got %v", rec.VMState)
	}
	if rec.Tx.Hash() != tx.Hash() {
		t.Fatalf("expected stored tx hash to match original")
	}
}

func TestLedgerPostPersistUpdatesState(t *testing.T) {
	l := NewLedgerContract(0)
	e := newTestEngine()

	tx := testSignedTx(2)
	blk := testGenesisHeaderBlock(1, []*transaction.Transaction{tx})
	blk.Header.MerkleRoot = blk.ComputeMerkleRoot()

	if err := l.OnPersist(e, blk); err != nil {
		t.Fatalf("OnPersist: %v", err)
	}
	if err := l.PostPersist(e, blk, []vm.VMState{vm.VMStateHalt}); err != nil {
		t.Fatalf("PostPersist: %v", err)
	}

	got, err := Invoke(l, e, "getTransaction", []any{tx.Hash().BytesLE()})
	if err != nil {
		t.Fatalf("getTransaction: %v", err)
	}
	rec := got.(*TxRecord)
	if rec.VMState != vm.VMStateHalt {
		t.Fatalf("expected VMStateHalt after PostPersist, got %v", rec.VMState)
	}
}

func TestLedgerGetBlockByIndexAndCurrentIndex(t *testing.T) {
	l := NewLedgerContract(0)
	e := newTestEngine()

	blk := testGenesisHeaderBlock(5, nil)
	blk.Header.PrevHash = util.Uint256{0x01}
	blk.Header.MerkleRoot = blk.ComputeMerkleRoot()

	if err := l.OnPersist(e, blk); err != nil {
		t.Fatalf("OnPersist: %v", err)
	}

	idx, err := Invoke(l, e, "currentIndex", nil)
	if err != nil {
		t.Fatalf("currentIndex: %v", err)
	}
	if idx.(int64) != 5 {
		t.Fatalf("expected current index 5, got %v", idx)
	}

	got, err := Invoke(l, e, "getBlock", []any{int64(5)})
	if err != nil {
		t.Fatalf("getBlock: %v", err)
	}
	gotBlk, ok := got.(*block.Block)
	if !ok {
		t.Fatalf("expected *block.Block, got %T", got)
	}
	if gotBlk.Hash() != blk.Hash() {
		t.Fatalf("expected stored block hash to match original")
	}
}

func TestLedgerUnknownTransactionReturnsNil(t *testing.T) {
	l := NewLedgerContract(0)
	e := newTestEngine()
	got, err := Invoke(l, e, "getTransaction", []any{util.Uint256{0x99}.BytesLE()})
	if err != nil {
		t.Fatalf("getTransaction: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown transaction, got %v", got)
	}
}
