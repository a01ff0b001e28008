package ledger

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/core/transaction"
)

func feeTx(t *testing.T, nonce uint32, networkFee int64) *transaction.Transaction {
	t.Helper()
	priv := newTestKey(t)
	tx := &transaction.Transaction{
		Version:         0,
		Nonce:           nonce,
		SystemFee:       0,
		NetworkFee:      networkFee,
		ValidUntilBlock: 1000,
		Script:          []byte{0x10},
	}
	signTestTx(t, tx, priv)
	return tx
}

func TestMempoolTryAddAndRank(t *testing.T) {
	p := NewMempool(10, 10, 0)
	tx1 := feeTx(t, 1, 1000)
	tx2 := feeTx(t, 2, 2000)

	if err := p.TryAdd(tx1, 0); err != nil {
		t.Fatalf("TryAdd tx1: %v", err)
	}
	if err := p.TryAdd(tx2, 0); err != nil {
		t.Fatalf("TryAdd tx2: %v", err)
	}
	verified := p.Verified()
	if len(verified) != 2 || verified[0].Hash() != tx2.Hash() {
		t.Fatalf("expected tx2 (higher fee-per-byte) ranked first")
	}
}

func TestMempoolEvictsLowestRankOnOverflow(t *testing.T) {
	p := NewMempool(2, 10, 0)
	tx1 := feeTx(t, 1, 1000)
	tx2 := feeTx(t, 2, 2000)
	tx3 := feeTx(t, 3, 1500)

	if err := p.TryAdd(tx1, 0); err != nil {
		t.Fatalf("TryAdd tx1: %v", err)
	}
	if err := p.TryAdd(tx2, 0); err != nil {
		t.Fatalf("TryAdd tx2: %v", err)
	}
	if err := p.TryAdd(tx3, 0); err != nil {
		t.Fatalf("TryAdd tx3: %v", err)
	}
	if p.Has(tx1.Hash()) {
		t.Fatalf("tx1 should have been evicted")
	}
	if !p.Has(tx2.Hash()) || !p.Has(tx3.Hash()) {
		t.Fatalf("expected pool to contain {tx2, tx3}")
	}
	if p.Len() != 2 {
		t.Fatalf("pool length = %d, want 2", p.Len())
	}
}

func TestMempoolRejectsWhenIncomingIsLowestRank(t *testing.T) {
	p := NewMempool(2, 10, 0)
	tx1 := feeTx(t, 1, 2000)
	tx2 := feeTx(t, 2, 1500)
	tx3 := feeTx(t, 3, 100)

	if err := p.TryAdd(tx1, 0); err != nil {
		t.Fatalf("TryAdd tx1: %v", err)
	}
	if err := p.TryAdd(tx2, 0); err != nil {
		t.Fatalf("TryAdd tx2: %v", err)
	}
	if err := p.TryAdd(tx3, 0); err != ErrMempoolFull {
		t.Fatalf("got %v, want ErrMempoolFull", err)
	}
	if !p.Has(tx1.Hash()) || !p.Has(tx2.Hash()) {
		t.Fatalf("pool should still contain {tx1, tx2}")
	}
}

func TestMempoolRejectsExpiredTransaction(t *testing.T) {
	p := NewMempool(10, 10, 0)
	tx := feeTx(t, 1, 1000)
	tx.ValidUntilBlock = 5
	if err := p.TryAdd(tx, 10); err != ErrExpired {
		t.Fatalf("got %v, want ErrExpired", err)
	}
}

func TestMempoolRejectsInsufficientFee(t *testing.T) {
	p := NewMempool(10, 10, 1000)
	tx := feeTx(t, 1, 1)
	if err := p.TryAdd(tx, 0); err != ErrInsufficientFee {
		t.Fatalf("got %v, want ErrInsufficientFee", err)
	}
}

func TestMempoolEnforcesPerSenderLimit(t *testing.T) {
	priv := newTestKey(t)
	p := NewMempool(10, 1, 0)

	tx1 := &transaction.Transaction{Version: 0, Nonce: 1, NetworkFee: 1000, ValidUntilBlock: 100, Script: []byte{0x10}}
	signTestTx(t, tx1, priv)
	tx2 := &transaction.Transaction{Version: 0, Nonce: 2, NetworkFee: 1000, ValidUntilBlock: 100, Script: []byte{0x10}}
	signTestTx(t, tx2, priv)

	if err := p.TryAdd(tx1, 0); err != nil {
		t.Fatalf("TryAdd tx1: %v", err)
	}
	if err := p.TryAdd(tx2, 0); err != ErrSenderLimitReached {
		t.Fatalf("got %v, want ErrSenderLimitReached", err)
	}
}

func TestMempoolInvalidateRemovesExpired(t *testing.T) {
	p := NewMempool(10, 10, 0)
	tx := feeTx(t, 1, 1000)
	tx.ValidUntilBlock = 5
	if err := p.TryAdd(tx, 0); err != nil {
		t.Fatalf("TryAdd: %v", err)
	}
	p.Invalidate(5, nil)
	if p.Has(tx.Hash()) {
		t.Fatalf("expected expired transaction to be invalidated")
	}
}
