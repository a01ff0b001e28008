package ledger

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/store"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

func TestNewLedgerPersistsGenesis(t *testing.T) {
	mem := store.NewMemStore()
	genesis := simpleGenesis(util.Uint160{})
	l, err := NewLedger(mem, Config{Genesis: genesis})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	if got := l.BlockHeight(); got != 0 {
		t.Fatalf("BlockHeight = %d, want 0", got)
	}
	best, err := l.BestBlockHash()
	if err != nil {
		t.Fatalf("BestBlockHash: %v", err)
	}
	if best != genesis.Hash() {
		t.Fatalf("BestBlockHash = %s, want %s", best, genesis.Hash())
	}
	blk, err := l.GetBlock(genesis.Hash().BytesLE(), nil)
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if blk == nil || blk.Hash() != genesis.Hash() {
		t.Fatalf("GetBlock returned wrong block")
	}
}

func TestNewLedgerRequiresGenesisOnEmptyStore(t *testing.T) {
	mem := store.NewMemStore()
	if _, err := NewLedger(mem, Config{}); err != ErrNoGenesis {
		t.Fatalf("got %v, want ErrNoGenesis", err)
	}
}

func TestNewLedgerReopensWithoutReplayingGenesis(t *testing.T) {
	mem := store.NewMemStore()
	genesis := simpleGenesis(util.Uint160{})
	if _, err := NewLedger(mem, Config{Genesis: genesis}); err != nil {
		t.Fatalf("first open: %v", err)
	}
	l2, err := NewLedger(mem, Config{Genesis: genesis})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if l2.BlockHeight() != 0 {
		t.Fatalf("reopened BlockHeight = %d, want 0", l2.BlockHeight())
	}
}

func TestPersistBlockExecutesTransactionAndRecordsState(t *testing.T) {
	mem := store.NewMemStore()
	genesis := simpleGenesis(util.Uint160{})
	l, err := NewLedger(mem, Config{Genesis: genesis})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	priv := newTestKey(t)
	tx := &transaction.Transaction{
		Version:         0,
		Nonce:           1,
		SystemFee:       10_000_000,
		NetworkFee:      1_000_000,
		ValidUntilBlock: 100,
		Script:          []byte{byte(vm.OpPush0) + 1},
	}
	signTestTx(t, tx, priv)

	blk := childBlock(genesis, []*transaction.Transaction{tx})
	if err := l.Persist(blk); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	if got := l.BlockHeight(); got != 1 {
		t.Fatalf("BlockHeight = %d, want 1", got)
	}
	best, err := l.BestBlockHash()
	if err != nil {
		t.Fatalf("BestBlockHash: %v", err)
	}
	if best != blk.Hash() {
		t.Fatalf("BestBlockHash = %s, want %s", best, blk.Hash())
	}

	gotTx, idx, state, err := l.GetTransaction(tx.Hash().BytesLE())
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if gotTx == nil {
		t.Fatalf("GetTransaction returned nil")
	}
	if idx != 1 {
		t.Fatalf("recorded block index = %d, want 1", idx)
	}
	if state != vm.VMStateHalt {
		t.Fatalf("recorded state = %v, want Halt", state)
	}
}

func TestPersistRejectsOutOfOrderBlock(t *testing.T) {
	mem := store.NewMemStore()
	genesis := simpleGenesis(util.Uint160{})
	l, err := NewLedger(mem, Config{Genesis: genesis})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	skip := childBlock(genesis, nil)
	skip.Header.Index = 2
	if err := l.Persist(skip); err == nil {
		t.Fatalf("expected out-of-order rejection")
	}
}

func TestPersistFaultedTransactionDoesNotAbortBlock(t *testing.T) {
	mem := store.NewMemStore()
	genesis := simpleGenesis(util.Uint160{})
	l, err := NewLedger(mem, Config{Genesis: genesis})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	priv := newTestKey(t)
	bad := &transaction.Transaction{
		Version:         0,
		Nonce:           1,
		SystemFee:       10_000_000,
		NetworkFee:      1_000_000,
		ValidUntilBlock: 100,
		Script:          []byte{0xFF}, // unknown opcode: faults
	}
	signTestTx(t, bad, priv)

	blk := childBlock(genesis, []*transaction.Transaction{bad})
	if err := l.Persist(blk); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if got := l.BlockHeight(); got != 1 {
		t.Fatalf("BlockHeight = %d, want 1 (block itself still commits)", got)
	}
	_, _, state, err := l.GetTransaction(bad.Hash().BytesLE())
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if state != vm.VMStateFault {
		t.Fatalf("recorded state = %v, want Fault", state)
	}
}
