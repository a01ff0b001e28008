package node

import (
	"encoding/binary"
	"testing"

	"github.com/synnergy-network/n3node/internal/core/block"
	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/ledger"
	"github.com/synnergy-network/n3node/internal/store"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

func testKey(t *testing.T) *keys.PrivateKey {
	t.Helper()
	priv, err := keys.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	return priv
}

func singleSigScript(pub *keys.PublicKey) []byte {
	out := []byte{byte(vm.OpPushData1), byte(keys.PublicKeySize)}
	out = append(out, pub.Bytes()...)
	out = append(out, byte(vm.OpSyscall))
	idBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(idBuf, vm.SyscallHash("System.Crypto.CheckSig"))
	return append(out, idBuf...)
}

func pushDataInvocation(items ...[]byte) []byte {
	var out []byte
	for _, data := range items {
		out = append(out, byte(vm.OpPushData1), byte(len(data)))
		out = append(out, data...)
	}
	return out
}

func signedTx(t *testing.T, priv *keys.PrivateKey, nonce uint32) *transaction.Transaction {
	t.Helper()
	pub := priv.PublicKey()
	account := util.Uint160(pub.ScriptHash())
	tx := &transaction.Transaction{
		Version:         0,
		Nonce:           nonce,
		SystemFee:       0,
		NetworkFee:      100000,
		ValidUntilBlock: 1000,
		Signers:         []*transaction.Signer{{Account: account, Scopes: transaction.ScopeCalledByEntry}},
		Script:          []byte{0x40},
	}
	sig, err := priv.Sign(tx.Hash().BytesLE())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tx.Witnesses = []*transaction.Witness{{
		InvocationScript:   pushDataInvocation(sig),
		VerificationScript: singleSigScript(pub),
	}}
	return tx
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	mem := store.NewMemStore()
	genesis := &block.Block{Header: &block.Header{
		Index:         0,
		Timestamp:     1700000000000,
		NextConsensus: util.Uint160{},
		Witness:       &transaction.Witness{VerificationScript: []byte{0x51}},
	}}
	chain, err := ledger.NewLedger(mem, ledger.Config{Genesis: genesis})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	mempool := ledger.NewMempool(100, 10, 0)
	return New(chain, mempool, nil, nil)
}

func TestOrchestratorSubmitTransactionAccepted(t *testing.T) {
	o := newTestOrchestrator(t)
	priv := testKey(t)
	tx := signedTx(t, priv, 1)
	if err := o.SubmitTransaction(tx); err != nil {
		t.Fatalf("SubmitTransaction: %v", err)
	}
	if o.Health().MempoolSize != 1 {
		t.Fatalf("MempoolSize = %d, want 1", o.Health().MempoolSize)
	}
}

func TestOrchestratorSubmitTransactionRejectsBadWitness(t *testing.T) {
	o := newTestOrchestrator(t)
	priv := testKey(t)
	tx := signedTx(t, priv, 1)
	tx.Witnesses[0].InvocationScript = pushDataInvocation(make([]byte, 64))
	if err := o.SubmitTransaction(tx); err == nil {
		t.Fatalf("expected a witness verification error")
	}
}

func TestOrchestratorHealthReportsHeightAndMempool(t *testing.T) {
	o := newTestOrchestrator(t)
	h := o.Health()
	if h.BlockHeight != 0 {
		t.Fatalf("BlockHeight = %d, want 0", h.BlockHeight)
	}
	if h.PeerCount != 0 {
		t.Fatalf("PeerCount = %d, want 0 with a nil net", h.PeerCount)
	}
}

func TestOrchestratorPersistBlockAdvancesHeight(t *testing.T) {
	o := newTestOrchestrator(t)
	tip, err := o.BestBlockHash()
	if err != nil {
		t.Fatalf("BestBlockHash: %v", err)
	}
	child := &block.Block{Header: &block.Header{
		Index:         1,
		PrevHash:      tip,
		Timestamp:     1700000015000,
		NextConsensus: util.Uint160{},
		Witness:       &transaction.Witness{VerificationScript: []byte{0x51}},
	}}
	if err := o.PersistBlock(child); err != nil {
		t.Fatalf("PersistBlock: %v", err)
	}
	if got := o.BlockHeight(); got != 1 {
		t.Fatalf("BlockHeight = %d, want 1", got)
	}
	if o.Health().LastPersistDuration < 0 {
		t.Fatalf("LastPersistDuration should be non-negative")
	}
}
