package ledger

import (
	"encoding/binary"
	"testing"

	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/vm"
)

func signedTransferTx(t *testing.T) *transaction.Transaction {
	t.Helper()
	priv := newTestKey(t)
	tx := &transaction.Transaction{
		Version:         0,
		Nonce:           1,
		SystemFee:       1000,
		NetworkFee:      1000,
		ValidUntilBlock: 100,
		Script:          []byte{0x10},
	}
	signTestTx(t, tx, priv)
	return tx
}

func TestVerifyWitnessesStandardSingleSig(t *testing.T) {
	tx := signedTransferTx(t)
	if err := VerifyWitnesses(tx); err != nil {
		t.Fatalf("VerifyWitnesses: %v", err)
	}
}

func TestVerifyWitnessesRejectsTamperedSignature(t *testing.T) {
	tx := signedTransferTx(t)
	tx.Witnesses[0].InvocationScript[len(tx.Witnesses[0].InvocationScript)-1] ^= 0xFF
	if err := VerifyWitnesses(tx); err != ErrInvalidWitness {
		t.Fatalf("got %v, want ErrInvalidWitness", err)
	}
}

func TestVerifyWitnessesRejectsScriptHashMismatch(t *testing.T) {
	tx := signedTransferTx(t)
	tx.Signers[0].Account[0] ^= 0xFF
	if err := VerifyWitnesses(tx); err != ErrWitnessScriptMismatch {
		t.Fatalf("got %v, want ErrWitnessScriptMismatch", err)
	}
}

func TestVerifyWitnessesRejectsNonStandardScript(t *testing.T) {
	tx := signedTransferTx(t)
	tx.Witnesses[0].VerificationScript = []byte{0x21, 0x22, 0x23}
	tx.Signers[0].Account = tx.Witnesses[0].ScriptHash()
	if err := VerifyWitnesses(tx); err != ErrUnsupportedWitnessScript {
		t.Fatalf("got %v, want ErrUnsupportedWitnessScript", err)
	}
}

// multiSigVerificationScript builds the standard m-of-n contract shape:
// PUSH(m) (PUSHDATA1<pubkey>)*n PUSH(n) SYSCALL System.Crypto.CheckMultisig.
func multiSigVerificationScript(t *testing.T, m int, pubs [][]byte) []byte {
	t.Helper()
	if m > 16 || len(pubs) > 16 {
		t.Fatalf("test helper only supports small m/n")
	}
	out := []byte{byte(vm.OpPush0) + byte(m)}
	for _, pub := range pubs {
		out = append(out, byte(vm.OpPushData1), byte(len(pub)))
		out = append(out, pub...)
	}
	out = append(out, byte(vm.OpPush0)+byte(len(pubs)), byte(vm.OpSyscall))
	idBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(idBuf, vm.SyscallHash("System.Crypto.CheckMultisig"))
	out = append(out, idBuf...)
	return out
}

func TestVerifyWitnessesStandardMultiSig(t *testing.T) {
	priv1 := newTestKey(t)
	priv2 := newTestKey(t)
	priv3 := newTestKey(t)
	pubs := [][]byte{priv1.PublicKey().Bytes(), priv2.PublicKey().Bytes(), priv3.PublicKey().Bytes()}

	script := multiSigVerificationScript(t, 2, pubs)
	w := &transaction.Witness{VerificationScript: script}
	account := w.ScriptHash()

	tx := &transaction.Transaction{
		Version:         0,
		Nonce:           1,
		SystemFee:       1000,
		NetworkFee:      1000,
		ValidUntilBlock: 100,
		Script:          []byte{0x10},
		Signers:         []*transaction.Signer{{Account: account, Scopes: transaction.ScopeCalledByEntry}},
	}
	msg := tx.Hash().BytesLE()
	sig1, err := priv1.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig3, err := priv3.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx.Witnesses = []*transaction.Witness{{
		InvocationScript:   pushDataInvocation(sig1, sig3),
		VerificationScript: script,
	}}

	if err := VerifyWitnesses(tx); err != nil {
		t.Fatalf("VerifyWitnesses: %v", err)
	}
}

func TestVerifyWitnessesRejectsBelowThresholdMultiSig(t *testing.T) {
	priv1 := newTestKey(t)
	priv2 := newTestKey(t)
	pubs := [][]byte{priv1.PublicKey().Bytes(), priv2.PublicKey().Bytes()}

	script := multiSigVerificationScript(t, 2, pubs)
	w := &transaction.Witness{VerificationScript: script}
	account := w.ScriptHash()

	tx := &transaction.Transaction{
		Version:         0,
		Nonce:           1,
		ValidUntilBlock: 100,
		Script:          []byte{0x10},
		Signers:         []*transaction.Signer{{Account: account, Scopes: transaction.ScopeCalledByEntry}},
	}
	sig1, err := priv1.Sign(tx.Hash().BytesLE())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx.Witnesses = []*transaction.Witness{{
		InvocationScript:   pushDataInvocation(sig1),
		VerificationScript: script,
	}}

	if err := VerifyWitnesses(tx); err != ErrInvalidWitness {
		t.Fatalf("got %v, want ErrInvalidWitness", err)
	}
}
