package ledger

import (
	"encoding/binary"
	"testing"

	"github.com/synnergy-network/n3node/internal/core/block"
	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

func newTestKey(t *testing.T) *keys.PrivateKey {
	t.Helper()
	priv, err := keys.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	return priv
}

// singleSigVerificationScript builds the standard single-sig contract
// shape: PUSHDATA1<pubkey> SYSCALL System.Crypto.CheckSig.
func singleSigVerificationScript(pub *keys.PublicKey) []byte {
	out := []byte{byte(vm.OpPushData1), byte(keys.PublicKeySize)}
	out = append(out, pub.Bytes()...)
	out = append(out, byte(vm.OpSyscall))
	idBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(idBuf, vm.SyscallHash("System.Crypto.CheckSig"))
	out = append(out, idBuf...)
	return out
}

func pushDataInvocation(items ...[]byte) []byte {
	var out []byte
	for _, data := range items {
		out = append(out, byte(vm.OpPushData1), byte(len(data)))
		out = append(out, data...)
	}
	return out
}

// signTestTx fills tx.Witnesses for a single-signer transaction whose
// sole signer/account is priv's standard single-sig script hash.
func signTestTx(t *testing.T, tx *transaction.Transaction, priv *keys.PrivateKey) {
	t.Helper()
	pub := priv.PublicKey()
	account := util.Uint160(pub.ScriptHash())
	tx.Signers = []*transaction.Signer{{Account: account, Scopes: transaction.ScopeCalledByEntry}}
	sig, err := priv.Sign(tx.Hash().BytesLE())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx.Witnesses = []*transaction.Witness{{
		InvocationScript:   pushDataInvocation(sig),
		VerificationScript: singleSigVerificationScript(pub),
	}}
}

func simpleGenesis(committee util.Uint160) *block.Block {
	return &block.Block{
		Header: &block.Header{
			Version:       0,
			Index:         0,
			Timestamp:     1700000000000,
			NextConsensus: committee,
			Witness:       &transaction.Witness{VerificationScript: []byte{0x51}},
		},
	}
}

func childBlock(prev *block.Block, txs []*transaction.Transaction) *block.Block {
	return &block.Block{
		Header: &block.Header{
			Version:       0,
			PrevHash:      prev.Hash(),
			Timestamp:     prev.Header.Timestamp + 15000,
			Index:         prev.Header.Index + 1,
			NextConsensus: prev.Header.NextConsensus,
			Witness:       &transaction.Witness{VerificationScript: []byte{0x51}},
		},
		Transactions: txs,
	}
}
