package transaction

import (
	"bytes"
	"testing"

	"github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
)

func sampleTx() *Transaction {
	return &Transaction{
		Version:         0,
		Nonce:           1,
		SystemFee:       100,
		NetworkFee:      50,
		ValidUntilBlock: 1000,
		Signers: []*Signer{
			{Account: util.Uint160{1}, Scopes: ScopeCalledByEntry},
		},
		Script: []byte{0x51, 0x52, 0x9e}, // PUSH1 PUSH2 ADD (illustrative, not executed)
		Witnesses: []*Witness{
			{InvocationScript: []byte{0x01}, VerificationScript: []byte{0x02}},
		},
	}
}

func TestTransactionEncodeDecodeRoundTrip(t *testing.T) {
	tx := sampleTx()
	buf := &bytes.Buffer{}
	w := io.NewBinWriterFromIO(buf)
	tx.EncodeBinary(w)
	if w.Err != nil {
		t.Fatalf("encode: %v", w.Err)
	}

	r := io.NewBinReaderFromIO(bytes.NewReader(buf.Bytes()))
	var got Transaction
	got.DecodeBinary(r)
	if r.Err != nil {
		t.Fatalf("decode: %v", r.Err)
	}

	if got.Nonce != tx.Nonce || got.SystemFee != tx.SystemFee || got.NetworkFee != tx.NetworkFee {
		t.Fatalf("field mismatch: got %+v, want %+v", got, tx)
	}
	if len(got.Signers) != 1 || got.Signers[0].Account != tx.Signers[0].Account {
		t.Fatalf("signer mismatch: %+v", got.Signers)
	}
	if !bytes.Equal(got.Script, tx.Script) {
		t.Fatalf("script mismatch: got %x, want %x", got.Script, tx.Script)
	}
}

func TestTransactionHashMemoized(t *testing.T) {
	tx := sampleTx()
	h1 := tx.Hash()
	tx.Nonce = 999 // mutate after hashing; memoized hash must not change
	h2 := tx.Hash()
	if h1 != h2 {
		t.Fatalf("hash changed after mutation: %s vs %s", h1, h2)
	}
}

func TestTransactionHashDiffersOnContent(t *testing.T) {
	a := sampleTx()
	b := sampleTx()
	b.Nonce = a.Nonce + 1
	if a.Hash() == b.Hash() {
		t.Fatal("expected different hashes for different nonces")
	}
}

func TestTransactionValidateRejectsNoSigners(t *testing.T) {
	tx := sampleTx()
	tx.Signers = nil
	if err := tx.Validate(); err != ErrNoSigners {
		t.Fatalf("got %v, want ErrNoSigners", err)
	}
}

func TestTransactionValidateRejectsDuplicateSigner(t *testing.T) {
	tx := sampleTx()
	tx.Signers = append(tx.Signers, &Signer{Account: tx.Signers[0].Account})
	tx.Witnesses = append(tx.Witnesses, &Witness{})
	if err := tx.Validate(); err != ErrDuplicateSigner {
		t.Fatalf("got %v, want ErrDuplicateSigner", err)
	}
}

func TestTransactionValidateRejectsWitnessMismatch(t *testing.T) {
	tx := sampleTx()
	tx.Witnesses = nil
	if err := tx.Validate(); err != ErrWitnessMismatch {
		t.Fatalf("got %v, want ErrWitnessMismatch", err)
	}
}

func TestTransactionValidateRejectsEmptyScript(t *testing.T) {
	tx := sampleTx()
	tx.Script = nil
	if err := tx.Validate(); err != ErrEmptyScript {
		t.Fatalf("got %v, want ErrEmptyScript", err)
	}
}

func TestTransactionValidateRejectsNegativeFee(t *testing.T) {
	tx := sampleTx()
	tx.SystemFee = -1
	if err := tx.Validate(); err != ErrNegativeFee {
		t.Fatalf("got %v, want ErrNegativeFee", err)
	}
}

func TestTransactionValidateAcceptsWellFormed(t *testing.T) {
	tx := sampleTx()
	if err := tx.Validate(); err != nil {
		t.Fatalf("expected valid transaction, got %v", err)
	}
}

func TestAttributeNotMultipleRejectsDuplicates(t *testing.T) {
	tx := sampleTx()
	tx.Attributes = []*Attribute{
		{Type: AttrHighPriority},
		{Type: AttrHighPriority},
	}
	if err := tx.Validate(); err != ErrDuplicateAttr {
		t.Fatalf("got %v, want ErrDuplicateAttr", err)
	}
}

func TestWitnessScriptHash(t *testing.T) {
	w := &Witness{VerificationScript: []byte{0x0c, 0x21, 0x02}}
	h := w.ScriptHash()
	if h.IsZero() {
		t.Fatal("expected non-zero script hash")
	}
}
