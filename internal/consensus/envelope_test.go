package consensus

import (
	"bytes"
	"testing"

	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/crypto/hash"
	"github.com/synnergy-network/n3node/internal/crypto/keys"
	nio "github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/vm"
)

func testPrivateKey(t *testing.T) *keys.PrivateKey {
	t.Helper()
	priv, err := keys.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	return priv
}

// singleSigScript renders the standard PUSHDATA1<pubkey> SYSCALL
// System.Crypto.CheckSig verification script, mirroring
// internal/ledger's own test helpers for the same shape.
func singleSigScript(pub *keys.PublicKey) []byte {
	b := pub.Bytes()
	out := append([]byte{byte(vm.OpPushData1), byte(len(b))}, b...)
	out = append(out, byte(vm.OpSyscall))
	id := vm.SyscallHash("System.Crypto.CheckSig")
	return append(out, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
}

func signedExtensible(t *testing.T, priv *keys.PrivateKey, start, end uint32, data []byte) *ExtensiblePayload {
	t.Helper()
	script := singleSigScript(priv.PublicKey())
	p := &ExtensiblePayload{
		Category:        CategoryDBFT,
		ValidBlockStart: start,
		ValidBlockEnd:   end,
		Sender:          hash.Hash160(script),
		Data:            data,
		Witness:         &transaction.Witness{VerificationScript: script},
	}
	sig, err := priv.Sign(p.Hash().BytesLE())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	p.Witness.InvocationScript = append([]byte{byte(vm.OpPushData1), byte(len(sig))}, sig...)
	return p
}

func TestExtensiblePayloadRoundTrip(t *testing.T) {
	priv := testPrivateKey(t)
	p := signedExtensible(t, priv, 10, 20, []byte{1, 2, 3})

	buf := &bytes.Buffer{}
	w := nio.NewBinWriterFromIO(buf)
	p.EncodeBinary(w)
	if w.Err != nil {
		t.Fatalf("encode: %v", w.Err)
	}

	var got ExtensiblePayload
	r := nio.NewBinReaderFromIO(buf)
	got.DecodeBinary(r)
	if r.Err != nil {
		t.Fatalf("decode: %v", r.Err)
	}
	if got.Category != p.Category || got.ValidBlockStart != p.ValidBlockStart ||
		got.ValidBlockEnd != p.ValidBlockEnd || got.Sender != p.Sender || !bytes.Equal(got.Data, p.Data) {
		t.Fatalf("got %+v, want %+v", got, p)
	}
}

func TestExtensiblePayloadValidateAcceptsSignedPayload(t *testing.T) {
	priv := testPrivateKey(t)
	p := signedExtensible(t, priv, 10, 20, []byte{9})
	if err := p.Validate(15); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestExtensiblePayloadValidateRejectsWrongCategory(t *testing.T) {
	priv := testPrivateKey(t)
	p := signedExtensible(t, priv, 10, 20, nil)
	p.Category = "not-dbft"
	if err := p.Validate(15); err != ErrNotConsensusCategory {
		t.Fatalf("got %v, want ErrNotConsensusCategory", err)
	}
}

func TestExtensiblePayloadValidateRejectsOutsideWindow(t *testing.T) {
	priv := testPrivateKey(t)
	p := signedExtensible(t, priv, 10, 20, nil)
	if err := p.Validate(25); err != ErrOutsideValidWindow {
		t.Fatalf("got %v, want ErrOutsideValidWindow", err)
	}
}

func TestExtensiblePayloadValidateRejectsTamperedData(t *testing.T) {
	priv := testPrivateKey(t)
	p := signedExtensible(t, priv, 10, 20, []byte{1})
	p.Data = []byte{2}
	if err := p.Validate(15); err != ErrInvalidWitness {
		t.Fatalf("got %v, want ErrInvalidWitness", err)
	}
}

func TestExtensiblePayloadValidateRejectsEmptyRange(t *testing.T) {
	priv := testPrivateKey(t)
	p := signedExtensible(t, priv, 20, 20, nil)
	if err := p.Validate(20); err != ErrEmptyValidRange {
		t.Fatalf("got %v, want ErrEmptyValidRange", err)
	}
}
