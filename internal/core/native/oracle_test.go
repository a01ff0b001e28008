package native

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/vm"
)

func TestOracleGetPriceIsFixed(t *testing.T) {
	o := NewOracleContract(nil)
	e := newTestEngine()
	price, err := Invoke(o, e, "getPrice", nil)
	if err != nil {
		t.Fatalf("getPrice: %v", err)
	}
	if price.(int64) != OracleRequestPrice {
		t.Fatalf("expected %d, got %v", OracleRequestPrice, price)
	}
}

func TestOracleRequestThenGet(t *testing.T) {
	o := NewOracleContract(nil)
	e := newTestEngine()

	id, err := Invoke(o, e, "request", []any{"https://example.com/data", "$.price", "onOracle", []byte("ctx"), int64(20_000_000)})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if id.(int64) != 1 {
		t.Fatalf("expected first request id 1, got %v", id)
	}

	got, err := Invoke(o, e, "getRequest", []any{id})
	if err != nil {
		t.Fatalf("getRequest: %v", err)
	}
	rec := got.(*OracleRequest)
	if rec.URL != "https://example.com/data" || rec.Status != OracleStatusPending {
		t.Fatalf("unexpected request record: %+v", rec)
	}
}

func TestOracleRequestRejectsOversizedFields(t *testing.T) {
	o := NewOracleContract(nil)
	e := newTestEngine()
	longURL := make([]byte, maxURLLength+1)
	_, err := Invoke(o, e, "request", []any{string(longURL), "", "cb", []byte(nil), int64(0)})
	if err != ErrOracleRequestTooLarge {
		t.Fatalf("expected ErrOracleRequestTooLarge, got %v", err)
	}
}

func TestOracleFinishRequiresDesignatedNode(t *testing.T) {
	registry := NewRegistry()
	role := NewRoleManagement()
	registry.Register(role)
	o := NewOracleContract(registry)
	e := newTestEngine()

	id, err := Invoke(o, e, "request", []any{"https://example.com", "", "cb", []byte(nil), int64(0)})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	pub := testPubKeyBytes(t)
	_, err = Invoke(o, e, "finish", []any{id, int64(OracleCodeSuccess), []byte("42"), pub})
	if err != ErrOracleNotAuthorized {
		t.Fatalf("expected ErrOracleNotAuthorized, got %v", err)
	}
}

func TestOracleFinishByDesignatedNodeResolvesRequest(t *testing.T) {
	registry := NewRegistry()
	role := NewRoleManagement()
	registry.Register(role)
	o := NewOracleContract(registry)
	e := newTestEngine()

	id, err := Invoke(o, e, "request", []any{"https://example.com", "", "cb", []byte(nil), int64(0)})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	pub := testPubKeyBytes(t)
	e.Trigger = vm.TriggerOnPersist
	if _, err := Invoke(role, e, "designateAsRole", []any{int64(RoleOracle), [][]byte{pub}}); err != nil {
		t.Fatalf("designateAsRole: %v", err)
	}
	e.Trigger = vm.TriggerApplication

	ok, err := Invoke(o, e, "finish", []any{id, int64(OracleCodeSuccess), []byte("42"), pub})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !ok.(bool) {
		t.Fatalf("expected finish to succeed")
	}

	got, _ := Invoke(o, e, "getRequest", []any{id})
	rec := got.(*OracleRequest)
	if rec.Status != OracleStatusFulfilled || string(rec.Result) != "42" {
		t.Fatalf("unexpected resolved record: %+v", rec)
	}

	_, err = Invoke(o, e, "finish", []any{id, int64(OracleCodeSuccess), []byte("42"), pub})
	if err != ErrOracleAlreadyResolved {
		t.Fatalf("expected ErrOracleAlreadyResolved, got %v", err)
	}
}

func TestOracleVerifyChecksSignature(t *testing.T) {
	o := NewOracleContract(nil)
	e := newTestEngine()
	priv, err := keys.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	msg := []byte("oracle attestation")
	sig, err := priv.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	ok, err := Invoke(o, e, "verify", []any{msg, priv.PublicKey().Bytes(), sig})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok.(bool) {
		t.Fatalf("expected signature to verify")
	}

	bad, _ := Invoke(o, e, "verify", []any{[]byte("tampered"), priv.PublicKey().Bytes(), sig})
	if bad.(bool) {
		t.Fatalf("expected tampered message to fail verification")
	}
}
