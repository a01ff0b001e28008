package native

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/store"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

func newTestEngine() *vm.ApplicationEngine {
	mem := store.NewMemStore()
	return vm.NewApplicationEngine(vm.TriggerApplication, mem.Snapshot(), -1)
}

func TestPolicyDefaults(t *testing.T) {
	p := NewPolicyContract()
	e := newTestEngine()

	v, err := Invoke(p, e, "getFeePerByte", nil)
	if err != nil {
		t.Fatalf("getFeePerByte: %v", err)
	}
	if v.(int64) != defaultFeePerByte {
		t.Fatalf("expected default fee per byte, got %v", v)
	}
}

func TestPolicySetThenGet(t *testing.T) {
	p := NewPolicyContract()
	e := newTestEngine()

	if _, err := Invoke(p, e, "setFeePerByte", []any{int64(2000)}); err != nil {
		t.Fatalf("setFeePerByte: %v", err)
	}
	v, err := Invoke(p, e, "getFeePerByte", nil)
	if err != nil {
		t.Fatalf("getFeePerByte: %v", err)
	}
	if v.(int64) != 2000 {
		t.Fatalf("expected 2000, got %v", v)
	}
}

func TestPolicyBlockedAccount(t *testing.T) {
	p := NewPolicyContract()
	e := newTestEngine()
	var acct util.Uint160
	acct[0] = 0xAB

	blocked, err := Invoke(p, e, "isBlocked", []any{acct})
	if err != nil {
		t.Fatalf("isBlocked: %v", err)
	}
	if blocked.(bool) {
		t.Fatalf("expected account not blocked initially")
	}

	if _, err := Invoke(p, e, "blockAccount", []any{acct}); err != nil {
		t.Fatalf("blockAccount: %v", err)
	}
	blocked, err = Invoke(p, e, "isBlocked", []any{acct})
	if err != nil {
		t.Fatalf("isBlocked: %v", err)
	}
	if !blocked.(bool) {
		t.Fatalf("expected account blocked after blockAccount")
	}

	if _, err := Invoke(p, e, "unblockAccount", []any{acct}); err != nil {
		t.Fatalf("unblockAccount: %v", err)
	}
	blocked, err = Invoke(p, e, "isBlocked", []any{acct})
	if err != nil {
		t.Fatalf("isBlocked: %v", err)
	}
	if blocked.(bool) {
		t.Fatalf("expected account unblocked again")
	}
}

func TestPolicyRegistryLookup(t *testing.T) {
	r := NewRegistry()
	p := NewPolicyContract()
	r.Register(p)

	byID, ok := r.ByID(policyID)
	if !ok || byID.Name() != "PolicyContract" {
		t.Fatalf("expected PolicyContract registered at id %d", policyID)
	}
	byHash, ok := r.ByHash(p.Hash())
	if !ok || byHash.Name() != "PolicyContract" {
		t.Fatalf("expected PolicyContract registered at hash %s", p.Hash())
	}
}
