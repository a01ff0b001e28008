package native

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/store"
	"github.com/synnergy-network/n3node/internal/vm"
)

func testPubKeyBytes(t *testing.T) []byte {
	t.Helper()
	priv, err := keys.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	return priv.PublicKey().Bytes()
}

func TestRoleDesignateRequiresOnPersistOrCommittee(t *testing.T) {
	r := NewRoleManagement()
	e := newTestEngine() // TriggerApplication, no committee witness

	_, err := Invoke(r, e, "designateAsRole", []any{int64(RoleOracle), [][]byte{testPubKeyBytes(t)}})
	if err == nil {
		t.Fatalf("expected error designating outside OnPersist/committee witness")
	}
}

func TestRoleDesignateAndLookup(t *testing.T) {
	mem := store.NewMemStore()
	e := vm.NewApplicationEngine(vm.TriggerOnPersist, mem.Snapshot(), -1)
	e.PersistingBlockIndex = 100

	r := NewRoleManagement()
	pk := testPubKeyBytes(t)

	if _, err := Invoke(r, e, "designateAsRole", []any{int64(RoleOracle), [][]byte{pk}}); err != nil {
		t.Fatalf("designateAsRole: %v", err)
	}

	got, err := Invoke(r, e, "getDesignatedByRole", []any{int64(RoleOracle), int64(200)})
	if err != nil {
		t.Fatalf("getDesignatedByRole: %v", err)
	}
	list := got.([][]byte)
	if len(list) != 1 || string(list[0]) != string(pk) {
		t.Fatalf("expected designated key to round-trip, got %v", list)
	}
}

func TestRoleLookupBeforeDesignationIsEmpty(t *testing.T) {
	mem := store.NewMemStore()
	e := vm.NewApplicationEngine(vm.TriggerOnPersist, mem.Snapshot(), -1)
	e.PersistingBlockIndex = 100

	r := NewRoleManagement()
	pk := testPubKeyBytes(t)
	if _, err := Invoke(r, e, "designateAsRole", []any{int64(RoleOracle), [][]byte{pk}}); err != nil {
		t.Fatalf("designateAsRole: %v", err)
	}

	got, err := Invoke(r, e, "getDesignatedByRole", []any{int64(RoleOracle), int64(50)})
	if err != nil {
		t.Fatalf("getDesignatedByRole: %v", err)
	}
	if len(got.([][]byte)) != 0 {
		t.Fatalf("expected no designation visible before its index, got %v", got)
	}
}

func TestRoleRejectsInvalidRole(t *testing.T) {
	r := NewRoleManagement()
	e := newTestEngine()
	if _, err := Invoke(r, e, "getDesignatedByRole", []any{int64(99)}); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
