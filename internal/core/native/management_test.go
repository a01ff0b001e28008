package native

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/util"
)

func TestManagementDeployThenGetContract(t *testing.T) {
	m := NewContractManagement()
	e := newTestEngine()

	nef := []byte{0x01, 0x02, 0x03}
	manifest := []byte(`{"name":"test"}`)

	hashBytes, err := Invoke(m, e, "deploy", []any{nef, manifest})
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}

	got, err := Invoke(m, e, "getContract", []any{hashBytes})
	if err != nil {
		t.Fatalf("getContract: %v", err)
	}
	rec, ok := got.(*DeployedContract)
	if !ok {
		t.Fatalf("expected *DeployedContract, got %T", got)
	}
	if string(rec.NEF) != string(nef) {
		t.Fatalf("expected nef to round-trip, got %v", rec.NEF)
	}
	if string(rec.Manifest) != string(manifest) {
		t.Fatalf("expected manifest to round-trip, got %v", rec.Manifest)
	}
}

func TestManagementDeployDuplicateRejected(t *testing.T) {
	m := NewContractManagement()
	e := newTestEngine()

	nef := []byte{0xAA, 0xBB}
	if _, err := Invoke(m, e, "deploy", []any{nef, []byte(nil)}); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if _, err := Invoke(m, e, "deploy", []any{nef, []byte(nil)}); err != ErrContractAlreadyExists {
		t.Fatalf("expected ErrContractAlreadyExists, got %v", err)
	}
}

func TestManagementDestroyRemovesContract(t *testing.T) {
	m := NewContractManagement()
	e := newTestEngine()

	nef := []byte{0x01}
	hashBytes, err := Invoke(m, e, "deploy", []any{nef, []byte(nil)})
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if _, err := Invoke(m, e, "destroy", []any{hashBytes}); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	got, err := Invoke(m, e, "getContract", []any{hashBytes})
	if err != nil {
		t.Fatalf("getContract: %v", err)
	}
	if got != nil {
		t.Fatalf("expected destroyed contract to be gone, got %v", got)
	}
}

func TestManagementUpdateRejectsUnknownContract(t *testing.T) {
	m := NewContractManagement()
	e := newTestEngine()
	var unknown util.Uint160
	unknown[0] = 0x99
	if _, err := Invoke(m, e, "update", []any{unknown.BytesLE(), []byte{0x01}, []byte(nil)}); err != ErrContractNotFound {
		t.Fatalf("expected ErrContractNotFound, got %v", err)
	}
}

func TestManagementMinimumDeploymentFeeDefault(t *testing.T) {
	m := NewContractManagement()
	e := newTestEngine()
	v, err := Invoke(m, e, "getMinimumDeploymentFee", nil)
	if err != nil {
		t.Fatalf("getMinimumDeploymentFee: %v", err)
	}
	if v.(int64) != defaultMinDeployFee {
		t.Fatalf("expected default min deploy fee, got %v", v)
	}
}
