package native

import (
	"encoding/binary"
	"fmt"

	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/store"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

// Role identifies one of the designation slots RoleManagement tracks.
type Role byte

const (
	// RoleStateValidator signs state root attestations.
	RoleStateValidator Role = 4
	// RoleOracle submits oracle responses.
	RoleOracle Role = 8
	// RoleNeoFSAlphabet are the NeoFS alphabet committee members.
	RoleNeoFSAlphabet Role = 16
	// RoleP2PNotary relay notary-assisted transactions.
	RoleP2PNotary Role = 32
)

func validRole(r Role) bool {
	switch r {
	case RoleStateValidator, RoleOracle, RoleNeoFSAlphabet, RoleP2PNotary:
		return true
	default:
		return false
	}
}

// RoleManagement tracks which public keys are designated for each Role, a
// supplement beyond the distilled suite: committee decisions (oracle nodes,
// state validators, notary nodes) need a durable place to live, and the
// fixed-id/prefixed-storage shape every other native contract already uses
// is the natural home for it rather than inventing a side channel.
type RoleManagement struct {
	methods map[string]*Method
}

const roleID = -8

const prefixRoleNodes = 0x01

var roleManagementHash = contractHash("RoleManagement")

func NewRoleManagement() *RoleManagement {
	r := &RoleManagement{}
	r.methods = map[string]*Method{
		"designateAsRole":     {Name: "designateAsRole", RequiredFlag: vm.CallFlagWriteStates, GasCost: 1 << 15, Handler: r.designateAsRole},
		"getDesignatedByRole": {Name: "getDesignatedByRole", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 10, Handler: r.getDesignatedByRole},
	}
	return r
}

func (r *RoleManagement) ID() int32                  { return roleID }
func (r *RoleManagement) Hash() util.Uint160          { return roleManagementHash }
func (r *RoleManagement) Name() string                { return "RoleManagement" }
func (r *RoleManagement) Methods() map[string]*Method { return r.methods }

// roleKey lays out [0x01][role byte][index-be u32].
func roleKey(role Role, index uint32) []byte {
	suffix := make([]byte, 5)
	suffix[0] = byte(role)
	binary.BigEndian.PutUint32(suffix[1:], index)
	return storageKey(roleID, prefixRoleNodes, suffix)
}

// designateAsRole is callable only during OnPersist (the ledger's
// persistence pipeline invokes it directly, never through a user script) or
// by a transaction witnessed by the committee multisig account; the engine's
// trigger and calling script hash are both checked before any write.
func (r *RoleManagement) designateAsRole(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	if e.Trigger != vm.TriggerOnPersist && !e.CommitteeWitnessed() {
		return nil, fmt.Errorf("designateAsRole: requires OnPersist trigger or committee witness")
	}
	roleArg, ok := args[0].(int64)
	if !ok || !validRole(Role(roleArg)) {
		return nil, fmt.Errorf("designateAsRole: invalid role")
	}
	role := Role(roleArg)
	pubKeys, ok := args[1].([][]byte)
	if !ok || len(pubKeys) == 0 {
		return nil, fmt.Errorf("designateAsRole: expected a non-empty list of public keys")
	}
	for _, pk := range pubKeys {
		if _, err := keys.PublicKeyFromBytes(pk); err != nil {
			return nil, fmt.Errorf("designateAsRole: invalid public key: %w", err)
		}
	}
	index := e.PersistingIndex()
	buf := make([]byte, 0, len(pubKeys)*keys.PublicKeySize)
	for _, pk := range pubKeys {
		buf = append(buf, pk...)
	}
	snapshotOf(e).Put(roleKey(role, index), buf)
	return true, nil
}

// getDesignatedByRole returns the most recently designated key list for role
// as of the given block index: the newest entry whose stored index does not
// exceed it.
func (r *RoleManagement) getDesignatedByRole(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	roleArg, ok := args[0].(int64)
	if !ok || !validRole(Role(roleArg)) {
		return nil, fmt.Errorf("getDesignatedByRole: invalid role")
	}
	role := Role(roleArg)
	index := uint32(0)
	if len(args) > 1 {
		if idx, ok := args[1].(int64); ok && idx >= 0 {
			index = uint32(idx)
		}
	}

	prefix := storageKey(roleID, prefixRoleNodes, []byte{byte(role)})
	it := snapshotOf(e).Find(prefix, store.Backward)
	var best []byte
	for it.Next() {
		key := it.Key()
		entryIndex := binary.BigEndian.Uint32(key[len(key)-4:])
		if entryIndex <= index {
			best = it.Value()
			break
		}
	}
	if best == nil {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, len(best)/keys.PublicKeySize)
	for off := 0; off+keys.PublicKeySize <= len(best); off += keys.PublicKeySize {
		out = append(out, best[off:off+keys.PublicKeySize])
	}
	return out, nil
}
