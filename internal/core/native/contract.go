// Package native implements the fixed-id native contract suite (§4.6):
// ContractManagement, LedgerContract, NeoToken, GasToken, PolicyContract,
// RoleManagement, OracleContract, StdLib, and CryptoLib. Each contract owns
// a storage namespace keyed by its id plus a single-byte prefix, and
// exposes a method descriptor table describing the same invocation surface
// a deployed contract would, executed directly instead of through the VM.
// Grounded on the teacher's consensus_validator_management.go for the
// registry-over-a-state-store shape (Register/Deregister against a keyed
// backing store) generalized here to the protocol's NEP-17/candidate/role
// semantics.
package native

import (
	"fmt"

	"github.com/synnergy-network/n3node/internal/store"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

// Method describes one callable entry point on a native contract.
type Method struct {
	Name         string
	RequiredFlag vm.CallFlags
	GasCost      int64
	Handler      func(c Contract, e *vm.ApplicationEngine, args []any) (any, error)
}

// Contract is implemented by every native contract.
type Contract interface {
	ID() int32
	Hash() util.Uint160
	Name() string
	Methods() map[string]*Method
}

// Registry resolves a native contract by id or by script hash, used by the
// ledger's persistence pipeline to find OnPersist/PostPersist participants.
// No VM syscall resolves contracts through it.
type Registry struct {
	byID   map[int32]Contract
	byHash map[util.Uint160]Contract
}

func NewRegistry() *Registry {
	return &Registry{byID: map[int32]Contract{}, byHash: map[util.Uint160]Contract{}}
}

func (r *Registry) Register(c Contract) {
	r.byID[c.ID()] = c
	r.byHash[c.Hash()] = c
}

func (r *Registry) ByID(id int32) (Contract, bool) {
	c, ok := r.byID[id]
	return c, ok
}

func (r *Registry) ByHash(h util.Uint160) (Contract, bool) {
	c, ok := r.byHash[h]
	return c, ok
}

func (r *Registry) All() []Contract {
	out := make([]Contract, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out
}

// contractHash derives a deterministic 20-byte hash for a native contract
// from its name, standing in for the "hash committed to the contract's NEF"
// derivation a deployed contract would use; native contracts have no NEF, so
// the name is the canonical seed instead.
func contractHash(name string) util.Uint160 {
	return util.Hash160OfString(name)
}

// storageKey lays out a contract's storage key as id (4-byte LE) + prefix
// byte + suffix, per §4.6's "id plus a single-byte prefix plus a typed
// suffix" layout.
func storageKey(id int32, prefix byte, suffix []byte) []byte {
	out := make([]byte, 4+1+len(suffix))
	putInt32LE(out, id)
	out[4] = prefix
	copy(out[5:], suffix)
	return out
}

func putInt32LE(b []byte, v int32) {
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}

// ErrUnknownMethod is returned when Invoke is called with a method name a
// contract does not expose.
var ErrUnknownMethod = fmt.Errorf("native: unknown method")

// Invoke looks up name on c and calls its handler, checking the engine's
// current call flags first.
func Invoke(c Contract, e *vm.ApplicationEngine, name string, args []any) (any, error) {
	m, ok := c.Methods()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, c.Name(), name)
	}
	ctx := e.CurrentContext()
	if ctx != nil && !ctx.CallFlags.Has(m.RequiredFlag) {
		return nil, vm.ErrCallFlagsNotAllowed
	}
	return m.Handler(c, e, args)
}

// snapshotOf returns the engine's storage snapshot; a thin accessor kept
// here so contract implementations don't reach into vm internals directly.
func snapshotOf(e *vm.ApplicationEngine) store.Snapshot {
	return e.Snapshot
}
