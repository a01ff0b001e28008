// Package ledger implements the block persistence pipeline and mempool
// (§4.7, §4.8): the single-writer orchestrator that owns the backing
// store, runs the native contract registry through an ApplicationEngine
// for every block, and exposes the read accessors the CLI/RPC boundary
// (§6) is built on. Grounded on the teacher's core/ledger.go for the
// mutex-guarded, logrus-logging struct shape, rebuilt here against the
// block/transaction/native-contract model instead of UTXO/JSON state.
package ledger

import (
	"github.com/synnergy-network/n3node/internal/core/native"
)

// newNativeRegistry builds the fixed-id native contract suite (§4.6),
// wiring NeoToken/GasToken/OracleContract against the shared registry so
// their cross-contract lookups (onNEP17Payment detection, oracle-node
// designation checks) resolve through it rather than a duplicated table.
func newNativeRegistry(maxTraceableBlocks uint32) *native.Registry {
	r := native.NewRegistry()
	r.Register(native.NewContractManagement())
	r.Register(native.NewLedgerContract(maxTraceableBlocks))
	r.Register(native.NewPolicyContract())
	r.Register(native.NewRoleManagement())
	r.Register(native.NewNeoToken(r))
	r.Register(native.NewGasToken(r))
	r.Register(native.NewOracleContract(r))
	r.Register(native.NewStdLib())
	r.Register(native.NewCryptoLib())
	return r
}

func ledgerContract(r *native.Registry) *native.LedgerContract {
	c, ok := r.ByID(-4)
	if !ok {
		panic("ledger: LedgerContract missing from registry")
	}
	return c.(*native.LedgerContract)
}

func neoToken(r *native.Registry) *native.NeoToken {
	c, ok := r.ByID(-5)
	if !ok {
		panic("ledger: NeoToken missing from registry")
	}
	return c.(*native.NeoToken)
}

func gasToken(r *native.Registry) *native.GasToken {
	c, ok := r.ByID(-6)
	if !ok {
		panic("ledger: GasToken missing from registry")
	}
	return c.(*native.GasToken)
}
