// Package node wires the ledger, mempool, P2P transport, and consensus
// state machine behind a single orchestrator implementing Core (§6 "all
// external interfaces exposed as a single... interface"). Grounded on the
// teacher's core/node.go adapter-interface pattern (one struct gluing
// together the chain, network, and VM collaborators behind a small set of
// exported methods), rebuilt end to end against the reference chain's data
// model and P2P/consensus semantics instead of the teacher's PoH+PoS round.
package node

import (
	"github.com/synnergy-network/n3node/internal/config"
	"github.com/synnergy-network/n3node/internal/core/block"
	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/ledger"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

// Core is the single surface every external boundary — CLI, RPC, tests —
// calls into, regardless of transport (§6's enumerated operations).
type Core interface {
	// BlockHeight returns the index of the most recently persisted block.
	BlockHeight() uint32
	// GetBlock returns the block identified by hashBytes, or by index when
	// idx is non-nil.
	GetBlock(hashBytes []byte, idx *uint32) (*block.Block, error)
	// GetTransaction returns a persisted transaction, the index of the
	// block that contains it, and its recorded VM state.
	GetTransaction(hashBytes []byte) (*transaction.Transaction, uint32, vm.VMState, error)
	// BestBlockHash returns the hash of the chain tip.
	BestBlockHash() (util.Uint256, error)
	// InvokeFunction runs a read-only contract call against a fresh
	// overlay, discarding every write.
	InvokeFunction(contractHash util.Uint160, method string, params []any) (*ledger.InvocationResult, error)
	// SubmitTransaction verifies tx's witnesses, stages it in the mempool,
	// and relays it to peers once accepted.
	SubmitTransaction(tx *transaction.Transaction) error
	// Health reports a point-in-time snapshot of chain height, peer count,
	// mempool size, and the most recent Persist duration.
	Health() config.NodeHealth
}
