package node

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/n3node/internal/config"
	"github.com/synnergy-network/n3node/internal/consensus"
	"github.com/synnergy-network/n3node/internal/core/block"
	"github.com/synnergy-network/n3node/internal/core/transaction"
	"github.com/synnergy-network/n3node/internal/crypto/hash"
	nio "github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/ledger"
	"github.com/synnergy-network/n3node/internal/p2p"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

// Orchestrator wires a Ledger, a Mempool, a p2p.Node, and a consensus.Machine
// into one Core implementation: it is the node's only component that knows
// about all four collaborators at once.
type Orchestrator struct {
	mu sync.RWMutex

	log        *logrus.Entry
	chain      *ledger.Ledger
	mempool    *ledger.Mempool
	net        *p2p.Node
	validators consensus.ValidatorSet
	machine    *consensus.Machine

	lastPersist time.Duration
}

// New builds an Orchestrator over the given collaborators and registers it
// as net's frame handler and chain's commit observer. validators may be nil
// for a node that only follows the chain without participating in
// consensus.
func New(chain *ledger.Ledger, mempool *ledger.Mempool, net *p2p.Node, validators consensus.ValidatorSet) *Orchestrator {
	o := &Orchestrator{
		log:        logrus.WithField("component", "orchestrator"),
		chain:      chain,
		mempool:    mempool,
		net:        net,
		validators: validators,
		machine:    consensus.NewMachine(validators, chain.BlockHeight()+1),
	}
	if net != nil {
		net.SetHandler(o.handleFrame)
	}
	chain.OnCommitted(o.onCommitted)
	return o
}

func (o *Orchestrator) onCommitted(blk *block.Block) {
	if o.net != nil {
		o.net.Headers().Add(blk.Header)
	}
	o.mu.Lock()
	o.machine = consensus.NewMachine(o.validators, blk.Header.Index+1)
	o.mu.Unlock()
}

// BlockHeight implements Core.
func (o *Orchestrator) BlockHeight() uint32 { return o.chain.BlockHeight() }

// GetBlock implements Core.
func (o *Orchestrator) GetBlock(hashBytes []byte, idx *uint32) (*block.Block, error) {
	return o.chain.GetBlock(hashBytes, idx)
}

// GetTransaction implements Core.
func (o *Orchestrator) GetTransaction(hashBytes []byte) (*transaction.Transaction, uint32, vm.VMState, error) {
	return o.chain.GetTransaction(hashBytes)
}

// BestBlockHash implements Core.
func (o *Orchestrator) BestBlockHash() (util.Uint256, error) { return o.chain.BestBlockHash() }

// InvokeFunction implements Core.
func (o *Orchestrator) InvokeFunction(contractHash util.Uint160, method string, params []any) (*ledger.InvocationResult, error) {
	return o.chain.InvokeFunction(contractHash, method, params)
}

// SubmitTransaction implements Core: verify, stage, relay.
func (o *Orchestrator) SubmitTransaction(tx *transaction.Transaction) error {
	return o.acceptTransaction(tx, true)
}

// acceptTransaction stages tx in the mempool, which itself runs
// transaction.Validate and ledger.VerifyWitnesses before admission, and
// relays it to peers when relay is true (i.e. it arrived from SubmitTransaction
// rather than an inbound Transaction frame, which is already relay-safe on
// the sending side).
func (o *Orchestrator) acceptTransaction(tx *transaction.Transaction, relay bool) error {
	if err := o.mempool.TryAdd(tx, o.chain.BlockHeight()); err != nil {
		return err
	}
	if relay && o.net != nil {
		o.net.Broadcast(p2p.Frame{Command: p2p.CmdTransaction, Payload: nio.ToBytes(tx)})
	}
	return nil
}

// Health implements Core.
func (o *Orchestrator) Health() config.NodeHealth {
	o.mu.RLock()
	last := o.lastPersist
	o.mu.RUnlock()
	peers := 0
	if o.net != nil {
		peers = o.net.PeerCount()
	}
	return config.NodeHealth{
		BlockHeight:         o.chain.BlockHeight(),
		PeerCount:           peers,
		MempoolSize:         o.mempool.Len(),
		LastPersistDuration: last,
	}
}

// PersistBlock runs blk through the ledger's pipeline, timing it for
// Health's LastPersistDuration (§3 "NodeHealth... last-persist duration").
func (o *Orchestrator) PersistBlock(blk *block.Block) error {
	start := time.Now()
	err := o.chain.Persist(blk)
	o.mu.Lock()
	o.lastPersist = time.Since(start)
	o.mu.Unlock()
	return err
}

// handleFrame is the p2p.Handler registered with net: it routes inventory,
// block, transaction, and consensus envelope traffic into the ledger,
// mempool, and consensus machine.
func (o *Orchestrator) handleFrame(p *p2p.Peer, fr p2p.Frame) {
	switch fr.Command {
	case p2p.CmdTransaction:
		o.handleTransactionFrame(fr)
	case p2p.CmdBlock:
		o.handleBlockFrame(fr)
	case p2p.CmdInv:
		o.handleInvFrame(p, fr)
	case p2p.CmdGetData:
		o.handleGetDataFrame(p, fr)
	case p2p.CmdExtensible:
		o.handleExtensibleFrame(fr)
	default:
		o.log.WithField("command", fr.Command.String()).Debug("frame not handled by orchestrator")
	}
}

func (o *Orchestrator) handleTransactionFrame(fr p2p.Frame) {
	tx := &transaction.Transaction{}
	if err := nio.FromBytes(tx, fr.Payload); err != nil {
		o.log.WithError(err).Warn("malformed transaction frame")
		return
	}
	if err := o.acceptTransaction(tx, false); err != nil {
		o.log.WithError(err).WithField("tx", tx.Hash().String()).Debug("transaction rejected")
		return
	}
	if o.net != nil {
		o.net.AnnounceInventory(p2p.InvTypeTransaction, []util.Uint256{tx.Hash()})
	}
}

func (o *Orchestrator) handleBlockFrame(fr p2p.Frame) {
	blk := &block.Block{}
	if err := nio.FromBytes(blk, fr.Payload); err != nil {
		o.log.WithError(err).Warn("malformed block frame")
		return
	}
	if err := o.PersistBlock(blk); err != nil {
		o.log.WithError(err).WithField("index", blk.Header.Index).Debug("block rejected")
		return
	}
	if o.net != nil {
		o.net.AnnounceInventory(p2p.InvTypeBlock, []util.Uint256{blk.Hash()})
	}
}

func (o *Orchestrator) handleInvFrame(p *p2p.Peer, fr p2p.Frame) {
	inv := &p2p.Inventory{}
	if err := nio.FromBytes(inv, fr.Payload); err != nil {
		o.log.WithError(err).Warn("malformed inv frame")
		return
	}
	var missing []util.Uint256
	for _, h := range inv.Hashes {
		if o.haveInventory(inv.Type, h) {
			continue
		}
		missing = append(missing, h)
	}
	if len(missing) == 0 {
		return
	}
	req := &p2p.Inventory{Type: inv.Type, Hashes: missing}
	_ = p.Enqueue(p2p.Frame{Command: p2p.CmdGetData, Payload: nio.ToBytes(req)})
}

func (o *Orchestrator) haveInventory(t p2p.InvType, h util.Uint256) bool {
	switch t {
	case p2p.InvTypeTransaction:
		return o.mempool.Has(h)
	case p2p.InvTypeBlock:
		blk, err := o.chain.GetBlock(h.BytesLE(), nil)
		return err == nil && blk != nil
	default:
		return false
	}
}

func (o *Orchestrator) handleGetDataFrame(p *p2p.Peer, fr p2p.Frame) {
	inv := &p2p.Inventory{}
	if err := nio.FromBytes(inv, fr.Payload); err != nil {
		o.log.WithError(err).Warn("malformed getdata frame")
		return
	}
	for _, h := range inv.Hashes {
		switch inv.Type {
		case p2p.InvTypeTransaction:
			for _, tx := range o.mempool.Verified() {
				if tx.Hash() == h {
					_ = p.Enqueue(p2p.Frame{Command: p2p.CmdTransaction, Payload: nio.ToBytes(tx)})
					break
				}
			}
		case p2p.InvTypeBlock:
			blk, err := o.chain.GetBlock(h.BytesLE(), nil)
			if err == nil && blk != nil {
				_ = p.Enqueue(p2p.Frame{Command: p2p.CmdBlock, Payload: nio.ToBytes(blk)})
			}
		}
	}
}

func (o *Orchestrator) handleExtensibleFrame(fr p2p.Frame) {
	payload := &consensus.ExtensiblePayload{}
	if err := nio.FromBytes(payload, fr.Payload); err != nil {
		o.log.WithError(err).Warn("malformed extensible frame")
		return
	}
	if err := payload.Validate(o.chain.BlockHeight()); err != nil {
		o.log.WithError(err).Debug("extensible payload rejected")
		return
	}
	env := &consensus.Envelope{}
	if err := nio.FromBytes(env, payload.Data); err != nil {
		o.log.WithError(err).Warn("malformed consensus envelope")
		return
	}

	o.mu.RLock()
	m := o.machine
	o.mu.RUnlock()

	switch env.Type {
	case consensus.MsgChangeView:
		cv := &consensus.ChangeView{}
		if err := nio.FromBytes(cv, env.Payload); err == nil {
			m.OnChangeView(payload.Sender, cv.NewViewNumber)
		}
	case consensus.MsgPrepareRequest:
		preq := &consensus.PrepareRequest{}
		if err := nio.FromBytes(preq, env.Payload); err == nil {
			m.OnPrepareRequest(env.View, hash.Hash256(env.Payload))
		}
	case consensus.MsgCommit:
		c := &consensus.Commit{}
		if err := nio.FromBytes(c, env.Payload); err == nil {
			m.OnCommit(payload.Sender, env.View, c.Signature[:])
		}
	case consensus.MsgPrepareResponse, consensus.MsgRecoveryRequest, consensus.MsgRecoveryMessage:
		// Recorded by higher-level consensus tooling not yet wired to block
		// assembly; the envelope's witness and range checks above are the
		// consensus-relevant validation this core performs on them today.
	}
}
