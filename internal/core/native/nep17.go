package native

import (
	"encoding/binary"
	"fmt"

	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
	"github.com/synnergy-network/n3node/internal/vm/stackitem"
)

// nep17 bundles the balance/supply storage and Transfer-notification
// bookkeeping shared by NeoToken and GasToken (§4.6), so each token only
// needs to supply its own id, prefixes, and name/decimals.
type nep17 struct {
	id             int32
	prefixBalance  byte
	prefixSupply   byte
	contractHash   util.Uint160
}

var ErrInsufficientBalance = fmt.Errorf("nep17: insufficient balance")
var ErrNegativeAmount = fmt.Errorf("nep17: amount must be non-negative")

func balanceKey(id int32, prefix byte, account util.Uint160) []byte {
	return storageKey(id, prefix, account.BytesLE())
}

func (n *nep17) balanceOf(e *vm.ApplicationEngine, account util.Uint160) int64 {
	v, ok := snapshotOf(e).Get(balanceKey(n.id, n.prefixBalance, account))
	if !ok {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(v))
}

func (n *nep17) setBalance(e *vm.ApplicationEngine, account util.Uint160, amount int64) {
	snap := snapshotOf(e)
	key := balanceKey(n.id, n.prefixBalance, account)
	if amount == 0 {
		snap.Delete(key)
		return
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(amount))
	snap.Put(key, buf)
}

func (n *nep17) totalSupply(e *vm.ApplicationEngine) int64 {
	v, ok := snapshotOf(e).Get(storageKey(n.id, n.prefixSupply, nil))
	if !ok {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(v))
}

func (n *nep17) setTotalSupply(e *vm.ApplicationEngine, v int64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	snapshotOf(e).Put(storageKey(n.id, n.prefixSupply, nil), buf)
}

// mint credits account and grows total supply, used for the genesis
// distribution and GasToken's per-block network fee issuance.
func (n *nep17) mint(e *vm.ApplicationEngine, account util.Uint160, amount int64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	if amount == 0 {
		return nil
	}
	n.setBalance(e, account, n.balanceOf(e, account)+amount)
	n.setTotalSupply(e, n.totalSupply(e)+amount)
	n.notifyTransfer(e, util.Uint160{}, account, amount)
	return nil
}

// burn debits account and shrinks total supply.
func (n *nep17) burn(e *vm.ApplicationEngine, account util.Uint160, amount int64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	if amount == 0 {
		return nil
	}
	bal := n.balanceOf(e, account)
	if bal < amount {
		return ErrInsufficientBalance
	}
	n.setBalance(e, account, bal-amount)
	n.setTotalSupply(e, n.totalSupply(e)-amount)
	n.notifyTransfer(e, account, util.Uint160{}, amount)
	return nil
}

// transfer moves amount from `from` to `to`, emitting the Transfer
// notification every NEP-17 token fires on balance change. If a
// registry is supplied and `to` resolves to a deployed contract, an
// onNEP17Payment callback is queued to run after the current instruction.
//
// TODO: once internal/ledger can load and execute a stored contract's
// script from inside a native handler, have the queued callback actually
// invoke onNEP17Payment instead of being a no-op placeholder.
func (n *nep17) transfer(e *vm.ApplicationEngine, registry *Registry, from, to util.Uint160, amount int64, data stackitem.Item) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	if amount == 0 {
		n.notifyTransfer(e, from, to, amount)
		return nil
	}
	if from != to {
		bal := n.balanceOf(e, from)
		if bal < amount {
			return ErrInsufficientBalance
		}
		n.setBalance(e, from, bal-amount)
		n.setBalance(e, to, n.balanceOf(e, to)+amount)
	}
	n.notifyTransfer(e, from, to, amount)

	if registry != nil {
		if _, isContract := registry.ByHash(to); isContract {
			e.EnqueueOnPayment(func(*vm.ApplicationEngine) error { return nil })
		}
	}
	return nil
}

func (n *nep17) notifyTransfer(e *vm.ApplicationEngine, from, to util.Uint160, amount int64) {
	e.Notifications = append(e.Notifications, vm.NotifyEvent{
		ScriptHash: n.contractHash,
		EventName:  "Transfer",
		State: stackitem.NewArray([]stackitem.Item{
			stackitem.NewByteString(from.BytesLE()),
			stackitem.NewByteString(to.BytesLE()),
			stackitem.NewIntegerFromInt64(amount),
		}),
	})
}
