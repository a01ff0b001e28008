package native

import (
	"encoding/binary"
	"fmt"

	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
)

// PolicyContract holds network-wide fee factors, the storage price, and the
// blocked-account list (§4.6).
type PolicyContract struct {
	methods map[string]*Method
}

const (
	policyID = -7

	prefixFeePerByte     = 0x0A
	prefixExecFeeFactor  = 0x0B
	prefixStoragePrice   = 0x0C
	prefixBlockedAccount = 0x0D
)

const (
	defaultFeePerByte    = 1000
	defaultExecFeeFactor = 30
	defaultStoragePrice  = 100000
)

var policyHash = contractHash("PolicyContract")

func NewPolicyContract() *PolicyContract {
	p := &PolicyContract{}
	p.methods = map[string]*Method{
		"getFeePerByte":    {Name: "getFeePerByte", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 10, Handler: p.getFeePerByte},
		"setFeePerByte":    {Name: "setFeePerByte", RequiredFlag: vm.CallFlagWriteStates, GasCost: 1 << 15, Handler: p.setFeePerByte},
		"getExecFeeFactor": {Name: "getExecFeeFactor", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 10, Handler: p.getExecFeeFactor},
		"setExecFeeFactor": {Name: "setExecFeeFactor", RequiredFlag: vm.CallFlagWriteStates, GasCost: 1 << 15, Handler: p.setExecFeeFactor},
		"getStoragePrice":  {Name: "getStoragePrice", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 10, Handler: p.getStoragePrice},
		"setStoragePrice":  {Name: "setStoragePrice", RequiredFlag: vm.CallFlagWriteStates, GasCost: 1 << 15, Handler: p.setStoragePrice},
		"blockAccount":     {Name: "blockAccount", RequiredFlag: vm.CallFlagWriteStates, GasCost: 1 << 15, Handler: p.blockAccount},
		"unblockAccount":   {Name: "unblockAccount", RequiredFlag: vm.CallFlagWriteStates, GasCost: 1 << 15, Handler: p.unblockAccount},
		"isBlocked":        {Name: "isBlocked", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 10, Handler: p.isBlocked},
	}
	return p
}

func (p *PolicyContract) ID() int32                  { return policyID }
func (p *PolicyContract) Hash() util.Uint160          { return policyHash }
func (p *PolicyContract) Name() string                { return "PolicyContract" }
func (p *PolicyContract) Methods() map[string]*Method { return p.methods }

func getUint64(e *vm.ApplicationEngine, id int32, prefix byte, def uint64) uint64 {
	v, ok := snapshotOf(e).Get(storageKey(id, prefix, nil))
	if !ok {
		return def
	}
	return binary.LittleEndian.Uint64(v)
}

func putUint64(e *vm.ApplicationEngine, id int32, prefix byte, v uint64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	snapshotOf(e).Put(storageKey(id, prefix, nil), buf)
}

func (p *PolicyContract) getFeePerByte(_ Contract, e *vm.ApplicationEngine, _ []any) (any, error) {
	return int64(getUint64(e, policyID, prefixFeePerByte, defaultFeePerByte)), nil
}

func (p *PolicyContract) setFeePerByte(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	v, ok := args[0].(int64)
	if !ok || v < 0 {
		return nil, fmt.Errorf("setFeePerByte: invalid value")
	}
	putUint64(e, policyID, prefixFeePerByte, uint64(v))
	return true, nil
}

func (p *PolicyContract) getExecFeeFactor(_ Contract, e *vm.ApplicationEngine, _ []any) (any, error) {
	return int64(getUint64(e, policyID, prefixExecFeeFactor, defaultExecFeeFactor)), nil
}

func (p *PolicyContract) setExecFeeFactor(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	v, ok := args[0].(int64)
	if !ok || v < 0 {
		return nil, fmt.Errorf("setExecFeeFactor: invalid value")
	}
	putUint64(e, policyID, prefixExecFeeFactor, uint64(v))
	return true, nil
}

func (p *PolicyContract) getStoragePrice(_ Contract, e *vm.ApplicationEngine, _ []any) (any, error) {
	return int64(getUint64(e, policyID, prefixStoragePrice, defaultStoragePrice)), nil
}

func (p *PolicyContract) setStoragePrice(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	v, ok := args[0].(int64)
	if !ok || v < 0 {
		return nil, fmt.Errorf("setStoragePrice: invalid value")
	}
	putUint64(e, policyID, prefixStoragePrice, uint64(v))
	return true, nil
}

func (p *PolicyContract) blockAccount(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	acct, ok := args[0].(util.Uint160)
	if !ok {
		return nil, fmt.Errorf("blockAccount: expected account argument")
	}
	snapshotOf(e).Put(storageKey(policyID, prefixBlockedAccount, acct.BytesLE()), []byte{1})
	return true, nil
}

func (p *PolicyContract) unblockAccount(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	acct, ok := args[0].(util.Uint160)
	if !ok {
		return nil, fmt.Errorf("unblockAccount: expected account argument")
	}
	snapshotOf(e).Delete(storageKey(policyID, prefixBlockedAccount, acct.BytesLE()))
	return true, nil
}

func (p *PolicyContract) isBlocked(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	acct, ok := args[0].(util.Uint160)
	if !ok {
		return nil, fmt.Errorf("isBlocked: expected account argument")
	}
	return snapshotOf(e).Contains(storageKey(policyID, prefixBlockedAccount, acct.BytesLE())), nil
}
