package native

import (
	"fmt"

	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
	"github.com/synnergy-network/n3node/internal/vm/stackitem"
)

// GasToken is the network's NEP-17 utility token (§4.6): decimals 8,
// minted as network/system fees are collected and burned as they're spent.
type GasToken struct {
	nep17
	methods  map[string]*Method
	registry *Registry
}

const gasID = -6
const prefixGasBalance = 0x14
const prefixGasSupply = 0x15

// GasDecimals is the number of fractional digits a GAS amount carries
// (1 GAS == 10^8 datoshi).
const GasDecimals = 8

var gasTokenHash = contractHash("GasToken")

// NewGasToken builds the contract. registry is used to detect payments to
// deployed contracts for the onNEP17Payment callback queue; it may be nil
// in tests that don't need that behavior.
func NewGasToken(registry *Registry) *GasToken {
	g := &GasToken{
		nep17:    nep17{id: gasID, prefixBalance: prefixGasBalance, prefixSupply: prefixGasSupply, contractHash: gasTokenHash},
		registry: registry,
	}
	g.methods = map[string]*Method{
		"symbol":      {Name: "symbol", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 4, Handler: g.symbol},
		"decimals":    {Name: "decimals", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 4, Handler: g.decimals},
		"totalSupply": {Name: "totalSupply", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 10, Handler: g.totalSupplyMethod},
		"balanceOf":   {Name: "balanceOf", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 10, Handler: g.balanceOfMethod},
		"transfer":    {Name: "transfer", RequiredFlag: vm.CallFlagStates | vm.CallFlagAllowNotify, GasCost: 1 << 17, Handler: g.transferMethod},
	}
	return g
}

func (g *GasToken) ID() int32                  { return gasID }
func (g *GasToken) Hash() util.Uint160          { return gasTokenHash }
func (g *GasToken) Name() string                { return "GasToken" }
func (g *GasToken) Methods() map[string]*Method { return g.methods }

func (g *GasToken) symbol(_ Contract, _ *vm.ApplicationEngine, _ []any) (any, error) {
	return "GAS", nil
}

func (g *GasToken) decimals(_ Contract, _ *vm.ApplicationEngine, _ []any) (any, error) {
	return int64(GasDecimals), nil
}

func (g *GasToken) totalSupplyMethod(_ Contract, e *vm.ApplicationEngine, _ []any) (any, error) {
	return g.totalSupply(e), nil
}

func (g *GasToken) balanceOfMethod(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	account, ok := args[0].(util.Uint160)
	if !ok {
		return nil, fmt.Errorf("balanceOf: expected account argument")
	}
	return g.balanceOf(e, account), nil
}

func (g *GasToken) transferMethod(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	from, ok1 := args[0].(util.Uint160)
	to, ok2 := args[1].(util.Uint160)
	amount, ok3 := args[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("transfer: expected (from, to, amount) arguments")
	}
	var data stackitem.Item
	if len(args) > 3 {
		data, _ = args[3].(stackitem.Item)
	}
	if err := g.transfer(e, g.registry, from, to, amount, data); err != nil {
		if err == ErrInsufficientBalance {
			return false, nil
		}
		return nil, err
	}
	return true, nil
}

// Mint credits account with amount datoshi of GAS, called by the ledger
// when distributing network/system fees collected during persistence.
func (g *GasToken) Mint(e *vm.ApplicationEngine, account util.Uint160, amount int64) error {
	return g.mint(e, account, amount)
}

// Burn debits account by amount datoshi of GAS, called by the ledger when
// charging a transaction's system/network fee.
func (g *GasToken) Burn(e *vm.ApplicationEngine, account util.Uint160, amount int64) error {
	return g.burn(e, account, amount)
}
