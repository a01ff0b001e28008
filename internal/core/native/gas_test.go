package native

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/util"
)

func TestGasMintAndBalance(t *testing.T) {
	g := NewGasToken(nil)
	e := newTestEngine()
	var acct util.Uint160
	acct[0] = 0x01

	if err := g.Mint(e, acct, 100_000_000); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	v, err := Invoke(g, e, "balanceOf", []any{acct})
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if v.(int64) != 100_000_000 {
		t.Fatalf("expected 100_000_000, got %v", v)
	}
	supply, err := Invoke(g, e, "totalSupply", nil)
	if err != nil {
		t.Fatalf("totalSupply: %v", err)
	}
	if supply.(int64) != 100_000_000 {
		t.Fatalf("expected total supply 100_000_000, got %v", supply)
	}
}

func TestGasTransfer(t *testing.T) {
	g := NewGasToken(nil)
	e := newTestEngine()
	var from, to util.Uint160
	from[0] = 0x01
	to[0] = 0xAA

	if err := g.Mint(e, from, 100_000_000); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	ok, err := Invoke(g, e, "transfer", []any{from, to, int64(100_000_000)})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !ok.(bool) {
		t.Fatalf("expected transfer to succeed")
	}

	balFrom, _ := Invoke(g, e, "balanceOf", []any{from})
	balTo, _ := Invoke(g, e, "balanceOf", []any{to})
	if balFrom.(int64) != 0 {
		t.Fatalf("expected sender balance 0, got %v", balFrom)
	}
	if balTo.(int64) != 100_000_000 {
		t.Fatalf("expected recipient balance 100_000_000, got %v", balTo)
	}
}

func TestGasTransferInsufficientBalance(t *testing.T) {
	g := NewGasToken(nil)
	e := newTestEngine()
	var from, to util.Uint160
	from[0] = 0x01
	to[0] = 0xAA

	ok, err := Invoke(g, e, "transfer", []any{from, to, int64(1)})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if ok.(bool) {
		t.Fatalf("expected transfer with no balance to fail")
	}
}

func TestGasBurn(t *testing.T) {
	g := NewGasToken(nil)
	e := newTestEngine()
	var acct util.Uint160
	acct[0] = 0x01
	if err := g.Mint(e, acct, 500); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := g.Burn(e, acct, 200); err != nil {
		t.Fatalf("Burn: %v", err)
	}
	v, _ := Invoke(g, e, "balanceOf", []any{acct})
	if v.(int64) != 300 {
		t.Fatalf("expected 300 after burn, got %v", v)
	}
}

func TestGasDecimalsAndSymbol(t *testing.T) {
	g := NewGasToken(nil)
	e := newTestEngine()
	sym, _ := Invoke(g, e, "symbol", nil)
	if sym.(string) != "GAS" {
		t.Fatalf("expected GAS symbol, got %v", sym)
	}
	dec, _ := Invoke(g, e, "decimals", nil)
	if dec.(int64) != GasDecimals {
		t.Fatalf("expected decimals %d, got %v", GasDecimals, dec)
	}
}
