package config

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/crypto/keys"
)

func testKey(t *testing.T) *keys.PrivateKey {
	t.Helper()
	priv, err := keys.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	return priv
}

func TestGenesisHashIsDeterministicForFixedSettings(t *testing.T) {
	priv := testKey(t)
	ps := DefaultSoloSettings(priv)

	h1, err := GenesisHash(ps)
	if err != nil {
		t.Fatalf("GenesisHash: %v", err)
	}
	h2, err := GenesisHash(ps)
	if err != nil {
		t.Fatalf("GenesisHash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("GenesisHash is not deterministic: %s != %s", h1, h2)
	}
}

func TestGenesisHashDiffersAcrossCommittees(t *testing.T) {
	ps1 := DefaultSoloSettings(testKey(t))
	ps2 := DefaultSoloSettings(testKey(t))

	h1, err := GenesisHash(ps1)
	if err != nil {
		t.Fatalf("GenesisHash: %v", err)
	}
	h2, err := GenesisHash(ps2)
	if err != nil {
		t.Fatalf("GenesisHash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected distinct committees to produce distinct genesis hashes")
	}
}

func TestGenesisHashRequiresStandbyCommittee(t *testing.T) {
	if _, err := GenesisHash(&ProtocolSettings{}); err == nil {
		t.Fatalf("expected an error with no standby committee configured")
	}
}

func TestGenesisBlockWitnessVerifiesAsStandardContract(t *testing.T) {
	priv := testKey(t)
	ps := DefaultSoloSettings(priv)
	g, err := GenesisBlock(ps)
	if err != nil {
		t.Fatalf("GenesisBlock: %v", err)
	}
	if g.Header.Witness == nil || len(g.Header.Witness.VerificationScript) == 0 {
		t.Fatalf("genesis header missing witness")
	}
	if g.Header.NextConsensus != g.Header.Witness.ScriptHash() {
		t.Fatalf("NextConsensus does not match the committee script's own hash")
	}
}
