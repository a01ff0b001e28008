package native

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/util"
)

func TestNeoMintIsSupplyAndBalance(t *testing.T) {
	n := NewNeoToken(nil)
	e := newTestEngine()
	var holder util.Uint160
	holder[0] = 0x01

	if err := n.Mint(e, holder, NeoTotalSupply); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	bal, err := Invoke(n, e, "balanceOf", []any{holder})
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if bal.(int64) != NeoTotalSupply {
		t.Fatalf("expected full supply held, got %v", bal)
	}
}

func TestNeoRegisterCandidateAndVote(t *testing.T) {
	n := NewNeoToken(nil)
	e := newTestEngine()
	var holder util.Uint160
	holder[0] = 0x01
	if err := n.Mint(e, holder, 1000); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	pub := testPubKeyBytes(t)
	if _, err := Invoke(n, e, "registerCandidate", []any{pub}); err != nil {
		t.Fatalf("registerCandidate: %v", err)
	}

	ok, err := Invoke(n, e, "vote", []any{holder, pub})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !ok.(bool) {
		t.Fatalf("expected vote to succeed")
	}

	cands, err := Invoke(n, e, "getCandidates", nil)
	if err != nil {
		t.Fatalf("getCandidates: %v", err)
	}
	list := cands.([]Candidate)
	if len(list) != 1 || list[0].Votes != 1000 {
		t.Fatalf("expected one candidate with 1000 votes, got %v", list)
	}
}

func TestNeoVoteForUnknownCandidateFails(t *testing.T) {
	n := NewNeoToken(nil)
	e := newTestEngine()
	var holder util.Uint160
	holder[0] = 0x01
	if err := n.Mint(e, holder, 1000); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	ok, err := Invoke(n, e, "vote", []any{holder, testPubKeyBytes(t)})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if ok.(bool) {
		t.Fatalf("expected vote for unregistered candidate to fail")
	}
}

func TestNeoTransferMovesVoteWeight(t *testing.T) {
	n := NewNeoToken(nil)
	e := newTestEngine()
	var from, to util.Uint160
	from[0] = 0x01
	to[0] = 0x02
	if err := n.Mint(e, from, 1000); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	pub := testPubKeyBytes(t)
	if _, err := Invoke(n, e, "registerCandidate", []any{pub}); err != nil {
		t.Fatalf("registerCandidate: %v", err)
	}
	if _, err := Invoke(n, e, "vote", []any{from, pub}); err != nil {
		t.Fatalf("vote: %v", err)
	}

	if _, err := Invoke(n, e, "transfer", []any{from, to, int64(1000)}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	cands, _ := Invoke(n, e, "getCandidates", nil)
	list := cands.([]Candidate)
	if len(list) != 1 || list[0].Votes != 0 {
		t.Fatalf("expected vote weight to leave with the transferred balance, got %v", list)
	}
}

func TestNeoDecimalsIsZero(t *testing.T) {
	n := NewNeoToken(nil)
	e := newTestEngine()
	dec, err := Invoke(n, e, "decimals", nil)
	if err != nil {
		t.Fatalf("decimals: %v", err)
	}
	if dec.(int64) != 0 {
		t.Fatalf("expected decimals 0, got %v", dec)
	}
}
