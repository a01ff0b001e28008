package native

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/store"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
	"github.com/synnergy-network/n3node/internal/vm/stackitem"
)

// NeoToken is the network's non-divisible governance token (§4.6): holding
// it grants a vote weight equal to the balance, cast for a registered
// candidate public key; the highest-voted candidates form the committee.
type NeoToken struct {
	nep17
	methods  map[string]*Method
	registry *Registry
}

const neoID = -5

const (
	prefixNeoBalance  = 0x01
	prefixNeoSupply   = 0x02
	prefixCandidate   = 0x21
	prefixVoteTarget  = 0x22
)

// NeoTotalSupply is minted once, at genesis, and never changes afterward.
const NeoTotalSupply = 100_000_000

// NeoDecimals is always zero: NEO cannot be subdivided.
const NeoDecimals = 0

// CommitteeSize and ValidatorsCount mirror the reference network's
// defaults; a private chain could configure different values, but nothing
// in this core currently exposes that as a setting.
const (
	CommitteeSize    = 21
	ValidatorsCount  = 7
)

var neoTokenHash = contractHash("NeoToken")

func NewNeoToken(registry *Registry) *NeoToken {
	n := &NeoToken{
		nep17:    nep17{id: neoID, prefixBalance: prefixNeoBalance, prefixSupply: prefixNeoSupply, contractHash: neoTokenHash},
		registry: registry,
	}
	n.methods = map[string]*Method{
		"symbol":             {Name: "symbol", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 4, Handler: n.symbol},
		"decimals":           {Name: "decimals", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 4, Handler: n.decimals},
		"totalSupply":        {Name: "totalSupply", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 10, Handler: n.totalSupplyMethod},
		"balanceOf":          {Name: "balanceOf", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 10, Handler: n.balanceOfMethod},
		"transfer":           {Name: "transfer", RequiredFlag: vm.CallFlagStates | vm.CallFlagAllowNotify, GasCost: 1 << 17, Handler: n.transferMethod},
		"registerCandidate":  {Name: "registerCandidate", RequiredFlag: vm.CallFlagWriteStates, GasCost: 1 << 20, Handler: n.registerCandidate},
		"unregisterCandidate": {Name: "unregisterCandidate", RequiredFlag: vm.CallFlagWriteStates, GasCost: 1 << 18, Handler: n.unregisterCandidate},
		"vote":               {Name: "vote", RequiredFlag: vm.CallFlagStates, GasCost: 1 << 18, Handler: n.vote},
		"getCandidates":      {Name: "getCandidates", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 15, Handler: n.getCandidates},
		"getCommittee":       {Name: "getCommittee", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 15, Handler: n.getCommittee},
		"getNextBlockValidators": {Name: "getNextBlockValidators", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 15, Handler: n.getNextBlockValidators},
	}
	return n
}

func (n *NeoToken) ID() int32                  { return neoID }
func (n *NeoToken) Hash() util.Uint160          { return neoTokenHash }
func (n *NeoToken) Name() string                { return "NeoToken" }
func (n *NeoToken) Methods() map[string]*Method { return n.methods }

func (n *NeoToken) symbol(_ Contract, _ *vm.ApplicationEngine, _ []any) (any, error) {
	return "NEO", nil
}

func (n *NeoToken) decimals(_ Contract, _ *vm.ApplicationEngine, _ []any) (any, error) {
	return int64(NeoDecimals), nil
}

func (n *NeoToken) totalSupplyMethod(_ Contract, e *vm.ApplicationEngine, _ []any) (any, error) {
	return n.totalSupply(e), nil
}

func (n *NeoToken) balanceOfMethod(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	account, ok := args[0].(util.Uint160)
	if !ok {
		return nil, fmt.Errorf("balanceOf: expected account argument")
	}
	return n.balanceOf(e, account), nil
}

// transferMethod moves NEO between accounts and re-casts the sender and
// recipient's vote weight: a transfer changes how much weight each
// account's existing vote target carries.
func (n *NeoToken) transferMethod(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
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

	if err := n.transfer(e, n.registry, from, to, amount, data); err != nil {
		if err == ErrInsufficientBalance {
			return false, nil
		}
		return nil, err
	}

	fromTarget, fromHasVote := n.voteTarget(e, from)
	if fromHasVote && from != to {
		n.adjustCandidateVotes(e, fromTarget, -amount)
	}

	toTarget, toHasVote := n.voteTarget(e, to)
	if toHasVote && from != to {
		n.adjustCandidateVotes(e, toTarget, amount)
	}
	return true, nil
}

func candidateKey(pub []byte) []byte {
	return storageKey(neoID, prefixCandidate, pub)
}

func voteTargetKey(account util.Uint160) []byte {
	return storageKey(neoID, prefixVoteTarget, account.BytesLE())
}

func (n *NeoToken) voteTarget(e *vm.ApplicationEngine, account util.Uint160) ([]byte, bool) {
	v, ok := snapshotOf(e).Get(voteTargetKey(account))
	if !ok || len(v) == 0 {
		return nil, false
	}
	return v, true
}

func (n *NeoToken) candidateVotes(e *vm.ApplicationEngine, pub []byte) int64 {
	v, ok := snapshotOf(e).Get(candidateKey(pub))
	if !ok {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(v))
}

func (n *NeoToken) setCandidateVotes(e *vm.ApplicationEngine, pub []byte, votes int64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(votes))
	snapshotOf(e).Put(candidateKey(pub), buf)
}

func (n *NeoToken) adjustCandidateVotes(e *vm.ApplicationEngine, pub []byte, delta int64) {
	if !snapshotOf(e).Contains(candidateKey(pub)) {
		return
	}
	n.setCandidateVotes(e, pub, n.candidateVotes(e, pub)+delta)
}

func (n *NeoToken) registerCandidate(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	pub, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("registerCandidate: expected public key argument")
	}
	if _, err := keys.PublicKeyFromBytes(pub); err != nil {
		return nil, fmt.Errorf("registerCandidate: %w", err)
	}
	snap := snapshotOf(e)
	if !snap.Contains(candidateKey(pub)) {
		n.setCandidateVotes(e, pub, 0)
	}
	return true, nil
}

func (n *NeoToken) unregisterCandidate(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	pub, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("unregisterCandidate: expected public key argument")
	}
	snapshotOf(e).Delete(candidateKey(pub))
	return true, nil
}

// vote assigns account's full balance as vote weight to candidate (or
// clears its vote if candidate is nil), moving weight off any previous
// target first.
func (n *NeoToken) vote(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	account, ok := args[0].(util.Uint160)
	if !ok {
		return nil, fmt.Errorf("vote: expected account argument")
	}
	var candidate []byte
	if len(args) > 1 && args[1] != nil {
		candidate, _ = args[1].([]byte)
	}

	balance := n.balanceOf(e, account)
	snap := snapshotOf(e)

	if prevTarget, had := n.voteTarget(e, account); had {
		n.adjustCandidateVotes(e, prevTarget, -balance)
	}

	if candidate == nil {
		snap.Delete(voteTargetKey(account))
		return true, nil
	}
	if !snap.Contains(candidateKey(candidate)) {
		return false, nil
	}
	snap.Put(voteTargetKey(account), candidate)
	n.adjustCandidateVotes(e, candidate, balance)
	return true, nil
}

// Candidate is one registered candidate's public key and accumulated vote
// weight.
type Candidate struct {
	PublicKey []byte
	Votes     int64
}

func (n *NeoToken) allCandidates(e *vm.ApplicationEngine) []Candidate {
	prefix := storageKey(neoID, prefixCandidate, nil)
	it := snapshotOf(e).Find(prefix, store.Forward)
	var out []Candidate
	for it.Next() {
		key := it.Key()
		pub := append([]byte(nil), key[len(key)-keys.PublicKeySize:]...)
		out = append(out, Candidate{PublicKey: pub, Votes: int64(binary.LittleEndian.Uint64(it.Value()))})
	}
	return out
}

func (n *NeoToken) getCandidates(_ Contract, e *vm.ApplicationEngine, _ []any) (any, error) {
	return n.allCandidates(e), nil
}

func sortedCandidatesDesc(cands []Candidate) []Candidate {
	out := append([]Candidate(nil), cands...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return string(out[i].PublicKey) < string(out[j].PublicKey)
	})
	return out
}

func (n *NeoToken) getCommittee(_ Contract, e *vm.ApplicationEngine, _ []any) (any, error) {
	sorted := sortedCandidatesDesc(n.allCandidates(e))
	size := CommitteeSize
	if len(sorted) < size {
		size = len(sorted)
	}
	out := make([][]byte, size)
	for i := 0; i < size; i++ {
		out[i] = sorted[i].PublicKey
	}
	return out, nil
}

func (n *NeoToken) getNextBlockValidators(_ Contract, e *vm.ApplicationEngine, _ []any) (any, error) {
	sorted := sortedCandidatesDesc(n.allCandidates(e))
	size := ValidatorsCount
	if len(sorted) < size {
		size = len(sorted)
	}
	out := make([][]byte, size)
	for i := 0; i < size; i++ {
		out[i] = sorted[i].PublicKey
	}
	return out, nil
}

// Mint credits account with amount NEO, used once by genesis block
// construction to issue the fixed NeoTotalSupply to the initial holder.
func (n *NeoToken) Mint(e *vm.ApplicationEngine, account util.Uint160, amount int64) error {
	return n.mint(e, account, amount)
}
