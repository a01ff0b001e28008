package consensus

import (
	"sync"

	"github.com/synnergy-network/n3node/internal/util"
)

// Phase is the dBFT state machine's current stage within a view (§4.9
// "state machine (view changes, timeouts, block construction)").
type Phase int

const (
	PhaseStart Phase = iota
	PhasePrepare
	PhaseCommit
	PhaseViewChanging
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "Start"
	case PhasePrepare:
		return "Prepare"
	case PhaseCommit:
		return "Commit"
	case PhaseViewChanging:
		return "ViewChanging"
	default:
		return "Unknown"
	}
}

// ValidatorSet is the fixed committee a height's consensus round runs over,
// identified by verification-script hash in signer order.
type ValidatorSet []util.Uint160

// Quorum returns the BFT-safe commit/view-change threshold for n
// validators: n - floor((n-1)/3), the same majority the genesis committee
// multisig contract requires.
func (vs ValidatorSet) Quorum() int {
	n := len(vs)
	if n == 0 {
		return 0
	}
	return n - (n-1)/3
}

func (vs ValidatorSet) indexOf(account util.Uint160) (int, bool) {
	for i, v := range vs {
		if v == account {
			return i, true
		}
	}
	return 0, false
}

// Machine drives one height's consensus round: it tallies ChangeView and
// Commit envelopes per view and reports when a view reaches quorum for
// either, leaving block assembly and network I/O to its caller. The core
// itself treats consensus messages as opaque beyond envelope routing and
// signature verification (§4.9); Machine only adds the minimal counting a
// caller needs to know when to act.
type Machine struct {
	mu         sync.Mutex
	validators ValidatorSet
	height     uint32
	view       byte
	phase      Phase

	changeViews map[byte]map[int]bool
	commits     map[byte]map[int][]byte
	prepareHash map[byte]util.Uint256
}

// NewMachine starts a fresh round at height for validators.
func NewMachine(validators ValidatorSet, height uint32) *Machine {
	return &Machine{
		validators:  validators,
		height:      height,
		phase:       PhaseStart,
		changeViews: make(map[byte]map[int]bool),
		commits:     make(map[byte]map[int][]byte),
		prepareHash: make(map[byte]util.Uint256),
	}
}

// Height returns the block height this round is building.
func (m *Machine) Height() uint32 { return m.height }

// View returns the current, possibly-changed, view number.
func (m *Machine) View() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Phase returns the round's current stage.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// OnPrepareRequest records the view's proposed block hash, entering the
// Prepare phase if view is the active one.
func (m *Machine) OnPrepareRequest(view byte, blockHash util.Uint256) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prepareHash[view] = blockHash
	if view == m.view {
		m.phase = PhasePrepare
	}
}

// PrepareHash returns the block hash proposed for view, if any.
func (m *Machine) PrepareHash(view byte) (util.Uint256, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.prepareHash[view]
	return h, ok
}

// OnChangeView records sender's vote to move to newView. sender not being a
// member of the validator set is silently ignored rather than erroring: the
// envelope-level witness check already rejected any other principal before
// a message reaches here. Returns true the instant newView's votes first
// reach quorum.
func (m *Machine) OnChangeView(sender util.Uint160, newView byte) (quorum bool) {
	idx, ok := m.validators.indexOf(sender)
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	votes, ok := m.changeViews[newView]
	if !ok {
		votes = make(map[int]bool)
		m.changeViews[newView] = votes
	}
	already := votes[idx]
	votes[idx] = true
	reached := len(votes) == m.validators.Quorum()
	if reached && !already {
		m.view = newView
		m.phase = PhaseStart
		return true
	}
	return false
}

// OnCommit records sender's commit signature for view. Returns true the
// instant view's commits first reach quorum, signaling the caller that the
// prepared block may be finalized and persisted.
func (m *Machine) OnCommit(sender util.Uint160, view byte, signature []byte) (quorum bool) {
	idx, ok := m.validators.indexOf(sender)
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sigs, ok := m.commits[view]
	if !ok {
		sigs = make(map[int][]byte)
		m.commits[view] = sigs
	}
	_, already := sigs[idx]
	sigs[idx] = signature
	reached := len(sigs) == m.validators.Quorum()
	if reached && !already {
		m.phase = PhaseCommit
		return true
	}
	return false
}

// CommitCount reports how many distinct validators have committed to view.
func (m *Machine) CommitCount(view byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.commits[view])
}
