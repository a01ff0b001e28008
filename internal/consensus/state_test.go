package consensus

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/util"
)

func fourValidators() ValidatorSet {
	return ValidatorSet{
		util.Uint160{1}, util.Uint160{2}, util.Uint160{3}, util.Uint160{4},
	}
}

func TestValidatorSetQuorum(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{1, 1}, {4, 3}, {7, 5}, {10, 7},
	}
	for _, c := range cases {
		vs := make(ValidatorSet, c.n)
		if got := vs.Quorum(); got != c.want {
			t.Fatalf("Quorum(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestMachineOnChangeViewReachesQuorum(t *testing.T) {
	vs := fourValidators()
	m := NewMachine(vs, 100)
	if q := m.OnChangeView(vs[0], 1); q {
		t.Fatalf("quorum reached too early")
	}
	if q := m.OnChangeView(vs[1], 1); q {
		t.Fatalf("quorum reached too early")
	}
	if q := m.OnChangeView(vs[2], 1); !q {
		t.Fatalf("expected quorum at the 3rd of 4 validators")
	}
	if m.View() != 1 {
		t.Fatalf("view = %d, want 1", m.View())
	}
}

func TestMachineOnChangeViewIgnoresUnknownSender(t *testing.T) {
	vs := fourValidators()
	m := NewMachine(vs, 100)
	if q := m.OnChangeView(util.Uint160{99}, 1); q {
		t.Fatalf("unknown sender must not count toward quorum")
	}
}

func TestMachineOnChangeViewDuplicateVoteDoesNotRetrigger(t *testing.T) {
	vs := fourValidators()
	m := NewMachine(vs, 100)
	m.OnChangeView(vs[0], 1)
	m.OnChangeView(vs[1], 1)
	m.OnChangeView(vs[2], 1)
	if q := m.OnChangeView(vs[2], 1); q {
		t.Fatalf("repeated vote from the same validator must not re-signal quorum")
	}
}

func TestMachineOnCommitReachesQuorumAndSetsPhase(t *testing.T) {
	vs := fourValidators()
	m := NewMachine(vs, 100)
	m.OnCommit(vs[0], 0, []byte{1})
	m.OnCommit(vs[1], 0, []byte{2})
	if q := m.OnCommit(vs[2], 0, []byte{3}); !q {
		t.Fatalf("expected quorum at the 3rd commit of 4 validators")
	}
	if m.Phase() != PhaseCommit {
		t.Fatalf("phase = %v, want PhaseCommit", m.Phase())
	}
	if m.CommitCount(0) != 3 {
		t.Fatalf("commit count = %d, want 3", m.CommitCount(0))
	}
}

func TestMachinePrepareHash(t *testing.T) {
	vs := fourValidators()
	m := NewMachine(vs, 100)
	if _, ok := m.PrepareHash(0); ok {
		t.Fatalf("expected no prepare hash before OnPrepareRequest")
	}
	h := util.Uint256{7, 7, 7}
	m.OnPrepareRequest(0, h)
	got, ok := m.PrepareHash(0)
	if !ok || got != h {
		t.Fatalf("got %v, %v, want %v, true", got, ok, h)
	}
	if m.Phase() != PhasePrepare {
		t.Fatalf("phase = %v, want PhasePrepare", m.Phase())
	}
}
