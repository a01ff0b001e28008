package consensus

import (
	"bytes"
	"testing"

	nio "github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
)

func roundTrip(t *testing.T, s nio.Serializable, fresh func() nio.Serializable) nio.Serializable {
	t.Helper()
	buf := &bytes.Buffer{}
	w := nio.NewBinWriterFromIO(buf)
	s.EncodeBinary(w)
	if w.Err != nil {
		t.Fatalf("encode: %v", w.Err)
	}
	got := fresh()
	r := nio.NewBinReaderFromIO(buf)
	got.DecodeBinary(r)
	if r.Err != nil {
		t.Fatalf("decode: %v", r.Err)
	}
	return got
}

func TestEnvelopeRoundTrip(t *testing.T) {
	e := &Envelope{View: 3, Type: MsgCommit, Payload: []byte{1, 2, 3, 4}}
	got := roundTrip(t, e, func() nio.Serializable { return &Envelope{} }).(*Envelope)
	if got.View != e.View || got.Type != e.Type || !bytes.Equal(got.Payload, e.Payload) {
		t.Fatalf("got %+v, want %+v", got, e)
	}
}

func TestChangeViewRoundTrip(t *testing.T) {
	m := &ChangeView{NewViewNumber: 2, Timestamp: 1234567890}
	got := roundTrip(t, m, func() nio.Serializable { return &ChangeView{} }).(*ChangeView)
	if *got != *m {
		t.Fatalf("got %+v, want %+v", got, m)
	}
}

func TestPrepareRequestRoundTrip(t *testing.T) {
	m := &PrepareRequest{
		Version:           0,
		PrevHash:          util.Uint256{1, 2, 3},
		Timestamp:         42,
		Nonce:             7,
		TransactionHashes: []util.Uint256{{4}, {5}, {6}},
	}
	got := roundTrip(t, m, func() nio.Serializable { return &PrepareRequest{} }).(*PrepareRequest)
	if got.Version != m.Version || got.PrevHash != m.PrevHash || got.Timestamp != m.Timestamp || got.Nonce != m.Nonce {
		t.Fatalf("got %+v, want %+v", got, m)
	}
	if len(got.TransactionHashes) != len(m.TransactionHashes) {
		t.Fatalf("hash count = %d, want %d", len(got.TransactionHashes), len(m.TransactionHashes))
	}
	for i := range m.TransactionHashes {
		if got.TransactionHashes[i] != m.TransactionHashes[i] {
			t.Fatalf("hash %d mismatch", i)
		}
	}
}

func TestCommitRoundTrip(t *testing.T) {
	m := &Commit{}
	for i := range m.Signature {
		m.Signature[i] = byte(i)
	}
	got := roundTrip(t, m, func() nio.Serializable { return &Commit{} }).(*Commit)
	if *got != *m {
		t.Fatalf("signature mismatch")
	}
}

func TestRecoveryMessageRoundTrip(t *testing.T) {
	m := &RecoveryMessage{
		ChangeViewMessages:      []ChangeView{{NewViewNumber: 1, Timestamp: 1}, {NewViewNumber: 2, Timestamp: 2}},
		PrepareRequestMessage:   &PrepareRequest{Version: 0, Timestamp: 99, Nonce: 1},
		PrepareResponseMessages: []PrepareResponse{{PreparationHash: util.Uint256{9}}},
		CommitMessages:          []Commit{{}},
	}
	got := roundTrip(t, m, func() nio.Serializable { return &RecoveryMessage{} }).(*RecoveryMessage)
	if len(got.ChangeViewMessages) != 2 || len(got.PrepareResponseMessages) != 1 || len(got.CommitMessages) != 1 {
		t.Fatalf("got %+v", got)
	}
	if got.PrepareRequestMessage == nil || got.PrepareRequestMessage.Timestamp != 99 {
		t.Fatalf("prepare request not preserved: %+v", got.PrepareRequestMessage)
	}
}

func TestRecoveryMessageWithoutPrepareRequest(t *testing.T) {
	m := &RecoveryMessage{ChangeViewMessages: []ChangeView{{NewViewNumber: 1}}}
	got := roundTrip(t, m, func() nio.Serializable { return &RecoveryMessage{} }).(*RecoveryMessage)
	if got.PrepareRequestMessage != nil {
		t.Fatalf("expected nil prepare request, got %+v", got.PrepareRequestMessage)
	}
}
