package consensus

import (
	nio "github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
)

// MessageType identifies which of the six dBFT message kinds an Envelope's
// Payload decodes to (§4.9 "six dBFT message kinds").
type MessageType byte

const (
	MsgChangeView MessageType = iota
	MsgPrepareRequest
	MsgPrepareResponse
	MsgCommit
	MsgRecoveryRequest
	MsgRecoveryMessage
)

func (t MessageType) String() string {
	switch t {
	case MsgChangeView:
		return "ChangeView"
	case MsgPrepareRequest:
		return "PrepareRequest"
	case MsgPrepareResponse:
		return "PrepareResponse"
	case MsgCommit:
		return "Commit"
	case MsgRecoveryRequest:
		return "RecoveryRequest"
	case MsgRecoveryMessage:
		return "RecoveryMessage"
	default:
		return "Unknown"
	}
}

// Envelope is the wire header every consensus message carries inside an
// ExtensiblePayload's Data field (§4.9 "wire header (view_number u8,
// message_type u8, payload)").
type Envelope struct {
	View    byte
	Type    MessageType
	Payload []byte
}

func (e *Envelope) EncodeBinary(w *nio.BinWriter) {
	w.WriteByte(e.View)
	w.WriteByte(byte(e.Type))
	w.WriteVarBytes(e.Payload)
}

func (e *Envelope) DecodeBinary(r *nio.BinReader) {
	e.View = r.ReadByte()
	e.Type = MessageType(r.ReadByte())
	e.Payload = r.ReadVarBytes(nio.MaxVarArraySize)
}

// ChangeView is sent by a validator asking its peers to move to a new view
// after the current one's primary misses its timer.
type ChangeView struct {
	NewViewNumber byte
	Timestamp     uint64
}

func (m *ChangeView) EncodeBinary(w *nio.BinWriter) {
	w.WriteByte(m.NewViewNumber)
	w.WriteU64LE(m.Timestamp)
}

func (m *ChangeView) DecodeBinary(r *nio.BinReader) {
	m.NewViewNumber = r.ReadByte()
	m.Timestamp = r.ReadU64LE()
}

// PrepareRequest is broadcast by a view's primary proposing the next
// block's contents.
type PrepareRequest struct {
	Version           uint32
	PrevHash          util.Uint256
	Timestamp         uint64
	Nonce             uint64
	TransactionHashes []util.Uint256
}

func (m *PrepareRequest) EncodeBinary(w *nio.BinWriter) {
	w.WriteU32LE(m.Version)
	m.PrevHash.EncodeBinary(w)
	w.WriteU64LE(m.Timestamp)
	w.WriteU64LE(m.Nonce)
	w.WriteVarUint(uint64(len(m.TransactionHashes)))
	for _, h := range m.TransactionHashes {
		h.EncodeBinary(w)
	}
}

func (m *PrepareRequest) DecodeBinary(r *nio.BinReader) {
	m.Version = r.ReadU32LE()
	m.PrevHash.DecodeBinary(r)
	m.Timestamp = r.ReadU64LE()
	m.Nonce = r.ReadU64LE()
	n := r.ReadVarUint(nio.MaxVarArraySize)
	m.TransactionHashes = make([]util.Uint256, n)
	for i := range m.TransactionHashes {
		m.TransactionHashes[i].DecodeBinary(r)
	}
}

// PrepareResponse is sent by a backup validator endorsing the primary's
// PrepareRequest by echoing back its preparation hash.
type PrepareResponse struct {
	PreparationHash util.Uint256
}

func (m *PrepareResponse) EncodeBinary(w *nio.BinWriter) { m.PreparationHash.EncodeBinary(w) }
func (m *PrepareResponse) DecodeBinary(r *nio.BinReader) { m.PreparationHash.DecodeBinary(r) }

// Commit carries a validator's final signature over the agreed block once
// enough PrepareResponse messages have been seen.
type Commit struct {
	Signature [64]byte
}

func (m *Commit) EncodeBinary(w *nio.BinWriter) { w.WriteBytes(m.Signature[:]) }
func (m *Commit) DecodeBinary(r *nio.BinReader) { r.ReadBytes(m.Signature[:]) }

// RecoveryRequest asks peers to resend the state needed to rejoin a round
// in progress, typically after reconnecting mid-view.
type RecoveryRequest struct {
	Timestamp uint64
}

func (m *RecoveryRequest) EncodeBinary(w *nio.BinWriter) { w.WriteU64LE(m.Timestamp) }
func (m *RecoveryRequest) DecodeBinary(r *nio.BinReader) { m.Timestamp = r.ReadU64LE() }

// RecoveryMessage aggregates every message kind a recovering validator
// needs to reconstruct a view's state: the view changes seen so far, the
// primary's prepare request (if any), the prepare responses collected, and
// any commits already issued.
type RecoveryMessage struct {
	ChangeViewMessages      []ChangeView
	PrepareRequestMessage   *PrepareRequest
	PrepareResponseMessages []PrepareResponse
	CommitMessages          []Commit
}

func (m *RecoveryMessage) EncodeBinary(w *nio.BinWriter) {
	w.WriteVarUint(uint64(len(m.ChangeViewMessages)))
	for i := range m.ChangeViewMessages {
		m.ChangeViewMessages[i].EncodeBinary(w)
	}
	if m.PrepareRequestMessage == nil {
		w.WriteBool(false)
	} else {
		w.WriteBool(true)
		m.PrepareRequestMessage.EncodeBinary(w)
	}
	w.WriteVarUint(uint64(len(m.PrepareResponseMessages)))
	for i := range m.PrepareResponseMessages {
		m.PrepareResponseMessages[i].EncodeBinary(w)
	}
	w.WriteVarUint(uint64(len(m.CommitMessages)))
	for i := range m.CommitMessages {
		m.CommitMessages[i].EncodeBinary(w)
	}
}

func (m *RecoveryMessage) DecodeBinary(r *nio.BinReader) {
	n := r.ReadVarUint(nio.MaxVarArraySize)
	m.ChangeViewMessages = make([]ChangeView, n)
	for i := range m.ChangeViewMessages {
		m.ChangeViewMessages[i].DecodeBinary(r)
	}
	if r.ReadBool() {
		m.PrepareRequestMessage = &PrepareRequest{}
		m.PrepareRequestMessage.DecodeBinary(r)
	}
	n = r.ReadVarUint(nio.MaxVarArraySize)
	m.PrepareResponseMessages = make([]PrepareResponse, n)
	for i := range m.PrepareResponseMessages {
		m.PrepareResponseMessages[i].DecodeBinary(r)
	}
	n = r.ReadVarUint(nio.MaxVarArraySize)
	m.CommitMessages = make([]Commit, n)
	for i := range m.CommitMessages {
		m.CommitMessages[i].DecodeBinary(r)
	}
}
