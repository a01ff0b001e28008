package p2p

import (
	"bytes"
	"testing"

	nio "github.com/synnergy-network/n3node/internal/io"
)

func TestFrameRoundTripUncompressed(t *testing.T) {
	fr := Frame{Command: CmdPing, Payload: []byte{1, 2, 3, 4}}
	buf := &bytes.Buffer{}
	w := nio.NewBinWriterFromIO(buf)
	fr.EncodeBinary(w)
	if w.Err != nil {
		t.Fatalf("encode: %v", w.Err)
	}

	var got Frame
	r := nio.NewBinReaderFromIO(buf)
	got.DecodeBinary(r)
	if r.Err != nil {
		t.Fatalf("decode: %v", r.Err)
	}
	if got.Command != fr.Command || !bytes.Equal(got.Payload, fr.Payload) {
		t.Fatalf("got %+v, want %+v", got, fr)
	}
}

func TestFrameRoundTripCompressed(t *testing.T) {
	payload := bytes.Repeat([]byte("synnergy-n3node-compression-probe"), 256)
	fr := Frame{Command: CmdBlock, Payload: payload}
	buf := &bytes.Buffer{}
	w := nio.NewBinWriterFromIO(buf)
	fr.EncodeBinary(w)
	if w.Err != nil {
		t.Fatalf("encode: %v", w.Err)
	}
	if buf.Len() >= len(payload) {
		t.Fatalf("expected compression to shrink a highly repetitive payload, wire size %d >= %d", buf.Len(), len(payload))
	}

	var got Frame
	r := nio.NewBinReaderFromIO(buf)
	got.DecodeBinary(r)
	if r.Err != nil {
		t.Fatalf("decode: %v", r.Err)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Fatalf("decompressed payload does not match original")
	}
}

func TestFrameSkipsCompressionForIneligibleCommand(t *testing.T) {
	payload := bytes.Repeat([]byte{0}, 4096)
	fr := Frame{Command: CmdTransaction, Payload: payload}
	if !fr.Command.compressible() {
		t.Fatalf("Transaction must be compression-eligible")
	}
	fr.Command = CmdPing
	buf := &bytes.Buffer{}
	w := nio.NewBinWriterFromIO(buf)
	fr.EncodeBinary(w)
	// Ping is not compression-eligible: wire size is flags(1) + command(1) +
	// varuint-length(3, since len(payload) > 0xFD) + the raw payload.
	if want := 1 + 1 + 3 + len(payload); buf.Len() != want {
		t.Fatalf("wire size = %d, want %d (uncompressed)", buf.Len(), want)
	}
	var got Frame
	r := nio.NewBinReaderFromIO(buf)
	got.DecodeBinary(r)
	if r.Err != nil {
		t.Fatalf("decode: %v", r.Err)
	}
	if !bytes.Equal(got.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
}
