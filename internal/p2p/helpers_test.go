package p2p

import (
	"bytes"
	"testing"

	nio "github.com/synnergy-network/n3node/internal/io"
)

func encode(t *testing.T, s nio.Serializable) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	w := nio.NewBinWriterFromIO(buf)
	s.EncodeBinary(w)
	if w.Err != nil {
		t.Fatalf("encode: %v", w.Err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, data []byte, s nio.Serializable) {
	t.Helper()
	if err := decodeInto(data, s); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func decodeInto(data []byte, s nio.Serializable) error {
	r := nio.NewBinReaderFromIO(bytes.NewReader(data))
	s.DecodeBinary(r)
	return r.Err
}

func encodeFrame(t *testing.T, fr Frame) []byte {
	t.Helper()
	return encode(t, &fr)
}

func decodeFrame(t *testing.T, data []byte, fr *Frame) {
	t.Helper()
	decode(t, data, fr)
}
