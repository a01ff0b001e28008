package p2p

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/s2"

	nio "github.com/synnergy-network/n3node/internal/io"
)

// MaxPayloadSize bounds a single frame's payload (§4.9 "max payload
// 0x0200_0000 (32 MiB)").
const MaxPayloadSize = 0x0200_0000

const flagCompressed byte = 0x01

// Frame is one length-delimited wire message: a flags byte, a command byte,
// a var-int payload length, and the payload bytes (§4.9 "Frame").
type Frame struct {
	Command Command
	Payload []byte
}

// EncodeBinary writes fr, compressing the payload with s2 (this node's
// block-compatible stand-in for the reference protocol's LZ4 framing, see
// DESIGN.md) when fr.Command is eligible and compression actually shrinks
// the payload (§4.9 "only when the compressed form is smaller").
func (fr *Frame) EncodeBinary(w *nio.BinWriter) {
	payload := fr.Payload
	flags := byte(0)
	if fr.Command.compressible() && len(payload) > 0 {
		compressed := s2.Encode(nil, payload)
		candidate := append(encodeVarUint(uint64(len(payload))), compressed...)
		if len(candidate) < len(payload) {
			payload = candidate
			flags |= flagCompressed
		}
	}
	w.WriteByte(flags)
	w.WriteByte(byte(fr.Command))
	w.WriteVarBytes(payload)
}

// DecodeBinary reads fr, transparently decompressing a flagged payload.
func (fr *Frame) DecodeBinary(r *nio.BinReader) {
	flags := r.ReadByte()
	fr.Command = Command(r.ReadByte())
	raw := r.ReadVarBytes(MaxPayloadSize)
	if r.Err != nil {
		return
	}
	if flags&flagCompressed == 0 {
		fr.Payload = raw
		return
	}
	n, rest, err := decodeVarUint(raw)
	if err != nil {
		r.Err = fmt.Errorf("%w: frame: %v", nio.ErrInvalidData, err)
		return
	}
	if n > MaxPayloadSize {
		r.Err = fmt.Errorf("%w: decompressed frame exceeds max payload size", nio.ErrInvalidData)
		return
	}
	decoded, err := s2.Decode(nil, rest)
	if err != nil {
		r.Err = fmt.Errorf("%w: s2 decode: %v", nio.ErrInvalidData, err)
		return
	}
	fr.Payload = decoded
}

// encodeVarUint and decodeVarUint mirror internal/io's var-int scheme over a
// plain byte slice, needed here because the uncompressed-length prefix sits
// inside an already-extracted payload rather than on a live BinReader.
func encodeVarUint(v uint64) []byte {
	switch {
	case v < 0xFD:
		return []byte{byte(v)}
	case v <= 0xFFFF:
		out := make([]byte, 3)
		out[0] = 0xFD
		binary.LittleEndian.PutUint16(out[1:], uint16(v))
		return out
	case v <= 0xFFFFFFFF:
		out := make([]byte, 5)
		out[0] = 0xFE
		binary.LittleEndian.PutUint32(out[1:], uint32(v))
		return out
	default:
		out := make([]byte, 9)
		out[0] = 0xFF
		binary.LittleEndian.PutUint64(out[1:], v)
		return out
	}
}

func decodeVarUint(b []byte) (v uint64, rest []byte, err error) {
	if len(b) < 1 {
		return 0, nil, fmt.Errorf("truncated var-int")
	}
	switch b[0] {
	case 0xFD:
		if len(b) < 3 {
			return 0, nil, fmt.Errorf("truncated var-int")
		}
		return uint64(binary.LittleEndian.Uint16(b[1:3])), b[3:], nil
	case 0xFE:
		if len(b) < 5 {
			return 0, nil, fmt.Errorf("truncated var-int")
		}
		return uint64(binary.LittleEndian.Uint32(b[1:5])), b[5:], nil
	case 0xFF:
		if len(b) < 9 {
			return 0, nil, fmt.Errorf("truncated var-int")
		}
		return binary.LittleEndian.Uint64(b[1:9]), b[9:], nil
	default:
		return uint64(b[0]), b[1:], nil
	}
}
