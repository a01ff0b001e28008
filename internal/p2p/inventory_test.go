package p2p

import (
	"testing"

	"github.com/synnergy-network/n3node/internal/util"
)

func TestInventoryRoundTrip(t *testing.T) {
	inv := &Inventory{
		Type: InvTypeBlock,
		Hashes: []util.Uint256{
			{1, 2, 3},
			{4, 5, 6},
		},
	}
	data := encode(t, inv)
	var got Inventory
	decode(t, data, &got)
	if got.Type != inv.Type || len(got.Hashes) != len(inv.Hashes) {
		t.Fatalf("got %+v, want %+v", got, inv)
	}
	for i := range inv.Hashes {
		if got.Hashes[i] != inv.Hashes[i] {
			t.Fatalf("hash %d mismatch", i)
		}
	}
}

func TestInventoryRejectsOversizedHashList(t *testing.T) {
	var fr Frame
	fr.Command = CmdInv
	// 501 > MaxInventoryHashes encoded as the var-uint count prefix alone,
	// with no hash bytes following: DecodeBinary must fail bounding the
	// count rather than attempting to read past the buffer.
	fr.Payload = []byte{byte(InvTypeBlock), 0xFD, 0xF5, 0x01}
	data := encodeFrame(t, fr)

	var got Frame
	decodeFrame(t, data, &got)
	var inv Inventory
	if err := decodeInto(got.Payload, &inv); err == nil {
		t.Fatalf("expected an error decoding an over-limit hash count")
	}
}
