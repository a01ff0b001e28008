package p2p

import (
	nio "github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
)

// InvType names the kind of hash an inventory message announces (§4.9
// "Inv announces up to 500 hashes per type (Transaction, Block,
// Extensible)").
type InvType byte

const (
	InvTypeTransaction InvType = iota
	InvTypeBlock
	InvTypeExtensible
)

// MaxInventoryHashes bounds a single Inv/GetData/NotFound payload.
const MaxInventoryHashes = 500

// Inventory is the payload shape shared by Inv, GetData, and NotFound: a
// type tag plus a bounded hash list (§4.9 "unknown hashes requested via
// GetData; unknown responses sent as NotFound").
type Inventory struct {
	Type   InvType
	Hashes []util.Uint256
}

func (inv *Inventory) EncodeBinary(w *nio.BinWriter) {
	w.WriteByte(byte(inv.Type))
	w.WriteVarUint(uint64(len(inv.Hashes)))
	for _, h := range inv.Hashes {
		h.EncodeBinary(w)
	}
}

func (inv *Inventory) DecodeBinary(r *nio.BinReader) {
	inv.Type = InvType(r.ReadByte())
	n := r.ReadVarUint(MaxInventoryHashes)
	if r.Err != nil {
		return
	}
	inv.Hashes = make([]util.Uint256, n)
	for i := range inv.Hashes {
		inv.Hashes[i].DecodeBinary(r)
	}
}
