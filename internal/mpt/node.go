// Package mpt implements the Merkle-Patricia Trie backing chain state
// (§4.4): four node variants (Branch, Extension, Leaf, Hash), nibble-keyed
// paths, canonical rebalancing on insert/delete, and a refcounted node
// store so a collapsed HashNode can be restored against a known encoding.
// Grounded on the teacher's merkle_tree_operations.go for the pairwise-hash
// discipline, generalized here from a flat leaf list to a keyed radix tree,
// and on internal/store's overlay/snapshot shape for the refcounted store.
package mpt

import (
	"bytes"
	"fmt"

	"github.com/synnergy-network/n3node/internal/crypto/hash"
	"github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
)

// Node is any trie node. Concrete nodes (Leaf/Extension/Branch) compute and
// cache their hash from their canonical encoding; HashNode is a stub that
// carries only a known hash, standing in for an unexpanded subtree.
type Node interface {
	Hash() util.Uint256
	encode(w *io.BinWriter)
}

const (
	tagLeaf      = 0
	tagExtension = 1
	tagBranch    = 2
)

// nilNode is the canonical empty subtree; its hash is the zero hash.
type nilNodeT struct{}

func (nilNodeT) Hash() util.Uint256      { return util.Uint256{} }
func (nilNodeT) encode(w *io.BinWriter)  {}

var nilNode Node = nilNodeT{}

func isNil(n Node) bool {
	if n == nil {
		return true
	}
	_, ok := n.(nilNodeT)
	return ok
}

// LeafNode holds a terminal value; the key bits consumed to reach it are
// implicit in the path walked from the root.
type LeafNode struct {
	Value []byte

	h *util.Uint256
}

func (n *LeafNode) encode(w *io.BinWriter) {
	w.WriteByte(tagLeaf)
	w.WriteVarBytes(n.Value)
}

func (n *LeafNode) Hash() util.Uint256 {
	if n.h != nil {
		return *n.h
	}
	v := hash.Sha256(io.ToBytes(nodeEncoder{n}))
	n.h = &v
	return v
}

// ExtensionNode factors out a shared nibble path common to every key in its
// subtree, pointing at a single child (always a Branch or a Leaf in
// canonical form — never another Extension).
type ExtensionNode struct {
	Path []byte // nibbles, each in [0,16)
	Next Node

	h *util.Uint256
}

func (n *ExtensionNode) encode(w *io.BinWriter) {
	w.WriteByte(tagExtension)
	w.WriteVarBytes(n.Path)
	childHash := n.Next.Hash()
	w.WriteBytes(childHash[:])
}

func (n *ExtensionNode) Hash() util.Uint256 {
	if n.h != nil {
		return *n.h
	}
	v := hash.Sha256(io.ToBytes(nodeEncoder{n}))
	n.h = &v
	return v
}

// BranchNode fans out on the next nibble; Value is set when a key terminates
// exactly at this node (a zero-length remaining path).
type BranchNode struct {
	Children [16]Node
	Value    []byte // nil when no key terminates here

	h *util.Uint256
}

func (n *BranchNode) encode(w *io.BinWriter) {
	w.WriteByte(tagBranch)
	for _, c := range n.Children {
		var hh util.Uint256
		if !isNil(c) {
			hh = c.Hash()
		}
		w.WriteBytes(hh[:])
	}
	if n.Value != nil {
		w.WriteByte(1)
		w.WriteVarBytes(n.Value)
	} else {
		w.WriteByte(0)
	}
}

func (n *BranchNode) Hash() util.Uint256 {
	if n.h != nil {
		return *n.h
	}
	v := hash.Sha256(io.ToBytes(nodeEncoder{n}))
	n.h = &v
	return v
}

// HashNode stands in for a subtree that has not been expanded from the node
// store yet — either freshly decoded from a parent's encoding, or restored
// directly by hash for a pruned/sparse tree.
type HashNode struct {
	H util.Uint256
}

func (n *HashNode) Hash() util.Uint256     { return n.H }
func (n *HashNode) encode(w *io.BinWriter) { w.WriteBytes(n.H[:]) }

// nodeEncoder adapts a Node to io.Serializable so io.ToBytes can be reused
// for canonical-encoding hashing.
type nodeEncoder struct{ n Node }

func (e nodeEncoder) EncodeBinary(w *io.BinWriter) { e.n.encode(w) }
func (e nodeEncoder) DecodeBinary(r *io.BinReader) {}

// decode parses a node's canonical encoding back into a concrete node whose
// children (if any) are left as HashNode stubs for lazy expansion.
func decode(enc []byte) (Node, error) {
	r := io.NewBinReaderFromIO(bytes.NewReader(enc))
	tag := r.ReadByte()
	switch tag {
	case tagLeaf:
		v := r.ReadVarBytes(1 << 20)
		if r.Err != nil {
			return nil, r.Err
		}
		return &LeafNode{Value: v}, nil
	case tagExtension:
		path := r.ReadVarBytes(128)
		var hh util.Uint256
		buf := make([]byte, util.Uint256Size)
		r.ReadBytes(buf)
		if r.Err != nil {
			return nil, r.Err
		}
		copy(hh[:], buf)
		return &ExtensionNode{Path: path, Next: &HashNode{H: hh}}, nil
	case tagBranch:
		var b BranchNode
		for i := 0; i < 16; i++ {
			buf := make([]byte, util.Uint256Size)
			r.ReadBytes(buf)
			if r.Err != nil {
				return nil, r.Err
			}
			var hh util.Uint256
			copy(hh[:], buf)
			if hh.IsZero() {
				b.Children[i] = nilNode
			} else {
				b.Children[i] = &HashNode{H: hh}
			}
		}
		present := r.ReadByte()
		if present == 1 {
			b.Value = r.ReadVarBytes(1 << 20)
		}
		if r.Err != nil {
			return nil, r.Err
		}
		return &b, nil
	default:
		return nil, fmt.Errorf("mpt: unknown node tag %d", tag)
	}
}

// bytesToNibbles splits each byte into big-endian 4-bit halves.
func bytesToNibbles(b []byte) []byte {
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = c >> 4
		out[i*2+1] = c & 0x0f
	}
	return out
}

// commonPrefixLen returns the length of the longest shared prefix of a, b.
func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
