package mpt

import (
	"bytes"
	"fmt"

	"github.com/synnergy-network/n3node/internal/util"
)

// ErrRestoreFailed is returned when restoring a node hash against an
// encoding that disagrees with an already-known encoding for that hash —
// a hash collision between distinct content, or corrupted input.
var ErrRestoreFailed = fmt.Errorf("mpt: restore failed")

type nodeEntry struct {
	encoding []byte
	refcount int32
}

// NodeStore holds the canonical encoding of every live trie node, keyed by
// its hash, with a per-entry refcount so a node shared by several trie
// versions is only dropped once nothing references it anymore.
type NodeStore struct {
	nodes map[util.Uint256]*nodeEntry
}

func NewNodeStore() *NodeStore {
	return &NodeStore{nodes: make(map[util.Uint256]*nodeEntry)}
}

// Put records one more reference to the node encoded as enc, hashing to h.
// If h is already known, enc must match the stored encoding exactly.
func (s *NodeStore) Put(h util.Uint256, enc []byte) error {
	if e, ok := s.nodes[h]; ok {
		if !bytes.Equal(e.encoding, enc) {
			return ErrRestoreFailed
		}
		e.refcount++
		return nil
	}
	s.nodes[h] = &nodeEntry{encoding: append([]byte(nil), enc...), refcount: 1}
	return nil
}

// Restore is Put under the name the spec uses for reviving a collapsed
// HashNode: it must match the known hash's encoding (if any) and increments
// refcount, exactly like Put — restoring is simply referencing an existing
// node from a new path in the tree.
func (s *NodeStore) Restore(h util.Uint256, enc []byte) error {
	return s.Put(h, enc)
}

// Release drops one reference to h, deleting the entry once it reaches zero.
func (s *NodeStore) Release(h util.Uint256) {
	e, ok := s.nodes[h]
	if !ok {
		return
	}
	e.refcount--
	if e.refcount <= 0 {
		delete(s.nodes, h)
	}
}

// RefCount reports the current reference count for h, or 0 if unknown.
func (s *NodeStore) RefCount(h util.Uint256) int32 {
	if e, ok := s.nodes[h]; ok {
		return e.refcount
	}
	return 0
}

// Get returns the canonical encoding stored for h.
func (s *NodeStore) Get(h util.Uint256) ([]byte, bool) {
	e, ok := s.nodes[h]
	if !ok {
		return nil, false
	}
	return e.encoding, true
}
