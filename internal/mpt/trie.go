package mpt

import (
	"github.com/synnergy-network/n3node/internal/io"
	"github.com/synnergy-network/n3node/internal/util"
)

// Trie is a single version of the state trie. Mutations are purely
// functional (each Put/Delete returns a new root internally); Flush
// persists the reachable node set into the backing NodeStore with
// refcounts, mirroring DataCache's overlay-then-commit shape.
type Trie struct {
	store *NodeStore
	root  Node
}

// NewTrie creates an empty trie backed by store. A nil store gets a fresh
// in-memory one.
func NewTrie(store *NodeStore) *Trie {
	if store == nil {
		store = NewNodeStore()
	}
	return &Trie{store: store, root: nilNode}
}

// RootHash returns the current root's canonical hash. An empty trie's root
// hash is the zero hash.
func (t *Trie) RootHash() util.Uint256 {
	return t.root.Hash()
}

func (t *Trie) expand(n Node) (Node, error) {
	if isNil(n) {
		return nilNode, nil
	}
	hn, ok := n.(*HashNode)
	if !ok {
		return n, nil
	}
	enc, ok := t.store.Get(hn.H)
	if !ok {
		return nil, ErrRestoreFailed
	}
	return decode(enc)
}

// Get returns the value stored at key, if any.
func (t *Trie) Get(key []byte) ([]byte, bool, error) {
	return t.get(t.root, bytesToNibbles(key))
}

func (t *Trie) get(n Node, path []byte) ([]byte, bool, error) {
	n, err := t.expand(n)
	if err != nil {
		return nil, false, err
	}
	switch v := n.(type) {
	case nilNodeT:
		return nil, false, nil
	case *LeafNode:
		if len(path) == 0 {
			return v.Value, true, nil
		}
		return nil, false, nil
	case *ExtensionNode:
		cp := commonPrefixLen(v.Path, path)
		if cp < len(v.Path) {
			return nil, false, nil
		}
		return t.get(v.Next, path[cp:])
	case *BranchNode:
		if len(path) == 0 {
			if v.Value == nil {
				return nil, false, nil
			}
			return v.Value, true, nil
		}
		return t.get(v.Children[path[0]], path[1:])
	}
	return nil, false, nil
}

// Put inserts or overwrites the value at key.
func (t *Trie) Put(key, value []byte) error {
	newRoot, err := t.insert(t.root, bytesToNibbles(key), value)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

func (t *Trie) insert(n Node, path []byte, value []byte) (Node, error) {
	n, err := t.expand(n)
	if err != nil {
		return nil, err
	}
	switch v := n.(type) {
	case nilNodeT:
		if len(path) == 0 {
			return &LeafNode{Value: value}, nil
		}
		return &ExtensionNode{Path: path, Next: &LeafNode{Value: value}}, nil

	case *LeafNode:
		if len(path) == 0 {
			return &LeafNode{Value: value}, nil
		}
		branch := &BranchNode{Value: v.Value}
		rest := path[1:]
		if len(rest) == 0 {
			branch.Children[path[0]] = &LeafNode{Value: value}
		} else {
			branch.Children[path[0]] = &ExtensionNode{Path: rest, Next: &LeafNode{Value: value}}
		}
		return branch, nil

	case *ExtensionNode:
		cp := commonPrefixLen(v.Path, path)
		if cp == len(v.Path) {
			newChild, err := t.insert(v.Next, path[cp:], value)
			if err != nil {
				return nil, err
			}
			return makeExtension(v.Path, newChild), nil
		}
		prefix := v.Path[:cp]
		branch := &BranchNode{}
		existingRemainder := v.Path[cp:]
		if len(existingRemainder) == 1 {
			branch.Children[existingRemainder[0]] = v.Next
		} else {
			branch.Children[existingRemainder[0]] = &ExtensionNode{Path: existingRemainder[1:], Next: v.Next}
		}
		newRemainder := path[cp:]
		switch {
		case len(newRemainder) == 0:
			branch.Value = value
		case len(newRemainder) == 1:
			branch.Children[newRemainder[0]] = &LeafNode{Value: value}
		default:
			branch.Children[newRemainder[0]] = &ExtensionNode{Path: newRemainder[1:], Next: &LeafNode{Value: value}}
		}
		if len(prefix) == 0 {
			return branch, nil
		}
		return &ExtensionNode{Path: prefix, Next: branch}, nil

	case *BranchNode:
		clone := cloneBranch(v)
		if len(path) == 0 {
			clone.Value = value
			return clone, nil
		}
		newChild, err := t.insert(clone.Children[path[0]], path[1:], value)
		if err != nil {
			return nil, err
		}
		clone.Children[path[0]] = newChild
		return clone, nil
	}
	return n, nil
}

// Delete removes key, reporting whether it was present.
func (t *Trie) Delete(key []byte) (bool, error) {
	newRoot, deleted, err := t.delete(t.root, bytesToNibbles(key))
	if err != nil {
		return false, err
	}
	if deleted {
		t.root = newRoot
	}
	return deleted, nil
}

func (t *Trie) delete(n Node, path []byte) (Node, bool, error) {
	n, err := t.expand(n)
	if err != nil {
		return nil, false, err
	}
	switch v := n.(type) {
	case nilNodeT:
		return n, false, nil

	case *LeafNode:
		if len(path) == 0 {
			return nilNode, true, nil
		}
		return n, false, nil

	case *ExtensionNode:
		cp := commonPrefixLen(v.Path, path)
		if cp < len(v.Path) {
			return n, false, nil
		}
		newChild, deleted, err := t.delete(v.Next, path[cp:])
		if err != nil {
			return nil, false, err
		}
		if !deleted {
			return n, false, nil
		}
		if isNil(newChild) {
			return nilNode, true, nil
		}
		return makeExtension(v.Path, newChild), true, nil

	case *BranchNode:
		if len(path) == 0 {
			if v.Value == nil {
				return n, false, nil
			}
			clone := cloneBranch(v)
			clone.Value = nil
			return collapseBranch(clone), true, nil
		}
		idx := path[0]
		newChild, deleted, err := t.delete(v.Children[idx], path[1:])
		if err != nil {
			return nil, false, err
		}
		if !deleted {
			return n, false, nil
		}
		clone := cloneBranch(v)
		clone.Children[idx] = newChild
		return collapseBranch(clone), true, nil
	}
	return n, false, nil
}

func cloneBranch(b *BranchNode) *BranchNode {
	clone := &BranchNode{Value: b.Value}
	clone.Children = b.Children
	return clone
}

// collapseBranch restores canonical form after a branch loses a child or its
// value: a branch with no value and exactly one remaining child folds into
// an extension (or a bare leaf/branch if the merged path is empty).
func collapseBranch(b *BranchNode) Node {
	if b.Value != nil {
		return b
	}
	count, lone := 0, -1
	for i, c := range b.Children {
		if !isNil(c) {
			count++
			lone = i
		}
	}
	switch count {
	case 0:
		return nilNode
	case 1:
		return makeExtension([]byte{byte(lone)}, b.Children[lone])
	default:
		return b
	}
}

// makeExtension prepends prefix nibbles onto next, merging with an
// already-present Extension so two extensions never sit adjacent (the
// "no adjacent extensions" canonical-form rule).
func makeExtension(prefix []byte, next Node) Node {
	if len(prefix) == 0 {
		return next
	}
	if ext, ok := next.(*ExtensionNode); ok {
		merged := make([]byte, 0, len(prefix)+len(ext.Path))
		merged = append(merged, prefix...)
		merged = append(merged, ext.Path...)
		return &ExtensionNode{Path: merged, Next: ext.Next}
	}
	return &ExtensionNode{Path: prefix, Next: next}
}

// Flush walks the current root and persists every reachable node into the
// backing NodeStore, incrementing refcounts — the trie analogue of
// DataCache.Commit.
func (t *Trie) Flush() error {
	return flushNode(t.store, t.root)
}

func flushNode(s *NodeStore, n Node) error {
	switch v := n.(type) {
	case nilNodeT, *HashNode:
		return nil
	case *LeafNode:
		return s.Put(v.Hash(), io.ToBytes(nodeEncoder{v}))
	case *ExtensionNode:
		if err := flushNode(s, v.Next); err != nil {
			return err
		}
		return s.Put(v.Hash(), io.ToBytes(nodeEncoder{v}))
	case *BranchNode:
		for _, c := range v.Children {
			if !isNil(c) {
				if err := flushNode(s, c); err != nil {
					return err
				}
			}
		}
		return s.Put(v.Hash(), io.ToBytes(nodeEncoder{v}))
	}
	return nil
}
