// Package store defines the key-value storage abstraction the rest of the
// node is built on (§4.3) and a B-tree-backed in-memory implementation of
// it. Grounded on the teacher's core/storage.go for the overall shape of a
// thread-safe, gas/consensus-aware storage wrapper, generalized here from an
// IPFS/LRU content cache to an ordered key-value store suitable for chain
// state.
package store

import (
	"bytes"

	"github.com/google/btree"
)

// Direction selects which way Find walks the keyspace.
type Direction int

const (
	// Forward walks ascending lexicographic order.
	Forward Direction = iota
	// Backward walks descending lexicographic order.
	Backward
)

// KVPair is one (key, value) result from Find.
type KVPair struct {
	Key   []byte
	Value []byte
}

// Store is the read/write/iterate surface every backing implementation
// offers; Snapshot additionally offers Commit/Discard for buffered writes.
type Store interface {
	Get(key []byte) ([]byte, bool)
	Contains(key []byte) bool
	Put(key, value []byte)
	Delete(key []byte)
	Find(prefix []byte, dir Direction) Iterator
	Snapshot() Snapshot
}

// Snapshot is a Store whose writes are buffered until Commit, or discarded
// entirely if never committed.
type Snapshot interface {
	Store
	Commit()
}

// Iterator yields (key, value) pairs in the order Find was asked for. Next
// must be called before the first Key/Value access.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
}

// item is the btree.Item implementation backing MemStore: ordered purely by
// Key, so iteration order always matches the serialized key's byte order.
type item struct {
	Key, Value []byte
}

func (a *item) Less(than btree.Item) bool {
	return bytes.Compare(a.Key, than.(*item).Key) < 0
}

// MemStore is an in-memory Store backed by a google/btree B-tree, giving
// exact lexicographic ordering for forward and backward iteration without a
// separate sort pass — the degree-32 tree keeps range scans cache-friendly
// even as chain state grows into the millions of keys.
type MemStore struct {
	tree *btree.BTree
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{tree: btree.New(32)}
}

// Get returns the stored value for key, if present.
func (s *MemStore) Get(key []byte) ([]byte, bool) {
	found := s.tree.Get(&item{Key: key})
	if found == nil {
		return nil, false
	}
	return found.(*item).Value, true
}

// Contains reports whether key is present.
func (s *MemStore) Contains(key []byte) bool {
	_, ok := s.Get(key)
	return ok
}

// Put stores value under key, replacing any prior value.
func (s *MemStore) Put(key, value []byte) {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	s.tree.ReplaceOrInsert(&item{Key: k, Value: v})
}

// Delete removes key, if present.
func (s *MemStore) Delete(key []byte) {
	s.tree.Delete(&item{Key: key})
}

// Find returns keys starting with prefix (or all keys, when prefix is
// empty) in the requested direction.
func (s *MemStore) Find(prefix []byte, dir Direction) Iterator {
	var pairs []KVPair
	collect := func(i btree.Item) bool {
		it := i.(*item)
		if len(prefix) > 0 && !bytes.HasPrefix(it.Key, prefix) {
			return false
		}
		pairs = append(pairs, KVPair{Key: it.Key, Value: it.Value})
		return true
	}
	if dir == Forward {
		s.tree.AscendGreaterOrEqual(&item{Key: prefix}, collect)
	} else {
		s.tree.AscendGreaterOrEqual(&item{Key: prefix}, collect)
		for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
			pairs[i], pairs[j] = pairs[j], pairs[i]
		}
	}
	return &sliceIterator{pairs: pairs, idx: -1}
}

// Snapshot returns a DataCache overlay over s.
func (s *MemStore) Snapshot() Snapshot {
	return NewDataCache(s)
}

type sliceIterator struct {
	pairs []KVPair
	idx   int
}

func (it *sliceIterator) Next() bool {
	it.idx++
	return it.idx < len(it.pairs)
}

func (it *sliceIterator) Key() []byte   { return it.pairs[it.idx].Key }
func (it *sliceIterator) Value() []byte { return it.pairs[it.idx].Value }
