package store

import "bytes"

// DataCache wraps a backing Store (or another DataCache) and buffers writes
// and deletions in an overlay map, so reads observe the overlay before
// falling through to the backing store ("read-your-writes"). Commit applies
// the overlay atomically; dropping the DataCache without calling Commit
// discards it.
type DataCache struct {
	backing Store
	written map[string][]byte // nil value = tombstone (deleted)
}

// NewDataCache creates an overlay over backing.
func NewDataCache(backing Store) *DataCache {
	return &DataCache{backing: backing, written: make(map[string][]byte)}
}

// Get returns the overlay's value for key if touched, otherwise falls
// through to the backing store.
func (c *DataCache) Get(key []byte) ([]byte, bool) {
	if v, ok := c.written[string(key)]; ok {
		if v == nil {
			return nil, false
		}
		return v, true
	}
	return c.backing.Get(key)
}

// Contains reports whether key resolves to a live value.
func (c *DataCache) Contains(key []byte) bool {
	_, ok := c.Get(key)
	return ok
}

// Put buffers a write in the overlay.
func (c *DataCache) Put(key, value []byte) {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	c.written[string(k)] = v
}

// Delete buffers a tombstone in the overlay.
func (c *DataCache) Delete(key []byte) {
	c.written[string(key)] = nil
}

// GetAndChange returns a mutable clone of the stored value (or nil if
// absent) and immediately marks the entry dirty in the overlay so any
// subsequent mutation the caller makes to the returned slice, followed by a
// Put of the same key, is the intended usage pattern for in-place state
// updates (e.g. native contract storage items).
func (c *DataCache) GetAndChange(key []byte) []byte {
	v, ok := c.Get(key)
	var clone []byte
	if ok {
		clone = append([]byte(nil), v...)
	}
	c.written[string(key)] = clone
	return clone
}

// Find merges the overlay with the backing store's Find results: overlay
// writes within the prefix are surfaced, overlay tombstones suppress the
// backing entry, and everything is re-sorted into the requested direction.
func (c *DataCache) Find(prefix []byte, dir Direction) Iterator {
	seen := make(map[string]bool)
	var pairs []KVPair

	for k, v := range c.written {
		if len(prefix) > 0 && !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		seen[k] = true
		if v != nil {
			pairs = append(pairs, KVPair{Key: []byte(k), Value: v})
		}
	}

	base := c.backing.Find(prefix, Forward)
	for base.Next() {
		k := base.Key()
		if seen[string(k)] {
			continue
		}
		pairs = append(pairs, KVPair{Key: append([]byte(nil), k...), Value: append([]byte(nil), base.Value()...)})
	}

	if dir == Forward {
		sortPairsAsc(pairs)
	} else {
		sortPairsDesc(pairs)
	}
	return &sliceIterator{pairs: pairs, idx: -1}
}

// Snapshot layers a new overlay on top of this one, so nested
// snapshot/commit/discard composes (used by block persistence, which opens
// one overlay for on-persist and a fresh child for each transaction).
func (c *DataCache) Snapshot() Snapshot {
	return NewDataCache(c)
}

// Commit applies every buffered write/tombstone to the backing store. If the
// backing store is itself a DataCache, this only promotes the writes one
// level up — the outermost Commit is what reaches the real backing Store.
func (c *DataCache) Commit() {
	for k, v := range c.written {
		key := []byte(k)
		if v == nil {
			c.backing.Delete(key)
		} else {
			c.backing.Put(key, v)
		}
	}
	c.written = make(map[string][]byte)
}

func sortPairsAsc(p []KVPair) {
	insertionSortPairs(p, func(a, b []byte) bool { return bytes.Compare(a, b) < 0 })
}

func sortPairsDesc(p []KVPair) {
	insertionSortPairs(p, func(a, b []byte) bool { return bytes.Compare(a, b) > 0 })
}

// insertionSortPairs keeps Find dependency-free from sort.Slice's closure
// allocation for the typically small overlay+range result sets involved.
func insertionSortPairs(p []KVPair, less func(a, b []byte) bool) {
	for i := 1; i < len(p); i++ {
		for j := i; j > 0 && less(p[j].Key, p[j-1].Key); j-- {
			p[j], p[j-1] = p[j-1], p[j]
		}
	}
}
