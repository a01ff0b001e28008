package p2p

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/synnergy-network/n3node/internal/core/block"
	"github.com/synnergy-network/n3node/internal/util"
)

// headerCacheSize bounds the recently-seen header cache (§3 domain stack
// "header/block cache").
const headerCacheSize = 4096

// HeaderCache remembers recently seen headers by hash. Inv handling does
// not consult it when deciding whether to send GetData.
type HeaderCache struct {
	c *lru.Cache[util.Uint256, *block.Header]
}

// NewHeaderCache creates an empty header cache.
func NewHeaderCache() *HeaderCache {
	c, err := lru.New[util.Uint256, *block.Header](headerCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// headerCacheSize never is.
		panic(err)
	}
	return &HeaderCache{c: c}
}

// Add records h under its own hash.
func (hc *HeaderCache) Add(h *block.Header) { hc.c.Add(h.Hash(), h) }

// Get returns the cached header for hash, if present.
func (hc *HeaderCache) Get(hash util.Uint256) (*block.Header, bool) { return hc.c.Get(hash) }

// Contains reports whether hash is cached, without affecting recency.
func (hc *HeaderCache) Contains(hash util.Uint256) bool { return hc.c.Contains(hash) }

// seenInventorySize bounds the inventory-dedup cache: hashes this node has
// already announced or fetched, so a repeat Inv is not re-requested.
const seenInventorySize = 16384

// SeenInventory is a dedup cache over inventory hashes, keyed by (type,
// hash) so a Block and a Transaction that happen to collide never alias.
type SeenInventory struct {
	c *lru.Cache[seenKey, struct{}]
}

type seenKey struct {
	Type InvType
	Hash util.Uint256
}

// NewSeenInventory creates an empty inventory dedup cache.
func NewSeenInventory() *SeenInventory {
	c, err := lru.New[seenKey, struct{}](seenInventorySize)
	if err != nil {
		panic(err)
	}
	return &SeenInventory{c: c}
}

// MarkSeen records (t, hash) as seen, returning whether it was already
// present.
func (s *SeenInventory) MarkSeen(t InvType, hash util.Uint256) (alreadySeen bool) {
	k := seenKey{Type: t, Hash: hash}
	if s.c.Contains(k) {
		return true
	}
	s.c.Add(k, struct{}{})
	return false
}
