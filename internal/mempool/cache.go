package mempool

import (
	"sync"

	"github.com/paw-chain/arb/internal/chain"
)

// maxRawTxLen is the gross-size ceiling spec.md §4.5 imposes on pending
// transaction strings before they are even considered for decoding.
const maxRawTxLen = 3 * 1024

// Cache is the {raw_tx_string → decoded_tx_or_null} cache of spec.md §3,
// plus the companion "already read" set. Both are cleared on block advance
// or whenever the mempool contracts.
type Cache struct {
	mu       sync.Mutex
	decoded  map[string]*chain.DecodedTx
	failed   map[string]struct{}
	readKeys map[string]struct{}
	height   int64
}

// NewCache returns an empty cache at height 0.
func NewCache() *Cache {
	return &Cache{
		decoded:  make(map[string]*chain.DecodedTx),
		failed:   make(map[string]struct{}),
		readKeys: make(map[string]struct{}),
	}
}

// Height returns the last height observed via ObserveHeight.
func (c *Cache) Height() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

func (c *Cache) clearLocked() {
	c.decoded = make(map[string]*chain.DecodedTx)
	c.failed = make(map[string]struct{})
	c.readKeys = make(map[string]struct{})
}

// ObserveHeight sets the current height when newHeight advances, clearing
// the cache and the read set. Returns whether a clear happened.
func (c *Cache) ObserveHeight(newHeight int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if newHeight <= c.height {
		return false
	}
	c.height = newHeight
	c.clearLocked()
	return true
}

// ReconcileKeys clears the cache when the mempool contracts — i.e. some
// previously-seen raw tx key is no longer present, which implies a block
// landed even if the height stream hasn't reported it yet (spec.md §4.5).
func (c *Cache) ReconcileKeys(rawKeys []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	present := make(map[string]struct{}, len(rawKeys))
	for _, k := range rawKeys {
		present[k] = struct{}{}
	}
	contracted := false
	for k := range c.decoded {
		if _, ok := present[k]; !ok {
			contracted = true
			break
		}
	}
	if !contracted {
		for k := range c.failed {
			if _, ok := present[k]; !ok {
				contracted = true
				break
			}
		}
	}
	if contracted {
		c.clearLocked()
	}
	return contracted
}

// DecodeFunc decodes a raw tx string into a DecodedTx.
type DecodeFunc func(raw string) (chain.DecodedTx, error)

// GetOrDecode returns the cached decoding for raw, decoding and caching it
// (including a cached decode *failure*, so repeated polling doesn't
// re-attempt it) if this is the first time raw has been seen.
func (c *Cache) GetOrDecode(raw string, decode DecodeFunc) (chain.DecodedTx, bool) {
	if len(raw) > maxRawTxLen {
		return chain.DecodedTx{}, false
	}

	c.mu.Lock()
	if tx, ok := c.decoded[raw]; ok {
		c.mu.Unlock()
		return *tx, true
	}
	if _, ok := c.failed[raw]; ok {
		c.mu.Unlock()
		return chain.DecodedTx{}, false
	}
	c.mu.Unlock()

	tx, err := decode(raw)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failed[raw] = struct{}{}
		return chain.DecodedTx{}, false
	}
	c.decoded[raw] = &tx
	return tx, true
}

// MarkRead reports whether raw had not yet been delivered to the single
// consumer this Cache serves, marking it delivered as a side effect.
func (c *Cache) MarkRead(raw string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.readKeys[raw]; ok {
		return false
	}
	c.readKeys[raw] = struct{}{}
	return true
}
