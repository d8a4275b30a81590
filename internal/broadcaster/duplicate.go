package broadcaster

import "sync"

type heightBucket struct {
	pools        map[string]struct{}
	fingerprints map[string]struct{}
}

func newHeightBucket() *heightBucket {
	return &heightBucket{pools: map[string]struct{}{}, fingerprints: map[string]struct{}{}}
}

// DuplicateCache implements the receiving-peer duplicate-detection rules of
// spec.md §4.6: per-height "current pools" sets and a short fingerprint
// history, shared across the fleet via the HTTP contract.
type DuplicateCache struct {
	mu      sync.Mutex
	height  int64
	buckets map[int64]*heightBucket
}

// NewDuplicateCache returns an empty cache.
func NewDuplicateCache() *DuplicateCache {
	return &DuplicateCache{buckets: map[int64]*heightBucket{}}
}

// pruneLocked drops every bucket but the current height's. A new height
// means a fresh arbitrage opportunity, so the pool-identity and fingerprint
// cache starts over rather than dragging along the previous height's
// entries (spec.md §8's worked example: an identical payload one height
// later is `broadcasted`, not `repeated_tx`).
func (d *DuplicateCache) pruneLocked() {
	for h := range d.buckets {
		if h != d.height {
			delete(d.buckets, h)
		}
	}
}

// Check evaluates payload against the duplicate-detection rules. It returns
// (result, true) when the caller should short-circuit and reply with
// result; (ResultBroadcasted, false) means the payload is novel and the
// caller should proceed to execute it via the local LCD, then reply with
// whichever result that execution produced.
func (d *DuplicateCache) Check(payload Payload) (Result, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if payload.Height < d.height {
		return ResultNewBlock, true
	}
	if payload.Height > d.height {
		d.height = payload.Height
		d.pruneLocked()
	}
	bucket, ok := d.buckets[payload.Height]
	if !ok {
		bucket = newHeightBucket()
		d.buckets[payload.Height] = bucket
	}

	poolIDs := extractPoolIdentities(payload.Msgs)
	for _, id := range poolIDs {
		if _, ok := bucket.pools[id]; ok {
			return ResultRepeatedTx, true
		}
	}

	fp := Fingerprint(payload.Msgs)
	if _, ok := bucket.fingerprints[fp]; ok {
		return ResultRepeatedTx, true
	}

	for _, id := range poolIDs {
		bucket.pools[id] = struct{}{}
	}
	bucket.fingerprints[fp] = struct{}{}
	return ResultBroadcasted, false
}
