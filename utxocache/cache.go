// Package utxocache keeps a bounded in-memory view of spent transaction
// outputs so the updater can resolve an input's value and script without a
// store round trip on the common path, mirroring the teacher's
// node/store.DB UTXO table but kept off the transactional store entirely
// until a block finishes.
package utxocache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"ordforge.dev/indexcore/inscription"
	"ordforge.dev/indexcore/store"
)

// PreviousOutput pairs an outpoint spent by the block under index with the
// TxOut it referenced. Producers (a block-with-prevouts source, or a
// catch-up fetch against a connected node) feed these over a channel in
// input-scan order; the updater blocks on a receive only for an input whose
// outpoint is not already cached.
type PreviousOutput struct {
	OutPoint inscription.OutPoint
	TxOut    inscription.TxOut
}

// Cache is a bounded LRU of outpoint -> TxOut, plus the set of outputs
// touched by the block currently being indexed. newOutpoints is never
// evicted; FlushCache writes it to the store exactly once at block end and
// clears it. The LRU is separate and persists across blocks, so a spent
// output already resolved in an earlier block's FlushCache still serves
// future lookups straight from memory.
type Cache struct {
	lru          *lru.Cache[inscription.OutPoint, inscription.TxOut]
	newOutpoints map[inscription.OutPoint]inscription.TxOut
}

func New(size int) (*Cache, error) {
	l, err := lru.New[inscription.OutPoint, inscription.TxOut](size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		lru:          l,
		newOutpoints: make(map[inscription.OutPoint]inscription.TxOut),
	}, nil
}

// Get resolves an outpoint from the current block's not-yet-flushed new
// outputs first, then the LRU. On a miss the updater waits for the output
// on the previous-output channel.
func (c *Cache) Get(op inscription.OutPoint) (inscription.TxOut, bool) {
	if out, ok := c.newOutpoints[op]; ok {
		return out, true
	}
	return c.lru.Get(op)
}

// Insert records an output touched by the block currently being indexed:
// it goes into newOutpoints for FlushCache to persist, and into the LRU so
// later reads (same block or a future one) hit memory instead of blocking
// on the previous-output channel again.
func (c *Cache) Insert(op inscription.OutPoint, out inscription.TxOut) {
	c.newOutpoints[op] = out
	c.lru.Add(op, out)
}

// Prefetch drains a producer's channel of previous outputs into the LRU,
// warming the cache for a block's spent inputs ahead of indexing it. It
// returns once ch is closed.
func (c *Cache) Prefetch(ch <-chan PreviousOutput) {
	for po := range ch {
		c.lru.Add(po.OutPoint, po.TxOut)
	}
}

// FlushCache writes every output recorded by Insert during the block just
// indexed (the outputs its transactions create and the previous outputs
// received over the channel) into outpoint_to_entry, inside the same store
// transaction as the rest of the
// block's writes, then clears newOutpoints so each output is written at
// most once.
func (c *Cache) FlushCache(s store.Store) error {
	for op, out := range c.newOutpoints {
		if err := s.OutpointToEntryInsert(op, inscription.EncodeTxOut(out)); err != nil {
			return err
		}
	}
	c.newOutpoints = make(map[inscription.OutPoint]inscription.TxOut)
	return nil
}
