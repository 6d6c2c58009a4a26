package scraper

import "sync"

// productLocks hands out one mutex per product so that overlapping ticks can
// never interleave the read-compare-write sequence for the same product.
type productLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newProductLocks() *productLocks {
	return &productLocks{locks: make(map[uint]*sync.Mutex)}
}

// Lock blocks until the product's mutex is held and returns the unlock func.
func (pl *productLocks) Lock(productID uint) func() {
	pl.mu.Lock()
	m, ok := pl.locks[productID]
	if !ok {
		m = &sync.Mutex{}
		pl.locks[productID] = m
	}
	pl.mu.Unlock()

	m.Lock()
	return m.Unlock
}
