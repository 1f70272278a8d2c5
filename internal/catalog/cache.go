package catalog

import (
	"sync"

	"BookExplorer/internal/scrape"
)

// categorySlot accumulates the pages fetched so far for one category.
// inFlight marks an in-progress load-more so concurrent requests serve
// the current snapshot instead of racing another upstream fetch.
type categorySlot struct {
	products []scrape.Product
	nextPage int
	inFlight bool
}

type pageCache struct {
	mu    sync.Mutex
	slots map[string]*categorySlot
}

func newPageCache() *pageCache {
	return &pageCache{slots: make(map[string]*categorySlot)}
}

func (c *pageCache) snapshot(slug string) ([]scrape.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.slots[slug]
	if !ok {
		return nil, false
	}
	out := make([]scrape.Product, len(slot.products))
	copy(out, slot.products)
	return out, true
}

func (c *pageCache) setInitial(slug string, products []scrape.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.slots[slug] = &categorySlot{
		products: append([]scrape.Product(nil), products...),
		nextPage: 2,
	}
}

// beginLoadMore claims the next page for fetching. It reports false when
// the category has no snapshot yet or another fetch is already running.
func (c *pageCache) beginLoadMore(slug string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.slots[slug]
	if !ok || slot.inFlight {
		return 0, false
	}
	slot.inFlight = true
	return slot.nextPage, true
}

func (c *pageCache) completeLoadMore(slug string, products []scrape.Product, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, exists := c.slots[slug]
	if !exists {
		return
	}
	slot.inFlight = false
	if !ok {
		return
	}

	seen := make(map[int64]struct{}, len(slot.products))
	for _, p := range slot.products {
		seen[p.ID] = struct{}{}
	}
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		slot.products = append(slot.products, p)
	}
	slot.nextPage++
}

// lastGood keeps the most recent successful result of an upstream fetch
// so transient scrape failures degrade to stale data instead of errors.
type lastGood[T any] struct {
	mu  sync.RWMutex
	val T
	set bool
}

func (g *lastGood[T]) store(v T) {
	g.mu.Lock()
	g.val = v
	g.set = true
	g.mu.Unlock()
}

func (g *lastGood[T]) load() (T, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.val, g.set
}
