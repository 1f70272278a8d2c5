package catalog

import (
	"context"

	"BookExplorer/internal/scrape"
)

// Scraper is the slice of the upstream client this service depends on.
type Scraper interface {
	Navigation(ctx context.Context) ([]scrape.Category, error)
	Bestsellers(ctx context.Context) ([]scrape.Shelf, error)
	Category(ctx context.Context, slug string, page int) ([]scrape.Product, error)
	ProductDetail(ctx context.Context, title string) (scrape.Detail, error)
}

// ProductIndex remembers every product seen in a crawl, keyed by id, so the
// history batch endpoint can answer without re-crawling.
type ProductIndex interface {
	Upsert(ctx context.Context, products []scrape.Product) error
	ByIDs(ctx context.Context, ids []int64) ([]scrape.Product, error)
	Ping(ctx context.Context) error
}
