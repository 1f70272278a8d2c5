package scrape

import (
	"hash/fnv"
	"math"
)

// Category is one node of the upstream navigation tree.
type Category struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title"`
	URL      string     `json:"url"`
	Children []Category `json:"children,omitempty"`
}

// Product is the card shape shared by bestseller shelves and category pages.
// Price stays a decorated base-currency string; parsing it is the session
// store's concern.
type Product struct {
	ID     int64  `json:"id,omitempty"`
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	Price  string `json:"price"`
	Image  string `json:"image"`
	Promo  string `json:"promo,omitempty"`
}

// Shelf is one bestseller section of the upstream landing page.
type Shelf struct {
	Title    string    `json:"title"`
	Slug     string    `json:"slug"`
	Products []Product `json:"products"`
}

// Detail is the enriched product shape behind the search endpoint. Every
// field is optional; a sparse detail is normal, not an error.
type Detail struct {
	Summary         string            `json:"summary,omitempty"`
	Condition       string            `json:"condition,omitempty"`
	Specifications  map[string]string `json:"specifications,omitempty"`
	Reviews         []Review          `json:"reviews,omitempty"`
	Recommendations []Product         `json:"recommendations,omitempty"`
}

type Review struct {
	Text string `json:"text"`
}

// productID derives a stable positive id from the product title. The
// upstream site has no usable identifiers, and history lookups need ids
// that survive restarts and repeated crawls.
func productID(title string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(title))

	id := int64(h.Sum64() & math.MaxInt64)
	if id == 0 {
		id = 1
	}
	return id
}
