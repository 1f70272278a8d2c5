package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"BookExplorer/internal/scrape"
)

// fakeScraper serves canned pages and can be tripped into failing.
type fakeScraper struct {
	fail  bool
	calls int
}

func (f *fakeScraper) Navigation(context.Context) ([]scrape.Category, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("upstream down")
	}
	return []scrape.Category{{ID: 1, Title: "Fiction", URL: "/collections/fiction"}}, nil
}

func (f *fakeScraper) Bestsellers(context.Context) ([]scrape.Shelf, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("upstream down")
	}
	return []scrape.Shelf{{
		Title: "Bestsellers",
		Slug:  "bestsellers",
		Products: []scrape.Product{
			{ID: 10, Title: "Dune", Price: "£8.99"},
		},
	}}, nil
}

func (f *fakeScraper) Category(_ context.Context, slug string, page int) ([]scrape.Product, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("upstream down")
	}
	return []scrape.Product{
		{ID: int64(page * 100), Title: fmt.Sprintf("%s page %d", slug, page), Price: "£5.00"},
	}, nil
}

func (f *fakeScraper) ProductDetail(_ context.Context, title string) (scrape.Detail, error) {
	f.calls++
	if f.fail {
		return scrape.Detail{}, errors.New("upstream down")
	}
	return scrape.Detail{
		Summary: "About " + title,
		Recommendations: []scrape.Product{
			{ID: 99, Title: "Related to " + title, Price: "£2.00"},
		},
	}, nil
}

func newCatalogTS(t *testing.T, f *fakeScraper) (*httptest.Server, *MemIndex) {
	t.Helper()

	index := NewMemIndex()
	s := NewServer(f, index, zap.NewNop())

	h := NewHandler(s, HTTPDeps{Log: zap.NewNop(), Service: "catalog"})
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts, index
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func TestNavigation_FallsBackToCache(t *testing.T) {
	f := &fakeScraper{}
	ts, _ := newCatalogTS(t, f)

	resp, _ := get(t, ts.URL+"/navigation")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	f.fail = true
	resp, raw := get(t, ts.URL+"/navigation")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cached status=%d body=%s", resp.StatusCode, raw)
	}

	var cats []scrape.Category
	if err := json.Unmarshal(raw, &cats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cats) != 1 || cats[0].Title != "Fiction" {
		t.Fatalf("cats=%+v", cats)
	}
}

func TestNavigation_FirstFailureIs502(t *testing.T) {
	f := &fakeScraper{fail: true}
	ts, _ := newCatalogTS(t, f)

	resp, _ := get(t, ts.URL+"/navigation")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status=%d want 502", resp.StatusCode)
	}
}

func TestBestsellers_IndexesProducts(t *testing.T) {
	f := &fakeScraper{}
	ts, index := newCatalogTS(t, f)

	resp, _ := get(t, ts.URL+"/bestsellers")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	got, err := index.ByIDs(context.Background(), []int64{10})
	if err != nil {
		t.Fatalf("ByIDs: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Dune" {
		t.Fatalf("indexed=%+v", got)
	}
}

func TestCategory_LoadMoreAccumulates(t *testing.T) {
	f := &fakeScraper{}
	ts, _ := newCatalogTS(t, f)

	resp, raw := get(t, ts.URL+"/category/fiction")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, raw)
	}

	var products []scrape.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != 1 || products[0].Title != "fiction page 1" {
		t.Fatalf("initial=%+v", products)
	}

	_, raw = get(t, ts.URL+"/category/fiction?loadMore=true")
	if err := json.Unmarshal(raw, &products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("after load more products=%d want 2", len(products))
	}
	if products[1].Title != "fiction page 2" {
		t.Fatalf("appended=%+v", products[1])
	}

	_, raw = get(t, ts.URL+"/category/fiction?loadMore=true")
	if err := json.Unmarshal(raw, &products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != 3 || products[2].Title != "fiction page 3" {
		t.Fatalf("pages did not advance: %+v", products)
	}
}

func TestCategory_LoadMoreBeforeInitialIs502(t *testing.T) {
	f := &fakeScraper{}
	ts, _ := newCatalogTS(t, f)

	resp, _ := get(t, ts.URL+"/category/fiction?loadMore=true")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status=%d want 502", resp.StatusCode)
	}
}

func TestCategory_LoadMoreFailureServesSnapshot(t *testing.T) {
	f := &fakeScraper{}
	ts, _ := newCatalogTS(t, f)

	get(t, ts.URL+"/category/fiction")

	f.fail = true
	resp, raw := get(t, ts.URL+"/category/fiction?loadMore=true")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	var products []scrape.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("snapshot=%+v", products)
	}

	// The failed page was not consumed; the next attempt retries it.
	f.fail = false
	_, raw = get(t, ts.URL+"/category/fiction?loadMore=true")
	if err := json.Unmarshal(raw, &products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != 2 || products[1].Title != "fiction page 2" {
		t.Fatalf("retry did not fetch page 2: %+v", products)
	}
}

func TestProducts_NarrowShape(t *testing.T) {
	f := &fakeScraper{}
	ts, _ := newCatalogTS(t, f)

	resp, raw := get(t, ts.URL+"/products?category=fiction")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, raw)
	}

	var out []map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("products=%d want 1", len(out))
	}
	if _, has := out[0]["id"]; has {
		t.Fatalf("narrow shape should not carry ids: %v", out[0])
	}
	if out[0]["title"] != "fiction page 1" || out[0]["price"] != "£5.00" {
		t.Fatalf("product=%v", out[0])
	}
}

func TestProducts_RequiresCategory(t *testing.T) {
	f := &fakeScraper{}
	ts, _ := newCatalogTS(t, f)

	resp, _ := get(t, ts.URL+"/products")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", resp.StatusCode)
	}
}

func TestSearch(t *testing.T) {
	f := &fakeScraper{}
	ts, index := newCatalogTS(t, f)

	resp, raw := get(t, ts.URL+"/search?q=Dune")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, raw)
	}

	var d scrape.Detail
	if err := json.Unmarshal(raw, &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Summary != "About Dune" {
		t.Fatalf("detail=%+v", d)
	}

	// Recommendations get indexed for later history lookups.
	got, err := index.ByIDs(context.Background(), []int64{99})
	if err != nil {
		t.Fatalf("ByIDs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("recommendation not indexed")
	}

	resp, _ = get(t, ts.URL+"/search?q=")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty q status=%d want 400", resp.StatusCode)
	}
}

func TestHistory_ResolvesIDsInOrder(t *testing.T) {
	f := &fakeScraper{}
	ts, index := newCatalogTS(t, f)

	err := index.Upsert(context.Background(), []scrape.Product{
		{ID: 1, Title: "One"},
		{ID: 2, Title: "Two"},
		{ID: 3, Title: "Three"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	body := strings.NewReader(`{"ids":[3,1,7]}`)
	resp, err := http.Post(ts.URL+"/history", "application/json", body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	var products []scrape.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Unknown ids drop out; known ones keep request order.
	if len(products) != 2 || products[0].Title != "Three" || products[1].Title != "One" {
		t.Fatalf("products=%+v", products)
	}
}
