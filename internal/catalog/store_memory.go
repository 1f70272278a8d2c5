package catalog

import (
	"context"
	"sync"

	"BookExplorer/internal/scrape"
)

type MemIndex struct {
	mu sync.RWMutex
	m  map[int64]scrape.Product
}

func NewMemIndex() *MemIndex {
	return &MemIndex{m: map[int64]scrape.Product{}}
}

func (s *MemIndex) Ping(ctx context.Context) error { return nil }

func (s *MemIndex) Upsert(ctx context.Context, products []scrape.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		if p.ID == 0 {
			continue
		}
		s.m[p.ID] = p
	}
	return nil
}

func (s *MemIndex) ByIDs(ctx context.Context, ids []int64) ([]scrape.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]scrape.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.m[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
