package session

import (
	"context"
	"sync"
)

type MemStorage struct {
	mu sync.RWMutex
	m  map[string]map[string][]byte
}

func NewMemStorage() *MemStorage {
	return &MemStorage{m: map[string]map[string][]byte{}}
}

func (s *MemStorage) Namespace(ns string) Storage {
	return &memNamespace{parent: s, ns: ns}
}

func (s *MemStorage) Ping(ctx context.Context) error { return nil }

type memNamespace struct {
	parent *MemStorage
	ns     string
}

func (n *memNamespace) Get(ctx context.Context, key string) ([]byte, bool, error) {
	n.parent.mu.RLock()
	defer n.parent.mu.RUnlock()

	slot, ok := n.parent.m[n.ns]
	if !ok {
		return nil, false, nil
	}
	v, ok := slot[key]
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (n *memNamespace) Set(ctx context.Context, key string, value []byte) error {
	n.parent.mu.Lock()
	defer n.parent.mu.Unlock()

	slot, ok := n.parent.m[n.ns]
	if !ok {
		slot = map[string][]byte{}
		n.parent.m[n.ns] = slot
	}

	v := make([]byte, len(value))
	copy(v, value)
	slot[key] = v
	return nil
}

func (n *memNamespace) Ping(ctx context.Context) error { return nil }
