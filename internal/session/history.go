package session

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// maxHistory bounds the recently-viewed list.
const maxHistory = 10

// History records which products the session has viewed, most recent first,
// deduplicated and bounded to maxHistory. The list lives in one storage slot
// and is re-read on every operation rather than cached, so independent
// holders of the same namespace converge on the persisted value.
//
// Observers registered with Subscribe are notified after every persisted
// write. This replaces a stringly-typed global event: writer and reader only
// share the History value, not an event name.
type History struct {
	log     *zap.Logger
	storage Storage

	ready bool

	mu        sync.Mutex
	observers map[int]func(ids []int64)
	nextObs   int
}

func NewHistory(storage Storage, log *zap.Logger) *History {
	if log == nil {
		log = zap.NewNop()
	}
	return &History{
		log:       log,
		storage:   storage,
		observers: map[int]func(ids []int64){},
	}
}

// Hydrate loads the persisted baseline once and opens the readiness gate.
// Until it has run, RecordView is a no-op so an empty in-memory view can
// never clobber prior history.
func (h *History) Hydrate(ctx context.Context) {
	_ = h.load(ctx)
	h.ready = true
}

func (h *History) Ready() bool { return h.ready }

// Subscribe registers an observer for history changes and returns its
// cancel function. The observer receives the full updated list.
func (h *History) Subscribe(fn func(ids []int64)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextObs
	h.nextObs++
	h.observers[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.observers, id)
	}
}

// RecordView moves productID to the front of the list, deduplicated and
// truncated to maxHistory, then persists and notifies observers. Non-positive
// ids and calls before Hydrate are no-ops.
func (h *History) RecordView(ctx context.Context, productID int64) {
	if productID <= 0 || !h.ready {
		return
	}

	ids := h.load(ctx)

	kept := make([]int64, 0, len(ids)+1)
	kept = append(kept, productID)
	for _, id := range ids {
		if id != productID {
			kept = append(kept, id)
		}
	}
	if len(kept) > maxHistory {
		kept = kept[:maxHistory]
	}

	raw, err := json.Marshal(kept)
	if err != nil {
		h.log.Error("history marshal failed", zap.Error(err))
		return
	}
	if err := h.storage.Set(ctx, KeyHistory, raw); err != nil {
		h.log.Warn("history persist failed", zap.Error(err))
		return
	}

	h.notify(kept)
}

// ReadHistory returns the persisted list verbatim, or empty on any failure.
func (h *History) ReadHistory(ctx context.Context) []int64 {
	if !h.ready {
		return nil
	}
	return h.load(ctx)
}

func (h *History) notify(ids []int64) {
	h.mu.Lock()
	fns := make([]func([]int64), 0, len(h.observers))
	for _, fn := range h.observers {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ids)
	}
}

// load decodes the persisted list tolerantly: entries written as JSON
// numbers or as strings both count, mirroring the loosely-typed ids older
// clients persisted. Anything unreadable yields an empty list.
func (h *History) load(ctx context.Context) []int64 {
	raw, ok, err := h.storage.Get(ctx, KeyHistory)
	if err != nil {
		h.log.Warn("history load failed", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		h.log.Warn("history payload discarded", zap.Error(err))
		return nil
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		switch v := e.(type) {
		case float64:
			ids = append(ids, int64(v))
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				ids = append(ids, n)
			}
		}
	}
	return ids
}
