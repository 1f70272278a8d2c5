package session

import "context"

// Storage keys, fixed by convention. Old payloads written under these keys
// must keep decoding, so they never change.
const (
	KeyCart     = "cart"
	KeyCurrency = "currency"
	KeyCartOpen = "cart_open"
	KeyHistory  = "history"
)

// Storage is the persisted key-value slot one browser session writes
// through. Implementations scope every key to a single namespace; two
// sessions never see each other's state. Writes from concurrent holders of
// the same namespace are last-writer-wins.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

// StorageProvider hands out namespace-scoped storage views.
type StorageProvider interface {
	Namespace(ns string) Storage
	Ping(ctx context.Context) error
}
