package session

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is the single authority over cart contents and the active display
// currency for one session namespace. Lifecycle is create -> Hydrate ->
// operate: until Hydrate has loaded the persisted baseline, mutations apply
// in memory but are not written back, so a half-initialized store can never
// clobber valid persisted state with defaults.
//
// Every operation is total: malformed input degrades to a safe default
// (zero price, no-op, unchanged state) and is logged, never returned.
type Store struct {
	log     *zap.Logger
	storage Storage

	ready    bool
	cart     []CartLine
	currency Currency
	cartOpen bool
}

func NewStore(storage Storage, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		log:      log,
		storage:  storage,
		cart:     []CartLine{},
		currency: baseCurrency(),
	}
}

// Hydrate loads the persisted cart and currency once. A cart payload that
// fails to parse is discarded; a persisted currency code missing from the
// catalog leaves the base currency active. Hydrate never fails the caller.
func (s *Store) Hydrate(ctx context.Context) {
	if raw, ok, err := s.storage.Get(ctx, KeyCart); err != nil {
		s.log.Warn("cart load failed", zap.Error(err))
	} else if ok {
		var cart []CartLine
		if err := json.Unmarshal(raw, &cart); err != nil {
			s.log.Warn("cart payload discarded", zap.Error(err))
		} else if cart != nil {
			s.cart = cart
		}
	}

	if raw, ok, err := s.storage.Get(ctx, KeyCurrency); err != nil {
		s.log.Warn("currency load failed", zap.Error(err))
	} else if ok {
		if cur, found := LookupCurrency(string(raw)); found {
			s.currency = cur
		}
	}

	if raw, ok, err := s.storage.Get(ctx, KeyCartOpen); err != nil {
		s.log.Warn("cart open load failed", zap.Error(err))
	} else if ok {
		s.cartOpen = string(raw) == "true"
	}

	s.ready = true
}

// Ready reports whether Hydrate has run.
func (s *Store) Ready() bool { return s.ready }

// AddToCart merges the product into the cart by its natural key: an existing
// line gains quantity 1 and keeps its first-seen price and image; otherwise a
// new line is appended with quantity 1. An unparsable price becomes zero.
// Adding also opens the cart drawer flag.
func (s *Store) AddToCart(ctx context.Context, p ProductView) {
	id := LineID(p.Title)

	merged := false
	for i := range s.cart {
		if s.cart[i].ID == id {
			s.cart[i].Quantity++
			merged = true
			break
		}
	}

	if !merged {
		price, ok := ParsePrice(p.Price)
		if !ok {
			s.log.Warn("unparsable price on add", zap.String("title", p.Title), zap.String("price", p.Price))
			price = decimal.Zero
		}
		s.cart = append(s.cart, CartLine{
			ID:        id,
			Title:     p.Title,
			UnitPrice: price,
			Image:     p.Image,
			Quantity:  1,
		})
	}

	s.cartOpen = true
	s.persist(ctx)
}

// RemoveFromCart drops the line with that id. Absent ids are a no-op.
func (s *Store) RemoveFromCart(ctx context.Context, id string) {
	for i := range s.cart {
		if s.cart[i].ID == id {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
			s.persist(ctx)
			return
		}
	}
}

// UpdateQuantity applies a signed delta to the line's quantity. A result of
// zero or less removes the line. Absent ids are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, id string, delta int) {
	for i := range s.cart {
		if s.cart[i].ID != id {
			continue
		}

		q := s.cart[i].Quantity + delta
		if q > 0 {
			s.cart[i].Quantity = q
		} else {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
		}
		s.persist(ctx)
		return
	}
}

// ClearCart empties the cart unconditionally.
func (s *Store) ClearCart(ctx context.Context) {
	s.cart = []CartLine{}
	s.persist(ctx)
}

// SetCurrency activates the catalog entry for code. Unknown codes leave the
// prior currency active.
func (s *Store) SetCurrency(ctx context.Context, code string) {
	cur, ok := LookupCurrency(code)
	if !ok {
		s.log.Warn("unknown currency code", zap.String("code", code))
		return
	}
	s.currency = cur
	s.persist(ctx)
}

// ConvertPrice renders a decorated base-currency price string in the active
// currency. Unparsable input renders NotAvailable.
func (s *Store) ConvertPrice(priceInput string) string {
	return ConvertPrice(priceInput, s.currency)
}

// DisplayAmount renders a numeric base-currency amount in the active currency.
func (s *Store) DisplayAmount(amount decimal.Decimal) string {
	return FormatPrice(amount, s.currency)
}

// Cart returns a copy of the cart lines in insertion order.
func (s *Store) Cart() []CartLine {
	out := make([]CartLine, len(s.cart))
	copy(out, s.cart)
	return out
}

// Subtotal sums unit price times quantity over all lines, in base currency.
func (s *Store) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.cart {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (s *Store) Currency() Currency { return s.currency }

func (s *Store) CartOpen() bool { return s.cartOpen }

// SetCartOpen records whether the cart drawer is showing. Persisted with the
// rest of the state so the flag survives across requests.
func (s *Store) SetCartOpen(ctx context.Context, open bool) {
	s.cartOpen = open
	s.persist(ctx)
}

// persist writes cart and currency back to storage. Suppressed until Hydrate
// has run; failures are logged only.
func (s *Store) persist(ctx context.Context) {
	if !s.ready {
		return
	}

	raw, err := json.Marshal(s.cart)
	if err != nil {
		s.log.Error("cart marshal failed", zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, KeyCart, raw); err != nil {
		s.log.Warn("cart persist failed", zap.Error(err))
	}

	if err := s.storage.Set(ctx, KeyCurrency, []byte(s.currency.Code)); err != nil {
		s.log.Warn("currency persist failed", zap.Error(err))
	}

	if err := s.storage.Set(ctx, KeyCartOpen, []byte(strconv.FormatBool(s.cartOpen))); err != nil {
		s.log.Warn("cart open persist failed", zap.Error(err))
	}
}
