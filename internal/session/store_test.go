package session

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) (*Store, Storage) {
	t.Helper()

	st := NewMemStorage().Namespace("test")
	s := NewStore(st, nil)
	s.Hydrate(context.Background())
	return s, st
}

func TestLineID(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Dune", "dune"},
		{"The Great Gatsby", "the-great-gatsby"},
		{"Harry Potter & the Goblet of Fire!", "harry-potter-the-goblet-of-fire-"},
		{"  spaced  ", "-spaced-"},
	}
	for _, c := range cases {
		if got := LineID(c.title); got != c.want {
			t.Errorf("LineID(%q)=%q want %q", c.title, got, c.want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	if p, ok := ParsePrice("£12.99"); !ok || !p.Equal(decimal.RequireFromString("12.99")) {
		t.Fatalf("parse £12.99: ok=%v p=%s", ok, p)
	}
	if p, ok := ParsePrice("GBP 1,299.50"); !ok || !p.Equal(decimal.RequireFromString("1299.50")) {
		t.Fatalf("parse grouped: ok=%v p=%s", ok, p)
	}
	if _, ok := ParsePrice("free"); ok {
		t.Fatalf("expected parse failure for non-numeric input")
	}
}

func TestAddToCart_MergesByNormalizedTitle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddToCart(ctx, ProductView{Title: "Dune", Price: "£8.99"})
	s.AddToCart(ctx, ProductView{Title: "dune", Price: "£999.00"})
	s.AddToCart(ctx, ProductView{Title: "DUNE", Price: "£0.01"})

	cart := s.Cart()
	if len(cart) != 1 {
		t.Fatalf("lines=%d want 1", len(cart))
	}
	line := cart[0]
	if line.ID != "dune" {
		t.Errorf("id=%q want dune", line.ID)
	}
	if line.Quantity != 3 {
		t.Errorf("quantity=%d want 3", line.Quantity)
	}
	// First-seen price wins on merge.
	if !line.UnitPrice.Equal(decimal.RequireFromString("8.99")) {
		t.Errorf("unit price=%s want 8.99", line.UnitPrice)
	}
	if !s.CartOpen() {
		t.Errorf("cart should be open after add")
	}
}

func TestAddToCart_UnparsablePriceBecomesZero(t *testing.T) {
	s, _ := newTestStore(t)

	s.AddToCart(context.Background(), ProductView{Title: "Mystery", Price: "call us"})

	cart := s.Cart()
	if len(cart) != 1 {
		t.Fatalf("lines=%d want 1", len(cart))
	}
	if !cart[0].UnitPrice.IsZero() {
		t.Errorf("unit price=%s want 0", cart[0].UnitPrice)
	}
}

func TestUpdateQuantity(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddToCart(ctx, ProductView{Title: "Dune", Price: "£8.99"})
	s.AddToCart(ctx, ProductView{Title: "Dune", Price: "£8.99"})

	s.UpdateQuantity(ctx, "dune", -1)
	if got := s.Cart()[0].Quantity; got != 1 {
		t.Fatalf("quantity=%d want 1", got)
	}

	s.UpdateQuantity(ctx, "dune", -1)
	if got := len(s.Cart()); got != 0 {
		t.Fatalf("lines=%d want 0 after decrement to zero", got)
	}

	// Absent id is a no-op.
	s.UpdateQuantity(ctx, "missing", 5)
	if got := len(s.Cart()); got != 0 {
		t.Fatalf("lines=%d want 0", got)
	}
}

func TestRemoveFromCart_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddToCart(ctx, ProductView{Title: "Dune", Price: "£8.99"})
	s.RemoveFromCart(ctx, "dune")
	s.RemoveFromCart(ctx, "dune")

	if got := len(s.Cart()); got != 0 {
		t.Fatalf("lines=%d want 0", got)
	}
}

func TestSubtotal(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddToCart(ctx, ProductView{Title: "Dune", Price: "£8.99"})
	s.AddToCart(ctx, ProductView{Title: "Dune", Price: "£8.99"})
	s.AddToCart(ctx, ProductView{Title: "Emma", Price: "£4.50"})

	want := decimal.RequireFromString("22.48")
	if got := s.Subtotal(); !got.Equal(want) {
		t.Fatalf("subtotal=%s want %s", got, want)
	}
}

func TestClearCart(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.AddToCart(ctx, ProductView{Title: "Dune", Price: "£8.99"})
	s.AddToCart(ctx, ProductView{Title: "Emma", Price: "£4.50"})
	s.ClearCart(ctx)

	if got := len(s.Cart()); got != 0 {
		t.Fatalf("lines=%d want 0", got)
	}
	if !s.Subtotal().IsZero() {
		t.Fatalf("subtotal=%s want 0", s.Subtotal())
	}
}

func TestSetCurrency_UnknownCodeIsNoOp(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	s.SetCurrency(ctx, "USD")
	s.SetCurrency(ctx, "ZZZ")

	if got := s.Currency().Code; got != "USD" {
		t.Fatalf("currency=%q want USD", got)
	}
}

func TestConvertPrice(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	// Base currency round-trips with two decimals.
	if got := s.ConvertPrice("£8.99"); got != "£8.99" {
		t.Errorf("GBP: got %q", got)
	}
	if got := s.ConvertPrice("£10"); got != "£10.00" {
		t.Errorf("GBP whole: got %q", got)
	}

	s.SetCurrency(ctx, "USD")
	if got := s.ConvertPrice("£10.00"); got != "$12.70" {
		t.Errorf("USD: got %q", got)
	}

	s.SetCurrency(ctx, "JPY")
	// 10 * 188.45 = 1884.5, rounds half away from zero to 1885 with grouping.
	if got := s.ConvertPrice("£10.00"); got != "¥1,885" {
		t.Errorf("JPY: got %q", got)
	}

	if got := s.ConvertPrice("not a price"); got != NotAvailable {
		t.Errorf("unparsable: got %q want %q", got, NotAvailable)
	}
}

func TestFormatPrice_MonotonicInRate(t *testing.T) {
	base := decimal.RequireFromString("50.00")
	kwd, _ := LookupCurrency("KWD")
	inr, _ := LookupCurrency("INR")

	low := base.Mul(kwd.Rate)
	high := base.Mul(inr.Rate)
	if !low.LessThan(high) {
		t.Fatalf("converted amounts not ordered by rate: %s vs %s", low, high)
	}
}

func TestFormatPrice_Grouping(t *testing.T) {
	usd, _ := LookupCurrency("USD")
	got := FormatPrice(decimal.RequireFromString("1000.00"), usd)
	if got != "$1,270.00" {
		t.Fatalf("got %q want $1,270.00", got)
	}
}

func TestPersistence_RoundTrip(t *testing.T) {
	st := NewMemStorage().Namespace("rt")
	ctx := context.Background()

	first := NewStore(st, nil)
	first.Hydrate(ctx)
	first.AddToCart(ctx, ProductView{Title: "Dune", Price: "£8.99"})
	first.SetCurrency(ctx, "EUR")

	second := NewStore(st, nil)
	second.Hydrate(ctx)

	cart := second.Cart()
	if len(cart) != 1 || cart[0].ID != "dune" || cart[0].Quantity != 1 {
		t.Fatalf("cart did not round-trip: %+v", cart)
	}
	if got := second.Currency().Code; got != "EUR" {
		t.Fatalf("currency=%q want EUR", got)
	}
}

func TestCartOpen_Persisted(t *testing.T) {
	st := NewMemStorage().Namespace("open")
	ctx := context.Background()

	first := NewStore(st, nil)
	first.Hydrate(ctx)
	first.SetCartOpen(ctx, true)

	second := NewStore(st, nil)
	second.Hydrate(ctx)
	if !second.CartOpen() {
		t.Fatalf("cart open flag lost across stores")
	}

	// Adding also opens the drawer, and that too must stick.
	third := NewStore(st, nil)
	third.Hydrate(ctx)
	third.SetCartOpen(ctx, false)
	third.AddToCart(ctx, ProductView{Title: "Dune", Price: "£8.99"})

	fourth := NewStore(st, nil)
	fourth.Hydrate(ctx)
	if !fourth.CartOpen() {
		t.Fatalf("add did not persist the open flag")
	}
}

func TestPersistence_GatedUntilHydrate(t *testing.T) {
	st := NewMemStorage().Namespace("gate")
	ctx := context.Background()

	s := NewStore(st, nil)
	s.AddToCart(ctx, ProductView{Title: "Dune", Price: "£8.99"})

	if _, ok, _ := st.Get(ctx, KeyCart); ok {
		t.Fatalf("cart persisted before hydrate")
	}

	// In-memory state still reflects the add.
	if got := len(s.Cart()); got != 1 {
		t.Fatalf("lines=%d want 1", got)
	}
}

func TestHydrate_MalformedCartDiscarded(t *testing.T) {
	st := NewMemStorage().Namespace("bad")
	ctx := context.Background()

	if err := st.Set(ctx, KeyCart, []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.Set(ctx, KeyCurrency, []byte("XXX")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := NewStore(st, nil)
	s.Hydrate(ctx)

	if got := len(s.Cart()); got != 0 {
		t.Fatalf("lines=%d want 0", got)
	}
	if got := s.Currency().Code; got != BaseCurrencyCode {
		t.Fatalf("currency=%q want %q", got, BaseCurrencyCode)
	}
}

func TestCurrencyCatalog(t *testing.T) {
	base, ok := LookupCurrency(BaseCurrencyCode)
	if !ok {
		t.Fatalf("base currency missing from catalog")
	}
	if !base.Rate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("base rate=%s want 1", base.Rate)
	}
	for _, c := range Currencies {
		if c.Rate.LessThanOrEqual(decimal.Zero) {
			t.Errorf("%s rate=%s not positive", c.Code, c.Rate)
		}
		if c.Symbol == "" {
			t.Errorf("%s has no symbol", c.Code)
		}
	}
}
