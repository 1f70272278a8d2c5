package session

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CartLine is one entry in the cart. Title, price and image are captured at
// add time and never re-synced from later adds.
type CartLine struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// ProductView is the slice of a product the cart needs. Price may be
// decorated with a currency symbol.
type ProductView struct {
	Title string `json:"title"`
	Price string `json:"price"`
	Image string `json:"image"`
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// LineID derives the natural key of a cart line: the title lowercased with
// every run of non-alphanumeric characters collapsed to a single dash.
// Distinct products sharing a title collapse into one line.
func LineID(title string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
}

var priceJunk = regexp.MustCompile(`[^0-9.\-]+`)

// ParsePrice extracts a base-currency amount from a possibly decorated price
// string such as "£8.99". Unparsable input reports ok=false, never an error.
func ParsePrice(s string) (decimal.Decimal, bool) {
	cleaned := priceJunk.ReplaceAllString(s, "")
	if cleaned == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func decimalFromInt(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }
