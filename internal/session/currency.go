package session

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency is one entry of the fixed conversion catalog. Rate is the
// multiplier from the base currency to this one.
type Currency struct {
	Code   string          `json:"code"`
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
}

// BaseCurrencyCode is the currency every stored price is denominated in.
const BaseCurrencyCode = "GBP"

// NotAvailable is rendered when a price cannot be parsed.
const NotAvailable = "N/A"

// Currencies is the static catalog. Rates are fixed, not fetched.
var Currencies = []Currency{
	{Code: "GBP", Symbol: "£", Name: "British Pound", Rate: rate("1.0")},
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee", Rate: rate("105.50")},
	{Code: "USD", Symbol: "$", Name: "US Dollar", Rate: rate("1.27")},
	{Code: "EUR", Symbol: "€", Name: "Euro", Rate: rate("1.17")},
	{Code: "JPY", Symbol: "¥", Name: "Japanese Yen", Rate: rate("188.45")},
	{Code: "KWD", Symbol: "KD", Name: "Kuwaiti Dinar", Rate: rate("0.39")},
	{Code: "CNY", Symbol: "¥", Name: "Chinese Yuan", Rate: rate("9.15")},
	{Code: "AED", Symbol: "dh", Name: "UAE Dirham", Rate: rate("4.66")},
	{Code: "AUD", Symbol: "A$", Name: "Australian Dollar", Rate: rate("1.92")},
	{Code: "CAD", Symbol: "C$", Name: "Canadian Dollar", Rate: rate("1.71")},
}

func rate(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func LookupCurrency(code string) (Currency, bool) {
	for _, c := range Currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

func baseCurrency() Currency {
	c, _ := LookupCurrency(BaseCurrencyCode)
	return c
}

var display = message.NewPrinter(language.BritishEnglish)

// FormatPrice renders a base-currency amount in the given currency, prefixed
// with its symbol. JPY follows the zero-decimal convention: rounded to the
// nearest yen, no fraction digits. Everything else gets exactly two decimals.
// Both use thousands separators.
func FormatPrice(base decimal.Decimal, cur Currency) string {
	converted := base.Mul(cur.Rate)

	if cur.Code == "JPY" {
		return cur.Symbol + display.Sprintf("%v", number.Decimal(converted.Round(0).IntPart()))
	}

	rounded, _ := converted.Round(2).Float64()
	return cur.Symbol + display.Sprintf("%v", number.Decimal(rounded, number.Scale(2)))
}

// ConvertPrice parses a possibly decorated base-currency price string and
// renders it in the given currency. Unparsable input renders NotAvailable.
func ConvertPrice(priceInput string, cur Currency) string {
	base, ok := ParsePrice(priceInput)
	if !ok {
		return NotAvailable
	}
	return FormatPrice(base, cur)
}
