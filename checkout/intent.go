package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPrice is the price used when a request does not provide one.
const DefaultPrice = "0.00"

// Intent is the normalized billing request: what is bought, for how much, by
// whom and whether it recurs monthly. It only lives for a single request.
type Intent struct {
	ProductName   string          `json:"productName"`
	Price         decimal.Decimal `json:"price" validate:"gte=0"`
	CustomerName  string          `json:"name"`
	CustomerEmail string          `json:"email"`
	Monthly       bool            `json:"monthly"`
}

// ParsePrice parses a decimal price string such as "9.99" or "10".
func ParsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return price, nil
}

// ParseMonthly parses the monthly flag. Only a case-insensitive "true" enables
// it, anything else (including garbage) means a one-time payment.
func ParseMonthly(s string) bool {
	return strings.EqualFold(s, "true")
}
