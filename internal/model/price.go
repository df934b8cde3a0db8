package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidPrice is returned for non-numeric, negative or out of range prices
var ErrInvalidPrice = errors.New("price must be a non-negative number up to 9999999999.99")

// MaxPrice is the largest amount a numeric(12,2) column holds
var MaxPrice = decimal.New(999999999999, -2)

// Input is bounded before any arithmetic: decimal rescales to the operand
// exponent, so "1e200000000" would otherwise allocate a huge coefficient.
const (
	maxPriceInput    = 32
	maxPriceExponent = 12
)

// Price is a fixed-point amount with two fraction digits.
type Price struct {
	decimal.Decimal
}

// NewPrice rounds d to two fraction digits
func NewPrice(d decimal.Decimal) Price {
	return Price{d.Round(2)}
}

// ParsePrice parses user input such as "12.5" or "10".
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxPriceInput {
		return Price{}, ErrInvalidPrice
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, ErrInvalidPrice
	}
	if exp := d.Exponent(); exp < -maxPriceExponent || exp > maxPriceExponent {
		return Price{}, ErrInvalidPrice
	}
	if d.IsNegative() {
		return Price{}, ErrInvalidPrice
	}
	p := NewPrice(d)
	if p.GreaterThan(MaxPrice) {
		return Price{}, ErrInvalidPrice
	}
	return p, nil
}

// String renders the price with exactly two fraction digits
func (p Price) String() string {
	return p.Decimal.StringFixed(2)
}

// MarshalJSON renders the price as a string with two fraction digits
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts both JSON numbers and numeric strings
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ErrInvalidPrice
		}
		parsed, err := ParsePrice(s)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	parsed, err := ParsePrice(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
