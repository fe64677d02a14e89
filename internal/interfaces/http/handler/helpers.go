package handler

import "github.com/shopspring/decimal"

// toDecimal parses a decimal amount from its string form. An empty string
// means zero.
func toDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// toDecimalPtr parses an optional decimal amount. Nil and empty both map
// to nil.
func toDecimalPtr(s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
