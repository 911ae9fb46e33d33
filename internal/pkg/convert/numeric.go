// Package convert coerces the loosely typed numeric payloads venue SDKs
// return (decimal strings, native contract counts) into engine types.
package convert

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ToDecimal parses a venue decimal string. Empty or malformed input yields zero;
// venue payloads use "" for absent fields and we never want that to poison math.
func ToDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ScaledInt converts a native integer amount into human units given the
// venue's fixed per-contract multiplier (e.g. gate contract sizes).
func ScaledInt(n int64, multiplier decimal.Decimal) decimal.Decimal {
	if multiplier.IsZero() {
		return decimal.NewFromInt(n)
	}
	return decimal.NewFromInt(n).Mul(multiplier)
}
