package domain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// SafeParse parses a string into a decimal, returning zero for invalid or empty input.
func SafeParse(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FromRawUnits converts an integer amount in an asset's smallest unit
// (lamports, wei, octas) into a decimal using the given number of decimals.
func FromRawUnits(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// ParseRawUnits parses a base-10 or 0x-prefixed hex integer string of raw
// units into a decimal with the given number of decimals.
func ParseRawUnits(s string, decimals int32) decimal.Decimal {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return decimal.Zero
	}
	return FromRawUnits(n, decimals)
}
