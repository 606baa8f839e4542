package xchain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// BaseAmount is an integer quantity in a chain's smallest unit, tagged with
// the number of decimals of the whole unit. Values are arbitrary precision,
// so 18-decimal account chains do not overflow.
type BaseAmount struct {
	amount   decimal.Decimal
	decimals int32
}

// NewBaseAmount returns v smallest units.
func NewBaseAmount(v uint64, decimals int32) BaseAmount {
	return BaseAmount{amount: decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0), decimals: decimals}
}

// ParseBaseAmount parses a base-unit integer string such as "1000000".
// A leading minus sign is accepted; fractional values are rejected.
func ParseBaseAmount(s string, decimals int32) (BaseAmount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return BaseAmount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.Equal(d.Truncate(0)) {
		return BaseAmount{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidAmount, s)
	}
	return BaseAmount{amount: d, decimals: decimals}, nil
}

// AssetToBase converts a whole-unit amount (e.g. "0.5" BTC) to base units,
// truncating precision beyond decimals.
func AssetToBase(asset decimal.Decimal, decimals int32) BaseAmount {
	return BaseAmount{amount: asset.Shift(decimals).Truncate(0), decimals: decimals}
}

// Amount returns the base-unit value.
func (a BaseAmount) Amount() decimal.Decimal { return a.amount }

// Decimals returns the number of decimals of the whole unit.
func (a BaseAmount) Decimals() int32 { return a.decimals }

// AssetAmount returns the value in whole units.
func (a BaseAmount) AssetAmount() decimal.Decimal { return a.amount.Shift(-a.decimals) }

// Uint64 returns the base-unit value when it fits, and false otherwise.
func (a BaseAmount) Uint64() (uint64, bool) {
	if a.amount.IsNegative() || !a.amount.BigInt().IsUint64() {
		return 0, false
	}
	return a.amount.BigInt().Uint64(), true
}

// Add returns a + b. The decimals of a are kept.
func (a BaseAmount) Add(b BaseAmount) BaseAmount {
	return BaseAmount{amount: a.amount.Add(b.amount), decimals: a.decimals}
}

// Abs returns the absolute value.
func (a BaseAmount) Abs() BaseAmount {
	return BaseAmount{amount: a.amount.Abs(), decimals: a.decimals}
}

// IsPositive reports whether a > 0.
func (a BaseAmount) IsPositive() bool { return a.amount.IsPositive() }

// Equal compares value and decimals.
func (a BaseAmount) Equal(b BaseAmount) bool {
	return a.decimals == b.decimals && a.amount.Equal(b.amount)
}

// String returns the base-unit integer.
func (a BaseAmount) String() string { return a.amount.String() }

// Format returns the whole-unit value with exactly Decimals() places.
func (a BaseAmount) Format() string { return a.AssetAmount().StringFixed(a.decimals) }
