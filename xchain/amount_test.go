package xchain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseAmount(t *testing.T) {
	a := NewBaseAmount(150000000, 8)
	assert.Equal(t, "150000000", a.String())
	assert.Equal(t, "1.50000000", a.Format())
	assert.True(t, a.AssetAmount().Equal(decimal.RequireFromString("1.5")))

	v, ok := a.Uint64()
	require.True(t, ok)
	assert.Equal(t, uint64(150000000), v)

	sum := a.Add(NewBaseAmount(50000000, 8))
	assert.Equal(t, "200000000", sum.String())
}

func TestParseBaseAmount(t *testing.T) {
	// 10^21 wei does not fit in uint64.
	big, err := ParseBaseAmount("1000000000000000000000", 18)
	require.NoError(t, err)
	assert.Equal(t, "1000.000000000000000000", big.Format())
	_, ok := big.Uint64()
	assert.False(t, ok)

	neg, err := ParseBaseAmount("-250", 6)
	require.NoError(t, err)
	assert.False(t, neg.IsPositive())
	assert.Equal(t, "250", neg.Abs().String())

	_, err = ParseBaseAmount("1.5", 6)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseBaseAmount("abc", 6)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAssetToBase(t *testing.T) {
	a := AssetToBase(decimal.RequireFromString("0.000123456"), 8)
	assert.Equal(t, "12345", a.String(), "precision beyond decimals is truncated")
	assert.True(t, a.Equal(NewBaseAmount(12345, 8)))
	assert.False(t, a.Equal(NewBaseAmount(12345, 6)))
}

func TestStandardFeeRates(t *testing.T) {
	r := StandardFeeRates(DefaultFeeRate)
	assert.InDelta(t, 10.0, float64(r.Average), 1e-9)
	assert.InDelta(t, 20.0, float64(r.Fast), 1e-9)
	assert.InDelta(t, 50.0, float64(r.Fastest), 1e-9)
	assert.Equal(t, r.Fastest, r.Get(FeeFastest))
	assert.Equal(t, r.Fast, r.Get(FeeOption("bogus")))
}

func TestTxHistoryParams_PageLimit(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, TxHistoryParams{}.PageLimit())
	assert.Equal(t, 3, TxHistoryParams{Limit: 3}.PageLimit())
}
