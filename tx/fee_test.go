package tx

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFeeUTXO(amount uint64) *UTXO {
	return &UTXO{
		TxID:      strings.Repeat("01", 32),
		Amount:    amount,
		Confirmed: true,
	}
}

func TestEstimateTxSize_Empty(t *testing.T) {
	// 10 overhead + 2 * (9 + 25) outputs
	assert.Equal(t, 78, EstimateTxSize(nil, nil))
}

func TestEstimateTxSize_DefaultInputScript(t *testing.T) {
	// 78 + 41 + 107 + 1 framing byte
	assert.Equal(t, 227, EstimateTxSize([]*UTXO{testFeeUTXO(1)}, nil))
}

func TestEstimateTxSize_ExplicitInputScript(t *testing.T) {
	u := testFeeUTXO(1)
	u.ScriptPubKey = make([]byte, 25)
	assert.Equal(t, 78+41+25+1, EstimateTxSize([]*UTXO{u}, nil))
}

func TestEstimateTxSize_Memo(t *testing.T) {
	memo := make([]byte, 16)
	assert.Equal(t, 78+9+16, EstimateTxSize(nil, memo))
}

func TestEstimateFee_EmptyInputsReturnsMinimum(t *testing.T) {
	assert.Equal(t, MinTxFee, EstimateFee(nil, nil, 1))
	assert.Equal(t, MinTxFee, EstimateFee([]*UTXO{}, nil, 1))
}

func TestEstimateFee_ScalesWithRate(t *testing.T) {
	inputs := []*UTXO{testFeeUTXO(1)}
	assert.Equal(t, uint64(2270), EstimateFee(inputs, nil, 10))
	assert.Equal(t, uint64(11350), EstimateFee(inputs, nil, 50))
}

func TestEstimateFee_RoundsUp(t *testing.T) {
	inputs := []*UTXO{testFeeUTXO(1), testFeeUTXO(2), testFeeUTXO(3), testFeeUTXO(4), testFeeUTXO(5)}
	// 10 + 5*148 + 5 + 68 = 823 bytes
	require.Equal(t, 823, EstimateTxSize(inputs, nil))
	assert.Equal(t, uint64(1235), EstimateFee(inputs, nil, 1.5)) // 1234.5
}

func TestEstimateFee_ZeroRateUsesDefault(t *testing.T) {
	inputs := make([]*UTXO, 10)
	for i := range inputs {
		inputs[i] = testFeeUTXO(1)
	}
	assert.Equal(t, EstimateFee(inputs, nil, DefaultFeeRate), EstimateFee(inputs, nil, 0))
}

func TestEstimateFee_InvalidRate(t *testing.T) {
	assert.Equal(t, MinTxFee, EstimateFee(nil, nil, -1))
	assert.Equal(t, MinTxFee, EstimateFee(nil, nil, FeeRate(math.NaN())))
}

func TestEstimateFee_MonotonicInInputs(t *testing.T) {
	var inputs []*UTXO
	prev := EstimateFee(inputs, nil, 5)
	for i := 0; i < 50; i++ {
		inputs = append(inputs, testFeeUTXO(uint64(i+1)))
		fee := EstimateFee(inputs, nil, 5)
		assert.GreaterOrEqual(t, fee, prev, "inputs=%d", len(inputs))
		prev = fee
	}
}

func TestEstimateFee_MonotonicInMemoLength(t *testing.T) {
	inputs := []*UTXO{testFeeUTXO(1), testFeeUTXO(2), testFeeUTXO(3)}
	prev := EstimateFee(inputs, nil, 5)
	for n := 0; n <= 200; n += 10 {
		fee := EstimateFee(inputs, make([]byte, n), 5)
		assert.GreaterOrEqual(t, fee, prev, "memo=%d", n)
		prev = fee
	}
}

func TestEstimateFee_NeverBelowMinimum(t *testing.T) {
	for _, rate := range []FeeRate{0.001, 0.5, 1, 2} {
		for n := 0; n < 4; n++ {
			inputs := make([]*UTXO, n)
			for i := range inputs {
				inputs[i] = testFeeUTXO(1)
			}
			assert.GreaterOrEqual(t, EstimateFee(inputs, nil, rate), MinTxFee)
		}
	}
}

func TestCalcFee(t *testing.T) {
	assert.Equal(t, MinTxFee, CalcFee(10, "")) // 780 is below the floor
	assert.Equal(t, uint64(1560), CalcFee(20, ""))

	memo, err := CompileMemo("SWAP:THOR.RUNE")
	require.NoError(t, err)
	// 78 + 9 + 16 = 103 bytes
	assert.Equal(t, uint64(2060), CalcFee(20, "SWAP:THOR.RUNE"))
	assert.Equal(t, EstimateFee(nil, memo, 20), CalcFee(20, "SWAP:THOR.RUNE"))
	assert.Greater(t, CalcFee(20, "SWAP:THOR.RUNE"), CalcFee(20, ""))
}

func TestFeeRate_Validate(t *testing.T) {
	assert.NoError(t, FeeRate(0).Validate())
	assert.NoError(t, FeeRate(12.5).Validate())
	assert.ErrorIs(t, FeeRate(-0.1).Validate(), ErrInvalidFeeRate)
	assert.ErrorIs(t, FeeRate(math.Inf(1)).Validate(), ErrInvalidFeeRate)
}
