package tx

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddrA = "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"

func testUTXO(txByte string, vout uint32, amount uint64, confirmed bool) *UTXO {
	return &UTXO{
		TxID:      strings.Repeat(txByte, 32),
		Vout:      vout,
		Amount:    amount,
		Confirmed: confirmed,
	}
}

// testPool is the wallet used by the transfer examples: two confirmed
// outputs (8800, 15073) and one large unconfirmed output (495777).
func testPool() []*UTXO {
	return []*UTXO{
		testUTXO("aa", 0, 8800, true),
		testUTXO("bb", 1, 495777, false),
		testUTXO("cc", 0, 15073, true),
	}
}

func checkBalanced(t *testing.T, sel *Selection, targets []SpendTarget) {
	t.Helper()
	want, ok := sumTargets(targets)
	require.True(t, ok)
	assert.Equal(t, sel.Total(), want+sel.Fee+sel.Change)
}

func TestSelectInputs_ConfirmedOnlyByDefault(t *testing.T) {
	targets := []SpendTarget{{Address: testAddrA, Amount: 2223}}

	sel, err := SelectInputs(testPool(), targets, 1, nil, SelectOptions{})
	require.NoError(t, err)
	for _, in := range sel.Inputs {
		assert.True(t, in.Confirmed)
	}
	checkBalanced(t, sel, targets)

	// Largest-first takes the 15073 output alone.
	require.Len(t, sel.Inputs, 1)
	assert.Equal(t, uint64(15073), sel.Inputs[0].Amount)
	assert.Equal(t, MinTxFee, sel.Fee)
	assert.Equal(t, uint64(15073-2223-1000), sel.Change)
}

func TestSelectInputs_UsesBothConfirmedOutputs(t *testing.T) {
	targets := []SpendTarget{{Address: testAddrA, Amount: 20000}}

	sel, err := SelectInputs(testPool(), targets, 1, nil, SelectOptions{})
	require.NoError(t, err)
	require.Len(t, sel.Inputs, 2)
	assert.Equal(t, uint64(23873), sel.Total())
	assert.Equal(t, EstimateFee(sel.Inputs, nil, 1), sel.Fee)
	assert.Equal(t, uint64(23873-20000)-sel.Fee, sel.Change)
	checkBalanced(t, sel, targets)
}

func TestSelectInputs_MemoForcesConfirmedOnly(t *testing.T) {
	memo, err := CompileMemo("SWAP:THOR.RUNE")
	require.NoError(t, err)
	targets := []SpendTarget{{Address: testAddrA, Amount: 25000}}

	_, err = SelectInputs(testPool(), targets, 1, memo, SelectOptions{SpendUnconfirmed: true})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Without the memo the unconfirmed output is eligible.
	sel, err := SelectInputs(testPool(), targets, 1, nil, SelectOptions{SpendUnconfirmed: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(495777), sel.Inputs[0].Amount)
	checkBalanced(t, sel, targets)
}

func TestSelectOptions_EffectiveConfirmedOnly(t *testing.T) {
	assert.True(t, SelectOptions{}.EffectiveConfirmedOnly(nil))
	assert.False(t, SelectOptions{SpendUnconfirmed: true}.EffectiveConfirmedOnly(nil))
	assert.True(t, SelectOptions{SpendUnconfirmed: true}.EffectiveConfirmedOnly([]byte{0x6a}))
}

func TestSelectInputs_InsufficientBelowMinimumFee(t *testing.T) {
	available := []*UTXO{testUTXO("aa", 0, 1500, true)}
	// 1500 < 600 + MinTxFee
	_, err := SelectInputs(available, []SpendTarget{{Address: testAddrA, Amount: 600}}, 1, nil, SelectOptions{})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestSelectInputs_NoUTXOs(t *testing.T) {
	targets := []SpendTarget{{Address: testAddrA, Amount: 1}}

	_, err := SelectInputs(nil, targets, 1, nil, SelectOptions{})
	assert.ErrorIs(t, err, ErrNoUTXOs)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	unconfirmed := []*UTXO{testUTXO("aa", 0, 50000, false)}
	_, err = SelectInputs(unconfirmed, targets, 1, nil, SelectOptions{})
	assert.ErrorIs(t, err, ErrNoUTXOs)
}

func TestSelectInputs_InvalidArguments(t *testing.T) {
	pool := testPool()

	_, err := SelectInputs(pool, nil, 1, nil, SelectOptions{})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = SelectInputs(pool, []SpendTarget{{Address: testAddrA}}, 1, nil, SelectOptions{})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = SelectInputs(pool, []SpendTarget{{Amount: 10}}, 1, nil, SelectOptions{})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = SelectInputs(pool, []SpendTarget{{Address: testAddrA, Amount: 10}}, -2, nil, SelectOptions{})
	assert.ErrorIs(t, err, ErrInvalidFeeRate)

	_, err = SelectInputs(pool, []SpendTarget{{Address: testAddrA, Amount: 10}}, 1, nil, SelectOptions{Order: Ordering(9)})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestSelectInputs_TargetTotalOverflow(t *testing.T) {
	pool := []*UTXO{testUTXO("aa", 0, 5000, true)}
	targets := []SpendTarget{
		{Address: testAddrA, Amount: math.MaxUint64},
		{Address: testChangeAddr, Amount: 2},
	}

	sel, err := SelectInputs(pool, targets, 1, nil, SelectOptions{})
	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.Nil(t, sel)
}

func TestSelectInputs_TargetPlusFeeOverflow(t *testing.T) {
	pool := []*UTXO{testUTXO("aa", 0, 5000, true)}
	targets := []SpendTarget{{Address: testAddrA, Amount: math.MaxUint64 - 500}}

	_, err := SelectInputs(pool, targets, 1, nil, SelectOptions{})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestSelectInputs_CandidateTotalOverflow(t *testing.T) {
	pool := []*UTXO{
		testUTXO("aa", 0, 1<<63, true),
		testUTXO("bb", 0, 1<<63, true),
	}
	targets := []SpendTarget{{Address: testAddrA, Amount: math.MaxUint64 - 5000}}

	_, err := SelectInputs(pool, targets, 1, nil, SelectOptions{})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestSelectInputs_Orderings(t *testing.T) {
	targets := []SpendTarget{{Address: testAddrA, Amount: 2223}}

	tests := []struct {
		name  string
		order Ordering
		want  uint64
	}{
		{"largest first", OrderLargestFirst, 15073},
		{"smallest first", OrderSmallestFirst, 8800},
		{"as given", OrderAsGiven, 8800},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := SelectInputs(testPool(), targets, 1, nil, SelectOptions{Order: tt.order})
			require.NoError(t, err)
			require.Len(t, sel.Inputs, 1)
			assert.Equal(t, tt.want, sel.Inputs[0].Amount)
			checkBalanced(t, sel, targets)
		})
	}
}

func TestSelectInputs_AsGivenKeepsSourceOrder(t *testing.T) {
	pool := []*UTXO{
		testUTXO("cc", 0, 15073, true),
		testUTXO("aa", 0, 8800, true),
	}
	sel, err := SelectInputs(pool, []SpendTarget{{Address: testAddrA, Amount: 2223}}, 1, nil,
		SelectOptions{Order: OrderAsGiven})
	require.NoError(t, err)
	assert.Equal(t, uint64(15073), sel.Inputs[0].Amount)
}

func TestSelectInputs_Deterministic(t *testing.T) {
	a := testUTXO("aa", 0, 5000, true)
	b := testUTXO("bb", 0, 5000, true)
	c := testUTXO("aa", 1, 5000, true)
	targets := []SpendTarget{{Address: testAddrA, Amount: 3000}}

	first, err := SelectInputs([]*UTXO{a, b, c}, targets, 2, nil, SelectOptions{})
	require.NoError(t, err)
	second, err := SelectInputs([]*UTXO{c, b, a}, targets, 2, nil, SelectOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	// Equal amounts fall back to outpoint order.
	assert.Equal(t, a.Outpoint(), first.Inputs[0].Outpoint())
}

func TestSelectInputs_DoesNotMutateInput(t *testing.T) {
	pool := testPool()
	before := make([]*UTXO, len(pool))
	copy(before, pool)

	_, err := SelectInputs(pool, []SpendTarget{{Address: testAddrA, Amount: 20000}}, 1, nil, SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, before, pool)
}

func TestSelectInputs_AccumulatesUntilSufficient(t *testing.T) {
	var pool []*UTXO
	for i := 0; i < 10; i++ {
		pool = append(pool, testUTXO("dd", uint32(i), 1000, true))
	}
	targets := []SpendTarget{{Address: testAddrA, Amount: 4000}}

	sel, err := SelectInputs(pool, targets, 1, nil, SelectOptions{})
	require.NoError(t, err)
	// 5 inputs: 5000 >= 4000 + 1000, fee stays at the floor.
	assert.Len(t, sel.Inputs, 5)
	assert.Equal(t, MinTxFee, sel.Fee)
	assert.Zero(t, sel.Change)
	checkBalanced(t, sel, targets)
}

func TestSelectInputs_FeeGrowsWithInputs(t *testing.T) {
	var pool []*UTXO
	for i := 0; i < 10; i++ {
		pool = append(pool, testUTXO("ee", uint32(i), 10000, true))
	}
	targets := []SpendTarget{{Address: testAddrA, Amount: 25000}}

	sel, err := SelectInputs(pool, targets, 10, nil, SelectOptions{})
	require.NoError(t, err)
	// 3 inputs: 10 + 3*148 + 3 + 68 = 525 bytes -> 5250 fee, 30000 >= 30250 fails.
	// 4 inputs: 674 bytes -> 6740 fee.
	assert.Len(t, sel.Inputs, 4)
	assert.Equal(t, uint64(6740), sel.Fee)
	assert.Equal(t, uint64(40000-25000-6740), sel.Change)
}

func TestSelectInputs_MultipleTargets(t *testing.T) {
	targets := []SpendTarget{
		{Address: testAddrA, Amount: 5000},
		{Address: "1BoatSLRHtKNngkdXEeobR76b53LETtpyT", Amount: 6000},
	}
	sel, err := SelectInputs(testPool(), targets, 1, nil, SelectOptions{})
	require.NoError(t, err)
	checkBalanced(t, sel, targets)
}

func TestSelectInputs_DustThreshold(t *testing.T) {
	pool := []*UTXO{testUTXO("cc", 0, 15073, true)}
	targets := []SpendTarget{{Address: testAddrA, Amount: 14000}}

	sel, err := SelectInputs(pool, targets, 1, nil, SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint64(73), sel.Change, "dust change is kept by default")

	sel, err = SelectInputs(pool, targets, 1, nil, SelectOptions{DustThreshold: 546})
	require.NoError(t, err)
	assert.Zero(t, sel.Change)
	assert.Equal(t, uint64(1073), sel.Fee)
	checkBalanced(t, sel, targets)
}

func TestSelectInputs_SkipsZeroValueAndNil(t *testing.T) {
	pool := []*UTXO{nil, testUTXO("aa", 0, 0, true), testUTXO("bb", 0, 9000, true)}
	sel, err := SelectInputs(pool, []SpendTarget{{Address: testAddrA, Amount: 100}}, 1, nil, SelectOptions{})
	require.NoError(t, err)
	require.Len(t, sel.Inputs, 1)
	assert.Equal(t, uint64(9000), sel.Inputs[0].Amount)
}

func TestParseOrdering(t *testing.T) {
	for _, o := range []Ordering{OrderLargestFirst, OrderSmallestFirst, OrderAsGiven} {
		got, err := ParseOrdering(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}
	got, err := ParseOrdering("")
	require.NoError(t, err)
	assert.Equal(t, OrderLargestFirst, got)

	_, err = ParseOrdering("random")
	assert.ErrorIs(t, err, ErrInvalidParams)
}
