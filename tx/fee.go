package tx

import "math"

// Transaction size constants for fee estimation (bytes).
const (
	TxEmptySize        = 4 + 1 + 1 + 4 // version + input count + output count + locktime
	TxInputBase        = 32 + 4 + 1 + 4 // prev txid + vout + script length + sequence
	TxInputPubKeyHash  = 107            // P2PKH unlocking script (signature + pubkey)
	TxOutputBase       = 8 + 1          // value + script length
	TxOutputPubKeyHash = 25             // P2PKH locking script
)

// MinTxFee is the fee floor in the smallest unit. No estimate goes below it.
const MinTxFee uint64 = 1000

// inputBytes returns the estimated serialized size of an input spending u.
func inputBytes(u *UTXO) int {
	if len(u.ScriptPubKey) > 0 {
		return TxInputBase + len(u.ScriptPubKey)
	}
	return TxInputBase + TxInputPubKeyHash
}

// EstimateTxSize returns the estimated size in bytes of a transaction that
// spends inputs into one recipient output, one change output and, when memo
// is non-nil, one data output carrying the compiled memo script.
//
// The estimate is a close upper bound: the final signature length is not
// known before signing.
func EstimateTxSize(inputs []*UTXO, memo []byte) int {
	size := TxEmptySize
	for _, in := range inputs {
		size += inputBytes(in)
	}
	size += len(inputs) // signature length framing
	size += 2 * (TxOutputBase + TxOutputPubKeyHash)
	if memo != nil {
		size += TxOutputBase + len(memo)
	}
	return size
}

// EstimateFee returns the fee for spending inputs at the given rate. The
// result is rounded up and never less than MinTxFee, even with no inputs.
// A zero rate is replaced by DefaultFeeRate; an invalid rate yields MinTxFee.
func EstimateFee(inputs []*UTXO, memo []byte, rate FeeRate) uint64 {
	if rate.Validate() != nil {
		return MinTxFee
	}
	size := EstimateTxSize(inputs, memo)
	fee := math.Ceil(float64(size) * float64(rate.orDefault()))
	if fee >= math.MaxUint64 {
		return math.MaxUint64
	}
	if uint64(fee) < MinTxFee {
		return MinTxFee
	}
	return uint64(fee)
}

// CalcFee returns the fee quote for a transfer at rate with no known inputs.
// An empty memo means no data output.
func CalcFee(rate FeeRate, memo string) uint64 {
	var compiled []byte
	if memo != "" {
		s, err := CompileMemo(memo)
		if err != nil {
			return EstimateFee(nil, nil, rate)
		}
		compiled = s
	}
	return EstimateFee(nil, compiled, rate)
}
