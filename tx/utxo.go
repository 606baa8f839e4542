package tx

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/bits"
)

// UTXO represents an unspent transaction output reported by an indexer or node.
// A UTXO is treated as immutable once observed.
type UTXO struct {
	TxID         string `json:"txid"`          // display hex, 64 chars
	Vout         uint32 `json:"vout"`
	Amount       uint64 `json:"amount"`        // smallest unit
	ScriptPubKey []byte `json:"script_pubkey"` // locking script bytes, may be empty
	Confirmed    bool   `json:"confirmed"`
	Address      string `json:"address,omitempty"`
}

// Outpoint returns the "txid:vout" identifier of the output.
func (u *UTXO) Outpoint() string {
	return fmt.Sprintf("%s:%d", u.TxID, u.Vout)
}

// SpendTarget is a payment to a destination address.
type SpendTarget struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// FeeRate is a price per transaction byte in the chain's smallest unit.
type FeeRate float64

// DefaultFeeRate is used when a caller supplies a zero fee rate.
const DefaultFeeRate FeeRate = 1

// Validate reports whether the rate can be used for fee estimation.
func (r FeeRate) Validate() error {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFeeRate, f)
	}
	return nil
}

// orDefault returns the rate, or DefaultFeeRate when the rate is zero.
func (r FeeRate) orDefault() FeeRate {
	if r == 0 {
		return DefaultFeeRate
	}
	return r
}

// Output is one transaction output. Exactly one of Address and Script is set:
// Address for payments resolved to a locking script by the chain codec,
// Script for data outputs such as a memo.
type Output struct {
	Address string `json:"address,omitempty"`
	Script  []byte `json:"script,omitempty"`
	Amount  uint64 `json:"amount"`
}

// IsData reports whether the output carries a raw script instead of an address.
func (o *Output) IsData() bool {
	return len(o.Script) > 0
}

func (o *Output) validate() error {
	hasAddr := o.Address != ""
	hasScript := len(o.Script) > 0
	if hasAddr == hasScript {
		return ErrInvalidOutput
	}
	return nil
}

// UnsignedTx is an assembled but unsigned transaction.
type UnsignedTx struct {
	Inputs  []*UTXO   `json:"inputs"`
	Outputs []*Output `json:"outputs"`
	Fee     uint64    `json:"fee"`
}

// InputTotal returns the sum of input values, saturating at math.MaxUint64.
func (u *UnsignedTx) InputTotal() uint64 {
	total, _ := sumUTXOs(u.Inputs)
	return total
}

// OutputTotal returns the sum of output values, saturating at math.MaxUint64.
func (u *UnsignedTx) OutputTotal() uint64 {
	total, _ := sumOutputs(u.Outputs)
	return total
}

// Validate checks the structural invariants of the transaction:
// at least one input and output, well-formed outputs, and
// sum(inputs) == sum(outputs) + fee.
func (u *UnsignedTx) Validate() error {
	if u == nil {
		return fmt.Errorf("%w: unsigned tx", ErrNilParam)
	}
	if len(u.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ErrInvalidParams)
	}
	if len(u.Outputs) == 0 {
		return fmt.Errorf("%w: no outputs", ErrInvalidParams)
	}
	for i, in := range u.Inputs {
		if in == nil {
			return fmt.Errorf("%w: input[%d]", ErrNilParam, i)
		}
	}
	for i, o := range u.Outputs {
		if o == nil {
			return fmt.Errorf("%w: output[%d]", ErrNilParam, i)
		}
		if err := o.validate(); err != nil {
			return fmt.Errorf("output[%d]: %w", i, err)
		}
	}
	in, ok := sumUTXOs(u.Inputs)
	if !ok {
		return fmt.Errorf("%w: input total overflows", ErrUnbalancedTx)
	}
	out, ok := sumOutputs(u.Outputs)
	if !ok {
		return fmt.Errorf("%w: output total overflows", ErrUnbalancedTx)
	}
	spent, ok := addAmounts(out, u.Fee)
	if !ok || in != spent {
		return fmt.Errorf("%w: inputs %d, outputs %d, fee %d", ErrUnbalancedTx, in, out, u.Fee)
	}
	return nil
}

// SignedTx is a finalized transaction ready for broadcast.
type SignedTx struct {
	Unsigned         *UnsignedTx
	Raw              []byte   // chain-specific serialization
	TxID             string   // display hex
	UnlockingScripts [][]byte // one per input, same order as Unsigned.Inputs
}

// Hex returns the hex encoding of the raw transaction.
func (s *SignedTx) Hex() string {
	return hex.EncodeToString(s.Raw)
}

// addAmounts returns a+b, or math.MaxUint64 and false when the sum overflows.
func addAmounts(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64, false
	}
	return sum, true
}

func sumUTXOs(utxos []*UTXO) (uint64, bool) {
	var total uint64
	for _, u := range utxos {
		var ok bool
		if total, ok = addAmounts(total, u.Amount); !ok {
			return total, false
		}
	}
	return total, true
}

func sumOutputs(outputs []*Output) (uint64, bool) {
	var total uint64
	for _, o := range outputs {
		var ok bool
		if total, ok = addAmounts(total, o.Amount); !ok {
			return total, false
		}
	}
	return total, true
}

func sumTargets(targets []SpendTarget) (uint64, bool) {
	var total uint64
	for _, t := range targets {
		var ok bool
		if total, ok = addAmounts(total, t.Amount); !ok {
			return total, false
		}
	}
	return total, true
}
