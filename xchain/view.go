package xchain

import (
	"fmt"
	"strings"
	"time"
)

// ChainTransactionView is a chain-native transaction as reported by an API,
// tagged by model. Exactly one variant is set.
type ChainTransactionView struct {
	UTXO    *UTXOTxView
	Account *AccountTxView
	Rosetta *RosettaTxView
}

// UTXOTxView is a UTXO-model transaction: value moves from inputs to outputs.
type UTXOTxView struct {
	Hash    string
	Time    time.Time
	Inputs  []UTXOViewIO
	Outputs []UTXOViewIO
}

// UTXOViewIO is one input or output. Type is the script class of outputs.
type UTXOViewIO struct {
	Address string
	Value   uint64
	Type    string
}

// nullDataType is the script class of zero-value data outputs.
const nullDataType = "nulldata"

// AccountTxView is a Cosmos-SDK account-model transaction.
type AccountTxView struct {
	Hash string
	Time time.Time
	Msgs []AccountMsg
}

// AccountMsg is one bank message; exactly one field is set. Messages of
// other modules leave both nil and are ignored.
type AccountMsg struct {
	Send      *MsgSend
	MultiSend *MsgMultiSend
}

// Coin is an amount of one denomination, in base units.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// MsgSend is cosmos.bank.v1beta1.MsgSend.
type MsgSend struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      []Coin `json:"amount"`
}

// BankIO is one side of a MsgMultiSend.
type BankIO struct {
	Address string `json:"address"`
	Coins   []Coin `json:"coins"`
}

// MsgMultiSend is cosmos.bank.v1beta1.MsgMultiSend.
type MsgMultiSend struct {
	Inputs  []BankIO `json:"inputs"`
	Outputs []BankIO `json:"outputs"`
}

// RosettaTxView is a transaction expressed as Rosetta operations.
type RosettaTxView struct {
	Hash       string
	Time       time.Time
	Operations []RosettaOp
}

// RosettaOp is one balance-changing operation. Value is a signed base-unit
// integer string.
type RosettaOp struct {
	Type    string
	Address string
	Value   string
}

// Rosetta operation types.
const (
	OpInput    = "input"
	OpOutput   = "output"
	OpTransfer = "transfer"
)

// ToTx maps the view into the common shape, denominating amounts with
// decimals.
func (v ChainTransactionView) ToTx(asset Asset, decimals int32) (*Tx, error) {
	n := 0
	for _, set := range []bool{v.UTXO != nil, v.Account != nil, v.Rosetta != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return nil, fmt.Errorf("%w: %d variants set", ErrInvalidView, n)
	}
	switch {
	case v.UTXO != nil:
		return utxoToTx(v.UTXO, asset, decimals), nil
	case v.Account != nil:
		return accountToTx(v.Account, asset, decimals)
	default:
		return rosettaToTx(v.Rosetta, asset, decimals)
	}
}

// utxoToTx lists every input as a sender and every output except data
// carriers as a recipient.
func utxoToTx(v *UTXOTxView, asset Asset, decimals int32) *Tx {
	t := &Tx{Asset: asset, Date: v.Time, Type: TxTransfer, Hash: v.Hash}
	for _, in := range v.Inputs {
		t.From = append(t.From, TxFrom{From: in.Address, Amount: NewBaseAmount(in.Value, decimals)})
	}
	for _, out := range v.Outputs {
		if out.Type == nullDataType {
			continue
		}
		t.To = append(t.To, TxTo{To: out.Address, Amount: NewBaseAmount(out.Value, decimals)})
	}
	return t
}

// sideAccumulator sums amounts per address, keeping first-seen order.
type sideAccumulator struct {
	order []string
	sums  map[string]BaseAmount
}

func newSideAccumulator() *sideAccumulator {
	return &sideAccumulator{sums: make(map[string]BaseAmount)}
}

func (s *sideAccumulator) add(address string, amt BaseAmount) {
	cur, ok := s.sums[address]
	if !ok {
		s.order = append(s.order, address)
		s.sums[address] = amt
		return
	}
	s.sums[address] = cur.Add(amt)
}

func sumCoins(coins []Coin, decimals int32) (BaseAmount, error) {
	total := NewBaseAmount(0, decimals)
	for _, c := range coins {
		if c.Amount == "" {
			continue
		}
		a, err := ParseBaseAmount(c.Amount, decimals)
		if err != nil {
			return BaseAmount{}, err
		}
		total = total.Add(a)
	}
	return total, nil
}

// accountToTx aggregates bank messages per address. A transaction with no
// bank message is typed unknown.
func accountToTx(v *AccountTxView, asset Asset, decimals int32) (*Tx, error) {
	from, to := newSideAccumulator(), newSideAccumulator()
	for _, m := range v.Msgs {
		switch {
		case m.Send != nil:
			amt, err := sumCoins(m.Send.Amount, decimals)
			if err != nil {
				return nil, err
			}
			from.add(m.Send.FromAddress, amt)
			to.add(m.Send.ToAddress, amt)
		case m.MultiSend != nil:
			for _, in := range m.MultiSend.Inputs {
				amt, err := sumCoins(in.Coins, decimals)
				if err != nil {
					return nil, err
				}
				if in.Address != "" {
					from.add(in.Address, amt)
				}
			}
			for _, out := range m.MultiSend.Outputs {
				amt, err := sumCoins(out.Coins, decimals)
				if err != nil {
					return nil, err
				}
				if out.Address != "" {
					to.add(out.Address, amt)
				}
			}
		}
	}

	t := &Tx{Asset: asset, Date: v.Time, Type: TxUnknown, Hash: v.Hash}
	for _, a := range from.order {
		t.From = append(t.From, TxFrom{From: a, Amount: from.sums[a]})
	}
	for _, a := range to.order {
		t.To = append(t.To, TxTo{To: a, Amount: to.sums[a]})
	}
	if len(t.From) > 0 || len(t.To) > 0 {
		t.Type = TxTransfer
	}
	return t, nil
}

// rosettaToTx maps input operations to senders and output operations to
// recipients. Generic transfer operations are split by sign. Amounts are
// reported as absolute values.
func rosettaToTx(v *RosettaTxView, asset Asset, decimals int32) (*Tx, error) {
	t := &Tx{Asset: asset, Date: v.Time, Type: TxTransfer, Hash: v.Hash}
	for _, op := range v.Operations {
		typ := strings.ToLower(op.Type)
		if typ != OpInput && typ != OpOutput && typ != OpTransfer {
			continue
		}
		amt, err := ParseBaseAmount(op.Value, decimals)
		if err != nil {
			return nil, err
		}
		if typ == OpTransfer {
			typ = OpOutput
			if amt.Amount().IsNegative() {
				typ = OpInput
			}
		}
		if typ == OpInput {
			t.From = append(t.From, TxFrom{From: op.Address, Amount: amt.Abs()})
		} else {
			t.To = append(t.To, TxTo{To: op.Address, Amount: amt.Abs()})
		}
	}
	return t, nil
}
