// Package xchain defines the chain-agnostic shapes shared by every wallet
// client: assets, amounts, balances, transactions, fees and the Client
// interface itself.
package xchain

import (
	"time"

	"github.com/bitfsorg/xchain-go/tx"
	"github.com/bitfsorg/xchain-go/wallet"
)

// Network selects mainnet, testnet or stagenet.
type Network = wallet.Network

// Asset identifies a coin or token on a chain.
type Asset struct {
	Chain  string `json:"chain"`
	Symbol string `json:"symbol"`
	Ticker string `json:"ticker"`
}

// String returns "CHAIN.SYMBOL".
func (a Asset) String() string { return a.Chain + "." + a.Symbol }

// Balance is the holding of one asset.
type Balance struct {
	Asset  Asset
	Amount BaseAmount
}

// TxType classifies a transaction.
type TxType string

const (
	TxTransfer TxType = "transfer"
	TxUnknown  TxType = "unknown"
)

// TxFrom is a sending side of a transaction.
type TxFrom struct {
	From   string
	Amount BaseAmount
}

// TxTo is a receiving side of a transaction.
type TxTo struct {
	To     string
	Amount BaseAmount
}

// Tx is the common transaction shape every chain maps into.
type Tx struct {
	Asset Asset
	From  []TxFrom
	To    []TxTo
	Date  time.Time
	Type  TxType
	Hash  string
}

// TxPage is one page of an address history.
type TxPage struct {
	Total int
	Txs   []*Tx
}

// TxHistoryParams selects a page of history.
type TxHistoryParams struct {
	Address string
	Offset  int
	Limit   int // 0 means DefaultHistoryLimit
}

// DefaultHistoryLimit is the page size used when Limit is zero.
const DefaultHistoryLimit = 10

// PageLimit returns Limit or DefaultHistoryLimit.
func (p TxHistoryParams) PageLimit() int {
	if p.Limit <= 0 {
		return DefaultHistoryLimit
	}
	return p.Limit
}

// TransferParams describes one outgoing transfer.
type TransferParams struct {
	WalletIndex uint32     // address index of the sender under the wallet account
	Asset       *Asset     // nil selects the chain's native asset
	Amount      BaseAmount // base units, must be positive
	Recipient   string
	Memo        string
	FeeRate     tx.FeeRate // 0 selects the fast tier
}

// FeeOption names a fee tier.
type FeeOption string

const (
	FeeAverage FeeOption = "average"
	FeeFast    FeeOption = "fast"
	FeeFastest FeeOption = "fastest"
)

// FeeType tells whether fees scale with size ("byte") or are flat ("base").
type FeeType string

const (
	FeeTypeByte FeeType = "byte"
	FeeTypeBase FeeType = "base"
)

// Fees quotes a total fee per tier.
type Fees struct {
	Type    FeeType
	Average BaseAmount
	Fast    BaseAmount
	Fastest BaseAmount
}

// Get returns the quote of tier o.
func (f Fees) Get(o FeeOption) BaseAmount {
	switch o {
	case FeeAverage:
		return f.Average
	case FeeFastest:
		return f.Fastest
	default:
		return f.Fast
	}
}

// FeeRates quotes a per-byte rate per tier.
type FeeRates struct {
	Average tx.FeeRate
	Fast    tx.FeeRate
	Fastest tx.FeeRate
}

// Get returns the rate of tier o.
func (r FeeRates) Get(o FeeOption) tx.FeeRate {
	switch o {
	case FeeAverage:
		return r.Average
	case FeeFastest:
		return r.Fastest
	default:
		return r.Fast
	}
}

// StandardFeeRates derives the three tiers from a network rate:
// average is half of it, fastest two and a half times.
func StandardFeeRates(rate tx.FeeRate) FeeRates {
	return FeeRates{
		Average: rate / 2,
		Fast:    rate,
		Fastest: rate * 5 / 2,
	}
}

// DefaultFeeRate is the fast-tier rate used when no estimate is available.
const DefaultFeeRate tx.FeeRate = 20

// FeesWithRates pairs per-tier rates with their fee quotes.
type FeesWithRates struct {
	Rates FeeRates
	Fees  Fees
}
