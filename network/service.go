// Package network holds the chain API collaborators used by UTXO clients:
// a JSON-RPC node client and an Insight-style REST indexer client.
package network

import (
	"context"

	"github.com/bitfsorg/xchain-go/tx"
)

// UTXOSource lists spendable outputs of an address.
type UTXOSource interface {
	// ListUnspent returns the unspent outputs of address. When
	// confirmedOnly is set, outputs without a confirmation are omitted.
	ListUnspent(ctx context.Context, address string, confirmedOnly bool) ([]*tx.UTXO, error)
}

// Broadcaster submits signed transactions.
type Broadcaster interface {
	// BroadcastTx submits a raw transaction hex and returns its txid.
	// A rejection by the remote end is reported as ErrBroadcastRejected
	// carrying the remote message verbatim.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)
}

// FeeEstimator reports the current network fee rate.
type FeeEstimator interface {
	EstimateFeeRate(ctx context.Context) (tx.FeeRate, error)
}

// UTXOService is the full collaborator surface of a UTXO chain client.
type UTXOService interface {
	UTXOSource
	Broadcaster
	FeeEstimator

	// GetBalance returns the total unspent value of address in the
	// smallest unit, confirmed and unconfirmed.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// AddressTxs returns one page of the transaction history of address,
	// newest first.
	AddressTxs(ctx context.Context, address string, offset, limit int) (*TxList, error)

	// GetTx returns the decoded transaction txID.
	GetTx(ctx context.Context, txID string) (*RawTx, error)
}

// TxIO is one input or output of a decoded transaction.
type TxIO struct {
	Address string `json:"address"`
	Value   uint64 `json:"value"`
	Type    string `json:"type,omitempty"` // script class, e.g. "pubkeyhash", "nulldata"
}

// NullDataType is the script class of OP_RETURN outputs.
const NullDataType = "nulldata"

// RawTx is a decoded transaction as reported by a node or indexer.
type RawTx struct {
	TxID          string `json:"txid"`
	BlockHash     string `json:"block_hash,omitempty"`
	BlockHeight   int64  `json:"block_height,omitempty"`
	Time          int64  `json:"time"` // unix seconds, 0 when unconfirmed
	Confirmations int64  `json:"confirmations"`
	Inputs        []TxIO `json:"inputs"`
	Outputs       []TxIO `json:"outputs"`
}

// TxList is one page of an address history.
type TxList struct {
	Total int      `json:"total"`
	Txs   []*RawTx `json:"txs"`
}
