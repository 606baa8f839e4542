package network

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/bitfsorg/xchain-go/tx"
)

var _ UTXOService = (*RPCClient)(nil)

// feeConfTarget is the confirmation target, in blocks, passed to estimatesmartfee.
const feeConfTarget = 6

// btcToSat converts a coin-denominated float64 amount (as returned by the
// node) to the smallest unit. It rounds to avoid float truncation.
func btcToSat(btc float64) uint64 {
	return uint64(math.Round(btc * 1e8))
}

// listUnspentResult maps the JSON fields returned by listunspent.
type listUnspentResult struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Amount        float64 `json:"amount"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Address       string  `json:"address"`
	Confirmations int64   `json:"confirmations"`
}

// ListUnspent calls `listunspent minconf 9999999 ["address"]`, with minconf
// 1 when confirmedOnly is set and 0 otherwise.
func (c *RPCClient) ListUnspent(ctx context.Context, address string, confirmedOnly bool) ([]*tx.UTXO, error) {
	minConf := 0
	if confirmedOnly {
		minConf = 1
	}
	params := []interface{}{minConf, 9999999, []string{address}}
	var results []listUnspentResult
	if err := c.Call(ctx, "listunspent", params, &results); err != nil {
		return nil, err
	}

	utxos := make([]*tx.UTXO, 0, len(results))
	for _, r := range results {
		script, err := hex.DecodeString(r.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("%w: utxo %s:%d script: %v", ErrInvalidResponse, r.TxID, r.Vout, err)
		}
		addr := r.Address
		if addr == "" {
			addr = address
		}
		utxos = append(utxos, &tx.UTXO{
			TxID:         r.TxID,
			Vout:         r.Vout,
			Amount:       btcToSat(r.Amount),
			ScriptPubKey: script,
			Confirmed:    r.Confirmations > 0,
			Address:      addr,
		})
	}
	log.Debugf("listunspent %s: %d outputs (confirmedOnly=%v)", address, len(utxos), confirmedOnly)
	return utxos, nil
}

// BroadcastTx calls `sendrawtransaction "hex"`. RPC errors are wrapped with
// ErrBroadcastRejected and keep the node's message.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	params := []interface{}{rawTxHex}
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", params, &txid); err != nil {
		var rerr *rpcError
		if errors.As(err, &rerr) {
			return "", fmt.Errorf("%w: %s", ErrBroadcastRejected, rerr.Message)
		}
		return "", err
	}
	return txid, nil
}

// smartFeeResult maps the JSON fields returned by estimatesmartfee.
type smartFeeResult struct {
	FeeRate float64  `json:"feerate"` // coin per kB
	Errors  []string `json:"errors"`
}

// EstimateFeeRate calls `estimatesmartfee 6` and converts the coin/kB
// answer to smallest-unit per byte. Nodes without estimatesmartfee are
// retried with the legacy `estimatefee`.
func (c *RPCClient) EstimateFeeRate(ctx context.Context) (tx.FeeRate, error) {
	var perKB float64

	var smart smartFeeResult
	err := c.Call(ctx, "estimatesmartfee", []interface{}{feeConfTarget}, &smart)
	var rerr *rpcError
	switch {
	case err == nil:
		if len(smart.Errors) > 0 && smart.FeeRate <= 0 {
			return 0, fmt.Errorf("%w: %s", ErrFeeUnavailable, smart.Errors[0])
		}
		perKB = smart.FeeRate
	case errors.As(err, &rerr):
		// Method not found: fall back to the legacy call.
		if err := c.Call(ctx, "estimatefee", nil, &perKB); err != nil {
			return 0, err
		}
	default:
		return 0, err
	}

	if perKB <= 0 {
		return 0, fmt.Errorf("%w: node returned %v", ErrFeeUnavailable, perKB)
	}
	rate := tx.FeeRate(perKB * 1e8 / 1000)
	if err := rate.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return rate, nil
}

// GetBalance sums the value of every unspent output of address, including
// unconfirmed ones.
func (c *RPCClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	utxos, err := c.ListUnspent(ctx, address, false)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, u := range utxos {
		total += u.Amount
	}
	return total, nil
}

// verboseScriptPubKey is the scriptPubKey object of a verbose vout.
type verboseScriptPubKey struct {
	Hex       string   `json:"hex"`
	Type      string   `json:"type"`
	Address   string   `json:"address"`
	Addresses []string `json:"addresses"`
}

func (s verboseScriptPubKey) firstAddress() string {
	if s.Address != "" {
		return s.Address
	}
	if len(s.Addresses) > 0 {
		return s.Addresses[0]
	}
	return ""
}

// verboseVin is one input of a verbose transaction. PrevOut is only
// populated by searchrawtransactions with vinextra set.
type verboseVin struct {
	Coinbase string `json:"coinbase"`
	TxID     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	PrevOut  *struct {
		Addresses []string `json:"addresses"`
		Value     float64  `json:"value"`
	} `json:"prevOut"`
}

// verboseVout is one output of a verbose transaction.
type verboseVout struct {
	Value        float64             `json:"value"`
	N            uint32              `json:"n"`
	ScriptPubKey verboseScriptPubKey `json:"scriptPubKey"`
}

// verboseTxResult maps the JSON fields from getrawtransaction with verbose=true.
type verboseTxResult struct {
	TxID          string        `json:"txid"`
	Confirmations int64         `json:"confirmations"`
	BlockHash     string        `json:"blockhash"`
	BlockHeight   int64         `json:"blockheight"`
	Time          int64         `json:"time"`
	BlockTime     int64         `json:"blocktime"`
	Vin           []verboseVin  `json:"vin"`
	Vout          []verboseVout `json:"vout"`
}

// GetTx calls `getrawtransaction "txid" 1`. Input addresses are resolved
// from the spent outputs, which costs one extra lookup per distinct parent.
func (c *RPCClient) GetTx(ctx context.Context, txID string) (*RawTx, error) {
	res, err := c.verboseTx(ctx, txID)
	if err != nil {
		return nil, err
	}
	return c.toRawTx(ctx, res)
}

func (c *RPCClient) verboseTx(ctx context.Context, txID string) (*verboseTxResult, error) {
	var res verboseTxResult
	if err := c.Call(ctx, "getrawtransaction", []interface{}{txID, 1}, &res); err != nil {
		var rerr *rpcError
		if errors.As(err, &rerr) && rerr.Code == rpcCodeInvalidAddress {
			return nil, fmt.Errorf("%w: %s", ErrTxNotFound, txID)
		}
		return nil, err
	}
	return &res, nil
}

func (c *RPCClient) toRawTx(ctx context.Context, res *verboseTxResult) (*RawTx, error) {
	out := &RawTx{
		TxID:          res.TxID,
		BlockHash:     res.BlockHash,
		BlockHeight:   res.BlockHeight,
		Time:          res.BlockTime,
		Confirmations: res.Confirmations,
	}
	if out.Time == 0 {
		out.Time = res.Time
	}

	parents := make(map[string]*verboseTxResult)
	for _, in := range res.Vin {
		if in.Coinbase != "" {
			continue
		}
		if in.PrevOut != nil {
			txin := TxIO{Value: btcToSat(in.PrevOut.Value)}
			if len(in.PrevOut.Addresses) > 0 {
				txin.Address = in.PrevOut.Addresses[0]
			}
			out.Inputs = append(out.Inputs, txin)
			continue
		}
		parent, ok := parents[in.TxID]
		if !ok {
			p, err := c.verboseTx(ctx, in.TxID)
			if err != nil {
				return nil, fmt.Errorf("network: resolve input %s:%d: %w", in.TxID, in.Vout, err)
			}
			parents[in.TxID] = p
			parent = p
		}
		if int(in.Vout) >= len(parent.Vout) {
			return nil, fmt.Errorf("%w: input %s:%d out of range", ErrInvalidResponse, in.TxID, in.Vout)
		}
		prev := parent.Vout[in.Vout]
		out.Inputs = append(out.Inputs, TxIO{
			Address: prev.ScriptPubKey.firstAddress(),
			Value:   btcToSat(prev.Value),
			Type:    prev.ScriptPubKey.Type,
		})
	}

	for _, v := range res.Vout {
		out.Outputs = append(out.Outputs, TxIO{
			Address: v.ScriptPubKey.firstAddress(),
			Value:   btcToSat(v.Value),
			Type:    v.ScriptPubKey.Type,
		})
	}
	return out, nil
}

// AddressTxs calls `searchrawtransactions "address" 1 offset limit 1 true`
// on an address-indexed node. The node does not report the total history
// length, so Total is a lower bound: offset plus the returned count, plus
// one when the page is full.
func (c *RPCClient) AddressTxs(ctx context.Context, address string, offset, limit int) (*TxList, error) {
	if offset < 0 || limit <= 0 {
		return nil, fmt.Errorf("network: invalid page offset=%d limit=%d", offset, limit)
	}
	params := []interface{}{address, 1, offset, limit, 1, true}
	var results []verboseTxResult
	if err := c.Call(ctx, "searchrawtransactions", params, &results); err != nil {
		var rerr *rpcError
		if errors.As(err, &rerr) && rerr.Code == rpcCodeInvalidAddress {
			// No history for the address.
			return &TxList{Total: offset}, nil
		}
		return nil, err
	}

	list := &TxList{Total: offset + len(results)}
	if len(results) == limit {
		list.Total++
	}
	for i := range results {
		raw, err := c.toRawTx(ctx, &results[i])
		if err != nil {
			return nil, err
		}
		list.Txs = append(list.Txs, raw)
	}
	return list, nil
}
