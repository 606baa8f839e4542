package network

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bitfsorg/xchain-go/tx"
)

var _ UTXOService = (*IndexerClient)(nil)

// IndexerClient talks to an Insight-style REST indexer
// (/addr, /addrs, /tx, /utils endpoints).
type IndexerClient struct {
	base   string
	client *http.Client
}

// NewIndexerClient creates a client for the indexer rooted at cfg.URL,
// e.g. "https://api.example.org/insight-api".
func NewIndexerClient(cfg RPCConfig) *IndexerClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &IndexerClient{
		base: strings.TrimRight(cfg.URL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// httpStatusError carries a non-2xx indexer reply.
type httpStatusError struct {
	Status int
	Body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// do performs one request and decodes a JSON reply into result.
func (c *IndexerClient) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("network: marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return fmt.Errorf("network: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Tracef("indexer %s %s", method, path)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrConnectionFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{Status: resp.StatusCode, Body: strings.TrimSpace(truncate(respBody, 1024))}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrInvalidResponse, path, err)
	}
	return nil
}

// insightUTXO is one element of /addr/{a}/utxo.
type insightUTXO struct {
	Address       string `json:"address"`
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	ScriptPubKey  string `json:"scriptPubKey"`
	Satoshis      uint64 `json:"satoshis"`
	Confirmations int64  `json:"confirmations"`
}

// ListUnspent fetches /addr/{address}/utxo and filters unconfirmed outputs
// when confirmedOnly is set.
func (c *IndexerClient) ListUnspent(ctx context.Context, address string, confirmedOnly bool) ([]*tx.UTXO, error) {
	var results []insightUTXO
	if err := c.do(ctx, http.MethodGet, "/addr/"+url.PathEscape(address)+"/utxo", nil, &results); err != nil {
		return nil, err
	}
	utxos := make([]*tx.UTXO, 0, len(results))
	for _, r := range results {
		confirmed := r.Confirmations > 0
		if confirmedOnly && !confirmed {
			continue
		}
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
			Amount:       r.Satoshis,
			ScriptPubKey: script,
			Confirmed:    confirmed,
			Address:      addr,
		})
	}
	log.Debugf("indexer utxo %s: %d outputs (confirmedOnly=%v)", address, len(utxos), confirmedOnly)
	return utxos, nil
}

// BroadcastTx posts {"rawtx": hex} to /tx/send. A 4xx reply is reported as
// ErrBroadcastRejected with the indexer's message.
func (c *IndexerClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	var res struct {
		TxID string `json:"txid"`
	}
	err := c.do(ctx, http.MethodPost, "/tx/send", map[string]string{"rawtx": rawTxHex}, &res)
	if err != nil {
		var se *httpStatusError
		if errors.As(err, &se) && se.Status < 500 {
			return "", fmt.Errorf("%w: %s", ErrBroadcastRejected, se.Body)
		}
		return "", err
	}
	if res.TxID == "" {
		return "", fmt.Errorf("%w: empty txid", ErrInvalidResponse)
	}
	return res.TxID, nil
}

// EstimateFeeRate fetches /utils/estimatefee?nbBlocks=2, which answers in
// coin per kB, and converts to smallest-unit per byte.
func (c *IndexerClient) EstimateFeeRate(ctx context.Context) (tx.FeeRate, error) {
	var res map[string]decimal.Decimal
	if err := c.do(ctx, http.MethodGet, "/utils/estimatefee?nbBlocks=2", nil, &res); err != nil {
		return 0, err
	}
	perKB, ok := res["2"]
	if !ok || !perKB.IsPositive() {
		return 0, fmt.Errorf("%w: indexer returned %v", ErrFeeUnavailable, res)
	}
	f, _ := perKB.Shift(8).Div(decimal.NewFromInt(1000)).Float64()
	return tx.FeeRate(f), nil
}

// GetBalance fetches /addr/{address}?noTxList=1 and returns the confirmed
// plus unconfirmed balance.
func (c *IndexerClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	var res struct {
		BalanceSat            int64 `json:"balanceSat"`
		UnconfirmedBalanceSat int64 `json:"unconfirmedBalanceSat"`
	}
	if err := c.do(ctx, http.MethodGet, "/addr/"+url.PathEscape(address)+"?noTxList=1", nil, &res); err != nil {
		return 0, err
	}
	total := res.BalanceSat + res.UnconfirmedBalanceSat
	if total < 0 {
		return 0, fmt.Errorf("%w: negative balance %d", ErrInvalidResponse, total)
	}
	return uint64(total), nil
}

// insightTx is the transaction object returned by /tx/{id} and /addrs/{a}/txs.
type insightTx struct {
	TxID          string `json:"txid"`
	BlockHash     string `json:"blockhash"`
	BlockHeight   int64  `json:"blockheight"`
	Confirmations int64  `json:"confirmations"`
	Time          int64  `json:"time"`
	BlockTime     int64  `json:"blocktime"`
	Vin           []struct {
		Coinbase string `json:"coinbase"`
		Addr     string `json:"addr"`
		ValueSat uint64 `json:"valueSat"`
	} `json:"vin"`
	Vout []struct {
		Value        decimal.Decimal `json:"value"`
		ScriptPubKey struct {
			Hex       string   `json:"hex"`
			Type      string   `json:"type"`
			Addresses []string `json:"addresses"`
		} `json:"scriptPubKey"`
	} `json:"vout"`
}

func (t *insightTx) toRawTx() *RawTx {
	out := &RawTx{
		TxID:          t.TxID,
		BlockHash:     t.BlockHash,
		BlockHeight:   t.BlockHeight,
		Time:          t.BlockTime,
		Confirmations: t.Confirmations,
	}
	if out.Time == 0 {
		out.Time = t.Time
	}
	// Insight reports -1 for unconfirmed transactions.
	if out.BlockHeight < 0 {
		out.BlockHeight = 0
	}
	for _, in := range t.Vin {
		if in.Coinbase != "" {
			continue
		}
		out.Inputs = append(out.Inputs, TxIO{Address: in.Addr, Value: in.ValueSat})
	}
	for _, v := range t.Vout {
		o := TxIO{
			Value: uint64(v.Value.Shift(8).IntPart()),
			Type:  v.ScriptPubKey.Type,
		}
		if len(v.ScriptPubKey.Addresses) > 0 {
			o.Address = v.ScriptPubKey.Addresses[0]
		}
		if o.Type == "" && strings.HasPrefix(v.ScriptPubKey.Hex, "6a") {
			o.Type = NullDataType
		}
		out.Outputs = append(out.Outputs, o)
	}
	return out
}

// GetTx fetches /tx/{txID}. A 404 is reported as ErrTxNotFound.
func (c *IndexerClient) GetTx(ctx context.Context, txID string) (*RawTx, error) {
	var res insightTx
	if err := c.do(ctx, http.MethodGet, "/tx/"+url.PathEscape(txID), nil, &res); err != nil {
		var se *httpStatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrTxNotFound, txID)
		}
		return nil, err
	}
	return res.toRawTx(), nil
}

// AddressTxs fetches /addrs/{address}/txs?from=offset&to=offset+limit.
func (c *IndexerClient) AddressTxs(ctx context.Context, address string, offset, limit int) (*TxList, error) {
	if offset < 0 || limit <= 0 {
		return nil, fmt.Errorf("network: invalid page offset=%d limit=%d", offset, limit)
	}
	q := url.Values{}
	q.Set("from", strconv.Itoa(offset))
	q.Set("to", strconv.Itoa(offset+limit))
	path := "/addrs/" + url.PathEscape(address) + "/txs?" + q.Encode()

	var res struct {
		TotalItems int          `json:"totalItems"`
		Items      []*insightTx `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	list := &TxList{Total: res.TotalItems}
	for _, it := range res.Items {
		list.Txs = append(list.Txs, it.toRawTx())
	}
	return list, nil
}
