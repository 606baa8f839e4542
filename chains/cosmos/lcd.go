package cosmos

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds one LCD request.
	DefaultTimeout = 30 * time.Second

	maxResponseSize = 8 << 20
)

// LCD is a client of the Cosmos SDK REST gateway ("light client daemon").
type LCD struct {
	base   string
	client *http.Client
}

// NewLCD creates a client for the gateway rooted at server.
func NewLCD(server string, timeout time.Duration) *LCD {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LCD{
		base: strings.TrimRight(server, "/"),
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

// statusError carries a non-2xx gateway reply.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: HTTP %d: %s", ErrRequestFailed, e.Status, e.Body)
}

func (e *statusError) Unwrap() error { return ErrRequestFailed }

func (l *LCD) do(ctx context.Context, method, path string, body, result interface{}) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("cosmos: marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, l.base+path, rdr)
	if err != nil {
		return fmt.Errorf("cosmos: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Tracef("lcd %s %s", method, path)
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(raw)
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return &statusError{Status: resp.StatusCode, Body: strings.TrimSpace(msg)}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrInvalidResponse, path, err)
	}
	return nil
}

// isNotFound reports a 404, or the 400/500 some gateway versions return
// for unknown hashes.
func isNotFound(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status == http.StatusNotFound || strings.Contains(strings.ToLower(se.Body), "not found")
}

// Balances fetches every denomination held by address.
func (l *LCD) Balances(ctx context.Context, address string) ([]Coin, error) {
	var res struct {
		Balances []Coin `json:"balances"`
	}
	path := "/cosmos/bank/v1beta1/balances/" + url.PathEscape(address)
	if err := l.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Balances, nil
}

// Account is the auth state a signer needs.
type Account struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

// Account fetches the account number and sequence of address.
func (l *LCD) Account(ctx context.Context, address string) (*Account, error) {
	var res struct {
		Account struct {
			Address       string `json:"address"`
			AccountNumber string `json:"account_number"`
			Sequence      string `json:"sequence"`
		} `json:"account"`
	}
	path := "/cosmos/auth/v1beta1/accounts/" + url.PathEscape(address)
	if err := l.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	num, err := parseUintField("account_number", res.Account.AccountNumber)
	if err != nil {
		return nil, err
	}
	seq, err := parseUintField("sequence", res.Account.Sequence)
	if err != nil {
		return nil, err
	}
	return &Account{Address: res.Account.Address, AccountNumber: num, Sequence: seq}, nil
}

func parseUintField(name, s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidResponse, name, s)
	}
	return v, nil
}

// SearchParams filters SearchTxs. Empty fields are not sent.
type SearchParams struct {
	MessageAction     string
	MessageSender     string
	TransferRecipient string
	Page              int // 1-based
	Limit             int
	MinHeight         int64
	MaxHeight         int64
}

func (p SearchParams) query() url.Values {
	q := url.Values{}
	if p.MessageAction != "" {
		q.Set("message.action", p.MessageAction)
	}
	if p.MessageSender != "" {
		q.Set("message.sender", p.MessageSender)
	}
	if p.TransferRecipient != "" {
		q.Set("transfer.recipient", p.TransferRecipient)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.MinHeight > 0 {
		q.Set("tx.minheight", strconv.FormatInt(p.MinHeight, 10))
	}
	if p.MaxHeight > 0 {
		q.Set("tx.maxheight", strconv.FormatInt(p.MaxHeight, 10))
	}
	return q
}

// SearchTxs queries the legacy /txs event search.
func (l *LCD) SearchTxs(ctx context.Context, p SearchParams) (*TxHistory, error) {
	var res TxHistory
	if err := l.do(ctx, http.MethodGet, "/txs?"+p.query().Encode(), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Tx fetches one transaction by hash.
func (l *LCD) Tx(ctx context.Context, hash string) (*TxResponse, error) {
	var res TxResponse
	if err := l.do(ctx, http.MethodGet, "/txs/"+url.PathEscape(hash), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Broadcast submits signed protobuf transaction bytes in sync mode and
// returns the transaction hash. A non-zero check code is reported as
// ErrBroadcastRejected with the node's log.
func (l *LCD) Broadcast(ctx context.Context, txBytes []byte) (string, error) {
	req := map[string]string{
		"tx_bytes": base64.StdEncoding.EncodeToString(txBytes),
		"mode":     "BROADCAST_MODE_SYNC",
	}
	var res struct {
		TxResponse *struct {
			TxHash string `json:"txhash"`
			Code   uint32 `json:"code"`
			RawLog string `json:"raw_log"`
		} `json:"tx_response"`
	}
	if err := l.do(ctx, http.MethodPost, "/cosmos/tx/v1beta1/txs", req, &res); err != nil {
		return "", err
	}
	if res.TxResponse == nil {
		return "", fmt.Errorf("%w: missing tx_response", ErrInvalidResponse)
	}
	if res.TxResponse.Code != 0 {
		return "", fmt.Errorf("%w: code %d: %s", ErrBroadcastRejected, res.TxResponse.Code, res.TxResponse.RawLog)
	}
	return res.TxResponse.TxHash, nil
}
