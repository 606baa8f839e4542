package vechain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds one Rosetta request.
	DefaultTimeout = 30 * time.Second

	maxResponseSize = 8 << 20
)

// NetworkIdentifier names a Rosetta network.
type NetworkIdentifier struct {
	Blockchain string `json:"blockchain"`
	Network    string `json:"network"`
}

// BlockIdentifier names a block by height and hash.
type BlockIdentifier struct {
	Index int64  `json:"index,omitempty"`
	Hash  string `json:"hash,omitempty"`
}

// AccountIdentifier names an account.
type AccountIdentifier struct {
	Address string `json:"address"`
}

// Currency is a Rosetta currency.
type Currency struct {
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

// Amount is a signed base-unit integer string in a currency.
type Amount struct {
	Value    string   `json:"value"`
	Currency Currency `json:"currency"`
}

// OperationIdentifier orders operations within a transaction.
type OperationIdentifier struct {
	Index int64 `json:"index"`
}

// Operation is one balance change.
type Operation struct {
	OperationIdentifier OperationIdentifier `json:"operation_identifier"`
	Type                string              `json:"type"`
	Status              string              `json:"status,omitempty"`
	Account             *AccountIdentifier  `json:"account,omitempty"`
	Amount              *Amount             `json:"amount,omitempty"`
}

// TransactionIdentifier names a transaction by hash.
type TransactionIdentifier struct {
	Hash string `json:"hash"`
}

// Transaction is a Rosetta transaction.
type Transaction struct {
	TransactionIdentifier TransactionIdentifier `json:"transaction_identifier"`
	Operations            []Operation           `json:"operations"`
}

// BlockTransaction is a transaction with the block that includes it.
type BlockTransaction struct {
	BlockIdentifier BlockIdentifier `json:"block_identifier"`
	Transaction     Transaction     `json:"transaction"`
}

// Block is the header part of a Rosetta block.
type Block struct {
	BlockIdentifier BlockIdentifier `json:"block_identifier"`
	Timestamp       int64           `json:"timestamp"` // unix milliseconds
}

// PublicKey is a hex-encoded public key.
type PublicKey struct {
	HexBytes  string `json:"hex_bytes"`
	CurveType string `json:"curve_type"`
}

// SigningPayload is one hash the signer must sign.
type SigningPayload struct {
	AccountIdentifier *AccountIdentifier `json:"account_identifier,omitempty"`
	HexBytes          string             `json:"hex_bytes"`
	SignatureType     string             `json:"signature_type,omitempty"`
}

// Signature is a signed payload.
type Signature struct {
	SigningPayload SigningPayload `json:"signing_payload"`
	PublicKey      PublicKey      `json:"public_key"`
	SignatureType  string         `json:"signature_type"`
	HexBytes       string         `json:"hex_bytes"`
}

// Error is a Rosetta error object, returned with HTTP 500.
type Error struct {
	Code      int32  `json:"code"`
	Message   string `json:"message"`
	Retriable bool   `json:"retriable"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rosetta error %d: %s", e.Code, e.Message)
}

// Rosetta is a client of the Rosetta data, construction and indexer APIs.
type Rosetta struct {
	base    string
	apiKey  string
	network NetworkIdentifier
	client  *http.Client
}

// NewRosetta creates a client for the Rosetta server at base, bound to
// network. A non-empty apiKey is sent as X-Api-Key.
func NewRosetta(base, apiKey string, network NetworkIdentifier, timeout time.Duration) *Rosetta {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Rosetta{
		base:    strings.TrimRight(base, "/"),
		apiKey:  apiKey,
		network: network,
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

// NetworkIdentifier returns the network every request is bound to.
func (r *Rosetta) NetworkIdentifier() NetworkIdentifier { return r.network }

// post sends body, with network_identifier added, to path and decodes the
// reply into result.
func (r *Rosetta) post(ctx context.Context, path string, body map[string]interface{}, result interface{}) error {
	if body == nil {
		body = map[string]interface{}{}
	}
	body["network_identifier"] = r.network
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vechain: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("vechain: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("X-Api-Key", r.apiKey)
	}

	log.Tracef("rosetta %s", path)
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var rerr Error
		if json.Unmarshal(raw, &rerr) == nil && rerr.Message != "" {
			return fmt.Errorf("%w: %s: %w", ErrRequestFailed, path, &rerr)
		}
		msg := string(raw)
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return fmt.Errorf("%w: %s: HTTP %d: %s", ErrRequestFailed, path, resp.StatusCode, strings.TrimSpace(msg))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrInvalidResponse, path, err)
	}
	return nil
}

// NetworkStatus returns the current block.
func (r *Rosetta) NetworkStatus(ctx context.Context) (*BlockIdentifier, error) {
	var res struct {
		CurrentBlockIdentifier BlockIdentifier `json:"current_block_identifier"`
	}
	if err := r.post(ctx, "/network/status", nil, &res); err != nil {
		return nil, err
	}
	return &res.CurrentBlockIdentifier, nil
}

// AccountBalance returns the balances of address at block, or at the
// current block when block is nil.
func (r *Rosetta) AccountBalance(ctx context.Context, address string, block *BlockIdentifier) ([]Amount, error) {
	body := map[string]interface{}{"account_identifier": AccountIdentifier{Address: address}}
	if block != nil {
		body["block_identifier"] = block
	}
	var res struct {
		Balances []Amount `json:"balances"`
	}
	if err := r.post(ctx, "/account/balance", body, &res); err != nil {
		return nil, err
	}
	return res.Balances, nil
}

// Block fetches the block named by id.
func (r *Rosetta) Block(ctx context.Context, id BlockIdentifier) (*Block, error) {
	var res struct {
		Block *Block `json:"block"`
	}
	if err := r.post(ctx, "/block", map[string]interface{}{"block_identifier": id}, &res); err != nil {
		return nil, err
	}
	if res.Block == nil {
		return nil, fmt.Errorf("%w: block %d %s missing", ErrInvalidResponse, id.Index, id.Hash)
	}
	return res.Block, nil
}

// SearchRequest filters SearchTransactions. Zero fields are not sent.
type SearchRequest struct {
	Address string
	TxHash  string
	Offset  int
	Limit   int
}

// SearchResult is one page of /search/transactions.
type SearchResult struct {
	Transactions []BlockTransaction `json:"transactions"`
	TotalCount   int64              `json:"total_count"`
	NextOffset   *int64             `json:"next_offset"`
}

// SearchTransactions queries the indexer API.
func (r *Rosetta) SearchTransactions(ctx context.Context, q SearchRequest) (*SearchResult, error) {
	body := map[string]interface{}{}
	if q.Address != "" {
		body["account_identifier"] = AccountIdentifier{Address: q.Address}
	}
	if q.TxHash != "" {
		body["transaction_identifier"] = TransactionIdentifier{Hash: q.TxHash}
	}
	if q.Offset > 0 {
		body["offset"] = q.Offset
	}
	if q.Limit > 0 {
		body["limit"] = q.Limit
	}
	var res SearchResult
	if err := r.post(ctx, "/search/transactions", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Preprocess returns the options the metadata call needs for ops.
func (r *Rosetta) Preprocess(ctx context.Context, ops []Operation) (json.RawMessage, error) {
	var res struct {
		Options json.RawMessage `json:"options"`
	}
	if err := r.post(ctx, "/construction/preprocess", map[string]interface{}{"operations": ops}, &res); err != nil {
		return nil, err
	}
	return res.Options, nil
}

// Metadata fetches the chain state a transaction built with options needs.
func (r *Rosetta) Metadata(ctx context.Context, options json.RawMessage, pubKeys []PublicKey) (json.RawMessage, error) {
	body := map[string]interface{}{}
	if len(options) > 0 {
		body["options"] = options
	} else {
		body["options"] = map[string]interface{}{}
	}
	if len(pubKeys) > 0 {
		body["public_keys"] = pubKeys
	}
	var res struct {
		Metadata json.RawMessage `json:"metadata"`
	}
	if err := r.post(ctx, "/construction/metadata", body, &res); err != nil {
		return nil, err
	}
	return res.Metadata, nil
}

// PayloadsResult is an unsigned transaction and the hashes to sign.
type PayloadsResult struct {
	UnsignedTransaction string           `json:"unsigned_transaction"`
	Payloads            []SigningPayload `json:"payloads"`
}

// Payloads builds the unsigned transaction for ops.
func (r *Rosetta) Payloads(ctx context.Context, ops []Operation, metadata json.RawMessage, pubKeys []PublicKey) (*PayloadsResult, error) {
	body := map[string]interface{}{"operations": ops}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}
	if len(pubKeys) > 0 {
		body["public_keys"] = pubKeys
	}
	var res PayloadsResult
	if err := r.post(ctx, "/construction/payloads", body, &res); err != nil {
		return nil, err
	}
	if res.UnsignedTransaction == "" || len(res.Payloads) == 0 {
		return nil, fmt.Errorf("%w: payloads reply is empty", ErrInvalidResponse)
	}
	return &res, nil
}

// ParseResult is the decoded content of a constructed transaction.
type ParseResult struct {
	Operations []Operation         `json:"operations"`
	Signers    []AccountIdentifier `json:"account_identifier_signers"`
}

// Parse decodes a constructed transaction.
func (r *Rosetta) Parse(ctx context.Context, transaction string, signed bool) (*ParseResult, error) {
	body := map[string]interface{}{"transaction": transaction, "signed": signed}
	var res ParseResult
	if err := r.post(ctx, "/construction/parse", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Combine attaches signatures to an unsigned transaction.
func (r *Rosetta) Combine(ctx context.Context, unsigned string, sigs []Signature) (string, error) {
	body := map[string]interface{}{"unsigned_transaction": unsigned, "signatures": sigs}
	var res struct {
		SignedTransaction string `json:"signed_transaction"`
	}
	if err := r.post(ctx, "/construction/combine", body, &res); err != nil {
		return "", err
	}
	if res.SignedTransaction == "" {
		return "", fmt.Errorf("%w: combine reply is empty", ErrInvalidResponse)
	}
	return res.SignedTransaction, nil
}

// Hash returns the ID of a signed transaction.
func (r *Rosetta) Hash(ctx context.Context, signed string) (string, error) {
	return r.txIdentifier(ctx, "/construction/hash", signed)
}

// Submit broadcasts a signed transaction and returns its ID.
func (r *Rosetta) Submit(ctx context.Context, signed string) (string, error) {
	return r.txIdentifier(ctx, "/construction/submit", signed)
}

func (r *Rosetta) txIdentifier(ctx context.Context, path, signed string) (string, error) {
	var res struct {
		TransactionIdentifier TransactionIdentifier `json:"transaction_identifier"`
	}
	if err := r.post(ctx, path, map[string]interface{}{"signed_transaction": signed}, &res); err != nil {
		return "", err
	}
	if res.TransactionIdentifier.Hash == "" {
		return "", fmt.Errorf("%w: %s returned no hash", ErrInvalidResponse, path)
	}
	return res.TransactionIdentifier.Hash, nil
}
