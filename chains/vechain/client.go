// Package vechain implements the wallet client for VeChainThor over a
// Rosetta server: keccak addresses, balances and history from the data and
// indexer APIs, and transfers through the construction flow.
package vechain

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bitfsorg/xchain-go/wallet"
	"github.com/bitfsorg/xchain-go/xchain"
)

// Decimals of VET and VTHO.
const Decimals = 18

// AssetVET is the native asset.
var AssetVET = xchain.Asset{Chain: "VET", Symbol: "VET", Ticker: "VET"}

// currencyVET is AssetVET as a Rosetta currency.
var currencyVET = Currency{Symbol: "VET", Decimals: Decimals}

// DefaultServer is the address of a locally run Rosetta server.
const DefaultServer = "http://localhost:8080"

const (
	mainnetExplorer = "https://explore.vechain.org"
	testnetExplorer = "https://explore-testnet.vechain.org"

	// blockFetchLimit bounds concurrent block lookups for one page.
	blockFetchLimit = 4

	// opTransfer is the operation type of value transfers.
	opTransfer = "Transfer"
)

// DefaultFees are the flat fees quoted for a two-operation transfer.
// Rosetta computes the real fee on submit.
var DefaultFees = xchain.Fees{
	Type:    xchain.FeeTypeBase,
	Average: xchain.NewBaseAmount(33000, Decimals),
	Fast:    xchain.NewBaseAmount(41250, Decimals),
	Fastest: xchain.NewBaseAmount(49500, Decimals),
}

// RosettaNetwork returns the network identifier of net.
func RosettaNetwork(net xchain.Network) NetworkIdentifier {
	if net.IsMainnet() {
		return NetworkIdentifier{Blockchain: "vechainthor", Network: "main"}
	}
	return NetworkIdentifier{Blockchain: "vechainthor", Network: "test"}
}

// Options configures a Client.
type Options struct {
	Network xchain.Network
	Server  string // Rosetta endpoint, DefaultServer when empty
	APIKey  string
	Timeout time.Duration
}

// Client is the xchain.Client of VeChainThor.
type Client struct {
	net     xchain.Network
	rosetta *Rosetta
}

var _ xchain.Client = (*Client)(nil)

// New returns a client for opts.
func New(opts Options) (*Client, error) {
	net, err := wallet.ParseNetwork(string(opts.Network))
	if err != nil {
		return nil, err
	}
	server := opts.Server
	if server == "" {
		server = DefaultServer
	}
	return &Client{
		net:     net,
		rosetta: NewRosetta(server, opts.APIKey, RosettaNetwork(net), opts.Timeout),
	}, nil
}

func (c *Client) Chain() string { return AssetVET.Chain }

func (c *Client) Network() xchain.Network { return c.net }

// Rosetta returns the underlying Rosetta client.
func (c *Client) Rosetta() *Rosetta { return c.rosetta }

func (c *Client) ExplorerURL() string {
	if c.net.IsMainnet() {
		return mainnetExplorer
	}
	return testnetExplorer
}

func (c *Client) ExplorerAddressURL(address string) string {
	return c.ExplorerURL() + "/accounts/" + address
}

func (c *Client) ExplorerTxURL(txID string) string {
	return c.ExplorerURL() + "/transactions/" + txID
}

// Address derives the account address at index. VeChain uses coin type 818
// on every network.
func (c *Client) Address(wc wallet.Context, index uint32) (string, error) {
	if !wc.Valid() {
		return "", wallet.ErrInvalidSeed
	}
	pub, err := wc.PublicKey(wallet.CoinTypeVeChain, index)
	if err != nil {
		return "", err
	}
	return AddressFromPubKey(pub)
}

func (c *Client) ValidateAddress(address string) bool { return ValidateAddress(address) }

func validate(address string) error {
	if _, err := DecodeAddress(address); err != nil {
		return fmt.Errorf("%w: %w", xchain.ErrInvalidAddress, err)
	}
	return nil
}

// Balance returns the VET and VTHO balances of address at the current block.
func (c *Client) Balance(ctx context.Context, address string) ([]xchain.Balance, error) {
	if err := validate(address); err != nil {
		return nil, err
	}
	head, err := c.rosetta.NetworkStatus(ctx)
	if err != nil {
		return nil, err
	}
	amounts, err := c.rosetta.AccountBalance(ctx, address, head)
	if err != nil {
		return nil, err
	}
	out := make([]xchain.Balance, 0, len(amounts))
	for _, a := range amounts {
		amt, err := xchain.ParseBaseAmount(a.Value, a.Currency.Decimals)
		if err != nil {
			return nil, fmt.Errorf("%w: %s balance: %w", ErrInvalidResponse, a.Currency.Symbol, err)
		}
		out = append(out, xchain.Balance{
			Asset:  xchain.Asset{Chain: AssetVET.Chain, Symbol: a.Currency.Symbol, Ticker: a.Currency.Symbol},
			Amount: amt,
		})
	}
	return out, nil
}

// Transactions returns one page of the history of address. When the
// indexer does not report a total, Total is offset plus the page length.
func (c *Client) Transactions(ctx context.Context, p xchain.TxHistoryParams) (*xchain.TxPage, error) {
	if err := validate(p.Address); err != nil {
		return nil, err
	}
	if p.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", ErrInvalidParams)
	}
	res, err := c.rosetta.SearchTransactions(ctx, SearchRequest{
		Address: p.Address,
		Offset:  p.Offset,
		Limit:   p.PageLimit(),
	})
	if err != nil {
		return nil, err
	}
	txs, err := c.toTxs(ctx, res.Transactions)
	if err != nil {
		return nil, err
	}
	page := &xchain.TxPage{Total: int(res.TotalCount), Txs: txs}
	if page.Total == 0 {
		page.Total = p.Offset + len(txs)
	}
	return page, nil
}

// TransactionData returns the transaction txID.
func (c *Client) TransactionData(ctx context.Context, txID string) (*xchain.Tx, error) {
	res, err := c.rosetta.SearchTransactions(ctx, SearchRequest{TxHash: txID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(res.Transactions) == 0 {
		return nil, fmt.Errorf("%w: %s", xchain.ErrTxNotFound, txID)
	}
	txs, err := c.toTxs(ctx, res.Transactions[:1])
	if err != nil {
		return nil, err
	}
	return txs[0], nil
}

// toTxs maps search results through the Rosetta view adapter. Dates come
// from the including blocks, fetched once each.
func (c *Client) toTxs(ctx context.Context, bts []BlockTransaction) ([]*xchain.Tx, error) {
	times := make(map[string]time.Time)
	var ids []BlockIdentifier
	for _, bt := range bts {
		key := blockKey(bt.BlockIdentifier)
		if _, ok := times[key]; !ok {
			times[key] = time.Time{}
			ids = append(ids, bt.BlockIdentifier)
		}
	}

	fetched := make([]time.Time, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blockFetchLimit)
	for i, id := range ids {
		g.Go(func() error {
			b, err := c.rosetta.Block(gctx, id)
			if err != nil {
				return err
			}
			if b.Timestamp > 0 {
				fetched[i] = time.UnixMilli(b.Timestamp).UTC()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, id := range ids {
		times[blockKey(id)] = fetched[i]
	}

	out := make([]*xchain.Tx, 0, len(bts))
	for _, bt := range bts {
		v := &xchain.RosettaTxView{
			Hash: bt.Transaction.TransactionIdentifier.Hash,
			Time: times[blockKey(bt.BlockIdentifier)],
		}
		for _, op := range bt.Transaction.Operations {
			if op.Account == nil || op.Amount == nil {
				continue
			}
			v.Operations = append(v.Operations, xchain.RosettaOp{
				Type:    op.Type,
				Address: op.Account.Address,
				Value:   op.Amount.Value,
			})
		}
		t, err := xchain.ChainTransactionView{Rosetta: v}.ToTx(AssetVET, Decimals)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func blockKey(id BlockIdentifier) string {
	return fmt.Sprintf("%d/%s", id.Index, id.Hash)
}

// FeesWithRates returns the flat default fees. Rates is zero.
func (c *Client) FeesWithRates(_ context.Context, _ string) (*xchain.FeesWithRates, error) {
	return &xchain.FeesWithRates{Fees: DefaultFees}, nil
}

// transferOps returns the debit and credit operations of a transfer.
func transferOps(from, to string, amount xchain.BaseAmount) []Operation {
	value := amount.String()
	return []Operation{
		{
			OperationIdentifier: OperationIdentifier{Index: 0},
			Type:                opTransfer,
			Account:             &AccountIdentifier{Address: from},
			Amount:              &Amount{Value: "-" + value, Currency: currencyVET},
		},
		{
			OperationIdentifier: OperationIdentifier{Index: 1},
			Type:                opTransfer,
			Account:             &AccountIdentifier{Address: to},
			Amount:              &Amount{Value: value, Currency: currencyVET},
		},
	}
}

// sameOps reports whether parsed carries the transfers of want, ignoring
// operation indexes, status and address case.
func sameOps(want, parsed []Operation) bool {
	key := func(op Operation) string {
		if op.Account == nil || op.Amount == nil {
			return op.Type
		}
		return strings.ToLower(op.Type) + "|" + strings.ToLower(op.Account.Address) + "|" +
			op.Amount.Value + "|" + op.Amount.Currency.Symbol
	}
	count := make(map[string]int)
	for _, op := range want {
		count[key(op)]++
	}
	for _, op := range parsed {
		k := key(op)
		if count[k] == 0 {
			return false
		}
		count[k]--
	}
	return len(parsed) == len(want)
}

// Transfer sends VET through the Rosetta construction flow: preprocess,
// metadata, payloads, parse, sign, combine, parse, hash and submit. Both
// parses must return the requested operations before anything is signed
// or submitted. Memos are not supported.
func (c *Client) Transfer(ctx context.Context, wc wallet.Context, p xchain.TransferParams) (string, error) {
	if err := validate(p.Recipient); err != nil {
		return "", err
	}
	if p.Asset != nil && *p.Asset != AssetVET {
		return "", fmt.Errorf("%w: asset %s", xchain.ErrNotSupported, p.Asset)
	}
	if !p.Amount.IsPositive() {
		return "", fmt.Errorf("%w: %s", xchain.ErrInvalidAmount, p.Amount)
	}
	if p.Memo != "" {
		return "", fmt.Errorf("%w: memo on %s", xchain.ErrNotSupported, AssetVET.Chain)
	}

	h, err := wc.DeriveKey(wallet.CoinTypeVeChain, p.WalletIndex)
	if err != nil {
		return "", err
	}
	defer h.Release()
	priv, err := h.PrivateKey()
	if err != nil {
		return "", err
	}
	sender, err := AddressFromPubKey(priv.PubKey())
	if err != nil {
		return "", err
	}
	pubKeys := []PublicKey{{HexBytes: hex.EncodeToString(priv.PubKey().Compressed()), CurveType: "secp256k1"}}

	ops := transferOps(sender, p.Recipient, p.Amount)
	options, err := c.rosetta.Preprocess(ctx, ops)
	if err != nil {
		return "", err
	}
	metadata, err := c.rosetta.Metadata(ctx, options, pubKeys)
	if err != nil {
		return "", err
	}
	payloads, err := c.rosetta.Payloads(ctx, ops, metadata, pubKeys)
	if err != nil {
		return "", err
	}
	unsigned, err := c.rosetta.Parse(ctx, payloads.UnsignedTransaction, false)
	if err != nil {
		return "", err
	}
	if !sameOps(ops, unsigned.Operations) {
		return "", fmt.Errorf("%w: unsigned transaction", ErrOperationsMismatch)
	}

	payload := payloads.Payloads[0]
	if payload.AccountIdentifier != nil && !strings.EqualFold(payload.AccountIdentifier.Address, sender) {
		return "", fmt.Errorf("%w: payload for %s, signer is %s", ErrSigningFailed, payload.AccountIdentifier.Address, sender)
	}
	hash, err := hex.DecodeString(strings.TrimPrefix(payload.HexBytes, "0x"))
	if err != nil {
		return "", fmt.Errorf("%w: payload hex: %w", ErrSigningFailed, err)
	}
	sig, err := SignHash(hash, priv)
	if err != nil {
		return "", err
	}
	signed, err := c.rosetta.Combine(ctx, payloads.UnsignedTransaction, []Signature{{
		SigningPayload: payload,
		PublicKey:      pubKeys[0],
		SignatureType:  "ecdsa_recovery",
		HexBytes:       hex.EncodeToString(sig),
	}})
	if err != nil {
		return "", err
	}

	parsed, err := c.rosetta.Parse(ctx, signed, true)
	if err != nil {
		return "", err
	}
	if !sameOps(ops, parsed.Operations) {
		return "", fmt.Errorf("%w: signed transaction", ErrOperationsMismatch)
	}
	txID, err := c.rosetta.Hash(ctx, signed)
	if err != nil {
		return "", err
	}
	if local, err := TxID(hash, sender); err == nil && !strings.EqualFold(local, txID) {
		log.Warnf("construction hash %s differs from local id %s", txID, local)
	}

	submitted, err := c.rosetta.Submit(ctx, signed)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(submitted, txID) {
		log.Warnf("submit returned %s for %s", submitted, txID)
	}
	log.Infof("transfer %s: %s VET base units to %s", txID, p.Amount, p.Recipient)
	return txID, nil
}
