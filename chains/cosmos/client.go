// Package cosmos implements the wallet client for the Cosmos Hub over the
// Cosmos SDK REST gateway.
package cosmos

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bitfsorg/xchain-go/wallet"
	"github.com/bitfsorg/xchain-go/xchain"
)

// Decimals of every bank denomination the client knows.
const Decimals = 6

// Native assets.
var (
	AssetAtom = xchain.Asset{Chain: "GAIA", Symbol: "ATOM", Ticker: "ATOM"}
	AssetMuon = xchain.Asset{Chain: "GAIA", Symbol: "MUON", Ticker: "MUON"}
)

// Default gateways and chain IDs.
const (
	MainnetServer  = "https://api.cosmos.network"
	MainnetChainID = "cosmoshub-4"
	TestnetServer  = "https://api.testnet.cosmos.network"
	TestnetChainID = "theta-testnet-001"
)

const (
	mainnetExplorer = "https://cosmos.bigdipper.live"
	testnetExplorer = "https://gaia.bigdipper.live"
)

// DefaultFees are the flat per-transaction fees in uatom.
var DefaultFees = xchain.Fees{
	Type:    xchain.FeeTypeBase,
	Average: xchain.NewBaseAmount(0, Decimals),
	Fast:    xchain.NewBaseAmount(750, Decimals),
	Fastest: xchain.NewBaseAmount(2500, Decimals),
}

// Denom returns the bank denomination of asset.
func Denom(asset xchain.Asset) string {
	switch asset {
	case AssetAtom:
		return "uatom"
	case AssetMuon:
		return "umuon"
	default:
		return asset.Symbol
	}
}

// AssetOf returns the asset of a bank denomination. Unknown denominations
// map to an asset named after the denomination.
func AssetOf(denom string) xchain.Asset {
	switch denom {
	case "uatom":
		return AssetAtom
	case "umuon":
		return AssetMuon
	default:
		return xchain.Asset{Chain: AssetAtom.Chain, Symbol: denom, Ticker: denom}
	}
}

// Options configures a Client. Empty fields take the network defaults.
type Options struct {
	Network xchain.Network
	Server  string
	ChainID string
	Prefix  string
	Timeout time.Duration
}

// Client is the xchain.Client of the Cosmos Hub.
type Client struct {
	net     xchain.Network
	chainID string
	prefix  string
	lcd     *LCD
}

var _ xchain.Client = (*Client)(nil)

// New returns a client for opts.
func New(opts Options) (*Client, error) {
	net, err := wallet.ParseNetwork(string(opts.Network))
	if err != nil {
		return nil, err
	}
	server, chainID := TestnetServer, TestnetChainID
	if net.IsMainnet() {
		server, chainID = MainnetServer, MainnetChainID
	}
	if opts.Server != "" {
		server = opts.Server
	}
	if opts.ChainID != "" {
		chainID = opts.ChainID
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Client{
		net:     net,
		chainID: chainID,
		prefix:  prefix,
		lcd:     NewLCD(server, opts.Timeout),
	}, nil
}

func (c *Client) Chain() string { return AssetAtom.Chain }

func (c *Client) Network() xchain.Network { return c.net }

// ChainID returns the chain ID transactions must be signed for.
func (c *Client) ChainID() string { return c.chainID }

// LCD returns the underlying gateway client.
func (c *Client) LCD() *LCD { return c.lcd }

// MainAsset is ATOM on mainnet and MUON on the test network.
func (c *Client) MainAsset() xchain.Asset {
	if c.net.IsMainnet() {
		return AssetAtom
	}
	return AssetMuon
}

func (c *Client) ExplorerURL() string {
	if c.net.IsMainnet() {
		return mainnetExplorer
	}
	return testnetExplorer
}

func (c *Client) ExplorerAddressURL(address string) string {
	return c.ExplorerURL() + "/account/" + address
}

func (c *Client) ExplorerTxURL(txID string) string {
	return c.ExplorerURL() + "/transactions/" + txID
}

// Address derives the account address at index. Cosmos uses coin type 118
// on every network.
func (c *Client) Address(wc wallet.Context, index uint32) (string, error) {
	if !wc.Valid() {
		return "", wallet.ErrInvalidSeed
	}
	pub, err := wc.PublicKey(wallet.CoinTypeCosmos, index)
	if err != nil {
		return "", err
	}
	return AddressFromPubKey(pub, c.prefix)
}

func (c *Client) ValidateAddress(address string) bool {
	_, err := DecodeAddress(address, c.prefix)
	return err == nil
}

func (c *Client) validate(address string) error {
	if _, err := DecodeAddress(address, c.prefix); err != nil {
		return fmt.Errorf("%w: %w", xchain.ErrInvalidAddress, err)
	}
	return nil
}

// Balance returns one entry per denomination held by address.
func (c *Client) Balance(ctx context.Context, address string) ([]xchain.Balance, error) {
	if err := c.validate(address); err != nil {
		return nil, err
	}
	coins, err := c.lcd.Balances(ctx, address)
	if err != nil {
		return nil, err
	}
	out := make([]xchain.Balance, 0, len(coins))
	for _, coin := range coins {
		amt, err := xchain.ParseBaseAmount(coin.Amount, Decimals)
		if err != nil {
			return nil, fmt.Errorf("%w: %s balance: %w", ErrInvalidResponse, coin.Denom, err)
		}
		out = append(out, xchain.Balance{Asset: AssetOf(coin.Denom), Amount: amt})
	}
	return out, nil
}

// Transactions returns the transactions address sent or received. Both
// event searches are run for the same page and merged by hash, newest first.
// Total is the sum of both search totals less the transactions found by both.
func (c *Client) Transactions(ctx context.Context, p xchain.TxHistoryParams) (*xchain.TxPage, error) {
	if err := c.validate(p.Address); err != nil {
		return nil, err
	}
	if p.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", ErrInvalidParams)
	}
	limit := p.PageLimit()
	page := p.Offset/limit + 1

	var sent, received *TxHistory
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sent, err = c.lcd.SearchTxs(gctx, SearchParams{MessageSender: p.Address, Page: page, Limit: limit})
		return err
	})
	g.Go(func() error {
		var err error
		received, err = c.lcd.SearchTxs(gctx, SearchParams{TransferRecipient: p.Address, Page: page, Limit: limit})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var merged []*TxResponse
	dups := 0
	for _, h := range []*TxHistory{sent, received} {
		for _, r := range h.Txs {
			if r == nil {
				continue
			}
			if seen[r.TxHash] {
				dups++
				continue
			}
			seen[r.TxHash] = true
			merged = append(merged, r)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Height > merged[j].Height })

	out := &xchain.TxPage{Total: int(sent.TotalCount) + int(received.TotalCount) - dups}
	for _, r := range merged {
		t, err := c.toTx(r)
		if err != nil {
			return nil, err
		}
		out.Txs = append(out.Txs, t)
	}
	return out, nil
}

// TransactionData returns the transaction txID.
func (c *Client) TransactionData(ctx context.Context, txID string) (*xchain.Tx, error) {
	r, err := c.lcd.Tx(ctx, txID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", xchain.ErrTxNotFound, txID)
		}
		return nil, err
	}
	return c.toTx(r)
}

// toTx maps a gateway transaction through the account view adapter.
func (c *Client) toTx(r *TxResponse) (*xchain.Tx, error) {
	v := &xchain.AccountTxView{Hash: r.TxHash}
	if r.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: timestamp %q of %s", ErrInvalidResponse, r.Timestamp, r.TxHash)
		}
		v.Time = ts.UTC()
	}
	for _, raw := range r.Tx.Body.Messages {
		v.Msgs = append(v.Msgs, accountMsg(raw))
	}
	return xchain.ChainTransactionView{Account: v}.ToTx(c.MainAsset(), Decimals)
}

// FeesWithRates returns the flat default fees. Cosmos fees do not scale
// with size, so Rates is zero.
func (c *Client) FeesWithRates(_ context.Context, _ string) (*xchain.FeesWithRates, error) {
	return &xchain.FeesWithRates{Fees: DefaultFees}, nil
}

// Transfer sends p.Amount of the main asset (or p.Asset) from the wallet
// address at p.WalletIndex. The account number and sequence come from the
// gateway; the fee is the fast default fee in the main denomination.
func (c *Client) Transfer(ctx context.Context, wc wallet.Context, p xchain.TransferParams) (string, error) {
	if err := c.validate(p.Recipient); err != nil {
		return "", err
	}
	asset := c.MainAsset()
	if p.Asset != nil {
		asset = *p.Asset
	}
	amount, ok := p.Amount.Uint64()
	if !ok || amount == 0 {
		return "", fmt.Errorf("%w: %s", xchain.ErrInvalidAmount, p.Amount)
	}

	h, err := wc.DeriveKey(wallet.CoinTypeCosmos, p.WalletIndex)
	if err != nil {
		return "", err
	}
	defer h.Release()
	priv, err := h.PrivateKey()
	if err != nil {
		return "", err
	}
	from, err := AddressFromPubKey(priv.PubKey(), c.prefix)
	if err != nil {
		return "", err
	}

	acct, err := c.lcd.Account(ctx, from)
	if err != nil {
		return "", fmt.Errorf("account %s: %w", from, err)
	}
	if acct.Address != "" && acct.Address != from {
		return "", fmt.Errorf("%w: account reply for %s, want %s", ErrInvalidResponse, acct.Address, from)
	}

	fee, _ := DefaultFees.Fast.Uint64()
	sendTx := &SendTx{
		From:          from,
		To:            p.Recipient,
		Amount:        []Coin{{Denom: Denom(asset), Amount: strconv.FormatUint(amount, 10)}},
		Memo:          p.Memo,
		Fee:           []Coin{{Denom: Denom(c.MainAsset()), Amount: strconv.FormatUint(fee, 10)}},
		GasLimit:      DefaultGasLimit,
		ChainID:       c.chainID,
		AccountNumber: acct.AccountNumber,
		Sequence:      acct.Sequence,
	}
	raw, err := sendTx.Sign(priv)
	if err != nil {
		return "", err
	}
	log.Debugf("transfer %s %s from %s to %s, sequence %d",
		sendTx.Amount[0].Amount, sendTx.Amount[0].Denom, from, p.Recipient, acct.Sequence)
	return c.BroadcastSigned(ctx, raw)
}

// BroadcastSigned submits protobuf-encoded signed transaction bytes and
// returns the transaction hash.
func (c *Client) BroadcastSigned(ctx context.Context, txBytes []byte) (string, error) {
	if len(txBytes) == 0 {
		return "", fmt.Errorf("%w: empty transaction", ErrInvalidParams)
	}
	hash, err := c.lcd.Broadcast(ctx, txBytes)
	if err != nil {
		return "", err
	}
	log.Infof("broadcast %s on %s", hash, c.chainID)
	return hash, nil
}
