// Package client implements the uniform wallet client surface for UTXO
// chains on top of the tx pipeline, a chain codec and a chain API service.
package client

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"golang.org/x/sync/errgroup"

	"github.com/bitfsorg/xchain-go/network"
	"github.com/bitfsorg/xchain-go/store"
	"github.com/bitfsorg/xchain-go/tx"
	"github.com/bitfsorg/xchain-go/wallet"
	"github.com/bitfsorg/xchain-go/xchain"
)

// historyFetchLimit bounds concurrent transaction lookups for one page.
const historyFetchLimit = 4

// Codec is a tx.Codec that can also derive its own addresses.
type Codec interface {
	tx.Codec
	PubKeyAddress(pub *ec.PublicKey) (string, error)
}

// Options configures a UTXOClient.
type Options struct {
	Network xchain.Network
	Params  ChainParams
	Codec   Codec
	Service network.UTXOService

	// Reservations, when set, excludes outpoints held by other in-flight
	// transfers from selection.
	Reservations store.ReservationStore

	// Select tunes coin selection. The zero value is confirmed-only,
	// largest-first, no dust folding.
	Select tx.SelectOptions

	// FallbackFeeRate is the fast-tier rate used when the service cannot
	// estimate one. Zero selects xchain.DefaultFeeRate.
	FallbackFeeRate tx.FeeRate
}

// UTXOClient is the xchain.Client of a UTXO chain.
type UTXOClient struct {
	net    xchain.Network
	params ChainParams
	codec  Codec
	svc    network.UTXOService
	rs     store.ReservationStore
	sel    tx.SelectOptions
	fbRate tx.FeeRate
}

var _ xchain.Client = (*UTXOClient)(nil)

// New validates opts and returns a client.
func New(opts Options) (*UTXOClient, error) {
	if opts.Codec == nil {
		return nil, fmt.Errorf("%w: codec", ErrNilParam)
	}
	if opts.Service == nil {
		return nil, fmt.Errorf("%w: service", ErrNilParam)
	}
	if _, err := wallet.ParseNetwork(string(opts.Network)); err != nil {
		return nil, err
	}
	fb := opts.FallbackFeeRate
	if fb == 0 {
		fb = xchain.DefaultFeeRate
	}
	if err := fb.Validate(); err != nil {
		return nil, err
	}
	return &UTXOClient{
		net:    opts.Network,
		params: opts.Params,
		codec:  opts.Codec,
		svc:    opts.Service,
		rs:     opts.Reservations,
		sel:    opts.Select,
		fbRate: fb,
	}, nil
}

func (c *UTXOClient) Chain() string { return c.params.Chain }

func (c *UTXOClient) Network() xchain.Network { return c.net }

// Params returns the chain parameters of the client.
func (c *UTXOClient) Params() ChainParams { return c.params }

func (c *UTXOClient) ExplorerURL() string { return c.params.explorerRoot(c.net) }

func (c *UTXOClient) ExplorerTxURL(txID string) string {
	return c.ExplorerURL() + c.params.TxPath + txID
}

func (c *UTXOClient) ExplorerAddressURL(address string) string {
	return c.ExplorerURL() + c.params.AddressPath + address
}

// coinType returns the BIP44 coin type used on the client's network.
func (c *UTXOClient) coinType() uint32 {
	if c.net.IsMainnet() {
		return c.params.CoinType
	}
	return wallet.CoinTypeTestnet
}

func (c *UTXOClient) checkContext(wc wallet.Context) error {
	if !wc.Valid() {
		return fmt.Errorf("%w: empty wallet context", wallet.ErrInvalidSeed)
	}
	if wc.Network().IsMainnet() != c.net.IsMainnet() {
		return fmt.Errorf("%w: wallet %s, client %s", ErrNetworkMismatch, wc.Network(), c.net)
	}
	return nil
}

// Address derives the P2PKH address at index under the wallet account.
func (c *UTXOClient) Address(wc wallet.Context, index uint32) (string, error) {
	if err := c.checkContext(wc); err != nil {
		return "", err
	}
	pub, err := wc.PublicKey(c.coinType(), index)
	if err != nil {
		return "", err
	}
	return c.codec.PubKeyAddress(pub)
}

// ValidateAddress reports whether address is a valid destination.
func (c *UTXOClient) ValidateAddress(address string) bool {
	return c.codec.ValidateAddress(address) == nil
}

func (c *UTXOClient) validate(address string) error {
	if err := c.codec.ValidateAddress(address); err != nil {
		return fmt.Errorf("%w: %w", xchain.ErrInvalidAddress, err)
	}
	return nil
}

// Balance returns the confirmed plus unconfirmed balance of address.
func (c *UTXOClient) Balance(ctx context.Context, address string) ([]xchain.Balance, error) {
	if err := c.validate(address); err != nil {
		return nil, err
	}
	sat, err := c.svc.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	return []xchain.Balance{{
		Asset:  c.params.Asset,
		Amount: xchain.NewBaseAmount(sat, c.params.Decimals),
	}}, nil
}

// Transactions returns one page of history. Entries the service reports
// without outputs are completed with concurrent GetTx lookups.
func (c *UTXOClient) Transactions(ctx context.Context, p xchain.TxHistoryParams) (*xchain.TxPage, error) {
	if err := c.validate(p.Address); err != nil {
		return nil, err
	}
	if p.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", tx.ErrInvalidParams)
	}
	list, err := c.svc.AddressTxs(ctx, p.Address, p.Offset, p.PageLimit())
	if err != nil {
		return nil, err
	}

	raws := make([]*network.RawTx, len(list.Txs))
	copy(raws, list.Txs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(historyFetchLimit)
	for i, r := range raws {
		if r == nil || len(r.Outputs) > 0 {
			continue
		}
		i, id := i, r.TxID
		g.Go(func() error {
			full, err := c.svc.GetTx(gctx, id)
			if err != nil {
				return fmt.Errorf("client: fetch %s: %w", id, err)
			}
			raws[i] = full
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := &xchain.TxPage{Total: list.Total}
	for _, r := range raws {
		if r == nil {
			continue
		}
		t, err := c.rawToTx(r)
		if err != nil {
			return nil, err
		}
		page.Txs = append(page.Txs, t)
	}
	return page, nil
}

// TransactionData returns the transaction txID.
func (c *UTXOClient) TransactionData(ctx context.Context, txID string) (*xchain.Tx, error) {
	raw, err := c.svc.GetTx(ctx, txID)
	if err != nil {
		if errors.Is(err, network.ErrTxNotFound) {
			return nil, fmt.Errorf("%w: %w", xchain.ErrTxNotFound, err)
		}
		return nil, err
	}
	return c.rawToTx(raw)
}

// rawToTx maps a service transaction through the UTXO view adapter.
func (c *UTXOClient) rawToTx(r *network.RawTx) (*xchain.Tx, error) {
	v := &xchain.UTXOTxView{Hash: r.TxID}
	if r.Time > 0 {
		v.Time = time.Unix(r.Time, 0).UTC()
	}
	for _, in := range r.Inputs {
		v.Inputs = append(v.Inputs, xchain.UTXOViewIO{Address: in.Address, Value: in.Value, Type: in.Type})
	}
	for _, out := range r.Outputs {
		v.Outputs = append(v.Outputs, xchain.UTXOViewIO{Address: out.Address, Value: out.Value, Type: out.Type})
	}
	return xchain.ChainTransactionView{UTXO: v}.ToTx(c.params.Asset, c.params.Decimals)
}

// FeeRates returns the three fee tiers derived from the service estimate,
// which is taken as the fast tier. When the service cannot estimate, the
// tiers are derived from the fallback rate.
func (c *UTXOClient) FeeRates(ctx context.Context) xchain.FeeRates {
	rate, err := c.svc.EstimateFeeRate(ctx)
	if err == nil {
		err = rate.Validate()
	}
	if err != nil || rate == 0 {
		log.Warnf("%s fee estimate unavailable, using %v sat/byte: %v", c.params.Chain, c.fbRate, err)
		rate = c.fbRate
	}
	return xchain.StandardFeeRates(rate)
}

// FeesWithRates quotes the fee of a minimal transfer carrying memo at each
// tier.
func (c *UTXOClient) FeesWithRates(ctx context.Context, memo string) (*xchain.FeesWithRates, error) {
	if memo != "" {
		if _, err := tx.CompileMemo(memo); err != nil {
			return nil, err
		}
	}
	rates := c.FeeRates(ctx)
	quote := func(r tx.FeeRate) xchain.BaseAmount {
		return xchain.NewBaseAmount(tx.CalcFee(r, memo), c.params.Decimals)
	}
	return &xchain.FeesWithRates{
		Rates: rates,
		Fees: xchain.Fees{
			Type:    xchain.FeeTypeByte,
			Average: quote(rates.Average),
			Fast:    quote(rates.Fast),
			Fastest: quote(rates.Fastest),
		},
	}, nil
}

// Fees returns only the fee quotes of FeesWithRates.
func (c *UTXOClient) Fees(ctx context.Context, memo string) (*xchain.Fees, error) {
	fw, err := c.FeesWithRates(ctx, memo)
	if err != nil {
		return nil, err
	}
	return &fw.Fees, nil
}

// Transfer runs validate, collect, select, assemble, sign and broadcast for
// one payment and returns the transaction hash. A failure is a
// *TransferError naming the stage; rejections are never retried.
func (c *UTXOClient) Transfer(ctx context.Context, wc wallet.Context, p xchain.TransferParams) (string, error) {
	plan, err := c.plan(ctx, wc, p)
	if err != nil {
		return "", err
	}

	ref, err := c.reserve(plan)
	if err != nil {
		return "", stageErr(StageSelect, err)
	}
	release := func() {
		if c.rs == nil {
			return
		}
		if err := c.rs.ReleaseByRef(ref); err != nil {
			log.Errorf("release reservation %s: %v", ref, err)
		}
	}

	signed, err := c.sign(wc, p.WalletIndex, plan)
	if err != nil {
		release()
		return "", stageErr(StageSign, err)
	}

	log.Debugf("%s broadcasting %s (%d bytes)", c.params.Chain, signed.TxID, len(signed.Raw))
	txid, err := c.svc.BroadcastTx(ctx, signed.Hex())
	if err != nil {
		release()
		return "", stageErr(StageBroadcast, err)
	}
	if txid == "" {
		txid = signed.TxID
	} else if txid != signed.TxID {
		log.Warnf("%s service reported txid %s for %s", c.params.Chain, txid, signed.TxID)
	}
	log.Infof("%s transfer %s: %d to %s, fee %d", c.params.Chain, txid,
		plan.amount, p.Recipient, plan.unsigned.Fee)
	return txid, nil
}

// BuildTransfer runs every stage of Transfer except broadcast and returns
// the finalized transaction. No reservation is taken.
func (c *UTXOClient) BuildTransfer(ctx context.Context, wc wallet.Context, p xchain.TransferParams) (*tx.SignedTx, error) {
	plan, err := c.plan(ctx, wc, p)
	if err != nil {
		return nil, err
	}
	signed, err := c.sign(wc, p.WalletIndex, plan)
	if err != nil {
		return nil, stageErr(StageSign, err)
	}
	return signed, nil
}

// transferPlan is the state carried from selection to signing.
type transferPlan struct {
	sender   string
	amount   uint64
	unsigned *tx.UnsignedTx
}

// plan runs the validate, collect, select and assemble stages.
func (c *UTXOClient) plan(ctx context.Context, wc wallet.Context, p xchain.TransferParams) (*transferPlan, error) {
	// Validate: no I/O happens before the destination is known good.
	if err := c.validate(p.Recipient); err != nil {
		return nil, stageErr(StageValidate, err)
	}
	if p.Asset != nil && *p.Asset != c.params.Asset {
		return nil, stageErr(StageValidate, fmt.Errorf("%w: asset %s on %s", xchain.ErrNotSupported, p.Asset, c.params.Chain))
	}
	amount, ok := p.Amount.Uint64()
	if !ok || amount == 0 {
		return nil, stageErr(StageValidate, fmt.Errorf("%w: %s", xchain.ErrInvalidAmount, p.Amount))
	}
	var memo []byte
	if p.Memo != "" {
		m, err := tx.CompileMemo(p.Memo)
		if err != nil {
			return nil, stageErr(StageValidate, err)
		}
		memo = m
	}
	sender, err := c.Address(wc, p.WalletIndex)
	if err != nil {
		return nil, stageErr(StageValidate, err)
	}

	rate := p.FeeRate
	if rate == 0 {
		rate = c.FeeRates(ctx).Fast
	}
	if err := rate.Validate(); err != nil {
		return nil, stageErr(StageValidate, err)
	}

	// Collect.
	confirmedOnly := c.sel.EffectiveConfirmedOnly(memo)
	utxos, err := c.svc.ListUnspent(ctx, sender, confirmedOnly)
	if err != nil {
		return nil, stageErr(StageCollect, err)
	}
	utxos, err = c.withoutReserved(sender, utxos, !confirmedOnly)
	if err != nil {
		return nil, stageErr(StageCollect, err)
	}
	log.Debugf("%s collected %d utxos for %s (confirmedOnly=%v)", c.params.Chain, len(utxos), sender, confirmedOnly)

	// Select.
	targets := []tx.SpendTarget{{Address: p.Recipient, Amount: amount}}
	sel, err := tx.SelectInputs(utxos, targets, rate, memo, c.sel)
	if err != nil {
		return nil, stageErr(StageSelect, err)
	}

	// Assemble.
	unsigned, err := tx.Assemble(sel, targets, sender, memo)
	if err != nil {
		return nil, stageErr(StageAssemble, err)
	}
	return &transferPlan{sender: sender, amount: amount, unsigned: unsigned}, nil
}

// withoutReserved drops outpoints held by other in-flight transfers. When
// utxos is the complete unspent set of address, stale reservations of
// outpoints no longer unspent are cleared first.
func (c *UTXOClient) withoutReserved(address string, utxos []*tx.UTXO, complete bool) ([]*tx.UTXO, error) {
	if c.rs == nil {
		return utxos, nil
	}
	if complete {
		live := make(map[string]bool, len(utxos))
		for _, u := range utxos {
			live[u.Outpoint()] = true
		}
		if _, err := c.rs.Reconcile(address, live); err != nil {
			return nil, err
		}
	}
	held, err := c.rs.Reserved(address)
	if err != nil {
		return nil, err
	}
	if len(held) == 0 {
		return utxos, nil
	}
	out := make([]*tx.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if !held[u.Outpoint()] {
			out = append(out, u)
		}
	}
	return out, nil
}

// reserve takes the selected outpoints for this transfer.
func (c *UTXOClient) reserve(plan *transferPlan) (string, error) {
	if c.rs == nil {
		return "", nil
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("client: reservation ref: %w", err)
	}
	ref := hex.EncodeToString(b[:])
	ops := make([]string, len(plan.unsigned.Inputs))
	for i, u := range plan.unsigned.Inputs {
		ops[i] = u.Outpoint()
	}
	if err := c.rs.Reserve(plan.sender, ops, ref); err != nil {
		return "", err
	}
	return ref, nil
}

// sign derives the sender key into a scoped handle, signs every input with
// it and releases the handle.
func (c *UTXOClient) sign(wc wallet.Context, index uint32, plan *transferPlan) (*tx.SignedTx, error) {
	h, err := wc.DeriveKey(c.coinType(), index)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	priv, err := h.PrivateKey()
	if err != nil {
		return nil, err
	}
	resolver := func(i int, u *tx.UTXO) (*ec.PrivateKey, error) {
		if u.Address != "" && u.Address != plan.sender {
			return nil, fmt.Errorf("input %d belongs to %s, not %s", i, u.Address, plan.sender)
		}
		return priv, nil
	}
	return tx.Sign(c.codec, plan.unsigned, resolver)
}
