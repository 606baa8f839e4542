package cosmos

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/xchain-go/wallet"
	"github.com/bitfsorg/xchain-go/xchain"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testWallet(t *testing.T) wallet.Context {
	t.Helper()
	wc, err := wallet.NewContextFromMnemonic(testMnemonic, "", wallet.Mainnet, 0)
	require.NoError(t, err)
	return wc
}

// lcdServer serves canned replies keyed by request path, or by path plus
// raw query when that key exists.
func lcdServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path+"?"+r.URL.RawQuery]; ok {
			h(w, r)
			return
		}
		if h, ok := routes[r.URL.Path]; ok {
			h(w, r)
			return
		}
		http.Error(w, `{"code":5,"message":"not found"}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Options{Network: wallet.Mainnet, Server: srv.URL})
	require.NoError(t, err)
	return c
}

func TestAddress_Bech32(t *testing.T) {
	c, err := New(Options{Network: wallet.Mainnet})
	require.NoError(t, err)
	wc := testWallet(t)

	addr, err := c.Address(wc, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr, "cosmos1"))
	assert.Len(t, addr, 45)
	assert.True(t, c.ValidateAddress(addr))

	pub, err := wc.PublicKey(wallet.CoinTypeCosmos, 0)
	require.NoError(t, err)
	payload, err := DecodeAddress(addr, DefaultPrefix)
	require.NoError(t, err)
	assert.Equal(t, btcutil.Hash160(pub.Compressed()), payload)

	next, err := c.Address(wc, 1)
	require.NoError(t, err)
	assert.NotEqual(t, addr, next)

	_, err = c.Address(wallet.Context{}, 0)
	assert.ErrorIs(t, err, wallet.ErrInvalidSeed)
}

func TestValidateAddress(t *testing.T) {
	c, err := New(Options{Network: wallet.Mainnet})
	require.NoError(t, err)

	valid, err := encodeAddress(DefaultPrefix, make([]byte, 20))
	require.NoError(t, err)
	assert.True(t, c.ValidateAddress(valid))

	other, err := encodeAddress("osmo", make([]byte, 20))
	require.NoError(t, err)
	assert.False(t, c.ValidateAddress(other), "foreign prefix")

	short, err := encodeAddress(DefaultPrefix, make([]byte, 19))
	require.NoError(t, err)
	assert.False(t, c.ValidateAddress(short), "payload length")

	assert.False(t, c.ValidateAddress(""))
	last := "q"
	if strings.HasSuffix(valid, "q") {
		last = "p"
	}
	assert.False(t, c.ValidateAddress(valid[:len(valid)-1]+last), "checksum")
	assert.False(t, c.ValidateAddress("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"))

	_, err = AddressFromPubKey(nil, DefaultPrefix)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func testAddress(t *testing.T, b byte) string {
	t.Helper()
	payload := make([]byte, 20)
	payload[19] = b
	addr, err := encodeAddress(DefaultPrefix, payload)
	require.NoError(t, err)
	return addr
}

func TestBalance_PerDenom(t *testing.T) {
	addr := testAddress(t, 1)
	srv := lcdServer(t, map[string]http.HandlerFunc{
		"/cosmos/bank/v1beta1/balances/" + addr: reply(`{"balances":[
			{"denom":"uatom","amount":"12345678"},
			{"denom":"ibc/27394FB092D2ECCD","amount":"5"}]}`),
	})
	c := newTestClient(t, srv)

	bals, err := c.Balance(context.Background(), addr)
	require.NoError(t, err)
	require.Len(t, bals, 2)
	assert.Equal(t, AssetAtom, bals[0].Asset)
	assert.Equal(t, "12.345678", bals[0].Amount.Format())
	assert.Equal(t, "ibc/27394FB092D2ECCD", bals[1].Asset.Symbol)

	_, err = c.Balance(context.Background(), "cosmos1bogus")
	assert.ErrorIs(t, err, xchain.ErrInvalidAddress)
}

func msgSendJSON(from, to, amount string) string {
	return `{"@type":"/cosmos.bank.v1beta1.MsgSend","from_address":"` + from +
		`","to_address":"` + to + `","amount":[{"denom":"uatom","amount":"` + amount + `"}]}`
}

func txJSON(hash string, height int, msgs ...string) string {
	return `{"height":"` + itoa(height) + `","txhash":"` + hash +
		`","timestamp":"2021-03-04T05:06:07Z","tx":{"body":{"messages":[` +
		strings.Join(msgs, ",") + `]}}}`
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestTransactions_MergesSentAndReceived(t *testing.T) {
	me, peer, third := testAddress(t, 1), testAddress(t, 2), testAddress(t, 3)
	multi := `{"@type":"/cosmos.bank.v1beta1.MsgMultiSend",
		"inputs":[{"address":"` + peer + `","coins":[{"denom":"uatom","amount":"30"}]}],
		"outputs":[{"address":"` + me + `","coins":[{"denom":"uatom","amount":"10"}]},
		           {"address":"` + third + `","coins":[{"denom":"uatom","amount":"20"}]}]}`
	delegate := `{"@type":"/cosmos.staking.v1beta1.MsgDelegate","delegator_address":"` + me + `"}`

	srv := lcdServer(t, map[string]http.HandlerFunc{
		"/txs?limit=10&message.sender=" + me + "&page=1": reply(`{"total_count":"2","txs":[` +
			txJSON("AA", 100, msgSendJSON(me, peer, "1000"), msgSendJSON(me, peer, "500")) + `,` +
			txJSON("DD", 90, delegate) + `]}`),
		"/txs?limit=10&page=1&transfer.recipient=" + me: reply(`{"total_count":2,"txs":[` +
			txJSON("BB", 120, multi) + `,` +
			txJSON("AA", 100, msgSendJSON(me, peer, "1000"), msgSendJSON(me, peer, "500")) + `]}`),
	})
	c := newTestClient(t, srv)

	page, err := c.Transactions(context.Background(), xchain.TxHistoryParams{Address: me})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Txs, 3)

	bb, aa, dd := page.Txs[0], page.Txs[1], page.Txs[2]
	assert.Equal(t, "BB", bb.Hash)
	assert.Equal(t, "AA", aa.Hash)
	assert.Equal(t, "DD", dd.Hash)

	// Two sends between the same pair aggregate into one entry per side.
	require.Len(t, aa.From, 1)
	assert.Equal(t, me, aa.From[0].From)
	assert.Equal(t, "1500", aa.From[0].Amount.String())
	require.Len(t, aa.To, 1)
	assert.Equal(t, peer, aa.To[0].To)
	assert.Equal(t, AssetAtom, aa.Asset)
	assert.Equal(t, time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC), aa.Date)

	require.Len(t, bb.To, 2)
	assert.Equal(t, "10", bb.To[0].Amount.String())
	assert.Equal(t, third, bb.To[1].To)

	assert.Equal(t, xchain.TxUnknown, dd.Type)
	assert.Empty(t, dd.From)
}

func TestTransactions_Paging(t *testing.T) {
	me := testAddress(t, 1)
	var (
		mu      sync.Mutex
		queries []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("page")+"/"+r.URL.Query().Get("limit"))
		mu.Unlock()
		_, _ = io.WriteString(w, `{"total_count":"0","txs":[]}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv)

	page, err := c.Transactions(context.Background(), xchain.TxHistoryParams{Address: me, Offset: 50, Limit: 25})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Txs)
	assert.Equal(t, []string{"3/25", "3/25"}, queries)

	_, err = c.Transactions(context.Background(), xchain.TxHistoryParams{Address: me, Offset: -1})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestTransactionData(t *testing.T) {
	me, peer := testAddress(t, 1), testAddress(t, 2)
	srv := lcdServer(t, map[string]http.HandlerFunc{
		"/txs/AA": reply(txJSON("AA", 7, msgSendJSON(me, peer, "42"))),
	})
	c := newTestClient(t, srv)

	tx, err := c.TransactionData(context.Background(), "AA")
	require.NoError(t, err)
	assert.Equal(t, xchain.TxTransfer, tx.Type)
	assert.Equal(t, "0.000042", tx.To[0].Amount.AssetAmount().String())

	_, err = c.TransactionData(context.Background(), "FF")
	assert.ErrorIs(t, err, xchain.ErrTxNotFound)
}

func TestBroadcastSigned(t *testing.T) {
	raw := []byte{0x0a, 0x01, 0x02}
	var got map[string]string
	srv := lcdServer(t, map[string]http.HandlerFunc{
		"/cosmos/tx/v1beta1/txs": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			if got["tx_bytes"] == base64.StdEncoding.EncodeToString(raw) {
				_, _ = io.WriteString(w, `{"tx_response":{"txhash":"ABCDEF","code":0}}`)
				return
			}
			_, _ = io.WriteString(w, `{"tx_response":{"txhash":"","code":4,"raw_log":"signature verification failed"}}`)
		},
	})
	c := newTestClient(t, srv)

	hash, err := c.BroadcastSigned(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", hash)
	assert.Equal(t, "BROADCAST_MODE_SYNC", got["mode"])

	_, err = c.BroadcastSigned(context.Background(), []byte{0xff})
	assert.ErrorIs(t, err, ErrBroadcastRejected)
	assert.Contains(t, err.Error(), "signature verification failed")

	_, err = c.BroadcastSigned(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestTransfer_SignsAndBroadcasts(t *testing.T) {
	wc := testWallet(t)
	to := testAddress(t, 5)
	var mu sync.Mutex
	var txBytes []byte

	c0, err := New(Options{Network: wallet.Mainnet})
	require.NoError(t, err)
	from, err := c0.Address(wc, 0)
	require.NoError(t, err)

	srv := lcdServer(t, map[string]http.HandlerFunc{
		"/cosmos/auth/v1beta1/accounts/" + from: reply(`{"account":{"@type":"/cosmos.auth.v1beta1.BaseAccount",
			"address":"` + from + `","account_number":"12","sequence":"7"}}`),
		"/cosmos/tx/v1beta1/txs": func(w http.ResponseWriter, r *http.Request) {
			var req map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			raw, err := base64.StdEncoding.DecodeString(req["tx_bytes"])
			assert.NoError(t, err)
			mu.Lock()
			txBytes = raw
			mu.Unlock()
			_, _ = io.WriteString(w, `{"tx_response":{"txhash":"C0FFEE","code":0}}`)
		},
	})
	c := newTestClient(t, srv)

	hash, err := c.Transfer(context.Background(), wc, xchain.TransferParams{
		Amount:    xchain.NewBaseAmount(1500, Decimals),
		Recipient: to,
		Memo:      "thanks",
	})
	require.NoError(t, err)
	assert.Equal(t, "C0FFEE", hash)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, txBytes)
	body, authInfo, sigs := txRawFields(t, txBytes)
	require.Len(t, sigs, 1)

	pub, err := wc.PublicKey(wallet.CoinTypeCosmos, 0)
	require.NoError(t, err)
	want := &SendTx{
		From:     from,
		To:       to,
		Amount:   []Coin{{Denom: "uatom", Amount: "1500"}},
		Memo:     "thanks",
		Fee:      []Coin{{Denom: "uatom", Amount: "750"}},
		GasLimit: DefaultGasLimit,
		Sequence: 7,
	}
	assert.Equal(t, want.BodyBytes(), body)
	assert.Equal(t, want.AuthInfoBytes(pub.Compressed()), authInfo)
	assert.True(t, VerifyDirect(pub.Compressed(), SignDocBytes(body, authInfo, MainnetChainID, 12), sigs[0]))
}

func TestTransfer_Validation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"code":5,"message":"account not found"}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv)
	wc := testWallet(t)

	_, err := c.Transfer(context.Background(), wc, xchain.TransferParams{
		Amount: xchain.NewBaseAmount(1, Decimals), Recipient: "cosmos1invalid",
	})
	assert.ErrorIs(t, err, xchain.ErrInvalidAddress)

	_, err = c.Transfer(context.Background(), wc, xchain.TransferParams{
		Amount: xchain.NewBaseAmount(0, Decimals), Recipient: testAddress(t, 2),
	})
	assert.ErrorIs(t, err, xchain.ErrInvalidAmount)

	_, err = c.Transfer(context.Background(), wallet.Context{}, xchain.TransferParams{
		Amount: xchain.NewBaseAmount(1, Decimals), Recipient: testAddress(t, 2),
	})
	assert.ErrorIs(t, err, wallet.ErrInvalidSeed)
	assert.Zero(t, calls.Load())

	_, err = c.Transfer(context.Background(), wc, xchain.TransferParams{
		Amount: xchain.NewBaseAmount(1, Decimals), Recipient: testAddress(t, 2),
	})
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAccount(t *testing.T) {
	me := testAddress(t, 1)
	srv := lcdServer(t, map[string]http.HandlerFunc{
		"/cosmos/auth/v1beta1/accounts/" + me: reply(`{"account":{"@type":"/cosmos.auth.v1beta1.BaseAccount",
			"address":"` + me + `","account_number":"12","sequence":"7"}}`),
	})
	c := newTestClient(t, srv)

	acct, err := c.LCD().Account(context.Background(), me)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), acct.AccountNumber)
	assert.Equal(t, uint64(7), acct.Sequence)

	_, err = c.LCD().Account(context.Background(), testAddress(t, 9))
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestFeesAndTransfer(t *testing.T) {
	c, err := New(Options{Network: wallet.Testnet})
	require.NoError(t, err)

	fw, err := c.FeesWithRates(context.Background(), "memo")
	require.NoError(t, err)
	assert.Equal(t, xchain.FeeTypeBase, fw.Fees.Type)
	assert.Equal(t, "0", fw.Fees.Average.String())
	assert.Equal(t, "750", fw.Fees.Fast.String())
	assert.Equal(t, "2500", fw.Fees.Fastest.String())

	_, err = c.Transfer(context.Background(), testWallet(t), xchain.TransferParams{})
	assert.ErrorIs(t, err, xchain.ErrInvalidAddress)

	assert.Equal(t, AssetMuon, c.MainAsset())
	assert.Equal(t, TestnetChainID, c.ChainID())
}

func TestExplorerURLs(t *testing.T) {
	main, err := New(Options{Network: wallet.Mainnet})
	require.NoError(t, err)
	assert.Equal(t, "https://cosmos.bigdipper.live/account/A", main.ExplorerAddressURL("A"))
	assert.Equal(t, "https://cosmos.bigdipper.live/transactions/T", main.ExplorerTxURL("T"))

	test, err := New(Options{Network: wallet.Testnet})
	require.NoError(t, err)
	assert.Equal(t, "https://gaia.bigdipper.live", test.ExplorerURL())
}

func TestDenoms(t *testing.T) {
	assert.Equal(t, "uatom", Denom(AssetAtom))
	assert.Equal(t, "umuon", Denom(AssetMuon))
	assert.Equal(t, AssetAtom, AssetOf("uatom"))
	assert.Equal(t, "uosmo", AssetOf("uosmo").Symbol)
}
