package xchain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAsset = Asset{Chain: "TEST", Symbol: "TST", Ticker: "TST"}

func TestToTx_RequiresExactlyOneVariant(t *testing.T) {
	_, err := ChainTransactionView{}.ToTx(testAsset, 8)
	assert.ErrorIs(t, err, ErrInvalidView)

	_, err = ChainTransactionView{UTXO: &UTXOTxView{}, Rosetta: &RosettaTxView{}}.ToTx(testAsset, 8)
	assert.ErrorIs(t, err, ErrInvalidView)
}

func TestToTx_UTXO(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	view := ChainTransactionView{UTXO: &UTXOTxView{
		Hash: "h1",
		Time: ts,
		Inputs: []UTXOViewIO{
			{Address: "a", Value: 8800},
			{Address: "a", Value: 15073},
		},
		Outputs: []UTXOViewIO{
			{Address: "b", Value: 2223, Type: "pubkeyhash"},
			{Value: 0, Type: "nulldata"},
			{Address: "a", Value: 20650, Type: "pubkeyhash"},
		},
	}}
	got, err := view.ToTx(testAsset, 8)
	require.NoError(t, err)
	assert.Equal(t, "h1", got.Hash)
	assert.Equal(t, ts, got.Date)
	assert.Equal(t, TxTransfer, got.Type)
	require.Len(t, got.From, 2, "inputs are not aggregated")
	require.Len(t, got.To, 2, "nulldata output dropped")
	assert.Equal(t, "b", got.To[0].To)
	assert.Equal(t, "2223", got.To[0].Amount.String())
}

func TestToTx_AccountAggregates(t *testing.T) {
	view := ChainTransactionView{Account: &AccountTxView{
		Hash: "c1",
		Msgs: []AccountMsg{
			{Send: &MsgSend{FromAddress: "alice", ToAddress: "bob", Amount: []Coin{{Denom: "uatom", Amount: "100"}}}},
			{Send: &MsgSend{FromAddress: "alice", ToAddress: "carol", Amount: []Coin{{Denom: "uatom", Amount: "50"}, {Denom: "uatom", Amount: "5"}}}},
			{MultiSend: &MsgMultiSend{
				Inputs:  []BankIO{{Address: "dave", Coins: []Coin{{Denom: "uatom", Amount: "30"}}}, {Coins: []Coin{{Amount: "1"}}}},
				Outputs: []BankIO{{Address: "bob", Coins: []Coin{{Denom: "uatom", Amount: "30"}}}},
			}},
			{}, // non-bank message
		},
	}}
	got, err := view.ToTx(testAsset, 6)
	require.NoError(t, err)
	assert.Equal(t, TxTransfer, got.Type)

	require.Len(t, got.From, 2)
	assert.Equal(t, "alice", got.From[0].From)
	assert.Equal(t, "155", got.From[0].Amount.String())
	assert.Equal(t, "dave", got.From[1].From)

	require.Len(t, got.To, 2)
	assert.Equal(t, "bob", got.To[0].To)
	assert.Equal(t, "130", got.To[0].Amount.String())
	assert.Equal(t, "carol", got.To[1].To)
	assert.Equal(t, "55", got.To[1].Amount.String())
}

func TestToTx_AccountUnknown(t *testing.T) {
	got, err := ChainTransactionView{Account: &AccountTxView{Hash: "x", Msgs: []AccountMsg{{}}}}.ToTx(testAsset, 6)
	require.NoError(t, err)
	assert.Equal(t, TxUnknown, got.Type)

	_, err = ChainTransactionView{Account: &AccountTxView{Msgs: []AccountMsg{
		{Send: &MsgSend{Amount: []Coin{{Amount: "1.5"}}}},
	}}}.ToTx(testAsset, 6)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestToTx_Rosetta(t *testing.T) {
	view := ChainTransactionView{Rosetta: &RosettaTxView{
		Hash: "0xabc",
		Operations: []RosettaOp{
			{Type: "input", Address: "0xfrom", Value: "-1000000000000000000"},
			{Type: "output", Address: "0xto", Value: "1000000000000000000"},
			{Type: "Transfer", Address: "0xfrom", Value: "-5"},
			{Type: "Transfer", Address: "0xto", Value: "5"},
			{Type: "Fee", Address: "0xfrom", Value: "-21000"},
		},
	}}
	got, err := view.ToTx(testAsset, 18)
	require.NoError(t, err)
	require.Len(t, got.From, 2)
	require.Len(t, got.To, 2)
	assert.Equal(t, "0xfrom", got.From[0].From)
	assert.Equal(t, "1000000000000000000", got.From[0].Amount.String())
	assert.Equal(t, "5", got.From[1].Amount.String())
	assert.Equal(t, "0xto", got.To[1].To)
}
