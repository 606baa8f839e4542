package client

import (
	"strings"

	"github.com/bitfsorg/xchain-go/chains/bsv"
	"github.com/bitfsorg/xchain-go/chains/btc"
	"github.com/bitfsorg/xchain-go/chains/dcr"
	"github.com/bitfsorg/xchain-go/network"
	"github.com/bitfsorg/xchain-go/wallet"
	"github.com/bitfsorg/xchain-go/xchain"
)

// Decimals of every supported UTXO chain.
const utxoDecimals = 8

// ChainParams describes one UTXO chain.
type ChainParams struct {
	Chain    string
	Asset    xchain.Asset
	Decimals int32
	// CoinType is the BIP44 coin type on mainnet; test networks use
	// wallet.CoinTypeTestnet.
	CoinType uint32

	// Explorer roots per network and the path formats appended to them.
	MainnetExplorer string
	TestnetExplorer string
	AddressPath     string // e.g. "/address/"
	TxPath          string // e.g. "/tx/"

	// Public Insight indexer roots, empty when the chain has none.
	MainnetIndexer string
	TestnetIndexer string
}

// Native assets.
var (
	AssetBSV = xchain.Asset{Chain: "BSV", Symbol: "BSV", Ticker: "BSV"}
	AssetBTC = xchain.Asset{Chain: "BTC", Symbol: "BTC", Ticker: "BTC"}
	AssetDCR = xchain.Asset{Chain: "DCR", Symbol: "DCR", Ticker: "DCR"}
)

// BSVParams are the Bitcoin SV chain parameters.
var BSVParams = ChainParams{
	Chain:           "BSV",
	Asset:           AssetBSV,
	Decimals:        utxoDecimals,
	CoinType:        wallet.CoinTypeBSV,
	MainnetExplorer: "https://whatsonchain.com",
	TestnetExplorer: "https://test.whatsonchain.com",
	AddressPath:     "/address/",
	TxPath:          "/tx/",
}

// BTCParams are the Bitcoin chain parameters.
var BTCParams = ChainParams{
	Chain:           "BTC",
	Asset:           AssetBTC,
	Decimals:        utxoDecimals,
	CoinType:        wallet.CoinTypeBTC,
	MainnetExplorer: "https://blockstream.info",
	TestnetExplorer: "https://blockstream.info/testnet",
	AddressPath:     "/address/",
	TxPath:          "/tx/",
}

// DCRParams are the Decred chain parameters.
var DCRParams = ChainParams{
	Chain:           "DCR",
	Asset:           AssetDCR,
	Decimals:        utxoDecimals,
	CoinType:        wallet.CoinTypeDecred,
	MainnetExplorer: "https://dcrdata.decred.org",
	TestnetExplorer: "https://testnet.dcrdata.org",
	AddressPath:     "/address/",
	TxPath:          "/tx/",
	MainnetIndexer:  "https://dcrdata.decred.org/insight/api",
	TestnetIndexer:  "https://testnet.dcrdata.org/insight/api",
}

// NewBSV returns a Bitcoin SV client for net backed by svc.
func NewBSV(net xchain.Network, svc network.UTXOService) (*UTXOClient, error) {
	return New(Options{
		Network: net,
		Params:  BSVParams,
		Codec:   bsv.NewCodec(net.IsMainnet()),
		Service: svc,
	})
}

// NewBTC returns a Bitcoin client for net backed by svc.
func NewBTC(net xchain.Network, svc network.UTXOService) (*UTXOClient, error) {
	codec := btc.Testnet()
	if net.IsMainnet() {
		codec = btc.Mainnet()
	}
	return New(Options{
		Network: net,
		Params:  BTCParams,
		Codec:   codec,
		Service: svc,
	})
}

// NewDCR returns a Decred client for net backed by svc.
func NewDCR(net xchain.Network, svc network.UTXOService) (*UTXOClient, error) {
	codec := dcr.Testnet()
	if net.IsMainnet() {
		codec = dcr.Mainnet()
	}
	return New(Options{
		Network: net,
		Params:  DCRParams,
		Codec:   codec,
		Service: svc,
	})
}

// IndexerURL returns the public indexer root for net, or "".
func (p ChainParams) IndexerURL(net xchain.Network) string {
	if net.IsMainnet() {
		return p.MainnetIndexer
	}
	return p.TestnetIndexer
}

// explorerRoot returns the explorer base URL for the client's network.
func (p ChainParams) explorerRoot(net xchain.Network) string {
	root := p.TestnetExplorer
	if net.IsMainnet() {
		root = p.MainnetExplorer
	}
	return strings.TrimRight(root, "/")
}
