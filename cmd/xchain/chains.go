package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bitfsorg/xchain-go/chains/bsv"
	"github.com/bitfsorg/xchain-go/chains/btc"
	"github.com/bitfsorg/xchain-go/chains/cosmos"
	"github.com/bitfsorg/xchain-go/chains/dcr"
	"github.com/bitfsorg/xchain-go/chains/vechain"
	"github.com/bitfsorg/xchain-go/client"
	"github.com/bitfsorg/xchain-go/config"
	"github.com/bitfsorg/xchain-go/network"
	"github.com/bitfsorg/xchain-go/store"
	"github.com/bitfsorg/xchain-go/tx"
	"github.com/bitfsorg/xchain-go/wallet"
	"github.com/bitfsorg/xchain-go/xchain"
)

// chainInfo describes a chain the command line knows.
type chainInfo struct {
	name     string // config key
	asset    xchain.Asset
	decimals int32
	utxo     bool

	// UTXO chains only.
	params client.ChainParams
	codec  func(mainnet bool) client.Codec
}

func utxoChain(name string, params client.ChainParams, codec func(mainnet bool) client.Codec) chainInfo {
	return chainInfo{
		name:     name,
		asset:    params.Asset,
		decimals: params.Decimals,
		utxo:     true,
		params:   params,
		codec:    codec,
	}
}

var chainInfos = map[string]chainInfo{
	config.ChainBSV: utxoChain(config.ChainBSV, client.BSVParams, func(mainnet bool) client.Codec {
		return bsv.NewCodec(mainnet)
	}),
	config.ChainBTC: utxoChain(config.ChainBTC, client.BTCParams, func(mainnet bool) client.Codec {
		if mainnet {
			return btc.Mainnet()
		}
		return btc.Testnet()
	}),
	config.ChainDCR: utxoChain(config.ChainDCR, client.DCRParams, func(mainnet bool) client.Codec {
		if mainnet {
			return dcr.Mainnet()
		}
		return dcr.Testnet()
	}),
	config.ChainCosmos:  {name: config.ChainCosmos, asset: cosmos.AssetAtom, decimals: cosmos.Decimals},
	config.ChainVeChain: {name: config.ChainVeChain, asset: vechain.AssetVET, decimals: vechain.Decimals},
}

// chainNames returns the supported chain names, sorted.
func chainNames() []string {
	names := make([]string, 0, len(chainInfos))
	for name := range chainInfos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookupChain resolves a chain argument, accepting names and tickers in
// any case.
func lookupChain(arg string) (chainInfo, error) {
	a := strings.ToLower(arg)
	switch a {
	case "bitcoin":
		a = config.ChainBTC
	case "atom", "gaia":
		a = config.ChainCosmos
	case "vet":
		a = config.ChainVeChain
	case "decred":
		a = config.ChainDCR
	}
	info, ok := chainInfos[a]
	if !ok {
		return chainInfo{}, fmt.Errorf("unsupported chain %q (supported: %s)", arg, strings.Join(chainNames(), ", "))
	}
	return info, nil
}

// rpcEnv returns the RPC environment variables that are set.
func rpcEnv() map[string]string {
	env := make(map[string]string)
	for _, k := range []string{network.EnvRPCURL, network.EnvRPCUser, network.EnvRPCPass} {
		if v := os.Getenv(k); v != "" {
			env[k] = v
		}
	}
	return env
}

// utxoService returns the node or indexer backend configured for a UTXO
// chain. An indexer without a url falls back to the chain's public one.
func utxoService(info chainInfo, cc config.ChainConfig, net wallet.Network) (network.UTXOService, error) {
	if config.BackendOf(info.name, cc) == config.BackendIndexer {
		rc := cc.RPCConfig(string(net))
		if rc.URL == "" {
			rc.URL = info.params.IndexerURL(net)
		}
		if rc.URL == "" {
			return nil, fmt.Errorf("chains.%s: the indexer backend needs a url", info.name)
		}
		return network.NewIndexerClient(*rc), nil
	}
	rpc, err := network.ResolveConfig(cc.RPCConfig(string(net)), rpcEnv(), string(net))
	if err != nil {
		return nil, err
	}
	return network.NewRPCClient(*rpc), nil
}

// openClient builds the client of info from cfg. With reservations set, UTXO
// clients persist in-flight inputs in the data directory; the returned
// closer releases the database.
func openClient(info chainInfo, reservations bool) (xchain.Client, func(), error) {
	net := currentNetwork()
	cc := cfg.Chain(info.name)
	noop := func() {}

	switch info.name {
	case config.ChainCosmos:
		c, err := cosmos.New(cosmos.Options{Network: net, Server: cc.URL, Timeout: cc.TimeoutDuration()})
		return c, noop, err
	case config.ChainVeChain:
		c, err := vechain.New(vechain.Options{
			Network: net,
			Server:  cc.URL,
			APIKey:  cc.APIKey,
			Timeout: cc.TimeoutDuration(),
		})
		return c, noop, err
	}

	svc, err := utxoService(info, cc, net)
	if err != nil {
		return nil, nil, err
	}
	order, err := tx.ParseOrdering(cc.SelectionOrder)
	if err != nil {
		return nil, nil, err
	}
	opts := client.Options{
		Network: net,
		Params:  info.params,
		Codec:   info.codec(net.IsMainnet()),
		Service: svc,
		Select: tx.SelectOptions{
			SpendUnconfirmed: cc.SpendUnconfirmed,
			DustThreshold:    cc.DustThreshold,
			Order:            order,
		},
		FallbackFeeRate: tx.FeeRate(cc.FeeRate),
	}
	if cc.ExplorerURL != "" {
		opts.Params.MainnetExplorer = cc.ExplorerURL
		opts.Params.TestnetExplorer = cc.ExplorerURL
	}

	closer := noop
	if reservations {
		rs, err := store.OpenBoltStore(reservationsPath())
		if err != nil {
			return nil, nil, err
		}
		opts.Reservations = rs
		closer = func() {
			if err := rs.Close(); err != nil {
				log.Warnf("close reservations: %v", err)
			}
		}
	}

	c, err := client.New(opts)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return c, closer, nil
}
