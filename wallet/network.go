package wallet

import (
	"fmt"
	"strings"

	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
)

// Network selects mainnet or one of the test networks of a chain.
type Network string

// Supported networks.
const (
	Mainnet  Network = "mainnet"
	Testnet  Network = "testnet"
	Stagenet Network = "stagenet"
)

// ParseNetwork maps a configuration string to a Network.
func ParseNetwork(name string) (Network, error) {
	switch n := Network(strings.ToLower(strings.TrimSpace(name))); n {
	case Mainnet, Testnet, Stagenet:
		return n, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidNetwork, name)
	}
}

// IsMainnet reports whether addresses use mainnet encodings. Stagenet runs
// against mainnet chains.
func (n Network) IsMainnet() bool {
	return n == Mainnet || n == Stagenet
}

// String returns the network name.
func (n Network) String() string {
	return string(n)
}

// bip32Params returns the extended key version bytes for the network.
func (n Network) bip32Params() *chaincfg.Params {
	if n.IsMainnet() {
		return &chaincfg.MainNet
	}
	return &chaincfg.TestNet
}
