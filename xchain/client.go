package xchain

import (
	"context"

	"github.com/bitfsorg/xchain-go/wallet"
)

// Client is the uniform surface of every chain client.
type Client interface {
	// Chain returns the chain ticker, e.g. "BSV".
	Chain() string
	Network() Network

	// Address derives the address at index under the wallet account.
	Address(wc wallet.Context, index uint32) (string, error)
	ValidateAddress(address string) bool

	Balance(ctx context.Context, address string) ([]Balance, error)
	Transactions(ctx context.Context, params TxHistoryParams) (*TxPage, error)
	TransactionData(ctx context.Context, txID string) (*Tx, error)

	// FeesWithRates quotes every fee tier for a transfer carrying memo.
	FeesWithRates(ctx context.Context, memo string) (*FeesWithRates, error)

	// Transfer builds, signs and broadcasts a transfer and returns its hash.
	Transfer(ctx context.Context, wc wallet.Context, params TransferParams) (string, error)

	ExplorerURL() string
	ExplorerAddressURL(address string) string
	ExplorerTxURL(txID string) string
}
