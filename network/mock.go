package network

import (
	"context"

	"github.com/bitfsorg/xchain-go/tx"
)

// MockUTXOService is a test double for UTXOService.
// All function fields must be set before the corresponding method is called.
type MockUTXOService struct {
	ListUnspentFn     func(ctx context.Context, address string, confirmedOnly bool) ([]*tx.UTXO, error)
	BroadcastTxFn     func(ctx context.Context, rawTxHex string) (string, error)
	EstimateFeeRateFn func(ctx context.Context) (tx.FeeRate, error)
	GetBalanceFn      func(ctx context.Context, address string) (uint64, error)
	AddressTxsFn      func(ctx context.Context, address string, offset, limit int) (*TxList, error)
	GetTxFn           func(ctx context.Context, txID string) (*RawTx, error)
}

var _ UTXOService = (*MockUTXOService)(nil)

func (m *MockUTXOService) ListUnspent(ctx context.Context, address string, confirmedOnly bool) ([]*tx.UTXO, error) {
	return m.ListUnspentFn(ctx, address, confirmedOnly)
}
func (m *MockUTXOService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return m.BroadcastTxFn(ctx, rawTxHex)
}
func (m *MockUTXOService) EstimateFeeRate(ctx context.Context) (tx.FeeRate, error) {
	return m.EstimateFeeRateFn(ctx)
}
func (m *MockUTXOService) GetBalance(ctx context.Context, address string) (uint64, error) {
	return m.GetBalanceFn(ctx, address)
}
func (m *MockUTXOService) AddressTxs(ctx context.Context, address string, offset, limit int) (*TxList, error) {
	return m.AddressTxsFn(ctx, address, offset, limit)
}
func (m *MockUTXOService) GetTx(ctx context.Context, txID string) (*RawTx, error) {
	return m.GetTxFn(ctx, txID)
}
