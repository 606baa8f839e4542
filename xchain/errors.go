package xchain

import "errors"

var (
	// ErrInvalidAddress indicates a destination failed chain address validation.
	ErrInvalidAddress = errors.New("xchain: invalid address")

	// ErrInvalidAmount indicates a non-positive or malformed amount.
	ErrInvalidAmount = errors.New("xchain: invalid amount")

	// ErrNotSupported indicates the chain client does not implement an operation.
	ErrNotSupported = errors.New("xchain: operation not supported")

	// ErrInvalidView indicates a ChainTransactionView without exactly one variant.
	ErrInvalidView = errors.New("xchain: invalid transaction view")

	// ErrTxNotFound indicates the requested transaction does not exist.
	ErrTxNotFound = errors.New("xchain: transaction not found")
)
