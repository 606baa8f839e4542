package bsv

import "errors"

var (
	// ErrInvalidAddress indicates an address that cannot be decoded.
	ErrInvalidAddress = errors.New("bsv: invalid address")

	// ErrWrongNetwork indicates a well-formed address for another network.
	ErrWrongNetwork = errors.New("bsv: address is for a different network")

	// ErrInvalidTx indicates a malformed txid or raw transaction.
	ErrInvalidTx = errors.New("bsv: invalid transaction")
)
