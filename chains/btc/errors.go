package btc

import "errors"

var (
	// ErrInvalidAddress indicates an address that cannot be decoded.
	ErrInvalidAddress = errors.New("btc: invalid address")

	// ErrWrongNetwork indicates a well-formed address for another network.
	ErrWrongNetwork = errors.New("btc: address is for a different network")

	// ErrUnsupportedAddress indicates a valid address of a type other than P2PKH.
	ErrUnsupportedAddress = errors.New("btc: only P2PKH addresses are supported")

	// ErrInvalidTx indicates a malformed txid or raw transaction.
	ErrInvalidTx = errors.New("btc: invalid transaction")
)
