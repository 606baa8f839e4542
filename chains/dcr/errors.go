package dcr

import "errors"

var (
	// ErrInvalidAddress indicates an address that cannot be decoded.
	ErrInvalidAddress = errors.New("dcr: invalid address")

	// ErrWrongNetwork indicates a well-formed address for another network.
	ErrWrongNetwork = errors.New("dcr: address is for a different network")

	// ErrUnsupportedAddress indicates a valid address of a type other than
	// version 0 secp256k1 P2PKH.
	ErrUnsupportedAddress = errors.New("dcr: only secp256k1 P2PKH addresses are supported")

	// ErrInvalidTx indicates a malformed txid or raw transaction.
	ErrInvalidTx = errors.New("dcr: invalid transaction")
)
