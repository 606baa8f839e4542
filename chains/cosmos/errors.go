package cosmos

import "errors"

var (
	// ErrInvalidAddress indicates a string that is not a bech32 account
	// address with the expected prefix.
	ErrInvalidAddress = errors.New("cosmos: invalid address")

	// ErrInvalidParams indicates invalid arguments were provided.
	ErrInvalidParams = errors.New("cosmos: invalid parameters")

	// ErrRequestFailed indicates the LCD endpoint could not be reached or
	// answered with an unexpected HTTP status.
	ErrRequestFailed = errors.New("cosmos: request failed")

	// ErrInvalidResponse indicates the LCD reply could not be decoded.
	ErrInvalidResponse = errors.New("cosmos: invalid response")

	// ErrBroadcastRejected indicates the node answered a broadcast with a
	// non-zero result code.
	ErrBroadcastRejected = errors.New("cosmos: transaction rejected")
)
