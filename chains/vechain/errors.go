package vechain

import "errors"

var (
	// ErrInvalidAddress indicates a string that is not 0x plus 40 hex digits.
	ErrInvalidAddress = errors.New("vechain: invalid address")

	// ErrInvalidParams indicates invalid arguments were provided.
	ErrInvalidParams = errors.New("vechain: invalid parameters")

	// ErrRequestFailed indicates the Rosetta endpoint could not be reached
	// or answered with an unexpected HTTP status.
	ErrRequestFailed = errors.New("vechain: request failed")

	// ErrInvalidResponse indicates the Rosetta reply could not be decoded.
	ErrInvalidResponse = errors.New("vechain: invalid response")

	// ErrOperationsMismatch indicates a parsed construction does not carry
	// the operations that were requested.
	ErrOperationsMismatch = errors.New("vechain: parsed operations do not match request")

	// ErrSigningFailed indicates the signing payload could not be signed.
	ErrSigningFailed = errors.New("vechain: signing failed")
)
