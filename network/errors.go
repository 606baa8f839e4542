package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the endpoint.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrAuthFailed indicates the RPC credentials were rejected.
	ErrAuthFailed = errors.New("network: authentication failed")

	// ErrTxNotFound indicates the requested transaction does not exist.
	ErrTxNotFound = errors.New("network: transaction not found")

	// ErrBroadcastRejected indicates the remote end rejected a transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrInvalidResponse indicates a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrFeeUnavailable indicates the endpoint could not produce a fee estimate.
	ErrFeeUnavailable = errors.New("network: fee estimate unavailable")
)
