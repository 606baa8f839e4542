package tx

import (
	"errors"
	"fmt"
)

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("tx: invalid parameters")

	// ErrInvalidTarget indicates a spend target is missing or has a zero amount.
	ErrInvalidTarget = errors.New("tx: invalid spend target")

	// ErrInvalidFeeRate indicates the fee rate is negative, NaN or infinite.
	ErrInvalidFeeRate = errors.New("tx: invalid fee rate")

	// ErrInvalidMemo indicates the memo cannot be encoded as a data output.
	ErrInvalidMemo = errors.New("tx: invalid memo")

	// ErrInsufficientBalance indicates selection exhausted every candidate
	// without covering the targets plus fee.
	ErrInsufficientBalance = errors.New("tx: insufficient balance for transaction")

	// ErrNoUTXOs indicates the eligible candidate set is empty. It matches
	// ErrInsufficientBalance under errors.Is.
	ErrNoUTXOs = fmt.Errorf("%w: no utxos to send", ErrInsufficientBalance)

	// ErrUnbalancedTx indicates inputs do not equal outputs plus fee.
	ErrUnbalancedTx = errors.New("tx: inputs do not equal outputs plus fee")

	// ErrInvalidOutput indicates an output carries both or neither of address and script.
	ErrInvalidOutput = errors.New("tx: output must have exactly one of address or script")

	// ErrSigningFailed indicates transaction signing or finalization failed.
	ErrSigningFailed = errors.New("tx: signing failed")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("tx: script build failed")
)
