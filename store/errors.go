package store

import "errors"

var (
	// ErrNilParam indicates a required parameter is empty.
	ErrNilParam = errors.New("store: required parameter is empty")

	// ErrAlreadyReserved indicates an outpoint is held by another in-flight transfer.
	ErrAlreadyReserved = errors.New("store: outpoint already reserved")
)
