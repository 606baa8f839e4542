package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNilParam indicates a required option is missing.
	ErrNilParam = errors.New("client: required parameter is nil")

	// ErrNetworkMismatch indicates a wallet context for another network.
	ErrNetworkMismatch = errors.New("client: wallet network does not match client network")
)

// Stage is a step of the transfer state machine.
type Stage int

const (
	StageValidate Stage = iota
	StageCollect
	StageSelect
	StageAssemble
	StageSign
	StageBroadcast
)

var stageNames = [...]string{"validate", "collect", "select", "assemble", "sign", "broadcast"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// TransferError reports the stage at which a transfer terminated. The
// underlying error stays matchable with errors.Is.
type TransferError struct {
	Stage Stage
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("client: transfer %s: %v", e.Stage, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

func stageErr(s Stage, err error) error {
	return &TransferError{Stage: s, Err: err}
}
