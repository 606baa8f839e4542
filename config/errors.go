// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"testnet\", or \"stagenet\")")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"trace\", \"debug\", \"info\", \"warn\", \"error\", \"critical\", or \"off\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfig indicates the configuration file is not valid TOML.
	ErrInvalidConfig = errors.New("config: invalid configuration file")

	// ErrUnknownChain indicates a [chains] table for an unsupported chain.
	ErrUnknownChain = errors.New("config: unknown chain")

	// ErrInvalidBackend indicates a backend the chain does not offer.
	ErrInvalidBackend = errors.New("config: invalid backend")

	// ErrInvalidURL indicates an endpoint or explorer URL that is not
	// absolute http(s).
	ErrInvalidURL = errors.New("config: invalid URL")

	// ErrInvalidTimeout indicates a timeout that is not a positive duration.
	ErrInvalidTimeout = errors.New("config: invalid timeout")

	// ErrInvalidOrder indicates an unknown coin selection order.
	ErrInvalidOrder = errors.New("config: invalid selection order")

	// ErrInvalidFeeRate indicates a negative fee rate.
	ErrInvalidFeeRate = errors.New("config: invalid fee rate")
)
