// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/btcsuite/btclog"

	"github.com/bitfsorg/xchain-go/tx"
	"github.com/bitfsorg/xchain-go/wallet"
)

// chainBackends lists the backends each chain accepts. The empty backend
// selects the first.
var chainBackends = map[string][]string{
	ChainBSV:     {BackendRPC, BackendIndexer},
	ChainBTC:     {BackendRPC, BackendIndexer},
	ChainDCR:     {BackendIndexer, BackendRPC},
	ChainCosmos:  {"lcd"},
	ChainVeChain: {"rosetta"},
}

// BackendOf returns the backend chain c selects, resolving the empty
// backend to the chain's first.
func BackendOf(chain string, c ChainConfig) string {
	if c.Backend != "" {
		return c.Backend
	}
	if backends := chainBackends[chain]; len(backends) > 0 {
		return backends[0]
	}
	return ""
}

// ParseLogLevel returns the btclog level named by s.
func ParseLogLevel(s string) (btclog.Level, error) {
	lvl, ok := btclog.LevelFromString(strings.ToLower(s))
	if !ok {
		return btclog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
	return lvl, nil
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid. Chains
// are checked in name order.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if _, err := wallet.ParseNetwork(cfg.Network); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidNetwork, cfg.Network)
	}

	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	names := make([]string, 0, len(cfg.Chains))
	for name := range cfg.Chains {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := validateChain(name, cfg.Chains[name]); err != nil {
			return fmt.Errorf("chains.%s: %w", name, err)
		}
	}

	return nil
}

func validateChain(name string, c ChainConfig) error {
	backends, ok := chainBackends[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChain, name)
	}
	if c.Backend != "" && !contains(backends, c.Backend) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidBackend, c.Backend, strings.Join(backends, ", "))
	}
	for _, u := range []string{c.URL, c.ExplorerURL} {
		if u == "" {
			continue
		}
		if err := validateURL(u); err != nil {
			return err
		}
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidTimeout, c.Timeout)
		}
	}
	if _, err := tx.ParseOrdering(c.SelectionOrder); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}
	if c.FeeRate < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFeeRate, c.FeeRate)
	}
	return nil
}

// validateURL checks that s is an absolute http or https URL.
func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, s)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
