// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the TOML configuration of the xchain
// command line wallet.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bitfsorg/xchain-go/network"
)

// Chain names accepted as keys of the [chains] table.
const (
	ChainBSV     = "bsv"
	ChainBTC     = "btc"
	ChainCosmos  = "cosmos"
	ChainDCR     = "dcr"
	ChainVeChain = "vechain"
)

// Backends of the UTXO chains.
const (
	BackendRPC     = "rpc"
	BackendIndexer = "indexer"
)

// ChainConfig configures the client of one chain. Empty fields take the
// client defaults.
type ChainConfig struct {
	Backend          string  `toml:"backend"`
	URL              string  `toml:"url"`
	User             string  `toml:"user"`
	Password         string  `toml:"password"`
	APIKey           string  `toml:"api_key"`
	Timeout          string  `toml:"timeout"` // Go duration, e.g. "30s"
	ExplorerURL      string  `toml:"explorer_url"`
	FeeRate          float64 `toml:"fee_rate"` // fallback sat/byte
	DustThreshold    uint64  `toml:"dust_threshold"`
	SpendUnconfirmed bool    `toml:"spend_unconfirmed"`
	SelectionOrder   string  `toml:"selection_order"` // largest-first, smallest-first or as-given
}

// TimeoutDuration returns the parsed Timeout, zero when unset or invalid.
func (c ChainConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// RPCConfig returns the endpoint settings of c for the named network.
func (c ChainConfig) RPCConfig(net string) *network.RPCConfig {
	return &network.RPCConfig{
		URL:      c.URL,
		User:     c.User,
		Password: c.Password,
		Network:  net,
		Timeout:  c.TimeoutDuration(),
	}
}

// Config is the top-level configuration.
type Config struct {
	Network  string                 `toml:"network"`
	LogLevel string                 `toml:"log_level"`
	DataDir  string                 `toml:"data_dir"`
	Chains   map[string]ChainConfig `toml:"chains"`
}

// Chain returns the configuration of chain, or the zero value.
func (c Config) Chain(chain string) ChainConfig {
	return c.Chains[chain]
}

// DefaultDataDir returns ~/.xchain, or .xchain when the home directory is
// unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xchain"
	}
	return filepath.Join(home, ".xchain")
}

// ConfigPath returns the configuration file inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Network:  "mainnet",
		LogLevel: "info",
		DataDir:  DefaultDataDir(),
		Chains: map[string]ChainConfig{
			ChainBSV: {Backend: BackendRPC},
			ChainBTC: {Backend: BackendRPC},
			ChainDCR: {Backend: BackendIndexer},
		},
	}
}

// LoadConfig reads the file at path over DefaultConfig. Keys the file does
// not set keep their defaults; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating the parent directory. The file
// may hold node credentials and is written owner-only.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("config: encode: %w", err)
	}
	return f.Close()
}
