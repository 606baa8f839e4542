// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btclog"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Network", cfg.Network, "mainnet"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"BSVBackend", cfg.Chain(ChainBSV).Backend, BackendRPC},
		{"BTCBackend", cfg.Chain(ChainBTC).Backend, BackendRPC},
		{"DCRBackend", cfg.Chain(ChainDCR).Backend, BackendIndexer},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	// DataDir should end with .xchain (we don't assert the full path
	// since it depends on the home directory).
	if !strings.HasSuffix(cfg.DataDir, ".xchain") {
		t.Errorf("DataDir = %q, want suffix .xchain", cfg.DataDir)
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	original := Config{
		DataDir:  "/tmp/test-xchain",
		Network:  "testnet",
		LogLevel: "debug",
		Chains: map[string]ChainConfig{
			ChainBTC: {
				Backend:          BackendIndexer,
				URL:              "https://insight.example.org/api",
				Timeout:          "15s",
				FeeRate:          12.5,
				DustThreshold:    546,
				SpendUnconfirmed: true,
			},
			ChainVeChain: {URL: "http://localhost:8080", APIKey: "k"},
		},
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	btc := loaded.Chain(ChainBTC)
	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"DataDir", loaded.DataDir, original.DataDir},
		{"Network", loaded.Network, original.Network},
		{"LogLevel", loaded.LogLevel, original.LogLevel},
		{"Backend", btc.Backend, BackendIndexer},
		{"URL", btc.URL, "https://insight.example.org/api"},
		{"Timeout", btc.TimeoutDuration(), 15 * time.Second},
		{"FeeRate", btc.FeeRate, 12.5},
		{"DustThreshold", btc.DustThreshold, uint64(546)},
		{"SpendUnconfirmed", btc.SpendUnconfirmed, true},
		{"APIKey", loaded.Chain(ChainVeChain).APIKey, "k"},
		// Defaults survive for chains the file does not mention.
		{"BSVDefault", loaded.Chain(ChainBSV).Backend, BackendRPC},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.toml")

	cfg := DefaultConfig()
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Config file not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

// ---------------------------------------------------------------------------
// LoadConfig tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.toml")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(path, []byte("this-is-not-toml\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadConfig bad file: got %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `# comment
network = "testnet"

[chains.cosmos]
url = "https://lcd.example.org"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Network != "testnet" {
		t.Errorf("Network = %q, want %q", cfg.Network, "testnet")
	}
	// Unset fields should retain defaults.
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, "info")
	}
	if got := cfg.Chain(ChainCosmos).URL; got != "https://lcd.example.org" {
		t.Errorf("cosmos url = %q", got)
	}
	if got := cfg.Chain(ChainBSV).Backend; got != BackendRPC {
		t.Errorf("bsv backend = %q, want default %q", got, BackendRPC)
	}
}

func TestLoadConfigUnknownKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := "futurekey = \"futurevalue\"\nnetwork = \"testnet\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig with unknown key: %v", err)
	}
	if cfg.Network != "testnet" {
		t.Errorf("Network = %q, want %q", cfg.Network, "testnet")
	}
}

func TestLoadConfig_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission test not reliable on Windows")
	}
	if os.Getuid() == 0 {
		t.Skip("cannot test permission denial as root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(path, []byte("network = \"testnet\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(path, 0600) })

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig on unreadable file: expected error, got nil")
	}
	if errors.Is(err, ErrConfigNotFound) {
		t.Error("LoadConfig on unreadable file should not return ErrConfigNotFound")
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "empty_datadir",
			modify:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrEmptyDataDir,
		},
		{
			name:    "bad_network",
			modify:  func(c *Config) { c.Network = "devnet" },
			wantErr: ErrInvalidNetwork,
		},
		{
			name:    "empty_network",
			modify:  func(c *Config) { c.Network = "" },
			wantErr: ErrInvalidNetwork,
		},
		{
			name:    "bad_loglevel",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "unknown_chain",
			modify:  func(c *Config) { c.Chains["doge"] = ChainConfig{} },
			wantErr: ErrUnknownChain,
		},
		{
			name:    "bad_backend",
			modify:  func(c *Config) { c.Chains[ChainCosmos] = ChainConfig{Backend: BackendRPC} },
			wantErr: ErrInvalidBackend,
		},
		{
			name:    "relative_url",
			modify:  func(c *Config) { c.Chains[ChainBSV] = ChainConfig{URL: "localhost:8332"} },
			wantErr: ErrInvalidURL,
		},
		{
			name:    "bad_explorer_scheme",
			modify:  func(c *Config) { c.Chains[ChainBTC] = ChainConfig{ExplorerURL: "ftp://example.org"} },
			wantErr: ErrInvalidURL,
		},
		{
			name:    "bad_timeout",
			modify:  func(c *Config) { c.Chains[ChainBTC] = ChainConfig{Timeout: "soon"} },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative_timeout",
			modify:  func(c *Config) { c.Chains[ChainBTC] = ChainConfig{Timeout: "-1s"} },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "bad_selection_order",
			modify:  func(c *Config) { c.Chains[ChainBSV] = ChainConfig{SelectionOrder: "random"} },
			wantErr: ErrInvalidOrder,
		},
		{
			name:    "dcr_lcd_backend",
			modify:  func(c *Config) { c.Chains[ChainDCR] = ChainConfig{Backend: "lcd"} },
			wantErr: ErrInvalidBackend,
		},
		{
			name:    "negative_fee_rate",
			modify:  func(c *Config) { c.Chains[ChainBSV] = ChainConfig{FeeRate: -1} },
			wantErr: ErrInvalidFeeRate,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfigValidNetworks(t *testing.T) {
	for _, network := range []string{"mainnet", "testnet", "stagenet"} {
		cfg := DefaultConfig()
		cfg.Network = network
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig with network %q: %v", network, err)
		}
	}
}

func TestValidateConfig_LogLevelCaseInsensitive(t *testing.T) {
	levels := []string{"INFO", "Debug", "WARN", "Error", "trace", "off"}
	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LogLevel = level
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig with LogLevel %q: %v", level, err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("Debug")
	if err != nil {
		t.Fatalf("ParseLogLevel: %v", err)
	}
	if lvl != btclog.LevelDebug {
		t.Errorf("level = %v, want debug", lvl)
	}
}

// ---------------------------------------------------------------------------
// ChainConfig tests
// ---------------------------------------------------------------------------

func TestChainConfigRPCConfig(t *testing.T) {
	c := ChainConfig{URL: "http://node:8332", User: "u", Password: "p", Timeout: "5s"}
	rpc := c.RPCConfig("testnet")

	if rpc.URL != c.URL || rpc.User != "u" || rpc.Password != "p" {
		t.Errorf("RPCConfig = %+v", rpc)
	}
	if rpc.Network != "testnet" {
		t.Errorf("Network = %q, want testnet", rpc.Network)
	}
	if rpc.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", rpc.Timeout)
	}
	if (ChainConfig{Timeout: "bogus"}).TimeoutDuration() != 0 {
		t.Error("invalid timeout should parse as zero")
	}
}

// ---------------------------------------------------------------------------
// ConfigPath tests
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.xchain")
	want := filepath.Join("/home/user/.xchain", "config.toml")
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

func TestConfigPath_WithTrailingSlash(t *testing.T) {
	got := ConfigPath("/foo/")
	want := filepath.Join("/foo", "config.toml")
	if got != want {
		t.Errorf("ConfigPath(%q) = %q, want %q", "/foo/", got, want)
	}
}

func TestBackendOf(t *testing.T) {
	tests := []struct {
		name  string
		chain string
		cfg   ChainConfig
		want  string
	}{
		{"bsv_default", ChainBSV, ChainConfig{}, BackendRPC},
		{"dcr_default", ChainDCR, ChainConfig{}, BackendIndexer},
		{"dcr_explicit_rpc", ChainDCR, ChainConfig{Backend: BackendRPC}, BackendRPC},
		{"unknown_chain", "doge", ChainConfig{}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := BackendOf(tc.chain, tc.cfg); got != tc.want {
				t.Errorf("BackendOf(%q) = %q, want %q", tc.chain, got, tc.want)
			}
		})
	}
}
