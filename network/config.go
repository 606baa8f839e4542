package network

import (
	"fmt"
	"time"
)

// DefaultTimeout bounds a single HTTP round trip to a node or indexer.
const DefaultTimeout = 30 * time.Second

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 8 << 20

// Environment variables consulted by ResolveConfig.
const (
	EnvRPCURL  = "XCHAIN_RPC_URL"
	EnvRPCUser = "XCHAIN_RPC_USER"
	EnvRPCPass = "XCHAIN_RPC_PASS"
)

// RPCConfig holds the connection parameters for a chain API endpoint.
// Indexer clients use only URL and Timeout.
type RPCConfig struct {
	URL      string        `json:"url" toml:"url"`
	User     string        `json:"user" toml:"user"`
	Password string        `json:"password" toml:"password"`
	Network  string        `json:"network" toml:"network"`
	Timeout  time.Duration `json:"timeout" toml:"timeout"`
}

// NetworkPresets contains default RPC configurations for local nodes.
// Mainnet is intentionally omitted to require explicit configuration.
var NetworkPresets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:18443", User: "xchain", Password: "xchain"},
	"testnet": {URL: "http://localhost:18332", User: "xchain", Password: "xchain"},
}

// ResolveConfig merges RPC configuration from three sources with decreasing priority:
//  1. CLI flags (highest priority)
//  2. Environment variables (XCHAIN_RPC_URL, XCHAIN_RPC_USER, XCHAIN_RPC_PASS)
//  3. Network presets (lowest priority, regtest/testnet only)
//
// For mainnet, explicit configuration is required -- there is no preset.
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}

	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	if env != nil {
		if v, ok := env[EnvRPCURL]; ok && v != "" {
			result.URL = v
		}
		if v, ok := env[EnvRPCUser]; ok && v != "" {
			result.User = v
		}
		if v, ok := env[EnvRPCPass]; ok && v != "" {
			result.Password = v
		}
	}

	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.User != "" {
			result.User = flags.User
		}
		if flags.Password != "" {
			result.Password = flags.Password
		}
		if flags.Timeout > 0 {
			result.Timeout = flags.Timeout
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("network: %s requires explicit RPC configuration (set --rpc-url, %s, or config file)", network, EnvRPCURL)
	}

	return &result, nil
}
