package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/xchain-go/config"
	"github.com/bitfsorg/xchain-go/wallet"
)

var version = "0.1.0"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	dataDir  string
	cfgFile  string
	network  string
	logLevel string
}

var flags globalFlags

// cfg is the configuration resolved by the root PersistentPreRunE.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "xchain",
	Short: "A multi-chain command line wallet",
	Long: `xchain derives addresses from one BIP39 seed and sends, tracks and
prices transactions on BSV, BTC, Cosmos, Decred and VeChain.

The seed is kept encrypted (Argon2id + AES-256-GCM) in the data directory,
in a keystore that records the network it was created for.
Chain endpoints are read from config.toml in the same directory.

Examples:
  xchain keystore init             # Create a new seed
  xchain address btc               # Show the BTC receive address
  xchain balance bsv               # Check the BSV balance
  xchain fees bsv --memo hello     # Quote fees for a transfer with a memo
  xchain send btc 1A1z... 0.001    # Send 0.001 BTC`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.dataDir, "datadir", config.DefaultDataDir(), "data directory")
	pf.StringVar(&flags.cfgFile, "config", "", "configuration file (default <datadir>/config.toml)")
	pf.StringVarP(&flags.network, "network", "n", "", "network: mainnet, testnet or stagenet (overrides config)")
	pf.StringVar(&flags.logLevel, "loglevel", "", "log level: trace, debug, info, warn, error, critical or off")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keystoreCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(feesCmd)
	rootCmd.AddCommand(sendCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("xchain v%s\n", version)
	},
}

// configPath returns the configuration file selected by the flags.
func configPath() string {
	if flags.cfgFile != "" {
		return flags.cfgFile
	}
	return config.ConfigPath(flags.dataDir)
}

// loadConfig reads the configuration file, applies flag overrides and
// validates the result. A missing file yields the defaults.
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.LoadConfig(configPath())
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		c = config.DefaultConfig()
	case err != nil:
		return err
	}
	if cmd.Flags().Changed("datadir") || c.DataDir == "" {
		c.DataDir = flags.dataDir
	}
	if flags.network != "" {
		c.Network = flags.network
	}
	if flags.logLevel != "" {
		c.LogLevel = flags.logLevel
	}
	if err := config.ValidateConfig(c); err != nil {
		return err
	}

	level, err := config.ParseLogLevel(c.LogLevel)
	if err != nil {
		return err
	}
	setLogLevels(level)
	log.Debugf("config %s, network %s, subsystems %s", configPath(), c.Network,
		strings.Join(supportedSubsystems(), ","))

	cfg = c
	return nil
}

// currentNetwork returns the validated network of cfg.
func currentNetwork() wallet.Network {
	net, _ := wallet.ParseNetwork(cfg.Network)
	return net
}

// keystorePath returns the encrypted seed file.
func keystorePath() string {
	return filepath.Join(cfg.DataDir, "seed.enc")
}

// reservationsPath returns the bbolt file of in-flight input reservations.
func reservationsPath() string {
	return filepath.Join(cfg.DataDir, "reservations.db")
}
