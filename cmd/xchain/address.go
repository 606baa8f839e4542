package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/xchain-go/xchain"
)

var addressCmd = &cobra.Command{
	Use:   "address <chain>",
	Short: "Show the receive address of a chain",
	Long: `Show the address at --index under --account for a chain.

Supported chains: bsv, btc, cosmos, vechain`,
	Args: cobra.ExactArgs(1),
	RunE: runAddress,
}

func init() {
	addWalletFlags(addressCmd)
}

// addWalletFlags adds the derivation flags shared by commands that open
// the keystore.
func addWalletFlags(cmd *cobra.Command) {
	cmd.Flags().Uint32("account", 0, "BIP44 account")
	cmd.Flags().Uint32("index", 0, "address index")
}

// walletAddress opens the keystore and derives the address selected by the
// wallet flags.
func walletAddress(cmd *cobra.Command, c xchain.Client) (string, error) {
	account, _ := cmd.Flags().GetUint32("account")
	index, _ := cmd.Flags().GetUint32("index")
	wc, err := openWallet(account)
	if err != nil {
		return "", err
	}
	return c.Address(wc, index)
}

func runAddress(cmd *cobra.Command, args []string) error {
	info, err := lookupChain(args[0])
	if err != nil {
		return err
	}
	c, closeFn, err := openClient(info, false)
	if err != nil {
		return err
	}
	defer closeFn()

	addr, err := walletAddress(cmd, c)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s): %s\n", info.asset.Ticker, c.Network(), color.CyanString(addr))
	fmt.Fprintf(out, "   %s\n", c.ExplorerAddressURL(addr))
	return nil
}
