package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <chain> [address]",
	Short: "Check the balance of an address",
	Long: `Check the balance of an address. Without an address the wallet
address at --index is used.

Examples:
  xchain balance btc
  xchain balance vechain 0x7e5f4552091a69125d5dfcb7b8c2659029395bdf`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBalance,
}

func init() {
	addWalletFlags(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	info, err := lookupChain(args[0])
	if err != nil {
		return err
	}
	c, closeFn, err := openClient(info, false)
	if err != nil {
		return err
	}
	defer closeFn()

	addr, err := targetAddress(cmd, c, args)
	if err != nil {
		return err
	}
	bals, err := c.Balance(cmd.Context(), addr)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", color.CyanString("Address:"), addr)
	if len(bals) == 0 {
		fmt.Fprintf(out, "   0 %s\n", info.asset.Ticker)
	}
	for _, b := range bals {
		fmt.Fprintf(out, "   %s %s\n", color.GreenString(b.Amount.Format()), b.Asset.Ticker)
	}
	return nil
}
