package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/xchain-go/xchain"
)

var historyCmd = &cobra.Command{
	Use:   "history <chain> [address]",
	Short: "List the transactions of an address",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runHistory,
}

var txCmd = &cobra.Command{
	Use:   "tx <chain> <txid>",
	Short: "Show one transaction",
	Args:  cobra.ExactArgs(2),
	RunE:  runTx,
}

func init() {
	addWalletFlags(historyCmd)
	historyCmd.Flags().Int("offset", 0, "number of transactions to skip")
	historyCmd.Flags().Int("limit", xchain.DefaultHistoryLimit, "page size")
}

// targetAddress returns the address argument, or the wallet address when
// none is given.
func targetAddress(cmd *cobra.Command, c xchain.Client, args []string) (string, error) {
	if len(args) > 1 {
		if !c.ValidateAddress(args[1]) {
			return "", fmt.Errorf("%w: %s", xchain.ErrInvalidAddress, args[1])
		}
		return args[1], nil
	}
	return walletAddress(cmd, c)
}

func runHistory(cmd *cobra.Command, args []string) error {
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
	offset, _ := cmd.Flags().GetInt("offset")
	limit, _ := cmd.Flags().GetInt("limit")
	page, err := c.Transactions(cmd.Context(), xchain.TxHistoryParams{Address: addr, Offset: offset, Limit: limit})
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (%d total)\n", color.CyanString("Address:"), addr, page.Total)
	for _, t := range page.Txs {
		printTx(cmd, c, t)
	}
	return nil
}

func runTx(cmd *cobra.Command, args []string) error {
	info, err := lookupChain(args[0])
	if err != nil {
		return err
	}
	c, closeFn, err := openClient(info, false)
	if err != nil {
		return err
	}
	defer closeFn()

	t, err := c.TransactionData(cmd.Context(), args[1])
	if err != nil {
		return err
	}
	printTx(cmd, c, t)
	return nil
}

func printTx(cmd *cobra.Command, c xchain.Client, t *xchain.Tx) {
	out := cmd.OutOrStdout()
	date := "unconfirmed"
	if !t.Date.IsZero() {
		date = t.Date.Format("2006-01-02 15:04:05")
	}
	fmt.Fprintf(out, "\n%s  %s\n", color.YellowString(t.Hash), date)
	for _, f := range t.From {
		fmt.Fprintf(out, "   from %s %s %s\n", f.From, f.Amount.Format(), t.Asset.Ticker)
	}
	for _, to := range t.To {
		addr := to.To
		if addr == "" {
			addr = "(data)"
		}
		fmt.Fprintf(out, "   to   %s %s %s\n", addr, to.Amount.Format(), t.Asset.Ticker)
	}
	fmt.Fprintf(out, "   %s\n", c.ExplorerTxURL(t.Hash))
}
