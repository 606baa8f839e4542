package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/xchain-go/xchain"
)

var feesCmd = &cobra.Command{
	Use:   "fees <chain>",
	Short: "Quote the fee tiers of a transfer",
	Args:  cobra.ExactArgs(1),
	RunE:  runFees,
}

func init() {
	feesCmd.Flags().String("memo", "", "memo the transfer would carry")
}

func runFees(cmd *cobra.Command, args []string) error {
	info, err := lookupChain(args[0])
	if err != nil {
		return err
	}
	c, closeFn, err := openClient(info, false)
	if err != nil {
		return err
	}
	defer closeFn()

	memo, _ := cmd.Flags().GetString("memo")
	f, err := c.FeesWithRates(cmd.Context(), memo)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s fees (%s)\n", info.asset.Ticker, f.Fees.Type)
	for _, o := range []xchain.FeeOption{xchain.FeeAverage, xchain.FeeFast, xchain.FeeFastest} {
		line := fmt.Sprintf("   %-8s %s %s", o, color.GreenString(f.Fees.Get(o).Format()), info.asset.Ticker)
		if f.Fees.Type == xchain.FeeTypeByte {
			line += fmt.Sprintf("  (%v sat/byte)", f.Rates.Get(o))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
