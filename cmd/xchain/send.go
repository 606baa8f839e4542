package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/xchain-go/client"
	"github.com/bitfsorg/xchain-go/tx"
	"github.com/bitfsorg/xchain-go/xchain"
)

var sendCmd = &cobra.Command{
	Use:   "send <chain> <recipient> <amount>",
	Short: "Send coins",
	Long: `Send an amount, in whole units, from the wallet address at --index.

Examples:
  xchain send btc 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa 0.001
  xchain send bsv 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa 0.5 --memo "invoice 42"
  xchain send bsv 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa 0.5 --dry-run`,
	Args: cobra.ExactArgs(3),
	RunE: runSend,
}

func init() {
	addWalletFlags(sendCmd)
	sendCmd.Flags().String("memo", "", "memo carried in an OP_RETURN output (UTXO chains)")
	sendCmd.Flags().Float64("fee-rate", 0, "fee rate in sat/byte (default: network fast tier)")
	sendCmd.Flags().Bool("dry-run", false, "build and sign without broadcasting (UTXO chains)")
}

// parseAmount converts a whole-unit amount to base units. Amounts with
// more precision than decimals, zero or negative amounts are rejected.
func parseAmount(s string, decimals int32) (xchain.BaseAmount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return xchain.BaseAmount{}, fmt.Errorf("%w: %q", xchain.ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return xchain.BaseAmount{}, fmt.Errorf("%w: %s must be positive", xchain.ErrInvalidAmount, s)
	}
	if !d.Shift(decimals).Equal(d.Shift(decimals).Truncate(0)) {
		return xchain.BaseAmount{}, fmt.Errorf("%w: %s has more than %d decimals", xchain.ErrInvalidAmount, s, decimals)
	}
	return xchain.AssetToBase(d, decimals), nil
}

func runSend(cmd *cobra.Command, args []string) error {
	info, err := lookupChain(args[0])
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[2], info.decimals)
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	c, closeFn, err := openClient(info, !dryRun)
	if err != nil {
		return err
	}
	defer closeFn()

	if !c.ValidateAddress(args[1]) {
		return fmt.Errorf("%w: %s", xchain.ErrInvalidAddress, args[1])
	}

	account, _ := cmd.Flags().GetUint32("account")
	index, _ := cmd.Flags().GetUint32("index")
	memo, _ := cmd.Flags().GetString("memo")
	rate, _ := cmd.Flags().GetFloat64("fee-rate")
	wc, err := openWallet(account)
	if err != nil {
		return err
	}
	params := xchain.TransferParams{
		WalletIndex: index,
		Amount:      amount,
		Recipient:   args[1],
		Memo:        memo,
		FeeRate:     tx.FeeRate(rate),
	}

	out := cmd.OutOrStdout()
	if dryRun {
		uc, ok := c.(*client.UTXOClient)
		if !ok {
			return fmt.Errorf("%w: --dry-run on %s", xchain.ErrNotSupported, info.asset.Ticker)
		}
		signed, err := uc.BuildTransfer(cmd.Context(), wc, params)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n%s\n", color.YellowString("Not broadcast:"), signed.TxID, signed.Hex())
		return nil
	}

	log.Infof("sending %s %s to %s", amount.Format(), info.asset.Ticker, args[1])
	txID, err := c.Transfer(cmd.Context(), wc, params)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", color.GreenString("Sent:"), txID)
	fmt.Fprintf(out, "   %s\n", c.ExplorerTxURL(txID))
	return nil
}
