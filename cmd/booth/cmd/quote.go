package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lugondev/exchange-booth/internal/amount"
	"github.com/lugondev/exchange-booth/internal/convert"
)

var quoteFlags struct {
	rate      string
	fee       string
	decimalsA uint8
	decimalsB uint8
	direction string
}

var quoteCmd = &cobra.Command{
	Use:   "quote [amount]",
	Short: "Quote a conversion without touching the ledger",
	Long: `Convert a human amount of one asset into the other at a booth's rate
and fee, using the same fixed-point arithmetic as the program.

The rate is the price of one B in A. Rate and fee keep the precision they
are written with: "0.50" is 50 with two decimals.

Example:
  booth quote 0.1 --rate 0.5 --fee 0.1 --decimals-a 1 --decimals-b 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var direction convert.Direction
		switch quoteFlags.direction {
		case "a-to-b":
			direction = convert.ToB
		case "b-to-a":
			direction = convert.ToA
		default:
			return fmt.Errorf("unknown direction %q (want a-to-b or b-to-a)", quoteFlags.direction)
		}

		rate, rateDecimals, err := amount.Scaled(quoteFlags.rate)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		fee, feeDecimals, err := amount.Scaled(quoteFlags.fee)
		if err != nil {
			return fmt.Errorf("fee: %w", err)
		}

		inDecimals, outDecimals := quoteFlags.decimalsA, quoteFlags.decimalsB
		if direction == convert.ToA {
			inDecimals, outDecimals = outDecimals, inDecimals
		}
		in, err := amount.ToBaseUnits(args[0], inDecimals)
		if err != nil {
			return err
		}

		out, err := convert.Convert(convert.Params{
			Rate:         rate,
			Amount:       in,
			Fee:          fee,
			Direction:    direction,
			RateDecimals: rateDecimals,
			DecimalsA:    quoteFlags.decimalsA,
			DecimalsB:    quoteFlags.decimalsB,
			FeeDecimals:  feeDecimals,
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Direction: %s\n", direction)
		fmt.Fprintf(w, "  In:      %s (%d base units)\n", amount.Format(in, inDecimals), in)
		fmt.Fprintf(w, "  Out:     %s (%d base units)\n", amount.Format(out, outDecimals), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteFlags.rate, "rate", "1", "price of one B in A")
	quoteCmd.Flags().StringVar(&quoteFlags.fee, "fee", "0", "fee as a fraction, e.g. 0.003")
	quoteCmd.Flags().Uint8Var(&quoteFlags.decimalsA, "decimals-a", 0, "decimals of asset A")
	quoteCmd.Flags().Uint8Var(&quoteFlags.decimalsB, "decimals-b", 0, "decimals of asset B")
	quoteCmd.Flags().StringVarP(&quoteFlags.direction, "direction", "d", "a-to-b", "a-to-b or b-to-a")
}
