package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lugondev/exchange-booth/internal/scenario"
	"github.com/lugondev/exchange-booth/pkg/log"
)

var (
	simulateNamespace string
	simulateLogs      bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [scenario.yaml]",
	Short: "Run a booth scenario against the ledger",
	Long: `Run the mints, wallets and booth instructions of a YAML scenario through
the runtime and report each step and the final token balances.

With postgres storage the ledger outlives the run; pass a fresh --namespace
to replay a scenario onto new accounts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sc, err := scenario.Load(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		runner := scenario.NewRunner(a.runtime, a.programID,
			scenario.WithNamespace(simulateNamespace),
			scenario.WithLogger(a.logger),
		)
		report, runErr := runner.Run(ctx, sc)
		if report != nil {
			printReport(cmd, report)
		}
		if runErr != nil {
			return runErr
		}

		if addrs, err := runner.Addresses(sc); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "\nBooth %s (oracle %s)\n", addrs.Booth.Address, addrs.Oracle.Address)
		}
		return nil
	},
}

func printReport(cmd *cobra.Command, report *scenario.Report) {
	out := cmd.OutOrStdout()
	parser := log.NewParser()

	fmt.Fprintf(out, "Scenario %s\n\n", report.Name)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tACTION\tRESULT\tDETAIL")
	for _, step := range report.Steps {
		result := "ok"
		if step.Code != "" {
			result = step.Code
		}
		detail := ""
		if step.Event != nil {
			detail = fmt.Sprintf("%s in=%d out=%d", step.Event.Direction, step.Event.AmountIn, step.Event.AmountOut)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", step.Label, step.Action, result, detail)
	}
	_ = tw.Flush()

	if simulateLogs {
		for _, step := range report.Steps {
			if step.Receipt == nil {
				continue
			}
			fmt.Fprintf(out, "\n[%s]\n", step.Label)
			for _, msg := range parser.ExtractProgramLogs(step.Receipt.Logs) {
				fmt.Fprintf(out, "  %s\n", msg)
			}
		}
	}

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tOWNER\tMINT\tBALANCE\tADDRESS")
	for _, b := range report.Balances {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.Account, b.Owner, b.Mint, b.Amount, b.Address)
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateNamespace, "namespace", "n", "", "key namespace (default is the scenario name)")
	simulateCmd.Flags().BoolVar(&simulateLogs, "logs", false, "print the program log of every step")
}
