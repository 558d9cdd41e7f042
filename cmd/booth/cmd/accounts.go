package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lugondev/exchange-booth/internal/state"
	"github.com/lugondev/exchange-booth/internal/storage"
	"github.com/lugondev/exchange-booth/internal/token"
	"github.com/lugondev/exchange-booth/pkg/types"
)

var (
	accountsOwner string
	receiptsLimit int
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List persisted ledger accounts",
	Long: `List the accounts in storage with their balance and owner. Token
accounts, mints and booth records are decoded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		models, err := a.repo.Accounts().List(ctx)
		if accountsOwner != "" {
			models, err = a.repo.Accounts().FindByOwner(ctx, accountsOwner, 0, 0)
		}
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ADDRESS\tLAMPORTS\tOWNER\tCONTENT")
		for _, m := range models {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", m.Pubkey, m.Lamports, m.Owner, a.describe(m))
		}
		return tw.Flush()
	},
}

// describe decodes account data by its owner.
func (a *app) describe(m *storage.AccountModel) string {
	switch m.Owner {
	case token.ProgramID.String():
		if acct, err := token.UnpackAccount(m.Data); err == nil {
			return fmt.Sprintf("token account mint=%s owner=%s amount=%d", acct.Mint, acct.Owner, acct.Amount)
		}
		if mint, err := token.UnpackMint(m.Data); err == nil {
			return fmt.Sprintf("mint decimals=%d supply=%d", mint.Decimals, mint.Supply)
		}
	case a.programID.String():
		// Booth and oracle records share a layout; without the seeds only the raw pair is known.
		if rec, err := state.UnmarshalOracle(m.Data); err == nil {
			return fmt.Sprintf("booth record value=%d decimals=%d", rec.ExchangeRate, rec.RateDecimals)
		}
	}
	if len(m.Data) == 0 {
		return fmt.Sprintf("%.9f SOL", types.LamportsToSOL(m.Lamports))
	}
	return fmt.Sprintf("%d bytes", len(m.Data))
}

var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "List recent execution receipts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		execs, err := a.repo.Executions().FindRecent(ctx, receiptsLimit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SLOT\tINSTRUCTION\tRESULT\tID\tFINISHED")
		for _, e := range execs {
			result := "ok"
			if !e.Success {
				result = e.ErrorCode
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Slot, e.Instruction, result, e.ID, e.FinishedAt.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(receiptsCmd)

	accountsCmd.Flags().StringVar(&accountsOwner, "owner", "", "only accounts owned by this program")
	receiptsCmd.Flags().IntVar(&receiptsLimit, "limit", 20, "number of receipts")
}
