package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/lugondev/exchange-booth/internal/address"
)

var deriveCmd = &cobra.Command{
	Use:   "derive [admin] [mint-a] [mint-b]",
	Short: "Derive the accounts of a booth",
	Long: `Print the oracle, booth and vault addresses of the booth that admin
runs for the ordered mint pair (mint-a, mint-b).

Example:
  booth derive 7x3y... EPjF... Es9v...`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := make([]solana.PublicKey, len(args))
		for i, arg := range args {
			key, err := solana.PublicKeyFromBase58(arg)
			if err != nil {
				return fmt.Errorf("invalid address %q: %w", arg, err)
			}
			keys[i] = key
		}
		programID, err := cfg.Program.ProgramID()
		if err != nil {
			return err
		}

		addrs, err := address.DeriveBoothAddresses(programID, keys[0], keys[1], keys[2])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Program:  %s\n", programID)
		for _, row := range []struct {
			name string
			d    address.Derived
		}{
			{"Oracle", addrs.Oracle},
			{"Booth", addrs.Booth},
			{"Vault A", addrs.VaultA},
			{"Vault B", addrs.VaultB},
		} {
			fmt.Fprintf(out, "%-8s  %s  (bump %d)\n", row.name+":", row.d.Address, row.d.Bump)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deriveCmd)
}
