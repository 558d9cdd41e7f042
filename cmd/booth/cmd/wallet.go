package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lugondev/exchange-booth/internal/wallet"
)

var walletOut string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet management commands",
	Long:  `Commands for generating and inspecting the keypairs that sign booth transactions.`,
}

var walletNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new wallet",
	Long:  `Generate a new ed25519 keypair, optionally saving it as a JSON keypair file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := wallet.NewWallet()
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "New wallet generated!")
		fmt.Fprintf(out, "  Public Key:  %s\n", w.PublicKey())
		if walletOut != "" {
			if err := w.SaveToFile(walletOut); err != nil {
				return err
			}
			fmt.Fprintf(out, "  Saved to:    %s\n", walletOut)
			return nil
		}
		fmt.Fprintf(out, "  Private Key: %s\n", w.PrivateKey())
		fmt.Fprintln(out, "\n⚠️  WARNING: Save your private key securely. Never share it with anyone!")
		return nil
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show [keypair-file]",
	Short: "Show the public key of a keypair file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := wallet.FromFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), w.PublicKey())
		return nil
	},
}

var walletNamedCmd = &cobra.Command{
	Use:   "named [name]",
	Short: "Show the deterministic wallet of a name",
	Long: `Show the wallet derived from a name, as scenarios do.

Scenario wallets are namespaced: the wallet "admin" of scenario "demo" is
named "demo/wallet/admin".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := wallet.FromName(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", w.PublicKey(), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletNewCmd)
	walletCmd.AddCommand(walletShowCmd)
	walletCmd.AddCommand(walletNamedCmd)

	walletNewCmd.Flags().StringVarP(&walletOut, "out", "o", "", "write the keypair to this JSON file")
}
