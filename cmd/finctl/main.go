/*
main.go - Operational CLI for the finwise ledger

PURPOSE:
  Maintenance commands that run against the database directly, without the
  HTTP server:

    finctl seed     Seed the system category catalog (idempotent)
    finctl verify   Recompute every account balance from its transaction
                    history and report drift against the stored balance
    finctl reset    Wipe all data (requires --yes)

  All commands take --db to point at the SQLite database file.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finwise/finwise/ledger"
	"github.com/finwise/finwise/store/sqlite"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:   "finctl",
		Short: "Maintenance commands for the finwise ledger database",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "finwise.db", "SQLite database path")

	rootCmd.AddCommand(newSeedCommand(&dbPath))
	rootCmd.AddCommand(newVerifyCommand(&dbPath))
	rootCmd.AddCommand(newResetCommand(&dbPath))

	return rootCmd
}

func newSeedCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the system category catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.New(*dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer store.Close()

			categories := ledger.DefaultCategories()
			if err := store.SeedCategories(cmd.Context(), categories); err != nil {
				return fmt.Errorf("seeding categories: %w", err)
			}
			fmt.Printf("Seeded %d system categories\n", len(categories))
			return nil
		},
	}
}

func newVerifyCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check stored balances against transaction history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.New(*dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer store.Close()

			accounts, err := store.AllAccounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing accounts: %w", err)
			}

			var drifts []ledger.Drift
			for _, a := range accounts {
				txs, err := store.AccountTransactions(cmd.Context(), a.ID)
				if err != nil {
					return fmt.Errorf("listing transactions for %s: %w", a.ID, err)
				}
				expected := ledger.ExpectedBalance(a, txs)
				if !expected.Equal(a.Balance) {
					drifts = append(drifts, ledger.Drift{Account: a, Expected: expected})
				}
			}

			fmt.Printf("Checked %d accounts\n", len(accounts))
			if len(drifts) == 0 {
				fmt.Println("All balances consistent")
				return nil
			}
			for _, d := range drifts {
				fmt.Printf("DRIFT %s (%s): stored=%s expected=%s delta=%s\n",
					d.Account.ID, d.Account.Label(),
					d.Account.Balance.StringFixed(2),
					d.Expected.StringFixed(2),
					d.Delta().StringFixed(2))
			}
			return fmt.Errorf("%d accounts out of balance", len(drifts))
		},
	}
}

func newResetCommand(dbPath *string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all data from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe %s without --yes", *dbPath)
			}
			store, err := sqlite.New(*dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer store.Close()

			if err := store.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("resetting database: %w", err)
			}
			fmt.Println("Database reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
