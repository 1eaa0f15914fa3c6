package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creditdesk/creditdesk/internal/progress"
	"github.com/creditdesk/creditdesk/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo ledger",
	Long:  `Populates the configured database with demo customers, credits, and invoices for local development. Run against a fresh data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rt, err := buildRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		rep := progress.NewReporter("Seeding ledger")
		if err := seed.Load(cmd.Context(), rt.store, rep); err != nil {
			return err
		}
		fmt.Println("Demo ledger loaded.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
