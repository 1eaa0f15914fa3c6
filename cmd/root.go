// Package cmd wires the creditdesk CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "creditdesk",
	Short: "Conversational credit and invoice ledger agent",
	Long: `Creditdesk is a staff-facing agent for a customer credit and invoice
ledger. It understands plain-language requests (apply credits, record
payments, report discrepancies), asks for clarification when a reference
is ambiguous, and requires explicit confirmation before any mutation.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".creditdesk.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
