package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/creditdesk/creditdesk/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing read-only ledger lookup tools for AI agents. Mutations stay behind the conversational confirmation flow.`,
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

		// Stdout carries MCP protocol messages; logging goes to stderr.
		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "creditdesk MCP server started on stdio (data=%s)\n", cfg.DataDir)

		srv := mcpserver.NewServer(rt.retrieval)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
