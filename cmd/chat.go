package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the ledger agent in the terminal",
	Long:  `Starts an interactive REPL driving the agent against the local ledger. Type "exit" or press Ctrl+C to quit.`,
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

		fmt.Println("creditdesk — type a request, \"reset session\" to start over, or \"exit\" to quit.")

		ctx := cmd.Context()
		sessionID := ""
		for {
			prompt := promptui.Prompt{Label: "you"}
			line, err := prompt.Run()
			if err != nil {
				if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
					return nil
				}
				return fmt.Errorf("reading input: %w", err)
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
				return nil
			}

			resp, sid := rt.manager.Process(ctx, sessionID, line)
			sessionID = sid
			printTurn(resp.Message, string(resp.Type))
		}
	},
}

// printTurn writes one agent reply, keeping any structured details tail
// visually separate.
func printTurn(message, respType string) {
	human, details, hasDetails := strings.Cut(message, "---DETAILS---")
	fmt.Printf("\nagent [%s]: %s\n", respType, strings.TrimSpace(human))
	if hasDetails {
		fmt.Printf("details:\n%s\n", strings.TrimSpace(details))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
