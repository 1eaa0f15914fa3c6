package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/creditdesk/creditdesk/internal/server"
	"github.com/creditdesk/creditdesk/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat API server",
	Long:  `Starts the HTTP server exposing the chat turn endpoint, customer lookup, and a WebSocket chat channel.`,
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

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Evict idle persisted sessions and prune their orchestrators.
		sweeper := session.NewSweeper(rt.sessions, cfg.SessionTTL(), cfg.SweepInterval())
		go sweeper.Run(ctx)
		go func() {
			ticker := time.NewTicker(cfg.SweepInterval())
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					rt.manager.PruneIdle(time.Now().Add(-cfg.SessionTTL()))
				}
			}
		}()

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.AllowAllOrigins,
		}, rt.manager, rt.retrieval)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			log.Printf("cmd: shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
