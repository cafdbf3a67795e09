package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/recallguard/recallguard/internal/web"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and the scheduled matching loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.engine.Reindex(ctx); err != nil {
				return fmt.Errorf("failed to build index: %w", err)
			}

			interval := time.Duration(a.cfg.Matching.IntervalMinutes) * time.Minute
			if interval > 0 {
				go matchLoop(ctx, a, interval)
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			log.Printf("RecallGuard listening on %s", addr)
			return web.NewServer(a.engine, a.store, a.dispatcher, a.transport).Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// matchLoop runs a matching pass across all categories on a fixed interval.
func matchLoop(ctx context.Context, a *app, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.engine.RunMatchingPass(ctx, ""); err != nil {
				log.Printf("Warning: scheduled matching pass failed: %v", err)
			}
		}
	}
}
