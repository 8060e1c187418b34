package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/laminotes/laminotes/internal/mcp"
	"github.com/laminotes/laminotes/internal/metrics"
)

func newMCPCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server for laminotes over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			collector := metrics.New()
			a, err := openApp(collector)
			if err != nil {
				return err
			}
			defer a.Close()

			if metricsAddr != "" {
				srv := newMetricsServer(metricsAddr, collector)
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.env.Logger.Error("metrics server stopped", "addr", metricsAddr, "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				a.env.Logger.Info("serving metrics", "addr", metricsAddr)
			}

			server := mcp.NewServer(a.env, version)
			if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func newMetricsServer(addr string, collector *metrics.Collector) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
