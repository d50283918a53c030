package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tablescope/internal/loader"
	"github.com/KaramelBytes/tablescope/internal/pipeline"
	"github.com/KaramelBytes/tablescope/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload dashboard and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		addr := c.ListenAddr
		if cmd.Flags().Changed("addr") && serveAddr != "" {
			addr = serveAddr
		}
		p := pipeline.New(c.PipelineOptions(), loader.NewCache(c.CacheEntries), logger)
		srv, err := server.New(p, server.Options{MaxUploadMB: c.MaxUploadMB}, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		errc := make(chan error, 1)
		go func() { errc <- srv.Start(addr) }()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on http://%s\n", addr)

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errc
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
}
