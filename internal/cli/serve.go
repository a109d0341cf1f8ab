package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/hlreel/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd)
		},
	}
	cmd.Flags().String("host", "0.0.0.0", "Listen host")
	cmd.Flags().Int("port", 8000, "Listen port")
	cmd.Flags().Int("max-concurrent", 0, "Max jobs processed at once (0 = unlimited)")
	cmd.Flags().String("out", "outputs", "Output directory")
	return cmd
}

func serve(cmd *cobra.Command) error {
	a, err := bootstrap(cmd, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	for _, dir := range []string{a.cfg.Paths.Uploads, a.cfg.Paths.Outputs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	srv := server.New(a.orch, server.Options{
		BodyLimit: fmt.Sprintf("%dM", a.cfg.Video.MaxSizeMB+10),
	}, a.log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(a.cfg.Server.Addr()) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down, waiting for running jobs")
	sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		a.log.WithError(err).Warn("http shutdown")
	}
	if err := a.orch.Wait(sctx); err != nil {
		a.log.WithError(err).Warn("jobs still running at shutdown")
	}
	return nil
}
