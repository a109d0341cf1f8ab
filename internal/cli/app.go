package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forPelevin/hlreel/internal/config"
	"github.com/forPelevin/hlreel/internal/logging"
	"github.com/forPelevin/hlreel/internal/observe"
	"github.com/forPelevin/hlreel/internal/pipeline"
)

// Replaced in tests.
var (
	setupObserve    = observe.Setup
	newOrchestrator = pipeline.NewFromConfig
)

type app struct {
	cfg   *config.Config
	log   *logrus.Logger
	orch  *pipeline.Orchestrator
	close func()
}

// bootstrap loads and validates the configuration, then builds the logger,
// tracing and the orchestrator.
func bootstrap(cmd *cobra.Command, console io.Writer) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, closeLog, err := logging.New(cfg.Log, cfg.Paths.Logs, console)
	if err != nil {
		return nil, err
	}
	shutdownObs, err := setupObserve(cmd.Context(), cfg.Observe)
	if err != nil {
		closeLog()
		return nil, err
	}
	closeAll := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownObs(ctx); err != nil {
			log.WithError(err).Warn("observability shutdown")
		}
		closeLog()
	}

	orch, err := newOrchestrator(cfg, log)
	if err != nil {
		closeAll()
		return nil, err
	}
	orch.OnFailure(func(jobID string, err error) {
		observe.CaptureJobError(jobID, pipeline.Step(err), err)
	})

	return &app{cfg: cfg, log: log, orch: orch, close: closeAll}, nil
}
