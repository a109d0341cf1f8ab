package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/hlreel/internal/jobs"
	"github.com/forPelevin/hlreel/internal/pipeline"
)

var artifactKinds = []string{
	pipeline.ArtifactFinal,
	pipeline.ArtifactHighlights,
	pipeline.ArtifactSubtitles,
	pipeline.ArtifactHighlightSubtitles,
	pipeline.ArtifactMetadata,
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Process a local video and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}
	cmd.Flags().String("out", "outputs", "Output directory")
	return cmd
}

func run(cmd *cobra.Command, input string) error {
	a, err := bootstrap(cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id, err := a.orch.SubmitFile(ctx, absIn)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "job %s\n", id)
	last := jobs.Job{Progress: -1}
	j, err := a.orch.Watch(ctx, id, a.cfg.Jobs.PollInterval, func(j jobs.Job) {
		if j.Progress != last.Progress || j.Message != last.Message {
			fmt.Fprintf(out, "[%3d%%] %s\n", j.Progress, j.Message)
		}
		last = j
	})
	if err != nil {
		return err
	}
	if j.Status == jobs.StatusError {
		return fmt.Errorf("job %s failed: %s", id, j.Message)
	}

	for _, kind := range artifactKinds {
		if path, err := a.orch.Artifact(id, kind); err == nil {
			fmt.Fprintf(out, "%-20s %s\n", kind, path)
		}
	}
	return waitJobs(a)
}

func waitJobs(a *app) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.orch.Wait(ctx)
}
