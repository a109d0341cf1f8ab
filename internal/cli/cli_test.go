package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlreel/internal/config"
	"github.com/forPelevin/hlreel/internal/pipeline"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "run without input", args: []string{"run"}, want: "accepts 1 arg(s), received 0"},
		{name: "run with extra", args: []string{"run", "a.mp4", "b.mp4"}, want: "accepts 1 arg(s), received 2"},
		{name: "unknown flag", args: []string{"run", "a.mp4", "--wat"}, want: "unknown flag: --wat"},
		{name: "serve with args", args: []string{"serve", "extra"}, want: `unknown command "extra"`},
		{name: "bad port", args: []string{"serve", "--port", "nope"}, want: `invalid argument "nope" for "--port"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestRun_MissingConfigFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := execute(t, "run", "a.mp4", "--config", missing)
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("err = %v", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("HLREEL_ASR_WHISPERCPP_MODEL", "")
	t.Setenv("HLREEL_LLM_PROVIDER", "carrier-pigeon")
	_, err := execute(t, "run", "a.mp4", "--log-level", "info")
	if err == nil || !strings.Contains(err.Error(), `llm.provider "carrier-pigeon"`) {
		t.Fatalf("err = %v", err)
	}
}

func TestBootstrap_ShutsDownObservabilityOnWiringError(t *testing.T) {
	var shutdowns int
	origSetup, origNew := setupObserve, newOrchestrator
	setupObserve = func(context.Context, config.Observe) (func(context.Context) error, error) {
		return func(context.Context) error {
			shutdowns++
			return nil
		}, nil
	}
	newOrchestrator = func(*config.Config, logrus.FieldLogger) (*pipeline.Orchestrator, error) {
		return nil, errors.New("no downloader")
	}
	t.Cleanup(func() { setupObserve, newOrchestrator = origSetup, origNew })

	t.Setenv("OPENROUTER_API_KEY", "dummy")
	t.Setenv("HLREEL_ASR_WHISPERCPP_MODEL", "/nonexistent/ggml-base.bin")
	t.Setenv("HLREEL_PATHS_LOGS", t.TempDir())

	_, err := execute(t, "run", "a.mp4")
	if err == nil || !strings.Contains(err.Error(), "no downloader") {
		t.Fatalf("err = %v", err)
	}
	if shutdowns != 1 {
		t.Fatalf("observability shutdowns = %d, want 1", shutdowns)
	}
}
