package pipeline

import (
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/forPelevin/hlreel/internal/config"
	"github.com/forPelevin/hlreel/internal/ports/adapters/gemini"
	"github.com/forPelevin/hlreel/internal/ports/adapters/openaiwhisper"
	"github.com/forPelevin/hlreel/internal/ports/adapters/openrouter"
	"github.com/forPelevin/hlreel/internal/ports/adapters/whispercpp"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.ASR.Whisper.Model = "/models/ggml-base.bin"
	cfg.LLM.OpenRouter.APIKey = "key"
	return cfg
}

func TestAdapters_Providers(t *testing.T) {
	log, _ := logtest.NewNullLogger()

	cfg := testConfig(t)
	d, err := Adapters(cfg, log)
	if err != nil {
		t.Fatalf("Adapters: %v", err)
	}
	if _, ok := d.ASR.(*whispercpp.Adapter); !ok {
		t.Fatalf("asr = %T", d.ASR)
	}
	if _, ok := d.LLM.(*openrouter.Adapter); !ok {
		t.Fatalf("llm = %T", d.LLM)
	}
	if d.Media == nil || d.Downloader == nil {
		t.Fatalf("deps = %+v", d)
	}

	cfg.ASR.Provider = "openai"
	cfg.LLM.Provider = "gemini"
	cfg.LLM.Gemini.APIKeys = []string{"a", "b"}
	d, err = Adapters(cfg, log)
	if err != nil {
		t.Fatalf("Adapters: %v", err)
	}
	if _, ok := d.ASR.(*openaiwhisper.Adapter); !ok {
		t.Fatalf("asr = %T", d.ASR)
	}
	if _, ok := d.LLM.(*gemini.Adapter); !ok {
		t.Fatalf("llm = %T", d.LLM)
	}
}

func TestAdapters_Rejects(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	tests := map[string]func(*config.Config){
		"asr provider":     func(c *config.Config) { c.ASR.Provider = "ears" },
		"llm provider":     func(c *config.Config) { c.LLM.Provider = "oracle" },
		"openrouter url":   func(c *config.Config) { c.LLM.OpenRouter.BaseURL = "http://evil.example" },
		"download backend": func(c *config.Config) { c.Download.Backend = "torrent" },
	}
	for name, mod := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			mod(cfg)
			if _, err := Adapters(cfg, log); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Video.AudioFormat = "mp3"
	opts := OptionsFromConfig(cfg)
	if opts.AudioFile != "audio.mp3" {
		t.Fatalf("audio file = %q", opts.AudioFile)
	}
	if opts.MaxBytes != 500<<20 || opts.Width != 1080 || opts.Height != 1920 {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.Style.FontSize != 50 || opts.Style.BgOpacity != 0.7 {
		t.Fatalf("style = %+v", opts.Style)
	}
}
