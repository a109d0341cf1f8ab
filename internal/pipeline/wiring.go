package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlreel/internal/config"
	"github.com/forPelevin/hlreel/internal/ports"
	"github.com/forPelevin/hlreel/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/hlreel/internal/ports/adapters/gemini"
	"github.com/forPelevin/hlreel/internal/ports/adapters/openaiwhisper"
	"github.com/forPelevin/hlreel/internal/ports/adapters/openrouter"
	"github.com/forPelevin/hlreel/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/hlreel/internal/ports/adapters/youtube"
	"github.com/forPelevin/hlreel/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/hlreel/internal/usecase"
)

// NewFromConfig builds the adapters selected by cfg and an orchestrator
// driving them.
func NewFromConfig(cfg *config.Config, log logrus.FieldLogger) (*Orchestrator, error) {
	deps, err := Adapters(cfg, log)
	if err != nil {
		return nil, err
	}
	return New(usecase.New(deps), OptionsFromConfig(cfg), log), nil
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		UploadDir:      cfg.Paths.Uploads,
		OutputDir:      cfg.Paths.Outputs,
		MaxBytes:       cfg.Video.MaxBytes(),
		MaxConcurrent:  cfg.Jobs.MaxConcurrent,
		ObserverBuffer: cfg.Jobs.ObserverBuffer,
		Width:          cfg.Video.Width,
		Height:         cfg.Video.Height,
		MinHighlight:   cfg.Video.MinHighlight,
		EnforceMin:     cfg.Video.EnforceMinHighlight,
		Style:          cfg.Subtitle.Style(),
		AudioFile:      "audio." + cfg.Video.AudioFormat,
	}
}

func Adapters(cfg *config.Config, log logrus.FieldLogger) (usecase.Deps, error) {
	d := usecase.Deps{Media: ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)}

	switch cfg.ASR.Provider {
	case "whispercpp":
		d.ASR = whispercpp.New(cfg.ASR.Whisper.Bin, cfg.ASR.Whisper.Model, cfg.ASR.Language)
	case "openai":
		d.ASR = openaiwhisper.New(cfg.ASR.OpenAI.APIKey, cfg.ASR.OpenAI.Model, cfg.ASR.Language, cfg.ASR.OpenAI.BaseURL)
	default:
		return usecase.Deps{}, fmt.Errorf("unknown asr provider %q", cfg.ASR.Provider)
	}

	switch cfg.LLM.Provider {
	case "openrouter":
		c := cfg.LLM.OpenRouter
		if err := openrouter.ValidateBaseURL(c.BaseURL, c.AllowedHosts); err != nil {
			return usecase.Deps{}, err
		}
		d.LLM = openrouter.New(c.APIKey, c.Model, c.BaseURL)
	case "gemini":
		d.LLM = gemini.New(cfg.LLM.Gemini.APIKeys, cfg.LLM.Gemini.Model)
	default:
		return usecase.Deps{}, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}

	dl, err := NewDownloader(cfg.Download.Backend,
		ytdlp.New(cfg.Download.YtDlp, cfg.Video.MaxSizeMB),
		youtube.New(cfg.Video.MaxSizeMB),
		log)
	if err != nil {
		return usecase.Deps{}, err
	}
	d.Downloader = dl
	return d, nil
}

// Downloader picks a download backend per URL. In "auto" mode YouTube links
// go through the native client first and fall back to yt-dlp.
type Downloader struct {
	backend string
	generic ports.Downloader
	youtube ports.Downloader
	log     logrus.FieldLogger
}

func NewDownloader(backend string, generic, yt ports.Downloader, log logrus.FieldLogger) (*Downloader, error) {
	switch backend {
	case "ytdlp", "youtube", "auto":
	default:
		return nil, fmt.Errorf("unknown download backend %q", backend)
	}
	return &Downloader{backend: backend, generic: generic, youtube: yt, log: log}, nil
}

func (d *Downloader) Download(ctx context.Context, url, outPath string) error {
	switch d.backend {
	case "youtube":
		return d.youtube.Download(ctx, url, outPath)
	case "auto":
		if youtube.IsYouTubeURL(url) {
			err := d.youtube.Download(ctx, url, outPath)
			if err == nil {
				return nil
			}
			d.log.WithError(err).WithField("url", url).Warn("native youtube download failed, falling back to yt-dlp")
			_ = os.Remove(outPath)
		}
	}
	return d.generic.Download(ctx, url, outPath)
}

// ensure adapters implement ports
var (
	_ ports.MediaTool         = (*ffmpeg.Adapter)(nil)
	_ ports.Transcriber       = (*whispercpp.Adapter)(nil)
	_ ports.Transcriber       = (*openaiwhisper.Adapter)(nil)
	_ ports.HighlightInferrer = (*openrouter.Adapter)(nil)
	_ ports.HighlightInferrer = (*gemini.Adapter)(nil)
	_ ports.Downloader        = (*ytdlp.Adapter)(nil)
	_ ports.Downloader        = (*youtube.Adapter)(nil)
	_ ports.Downloader        = (*Downloader)(nil)
)
