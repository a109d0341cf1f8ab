// Package config loads hlreel settings from defaults, an optional YAML file,
// .env, environment variables and command-line flags, in increasing order of
// precedence. The result is static for the life of the process.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/forPelevin/hlreel/internal/ports/adapters/openrouter"
	"github.com/forPelevin/hlreel/internal/types"
)

const EnvPrefix = "HLREEL"

type Config struct {
	Server   Server   `mapstructure:"server"`
	Paths    Paths    `mapstructure:"paths"`
	Video    Video    `mapstructure:"video"`
	Subtitle Subtitle `mapstructure:"subtitle"`
	Jobs     Jobs     `mapstructure:"jobs"`
	ASR      ASR      `mapstructure:"asr"`
	LLM      LLM      `mapstructure:"llm"`
	Download Download `mapstructure:"download"`
	Tools    Tools    `mapstructure:"tools"`
	Log      Log      `mapstructure:"log"`
	Observe  Observe  `mapstructure:"observe"`
}

type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s Server) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

type Paths struct {
	Uploads string `mapstructure:"uploads"`
	Outputs string `mapstructure:"outputs"`
	Logs    string `mapstructure:"logs"`
}

type Video struct {
	Width               int     `mapstructure:"width"`
	Height              int     `mapstructure:"height"`
	MinHighlight        float64 `mapstructure:"min_highlight"`
	EnforceMinHighlight bool    `mapstructure:"enforce_min_highlight"`
	MaxSizeMB           int     `mapstructure:"max_size_mb"`
	AudioFormat         string  `mapstructure:"audio_format"`
}

func (v Video) MaxBytes() int64 { return int64(v.MaxSizeMB) << 20 }

type Subtitle struct {
	FontSize  int     `mapstructure:"font_size"`
	FontColor string  `mapstructure:"font_color"`
	BgColor   string  `mapstructure:"bg_color"`
	BgOpacity float64 `mapstructure:"bg_opacity"`
}

func (s Subtitle) Style() types.SubtitleStyle {
	return types.SubtitleStyle{FontSize: s.FontSize, FontColor: s.FontColor, BgColor: s.BgColor, BgOpacity: s.BgOpacity}
}

type Jobs struct {
	// MaxConcurrent caps running jobs; 0 means unlimited.
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	ObserverBuffer int           `mapstructure:"observer_buffer"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

type ASR struct {
	Provider string        `mapstructure:"provider"`
	Language string        `mapstructure:"language"`
	Whisper  WhisperCPP    `mapstructure:"whispercpp"`
	OpenAI   OpenAIWhisper `mapstructure:"openai"`
}

type WhisperCPP struct {
	Bin   string `mapstructure:"bin"`
	Model string `mapstructure:"model"`
}

type OpenAIWhisper struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type LLM struct {
	Provider   string     `mapstructure:"provider"`
	OpenRouter OpenRouter `mapstructure:"openrouter"`
	Gemini     Gemini     `mapstructure:"gemini"`
}

type OpenRouter struct {
	APIKey       string   `mapstructure:"api_key"`
	Model        string   `mapstructure:"model"`
	BaseURL      string   `mapstructure:"base_url"`
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

type Gemini struct {
	APIKeys []string `mapstructure:"api_keys"`
	Model   string   `mapstructure:"model"`
}

type Download struct {
	Backend string `mapstructure:"backend"`
	YtDlp   string `mapstructure:"ytdlp_bin"`
}

type Tools struct {
	FFmpeg  string `mapstructure:"ffmpeg"`
	FFprobe string `mapstructure:"ffprobe"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File is relative to paths.logs unless absolute; empty disables it.
	File string `mapstructure:"file"`
}

type Observe struct {
	ServiceName  string  `mapstructure:"service_name"`
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
	SentryDSN    string  `mapstructure:"sentry_dsn"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("paths.uploads", "uploads")
	v.SetDefault("paths.outputs", "outputs")
	v.SetDefault("paths.logs", "logs")

	v.SetDefault("video.width", 1080)
	v.SetDefault("video.height", 1920)
	v.SetDefault("video.min_highlight", 2.0)
	v.SetDefault("video.enforce_min_highlight", false)
	v.SetDefault("video.max_size_mb", 500)
	v.SetDefault("video.audio_format", "wav")

	v.SetDefault("subtitle.font_size", 50)
	v.SetDefault("subtitle.font_color", "white")
	v.SetDefault("subtitle.bg_color", "black")
	v.SetDefault("subtitle.bg_opacity", 0.7)

	v.SetDefault("jobs.max_concurrent", 0)
	v.SetDefault("jobs.observer_buffer", 32)
	v.SetDefault("jobs.poll_interval", 500*time.Millisecond)

	v.SetDefault("asr.provider", "whispercpp")
	v.SetDefault("asr.language", "auto")
	v.SetDefault("asr.whispercpp.bin", "whisper-cli")
	v.SetDefault("asr.whispercpp.model", "")
	v.SetDefault("asr.openai.api_key", "")
	v.SetDefault("asr.openai.model", "whisper-1")
	v.SetDefault("asr.openai.base_url", "https://api.openai.com")

	v.SetDefault("llm.provider", "openrouter")
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", "openai/gpt-4-turbo")
	v.SetDefault("llm.openrouter.base_url", "https://openrouter.ai")
	v.SetDefault("llm.openrouter.allowed_hosts", []string{})
	v.SetDefault("llm.gemini.api_keys", []string{})
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")

	v.SetDefault("download.backend", "ytdlp")
	v.SetDefault("download.ytdlp_bin", "yt-dlp")

	v.SetDefault("tools.ffmpeg", "ffmpeg")
	v.SetDefault("tools.ffprobe", "ffprobe")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "app.log")

	v.SetDefault("observe.service_name", "hlreel")
	v.SetDefault("observe.environment", "development")
	v.SetDefault("observe.otlp_endpoint", "")
	v.SetDefault("observe.sampling_rate", 1.0)
	v.SetDefault("observe.sentry_dsn", "")
}

// bare provider variables, as commonly exported for other tools
var envAliases = map[string][]string{
	"llm.openrouter.api_key":       {"OPENROUTER_API_KEY"},
	"llm.openrouter.model":         {"OPENROUTER_MODEL"},
	"llm.openrouter.base_url":      {"OPENROUTER_BASE_URL"},
	"llm.openrouter.allowed_hosts": {"OPENROUTER_ALLOWED_HOSTS"},
	"asr.openai.api_key":           {"OPENAI_API_KEY"},
	"llm.gemini.api_keys":          {"GEMINI_API_KEYS", "GEMINI_API_KEY"},
	"observe.sentry_dsn":           {"SENTRY_DSN"},
}

// FlagBindings maps command-line flag names to config keys.
var FlagBindings = map[string]string{
	"log-level":      "log.level",
	"host":           "server.host",
	"port":           "server.port",
	"max-concurrent": "jobs.max_concurrent",
	"out":            "paths.outputs",
}

// Load reads the configuration. path may be empty. flags may be nil; any flag
// listed in FlagBindings that the user set overrides other sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load() // best-effort: load .env if present

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range FlagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("server.port %d out of range", c.Server.Port)
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 || c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		add("video size %dx%d must be positive and even", c.Video.Width, c.Video.Height)
	}
	if c.Video.MinHighlight < 0 {
		add("video.min_highlight must be >= 0")
	}
	if c.Video.MaxSizeMB <= 0 {
		add("video.max_size_mb must be > 0")
	}
	switch c.Video.AudioFormat {
	case "wav", "mp3":
	default:
		add("video.audio_format %q must be wav or mp3", c.Video.AudioFormat)
	}
	if c.Subtitle.FontSize <= 0 {
		add("subtitle.font_size must be > 0")
	}
	if c.Subtitle.BgOpacity < 0 || c.Subtitle.BgOpacity > 1 {
		add("subtitle.bg_opacity must be within [0, 1]")
	}
	if c.Jobs.MaxConcurrent < 0 {
		add("jobs.max_concurrent must be >= 0")
	}
	if c.Jobs.PollInterval <= 0 {
		add("jobs.poll_interval must be > 0")
	}

	switch c.ASR.Provider {
	case "whispercpp":
		if c.ASR.Whisper.Model == "" {
			add("asr.whispercpp.model is required")
		}
	case "openai":
		if c.ASR.OpenAI.APIKey == "" {
			add("asr.openai.api_key (or OPENAI_API_KEY) is required")
		}
	default:
		add("asr.provider %q must be whispercpp or openai", c.ASR.Provider)
	}

	switch c.LLM.Provider {
	case "openrouter":
		if c.LLM.OpenRouter.APIKey == "" {
			add("llm.openrouter.api_key (or OPENROUTER_API_KEY) is required")
		}
		if err := openrouter.ValidateBaseURL(c.LLM.OpenRouter.BaseURL, c.LLM.OpenRouter.AllowedHosts); err != nil {
			errs = append(errs, err)
		}
	case "gemini":
		if len(c.LLM.Gemini.APIKeys) == 0 {
			add("llm.gemini.api_keys (or GEMINI_API_KEY) is required")
		}
	default:
		add("llm.provider %q must be openrouter or gemini", c.LLM.Provider)
	}

	switch c.Download.Backend {
	case "ytdlp", "youtube", "auto":
	default:
		add("download.backend %q must be ytdlp, youtube or auto", c.Download.Backend)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		add("log.format %q must be text or json", c.Log.Format)
	}
	if c.Observe.SamplingRate < 0 || c.Observe.SamplingRate > 1 {
		add("observe.sampling_rate must be within [0, 1]")
	}
	return errors.Join(errs...)
}
