package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/forPelevin/hlreel/internal/apperr"
	"github.com/forPelevin/hlreel/internal/domain/highlights"
	"github.com/forPelevin/hlreel/internal/domain/subtitles"
	"github.com/forPelevin/hlreel/internal/ports"
	"github.com/forPelevin/hlreel/internal/types"
)

// Artifact file names inside a job's output directory.
const (
	ResizedFile            = "resized.mp4"
	SubtitlesFile          = "subtitles.srt"
	FinalFile              = "final_with_subtitles.mp4"
	HighlightsFile         = "highlights.mp4"
	HighlightSubtitlesFile = "highlights.srt"
	MetadataFile           = "metadata.json"

	DefaultAudioFile = "audio.wav"
)

const tracerName = "github.com/forPelevin/hlreel/internal/usecase"

type Deps struct {
	Media      ports.MediaTool
	ASR        ports.Transcriber
	LLM        ports.HighlightInferrer
	Downloader ports.Downloader
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	JobID string
	// VideoPath is the source video. When SourceURL is set the video is
	// downloaded to this path first.
	VideoPath string
	SourceURL string
	Filename  string
	OutDir    string
	AudioFile string

	Width, Height int
	MinHighlight  float64
	EnforceMin    bool
	Style         types.SubtitleStyle

	Progress func(pct int, msg string)
	Log      logrus.FieldLogger
}

type Result struct {
	Metadata types.Metadata
	// HasReel is false when no highlight window survived clamping.
	HasReel bool
}

// Run executes the steps in order. A step runs only if every earlier step
// succeeded; the returned error carries the failing step's kind.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := in.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("job_id", in.JobID)
	r := runner{in: in, log: log, tracer: otel.Tracer(tracerName)}

	base := 0
	if in.SourceURL != "" {
		err := r.step(ctx, "download", apperr.KindDownload, 5, "Downloading video from URL...", func(ctx context.Context) error {
			if u.d.Downloader == nil {
				return errors.New("no downloader configured")
			}
			if err := os.MkdirAll(filepath.Dir(in.VideoPath), 0o755); err != nil {
				return err
			}
			return u.d.Downloader.Download(ctx, in.SourceURL, in.VideoPath)
		})
		if err != nil {
			return Result{}, err
		}
		r.report(15, "Video downloaded, starting processing...")
		base = 15
	}

	if err := os.MkdirAll(in.OutDir, 0o755); err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "prepare output dir", err)
	}

	audioName := in.AudioFile
	if audioName == "" {
		audioName = DefaultAudioFile
	}
	var (
		info     types.MediaInfo
		audio    = filepath.Join(in.OutDir, audioName)
		resized  = filepath.Join(in.OutDir, ResizedFile)
		srtPath  = filepath.Join(in.OutDir, SubtitlesFile)
		final    = filepath.Join(in.OutDir, FinalFile)
		reel     = filepath.Join(in.OutDir, HighlightsFile)
		reelSubs = filepath.Join(in.OutDir, HighlightSubtitlesFile)
		segs     []types.Segment
		hs       []types.Highlight
		hasReel  bool
	)

	err := r.step(ctx, "extract_audio", apperr.KindMedia, base+20, "Extracting audio...", func(ctx context.Context) error {
		var err error
		info, err = u.d.Media.Probe(ctx, in.VideoPath)
		if err != nil {
			return err
		}
		if !info.HasAudio {
			return fmt.Errorf("%s has no audio stream", filepath.Base(in.VideoPath))
		}
		return u.d.Media.ExtractAudio(ctx, in.VideoPath, audio)
	})
	if err != nil {
		return Result{}, err
	}

	err = r.step(ctx, "transcribe", apperr.KindTranscription, base+35, "Extracting subtitles from speech...", func(ctx context.Context) error {
		tr, err := u.d.ASR.Transcribe(ctx, audio, in.OutDir)
		if err != nil {
			return err
		}
		segs = subtitles.Sanitize(tr.Segments)
		log.WithField("segments", len(segs)).Info("transcription done")
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	err = r.step(ctx, "infer_highlights", apperr.KindInference, base+50, "Detecting highlights...", func(ctx context.Context) error {
		var err error
		hs, err = u.d.LLM.Infer(ctx, segs, in.MinHighlight)
		if err != nil {
			return err
		}
		if in.EnforceMin {
			hs = highlights.FilterMinDuration(hs, in.MinHighlight)
		}
		log.WithField("highlights", len(hs)).Info("highlights detected")
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	err = r.step(ctx, "resize", apperr.KindMedia, base+60, "Resizing video to 9:16 vertical format...", func(ctx context.Context) error {
		return u.d.Media.Resize(ctx, in.VideoPath, resized, in.Width, in.Height)
	})
	if err != nil {
		return Result{}, err
	}

	err = r.step(ctx, "burn_subtitles", apperr.KindMedia, base+70, "Embedding subtitles into video...", func(ctx context.Context) error {
		if err := os.WriteFile(srtPath, []byte(subtitles.Render(segs)), 0o644); err != nil {
			return fmt.Errorf("write srt: %w", err)
		}
		return u.d.Media.BurnSubtitles(ctx, resized, srtPath, final, in.Style)
	})
	if err != nil {
		return Result{}, err
	}

	err = r.step(ctx, "highlight_reel", apperr.KindMedia, base+80, "Creating highlight reel...", func(ctx context.Context) error {
		windows := highlights.Windows(hs, timelineEnd(info, segs))
		if len(windows) == 0 {
			log.Warn("no highlight window survived, skipping reel")
			return nil
		}
		if err := u.d.Media.ConcatWindows(ctx, resized, windows, reel); err != nil {
			return err
		}
		reelSegs, total := subtitles.RetimeAll(segs, windows)
		log.WithFields(logrus.Fields{"windows": len(windows), "reel_seconds": total}).Info("highlight reel written")
		if err := os.WriteFile(reelSubs, []byte(subtitles.Render(reelSegs)), 0o644); err != nil {
			return fmt.Errorf("write reel srt: %w", err)
		}
		hasReel = true
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	meta := types.Metadata{
		JobID:         in.JobID,
		Filename:      in.Filename,
		Highlights:    nonNil(hs),
		Subtitles:     nonNil(segs),
		NumHighlights: len(hs),
		NumSubtitles:  len(segs),
		ProcessedAt:   time.Now().UTC(),
	}
	err = r.step(ctx, "finalize", apperr.KindInternal, 95, "Finalizing results...", func(context.Context) error {
		b, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		return os.WriteFile(filepath.Join(in.OutDir, MetadataFile), b, 0o644)
	})
	if err != nil {
		return Result{}, err
	}

	return Result{Metadata: meta, HasReel: hasReel}, nil
}

type runner struct {
	in     Input
	log    logrus.FieldLogger
	tracer trace.Tracer
}

func (r runner) report(pct int, msg string) {
	if r.in.Progress != nil {
		r.in.Progress(pct, msg)
	}
}

func (r runner) step(ctx context.Context, name string, kind apperr.Kind, pct int, msg string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.KindInternal, name, err)
	}
	r.report(pct, msg)

	ctx, span := r.tracer.Start(ctx, "usecase."+name, trace.WithAttributes(
		attribute.String("job.id", r.in.JobID),
		attribute.Int("job.progress", pct),
	))
	defer span.End()

	start := time.Now()
	if err := fn(ctx); err != nil {
		err = apperr.Wrap(kind, name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.WithFields(logrus.Fields{"step": name, "error": err}).Error("step failed")
		return err
	}
	span.SetStatus(codes.Ok, "")
	r.log.WithFields(logrus.Fields{"step": name, "took": time.Since(start).Round(time.Millisecond)}).Debug("step done")
	return nil
}

// timelineEnd is the probed duration, or the end of the last subtitle when
// the container does not report one.
func timelineEnd(info types.MediaInfo, segs []types.Segment) float64 {
	if d := info.Duration.Seconds(); d > 0 {
		return d
	}
	end := 0.0
	for _, s := range segs {
		end = math.Max(end, s.End)
	}
	return end
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
