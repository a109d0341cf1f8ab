package ports

import (
	"context"

	"github.com/forPelevin/hlreel/internal/types"
)

type MediaTool interface {
	Probe(ctx context.Context, inVideo string) (types.MediaInfo, error)
	ExtractAudio(ctx context.Context, inVideo, outAudio string) error
	Resize(ctx context.Context, inVideo, outVideo string, width, height int) error
	BurnSubtitles(ctx context.Context, inVideo, srtPath, outVideo string, style types.SubtitleStyle) error
	ConcatWindows(ctx context.Context, inVideo string, windows []types.Window, outVideo string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, workDir string) (types.Transcript, error)
}

type HighlightInferrer interface {
	Infer(ctx context.Context, segments []types.Segment, minDuration float64) ([]types.Highlight, error)
}

type Downloader interface {
	Download(ctx context.Context, url, outPath string) error
}
