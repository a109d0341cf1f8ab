package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/hlreel/internal/domain/subtitles"
	"github.com/forPelevin/hlreel/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// ExtractAudio writes the first audio stream as mono 16 kHz. The container is
// chosen from outAudio's extension (.wav or .mp3).
func (a *Adapter) ExtractAudio(ctx context.Context, inVideo, outAudio string) error {
	args := []string{"-i", inVideo, "-map", "a:0", "-vn", "-ac", "1", "-ar", "16000"}
	switch strings.ToLower(filepath.Ext(outAudio)) {
	case ".wav":
		args = append(args, "-f", "wav")
	case ".mp3":
		args = append(args, "-q:a", "0", "-f", "mp3")
	default:
		return fmt.Errorf("unsupported audio container %q", filepath.Ext(outAudio))
	}
	return a.run(ctx, "extract audio", append(args, outAudio)...)
}

// Resize scales inVideo to cover width x height and center-crops the rest.
func (a *Adapter) Resize(ctx context.Context, inVideo, outVideo string, width, height int) error {
	info, err := a.Probe(ctx, inVideo)
	if err != nil {
		return err
	}
	g, err := CoverGeometry(info.Width, info.Height, width, height)
	if err != nil {
		return err
	}
	args := []string{"-i", inVideo, "-vf", g.Filter()}
	args = append(args, encodeArgs...)
	return a.run(ctx, "resize", append(args, outVideo)...)
}

func (a *Adapter) BurnSubtitles(ctx context.Context, inVideo, srtPath, outVideo string, style types.SubtitleStyle) error {
	force, err := subtitles.ForceStyle(style)
	if err != nil {
		return err
	}
	args := []string{"-i", inVideo, "-vf", subtitlesFilter(srtPath, force)}
	args = append(args, encodeArgs...)
	return a.run(ctx, "burn subtitles", append(args, outVideo)...)
}

// ConcatWindows cuts every window out of inVideo and joins them in order in a
// single ffmpeg invocation.
func (a *Adapter) ConcatWindows(ctx context.Context, inVideo string, windows []types.Window, outVideo string) error {
	if len(windows) == 0 {
		return fmt.Errorf("no windows to concatenate")
	}
	args := []string{
		"-i", inVideo,
		"-filter_complex", concatFilter(windows),
		"-map", "[outv]",
		"-map", "[outa]",
	}
	args = append(args, encodeArgs...)
	return a.run(ctx, "concat windows", append(args, outVideo)...)
}

var encodeArgs = []string{
	"-c:v", "libx264",
	"-preset", "veryfast",
	"-crf", "18",
	"-pix_fmt", "yuv420p",
	"-c:a", "aac",
	"-b:a", "192k",
	"-movflags", "+faststart",
}

func (a *Adapter) run(ctx context.Context, op string, args ...string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, append([]string{"-hide_banner", "-nostdin", "-y"}, args...)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w\n%s", op, err, tail(b, 2048))
	}
	return nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}
