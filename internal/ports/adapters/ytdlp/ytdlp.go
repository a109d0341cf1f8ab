package ytdlp

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Adapter downloads videos by shelling out to yt-dlp.
type Adapter struct {
	bin   string
	maxMB int
}

func New(binPath string, maxMB int) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Adapter{bin: binPath, maxMB: maxMB}
}

func (a *Adapter) Download(ctx context.Context, url, outPath string) error {
	cmd := exec.CommandContext(ctx, a.bin, a.args(url, outPath)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("yt-dlp: %w\n%s", err, strings.TrimSpace(string(b)))
	}
	return nil
}

func (a *Adapter) args(url, outPath string) []string {
	format := "mp4/best"
	if a.maxMB > 0 {
		limit := fmt.Sprintf("[filesize<%dM]", a.maxMB)
		format = "mp4" + limit + "/best" + limit + "/mp4/best"
	}
	return []string{
		"-f", format,
		"--merge-output-format", "mp4",
		"--no-playlist",
		"-o", outPath,
		url,
	}
}
