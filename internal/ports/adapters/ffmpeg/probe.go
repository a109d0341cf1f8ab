package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/hlreel/internal/types"
)

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (a *Adapter) Probe(ctx context.Context, inVideo string) (types.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_entries", "stream=codec_type,width,height:format=duration",
		inVideo,
	)
	b, err := cmd.Output()
	if err != nil {
		var stderr string
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		return types.MediaInfo{}, fmt.Errorf("ffprobe %s: %w\n%s", inVideo, err, stderr)
	}
	return parseProbe(b)
}

func parseProbe(b []byte) (types.MediaInfo, error) {
	var po probeOutput
	if err := json.Unmarshal(b, &po); err != nil {
		return types.MediaInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info types.MediaInfo
	for _, s := range po.Streams {
		switch s.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width, info.Height = s.Width, s.Height
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if d := strings.TrimSpace(po.Format.Duration); d != "" && d != "N/A" {
		sec, err := strconv.ParseFloat(d, 64)
		if err != nil {
			return types.MediaInfo{}, fmt.Errorf("parse duration %q: %w", d, err)
		}
		info.Duration = time.Duration(math.Round(sec * float64(time.Second)))
	}
	return info, nil
}
