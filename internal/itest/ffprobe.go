//go:build integration

package itest

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

func probeDurationSeconds(mp4Path string) (float64, error) {
	s, err := ffprobe(mp4Path, "format=duration")
	if err != nil {
		return 0, err
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

func probeSize(mp4Path string) (int, int, error) {
	s, err := ffprobe(mp4Path, "stream=width,height", "-select_streams", "v:0")
	if err != nil {
		return 0, 0, err
	}
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected ffprobe output %q", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse width %q: %w", parts[0], err)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parse height %q: %w", parts[1], err)
	}
	return w, h, nil
}

func ffprobe(path, entries string, extra ...string) (string, error) {
	args := append([]string{"-v", "error"}, extra...)
	args = append(args,
		"-show_entries", entries,
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := exec.Command("ffprobe", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	return strings.TrimSpace(string(b)), nil
}

func itoa(n int) string { return strconv.Itoa(n) }
