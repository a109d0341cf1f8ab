package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// Adapter downloads YouTube videos natively, without external binaries.
// Only progressive mp4 formats (video and audio in one stream) are used so no
// muxing step is needed.
type Adapter struct {
	client   ytdl.Client
	maxBytes int64
}

func New(maxMB int) *Adapter {
	return &Adapter{client: ytdl.Client{}, maxBytes: int64(maxMB) << 20}
}

func (a *Adapter) Download(ctx context.Context, url, outPath string) error {
	video, err := a.client.GetVideoContext(ctx, url)
	if err != nil {
		return fmt.Errorf("youtube: get video: %w", err)
	}
	format, err := pickFormat(video.Formats, a.maxBytes)
	if err != nil {
		return fmt.Errorf("youtube %s: %w", video.ID, err)
	}

	stream, _, err := a.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("youtube: open stream: %w", err)
	}
	defer stream.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	var src io.Reader = stream
	if a.maxBytes > 0 {
		src = io.LimitReader(stream, a.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && a.maxBytes > 0 && n > a.maxBytes {
		err = fmt.Errorf("video exceeds %d MB", a.maxBytes>>20)
	}
	if err != nil {
		_ = os.Remove(outPath)
		return fmt.Errorf("youtube: download: %w", err)
	}
	return nil
}

var errNoFormat = errors.New("no progressive mp4 format within size limit")

// pickFormat returns the tallest progressive mp4 format that fits maxBytes.
// Formats with unknown size are accepted; the copy is size-limited anyway.
func pickFormat(formats []ytdl.Format, maxBytes int64) (*ytdl.Format, error) {
	var cands []*ytdl.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "video/mp4") || f.AudioChannels == 0 {
			continue
		}
		if maxBytes > 0 && f.ContentLength > maxBytes {
			continue
		}
		cands = append(cands, f)
	}
	if len(cands) == 0 {
		return nil, errNoFormat
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Height != cands[j].Height {
			return cands[i].Height > cands[j].Height
		}
		return cands[i].Bitrate > cands[j].Bitrate
	})
	return cands[0], nil
}

// IsYouTubeURL reports whether url points at a YouTube host.
func IsYouTubeURL(url string) bool {
	u := strings.ToLower(url)
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	u = strings.TrimPrefix(u, "m.")
	return strings.HasPrefix(u, "youtube.com/") || strings.HasPrefix(u, "youtu.be/") || strings.HasPrefix(u, "music.youtube.com/")
}
