package usecase

import (
	"context"
	"errors"
	"os"

	"github.com/forPelevin/hlreel/internal/types"
)

var errFake = errors.New("fake failure")

type fakeMedia struct {
	info    types.MediaInfo
	failOn  string
	calls   []string
	resizeW int
	resizeH int
	windows []types.Window
}

func (f *fakeMedia) call(name, out string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errFake
	}
	if out != "" {
		return os.WriteFile(out, []byte(name), 0o644)
	}
	return nil
}

func (f *fakeMedia) Probe(_ context.Context, _ string) (types.MediaInfo, error) {
	if err := f.call("probe", ""); err != nil {
		return types.MediaInfo{}, err
	}
	return f.info, nil
}

func (f *fakeMedia) ExtractAudio(_ context.Context, _, out string) error {
	return f.call("extract_audio", out)
}

func (f *fakeMedia) Resize(_ context.Context, _, out string, w, h int) error {
	f.resizeW, f.resizeH = w, h
	return f.call("resize", out)
}

func (f *fakeMedia) BurnSubtitles(_ context.Context, _, _, out string, _ types.SubtitleStyle) error {
	return f.call("burn", out)
}

func (f *fakeMedia) ConcatWindows(_ context.Context, _ string, ws []types.Window, out string) error {
	f.windows = ws
	return f.call("concat", out)
}

type fakeASR struct {
	tr   types.Transcript
	fail bool
}

func (f fakeASR) Transcribe(_ context.Context, _, _ string) (types.Transcript, error) {
	if f.fail {
		return types.Transcript{}, errFake
	}
	return f.tr, nil
}

type fakeLLM struct {
	hs   []types.Highlight
	fail bool
}

func (f fakeLLM) Infer(_ context.Context, _ []types.Segment, _ float64) ([]types.Highlight, error) {
	if f.fail {
		return nil, errFake
	}
	return f.hs, nil
}

type fakeDownloader struct {
	url string
}

func (f *fakeDownloader) Download(_ context.Context, url, out string) error {
	f.url = url
	return os.WriteFile(out, []byte("video"), 0o644)
}
