package ytdlp

import (
	"reflect"
	"testing"
)

func TestArgs(t *testing.T) {
	got := New("", 500).args("https://example.com/v", "/tmp/out.mp4")
	want := []string{
		"-f", "mp4[filesize<500M]/best[filesize<500M]/mp4/best",
		"--merge-output-format", "mp4",
		"--no-playlist",
		"-o", "/tmp/out.mp4",
		"https://example.com/v",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("args = %v\nwant %v", got, want)
	}
}

func TestArgs_NoLimit(t *testing.T) {
	got := New("yt", 0).args("u", "o")
	if got[1] != "mp4/best" {
		t.Fatalf("format = %q", got[1])
	}
}
