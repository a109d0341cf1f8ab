package ffmpeg

import (
	"testing"
	"time"

	"github.com/forPelevin/hlreel/internal/types"
)

func TestCoverGeometry(t *testing.T) {
	cases := []struct {
		name   string
		iw, ih int
		want   Geometry
	}{
		{"landscape 1080p", 1920, 1080, Geometry{ScaleW: 3414, ScaleH: 1920, CropW: 1080, CropH: 1920, X: 1167, Y: 0}},
		{"landscape 360p", 640, 360, Geometry{ScaleW: 3414, ScaleH: 1920, CropW: 1080, CropH: 1920, X: 1167, Y: 0}},
		{"already vertical", 1080, 1920, Geometry{ScaleW: 1080, ScaleH: 1920, CropW: 1080, CropH: 1920}},
		{"smaller vertical", 720, 1280, Geometry{ScaleW: 1080, ScaleH: 1920, CropW: 1080, CropH: 1920}},
		{"square", 1000, 1000, Geometry{ScaleW: 1920, ScaleH: 1920, CropW: 1080, CropH: 1920, X: 420, Y: 0}},
		{"tall", 500, 2000, Geometry{ScaleW: 1080, ScaleH: 4320, CropW: 1080, CropH: 1920, X: 0, Y: 1200}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CoverGeometry(tc.iw, tc.ih, 1080, 1920)
			if err != nil {
				t.Fatalf("CoverGeometry: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
			if got.ScaleW%2 != 0 || got.ScaleH%2 != 0 {
				t.Fatalf("odd scaled size %+v", got)
			}
		})
	}
}

func TestCoverGeometry_Invalid(t *testing.T) {
	if _, err := CoverGeometry(0, 1080, 1080, 1920); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := CoverGeometry(1920, 1080, 1081, 1920); err == nil {
		t.Fatal("expected error for odd target")
	}
}

func TestGeometryFilter(t *testing.T) {
	g := Geometry{ScaleW: 3414, ScaleH: 1920, CropW: 1080, CropH: 1920, X: 1167}
	if got, want := g.Filter(), "scale=3414:1920,crop=1080:1920:1167:0,setsar=1"; got != want {
		t.Fatalf("Filter() = %q, want %q", got, want)
	}
}

func TestConcatFilter(t *testing.T) {
	got := concatFilter([]types.Window{{Start: 3, End: 5}, {Start: 7.25, End: 9}})
	want := "[0:v]trim=start=3.000:end=5.000,setpts=PTS-STARTPTS[v0];" +
		"[0:a]atrim=start=3.000:end=5.000,asetpts=PTS-STARTPTS[a0];" +
		"[0:v]trim=start=7.250:end=9.000,setpts=PTS-STARTPTS[v1];" +
		"[0:a]atrim=start=7.250:end=9.000,asetpts=PTS-STARTPTS[a1];" +
		"[v0][a0][v1][a1]concat=n=2:v=1:a=1[outv][outa]"
	if got != want {
		t.Fatalf("concatFilter =\n%s\nwant\n%s", got, want)
	}
}

func TestSubtitlesFilter_Escapes(t *testing.T) {
	got := subtitlesFilter(`C:\out\it's,here.srt`, "FontSize=50")
	want := `subtitles=filename=C\:/out/it\'s\,here.srt:force_style='FontSize=50'`
	if got != want {
		t.Fatalf("subtitlesFilter = %q, want %q", got, want)
	}
}

func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"streams": [
			{"codec_type": "video", "width": 1920, "height": 1080},
			{"codec_type": "audio"}
		],
		"format": {"duration": "10.040000"}
	}`)
	info, err := parseProbe(out)
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if info.Width != 1920 || info.Height != 1080 || !info.HasAudio {
		t.Fatalf("info = %+v", info)
	}
	if info.Duration != 10040*time.Millisecond {
		t.Fatalf("duration = %v", info.Duration)
	}
}

func TestParseProbe_NoAudioUnknownDuration(t *testing.T) {
	info, err := parseProbe([]byte(`{"streams":[{"codec_type":"video","width":640,"height":360}],"format":{"duration":"N/A"}}`))
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if info.HasAudio || info.Duration != 0 {
		t.Fatalf("info = %+v", info)
	}
	if _, err := parseProbe([]byte("not json")); err == nil {
		t.Fatal("expected error for garbage output")
	}
}
