package highlights

import (
	"strings"
	"testing"

	"github.com/forPelevin/hlreel/internal/types"
)

func TestWindows_ClampAndDrop(t *testing.T) {
	hs := []types.Highlight{
		{Start: -2, End: 1},   // clamped to [0,1]
		{Start: 3, End: 5},    // kept
		{Start: 9.8, End: 14}, // clamped to [9.8,10], too short
		{Start: 4, End: 4.5},  // exactly 0.5, dropped
		{Start: 12, End: 20},  // past the end
	}
	got := Windows(hs, 10)
	want := []types.Window{{Start: 0, End: 1}, {Start: 3, End: 5}}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFilterMinDuration(t *testing.T) {
	hs := []types.Highlight{{Start: 0, End: 1}, {Start: 2, End: 4}, {Start: 5, End: 9}}
	if got := FilterMinDuration(hs, 2); len(got) != 2 {
		t.Fatalf("expected 2 highlights, got %+v", got)
	}
	if got := FilterMinDuration(hs, 0); len(got) != 3 {
		t.Fatalf("zero threshold should keep all, got %+v", got)
	}
}

func TestBuildPrompt_IncludesTranscriptAndHint(t *testing.T) {
	p := BuildPrompt([]types.Segment{{Start: 3, End: 5, Text: "key moment"}}, 2)
	for _, want := range []string{"[3.0s - 5.0s]: key moment", "Minimum highlight duration: 2 seconds", "start, end, reason, score"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}
