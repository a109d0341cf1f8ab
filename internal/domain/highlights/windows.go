package highlights

import (
	"math"

	"github.com/forPelevin/hlreel/internal/types"
)

// MinViableWindow is the shortest range worth cutting into a reel.
const MinViableWindow = 0.5

// Windows clamps highlights to [0, duration] and keeps, in order, those
// still longer than MinViableWindow.
func Windows(hs []types.Highlight, duration float64) []types.Window {
	out := make([]types.Window, 0, len(hs))
	for _, h := range hs {
		w := types.Window{
			Start: math.Max(0, h.Start),
			End:   math.Min(duration, h.End),
		}
		if w.Duration() <= MinViableWindow {
			continue
		}
		out = append(out, w)
	}
	return out
}

// FilterMinDuration drops highlights shorter than minDuration seconds.
func FilterMinDuration(hs []types.Highlight, minDuration float64) []types.Highlight {
	if minDuration <= 0 {
		return hs
	}
	out := make([]types.Highlight, 0, len(hs))
	for _, h := range hs {
		if h.End-h.Start >= minDuration {
			out = append(out, h)
		}
	}
	return out
}
