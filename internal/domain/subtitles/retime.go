package subtitles

import (
	"math"

	"github.com/forPelevin/hlreel/internal/types"
)

// Retime projects the segments overlapping w onto a reel timeline where w
// starts at offset. Overlapping segments are clipped to w. The returned
// offset advances by the full window span, not just the covered part.
func Retime(segs []types.Segment, w types.Window, offset float64) ([]types.Segment, float64) {
	var out []types.Segment
	for _, s := range segs {
		if s.End <= w.Start || s.Start >= w.End {
			continue
		}
		r := s
		r.Start = math.Max(0, s.Start-w.Start) + offset
		r.End = math.Min(s.End-w.Start, w.End-w.Start) + offset
		out = append(out, r)
	}
	return out, offset + w.Duration()
}

// RetimeAll chains Retime over windows in order and renumbers ids.
func RetimeAll(segs []types.Segment, windows []types.Window) ([]types.Segment, float64) {
	var (
		out    []types.Segment
		offset float64
		part   []types.Segment
	)
	for _, w := range windows {
		part, offset = Retime(segs, w, offset)
		out = append(out, part...)
	}
	for i := range out {
		out[i].ID = i
	}
	return out, offset
}
