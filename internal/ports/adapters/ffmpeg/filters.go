package ffmpeg

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/forPelevin/hlreel/internal/types"
)

// Geometry describes a scale-then-crop that fills the target frame.
type Geometry struct {
	ScaleW, ScaleH int
	CropW, CropH   int
	X, Y           int
}

// CoverGeometry scales by max(tw/iw, th/ih) so the frame is fully covered,
// rounds the scaled size up to even numbers and centers the crop.
func CoverGeometry(iw, ih, tw, th int) (Geometry, error) {
	if iw <= 0 || ih <= 0 {
		return Geometry{}, fmt.Errorf("invalid source size %dx%d", iw, ih)
	}
	if tw <= 0 || th <= 0 || tw%2 != 0 || th%2 != 0 {
		return Geometry{}, fmt.Errorf("target size %dx%d must be positive and even", tw, th)
	}
	scale := math.Max(float64(tw)/float64(iw), float64(th)/float64(ih))
	sw := evenAtLeast(int(math.Round(float64(iw)*scale)), tw)
	sh := evenAtLeast(int(math.Round(float64(ih)*scale)), th)
	return Geometry{
		ScaleW: sw, ScaleH: sh,
		CropW: tw, CropH: th,
		X: (sw - tw) / 2, Y: (sh - th) / 2,
	}, nil
}

func (g Geometry) Filter() string {
	return fmt.Sprintf("scale=%d:%d,crop=%d:%d:%d:%d,setsar=1", g.ScaleW, g.ScaleH, g.CropW, g.CropH, g.X, g.Y)
}

func evenAtLeast(v, min int) int {
	if v < min {
		v = min
	}
	if v%2 != 0 {
		v++
	}
	return v
}

func concatFilter(windows []types.Window) string {
	var b strings.Builder
	for i, w := range windows {
		start, end := fmtSeconds(w.Start), fmtSeconds(w.End)
		fmt.Fprintf(&b, "[0:v]trim=start=%s:end=%s,setpts=PTS-STARTPTS[v%d];", start, end, i)
		fmt.Fprintf(&b, "[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[a%d];", start, end, i)
	}
	for i := range windows {
		fmt.Fprintf(&b, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=1[outv][outa]", len(windows))
	return b.String()
}

func subtitlesFilter(srtPath, forceStyle string) string {
	return "subtitles=filename=" + escapeFilterPath(srtPath) + ":force_style='" + forceStyle + "'"
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	p = strings.ReplaceAll(p, ",", "\\,")
	return p
}
