package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/forPelevin/hlreel/internal/types"
)

var namedColours = map[string]string{
	"white":   "FFFFFF",
	"black":   "000000",
	"yellow":  "FFFF00",
	"red":     "FF0000",
	"green":   "00FF00",
	"blue":    "0000FF",
	"cyan":    "00FFFF",
	"magenta": "FF00FF",
	"gray":    "808080",
	"grey":    "808080",
}

// ForceStyle renders the libass force_style override used when burning SRT
// subtitles. The background is drawn as an opaque box (BorderStyle=3) whose
// colour carries the configured opacity.
func ForceStyle(st types.SubtitleStyle) (string, error) {
	fg, err := assColour(st.FontColor, 1)
	if err != nil {
		return "", err
	}
	bg, err := assColour(st.BgColor, st.BgOpacity)
	if err != nil {
		return "", err
	}
	size := st.FontSize
	if size <= 0 {
		size = 50
	}
	parts := []string{
		"FontSize=" + strconv.Itoa(size),
		"PrimaryColour=" + fg,
		"OutlineColour=" + bg,
		"BackColour=" + bg,
		"BorderStyle=3",
		"Outline=1",
		"Shadow=0",
		"Alignment=2",
		"MarginV=80",
	}
	return strings.Join(parts, ","), nil
}

// assColour converts a colour name or #RRGGBB into &HAABBGGRR. ASS alpha is
// transparency, so opacity 1 maps to 00.
func assColour(c string, opacity float64) (string, error) {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		c = "white"
	}
	hex, ok := namedColours[c]
	if !ok {
		hex = strings.TrimPrefix(c, "#")
	}
	if len(hex) != 6 {
		return "", fmt.Errorf("subtitles: unsupported colour %q", c)
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return "", fmt.Errorf("subtitles: unsupported colour %q: %w", c, err)
	}
	opacity = math.Max(0, math.Min(1, opacity))
	alpha := int(math.Round((1 - opacity) * 255))
	r := (rgb >> 16) & 0xFF
	g := (rgb >> 8) & 0xFF
	b := rgb & 0xFF
	return fmt.Sprintf("&H%02X%02X%02X%02X", alpha, b, g, r), nil
}
