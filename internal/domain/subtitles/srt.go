package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/forPelevin/hlreel/internal/types"
)

// Render converts segments to SRT: 1-based blocks of
// "index\nHH:MM:SS,mmm --> HH:MM:SS,mmm\ntext\n\n".
func Render(segs []types.Segment) string {
	var b strings.Builder
	for i, s := range segs {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(s.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(s.End))
		b.WriteByte('\n')
		b.WriteString(s.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// maxTimestamp bounds FormatTimestamp input so the millisecond count
// cannot overflow.
const maxTimestamp = math.MaxInt32

// FormatTimestamp renders seconds as HH:MM:SS,mmm. Hours are not wrapped.
func FormatTimestamp(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	if sec > maxTimestamp {
		sec = maxTimestamp
	}
	ms := int64(math.Round(sec * 1000))
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp is the inverse of FormatTimestamp. A '.' millisecond
// separator is accepted as well.
func ParseTimestamp(s string) (float64, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("subtitles: bad timestamp %q", s)
	}
	secPart := strings.Replace(parts[2], ",", ".", 1)
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subtitles: bad hours in %q: %w", s, err)
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subtitles: bad minutes in %q: %w", s, err)
	}
	sec, err := strconv.ParseFloat(secPart, 64)
	if err != nil {
		return 0, fmt.Errorf("subtitles: bad seconds in %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || sec < 0 || sec >= 60 {
		return 0, fmt.Errorf("subtitles: timestamp out of range %q", s)
	}
	return float64(h)*3600 + float64(m)*60 + sec, nil
}

// Parse reads SRT text back into segments. Ids are 0-based positions.
func Parse(text string) ([]types.Segment, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []types.Segment
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("subtitles: incomplete block %q", block)
		}
		from, to, ok := strings.Cut(lines[1], "-->")
		if !ok {
			return nil, fmt.Errorf("subtitles: missing timing line in block %q", lines[0])
		}
		start, err := ParseTimestamp(from)
		if err != nil {
			return nil, err
		}
		end, err := ParseTimestamp(to)
		if err != nil {
			return nil, err
		}
		out = append(out, types.Segment{
			ID:    len(out),
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return out, nil
}

// Sanitize trims text, folds blank lines inside it, clamps starts at zero,
// drops empty or inverted segments and renumbers ids.
func Sanitize(segs []types.Segment) []types.Segment {
	out := make([]types.Segment, 0, len(segs))
	for _, s := range segs {
		s.Text = foldLines(s.Text)
		if s.Start < 0 {
			s.Start = 0
		}
		if s.Text == "" || s.End <= s.Start {
			continue
		}
		s.ID = len(out)
		out = append(out, s)
	}
	return out
}

// foldLines keeps the non-blank lines of text, so a cue never contains the
// blank line that terminates an SRT block.
func foldLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
