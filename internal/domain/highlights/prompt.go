package highlights

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/hlreel/internal/types"
)

const SystemPrompt = "You are a video editor expert at finding engaging highlights."

// FormatTranscript renders one "[start - end]: text" line per segment.
func FormatTranscript(segs []types.Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%.1fs - %.1fs]: %s", s.Start, s.End, s.Text)
	}
	return b.String()
}

// BuildPrompt asks for a JSON array of {start, end, reason, score}.
func BuildPrompt(segs []types.Segment, minDuration float64) string {
	return "Analyze the following video subtitles and identify the most engaging and important highlight segments. " +
		"For each highlight, provide:\n" +
		"1. Start time (in seconds)\n" +
		"2. End time (in seconds)\n" +
		"3. Why it's a good highlight\n" +
		"4. Engagement score (0-100)\n\n" +
		"Focus on:\n" +
		"- Interesting statements or insights\n" +
		"- Emotional moments\n" +
		"- Important conclusions\n" +
		"- Entertaining exchanges\n" +
		"- Key takeaways\n\n" +
		"Format your response as a JSON array with objects containing: start, end, reason, score. " +
		"Return strictly valid JSON (no markdown, no code fences).\n\n" +
		"Subtitles:\n" + FormatTranscript(segs) + "\n\n" +
		"Minimum highlight duration: " + strconv.FormatFloat(minDuration, 'f', -1, 64) + " seconds\n\n" +
		"JSON Response:"
}
