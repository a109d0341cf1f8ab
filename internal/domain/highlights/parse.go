package highlights

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/forPelevin/hlreel/internal/types"
)

// ErrMalformed is returned when a model reply holds no well-formed
// highlight list.
var ErrMalformed = errors.New("highlights: malformed model response")

type rawHighlight struct {
	Start  *float64 `json:"start"`
	End    *float64 `json:"end"`
	Reason string   `json:"reason"`
	Score  float64  `json:"score"`
}

// Parse extracts highlights from a model reply. The reply may be a bare JSON
// array, an object with a "highlights" array, and may be wrapped in prose or
// markdown fences. An empty list is valid. Entries without both bounds or
// with end <= start are dropped; scores are clamped to [0, 100].
func Parse(content string) ([]types.Highlight, error) {
	t := stripFences(strings.TrimSpace(content))
	if t == "" {
		return nil, fmt.Errorf("%w: empty content", ErrMalformed)
	}

	raw, err := parseWrapped(t)
	if errors.Is(err, errNotObject) {
		arr, ok := sliceBetween(t, '[', ']')
		if !ok {
			return nil, fmt.Errorf("%w: no JSON array in %q", ErrMalformed, truncate(t, 200))
		}
		if err := json.Unmarshal([]byte(arr), &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	} else if err != nil {
		return nil, err
	}

	out := make([]types.Highlight, 0, len(raw))
	for _, r := range raw {
		if r.Start == nil || r.End == nil || *r.End <= *r.Start {
			continue
		}
		out = append(out, types.Highlight{
			Start:  *r.Start,
			End:    *r.End,
			Reason: strings.TrimSpace(r.Reason),
			Score:  clamp(r.Score, 0, 100),
		})
	}
	return out, nil
}

var errNotObject = errors.New("no leading JSON object")

// parseWrapped reads {"highlights": [...]} when an object opens before any
// array. Braces that do not form a JSON object, like "{start,end}" in prose
// ahead of a bare array, yield errNotObject.
func parseWrapped(t string) ([]rawHighlight, error) {
	obj, ok := sliceBetween(t, '{', '}')
	if !ok || strings.IndexByte(t, '{') > indexOr(t, '[') {
		return nil, errNotObject
	}
	var wrapped struct {
		Highlights []rawHighlight `json:"highlights"`
	}
	if err := json.Unmarshal([]byte(obj), &wrapped); err != nil {
		return nil, errNotObject
	}
	if wrapped.Highlights == nil {
		return nil, fmt.Errorf("%w: object without highlights array", ErrMalformed)
	}
	return wrapped.Highlights, nil
}

func stripFences(t string) string {
	if !strings.HasPrefix(t, "```") {
		return t
	}
	if i := strings.Index(t, "\n"); i >= 0 {
		t = t[i+1:]
	}
	if j := strings.LastIndex(t, "```"); j >= 0 {
		t = t[:j]
	}
	return strings.TrimSpace(t)
}

func sliceBetween(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func indexOr(s string, c byte) int {
	if i := strings.IndexByte(s, c); i >= 0 {
		return i
	}
	return len(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
