package pipeline

import (
	"path/filepath"
	"strings"
	"unicode"
)

// uploadName turns a client supplied file name into a safe single path
// segment that keeps the extension.
func uploadName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(base))
	name := normalizePathSegment(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		name = "video"
	}
	return name + ext
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
