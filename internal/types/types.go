package types

import "time"

type Transcript struct {
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

// Segment is one timed line of speech. Start and End are seconds.
type Segment struct {
	ID         int     `json:"id"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Highlight references the original video timeline.
type Highlight struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Reason string  `json:"reason"`
	Score  float64 `json:"score"`
}

// Window is a half-open [Start, End) range in seconds.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (w Window) Duration() float64 { return w.End - w.Start }

type Metadata struct {
	JobID         string      `json:"job_id"`
	Filename      string      `json:"filename"`
	Highlights    []Highlight `json:"highlights"`
	Subtitles     []Segment   `json:"subtitles"`
	NumHighlights int         `json:"num_highlights"`
	NumSubtitles  int         `json:"num_subtitles"`
	ProcessedAt   time.Time   `json:"processed_at"`
}

type MediaInfo struct {
	Width    int
	Height   int
	Duration time.Duration
	HasAudio bool
}

// SubtitleStyle controls how burned-in subtitles look.
type SubtitleStyle struct {
	FontSize  int
	FontColor string
	BgColor   string
	BgOpacity float64
}
