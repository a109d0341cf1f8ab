package jobs

import (
	"time"

	"github.com/forPelevin/hlreel/internal/types"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Job is the externally visible record of one processing run.
type Job struct {
	ID        string          `json:"job_id"`
	Status    Status          `json:"status"`
	Progress  int             `json:"progress"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"created_at"`
	OutputDir string          `json:"output_dir,omitempty"`
	Metadata  *types.Metadata `json:"metadata,omitempty"`
}

func (j Job) clone() Job {
	if j.Metadata != nil {
		m := *j.Metadata
		m.Highlights = append([]types.Highlight(nil), m.Highlights...)
		m.Subtitles = append([]types.Segment(nil), m.Subtitles...)
		j.Metadata = &m
	}
	return j
}
