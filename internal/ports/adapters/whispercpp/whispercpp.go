package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/hlreel/internal/types"
)

type Adapter struct {
	bin      string
	model    string
	language string
}

func New(binPath, modelPath, language string) *Adapter {
	if binPath == "" {
		binPath = "whisper-cli"
	}
	if language == "" {
		language = "auto"
	}
	return &Adapter{bin: binPath, model: modelPath, language: language}
}

func (a *Adapter) Transcribe(ctx context.Context, audioPath, workDir string) (types.Transcript, error) {
	outPrefix := filepath.Join(workDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", audioPath,
		"-l", a.language,
		"-oj",
		"-ojf",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read whisper output: %w", err)
	}
	return parseOutput(jb)
}

type output struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text   string `json:"text"`
		Tokens []struct {
			Text string   `json:"text"`
			P    *float64 `json:"p"`
		} `json:"tokens"`
	} `json:"transcription"`
}

// parseOutput converts whisper.cpp full JSON output. Offsets are in
// milliseconds; confidence is the mean probability of non-special tokens.
func parseOutput(b []byte) (types.Transcript, error) {
	var o output
	if err := json.Unmarshal(b, &o); err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper output: %w", err)
	}

	tr := types.Transcript{Language: o.Result.Language}
	for i, t := range o.Transcription {
		var sum float64
		var n int
		for _, tok := range t.Tokens {
			if tok.P == nil || strings.HasPrefix(tok.Text, "[_") {
				continue
			}
			sum += *tok.P
			n++
		}
		seg := types.Segment{
			ID:    i,
			Start: float64(t.Offsets.From) / 1000,
			End:   float64(t.Offsets.To) / 1000,
			Text:  strings.TrimSpace(t.Text),
		}
		if n > 0 {
			seg.Confidence = sum / float64(n)
		}
		tr.Segments = append(tr.Segments, seg)
	}
	return tr, nil
}
