package openaiwhisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forPelevin/hlreel/internal/types"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "whisper-1"
)

// Adapter transcribes through the OpenAI audio transcription endpoint.
type Adapter struct {
	key      string
	model    string
	language string
	baseURL  string
	client   *http.Client
}

func New(apiKey, model, language, baseURL string) *Adapter {
	if model == "" {
		model = defaultModel
	}
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		key:      apiKey,
		model:    model,
		language: language,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Minute},
	}
}

func (a *Adapter) Transcribe(ctx context.Context, audioPath, _ string) (types.Transcript, error) {
	body, contentType, err := a.form(audioPath)
	if err != nil {
		return types.Transcript{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/audio/transcriptions", body)
	if err != nil {
		return types.Transcript{}, err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", contentType)

	resp, err := a.client.Do(req)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := strings.ReplaceAll(string(rb), a.key, "[REDACTED]")
		return types.Transcript{}, fmt.Errorf("whisper api status %d: %s", resp.StatusCode, strings.TrimSpace(msg))
	}
	return decodeVerbose(resp.Body)
}

func (a *Adapter) form(audioPath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("model", a.model)
	_ = w.WriteField("response_format", "verbose_json")
	if a.language != "" && a.language != "auto" {
		_ = w.WriteField("language", a.language)
	}
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read audio: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

type verboseResponse struct {
	Language string `json:"language"`
	Segments []struct {
		ID         int      `json:"id"`
		Start      float64  `json:"start"`
		End        float64  `json:"end"`
		Text       string   `json:"text"`
		AvgLogprob *float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// decodeVerbose maps a verbose_json body to a transcript. Confidence is
// exp(avg_logprob) clamped to [0, 1], or 0 when the field is absent.
func decodeVerbose(r io.Reader) (types.Transcript, error) {
	var v verboseResponse
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return types.Transcript{}, fmt.Errorf("decode whisper response: %w", err)
	}
	tr := types.Transcript{Language: v.Language, Segments: make([]types.Segment, 0, len(v.Segments))}
	for _, s := range v.Segments {
		seg := types.Segment{ID: s.ID, Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)}
		if s.AvgLogprob != nil {
			seg.Confidence = math.Min(1, math.Max(0, math.Exp(*s.AvgLogprob)))
		}
		tr.Segments = append(tr.Segments, seg)
	}
	return tr, nil
}
