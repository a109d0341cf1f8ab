package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/forPelevin/hlreel/internal/domain/highlights"
	"github.com/forPelevin/hlreel/internal/types"
)

const defaultModel = "gemini-2.5-flash"

type generateFunc func(ctx context.Context, apiKey, model, prompt string) (string, error)

// Adapter infers highlights with the Gemini API. Several keys may be given;
// a key that hits its quota is rotated out for the next attempt.
type Adapter struct {
	model    string
	keys     []string
	generate generateFunc

	mu      sync.Mutex
	current int
}

func New(apiKeys []string, model string) *Adapter {
	if model == "" {
		model = defaultModel
	}
	keys := make([]string, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return &Adapter{model: model, keys: keys, generate: generateContent}
}

func (a *Adapter) Infer(ctx context.Context, segs []types.Segment, minDuration float64) ([]types.Highlight, error) {
	if len(segs) == 0 {
		return []types.Highlight{}, nil
	}
	if len(a.keys) == 0 {
		return nil, errors.New("gemini: no API key configured")
	}

	prompt := highlights.BuildPrompt(segs, minDuration)
	var lastErr error
	for range a.keys {
		key := a.key()
		text, err := a.generate(ctx, key, a.model, prompt)
		if err != nil {
			if isQuotaError(err) {
				a.rotate()
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("gemini generate content: %w", err)
		}
		return highlights.Parse(text)
	}
	return nil, fmt.Errorf("gemini: all API keys exhausted: %w", lastErr)
}

func (a *Adapter) key() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keys[a.current]
}

func (a *Adapter) rotate() {
	a.mu.Lock()
	a.current = (a.current + 1) % len(a.keys)
	a.mu.Unlock()
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func generateContent(ctx context.Context, apiKey, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(highlights.SystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.7),
		MaxOutputTokens:   2000,
	})
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", errors.New("empty response from Gemini")
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
