package openaiwhisper

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTranscribe(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(audio, []byte("RIFF fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language = %q", got)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			b, _ := io.ReadAll(f)
			if string(b) != "RIFF fake" {
				t.Errorf("file body = %q", b)
			}
		}
		_, _ = w.Write([]byte(`{"language":"english","segments":[
			{"id":0,"start":0,"end":2.5,"text":" Hello there. ","avg_logprob":-0.25},
			{"id":1,"start":3,"end":5,"text":"key moment"}
		]}`))
	}))
	defer srv.Close()

	tr, err := New("sk", "", "en", srv.URL).Transcribe(context.Background(), audio, "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Language != "english" || len(tr.Segments) != 2 {
		t.Fatalf("transcript = %+v", tr)
	}
	if tr.Segments[0].Text != "Hello there." {
		t.Fatalf("text = %q", tr.Segments[0].Text)
	}
	if math.Abs(tr.Segments[0].Confidence-math.Exp(-0.25)) > 1e-9 {
		t.Fatalf("confidence = %v", tr.Segments[0].Confidence)
	}
	if tr.Segments[1].Confidence != 0 {
		t.Fatalf("missing logprob should give 0, got %v", tr.Segments[1].Confidence)
	}
}

func TestTranscribe_Status(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "a.mp3")
	_ = os.WriteFile(audio, []byte("x"), 0o644)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key sk-secret", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New("sk-secret", "", "auto", srv.URL).Transcribe(context.Background(), audio, "")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("err = %v", err)
	}
	if strings.Contains(err.Error(), "sk-secret") {
		t.Fatalf("key leaked: %v", err)
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	if _, err := New("k", "", "", "http://127.0.0.1:1").Transcribe(context.Background(), "/does/not/exist.wav", ""); err == nil {
		t.Fatal("expected error")
	}
}
