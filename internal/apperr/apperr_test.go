package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrap_KeepsInnerKind(t *testing.T) {
	inner := Wrap(KindMedia, "extract audio", errors.New("exit status 1"))
	outer := Wrap(KindInternal, "pipeline", fmt.Errorf("step: %w", inner))
	if got := KindOf(outer); got != KindMedia {
		t.Fatalf("KindOf = %v, want media", got)
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(KindMedia, "x", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestError_Message(t *testing.T) {
	err := Wrap(KindTranscription, "transcribe", errors.New("quota exceeded"))
	if got, want := err.Error(), "transcription error: transcribe: quota exceeded"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestTooLargeIsValidation(t *testing.T) {
	err := Wrap(KindValidation, "upload", fmt.Errorf("%w (max 500MB)", ErrTooLarge))
	if !Is(err, KindValidation) {
		t.Fatalf("expected validation kind")
	}
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge in chain")
	}
}

func TestKindOf_Plain(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Fatalf("KindOf = %v, want internal", got)
	}
	if Is(nil, KindInternal) {
		t.Fatalf("nil should not match any kind")
	}
}
