// Package apperr classifies failures so they can be mapped once at the job
// boundary and once at the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDownload
	KindMedia
	KindTranscription
	KindInference
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDownload:
		return "download"
	case KindMedia:
		return "media"
	case KindTranscription:
		return "transcription"
	case KindInference:
		return "inference"
	case KindNotFound:
		return "not found"
	default:
		return "internal"
	}
}

// ErrTooLarge marks a validation failure caused by the upload size limit.
var ErrTooLarge = errors.New("file too large")

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Op)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind with a formatted cause.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind to err. A nil err stays nil. An err that already
// carries a kind keeps it.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind carried by err, or KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func Validation(op, format string, args ...any) error {
	return New(KindValidation, op, format, args...)
}

func NotFound(op, format string, args ...any) error {
	return New(KindNotFound, op, format, args...)
}
