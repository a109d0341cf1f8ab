// Package pipeline accepts videos, runs each one through the processing
// steps in its own goroutine and keeps observers informed of the job state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlreel/internal/apperr"
	"github.com/forPelevin/hlreel/internal/broadcast"
	"github.com/forPelevin/hlreel/internal/jobs"
	"github.com/forPelevin/hlreel/internal/types"
	"github.com/forPelevin/hlreel/internal/usecase"
)

// Artifact kinds served per job.
const (
	ArtifactFinal              = "final"
	ArtifactHighlights         = "highlights"
	ArtifactSubtitles          = "subtitles"
	ArtifactMetadata           = "metadata"
	ArtifactHighlightSubtitles = "highlight_subtitles"
)

var artifactFiles = map[string]string{
	ArtifactFinal:              usecase.FinalFile,
	ArtifactHighlights:         usecase.HighlightsFile,
	ArtifactSubtitles:          usecase.SubtitlesFile,
	ArtifactMetadata:           usecase.MetadataFile,
	ArtifactHighlightSubtitles: usecase.HighlightSubtitlesFile,
}

// AllowedExtensions lists the accepted upload extensions.
var AllowedExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

const (
	msgUploaded    = "Uploaded successfully, starting processing..."
	msgDownloading = "Downloading video from URL..."
)

// Processor runs the processing steps for one job.
type Processor interface {
	Run(ctx context.Context, in usecase.Input) (usecase.Result, error)
}

type Options struct {
	UploadDir string
	OutputDir string
	// MaxBytes rejects larger uploads; 0 disables the check.
	MaxBytes int64
	// MaxConcurrent caps running jobs; 0 means unlimited.
	MaxConcurrent  int
	ObserverBuffer int

	Width, Height int
	MinHighlight  float64
	EnforceMin    bool
	Style         types.SubtitleStyle
	AudioFile     string
}

type Orchestrator struct {
	reg  *jobs.Registry
	bc   *broadcast.Broadcaster
	proc Processor
	opts Options
	log  logrus.FieldLogger

	sem   chan struct{}
	wg    sync.WaitGroup
	newID func() string
	// onFailure is called once per failed job.
	onFailure func(jobID string, err error)
}

func New(proc Processor, opts Options, log logrus.FieldLogger) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	o := &Orchestrator{
		reg:       jobs.NewRegistry(),
		bc:        broadcast.New(log, opts.ObserverBuffer),
		proc:      proc,
		opts:      opts,
		log:       log,
		newID:     uuid.NewString,
		onFailure: func(string, error) {},
	}
	if opts.MaxConcurrent > 0 {
		o.sem = make(chan struct{}, opts.MaxConcurrent)
	}
	return o
}

// OnFailure registers a hook for failed jobs, e.g. error reporting.
func (o *Orchestrator) OnFailure(fn func(jobID string, err error)) {
	if fn != nil {
		o.onFailure = fn
	}
}

// SubmitUpload stores the uploaded video and starts processing it. size is
// the declared length, or -1 when unknown. No job exists when an error is
// returned.
func (o *Orchestrator) SubmitUpload(ctx context.Context, filename string, r io.Reader, size int64) (string, error) {
	const op = "upload"
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtension(ext) {
		return "", apperr.Validation(op, "invalid video format %q (allowed: %s)", ext, strings.Join(AllowedExtensions, ", "))
	}
	if o.opts.MaxBytes > 0 && size > o.opts.MaxBytes {
		return "", o.tooLarge(op)
	}

	id := o.newID()
	path := filepath.Join(o.opts.UploadDir, id+"_"+uploadName(filename))
	if err := o.store(path, r); err != nil {
		return "", err
	}

	if _, err := o.reg.Create(id, msgUploaded); err != nil {
		_ = os.Remove(path)
		return "", apperr.Wrap(apperr.KindInternal, op, err)
	}
	o.start(ctx, id, usecase.Input{VideoPath: path, Filename: filename})
	return id, nil
}

// SubmitURL validates rawURL and starts a job that downloads and processes it.
func (o *Orchestrator) SubmitURL(ctx context.Context, rawURL string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}
	id := o.newID()
	if _, err := o.reg.Create(id, msgDownloading); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "url", err)
	}
	o.start(ctx, id, usecase.Input{
		SourceURL: rawURL,
		VideoPath: filepath.Join(o.opts.UploadDir, id+"_video.mp4"),
		Filename:  "video.mp4",
	})
	return id, nil
}

// SubmitFile starts a job for a video already on local disk.
func (o *Orchestrator) SubmitFile(ctx context.Context, path string) (string, error) {
	const op = "file"
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExtension(ext) {
		return "", apperr.Validation(op, "invalid video format %q (allowed: %s)", ext, strings.Join(AllowedExtensions, ", "))
	}
	st, err := os.Stat(path)
	if err != nil {
		return "", apperr.Validation(op, "stat input: %w", err)
	}
	if st.IsDir() {
		return "", apperr.Validation(op, "%s is a directory", path)
	}
	if o.opts.MaxBytes > 0 && st.Size() > o.opts.MaxBytes {
		return "", o.tooLarge(op)
	}
	id := o.newID()
	if _, err := o.reg.Create(id, msgUploaded); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, op, err)
	}
	o.start(ctx, id, usecase.Input{VideoPath: path, Filename: filepath.Base(path)})
	return id, nil
}

// Status returns the latest snapshot of the job.
func (o *Orchestrator) Status(id string) (jobs.Job, error) {
	j, err := o.reg.Get(id)
	if errors.Is(err, jobs.ErrNotFound) {
		return jobs.Job{}, apperr.NotFound("status", "job %s not found", id)
	}
	return j, err
}

// Artifact returns the path of one output file of the job.
func (o *Orchestrator) Artifact(id, kind string) (string, error) {
	const op = "artifact"
	name, ok := artifactFiles[kind]
	if !ok {
		return "", apperr.Validation(op, "invalid file type %q", kind)
	}
	if _, err := o.Status(id); err != nil {
		return "", err
	}
	path := filepath.Join(o.outDir(id), name)
	if _, err := os.Stat(path); err != nil {
		return "", apperr.NotFound(op, "%s not available for job %s", kind, id)
	}
	return path, nil
}

// Subscribe registers a live observer for the job and returns it with the
// current snapshot. Updates published after the snapshot was taken are
// delivered on the observer.
func (o *Orchestrator) Subscribe(id string) (*broadcast.Observer, jobs.Job, error) {
	obs := o.bc.Subscribe(id)
	j, err := o.Status(id)
	if err != nil {
		o.bc.Unsubscribe(obs)
		return nil, jobs.Job{}, err
	}
	return obs, j, nil
}

func (o *Orchestrator) Unsubscribe(obs *broadcast.Observer) { o.bc.Unsubscribe(obs) }

// Watch polls the job every interval and calls fn with each snapshot until
// the job reaches a terminal state or ctx is done.
func (o *Orchestrator) Watch(ctx context.Context, id string, interval time.Duration, fn func(jobs.Job)) (jobs.Job, error) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		j, err := o.Status(id)
		if err != nil {
			return jobs.Job{}, err
		}
		fn(j)
		if j.Status.Terminal() {
			return j, nil
		}
		select {
		case <-ctx.Done():
			return j, ctx.Err()
		case <-t.C:
		}
	}
}

// Wait blocks until every started job has finished or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for jobs: %w", ctx.Err())
	}
}

func (o *Orchestrator) Jobs() int { return o.reg.Count() }

func (o *Orchestrator) store(path string, r io.Reader) error {
	const op = "upload"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Wrap(apperr.KindInternal, op, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, op, err)
	}
	src := r
	if o.opts.MaxBytes > 0 {
		src = io.LimitReader(r, o.opts.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && o.opts.MaxBytes > 0 && n > o.opts.MaxBytes {
		err = o.tooLarge(op)
	}
	if err != nil {
		_ = os.Remove(path)
		return apperr.Wrap(apperr.KindInternal, op, err)
	}
	return nil
}

func (o *Orchestrator) tooLarge(op string) error {
	return apperr.Wrap(apperr.KindValidation, op, fmt.Errorf("%w (max %dMB)", apperr.ErrTooLarge, o.opts.MaxBytes>>20))
}

func (o *Orchestrator) outDir(id string) string { return filepath.Join(o.opts.OutputDir, id) }

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	const op = "url"
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return apperr.Validation(op, "invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperr.Validation(op, "invalid URL format: scheme must be http or https")
	}
	if u.Host == "" {
		return apperr.Validation(op, "invalid URL format: missing host")
	}
	return nil
}

func allowedExtension(ext string) bool { return slices.Contains(AllowedExtensions, ext) }
