package pipeline

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlreel/internal/apperr"
	"github.com/forPelevin/hlreel/internal/usecase"
)

// start runs the job in its own goroutine. The job outlives the request
// that submitted it.
func (o *Orchestrator) start(ctx context.Context, id string, in usecase.Input) {
	ctx = context.WithoutCancel(ctx)
	in.JobID = id
	in.OutDir = o.outDir(id)
	in.AudioFile = o.opts.AudioFile
	in.Width, in.Height = o.opts.Width, o.opts.Height
	in.MinHighlight = o.opts.MinHighlight
	in.EnforceMin = o.opts.EnforceMin
	in.Style = o.opts.Style

	log := o.log.WithField("job_id", id)
	in.Log = log
	in.Progress = func(pct int, msg string) {
		j, err := o.reg.Progress(id, pct, msg)
		if err != nil {
			log.WithError(err).Warn("progress update dropped")
			return
		}
		o.bc.Publish(id, j)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if o.sem != nil {
			o.sem <- struct{}{}
			defer func() { <-o.sem }()
		}
		o.run(ctx, id, in, log)
	}()
}

func (o *Orchestrator) run(ctx context.Context, id string, in usecase.Input, log logrus.FieldLogger) {
	log.WithField("source", source(in)).Info("job started")

	res, err := o.process(ctx, in)
	if err != nil {
		o.fail(id, err, log)
		return
	}

	meta := res.Metadata
	j, err := o.reg.Complete(id, in.OutDir, &meta)
	if err != nil {
		log.WithError(err).Error("complete job")
		return
	}
	o.bc.Publish(id, j)
	log.WithFields(logrus.Fields{
		"highlights": meta.NumHighlights,
		"subtitles":  meta.NumSubtitles,
		"reel":       res.HasReel,
	}).Info("job completed")
}

// process converts a panic inside the steps into an internal error.
func (o *Orchestrator) process(ctx context.Context, in usecase.Input) (res usecase.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperr.New(apperr.KindInternal, "job", "panic: %v", r)
		}
	}()
	return o.proc.Run(ctx, in)
}

func (o *Orchestrator) fail(id string, err error, log logrus.FieldLogger) {
	j, ferr := o.reg.Fail(id, err.Error())
	if ferr != nil {
		log.WithError(ferr).Error("mark job failed")
		return
	}
	o.bc.Publish(id, j)
	log.WithFields(logrus.Fields{"kind": apperr.KindOf(err).String(), "step": Step(err)}).WithError(err).Error("job failed")
	o.onFailure(id, err)
}

// Step returns the name of the step that produced err, if known.
func Step(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Op
	}
	return ""
}

func source(in usecase.Input) string {
	if in.SourceURL != "" {
		return in.SourceURL
	}
	return in.VideoPath
}

// compile-time check that the usecase can drive jobs
var _ Processor = usecase.Usecase{}
