// Package observe sets up tracing and failure reporting.
package observe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/forPelevin/hlreel/internal/config"
)

const flushTimeout = 2 * time.Second

// Setup installs the global tracer provider and the Sentry client. Both are
// skipped when their endpoint is not configured. The returned func flushes
// and shuts them down.
func Setup(ctx context.Context, c config.Observe) (func(context.Context) error, error) {
	var shutdowns []func(context.Context) error

	if c.OTLPEndpoint != "" {
		tp, err := newTracerProvider(ctx, c)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	if c.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			AttachStacktrace: true,
			ServerName:       c.ServiceName,
			Environment:      c.Environment,
		})
		if err != nil {
			return nil, fmt.Errorf("sentry init: %w", err)
		}
		shutdowns = append(shutdowns, func(context.Context) error {
			sentry.Flush(flushTimeout)
			return nil
		})
	}

	return func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}, nil
}

func newTracerProvider(ctx context.Context, c config.Observe) (*sdktrace.TracerProvider, error) {
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(c.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SamplingRate))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(Resource(c)),
	), nil
}

// Resource describes this process to the trace backend.
func Resource(c config.Observe) *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", c.ServiceName),
		attribute.String("environment", c.Environment),
	)
}

// CaptureJobError reports a failed job to Sentry. It is a no-op when Sentry
// was never initialised.
func CaptureJobError(jobID, step string, err error) {
	if err == nil || sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("job_id", jobID)
		if step != "" {
			scope.SetTag("step", step)
		}
		sentry.CaptureException(err)
	})
}

