package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"

	"github.com/forPelevin/hlreel/internal/config"
)

func TestSetup_NothingConfigured(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.Observe{ServiceName: "hlreel"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestResource_ServiceName(t *testing.T) {
	res := Resource(config.Observe{ServiceName: "hlreel", Environment: "test"})
	v, ok := res.Set().Value(attribute.Key("service.name"))
	if !ok || v.AsString() != "hlreel" {
		t.Fatalf("service.name = %v (present=%v)", v.AsString(), ok)
	}
}

func TestCaptureJobError_NoClient(t *testing.T) {
	// Must not panic without an initialised client.
	CaptureJobError("job-1", "transcribe", errors.New("boom"))
	CaptureJobError("job-1", "", nil)
}
