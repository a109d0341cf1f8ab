package jobs

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/forPelevin/hlreel/internal/types"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	j, err := r.Create("job-1", "Starting video processing...")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if j.Status != StatusProcessing || j.Progress != 0 {
		t.Fatalf("new job = %+v", j)
	}

	for _, pct := range []int{20, 35, 50, 60, 70, 80, 95} {
		if _, err := r.Progress("job-1", pct, fmt.Sprintf("step %d", pct)); err != nil {
			t.Fatalf("progress %d: %v", pct, err)
		}
	}

	meta := &types.Metadata{JobID: "job-1", NumHighlights: 1}
	done, err := r.Complete("job-1", "/out/job-1", meta)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != StatusCompleted || done.Progress != 100 || done.OutputDir != "/out/job-1" {
		t.Fatalf("completed job = %+v", done)
	}
	if done.Metadata == nil || done.Metadata.NumHighlights != 1 {
		t.Fatalf("metadata not attached: %+v", done.Metadata)
	}
}

func TestRegistryProgressMonotonic(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Create("j", "")
	_, _ = r.Progress("j", 50, "inferring")
	j, err := r.Progress("j", 20, "late update")
	if err != nil {
		t.Fatal(err)
	}
	if j.Progress != 50 {
		t.Fatalf("progress = %d, want 50", j.Progress)
	}
	if j.Message != "late update" {
		t.Fatalf("message = %q", j.Message)
	}
	j, _ = r.Progress("j", 250, "overshoot")
	if j.Progress != 100 {
		t.Fatalf("progress = %d, want capped 100", j.Progress)
	}
}

func TestRegistryTerminalIsFinal(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Create("j", "")
	_, _ = r.Progress("j", 35, "transcribing")
	if _, err := r.Fail("j", "transcription error: boom"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	if _, err := r.Progress("j", 60, "resizing"); !errors.Is(err, ErrTerminal) {
		t.Fatalf("progress after fail: err = %v, want ErrTerminal", err)
	}
	if _, err := r.Complete("j", "/out", nil); !errors.Is(err, ErrTerminal) {
		t.Fatalf("complete after fail: err = %v, want ErrTerminal", err)
	}
	j, _ := r.Get("j")
	if j.Status != StatusError || j.Progress != 35 || j.Message != "transcription error: boom" {
		t.Fatalf("terminal job changed: %+v", j)
	}
}

func TestRegistryUnknownAndDuplicate(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: %v", err)
	}
	if _, err := r.Progress("missing", 10, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("progress missing: %v", err)
	}
	_, _ = r.Create("a", "")
	if _, err := r.Create("a", ""); !errors.Is(err, ErrExists) {
		t.Fatalf("duplicate create: %v", err)
	}
	if r.Count() != 1 {
		t.Fatalf("count = %d", r.Count())
	}
}

func TestRegistryGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Create("j", "")
	_, _ = r.Complete("j", "/out", &types.Metadata{Highlights: []types.Highlight{{Start: 1, End: 2}}})

	j, _ := r.Get("j")
	j.Metadata.Highlights[0].Start = 99
	j.Message = "mutated"

	again, _ := r.Get("j")
	if again.Metadata.Highlights[0].Start != 1 || again.Message == "mutated" {
		t.Fatalf("registry state leaked: %+v", again)
	}
}

func TestRegistryConcurrentJobs(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", i)
			_, _ = r.Create(id, "")
			for p := 0; p <= 100; p += 10 {
				_, _ = r.Progress(id, p, "")
				_, _ = r.Get(id)
			}
			_, _ = r.Complete(id, "", nil)
		}(i)
	}
	wg.Wait()
	if r.Count() != 20 {
		t.Fatalf("count = %d, want 20", r.Count())
	}
	for i := 0; i < 20; i++ {
		j, _ := r.Get(fmt.Sprintf("job-%d", i))
		if j.Status != StatusCompleted || j.Progress != 100 {
			t.Fatalf("job %d = %+v", i, j)
		}
	}
}
