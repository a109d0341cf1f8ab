package broadcast

import (
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/forPelevin/hlreel/internal/jobs"
)

func newTestBroadcaster(buffer int) *Broadcaster {
	log, _ := logtest.NewNullLogger()
	return New(log, buffer)
}

func recv(t *testing.T, o *Observer) jobs.Job {
	t.Helper()
	select {
	case j, ok := <-o.Updates():
		if !ok {
			t.Fatalf("observer %s channel closed", o.ID)
		}
		return j
	case <-time.After(time.Second):
		t.Fatalf("observer %s: no update", o.ID)
	}
	return jobs.Job{}
}

func TestPublishDeliversInOrder(t *testing.T) {
	b := newTestBroadcaster(8)
	o := b.Subscribe("job")

	for _, p := range []int{5, 15, 35, 50} {
		b.Publish("job", jobs.Job{ID: "job", Progress: p})
	}
	for _, want := range []int{5, 15, 35, 50} {
		if got := recv(t, o).Progress; got != want {
			t.Fatalf("progress = %d, want %d", got, want)
		}
	}
}

func TestPublishIsScopedToJob(t *testing.T) {
	b := newTestBroadcaster(4)
	a := b.Subscribe("a")
	other := b.Subscribe("b")

	b.Publish("a", jobs.Job{ID: "a"})
	if got := recv(t, a); got.ID != "a" {
		t.Fatalf("got %+v", got)
	}
	select {
	case j := <-other.Updates():
		t.Fatalf("observer of b received %+v", j)
	default:
	}
}

func TestClosedObserverIsPrunedOthersKeepReceiving(t *testing.T) {
	b := newTestBroadcaster(4)
	first := b.Subscribe("job")
	second := b.Subscribe("job")
	if first.ID == second.ID {
		t.Fatalf("observer ids collide: %s", first.ID)
	}

	first.Close()
	b.Publish("job", jobs.Job{ID: "job", Progress: 35})

	if got := recv(t, second).Progress; got != 35 {
		t.Fatalf("second progress = %d", got)
	}
	if n := b.Observers("job"); n != 1 {
		t.Fatalf("observers = %d, want 1", n)
	}
	if _, ok := <-first.Updates(); ok {
		t.Fatalf("closed observer still open")
	}
}

func TestSlowObserverIsPruned(t *testing.T) {
	b := newTestBroadcaster(1)
	slow := b.Subscribe("job")
	fast := b.Subscribe("job")

	b.Publish("job", jobs.Job{Progress: 20})
	_ = recv(t, fast)
	b.Publish("job", jobs.Job{Progress: 35})

	if n := b.Observers("job"); n != 1 {
		t.Fatalf("observers = %d, want 1", n)
	}
	if got := recv(t, fast).Progress; got != 35 {
		t.Fatalf("fast progress = %d", got)
	}
	if got := recv(t, slow).Progress; got != 20 {
		t.Fatalf("slow kept its buffered snapshot, got %d", got)
	}
	if _, ok := <-slow.Updates(); ok {
		t.Fatalf("slow observer channel should be closed")
	}
}

func TestUnsubscribe(t *testing.T) {
	b := newTestBroadcaster(2)
	o := b.Subscribe("job")
	b.Unsubscribe(o)
	b.Unsubscribe(o)

	if n := b.Observers("job"); n != 0 {
		t.Fatalf("observers = %d", n)
	}
	if _, ok := <-o.Updates(); ok {
		t.Fatalf("expected closed channel")
	}
	b.Publish("job", jobs.Job{})
}

func TestPublishWithoutObservers(t *testing.T) {
	b := newTestBroadcaster(0)
	b.Publish("nobody", jobs.Job{ID: "nobody"})
	if b.Observers("nobody") != 0 {
		t.Fatal("unexpected observers")
	}
}
