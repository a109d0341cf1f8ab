// Package broadcast fans job snapshots out to live observers.
package broadcast

import (
	"sync"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlreel/internal/jobs"
)

const DefaultBuffer = 32

// Observer receives snapshots for one job until it closes itself or is
// pruned by the broadcaster.
type Observer struct {
	ID    string
	JobID string

	ch        chan jobs.Job
	closed    atomic.Bool
	closeOnce sync.Once
}

// Updates is closed once the observer has been removed from the broadcaster.
func (o *Observer) Updates() <-chan jobs.Job { return o.ch }

// Close marks the observer as gone. It is dropped on the next publish for
// its job, or immediately by Unsubscribe.
func (o *Observer) Close() { o.closed.Store(true) }

func (o *Observer) shutdown() {
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		close(o.ch)
	})
}

// Broadcaster keeps observers per job id. Delivery is best effort: an
// observer that is closed or cannot keep up is removed while the rest keep
// receiving. Snapshots published for a job from a single goroutine arrive in
// publish order.
type Broadcaster struct {
	mu        sync.RWMutex
	observers map[string]map[*Observer]struct{}
	buffer    int
	log       logrus.FieldLogger
}

func New(log logrus.FieldLogger, buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		observers: make(map[string]map[*Observer]struct{}),
		buffer:    buffer,
		log:       log,
	}
}

func (b *Broadcaster) Subscribe(jobID string) *Observer {
	o := &Observer{
		ID:    newObserverID(),
		JobID: jobID,
		ch:    make(chan jobs.Job, b.buffer),
	}

	b.mu.Lock()
	set, ok := b.observers[jobID]
	if !ok {
		set = make(map[*Observer]struct{})
		b.observers[jobID] = set
	}
	set[o] = struct{}{}
	n := len(set)
	b.mu.Unlock()

	b.log.WithFields(logrus.Fields{"job_id": jobID, "observer_id": o.ID, "observers": n}).Debug("observer subscribed")
	return o
}

// Unsubscribe removes the observer and closes its channel. Unknown observers
// are ignored.
func (b *Broadcaster) Unsubscribe(o *Observer) {
	if o == nil {
		return
	}
	b.mu.Lock()
	b.remove(o)
	b.mu.Unlock()
	o.shutdown()
}

// Publish delivers the snapshot to every live observer of jobID without
// blocking. It never fails.
func (b *Broadcaster) Publish(jobID string, snap jobs.Job) {
	var dead []*Observer

	b.mu.RLock()
	for o := range b.observers[jobID] {
		if o.closed.Load() {
			dead = append(dead, o)
			continue
		}
		select {
		case o.ch <- snap:
		default:
			b.log.WithFields(logrus.Fields{"job_id": jobID, "observer_id": o.ID}).Warn("observer buffer full, dropping observer")
			dead = append(dead, o)
		}
	}
	b.mu.RUnlock()

	if len(dead) == 0 {
		return
	}
	b.mu.Lock()
	for _, o := range dead {
		b.remove(o)
	}
	b.mu.Unlock()
	for _, o := range dead {
		o.shutdown()
		b.log.WithFields(logrus.Fields{"job_id": jobID, "observer_id": o.ID}).Debug("observer pruned")
	}
}

// Observers reports how many observers are registered for jobID.
func (b *Broadcaster) Observers(jobID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers[jobID])
}

// remove must be called with b.mu held for writing.
func (b *Broadcaster) remove(o *Observer) {
	set, ok := b.observers[o.JobID]
	if !ok {
		return
	}
	delete(set, o)
	if len(set) == 0 {
		delete(b.observers, o.JobID)
	}
}

func newObserverID() string {
	return gonanoid.Must(12)
}
