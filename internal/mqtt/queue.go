package mqtt

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-monitor/internal/button"
)

// Queue hands button events to a Publisher on its own goroutine, so the
// poll loop never waits on the broker.
type Queue struct {
	pub    Publisher
	events chan button.Event
	done   chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewQueue starts a Queue holding up to size pending events.
func NewQueue(pub Publisher, size int) *Queue {
	q := &Queue{
		pub:    pub,
		events: make(chan button.Event, size),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for event := range q.events {
		if err := q.pub.Publish(event); err != nil {
			log.WithField("pin", event.Pin).Errorf("publish error: %v", err)
		}
	}
}

// Enqueue adds event without blocking. It reports false if the queue is
// full or closed and the event was dropped.
func (q *Queue) Enqueue(event button.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.events <- event:
		return true
	default:
		q.dropped++
		log.WithFields(log.Fields{"pin": event.Pin, "event": event.Type}).Warn("event queue full, dropping event")
		return false
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close stops accepting events and waits until the pending ones have been
// published. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()
	<-q.done
}
