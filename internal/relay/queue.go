package relay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/studiowebux/mcdu/internal/screen"
)

// DefaultQueueCapacity is used when a queue is created without a capacity
const DefaultQueueCapacity = 64

// ErrQueueFull is returned by Push when the update was not enqueued
var ErrQueueFull = errors.New("relay queue full")

// OverflowPolicy decides what Push does when the queue is full
type OverflowPolicy string

const (
	// DropOldest evicts the oldest pending update to make room
	DropOldest OverflowPolicy = "drop-oldest"
	// DropNewest discards the incoming update
	DropNewest OverflowPolicy = "drop-newest"
	// Reject refuses the incoming update and reports ErrQueueFull
	Reject OverflowPolicy = "reject"
)

// ParseOverflowPolicy validates a policy name
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch OverflowPolicy(s) {
	case DropOldest, DropNewest, Reject:
		return OverflowPolicy(s), nil
	default:
		return "", fmt.Errorf("invalid overflow policy %q (use '%s', '%s' or '%s')", s, DropOldest, DropNewest, Reject)
	}
}

// QueueStats is a snapshot of queue counters
type QueueStats struct {
	Capacity int
	Pending  int
	Pushed   uint64 // updates accepted into the queue
	Dropped  uint64 // updates lost to DropOldest or DropNewest
	Rejected uint64 // updates refused under Reject
}

// Queue is a bounded multi-producer, single-consumer FIFO of decoded
// updates. Connection routines Push; the display drains once per tick.
// Updates pushed by one producer keep their relative order.
type Queue struct {
	mu       sync.Mutex
	items    []screen.ScreenUpdate
	head     int // index of the oldest pending item
	count    int
	policy   OverflowPolicy
	stats    QueueStats
	notifyCh chan struct{}
}

// NewQueue creates a queue holding at most capacity pending updates
func NewQueue(capacity int, policy OverflowPolicy) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	if policy == "" {
		policy = DropOldest
	}
	return &Queue{
		items:    make([]screen.ScreenUpdate, capacity),
		policy:   policy,
		stats:    QueueStats{Capacity: capacity},
		notifyCh: make(chan struct{}, 1),
	}
}

// Push enqueues update. evicted reports whether an older update was dropped
// to make room. Under DropNewest and Reject a full queue returns
// ErrQueueFull and the update is not enqueued.
func (q *Queue) Push(update screen.ScreenUpdate) (evicted bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	capacity := len(q.items)
	if q.count == capacity {
		switch q.policy {
		case DropNewest:
			q.stats.Dropped++
			return false, ErrQueueFull
		case Reject:
			q.stats.Rejected++
			return false, ErrQueueFull
		default:
			q.items[q.head] = screen.ScreenUpdate{}
			q.head = (q.head + 1) % capacity
			q.count--
			q.stats.Dropped++
			evicted = true
		}
	}

	q.items[(q.head+q.count)%capacity] = update
	q.count++
	q.stats.Pushed++

	// Notify listeners (non-blocking)
	select {
	case q.notifyCh <- struct{}{}:
	default:
	}

	return evicted, nil
}

// Drain returns every pending update in FIFO order and empties the queue.
// It never blocks waiting for updates; an empty queue returns nil.
func (q *Queue) Drain() []screen.ScreenUpdate {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}

	capacity := len(q.items)
	out := make([]screen.ScreenUpdate, q.count)
	for i := range out {
		idx := (q.head + i) % capacity
		out[i] = q.items[idx]
		q.items[idx] = screen.ScreenUpdate{}
	}
	q.head = 0
	q.count = 0
	return out
}

// Len returns the number of pending updates
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Policy returns the overflow policy
func (q *Queue) Policy() OverflowPolicy {
	return q.policy
}

// Stats returns a snapshot of the queue counters
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := q.stats
	stats.Pending = q.count
	return stats
}

// Notify returns a channel that receives a value after updates are pushed.
// Several pushes may collapse into one notification.
func (q *Queue) Notify() <-chan struct{} {
	return q.notifyCh
}
