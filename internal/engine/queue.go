package engine

import "sync"

// eventQueue buffers a job's events without bound so a slow reader never
// stalls row processing. The job goroutine pushes; the forwarder drains.
type eventQueue struct {
	mu      sync.Mutex
	pending []Event
	closed  bool
	ready   chan struct{} // capacity 1; coalesces wakeups
}

func newEventQueue() *eventQueue {
	return &eventQueue{ready: make(chan struct{}, 1)}
}

// push appends e. It reports false once the queue is closed.
func (q *eventQueue) push(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.pending = append(q.pending, e)

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// drain blocks until events are pending and returns all of them in push
// order. It returns nil once the queue is closed and empty.
func (q *eventQueue) drain() []Event {
	for {
		q.mu.Lock()
		batch, closed := q.pending, q.closed
		q.pending = nil
		q.mu.Unlock()

		if len(batch) > 0 {
			return batch
		}
		if closed {
			return nil
		}
		<-q.ready
	}
}

// close rejects further pushes and wakes a blocked drain. Pending events
// can still be drained.
func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ready)
	}
}
