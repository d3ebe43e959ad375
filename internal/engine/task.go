package engine

import (
	"context"
	"sync"

	"github.com/roach88/customobjects/internal/ir"
)

// Task is a job running on its own goroutine.
//
// The job's index tables and entries are owned by that goroutine; the
// result becomes visible only through Wait once the job has finished.
type Task struct {
	queue  *eventQueue
	events chan Event
	stop   chan struct{}
	done   chan struct{}
	result *ir.Result
	err    error

	forward   sync.Once
	closeOnce sync.Once
}

// Start runs job in the background and returns immediately.
//
// Events are buffered without bound until read. The forwarding goroutine
// starts on the first call to Events, so a caller that only waits holds
// no goroutine beyond the job itself.
func (e *Engine) Start(ctx context.Context, job Job) *Task {
	q := newEventQueue()
	t := &Task{
		queue:  q,
		events: make(chan Event),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	go func() {
		res, err := e.Convert(ctx, job, queueObserver{q: q})
		t.result, t.err = res, err
		q.push(Event{Type: EventDone, Err: err})
		q.close()
		close(t.done)
	}()

	return t
}

// run forwards queued events until the queue is drained or Close is called.
func (t *Task) run() {
	defer close(t.events)
	for batch := t.queue.drain(); batch != nil; batch = t.queue.drain() {
		for _, ev := range batch {
			select {
			case t.events <- ev:
			case <-t.stop:
				return
			}
		}
	}
}

// Events returns the event stream of the task: log, progress and a final
// EventDone, then the channel closes.
func (t *Task) Events() <-chan Event {
	t.forward.Do(func() { go t.run() })
	return t.events
}

// Close stops event delivery to a reader that no longer wants it. Undelivered
// events are dropped and the stream closes. The job itself keeps running;
// use Wait for its outcome.
func (t *Task) Close() {
	t.closeOnce.Do(func() { close(t.stop) })
}

// Done is closed when the job has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the job finishes and returns its outcome.
func (t *Task) Wait() (*ir.Result, error) {
	<-t.done
	return t.result, t.err
}
