package engine

// EventType distinguishes event kinds.
type EventType int

const (
	// EventLog carries one human-readable log line.
	EventLog EventType = iota + 1
	// EventProgress carries the fraction of sources completed.
	EventProgress
	// EventDone is the last event of a task. Err is nil on success.
	EventDone
)

// Event is one message from a running job.
type Event struct {
	Type     EventType
	Message  string
	Progress float64
	Err      error
}

// Observer receives log lines and progress from a job as it runs.
// Calls happen on the job's goroutine, in order.
type Observer interface {
	Log(line string)
	Progress(fraction float64)
}

// nopObserver discards everything.
type nopObserver struct{}

func (nopObserver) Log(string) {}
func (nopObserver) Progress(float64) {}

// queueObserver forwards to an event queue.
type queueObserver struct {
	q *eventQueue
}

func (o queueObserver) Log(line string) {
	o.q.push(Event{Type: EventLog, Message: line})
}

func (o queueObserver) Progress(fraction float64) {
	o.q.push(Event{Type: EventProgress, Progress: fraction})
}

// LogRecorder collects log lines and progress values. Useful when the
// caller wants the log after the job, e.g. for JSON output.
type LogRecorder struct {
	Lines     []string
	Fractions []float64
}

// Log records a line.
func (r *LogRecorder) Log(line string) {
	r.Lines = append(r.Lines, line)
}

// Progress records a fraction.
func (r *LogRecorder) Progress(fraction float64) {
	r.Fractions = append(r.Fractions, fraction)
}
