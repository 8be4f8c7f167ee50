// Package pipeline implements the ingestion pipeline driver (spec.md
// §4.1): directory discovery, resume checks against the checkpoint and
// stage cache, a bounded worker pool, and the per-document stage sequence
// (load, chunk, stage-cache lookup/LLM calls, checkpoint update) that
// feeds the index build.
package pipeline

// Status is one of a worker's possible states in the progress contract
// (spec.md §4.1: "No user-visible formatting belongs to the pipeline").
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusWaiting    Status = "waiting"
	StatusDone       Status = "done"
)

// Event is one progress update emitted by a worker.
type Event struct {
	WorkerIndex  int
	Stage        string
	DocumentName string
	ChunkIndex   int
	TotalChunks  int
	Status       Status
}

// ProgressSink receives Events as the pipeline runs. Formatting them for a
// terminal, log line, or UI is the sink implementation's job, never the
// pipeline's (spec.md §4.1).
type ProgressSink interface {
	Report(Event)
}

// NopSink discards every event, used when the caller does not need
// progress reporting (e.g. tests, one-shot CLI invocations with -q).
type NopSink struct{}

func (NopSink) Report(Event) {}

// ChanSink forwards events to a channel, letting a caller consume progress
// asynchronously (e.g. a server-sent-events handler) without blocking the
// worker pool if the channel has spare capacity.
type ChanSink struct {
	events chan Event
}

// NewChanSink creates a ChanSink with the given channel buffer size.
func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{events: make(chan Event, buffer)}
}

func (s *ChanSink) Report(e Event) {
	select {
	case s.events <- e:
	default:
		// Drop rather than block a worker on a full channel; progress
		// reporting must never slow down ingestion.
	}
}

// Events returns the channel events are delivered on.
func (s *ChanSink) Events() <-chan Event {
	return s.events
}

// Close closes the underlying channel. Call only after every worker has
// stopped reporting.
func (s *ChanSink) Close() {
	close(s.events)
}
