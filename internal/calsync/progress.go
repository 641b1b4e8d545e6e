// internal/calsync/progress.go
package calsync

// Event is one unit of the streamed progress protocol. A run emits one
// "progress" event per category, in order, then exactly one terminal
// "complete" or "error" event.
type Event struct {
	Type      string `json:"type"` // progress | complete | error
	Current   int    `json:"current,omitempty"`
	Total     int    `json:"total,omitempty"`
	EventType string `json:"eventType,omitempty"`
	Message   string `json:"message,omitempty"`
	Synced    *int   `json:"synced,omitempty"`
	Errors    *int   `json:"errors,omitempty"`
}

const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// ProgressSink receives progress events. The engine does not care whether
// the transport is a chunked HTTP response or an in-process collector.
type ProgressSink interface {
	Emit(ev Event) error
}

func progressEvent(current, total int, cat Category) Event {
	return Event{
		Type:      EventProgress,
		Current:   current,
		Total:     total,
		EventType: string(cat),
		Message:   "Syncing " + cat.Label() + "...",
	}
}

func completeEvent(synced, errors int) Event {
	return Event{Type: EventComplete, Synced: &synced, Errors: &errors}
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}
