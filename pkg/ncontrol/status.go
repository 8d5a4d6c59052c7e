package ncontrol

import "time"

// Status is a snapshot of an App.
type Status struct {
	Running   bool
	Backend   string
	StartTime time.Time
	// Views is the number of views in the current scene.
	Views     int
	LastError error
	// Source describes where the configuration came from.
	Source  string
	Breaker BreakerState
}

// ErrorHandler is called for runtime errors. It runs on its own goroutine.
type ErrorHandler func(err error)

// EventHandler is called for lifecycle events. It runs on its own
// goroutine.
type EventHandler func(event Event)

// Event is a lifecycle notification.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
}

// EventType enumerates lifecycle events.
type EventType int

const (
	EventStarted EventType = iota
	EventStopped
	EventReloaded
	EventError
)

func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventReloaded:
		return "reloaded"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
