package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/oversight/domain/action"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for watcher logging.

// ReferenceID adds a reference ID field.
func ReferenceID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reference_id", id)
	}
}

// Status adds a workflow status field.
func Status(s action.Status) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("status", string(s))
	}
}

// Channel adds a sync channel field (broadcast or storage).
func Channel(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("channel", name)
	}
}

// Backend adds a storage backend field.
func Backend(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("backend", name)
	}
}

// Origin adds the originating engine instance field.
func Origin(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("origin", id)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Err adds an error field.
func Err(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}
