// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Publisher sends messages to subjects.
type Publisher interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close shuts down the publisher connection.
	Close() error
}

// ConnectionReporter is implemented by publishers that hold a broker connection.
type ConnectionReporter interface {
	Connected() bool
}

// Subjects for tour change events.
const (
	SubjectTourCreated   = "tours.created"
	SubjectTourUpdated   = "tours.updated"
	SubjectTourDeleted   = "tours.deleted"
	SubjectTourReordered = "tours.reordered"
)

// Nop is a Publisher that discards every message. Used when no broker is configured.
type Nop struct{}

// Publish discards the message.
func (Nop) Publish(context.Context, string, []byte) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
