package core

import "context"

// Conn is a player's bidirectional channel as seen by the core layer.
// Send must be safe for concurrent use; Receive is called from a single
// goroutine and blocks until a message arrives, the context ends, or the
// channel faults. Close must be idempotent.
type Conn interface {
	ID() string
	// Origin is the network origin used as the ban identity.
	Origin() string
	Send(event *Event) error
	Receive(ctx context.Context) (string, error)
	Close() error
}
