package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/citychain-server/internal/events"
)

var errFakeClosed = errors.New("fake conn closed")

// fakeConn is an in-memory Conn. Tests feed input with say and read
// output from events.
type fakeConn struct {
	id     string
	origin string
	inbox  chan string
	events chan *Event

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn(id, origin string) *fakeConn {
	return &fakeConn{
		id:     id,
		origin: origin,
		inbox:  make(chan string, 16),
		events: make(chan *Event, 256),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ID() string     { return c.id }
func (c *fakeConn) Origin() string { return c.origin }

func (c *fakeConn) Send(ev *Event) error {
	select {
	case <-c.closed:
		return errFakeClosed
	default:
	}
	select {
	case c.events <- ev:
		return nil
	default:
		return errors.New("fake conn: event buffer full")
	}
}

func (c *fakeConn) Receive(ctx context.Context) (string, error) {
	select {
	case msg := <-c.inbox:
		return msg, nil
	case <-c.closed:
		return "", errFakeClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) say(text string) {
	c.inbox <- text
}

// mustEvent waits for the next event of kind, discarding others.
func mustEvent(t *testing.T, c *fakeConn, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.events:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("%s: expected event %s not received", c.id, kind)
			return nil
		}
	}
}

// noEvent fails if an event of kind arrives within d.
func noEvent(t *testing.T, c *fakeConn, kind EventKind, d time.Duration) {
	t.Helper()

	deadline := time.After(d)
	for {
		select {
		case ev := <-c.events:
			if ev.Kind == kind {
				t.Fatalf("%s: unexpected event %s: %q", c.id, kind, ev.Text)
			}
		case <-deadline:
			return
		}
	}
}

func first(int) int { return 0 }

type recordingPublisher struct {
	mu      sync.Mutex
	records []events.Record
}

func (p *recordingPublisher) Publish(_ context.Context, rec events.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, rec)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) snapshot() []events.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Record(nil), p.records...)
}
