package events

import (
	"context"
	"time"
)

// Kind names a match lifecycle event.
type Kind string

const (
	KindMatchStarted Kind = "match_started"
	KindRoundLost    Kind = "round_lost"
	KindMatchEnded   Kind = "match_ended"
	KindPlayerBanned Kind = "player_banned"
)

// Record is the payload published for every lifecycle event.
type Record struct {
	Kind    Kind   `json:"kind"`
	Room    int    `json:"room"`
	Outcome string `json:"outcome,omitempty"` // final room status for match_ended
	Origin  string `json:"origin,omitempty"`  // banned origin for player_banned
	Round   int    `json:"round,omitempty"`
	Cities  int    `json:"cities"` // cities accepted in the finished round
	TS      int64  `json:"ts"`
}

// NewRecord stamps a record with the current time.
func NewRecord(kind Kind, room int) Record {
	return Record{Kind: kind, Room: room, TS: time.Now().Unix()}
}

// Publisher abstracts the event fan-out backend.
type Publisher interface {
	// Publish hands the record to the backend. Implementations must not block
	// on slow subscribers.
	Publish(ctx context.Context, rec Record) error

	// Close flushes pending records and releases the backend connection.
	Close() error
}

// Nop discards every record.
type Nop struct{}

func (Nop) Publish(context.Context, Record) error { return nil }
func (Nop) Close() error                          { return nil }
