package proto

import "github.com/vovakirdan/citychain-server/internal/core"

// Clients send plain text frames: a city name, a room number while
// choosing a room, or one of the control verbs below.
const (
	VerbQuit   = core.VerbQuit
	VerbChange = core.VerbChange
	VerbBan    = core.VerbBan
)

const (
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string     `json:"type"`
	Event string     `json:"event"`
	Data  *EventData `json:"data,omitempty"`
	Error *Error     `json:"error,omitempty"`
}

// EventData carries the payload of every game event. Text is always set
// and is the line a terminal client prints.
type EventData struct {
	Text    string     `json:"text"`
	Room    int        `json:"room,omitempty"`
	City    string     `json:"city,omitempty"`
	Letter  string     `json:"letter,omitempty"`
	History []string   `json:"history,omitempty"`
	Rooms   []RoomInfo `json:"rooms,omitempty"`
}

// RoomInfo describes a room in listings.
type RoomInfo struct {
	ID          int      `json:"id"`
	Players     int      `json:"players"`
	Capacity    int      `json:"capacity"`
	Status      string   `json:"status"`
	LastOutcome string   `json:"last_outcome,omitempty"`
	Round       int      `json:"round"`
	History     []string `json:"history,omitempty"`
}

// Error is sent alongside the event when a request was refused.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
