package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomList prompts for a room selector and lists rooms.
	EventRoomList EventKind = iota
	// EventJoined confirms a room join.
	EventJoined
	// EventJoinRejected reports a refused room selection.
	EventJoinRejected
	// EventGameStart announces a new round to both players.
	EventGameStart
	// EventYourTurn tells the turn holder their move is awaited.
	EventYourTurn
	// EventMoveAccepted confirms the mover's city was accepted.
	EventMoveAccepted
	// EventOpponentMove delivers the opponent's city and the next letter.
	EventOpponentMove
	// EventMoveRejected reports an invalid city.
	EventMoveRejected
	// EventWaitTurn rejects a move from the player not holding the turn.
	EventWaitTurn
	// EventWaitOpponent rejects a move while the room is not active.
	EventWaitOpponent
	// EventRoundLost tells the turn holder their time ran out.
	EventRoundLost
	// EventRoundWon tells the opponent of a timed-out player they won.
	EventRoundWon
	// EventMatchLost tells a leaving player they forfeited.
	EventMatchLost
	// EventMatchWon tells the remaining player the opponent left.
	EventMatchWon
	// EventLeft confirms the player left the room or the server.
	EventLeft
	// EventBanned tells a player they were banned.
	EventBanned
	// EventOpponentBanned tells the admin the ban went through.
	EventOpponentBanned
	// EventPermissionDenied rejects a privileged command.
	EventPermissionDenied
	// EventRejected refuses a connection at accept time.
	EventRejected
	// EventError notifies clients about a domain error.
	EventError
)

var eventNames = map[EventKind]string{
	EventRoomList:         "room_list",
	EventJoined:           "joined",
	EventJoinRejected:     "join_rejected",
	EventGameStart:        "game_start",
	EventYourTurn:         "your_turn",
	EventMoveAccepted:     "move_accepted",
	EventOpponentMove:     "opponent_move",
	EventMoveRejected:     "move_rejected",
	EventWaitTurn:         "wait_turn",
	EventWaitOpponent:     "wait_opponent",
	EventRoundLost:        "round_lost",
	EventRoundWon:         "round_won",
	EventMatchLost:        "match_lost",
	EventMatchWon:         "match_won",
	EventLeft:             "left",
	EventBanned:           "banned",
	EventOpponentBanned:   "opponent_banned",
	EventPermissionDenied: "permission_denied",
	EventRejected:         "rejected",
	EventError:            "error",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    int
	Text    string
	City    string     // EventOpponentMove, EventMoveAccepted
	Letter  string     // next required starting letter
	History []string   // EventOpponentMove
	Rooms   []RoomInfo // EventRoomList
	Error   *CoreError
}

func notice(kind EventKind, room int, text string) *Event {
	return &Event{Kind: kind, Room: room, Text: text}
}

func errorEvent(kind EventKind, room int, err *CoreError) *Event {
	return &Event{Kind: kind, Room: room, Text: err.Message, Error: err}
}
