package core

import "strings"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandMove is a gameplay move: a city name.
	CommandMove CommandKind = iota
	// CommandQuit ends the match and closes the connection.
	CommandQuit
	// CommandChange leaves the current room and returns to room selection.
	CommandChange
	// CommandBan removes the opponent and bans their origin. Admin only.
	CommandBan
)

// Control verbs recognized regardless of case.
const (
	VerbQuit   = "QUIT"
	VerbChange = "CHANGE"
	VerbBan    = "BAN"
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	Text string
}

// ParseCommand classifies raw client input. Control verbs match regardless
// of case and surrounding whitespace; anything else is a move carrying raw
// exactly as received.
func ParseCommand(raw string) Command {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case VerbQuit:
		return Command{Kind: CommandQuit}
	case VerbChange:
		return Command{Kind: CommandChange}
	case VerbBan:
		return Command{Kind: CommandBan}
	}
	return Command{Kind: CommandMove, Text: raw}
}

func (k CommandKind) String() string {
	switch k {
	case CommandMove:
		return "move"
	case CommandQuit:
		return "quit"
	case CommandChange:
		return "change"
	case CommandBan:
		return "ban"
	default:
		return "unknown"
	}
}
