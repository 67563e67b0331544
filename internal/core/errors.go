package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeRoomFull         = "room_full"
	ErrCodeRoomNotFound     = "room_not_found"
	ErrCodeBadSelector      = "bad_selector"
	ErrCodeAlreadyJoined    = "already_joined"
	ErrCodeInvalidMove      = "invalid_move"
	ErrCodeNotYourTurn      = "not_your_turn"
	ErrCodeNotActive        = "not_active"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeBanUnavailable   = "ban_unavailable"
	ErrCodeBanned           = "banned"
	ErrCodeRateLimited      = "rate_limited"
)

var (
	ErrRoomFull      = errors.New("room is full")
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyJoined = errors.New("already joined")
	ErrNotInRoom     = errors.New("not in room")
	ErrNotActive     = errors.New("room is not active")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
