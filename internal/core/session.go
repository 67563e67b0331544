package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// inbound is one item of a connection's private queue.
type inbound struct {
	text  string
	fault error
}

// serve runs the receiver and processor pair for conn. It returns once the
// processor is done, after closing conn and stopping the receiver.
func (h *Hub) serve(ctx context.Context, conn Conn, logger zerolog.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := NewQueue[inbound]()
	received := make(chan struct{})
	go func() {
		defer close(received)
		h.receive(ctx, conn, queue, logger)
	}()

	h.process(ctx, conn, queue, logger)

	cancel()
	_ = conn.Close()
	<-received
}

// receive moves inbound messages into queue. A receive failure becomes a
// fault item, which the processor treats as QUIT.
func (h *Hub) receive(ctx context.Context, conn Conn, queue *Queue[inbound], logger zerolog.Logger) {
	limiter := newRateLimiter(h.msgsLimit, time.Minute)
	for {
		text, err := conn.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Debug().Err(err).Msg("receive failed")
			}
			queue.Push(inbound{fault: err})
			return
		}
		// Control verbs always get through so a flooding player can still leave.
		if ParseCommand(text).Kind == CommandMove && !limiter.allow(time.Now()) {
			_ = conn.Send(errorEvent(EventError, 0, coreError(ErrCodeRateLimited, "Too many messages, slow down")))
			continue
		}
		queue.Push(inbound{text: text})
	}
}

// process interprets the private queue: room selection first, then control
// verbs and moves until the connection quits.
func (h *Hub) process(ctx context.Context, conn Conn, queue *Queue[inbound], logger zerolog.Logger) {
	room, ok := h.matchmake(ctx, conn, queue, logger)
	if !ok {
		return
	}

	for {
		item, err := queue.Pop(ctx)
		if err != nil {
			room.Quit(conn)
			return
		}
		if item.fault != nil {
			room.Quit(conn)
			return
		}

		cmd := ParseCommand(item.text)
		switch cmd.Kind {
		case CommandQuit:
			room.Quit(conn)
			return
		case CommandChange:
			room.Leave(conn)
			logger.Info().Int("room", room.ID).Msg("changing room")
			if room, ok = h.matchmake(ctx, conn, queue, logger); !ok {
				return
			}
		case CommandBan:
			h.ban(ctx, conn, room, logger)
		case CommandMove:
			if strings.TrimSpace(cmd.Text) == "" {
				_ = conn.Send(errorEvent(EventMoveRejected, room.ID, coreError(ErrCodeInvalidMove, "Empty city name")))
				continue
			}
			if room.Status() != StatusActive {
				_ = conn.Send(notice(EventWaitOpponent, room.ID, "Wait for your opponent.."))
				continue
			}
			room.Submit(conn, cmd.Text)
		}
	}
}

// matchmake prompts for a room until conn joins one. It reports false when
// the connection quit or faulted; the connection is closed by then.
func (h *Hub) matchmake(ctx context.Context, conn Conn, queue *Queue[inbound], logger zerolog.Logger) (*Room, bool) {
	for {
		rooms := h.Rooms()
		_ = conn.Send(&Event{
			Kind:  EventRoomList,
			Text:  fmt.Sprintf("Choose room to play.\nAvailable rooms: %s", formatRooms(rooms)),
			Rooms: rooms,
		})

		item, err := queue.Pop(ctx)
		if err != nil || item.fault != nil {
			_ = conn.Close()
			return nil, false
		}
		if ParseCommand(item.text).Kind == CommandQuit {
			_ = conn.Send(notice(EventLeft, 0, "You left!"))
			_ = conn.Close()
			return nil, false
		}

		room, rejection := h.selectRoom(conn, strings.TrimSpace(item.text))
		if rejection != nil {
			_ = conn.Send(errorEvent(EventJoinRejected, 0, rejection))
			continue
		}
		logger.Info().Int("room", room.ID).Msg("joined room")
		return room, true
	}
}

func (h *Hub) selectRoom(conn Conn, selector string) (*Room, *CoreError) {
	n, err := strconv.ParseUint(selector, 10, 32)
	if err != nil {
		return nil, coreError(ErrCodeBadSelector, "Wrong room number!")
	}
	room := h.Room(int(n))
	if room == nil {
		return nil, coreError(ErrCodeRoomNotFound, "That room does not exist!")
	}
	if err := room.Join(conn); err != nil {
		if errors.Is(err, ErrAlreadyJoined) {
			return nil, coreError(ErrCodeAlreadyJoined, "You are already in that room!")
		}
		return nil, coreError(ErrCodeRoomFull, "That room is full!")
	}
	return room, nil
}

func formatRooms(rooms []RoomInfo) string {
	parts := make([]string, 0, len(rooms))
	for _, r := range rooms {
		parts = append(parts, r.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
