package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/citychain-server/internal/store"
)

type testHub struct {
	*Hub
	ctx context.Context
}

func newTestHub(t *testing.T, opts HubOptions) *testHub {
	t.Helper()

	if opts.Rooms == 0 {
		opts.Rooms = 3
	}
	if opts.TurnTimeout == 0 {
		opts.TurnTimeout = time.Hour
	}
	if opts.Pick == nil {
		opts.Pick = first
	}

	hub := NewHub(opts)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return &testHub{Hub: hub, ctx: ctx}
}

// connect accepts a new connection and waits for the room prompt.
func (h *testHub) connect(t *testing.T, id, origin string) *fakeConn {
	t.Helper()

	c := newFakeConn(id, origin)
	go h.Accept(h.ctx, c)
	mustEvent(t, c, EventRoomList)
	return c
}

// seat connects a and b and puts both into room 1; a holds the turn.
func (h *testHub) seat(t *testing.T) (*fakeConn, *fakeConn) {
	t.Helper()

	a := h.connect(t, "a", "10.0.0.1")
	b := h.connect(t, "b", "10.0.0.2")
	a.say("1")
	mustEvent(t, a, EventJoined)
	b.say("1")
	mustEvent(t, b, EventJoined)
	mustEvent(t, a, EventYourTurn)
	return a, b
}

func TestHubRoomListPrompt(t *testing.T) {
	hub := newTestHub(t, HubOptions{Rooms: 2})

	c := newFakeConn("c", "o1")
	go hub.Accept(hub.ctx, c)

	ev := mustEvent(t, c, EventRoomList)
	assert.Equal(t, "Choose room to play.\nAvailable rooms: [Room: 1 | Players: 0/2, Room: 2 | Players: 0/2]", ev.Text)
	assert.Len(t, ev.Rooms, 2)
}

func TestHubMatchmakingRejectsBadSelectors(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	c := hub.connect(t, "c", "o1")

	tests := []struct {
		selector string
		code     string
		text     string
	}{
		{selector: "abc", code: ErrCodeBadSelector, text: "Wrong room number!"},
		{selector: "-1", code: ErrCodeBadSelector, text: "Wrong room number!"},
		{selector: "0", code: ErrCodeRoomNotFound, text: "That room does not exist!"},
		{selector: "99", code: ErrCodeRoomNotFound, text: "That room does not exist!"},
		{selector: "change", code: ErrCodeBadSelector, text: "Wrong room number!"},
	}

	for _, tt := range tests {
		c.say(tt.selector)
		ev := mustEvent(t, c, EventJoinRejected)
		require.NotNil(t, ev.Error, tt.selector)
		assert.Equal(t, tt.code, ev.Error.Code, tt.selector)
		assert.Equal(t, tt.text, ev.Text, tt.selector)
		mustEvent(t, c, EventRoomList)
	}

	c.say(" 2 ")
	ev := mustEvent(t, c, EventJoined)
	assert.Equal(t, 2, ev.Room)
	assert.Equal(t, 1, hub.Room(2).Info().Players)
}

func TestHubRoomFullReprompts(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	hub.seat(t)

	c := hub.connect(t, "c", "10.0.0.3")
	c.say("1")
	ev := mustEvent(t, c, EventJoinRejected)
	assert.Equal(t, ErrCodeRoomFull, ev.Error.Code)
	assert.Equal(t, "That room is full!", ev.Text)

	c.say("2")
	mustEvent(t, c, EventJoined)
}

func TestHubQuitDuringSelection(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	c := hub.connect(t, "c", "o1")

	c.say("Quit")
	mustEvent(t, c, EventLeft)

	require.Eventually(t, func() bool {
		return c.isClosed() && hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubFaultDuringSelection(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	c := hub.connect(t, "c", "o1")

	require.NoError(t, c.Close())

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.Room(1).Info().Players)
}

func TestHubMoveBeforeOpponentArrives(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	a := hub.connect(t, "a", "o1")
	a.say("1")
	mustEvent(t, a, EventJoined)

	a.say("Berlin")
	ev := mustEvent(t, a, EventWaitOpponent)
	assert.Equal(t, "Wait for your opponent..", ev.Text)
	assert.Empty(t, hub.Room(1).History())
}

func TestHubPlaysMoves(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	a, b := hub.seat(t)
	room := hub.Room(1)

	b.say("Berlin")
	mustEvent(t, b, EventWaitTurn)

	a.say("Berlin")
	ev := mustEvent(t, b, EventOpponentMove)
	assert.Equal(t, "n", ev.Letter)

	b.say("Naples")
	mustEvent(t, b, EventMoveRejected)
	assert.Equal(t, []string{"Berlin"}, room.History())
	assert.Equal(t, Conn(b), room.Turn())

	b.say("nantes")
	mustEvent(t, a, EventOpponentMove)
	assert.Equal(t, []string{"Berlin", "nantes"}, room.History())
	assert.Equal(t, Conn(a), room.Turn())
}

func TestHubEmptyMoveRejected(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	a, _ := hub.seat(t)

	a.say("   ")
	ev := mustEvent(t, a, EventMoveRejected)
	assert.Equal(t, ErrCodeInvalidMove, ev.Error.Code)
	assert.Empty(t, hub.Room(1).History())
}

func TestHubChangeReturnsToMatchmaking(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	a, b := hub.seat(t)

	a.say("Berlin")
	mustEvent(t, b, EventYourTurn)

	b.say("change")
	mustEvent(t, b, EventMatchLost)
	mustEvent(t, b, EventLeft)
	mustEvent(t, a, EventMatchWon)
	mustEvent(t, b, EventRoomList)

	room := hub.Room(1)
	assert.Equal(t, StatusOpen, room.Status())
	assert.Equal(t, StatusEndedLeft, room.Info().LastOutcome)
	assert.Empty(t, room.History())
	assert.Equal(t, []Conn{a}, room.Players())
	assert.False(t, b.isClosed())

	b.say("2")
	ev := mustEvent(t, b, EventJoined)
	assert.Equal(t, 2, ev.Room)
}

func TestHubQuitEndsMatch(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	a, b := hub.seat(t)

	b.say("QUIT")
	mustEvent(t, a, EventMatchWon)

	require.Eventually(t, func() bool {
		return b.isClosed() && hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	room := hub.Room(1)
	assert.Equal(t, StatusOpen, room.Status())
	assert.Equal(t, StatusEndedQuit, room.Info().LastOutcome)
	assert.Equal(t, []Conn{a}, room.Players())
}

func TestHubConnectionFaultActsAsQuit(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	a, b := hub.seat(t)

	require.NoError(t, b.Close())
	mustEvent(t, a, EventMatchWon)

	room := hub.Room(1)
	require.Eventually(t, func() bool {
		return len(room.Players()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, StatusOpen, room.Status())
	assert.Nil(t, room.Turn())
}

func TestHubFirstConnectionIsAdmin(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	a := hub.connect(t, "a", "o1")
	b := hub.connect(t, "b", "o2")

	assert.True(t, hub.IsAdmin(a))
	assert.False(t, hub.IsAdmin(b))

	// The role is never handed over, even after the admin leaves.
	a.say("quit")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	c := hub.connect(t, "c", "o3")
	assert.False(t, hub.IsAdmin(b))
	assert.False(t, hub.IsAdmin(c))
}

func TestHubNonAdminBanDenied(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	_, b := hub.seat(t)

	b.say("ban")
	ev := mustEvent(t, b, EventPermissionDenied)
	assert.Equal(t, ErrCodePermissionDenied, ev.Error.Code)

	room := hub.Room(1)
	assert.Equal(t, StatusActive, room.Status())
	assert.Len(t, room.Players(), 2)
	assert.False(t, b.isClosed())
}

func TestHubAdminBanRefusesReconnect(t *testing.T) {
	bans := store.NewMemory()
	hub := newTestHub(t, HubOptions{Bans: bans})
	a, b := hub.seat(t)

	a.say("Ban")
	mustEvent(t, b, EventBanned)
	mustEvent(t, a, EventOpponentBanned)

	require.Eventually(t, b.isClosed, 2*time.Second, 10*time.Millisecond)
	banned, err := bans.IsBanned(context.Background(), "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, banned)

	room := hub.Room(1)
	assert.Equal(t, StatusOpen, room.Status())
	assert.Equal(t, StatusEndedBanned, room.Info().LastOutcome)
	assert.Equal(t, []Conn{a}, room.Players())

	again := newFakeConn("b2", "10.0.0.2")
	hub.Accept(hub.ctx, again)
	ev := mustEvent(t, again, EventRejected)
	assert.Equal(t, ErrCodeBanned, ev.Error.Code)
	assert.True(t, again.isClosed())

	list, err := hub.Bans(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "10.0.0.2", list[0].Origin)
}

func TestHubBanOutsideMatch(t *testing.T) {
	hub := newTestHub(t, HubOptions{})
	a := hub.connect(t, "a", "o1")
	a.say("1")
	mustEvent(t, a, EventJoined)

	a.say("ban")
	ev := mustEvent(t, a, EventError)
	assert.Equal(t, ErrCodeBanUnavailable, ev.Error.Code)
	assert.Equal(t, []Conn{a}, hub.Room(1).Players())
}

func TestHubRateLimit(t *testing.T) {
	hub := newTestHub(t, HubOptions{MessagesPerMinute: 2})
	c := hub.connect(t, "c", "o1")

	c.say("x")
	c.say("y")
	c.say("z")

	ev := mustEvent(t, c, EventError)
	assert.Equal(t, ErrCodeRateLimited, ev.Error.Code)
}

func TestHubRateLimitLetsQuitThrough(t *testing.T) {
	hub := newTestHub(t, HubOptions{MessagesPerMinute: 2})
	c := hub.connect(t, "c", "o1")

	c.say("x")
	c.say("y")
	c.say("z")
	mustEvent(t, c, EventError)

	c.say("QUIT")
	mustEvent(t, c, EventLeft)
	assert.Eventually(t, c.isClosed, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubRateLimitLetsChangeThrough(t *testing.T) {
	hub := newTestHub(t, HubOptions{MessagesPerMinute: 2})
	c := hub.connect(t, "c", "o1")

	c.say("1")
	mustEvent(t, c, EventJoined)
	c.say("Berlin")
	c.say("Paris")
	ev := mustEvent(t, c, EventError)
	assert.Equal(t, ErrCodeRateLimited, ev.Error.Code)

	c.say("change")
	mustEvent(t, c, EventLeft)
	mustEvent(t, c, EventRoomList)
	assert.Equal(t, 0, hub.Room(1).Info().Players)
}

func TestHubTimeoutScenario(t *testing.T) {
	hub := newTestHub(t, HubOptions{TurnTimeout: 200 * time.Millisecond})
	a, b := hub.seat(t)

	mustEvent(t, a, EventRoundLost)
	mustEvent(t, b, EventRoundWon)
	mustEvent(t, b, EventGameStart)

	room := hub.Room(1)
	assert.Equal(t, StatusActive, room.Status())
	assert.Empty(t, room.History())
	assert.Contains(t, []Conn{a, b}, room.Turn())
}
