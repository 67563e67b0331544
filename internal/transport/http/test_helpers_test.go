package http

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/citychain-server/internal/config"
	"github.com/vovakirdan/citychain-server/internal/core"
	"github.com/vovakirdan/citychain-server/internal/proto"
	"github.com/vovakirdan/citychain-server/internal/store"
)

// startTestServer runs a hub with two rooms where the first player to join
// always starts.
func startTestServer(t *testing.T, bans store.BanStore) (*httptest.Server, *core.Hub) {
	t.Helper()

	logger := zerolog.Nop()
	hub := core.NewHub(core.HubOptions{
		Rooms:       2,
		TurnTimeout: time.Minute,
		Pick:        func(int) int { return 0 },
		Bans:        bans,
		Logger:      &logger,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	server := NewServer(hub, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts, hub
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(text)))
}

// expect reads the next outbound message and checks its event name.
func expect(t *testing.T, conn *websocket.Conn, event string) proto.Outbound {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out proto.Outbound
	require.NoError(t, wsjson.Read(ctx, conn, &out))
	require.Equal(t, event, out.Event, "unexpected event with text %q", textOf(out))
	return out
}

func textOf(out proto.Outbound) string {
	if out.Data == nil {
		return ""
	}
	return out.Data.Text
}
