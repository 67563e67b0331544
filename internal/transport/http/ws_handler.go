package http

import (
	"context"
	"errors"
	"io"
	"net"
	stdhttp "net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/citychain-server/internal/core"
	"github.com/vovakirdan/citychain-server/internal/utils"
)

// WSHandler upgrades HTTP connections and hands them to the hub.
type WSHandler struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn := newWSConn(ctx, ws, originOf(r))
	defer conn.Close()

	h.hub.Accept(ctx, conn)
}

// wsConn adapts a WebSocket connection to core.Conn.
type wsConn struct {
	id     string
	origin string
	ws     *websocket.Conn
	ctx    context.Context

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newWSConn(ctx context.Context, ws *websocket.Conn, origin string) *wsConn {
	return &wsConn{
		id:     utils.NewID(),
		origin: origin,
		ws:     ws,
		ctx:    ctx,
	}
}

func (c *wsConn) ID() string     { return c.id }
func (c *wsConn) Origin() string { return c.origin }

func (c *wsConn) Send(event *core.Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wsjson.Write(c.ctx, c.ws, outboundFromEvent(event))
}

// Receive returns the next text frame. A close frame from the peer is
// reported as io.EOF.
func (c *wsConn) Receive(ctx context.Context) (string, error) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return "", io.EOF
			}
			return "", err
		}
		if typ != websocket.MessageText {
			continue
		}
		return string(data), nil
	}
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close(websocket.StatusNormalClosure, "closing")
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	})
	return err
}

// originOf is the ban identity of a request: the remote host without port.
func originOf(r *stdhttp.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
