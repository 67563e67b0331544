package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/citychain-server/internal/events"
	"github.com/vovakirdan/citychain-server/internal/store"
)

// DefaultRooms is the number of rooms created when none is configured.
const DefaultRooms = 10

// HubOptions configures a Hub. Zero values fall back to defaults.
type HubOptions struct {
	Rooms       int
	TurnTimeout time.Duration
	// MessagesPerMinute caps inbound messages per connection; 0 disables.
	MessagesPerMinute int
	Pick              func(n int) int
	Bans              store.BanStore
	Publisher         events.Publisher
	Logger            *zerolog.Logger
}

// Hub owns the room registry, the live clients and the admin and ban
// registries. Every connection enters through Accept.
type Hub struct {
	rooms     []*Room
	bans      store.BanStore
	log       zerolog.Logger
	msgsLimit int

	mu          sync.Mutex
	clients     map[string]Conn
	admin       string
	adminChosen bool
}

// NewHub creates the hub and its fixed set of rooms, numbered from 1.
func NewHub(opts HubOptions) *Hub {
	if opts.Rooms <= 0 {
		opts.Rooms = DefaultRooms
	}
	if opts.Bans == nil {
		opts.Bans = store.NewMemory()
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	rooms := make([]*Room, 0, opts.Rooms)
	for i := 1; i <= opts.Rooms; i++ {
		rooms = append(rooms, NewRoom(i, RoomOptions{
			TurnTimeout: opts.TurnTimeout,
			Pick:        opts.Pick,
			Publisher:   opts.Publisher,
			Logger:      &logger,
		}))
	}

	return &Hub{
		rooms:     rooms,
		bans:      opts.Bans,
		log:       logger,
		msgsLimit: opts.MessagesPerMinute,
		clients:   make(map[string]Conn),
	}
}

// Run drives every room loop and blocks until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, room := range h.rooms {
		wg.Add(1)
		go func(r *Room) {
			defer wg.Done()
			r.Run(ctx)
		}(room)
	}
	wg.Wait()
}

// Accept serves one connection until it quits, faults, is banned or ctx
// ends. Connections from banned origins are refused before anything else.
func (h *Hub) Accept(ctx context.Context, conn Conn) {
	logger := h.log.With().Str("conn_id", conn.ID()).Str("origin", conn.Origin()).Logger()

	banned, err := h.bans.IsBanned(ctx, conn.Origin())
	if err != nil {
		logger.Warn().Err(err).Msg("ban lookup failed, admitting connection")
	}
	if banned {
		logger.Info().Msg("refused banned origin")
		_ = conn.Send(errorEvent(EventRejected, 0, coreError(ErrCodeBanned, "You are banned from this server!")))
		_ = conn.Close()
		return
	}

	admin := h.register(conn)
	defer h.unregister(conn)
	logger.Info().Bool("admin", admin).Msg("client connected")

	h.serve(ctx, conn, logger)
	logger.Info().Msg("client disconnected")
}

// Rooms snapshots every room in order.
func (h *Hub) Rooms() []RoomInfo {
	infos := make([]RoomInfo, 0, len(h.rooms))
	for _, room := range h.rooms {
		infos = append(infos, room.Info())
	}
	return infos
}

// Room returns the room with the 1-based id, or nil.
func (h *Hub) Room(id int) *Room {
	if id < 1 || id > len(h.rooms) {
		return nil
	}
	return h.rooms[id-1]
}

// IsAdmin reports whether conn holds the BAN privilege.
func (h *Hub) IsAdmin(conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.adminChosen && h.admin == conn.ID()
}

// ClientCount reports the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Bans lists the ban registry.
func (h *Hub) Bans(ctx context.Context) ([]*store.Ban, error) {
	return h.bans.ListBans(ctx)
}

// register adds conn to the live set. The first connection ever becomes
// the admin; the role is never handed over.
func (h *Hub) register(conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[conn.ID()] = conn
	if !h.adminChosen {
		h.adminChosen = true
		h.admin = conn.ID()
	}
	return h.admin == conn.ID()
}

func (h *Hub) unregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn.ID())
}

// ban handles BAN from issuer inside room.
func (h *Hub) ban(ctx context.Context, issuer Conn, room *Room, logger zerolog.Logger) {
	if !h.IsAdmin(issuer) {
		logger.Info().Msg("ban denied: not admin")
		_ = issuer.Send(errorEvent(EventPermissionDenied, room.ID,
			coreError(ErrCodePermissionDenied, "Permission denied: only the admin can ban")))
		return
	}

	victim, err := room.Ban(issuer)
	if err != nil {
		_ = issuer.Send(errorEvent(EventError, room.ID,
			coreError(ErrCodeBanUnavailable, "You can ban only an opponent in a running match")))
		return
	}

	// Record before closing so a fast reconnect is already refused.
	if err := h.bans.AddBan(ctx, victim.Origin(), fmt.Sprintf("banned in room %d", room.ID)); err != nil {
		logger.Error().Err(err).Str("victim", victim.ID()).Msg("failed to record ban")
	}
	_ = victim.Close()
	h.unregister(victim)
}
