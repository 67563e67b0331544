package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/citychain-server/internal/core"
)

// RoomHandlers provides read-only operator endpoints over the hub.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BanResponse represents a ban in API responses.
type BanResponse struct {
	Origin    string `json:"origin"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

// ListRooms returns a snapshot of every room.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := roomsToProto(h.hub.Rooms())
	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, rooms)
}

// GetRoom returns a snapshot of one room.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	room := h.hub.Room(id)
	if room == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	c.JSON(http.StatusOK, roomToProto(room.Info()))
}

// ListBans returns the ban registry, oldest first.
// GET /api/bans
func (h *RoomHandlers) ListBans(c *gin.Context) {
	bans, err := h.hub.Bans(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list bans")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]BanResponse, 0, len(bans))
	for _, ban := range bans {
		response = append(response, BanResponse{
			Origin:    ban.Origin,
			Reason:    ban.Reason,
			CreatedAt: ban.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	c.JSON(http.StatusOK, response)
}

