package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/citychain-server/internal/config"
	"github.com/vovakirdan/citychain-server/internal/core"
)

// NewServer builds the HTTP server. The game WebSocket is served straight
// from the mux since the upgrade hijacks the connection; gin handles the
// health probe and the read-only operator API.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, logger))
	mux.Handle("/", newRouter(hub, logger))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func newRouter(hub *core.Hub, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	roomHandlers := NewRoomHandlers(hub, logger)
	api := router.Group("/api")
	{
		api.GET("/rooms", roomHandlers.ListRooms)
		api.GET("/rooms/:id", roomHandlers.GetRoom)
		api.GET("/bans", roomHandlers.ListBans)
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
