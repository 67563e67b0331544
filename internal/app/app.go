package app

import (
	"context"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/citychain-server/internal/config"
	"github.com/vovakirdan/citychain-server/internal/core"
	"github.com/vovakirdan/citychain-server/internal/events"
	natsevents "github.com/vovakirdan/citychain-server/internal/events/nats"
	"github.com/vovakirdan/citychain-server/internal/store"
	redisstore "github.com/vovakirdan/citychain-server/internal/store/redis"
	"github.com/vovakirdan/citychain-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/citychain-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	bans            store.BanStore
	publisher       events.Publisher
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	bans, err := openBanStore(ctx, cfg.BanStore)
	if err != nil {
		return nil, fmt.Errorf("init ban store: %w", err)
	}
	logger.Info().Str("driver", string(cfg.BanStore.Driver)).Msg("ban store initialized")

	var publisher events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		pub, err := natsevents.New(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			_ = bans.Close()
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		publisher = pub
		logger.Info().Str("url", cfg.NATS.URL).Str("subject", cfg.NATS.Subject).Msg("publishing match events")
	}

	hub := core.NewHub(core.HubOptions{
		Rooms:             cfg.Rooms,
		TurnTimeout:       cfg.TurnTimeout,
		MessagesPerMinute: cfg.MessagesPerMinute,
		Bans:              bans,
		Publisher:         publisher,
		Logger:            logger,
	})
	server := transporthttp.NewServer(hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		bans:            bans,
		publisher:       publisher,
		log:             logger,
	}, nil
}

func openBanStore(ctx context.Context, cfg config.BanStoreConfig) (store.BanStore, error) {
	switch cfg.Driver {
	case store.DriverMemory, "":
		return store.NewMemory(), nil
	case store.DriverSQLite:
		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	case store.DriverRedis:
		st, err := redisstore.New(ctx, cfg.RedisAddr, cfg.RedisKey)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	// Hijacked WebSocket requests outlive Shutdown; tie them to ctx instead.
	a.server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the ban store and the event publisher.
func (a *App) cleanup() {
	if err := a.publisher.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close event publisher")
	}
	if a.bans != nil {
		if err := a.bans.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close ban store")
		} else {
			a.log.Info().Msg("ban store closed")
		}
	}
}
