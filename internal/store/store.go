package store

import (
	"context"
	"time"
)

// Ban is a network origin refused at accept time.
type Ban struct {
	Origin    string
	Reason    string
	CreatedAt time.Time
}

// Driver names a ban store backend.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverSQLite Driver = "sqlite"
	DriverRedis  Driver = "redis"
)

// BanStore handles the ban registry.
type BanStore interface {
	// AddBan records origin as banned. Banning an origin twice keeps one
	// entry and refreshes its reason.
	AddBan(ctx context.Context, origin, reason string) error

	// IsBanned reports whether origin is banned.
	IsBanned(ctx context.Context, origin string) (bool, error)

	// ListBans lists every ban, oldest first.
	ListBans(ctx context.Context) ([]*Ban, error)

	// Close releases the underlying connection.
	Close() error
}
