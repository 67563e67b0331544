package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/citychain-server/internal/store"
)

// DefaultKey is the hash holding the ban registry.
const DefaultKey = "citychain:bans"

// RedisStore implements store.BanStore on a single Redis hash: field is the
// origin, value is the JSON-encoded entry.
type RedisStore struct {
	client *redis.Client
	key    string
}

type entry struct {
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// New connects to Redis at addr and verifies the connection.
func New(ctx context.Context, addr, key string) (*RedisStore, error) {
	if key == "" {
		key = DefaultKey
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, key: key}, nil
}

// AddBan stores or refreshes a ban. The first ban time is kept.
func (s *RedisStore) AddBan(ctx context.Context, origin, reason string) error {
	e := entry{Reason: reason, CreatedAt: time.Now().UTC()}

	raw, err := s.client.HGet(ctx, s.key, origin).Result()
	switch {
	case err == nil:
		var prev entry
		if json.Unmarshal([]byte(raw), &prev) == nil && !prev.CreatedAt.IsZero() {
			e.CreatedAt = prev.CreatedAt
		}
	case !errors.Is(err, redis.Nil):
		return fmt.Errorf("get ban: %w", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal ban: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, origin, data).Err(); err != nil {
		return fmt.Errorf("set ban: %w", err)
	}
	return nil
}

func (s *RedisStore) IsBanned(ctx context.Context, origin string) (bool, error) {
	ok, err := s.client.HExists(ctx, s.key, origin).Result()
	if err != nil {
		return false, fmt.Errorf("check ban: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) ListBans(ctx context.Context) ([]*store.Ban, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}

	bans := make([]*store.Ban, 0, len(all))
	for origin, raw := range all {
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode ban %s: %w", origin, err)
		}
		bans = append(bans, &store.Ban{Origin: origin, Reason: e.Reason, CreatedAt: e.CreatedAt})
	}
	slices.SortFunc(bans, func(a, b *store.Ban) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return bans, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
