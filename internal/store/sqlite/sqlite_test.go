package sqlite

import (
	"context"
	"database/sql"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	banned, err := s.IsBanned(ctx, "10.0.0.2")
	if err != nil {
		t.Fatalf("IsBanned failed: %v", err)
	}
	if banned {
		t.Fatalf("expected empty registry")
	}

	for _, origin := range []string{"10.0.0.2", "10.0.0.3"} {
		if err := s.AddBan(ctx, origin, "banned in room 1"); err != nil {
			t.Fatalf("AddBan(%s) failed: %v", origin, err)
		}
	}

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "10.0.0.2", want: true},
		{origin: "10.0.0.3", want: true},
		{origin: "10.0.0.4", want: false},
		{origin: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			got, err := s.IsBanned(ctx, tt.origin)
			if err != nil {
				t.Fatalf("IsBanned failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsBanned(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestAddBanTwiceKeepsOneRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddBan(ctx, "10.0.0.2", "first"); err != nil {
		t.Fatalf("AddBan failed: %v", err)
	}
	if err := s.AddBan(ctx, "10.0.0.2", "second"); err != nil {
		t.Fatalf("AddBan failed: %v", err)
	}

	bans, err := s.ListBans(ctx)
	if err != nil {
		t.Fatalf("ListBans failed: %v", err)
	}
	if len(bans) != 1 {
		t.Fatalf("expected 1 ban, got %d", len(bans))
	}
	if bans[0].Reason != "second" {
		t.Errorf("expected refreshed reason, got %q", bans[0].Reason)
	}
	if bans[0].CreatedAt.IsZero() {
		t.Errorf("expected created_at to be set")
	}
}

func TestNewWithSetupSeedsData(t *testing.T) {
	s, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		if _, err := db.Exec(Schema); err != nil {
			return err
		}
		_, err := db.Exec(`INSERT INTO bans (origin, reason) VALUES ('192.168.1.5', 'seed')`)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	bans, err := s.ListBans(context.Background())
	if err != nil {
		t.Fatalf("ListBans failed: %v", err)
	}
	if len(bans) != 1 || bans[0].Origin != "192.168.1.5" {
		t.Fatalf("unexpected bans: %+v", bans)
	}
}
