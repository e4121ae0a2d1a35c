package gormstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spewpay/walletdash/internal/session"
	"github.com/spewpay/walletdash/internal/store/gormstore"
)

func newTestStore(t *testing.T) *gormstore.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("sqlite open failed: %v", err)
	}
	if err := gormstore.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return gormstore.New(db)
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	record := session.Record{
		SessionID:  "sess-1",
		Token:      "bearer-token",
		UserID:     "user-1",
		UserEmail:  "user@example.com",
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := store.SaveSession(ctx, record); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded.Token != record.Token || loaded.UserID != record.UserID || loaded.UserEmail != record.UserEmail {
		t.Fatalf("unexpected record: %+v", loaded)
	}
}

func TestSessionUpsertLastWriterWins(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	record := session.Record{SessionID: "sess-1", Token: "first", UserID: "user-1", CreatedAt: now, LastSeenAt: now}
	if err := store.SaveSession(ctx, record); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	record.Token = "second"
	record.LastSeenAt = now.Add(time.Minute)
	if err := store.SaveSession(ctx, record); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	loaded, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded.Token != "second" {
		t.Fatalf("expected last write to win, got token %q", loaded.Token)
	}
}

func TestSessionDeletion(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	for _, sessionID := range []string{"sess-1", "sess-2"} {
		record := session.Record{SessionID: sessionID, Token: "t", UserID: "user-1", CreatedAt: now, LastSeenAt: now}
		if err := store.SaveSession(ctx, record); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := store.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.GetSession(ctx, "sess-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteSessionsForUser(ctx, "user-1"); err != nil {
		t.Fatalf("delete for user failed: %v", err)
	}
	if _, err := store.GetSession(ctx, "sess-2"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after user-wide delete, got %v", err)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	if _, err := store.GetPreferences(ctx, "user-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unset preferences, got %v", err)
	}
	preferences := session.Preferences{ShowBalance: false, Theme: "dark"}
	if err := store.SavePreferences(ctx, "user-1", preferences); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := store.GetPreferences(ctx, "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded != preferences {
		t.Fatalf("expected %+v, got %+v", preferences, loaded)
	}
	preferences.Theme = "light"
	if err := store.SavePreferences(ctx, "user-1", preferences); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	loaded, err = store.GetPreferences(ctx, "user-1")
	if err != nil {
		t.Fatalf("get after overwrite failed: %v", err)
	}
	if loaded.Theme != "light" {
		t.Fatalf("expected last write to win, got theme %q", loaded.Theme)
	}
}

func TestIdempotencyKeyReusedForIdenticalPayload(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()
	first, err := store.IdempotencyKeyFor(ctx, "deposit", "fp-1", uuid.NewString)
	if err != nil {
		t.Fatalf("first key failed: %v", err)
	}
	second, err := store.IdempotencyKeyFor(ctx, "deposit", "fp-1", uuid.NewString)
	if err != nil {
		t.Fatalf("second key failed: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("identical payload must reuse the key: %q vs %q", first.String(), second.String())
	}
	other, err := store.IdempotencyKeyFor(ctx, "deposit", "fp-2", uuid.NewString)
	if err != nil {
		t.Fatalf("other key failed: %v", err)
	}
	if other.String() == first.String() {
		t.Fatalf("distinct payloads must not share a key")
	}
	otherScope, err := store.IdempotencyKeyFor(ctx, "withdraw", "fp-1", uuid.NewString)
	if err != nil {
		t.Fatalf("scoped key failed: %v", err)
	}
	if otherScope.String() == first.String() {
		t.Fatalf("scopes must not share keys")
	}
}
