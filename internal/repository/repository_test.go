package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/database"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/session"
)

// newTestRepo connects to EVENTSYNC_TEST_DATABASE_URL or skips.
func newTestRepo(t *testing.T) *ClientStateRepository {
	t.Helper()
	dsn := os.Getenv("EVENTSYNC_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("EVENTSYNC_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewClientStateRepository(pool)
}

func TestClientStateRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	st := repo.ForSession(uuid.NewString())

	if err := st.Save(ctx, map[string]string{session.TokenKey: "tok", session.UserKey: `{"id":"u1"}`}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Save(ctx, map[string]string{session.TokenKey: "tok-2"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := st.Load(ctx, session.TokenKey, session.UserKey)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got[session.TokenKey] != "tok-2" || got[session.UserKey] != `{"id":"u1"}` {
		t.Fatalf("Load = %+v", got)
	}

	if err := st.Remove(ctx, session.TokenKey, session.UserKey); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got, _ := st.Load(ctx, session.TokenKey, session.UserKey); len(got) != 0 {
		t.Fatalf("entries survived Remove: %+v", got)
	}
}

func TestClientStateSessionsAreIsolated(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := repo.ForSession(uuid.NewString())
	b := repo.ForSession(uuid.NewString())

	_ = a.Save(ctx, map[string]string{session.TokenKey: "tok-a"})
	if got, _ := b.Load(ctx, session.TokenKey); len(got) != 0 {
		t.Fatalf("other session sees %+v", got)
	}
}

func TestClientStatePrune(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := uuid.NewString()
	_ = repo.Save(ctx, id, map[string]string{"k": "v"})

	if _, err := repo.Prune(ctx, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if got, _ := repo.Load(ctx, id, "k"); len(got) != 0 {
		t.Fatalf("stale session not pruned: %+v", got)
	}
}

func TestBlankSessionID(t *testing.T) {
	repo := &ClientStateRepository{}
	if _, err := repo.Load(context.Background(), "", "k"); err != ErrNoSession {
		t.Fatalf("Load err = %v", err)
	}
	if err := repo.Save(context.Background(), "", nil); err != ErrNoSession {
		t.Fatalf("Save err = %v", err)
	}
	if err := repo.Remove(context.Background(), "", "k"); err != ErrNoSession {
		t.Fatalf("Remove err = %v", err)
	}
}
