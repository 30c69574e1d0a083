package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/brlglobal/brladmin/internal/model"
)

func TestNewID_UniqueHex(t *testing.T) {
	a, err := NewID()
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	b, _ := NewID()

	if len(a) != idBytes*2 {
		t.Errorf("len(id) = %d, want %d", len(a), idBytes*2)
	}
	if a == b {
		t.Error("two generated ids should differ")
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("ShortID = %q, want %q", got, "01234567")
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID = %q, want %q", got, "abc")
	}
}

// storeFactory はテスト対象のStoreと、時計を進める関数を返す。
type storeFactory func(t *testing.T, ttl time.Duration) (Store, func(time.Duration))

func memoryFactory(t *testing.T, ttl time.Duration) (Store, func(time.Duration)) {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(ttl)
	s.now = func() time.Time { return now }
	return s, func(d time.Duration) { now = now.Add(d) }
}

func redisFactory(t *testing.T, ttl time.Duration) (Store, func(time.Duration)) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	now := time.Now()
	s := NewRedisStore(rdb, ttl)
	s.now = func() time.Time { return now }
	return s, func(d time.Duration) {
		now = now.Add(d)
		mr.FastForward(d)
	}
}

func postgresFactory(t *testing.T, ttl time.Duration) (Store, func(time.Duration)) {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewPostgresStore(newFakeSessionRepo(func() time.Time { return now }), ttl)
	s.now = func() time.Time { return now }
	return s, func(d time.Duration) { now = now.Add(d) }
}

var factories = map[string]storeFactory{
	"memory":   memoryFactory,
	"redis":    redisFactory,
	"postgres": postgresFactory,
}

func TestStore_CreateThenGet(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			s, _ := factory(t, time.Hour)
			ctx := context.Background()

			sess, err := s.Create(ctx, 42)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if sess.UserID != 42 {
				t.Errorf("UserID = %d, want 42", sess.UserID)
			}
			if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != time.Hour {
				t.Errorf("ExpiresAt - CreatedAt = %v, want 1h", got)
			}

			got, err := s.Get(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got == nil || got.UserID != 42 {
				t.Fatalf("Get = %+v, want session for user 42", got)
			}
		})
	}
}

func TestStore_GetUnknownReturnsNil(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			s, _ := factory(t, time.Hour)
			got, err := s.Get(context.Background(), "does-not-exist")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got != nil {
				t.Errorf("Get = %+v, want nil", got)
			}
		})
	}
}

func TestStore_ExpiredSessionIsAbsent(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			s, advance := factory(t, time.Minute)
			ctx := context.Background()

			sess, err := s.Create(ctx, 1)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			advance(2 * time.Minute)

			got, err := s.Get(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got != nil {
				t.Errorf("expired session returned: %+v", got)
			}
		})
	}
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			s, _ := factory(t, time.Hour)
			ctx := context.Background()

			sess, _ := s.Create(ctx, 7)
			if err := s.Delete(ctx, sess.ID); err != nil {
				t.Fatalf("first Delete: %v", err)
			}
			if err := s.Delete(ctx, sess.ID); err != nil {
				t.Fatalf("second Delete: %v", err)
			}
			if got, _ := s.Get(ctx, sess.ID); got != nil {
				t.Error("session should be gone after Delete")
			}
		})
	}
}

func TestStore_DeleteByUserID(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			s, _ := factory(t, time.Hour)
			ctx := context.Background()

			a, _ := s.Create(ctx, 1)
			b, _ := s.Create(ctx, 1)
			other, _ := s.Create(ctx, 2)

			if err := s.DeleteByUserID(ctx, 1); err != nil {
				t.Fatalf("DeleteByUserID: %v", err)
			}
			for _, id := range []string{a.ID, b.ID} {
				if got, _ := s.Get(ctx, id); got != nil {
					t.Errorf("session %s of user 1 should be deleted", ShortID(id))
				}
			}
			if got, _ := s.Get(ctx, other.ID); got == nil {
				t.Error("session of user 2 should survive")
			}
		})
	}
}

func TestMemoryStore_PurgeExpired(t *testing.T) {
	s, advance := memoryFactory(t, time.Minute)
	ctx := context.Background()

	s.Create(ctx, 1)
	s.Create(ctx, 2)
	advance(2 * time.Minute)
	s.Create(ctx, 3)

	n, err := s.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("purged = %d, want 2", n)
	}
	if l := s.(*MemoryStore).Len(); l != 1 {
		t.Errorf("Len = %d, want 1", l)
	}
}

func TestRedisStore_PurgeExpiredIsNoop(t *testing.T) {
	s, _ := redisFactory(t, time.Minute)
	n, err := s.PurgeExpired(context.Background())
	if err != nil || n != 0 {
		t.Errorf("PurgeExpired = %d, %v; want 0, nil", n, err)
	}
}

func TestRedisStore_KeyHasTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, 30*time.Minute)
	sess, err := s.Create(context.Background(), 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if ttl := mr.TTL(sessionKey(sess.ID)); ttl != 30*time.Minute {
		t.Errorf("TTL = %v, want 30m", ttl)
	}
	if !mr.Exists(userSessionsKey(5)) {
		t.Error("user session index should exist")
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	if _, err := NewRedisClient("not a url"); err == nil {
		t.Error("expected error for invalid redis url")
	}
}

func TestPostgresStore_PurgeExpiredDelegates(t *testing.T) {
	s, advance := postgresFactory(t, time.Minute)
	ctx := context.Background()

	s.Create(ctx, 1)
	advance(time.Hour)

	n, err := s.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
}

// fakeSessionRepo はrepository.SessionRepositoryのインメモリ実装。
type fakeSessionRepo struct {
	rows map[string]model.Session
	now  func() time.Time
}

func newFakeSessionRepo(now func() time.Time) *fakeSessionRepo {
	return &fakeSessionRepo{rows: make(map[string]model.Session), now: now}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	s, ok := f.rows[id]
	if !ok || s.Expired(f.now()) {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSessionRepo) DeleteByID(_ context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeSessionRepo) DeleteByUserID(_ context.Context, userID int64) error {
	for id, s := range f.rows {
		if s.UserID == userID {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	n := 0
	for id, s := range f.rows {
		if s.Expired(now) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}
