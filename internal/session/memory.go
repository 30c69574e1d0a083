package session

import (
	"context"
	"sync"
	"time"

	"github.com/brlglobal/brladmin/internal/model"
)

// MemoryStore はプロセス内のmapにセッションを保持する。
// プロセス再起動でセッションは失われる。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]model.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, userID int64) (*model.Session, error) {
	sess, err := newSession(userID, s.now(), s.ttl)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID] = *sess
	s.mu.Unlock()

	return sess, nil
}

// Get は失効済みのセッションを見つけた場合、その場で削除する。
func (s *MemoryStore) Get(_ context.Context, id string) (*model.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if sess.Expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, nil
	}
	return &sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteByUserID(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *MemoryStore) PurgeExpired(_ context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged, nil
}

// Len は保持中のセッション数を返す（失効済みを含む）。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

var _ Store = (*MemoryStore)(nil)
