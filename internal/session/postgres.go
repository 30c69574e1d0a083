package session

import (
	"context"
	"time"

	"github.com/brlglobal/brladmin/internal/model"
	"github.com/brlglobal/brladmin/internal/repository"
)

// PostgresStore はsessionsテーブルにセッションを保持する。
type PostgresStore struct {
	repo repository.SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(repo repository.SessionRepository, ttl time.Duration) *PostgresStore {
	return &PostgresStore{repo: repo, ttl: ttl, now: time.Now}
}

func (s *PostgresStore) Create(ctx context.Context, userID int64) (*model.Session, error) {
	sess, err := newSession(userID, s.now().UTC(), s.ttl)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.repo.FindByID(ctx, id)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, nil
	}
	return sess, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteByID(ctx, id)
}

func (s *PostgresStore) DeleteByUserID(ctx context.Context, userID int64) error {
	return s.repo.DeleteByUserID(ctx, userID)
}

func (s *PostgresStore) PurgeExpired(ctx context.Context) (int, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

var _ Store = (*PostgresStore)(nil)
