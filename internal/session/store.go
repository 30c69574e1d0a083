// Package session はログインセッションの保存先を抽象化する。
// メモリ・Redis・PostgreSQLの3実装があり、設定で切り替える。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/brlglobal/brladmin/internal/model"
)

// idBytes はセッションIDの乱数バイト長。
const idBytes = 32

// Store はセッションの保存先。
// Getは存在しない・失効済みのセッションに対してnil, nilを返す。
// Deleteは冪等で、存在しないIDでもエラーにならない。
type Store interface {
	Create(ctx context.Context, userID int64) (*model.Session, error)
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID int64) error
	PurgeExpired(ctx context.Context) (int, error)
}

// NewID は推測不能なセッションIDを生成する。
func NewID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// newSession はnow起点でttl後に失効するセッションを生成する。
func newSession(userID int64, now time.Time, ttl time.Duration) (*model.Session, error) {
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	return &model.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// ShortID はログ出力用にセッションIDの先頭8文字を返す。
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
