package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong はbcryptの上限（72バイト）を超えるパスワード。
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword はパスワードのbcryptハッシュを返す。
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword はハッシュとパスワードが一致するかを返す。
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHasher は存在しないユーザーのログイン時に比較に使うハッシュを保持する。
type dummyHasher struct {
	once sync.Once
	hash string
	cost int
}

func (d *dummyHasher) compare(password string) {
	d.once.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("brladmin-dummy-password"), d.cost)
		if err == nil {
			d.hash = string(h)
		}
	})
	if d.hash != "" {
		_ = CheckPassword(d.hash, password)
	}
}
