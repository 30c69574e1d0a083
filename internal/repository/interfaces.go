// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/brlglobal/brladmin/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーをロール名付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// ExistsByUsername はユーザー名が使用済みかを返す。
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail はメールアドレスが使用済みかを返す。
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create はユーザーを作成し、採番されたIDとタイムスタンプをuserに設定する。
	// ユニーク制約違反はErrDuplicateをラップして返す。
	Create(ctx context.Context, user *model.User) error

	// TouchLastLogin は最終ログイン日時を更新する。
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// RoleRepository はロールの参照インターフェース。ロールはマイグレーションで投入される。
type RoleRepository interface {
	// FindByName はロール名でロールを取得する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.Role, error)

	// List は全ロールをID順で返す。
	List(ctx context.Context) ([]*model.Role, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// EntityRepository は管理画面エンティティの汎用永続化インターフェース。
type EntityRepository[T any] interface {
	// List は全件をID昇順で返す。関連エンティティはプリロード済み。
	List(ctx context.Context) ([]T, error)
	// FindByID は指定IDの行を返す。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id uint) (*T, error)
	// Create は行を挿入する。関連エンティティは保存しない。
	Create(ctx context.Context, row *T) error
	// Save は行の全カラムを更新する。
	Save(ctx context.Context, row *T) error
	// Delete は指定IDの行を削除し、削除したかどうかを返す。
	Delete(ctx context.Context, id uint) (bool, error)
}
