package model

import "time"

// ロール名。rolesテーブルの初期データと一致する。
const (
	RoleAdmin              = "admin"
	RoleEmployee           = "employee"
	RoleCustomer           = "customer"
	RoleCustomsBroker      = "customs_broker"
	RoleInternationalAgent = "international_agent"
	RoleTrucker            = "trucker"
)

// Role は権限クラスを表す。
type Role struct {
	ID          int64
	Name        string
	Description string
}

// User はログイン可能なアカウントを表す。
// Passwordはbcryptハッシュで、外部に返してはならない。
type User struct {
	ID        int64
	Username  string
	Password  string
	Email     string
	RoleID    int64
	RoleName  string
	Active    bool
	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserView はパスワードを除いたユーザー情報。APIレスポンスとコンテキストで使用する。
type UserView struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// View はパスワードを含まないUserViewを返す。
func (u *User) View() *UserView {
	return &UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.RoleName,
		Active:    u.Active,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired はnow時点でセッションが失効しているかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
