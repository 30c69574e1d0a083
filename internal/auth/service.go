// Package auth はユーザー登録、パスワード認証、セッション発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brlglobal/brladmin/internal/model"
	"github.com/brlglobal/brladmin/internal/repository"
	"github.com/brlglobal/brladmin/internal/session"
	"github.com/brlglobal/brladmin/internal/validation"
)

// EventRecorder は認証イベントの記録先。メトリクスコレクタが実装する。
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

// 記録するイベント名と結果。
const (
	EventRegister = "register"
	EventLogin    = "login"
	EventLogout   = "logout"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Config は認証サービスの設定。
type Config struct {
	BcryptCost int
	Recorder   EventRecorder
}

// RegisterInput はユーザー登録の入力。Roleが空の場合はcustomerになる。
// Callerは登録操作を行うログイン中のユーザーで、未ログインならnil。
type RegisterInput struct {
	Username string          `json:"username" validate:"required,max=100"`
	Password string          `json:"password" validate:"required,min=6,max=72"`
	Email    string          `json:"email" validate:"required,email,max=255"`
	Role     string          `json:"role"`
	Caller   *model.UserView `json:"-" validate:"-"`
}

// privilegedRoles は管理者だけが付与できるロール。
var privilegedRoles = map[string]bool{
	model.RoleAdmin:    true,
	model.RoleEmployee: true,
}

// canGrant はcallerがroleのアカウントを作成できるかを返す。
func canGrant(caller *model.UserView, role string) bool {
	if !privilegedRoles[role] {
		return true
	}
	return caller != nil && caller.Role == model.RoleAdmin
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users     repository.UserRepository
	roles     repository.RoleRepository
	sessions  session.Store
	validator *validation.Validator
	recorder  EventRecorder
	cost      int
	dummy     *dummyHasher
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	sessions session.Store,
	validator *validation.Validator,
	cfg Config,
) *Service {
	return &Service{
		users:     users,
		roles:     roles,
		sessions:  sessions,
		validator: validator,
		recorder:  cfg.Recorder,
		cost:      cfg.BcryptCost,
		dummy:     &dummyHasher{cost: cfg.BcryptCost},
		now:       time.Now,
	}
}

func (s *Service) record(event, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordAuthEvent(event, outcome)
	}
}

// Register はユーザーを作成する。
// 入力検証 → ユーザー名重複 → メール重複 → ロール解決 → 付与権限の順に判定する。
// admin と employee は管理者のCallerがいる場合に限り作成できる。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.UserView, error) {
	return s.register(ctx, in, false)
}

func (s *Service) register(ctx context.Context, in RegisterInput, trusted bool) (*model.UserView, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)

	if err := s.validator.Struct(&in); err != nil {
		s.record(EventRegister, OutcomeFailure)
		return nil, err
	}

	exists, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		s.record(EventRegister, OutcomeFailure)
		return nil, model.NewConflictError("Username already exists")
	}

	exists, err = s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		s.record(EventRegister, OutcomeFailure)
		return nil, model.NewConflictError("Email already exists")
	}

	roleName := in.Role
	if roleName == "" {
		roleName = model.RoleCustomer
	}
	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		return nil, fmt.Errorf("failed to find role: %w", err)
	}
	if role == nil {
		s.record(EventRegister, OutcomeFailure)
		return nil, model.NewUnknownRoleError(roleName)
	}
	if !trusted && !canGrant(in.Caller, role.Name) {
		s.record(EventRegister, OutcomeFailure)
		slog.WarnContext(ctx, "privileged registration rejected",
			slog.String("username", in.Username),
			slog.String("role", role.Name),
		)
		return nil, model.NewForbiddenError()
	}

	hash, err := HashPassword(in.Password, s.cost)
	if errors.Is(err, ErrPasswordTooLong) {
		s.record(EventRegister, OutcomeFailure)
		return nil, model.NewValidationError(model.FieldError{Field: "password", Reason: "must contain at most 72 bytes"})
	}
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: in.Username,
		Password: hash,
		Email:    in.Email,
		RoleID:   role.ID,
		RoleName: role.Name,
		Active:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// 重複チェック後に並行登録された場合
		var ce *repository.ConstraintError
		if errors.As(err, &ce) && errors.Is(err, repository.ErrDuplicate) {
			s.record(EventRegister, OutcomeFailure)
			if strings.Contains(ce.Constraint, "email") {
				return nil, model.NewConflictError("Email already exists")
			}
			return nil, model.NewConflictError("Username already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.record(EventRegister, OutcomeSuccess)
	slog.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("role", user.RoleName),
	)
	return user.View(), nil
}

// Login は資格情報を検証してセッションを発行する。
// ユーザー不在・無効化・パスワード不一致はすべて同じエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.Session, *model.UserView, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.dummy.compare(password)
		s.record(EventLogin, OutcomeFailure)
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if !CheckPassword(user.Password, password) || !user.Active {
		s.record(EventLogin, OutcomeFailure)
		return nil, nil, model.NewInvalidCredentialsError()
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		slog.WarnContext(ctx, "failed to update last login",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	} else {
		user.LastLogin = &now
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.record(EventLogin, OutcomeSuccess)
	slog.InfoContext(ctx, "user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("session", session.ShortID(sess.ID)),
	)
	return sess, user.View(), nil
}

// Logout はセッションを破棄する。空や存在しないIDはエラーにしない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.record(EventLogout, OutcomeSuccess)
	slog.InfoContext(ctx, "user logged out", slog.String("session", session.ShortID(sessionID)))
	return nil
}

// Resolve はセッションIDからユーザーを解決する。
// セッションが無効、ユーザーが存在しない、または無効化されている場合はnil, nilを返す。
func (s *Service) Resolve(ctx context.Context, sessionID string) (*model.UserView, error) {
	if sessionID == "" {
		return nil, nil
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !user.Active {
		// 削除・無効化されたユーザーのセッションはまとめて失効させる
		if err := s.sessions.DeleteByUserID(ctx, sess.UserID); err != nil {
			slog.WarnContext(ctx, "failed to revoke sessions",
				slog.Int64("user_id", sess.UserID),
				slog.String("error", err.Error()),
			)
		}
		return nil, nil
	}
	return user.View(), nil
}

// CurrentUser はセッションのユーザーを返す。解決できない場合はUNAUTHENTICATEDを返す。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.UserView, error) {
	user, err := s.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUnauthenticatedError()
	}
	return user, nil
}

// EnsureAdmin は管理者アカウントが存在しなければ作成する。作成した場合はtrueを返す。
// seedコマンド専用で、付与権限の判定は行わない。
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("failed to check admin user: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := s.register(ctx, RegisterInput{
		Username: username,
		Password: password,
		Email:    email,
		Role:     model.RoleAdmin,
	}, true); err != nil {
		return false, err
	}
	return true, nil
}
