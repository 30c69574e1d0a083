package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brlglobal/brladmin/internal/authz"
	"github.com/brlglobal/brladmin/internal/crud"
	"github.com/brlglobal/brladmin/internal/metrics"
	"github.com/brlglobal/brladmin/internal/middleware"
	"github.com/brlglobal/brladmin/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionResolver   middleware.SessionResolver
	Cookies           SessionCookies
	CORSAllowedOrigin string
	HTTPSOnly         bool
	TrustProxy        bool
	CSRF              middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Policy            *authz.Policy

	// メトリクス
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer

	// ヘルスチェック
	HealthChecker HealthChecker

	// 認証
	AuthService AuthServiceInterface

	// 管理対象エンティティ
	Endpoints []crud.Endpoint
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	[RealIP] → RequestID → Recovery → Logging → Metrics → SecurityHeaders → CORS → LoadSession
//
// RealIPはTrustProxyが有効な場合のみ組み込む。
// /api/admin 配下はさらに RequireAuthenticated → RequireRole(admin) → RequireAction
// → RateLimit(General) → CSRF を通る。RateLimiterがnilの場合はレート制限を省く。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := deps.Policy
	if policy == nil {
		policy = authz.DefaultPolicy()
	}

	r := chi.NewRouter()

	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HTTPSOnly))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoadSessionMiddleware(deps.SessionResolver, deps.Cookies))

	// --- 認証不要のルート ---

	if deps.HealthChecker != nil {
		r.Method(http.MethodGet, "/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

	authHandler := NewAuthHandler(deps.AuthService, deps.Cookies)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
		} else {
			r.Post("/login", authHandler.Login)
		}
		r.Post("/logout", authHandler.Logout)
		r.With(
			middleware.RequireAuthenticated,
			middleware.RequireAction(policy, selfReadAction),
		).Get("/me", authHandler.Me)
	})

	// --- 管理者のみのルート ---
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated)
		r.Use(middleware.RequireRole(model.RoleAdmin))
		r.Use(middleware.RequireAction(policy, middleware.AdminAction))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

		for _, ep := range deps.Endpoints {
			r.Mount("/"+ep.Name(), NewResourceHandler(ep, deps.Metrics).Routes())
		}
	})

	return r
}

func selfReadAction(*http.Request) authz.Action {
	return authz.ActionSelfRead
}
