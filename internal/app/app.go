// Package app はコマンドの解析、依存関係のワイヤリング、サーバーの起動と停止を行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/brlglobal/brladmin/internal/auth"
	"github.com/brlglobal/brladmin/internal/authz"
	"github.com/brlglobal/brladmin/internal/config"
	"github.com/brlglobal/brladmin/internal/crud"
	"github.com/brlglobal/brladmin/internal/database"
	"github.com/brlglobal/brladmin/internal/handler"
	"github.com/brlglobal/brladmin/internal/logger"
	"github.com/brlglobal/brladmin/internal/metrics"
	"github.com/brlglobal/brladmin/internal/middleware"
	"github.com/brlglobal/brladmin/internal/repository"
	"github.com/brlglobal/brladmin/internal/session"
	"github.com/brlglobal/brladmin/internal/validation"
	"github.com/brlglobal/brladmin/internal/worker/cleanup"
)

const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
// 返却されるio.Closerはログファイルのクローズに使う。
func Init(w io.Writer) (*config.Config, io.Closer, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定に従ってログを再設定する
	closer := logger.SetupWithOptions(w, logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	return cfg, closer, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, logCloser, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer logCloser.Close()

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("session_store", cfg.SessionStore),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(ctx, cfg)
	case CommandCleanup:
		return runCleanup(ctx, cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	gdb, err := database.OpenGorm(db, slog.Default())
	if err != nil {
		return err
	}

	// 2. セッションストア
	store, closeStore, err := newSessionStore(cfg, db)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)
	if mem, ok := store.(*session.MemoryStore); ok {
		metrics.RegisterMemorySessionsGauge(reg, mem.Len)
	}

	// 4. ドメインサービス
	validator := validation.New()
	authService := newAuthService(cfg, db, store, validator, collector)

	// 5. ルーター
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(
		cfg.RateLimitGeneral, cfg.RateLimitLogin, cfg.LoginBurst,
	))
	defer rateLimiter.Stop()
	metrics.RegisterRateLimiterGauges(reg, rateLimiter.GeneralLimiterCount, rateLimiter.LoginLimiterCount)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		SessionResolver:   authService,
		Cookies:           newCookies(cfg),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		HTTPSOnly:         cfg.CookieSecure,
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		TrustProxy:    cfg.TrustProxy,
		RateLimiter:   rateLimiter,
		Policy:        authz.DefaultPolicy(),
		Metrics:       collector,
		Gatherer:      reg,
		HealthChecker: db,
		AuthService:   authService,
		Endpoints:     crud.Catalog(gdb, validator, validation.NewSanitizer()),
	})

	// 6. 期限切れセッションの定期削除
	purgeJob := cleanup.NewSessionPurgeJob(store, collector, slog.Default())
	scheduler, err := cleanup.NewScheduler(ctx, purgeJob, cfg.SessionCleanupSchedule, slog.Default())
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return serveUntilDone(ctx, server)
}

// serveUntilDone はctxがキャンセルされるまでserverを動かし、その後グレースフルシャットダウンする。
func serveUntilDone(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runSeed は管理者アカウントが存在しなければ作成する。
func runSeed(ctx context.Context, cfg *config.Config) error {
	if cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD is required for seed")
	}

	db, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	// seedではセッションを発行しないため、メモリストアで足りる
	authService := newAuthService(cfg, db, session.NewMemoryStore(cfg.SessionTTL()), validation.New(), nil)

	created, err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("seed completed",
		slog.String("username", cfg.AdminUsername),
		slog.Bool("created", created),
	)
	return nil
}

// runCleanup は期限切れセッションを1回だけ削除する。
func runCleanup(ctx context.Context, cfg *config.Config) error {
	if cfg.SessionStore == config.SessionStoreMemory {
		slog.Warn("cleanup has no effect on the in-memory session store")
		return nil
	}

	var db *sql.DB
	if cfg.SessionStore == config.SessionStorePostgres {
		var err error
		db, err = openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	store, closeStore, err := newSessionStore(cfg, db)
	if err != nil {
		return err
	}
	defer closeStore()

	if _, err := cleanup.NewSessionPurgeJob(store, nil, slog.Default()).Run(ctx); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")
	return db, nil
}

// newSessionStore は設定に応じたセッションストアと、その後始末の関数を返す。
func newSessionStore(cfg *config.Config, db *sql.DB) (session.Store, func(), error) {
	ttl := cfg.SessionTTL()

	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rdb, err := session.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(rdb, ttl), func() { rdb.Close() }, nil
	case config.SessionStorePostgres:
		if db == nil {
			return nil, nil, errors.New("postgres session store requires a database connection")
		}
		return session.NewPostgresStore(repository.NewPostgresSessionRepo(db), ttl), func() {}, nil
	default:
		return session.NewMemoryStore(ttl), func() {}, nil
	}
}

func newAuthService(
	cfg *config.Config,
	db *sql.DB,
	store session.Store,
	validator *validation.Validator,
	recorder auth.EventRecorder,
) *auth.Service {
	return auth.NewService(
		repository.NewPostgresUserRepo(db),
		repository.NewPostgresRoleRepo(db),
		store,
		validator,
		auth.Config{BcryptCost: cfg.BcryptCost, Recorder: recorder},
	)
}

func newCookies(cfg *config.Config) *session.Cookies {
	return session.NewCookies(session.CookieConfig{
		Secret: []byte(cfg.SessionSecret),
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
		MaxAge: cfg.SessionMaxAge,
	})
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
