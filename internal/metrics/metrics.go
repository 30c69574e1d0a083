// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、認証サービス、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordAuthEvent(event, outcome string)
	RecordEntityWrite(resource, operation string)
	RecordSessionsPurged(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	authEvents     *prometheus.CounterVec
	entityWrites   *prometheus.CounterVec
	sessionsPurged prometheus.Counter
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brladmin_http_requests_total",
			Help: "HTTPリクエスト数（メソッド・ルート・ステータス別）",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brladmin_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brladmin_auth_events_total",
			Help: "認証イベント数（register/login/logout、結果別）",
		}, []string{"event", "outcome"}),
		entityWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brladmin_entity_writes_total",
			Help: "管理画面エンティティの書き込み数",
		}, []string{"resource", "operation"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brladmin_sessions_purged_total",
			Help: "削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.authEvents,
		c.entityWrites,
		c.sessionsPurged,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
// routeはパスパラメータを含まないルートパターンを渡す。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthEvent は認証イベントを記録する。
func (c *Collector) RecordAuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

// RecordEntityWrite はエンティティの作成・更新・削除を記録する。
func (c *Collector) RecordEntityWrite(resource, operation string) {
	c.entityWrites.WithLabelValues(resource, operation).Inc()
}

// RecordSessionsPurged は削除したセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int) {
	c.sessionsPurged.Add(float64(count))
}

// RegisterRateLimiterGauges はレートリミッターが保持するバケット数をスクレイプ時に読み出すゲージを登録する。
func RegisterRateLimiterGauges(reg prometheus.Registerer, general, login func() int) {
	gauge := func(name, help string, fn func() int) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return float64(fn())
		})
	}
	reg.MustRegister(
		gauge("brladmin_rate_limiter_general_buckets", "管理API用のユーザー別バケット数", general),
		gauge("brladmin_rate_limiter_login_buckets", "ログイン用のIP別バケット数", login),
	)
}

// RegisterMemorySessionsGauge はプロセス内セッションストアの保持件数を公開する。
func RegisterMemorySessionsGauge(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "brladmin_memory_sessions",
		Help: "メモリセッションストアが保持するセッション数（失効済みを含む）",
	}, func() float64 {
		return float64(count())
	}))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
