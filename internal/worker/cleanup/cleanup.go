// Package cleanup は期限切れセッションの削除ジョブを提供する。
// serveコマンドではcron式に従って定期実行し、cleanupコマンドでは1回だけ実行する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger は期限切れセッションを削除する。session.Storeが実装する。
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// PurgeRecorder は削除件数の記録先。メトリクスコレクタが実装する。
type PurgeRecorder interface {
	RecordSessionsPurged(count int)
}

// SessionPurgeJob は期限切れセッションの削除ジョブ。
// 冪等で、削除対象がない場合もエラーにならない。
type SessionPurgeJob struct {
	store    Purger
	recorder PurgeRecorder
	logger   *slog.Logger
	Timeout  time.Duration // 1回の実行のタイムアウト（デフォルト: 1分）
}

// NewSessionPurgeJob は新しいSessionPurgeJobを生成する。recorderはnilでもよい。
func NewSessionPurgeJob(store Purger, recorder PurgeRecorder, logger *slog.Logger) *SessionPurgeJob {
	return &SessionPurgeJob{
		store:    store,
		recorder: recorder,
		logger:   logger,
		Timeout:  time.Minute,
	}
}

// Run は期限切れセッションを削除し、削除件数を返す。
func (j *SessionPurgeJob) Run(ctx context.Context) (int, error) {
	start := time.Now()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	purged, err := j.store.PurgeExpired(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "session purge failed", slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	if j.recorder != nil {
		j.recorder.RecordSessionsPurged(purged)
	}
	j.logger.InfoContext(ctx, "session purge completed",
		slog.Int("purged_count", purged),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return purged, nil
}

// Scheduler はSessionPurgeJobをcron式に従って実行する。
// 前回の実行が終わっていない場合、その回はスキップする。
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	cancel context.CancelFunc
}

// NewScheduler はscheduleでjobを実行するSchedulerを生成する。
// scheduleは5フィールドのcron式または "@every 1h" のような記述子。
func NewScheduler(ctx context.Context, job *SessionPurgeJob, schedule string, logger *slog.Logger) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	ctx, cancel := context.WithCancel(ctx)
	if _, err := c.AddFunc(schedule, func() {
		// エラーはRun内でログ出力済み
		_, _ = job.Run(ctx)
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	return &Scheduler{cron: c, logger: logger, cancel: cancel}, nil
}

// Start はバックグラウンドでスケジュール実行を開始する。
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("session cleanup scheduler started", slog.Time("next_run", s.Next()))
}

// Stop はスケジュールを停止し、実行中のジョブの完了を待つ。
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("session cleanup scheduler stopped")
}

// Next は次回の実行予定時刻を返す。
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
