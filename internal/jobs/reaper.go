// Package jobs はバックグラウンドで定期実行する処理を管理します。
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper は期限切れセッションを削除できる実装が満たします。
type Sweeper interface {
	Sweep(now time.Time) int
	Now() time.Time
}

// Reaper は一定間隔で期限切れセッションを掃除します。
type Reaper struct {
	cron     *cron.Cron
	sweeper  Sweeper
	interval time.Duration
	logger   logrus.FieldLogger
}

// NewReaper は Reaper を初期化します。interval が0以下の場合は nil を返します（掃除は Resolve 時のみ）。
func NewReaper(sweeper Sweeper, interval time.Duration, logger logrus.FieldLogger) (*Reaper, error) {
	if sweeper == nil {
		return nil, errors.New("sweeper is nil")
	}
	if interval <= 0 {
		return nil, nil
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := &Reaper{
		cron:     cron.New(),
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
	schedule := fmt.Sprintf("@every %s", interval)
	if _, err := r.cron.AddFunc(schedule, func() { r.RunOnce() }); err != nil {
		return nil, fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	return r, nil
}

// Start はスケジューラーをバックグラウンドで起動します。
func (r *Reaper) Start() {
	r.cron.Start()
	r.logger.WithField("interval", r.interval.String()).Info("session reaper started")
}

// Stop はスケジューラーを止め、実行中の掃除が終わるか ctx が終わるまで待ちます。
func (r *Reaper) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce は掃除を1回実行し、削除件数を返します。
func (r *Reaper) RunOnce() int {
	removed := r.sweeper.Sweep(r.sweeper.Now())
	r.logger.WithField("removed", removed).Debug("expired sessions swept")
	return removed
}
