package task

import (
	"context"
	"log/slog"
	"time"
)

// Names of the built-in maintenance tasks.
const (
	ReapStaleJobsName     = "reap_stale_jobs"
	RequeueFailedJobsName = "requeue_failed_jobs"
)

// Reaper fails jobs whose lease expired.
type Reaper interface {
	ReapStale(ctx context.Context, lease time.Duration) (int, error)
}

// Requeuer puts failed jobs back in the queue.
type Requeuer interface {
	RequeueFailed(ctx context.Context, maxAttempts int) (int, error)
}

// ReapStaleJobs marks assigned or running jobs failed once their lease expires.
type ReapStaleJobs struct {
	Jobs   Reaper
	Logger *slog.Logger
	Cron   string
	Lease  time.Duration
}

func (ReapStaleJobs) Name() string { return ReapStaleJobsName }

func (t ReapStaleJobs) Schedule() string {
	if t.Cron == "" {
		return "* * * * *"
	}
	return t.Cron
}

func (t ReapStaleJobs) Handle(ctx context.Context) error {
	n, err := t.Jobs.ReapStale(ctx, t.Lease)
	if err != nil {
		return err
	}
	if n > 0 && t.Logger != nil {
		t.Logger.InfoContext(ctx, "reaped stale jobs", slog.Int("count", n), slog.Duration("lease", t.Lease))
	}
	return nil
}

// RequeueFailedJobs requeues failed jobs that have attempts left.
type RequeueFailedJobs struct {
	Jobs        Requeuer
	Logger      *slog.Logger
	Cron        string
	MaxAttempts int
}

func (RequeueFailedJobs) Name() string { return RequeueFailedJobsName }

func (t RequeueFailedJobs) Schedule() string {
	if t.Cron == "" {
		return "*/5 * * * *"
	}
	return t.Cron
}

func (t RequeueFailedJobs) Handle(ctx context.Context) error {
	n, err := t.Jobs.RequeueFailed(ctx, t.MaxAttempts)
	if err != nil {
		return err
	}
	if n > 0 && t.Logger != nil {
		t.Logger.InfoContext(ctx, "requeued failed jobs", slog.Int("count", n), slog.Int("max_attempts", t.MaxAttempts))
	}
	return nil
}
