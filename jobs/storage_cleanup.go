package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/joulek/Backend-mtr/internal/jobs"
)

// Sweeper deletes stale files below a directory.
type Sweeper interface {
	CleanupOlderThan(dir string, ttl time.Duration) ([]string, error)
}

// KeyPurger deletes expired idempotency keys.
type KeyPurger interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// StorageCleanupJob purges scratch directories and expired idempotency keys.
type StorageCleanupJob struct {
	Files        Sweeper
	Dirs         []string
	FileTTL      time.Duration
	Keys         KeyPurger
	KeyRetention time.Duration
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
}

// Handle runs one cleanup pass. A failing directory does not stop the others.
func (j *StorageCleanupJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := j.metrics().Track(TaskStorageCleanup)
	defer func() { err = tracker.End(err) }()

	logger := j.logger()
	removed := 0
	for _, dir := range j.Dirs {
		if j.Files == nil || j.FileTTL <= 0 {
			break
		}
		deleted, cerr := j.Files.CleanupOlderThan(dir, j.FileTTL)
		if cerr != nil {
			logger.Error("cleanup directory", slog.String("dir", dir), slog.Any("error", cerr))
			err = cerr
			continue
		}
		removed += len(deleted)
	}
	if j.Keys != nil && j.KeyRetention > 0 {
		if kerr := j.Keys.Cleanup(ctx, j.KeyRetention); kerr != nil {
			logger.Error("cleanup idempotency keys", slog.Any("error", kerr))
			err = kerr
		}
	}
	logger.Info("storage cleanup finished", slog.Int("files_removed", removed))
	return err
}

func (j *StorageCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStorageCleanup))
	}
	return slog.Default().With(slog.String("job", TaskStorageCleanup))
}

func (j *StorageCleanupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
