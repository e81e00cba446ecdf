package jobs

import (
	"context"
	"fmt"
	"time"

	"autobazar/listing-editor/internal/logging"
)

// StaleDraftStore deletes drafts last updated before a cutoff.
type StaleDraftStore interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DraftCleanupJob removes abandoned drafts past the retention window.
type DraftCleanupJob struct {
	drafts    StaleDraftStore
	retention time.Duration
	now       func() time.Time
}

func NewDraftCleanupJob(drafts StaleDraftStore, retention time.Duration) *DraftCleanupJob {
	return &DraftCleanupJob{drafts: drafts, retention: retention, now: time.Now}
}

// Run deletes drafts older than the retention window once.
func (j *DraftCleanupJob) Run(ctx context.Context) (int64, error) {
	if j.retention <= 0 {
		return 0, nil
	}
	cutoff := j.now().Add(-j.retention)
	n, err := j.drafts.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("draft cleanup: %w", err)
	}
	if n > 0 {
		logging.Info("Stale drafts removed", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

func (j *DraftCleanupJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := j.Run(ctx); err != nil {
		logging.Error("Draft cleanup failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				logging.Error("Draft cleanup failed", "error", err)
			}
		case <-ctx.Done():
			logging.Info("Draft cleanup stopped")
			return
		}
	}
}
