package jobs

import (
	"context"
	"time"

	"autobazar/listing-editor/internal/config"
)

// InitializeJobs initializes and starts all background jobs
func InitializeJobs(ctx context.Context, cfg config.DraftsConfig, drafts StaleDraftStore) *DraftCleanupJob {
	cleanup := NewDraftCleanupJob(drafts, cfg.Retention)

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	go cleanup.RunScheduled(ctx, interval)

	return cleanup
}
