package workers

import (
	"context"
	"time"

	"autobazar/listing-editor/internal/logging"
)

// ReferenceWarmer is anything that can reload the scope-free reference lists.
type ReferenceWarmer interface {
	Warm(ctx context.Context) error
	RefreshReferences(ctx context.Context) error
}

// MetaCacheWorker keeps brands, colors and cities hot in the query cache.
type MetaCacheWorker struct {
	catalog  ReferenceWarmer
	interval time.Duration
}

func NewMetaCacheWorker(catalog ReferenceWarmer, interval time.Duration) *MetaCacheWorker {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &MetaCacheWorker{catalog: catalog, interval: interval}
}

// Start warms immediately, then refreshes on every tick until ctx ends.
func (w *MetaCacheWorker) Start(ctx context.Context) {
	logging.Info("Reference warm-up started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if err := w.catalog.Warm(ctx); err != nil {
		logging.Warn("Initial reference warm-up failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info("Reference warm-up stopped")
			return
		case <-ticker.C:
			if err := w.catalog.RefreshReferences(ctx); err != nil {
				logging.Warn("Reference refresh failed", "error", err)
			}
		}
	}
}
