package workers

import (
	"context"
	"time"

	"autobazar/listing-editor/internal/logging"
)

// DraftSaver saves every mounted editor.
type DraftSaver interface {
	AutosaveAll(ctx context.Context) (int, error)
}

// AutosaveWorker periodically writes open drafts to the draft store.
type AutosaveWorker struct {
	saver    DraftSaver
	interval time.Duration
}

func NewAutosaveWorker(saver DraftSaver, interval time.Duration) *AutosaveWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &AutosaveWorker{saver: saver, interval: interval}
}

func (w *AutosaveWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final save on shutdown.
			w.tick(context.Background())
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *AutosaveWorker) tick(ctx context.Context) {
	saved, err := w.saver.AutosaveAll(ctx)
	if err != nil {
		logging.Warn("Autosave incomplete", "saved", saved, "error", err)
		return
	}
	if saved > 0 {
		logging.Debug("Drafts autosaved", "count", saved)
	}
}
