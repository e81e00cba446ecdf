package workers

import (
	"context"

	"autobazar/listing-editor/internal/config"
)

type WorkersContainer struct {
	CacheFiller *MetaCacheWorker
	Autosave    *AutosaveWorker
}

// InitWorkers starts the background workers; they stop when ctx is done.
func InitWorkers(ctx context.Context, cfg *config.Config, catalog ReferenceWarmer, drafts DraftSaver) *WorkersContainer {
	wc := &WorkersContainer{
		Autosave: NewAutosaveWorker(drafts, cfg.Drafts.AutosaveInterval),
	}
	go wc.Autosave.Start(ctx)

	if cfg.Warmup.Enabled {
		wc.CacheFiller = NewMetaCacheWorker(catalog, cfg.Warmup.Interval)
		go wc.CacheFiller.Start(ctx)
	}
	return wc
}
