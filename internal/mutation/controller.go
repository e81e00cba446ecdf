package mutation

import (
	"context"
	"errors"
	"fmt"

	"autobazar/listing-editor/internal/common"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/metrics"
	"autobazar/listing-editor/internal/models/dtos"
	"autobazar/listing-editor/internal/providers"
)

const (
	ResultCommitted  = "committed"
	ResultRolledBack = "rolled_back"
)

// Mutation describes one optimistic change. Patch edits the cached entries of
// Keys locally; Remote performs the server call.
type Mutation struct {
	Name   string
	Keys   []string
	Patch  func(q *common.QueryCache) error
	Remote func(ctx context.Context) error

	// ErrorMessage is shown when the remote call fails and the server sent no
	// message of its own.
	ErrorMessage string
}

// Controller applies cached-data patches before the server confirms them and
// puts the previous bytes back when it does not.
type Controller struct {
	cache    *common.QueryCache
	notifier common.Notifier
	metrics  *metrics.MetricsRegistry
}

func NewController(cache *common.QueryCache, notifier common.Notifier, m *metrics.MetricsRegistry) *Controller {
	return &Controller{cache: cache, notifier: notifier, metrics: m}
}

// Mutate runs m. Either every patched key ends up invalidated (committed) or
// every key holds exactly the bytes it held before the call (rolled back).
func (c *Controller) Mutate(ctx context.Context, m Mutation) error {
	if m.Remote == nil {
		return errors.New("mutation has no remote call")
	}

	c.cache.Cancel(m.Keys...)
	snap := c.cache.Snapshot(m.Keys...)

	if m.Patch != nil {
		if err := m.Patch(c.cache); err != nil {
			c.cache.Restore(snap)
			c.metrics.Mutation(m.Name, ResultRolledBack)
			return fmt.Errorf("%s: local patch failed: %w", m.Name, err)
		}
	}

	if err := m.Remote(ctx); err != nil {
		c.cache.Restore(snap)
		c.metrics.Mutation(m.Name, ResultRolledBack)
		logging.Warn("Optimistic mutation rolled back", "mutation", m.Name, "keys", m.Keys, "error", err)

		fallback := m.ErrorMessage
		if fallback == "" {
			fallback = "The change could not be saved"
		}
		if c.notifier != nil {
			c.notifier.Notify(dtos.Notification{
				Level:   common.LevelError,
				Message: providers.UserMessage(err, fallback),
			})
		}
		return fmt.Errorf("%s: %w", m.Name, err)
	}

	c.cache.Invalidate(m.Keys...)
	c.metrics.Mutation(m.Name, ResultCommitted)
	logging.Debug("Optimistic mutation committed", "mutation", m.Name)
	return nil
}
