package common

import (
	"sync"

	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/models/dtos"
)

const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notifier receives user-visible transient messages (toasts).
type Notifier interface {
	Notify(n dtos.Notification)
}

// NotificationQueue buffers notifications until the UI shell drains them.
type NotificationQueue struct {
	mu    sync.Mutex
	items []dtos.Notification
	limit int
}

var _ Notifier = (*NotificationQueue)(nil)

// NewNotificationQueue keeps at most limit undelivered notifications,
// dropping the oldest first.
func NewNotificationQueue(limit int) *NotificationQueue {
	if limit <= 0 {
		limit = 100
	}
	return &NotificationQueue{limit: limit}
}

func (q *NotificationQueue) Notify(n dtos.Notification) {
	logging.Info("Notification", "level", n.Level, "message", n.Message, "detail", n.Detail)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
	if over := len(q.items) - q.limit; over > 0 {
		q.items = q.items[over:]
	}
}

// Drain returns and clears the pending notifications.
func (q *NotificationQueue) Drain() []dtos.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	if out == nil {
		out = []dtos.Notification{}
	}
	return out
}

// Pending reports the number of undelivered notifications.
func (q *NotificationQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
