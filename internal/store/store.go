package store

import (
	"context"
	"time"

	"github.com/nhle/ghnotify/internal/model"
)

// NotificationFilter controls filtering and pagination for archive queries.
type NotificationFilter struct {
	Reason     *string // exact reason, or nil (all)
	UnreadOnly bool
	Repository *string // full name, e.g. "owner/repo"
	Limit      int
	Offset     int
}

// Record is an archived notification with its local bookkeeping.
type Record struct {
	model.Notification
	InsertTime time.Time
	ReadTime   *time.Time
}

// BatchRecord describes one batch the engine received.
type BatchRecord struct {
	ID         string
	ReceivedAt time.Time
	Size       int
	Added      int
}

// Store is the notification archive. It keeps history and local read state;
// the live engine state is never restored from it.
type Store interface {
	SaveNotifications(ctx context.Context, ns []model.Notification) error
	MarkRead(ctx context.Context, id string) error
	GetNotifications(ctx context.Context, filter NotificationFilter) ([]Record, error)
	UnreadCount(ctx context.Context) (int, error)

	RecordBatch(ctx context.Context, b BatchRecord) (BatchRecord, error)
	RecentBatches(ctx context.Context, limit int) ([]BatchRecord, error)

	Close() error
}
