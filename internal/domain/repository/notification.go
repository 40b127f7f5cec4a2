package repository

import (
	"context"

	"github.com/lunchpad/orderengine/internal/domain/model"
)

// NotificationRepository stores per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, userID int64, message string) (*model.Notification, error)
	GetByID(ctx context.Context, id int64) (*model.Notification, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}
