package usecase

import (
	"context"
	"log/slog"

	domainErrors "github.com/lunchpad/orderengine/internal/domain/errors"
	"github.com/lunchpad/orderengine/internal/domain/model"
	"github.com/lunchpad/orderengine/internal/domain/repository"
)

// NotificationRouter delivers a notification to a user's live channel.
// Delivery is best-effort; a user with no active listener is not an error.
type NotificationRouter interface {
	RouteTo(ctx context.Context, userID int64, n model.Notification) (bool, error)
}

// NotificationUseCase persists notifications and routes them to users.
type NotificationUseCase struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	router        NotificationRouter
	logger        *slog.Logger
}

// NewNotificationUseCase constructs NotificationUseCase.
func NewNotificationUseCase(n repository.NotificationRepository, users repository.UserRepository, router NotificationRouter, logger *slog.Logger) *NotificationUseCase {
	return &NotificationUseCase{notifications: n, users: users, router: router, logger: logger}
}

// Notify stores a notification for the user and pushes it through the
// router. Routing failures are logged and swallowed: the stored row is the
// source of truth, live delivery is fire-and-forget.
func (u *NotificationUseCase) Notify(ctx context.Context, userID int64, message string) (*model.Notification, error) {
	if _, err := u.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	notification, err := u.notifications.Create(ctx, userID, message)
	if err != nil {
		return nil, err
	}

	delivered, err := u.router.RouteTo(ctx, userID, *notification)
	if err != nil {
		u.logger.Warn("notification delivery failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	} else if !delivered {
		u.logger.Debug("no active listener for notification", slog.Int64("user_id", userID))
	}

	return notification, nil
}

// ListByUser returns notifications sorted by creation time.
func (u *NotificationUseCase) ListByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	return u.notifications.ListByUser(ctx, userID)
}

// MarkRead marks a notification read on behalf of its owner.
func (u *NotificationUseCase) MarkRead(ctx context.Context, notificationID, userID int64) error {
	notification, err := u.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if notification.UserID != userID {
		return domainErrors.ErrNotOwner
	}
	return u.notifications.MarkRead(ctx, notificationID)
}
