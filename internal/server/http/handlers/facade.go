package handlers

import (
	"context"

	"github.com/lunchpad/orderengine/internal/domain/model"
)

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	PlaceOrder(ctx context.Context, req model.PlaceOrderRequest, userID int64) (*model.Order, error)
	Order(ctx context.Context, orderID, userID int64) (*model.Order, error)
	Orders(ctx context.Context, userID int64) ([]model.Order, error)
	CancelOrder(ctx context.Context, orderID, userID int64) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, userID int64) error
}

// NotificationFacade provides notification operations.
type NotificationFacade interface {
	Notifications(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID int64) error
}

// ShipmentFacade exposes the deliveries created for a user's orders.
type ShipmentFacade interface {
	Shipments(ctx context.Context, userID int64) ([]model.ShippingOrder, error)
}

// CommerceFacade aggregates the full set of operations used across handlers.
type CommerceFacade interface {
	OrderFacade
	NotificationFacade
	ShipmentFacade
	ParseToken(token string) (int64, error)
}
