package app

import (
	"context"

	"github.com/lunchpad/orderengine/internal/domain/model"
	"github.com/lunchpad/orderengine/internal/domain/repository"
	"github.com/lunchpad/orderengine/internal/pkg/auth"
	"github.com/lunchpad/orderengine/internal/usecase"
)

// CommerceFacade aggregates the application use cases behind one surface.
type CommerceFacade struct {
	orders        *usecase.OrderUseCase
	notifications *usecase.NotificationUseCase
	shippings     repository.ShippingRepository
	tokens        auth.Strategy
}

// NewCommerceFacade constructs CommerceFacade.
func NewCommerceFacade(orders *usecase.OrderUseCase, notifications *usecase.NotificationUseCase, shippings repository.ShippingRepository, tokens auth.Strategy) *CommerceFacade {
	return &CommerceFacade{orders: orders, notifications: notifications, shippings: shippings, tokens: tokens}
}

// ParseToken verifies a bearer token and returns the user it identifies.
func (f *CommerceFacade) ParseToken(token string) (int64, error) {
	return f.tokens.ParseToken(token)
}

func (f *CommerceFacade) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest, userID int64) (*model.Order, error) {
	return f.orders.Place(ctx, req, userID)
}

func (f *CommerceFacade) Order(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	return f.orders.Get(ctx, orderID, userID)
}

func (f *CommerceFacade) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	return f.orders.ListByUser(ctx, userID)
}

func (f *CommerceFacade) CancelOrder(ctx context.Context, orderID, userID int64) error {
	return f.orders.Cancel(ctx, orderID, userID)
}

func (f *CommerceFacade) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, userID int64) error {
	return f.orders.UpdateStatus(ctx, orderID, status, userID)
}

func (f *CommerceFacade) Notifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	return f.notifications.ListByUser(ctx, userID)
}

func (f *CommerceFacade) MarkNotificationRead(ctx context.Context, notificationID, userID int64) error {
	return f.notifications.MarkRead(ctx, notificationID, userID)
}

func (f *CommerceFacade) Shipments(ctx context.Context, userID int64) ([]model.ShippingOrder, error) {
	return f.shippings.ListByUser(ctx, userID)
}

func (f *CommerceFacade) PendingShipments(ctx context.Context, limit int) ([]model.ShippingOrder, error) {
	return f.shippings.SelectBatchForDispatch(ctx, limit)
}

func (f *CommerceFacade) MarkShipmentDispatched(ctx context.Context, shippingOrderID int64) error {
	return f.shippings.MarkDispatched(ctx, shippingOrderID)
}
