package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lunchpad/orderengine/internal/domain/model"
)

// RouteCall records one notification routed through RouterStub.
type RouteCall struct {
	UserID       int64
	Notification model.Notification
}

// RouterStub simulates live notification delivery.
type RouterStub struct {
	RouteFn     func(context.Context, int64, model.Notification) (bool, error)
	Err         error
	Undelivered bool

	mu    sync.Mutex
	calls []RouteCall
}

// RouteTo records the call and returns configured outcome.
func (s *RouterStub) RouteTo(ctx context.Context, userID int64, n model.Notification) (bool, error) {
	if s.RouteFn != nil {
		return s.RouteFn(ctx, userID, n)
	}
	s.mu.Lock()
	s.calls = append(s.calls, RouteCall{UserID: userID, Notification: n})
	s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	return !s.Undelivered, nil
}

// Calls returns a copy of recorded route invocations.
func (s *RouterStub) Calls() []RouteCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RouteCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	PlaceFn        func(context.Context, model.PlaceOrderRequest, int64) (*model.Order, error)
	OrderFn        func(context.Context, int64, int64) (*model.Order, error)
	OrdersFn       func(context.Context, int64) ([]model.Order, error)
	CancelFn       func(context.Context, int64, int64) error
	UpdateStatusFn func(context.Context, int64, model.OrderStatus, int64) error
}

// PlaceOrder delegates to provided function or returns a default order.
func (s OrderFacadeStub) PlaceOrder(ctx context.Context, req model.PlaceOrderRequest, userID int64) (*model.Order, error) {
	if s.PlaceFn != nil {
		return s.PlaceFn(ctx, req, userID)
	}
	return &model.Order{ID: 1, UserID: userID, BranchID: req.BranchID, Status: model.OrderStatusPending}, nil
}

// Order returns the requested order.
func (s OrderFacadeStub) Order(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, orderID, userID)
	}
	return &model.Order{ID: orderID, UserID: userID}, nil
}

// Orders returns predefined orders for given user.
func (s OrderFacadeStub) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, userID)
	}
	return []model.Order{{ID: 1, UserID: userID}}, nil
}

// CancelOrder executes configured cancel handler.
func (s OrderFacadeStub) CancelOrder(ctx context.Context, orderID, userID int64) error {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID, userID)
	}
	return nil
}

// UpdateOrderStatus executes configured transition handler.
func (s OrderFacadeStub) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus, userID int64) error {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, orderID, status, userID)
	}
	return nil
}

// NotificationFacadeStub simulates notification endpoints.
type NotificationFacadeStub struct {
	ListFn     func(context.Context, int64) ([]model.Notification, error)
	MarkReadFn func(context.Context, int64, int64) error
}

// Notifications returns preconfigured history.
func (s NotificationFacadeStub) Notifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, userID)
	}
	return []model.Notification{{ID: 1, UserID: userID, Message: "m", CreatedAt: time.Unix(0, 0)}}, nil
}

// MarkNotificationRead executes configured handler.
func (s NotificationFacadeStub) MarkNotificationRead(ctx context.Context, notificationID, userID int64) error {
	if s.MarkReadFn != nil {
		return s.MarkReadFn(ctx, notificationID, userID)
	}
	return nil
}

// ShipmentFacadeStub simulates the shipment listing endpoint.
type ShipmentFacadeStub struct {
	ListFn func(context.Context, int64) ([]model.ShippingOrder, error)
}

// Shipments returns preconfigured deliveries.
func (s ShipmentFacadeStub) Shipments(ctx context.Context, userID int64) ([]model.ShippingOrder, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, userID)
	}
	return []model.ShippingOrder{{ID: 1, OrderID: 1, UserID: userID}}, nil
}

// CommerceFacadeStub aggregates facade dependencies for HTTP layer tests.
type CommerceFacadeStub struct {
	OrderFacadeStub
	NotificationFacadeStub
	ShipmentFacadeStub
	ParseFn func(string) (int64, error)
}

// ParseToken returns stored identifier for authenticated user.
func (s CommerceFacadeStub) ParseToken(token string) (int64, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return 1, nil
}

// DispatchFacadeStub mimics worker interactions with the commerce facade.
type DispatchFacadeStub struct {
	Batches   [][]model.ShippingOrder
	PendingFn func(context.Context, int) ([]model.ShippingOrder, error)
	MarkFn    func(context.Context, int64) error

	mu        sync.Mutex
	marked    []int64
	callCount int32
}

// PendingShipments returns batches from the configured queue.
func (s *DispatchFacadeStub) PendingShipments(ctx context.Context, limit int) ([]model.ShippingOrder, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.callCount, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// MarkShipmentDispatched records dispatched identifiers.
func (s *DispatchFacadeStub) MarkShipmentDispatched(ctx context.Context, shippingOrderID int64) error {
	if s.MarkFn != nil {
		return s.MarkFn(ctx, shippingOrderID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, shippingOrderID)
	return nil
}

// Marked returns identifiers recorded by MarkShipmentDispatched.
func (s *DispatchFacadeStub) Marked() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.marked))
	copy(out, s.marked)
	return out
}

// PublisherStub records dispatch events instead of publishing them.
type PublisherStub struct {
	PublishFn func(context.Context, model.ShipmentDispatch) error
	Err       error

	mu        sync.Mutex
	published []model.ShipmentDispatch
}

// PublishShipmentDispatch records the event and returns configured error.
func (s *PublisherStub) PublishShipmentDispatch(ctx context.Context, event model.ShipmentDispatch) error {
	if s.PublishFn != nil {
		return s.PublishFn(ctx, event)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.published = append(s.published, event)
	return nil
}

// Published returns a copy of recorded events.
func (s *PublisherStub) Published() []model.ShipmentDispatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ShipmentDispatch, len(s.published))
	copy(out, s.published)
	return out
}
