package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/lunchpad/orderengine/internal/domain/errors"
	"github.com/lunchpad/orderengine/internal/domain/model"
	"github.com/lunchpad/orderengine/internal/domain/repository"
)

// StatusUpdateCall records one UpdateStatus invocation.
type StatusUpdateCall struct {
	OrderID int64
	Status  model.OrderStatus
}

// OrderRepositoryStub runs compositions against an in-memory scope and
// keeps committed orders visible to reads. A failed run restores the scope,
// mimicking transaction rollback.
type OrderRepositoryStub struct {
	Scope *CompositionScopeStub

	ComposeErr     error
	GetByIDFn      func(context.Context, int64) (*model.Order, error)
	ListByUserFn   func(context.Context, int64) ([]model.Order, error)
	UpdateStatusFn func(context.Context, int64, model.OrderStatus) error

	ByID        map[int64]*model.Order
	UpdateCalls []StatusUpdateCall
}

// NewOrderRepositoryStub constructs stub backed by a fresh scope.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{
		Scope: NewCompositionScopeStub(),
		ByID:  make(map[int64]*model.Order),
	}
}

// Compose executes fn against the scope, undoing its effects on error.
func (s *OrderRepositoryStub) Compose(ctx context.Context, fn func(repository.CompositionScope) error) error {
	if s.ComposeErr != nil {
		return s.ComposeErr
	}
	snap := s.Scope.snapshot()
	committed := len(s.Scope.Orders)
	if err := fn(s.Scope); err != nil {
		s.Scope.restore(snap)
		return err
	}
	for _, o := range s.Scope.Orders[committed:] {
		s.ByID[o.ID] = o
	}
	return nil
}

// GetByID returns a committed order or not found.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	if s.GetByIDFn != nil {
		return s.GetByIDFn(ctx, id)
	}
	if o, ok := s.ByID[id]; ok {
		return o, nil
	}
	return nil, domainErrors.ErrOrderNotFound
}

// ListByUser filters committed orders by owner.
func (s *OrderRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	if s.ListByUserFn != nil {
		return s.ListByUserFn(ctx, userID)
	}
	var orders []model.Order
	for _, o := range s.ByID {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

// UpdateStatus applies the transition to a committed order.
func (s *OrderRepositoryStub) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, orderID, status)
	}
	o, ok := s.ByID[orderID]
	if !ok {
		return domainErrors.ErrOrderNotFound
	}
	o.Status = status
	s.UpdateCalls = append(s.UpdateCalls, StatusUpdateCall{OrderID: orderID, Status: status})
	return nil
}

// UserRepositoryStub serves users from a map.
type UserRepositoryStub struct {
	ByID map[int64]*model.User
	Err  error
}

// NewUserRepositoryStub constructs stub with one default user.
func NewUserRepositoryStub(ids ...int64) *UserRepositoryStub {
	s := &UserRepositoryStub{ByID: make(map[int64]*model.User)}
	for _, id := range ids {
		s.ByID[id] = &model.User{ID: id, Login: RandomASCIIString(5, 10)}
	}
	return s
}

// GetByID fetches user by identifier or returns not found.
func (s *UserRepositoryStub) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.ByID[id]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// NotificationRepositoryStub stores notifications in-memory. It is safe for
// concurrent use since order placement notifies from a detached goroutine.
type NotificationRepositoryStub struct {
	CreateErr error

	mu    sync.Mutex
	items []model.Notification
	next  int64
}

// Lock exposes internal mutex for external synchronization.
func (s *NotificationRepositoryStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *NotificationRepositoryStub) Unlock() { s.mu.Unlock() }

// Items returns a copy of stored notifications.
func (s *NotificationRepositoryStub) Items() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Create stores a new unread notification.
func (s *NotificationRepositoryStub) Create(ctx context.Context, userID int64, message string) (*model.Notification, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	n := model.Notification{ID: s.next, UserID: userID, Message: message, CreatedAt: time.Now()}
	s.items = append(s.items, n)
	return &n, nil
}

// GetByID fetches a stored notification.
func (s *NotificationRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			n := s.items[i]
			return &n, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// ListByUser returns notifications belonging to the user.
func (s *NotificationRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Notification
	for _, n := range s.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

// MarkRead flips the read flag.
func (s *NotificationRepositoryStub) MarkRead(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].IsRead = true
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

// ShippingRepositoryStub serves shipping orders for dispatch tests.
type ShippingRepositoryStub struct {
	SelectFn func(context.Context, int) ([]model.ShippingOrder, error)
	MarkFn   func(context.Context, int64) error
	Items    []model.ShippingOrder

	mu     sync.Mutex
	marked []int64
}

// SelectBatchForDispatch returns configured shipping orders.
func (s *ShippingRepositoryStub) SelectBatchForDispatch(ctx context.Context, limit int) ([]model.ShippingOrder, error) {
	if s.SelectFn != nil {
		return s.SelectFn(ctx, limit)
	}
	if limit > len(s.Items) {
		limit = len(s.Items)
	}
	return s.Items[:limit], nil
}

// MarkDispatched records the dispatched shipping order.
func (s *ShippingRepositoryStub) MarkDispatched(ctx context.Context, shippingOrderID int64) error {
	if s.MarkFn != nil {
		return s.MarkFn(ctx, shippingOrderID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, shippingOrderID)
	return nil
}

// Marked returns identifiers passed to MarkDispatched.
func (s *ShippingRepositoryStub) Marked() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.marked))
	copy(out, s.marked)
	return out
}

// ListByUser filters configured shipping orders by owner.
func (s *ShippingRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.ShippingOrder, error) {
	var out []model.ShippingOrder
	for _, so := range s.Items {
		if so.UserID == userID {
			out = append(out, so)
		}
	}
	return out, nil
}
