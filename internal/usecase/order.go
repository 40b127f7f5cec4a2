package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/lunchpad/orderengine/internal/domain/errors"
	"github.com/lunchpad/orderengine/internal/domain/model"
	"github.com/lunchpad/orderengine/internal/domain/repository"
)

// shippingFeeRate is the provisional delivery fee charged on order total
// until the external fulfillment service quotes the real one.
var shippingFeeRate = decimal.NewFromFloat(0.01)

const (
	defaultCurrency        = "USD"
	unassignedClient       = "unassigned"
	notificationDispatchTO = 5 * time.Second
)

// OrderUseCase composes, persists and transitions orders.
type OrderUseCase struct {
	orders        repository.OrderRepository
	pricer        *Pricer
	notifications *NotificationUseCase
	logger        *slog.Logger
	now           func() time.Time
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, pricer *Pricer, notifications *NotificationUseCase, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{
		orders:        orders,
		pricer:        pricer,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// Place composes and commits an order atomically: branch resolution, address
// reuse, scheduling checks, per-line stock reservation and pricing, the order
// row with all lines, plus the dependent shipping order and payment. Any
// failure rolls the whole run back. The creation notice is dispatched after
// commit and never affects the result.
func (u *OrderUseCase) Place(ctx context.Context, req model.PlaceOrderRequest, userID int64) (*model.Order, error) {
	order := &model.Order{
		UserID:   userID,
		BranchID: req.BranchID,
		Type:     req.Type,
		Status:   model.OrderStatusPending,
	}

	err := u.orders.Compose(ctx, func(scope repository.CompositionScope) error {
		if _, err := scope.Branch(ctx, req.BranchID); err != nil {
			return err
		}
		if len(req.Lines) == 0 {
			return domainErrors.ErrEmptyOrder
		}

		addr, err := scope.GetOrCreateAddress(ctx, req.Address)
		if err != nil {
			return err
		}
		order.ShippingAddressID = addr.ID

		if req.IsScheduled {
			if req.ScheduledAt == nil {
				return domainErrors.ErrScheduleTimeRequired
			}
			if req.ScheduledAt.Before(u.now()) {
				return domainErrors.ErrScheduleInPast
			}
			order.IsScheduled = true
			order.ScheduledAt = req.ScheduledAt
		}

		total := decimal.Zero
		for _, sel := range req.Lines {
			product, err := scope.Product(ctx, sel.ProductID, req.BranchID)
			if err != nil {
				return err
			}
			line, err := u.pricer.PriceLine(ctx, scope, product, sel)
			if err != nil {
				return err
			}
			order.Lines = append(order.Lines, *line)
			total = total.Add(line.TotalPrice)
		}
		order.TotalPrice = total

		if err := scope.InsertOrder(ctx, order); err != nil {
			return err
		}
		for i := range order.Lines {
			if err := scope.InsertLine(ctx, order.ID, &order.Lines[i]); err != nil {
				return err
			}
		}

		shipping := &model.ShippingOrder{
			OrderID:        order.ID,
			UserID:         userID,
			Fee:            total.Mul(shippingFeeRate).Round(2),
			Status:         model.ShippingStatusPending,
			ShippingClient: unassignedClient,
		}
		if err := scope.InsertShippingOrder(ctx, shipping); err != nil {
			return err
		}

		payment := &model.Payment{
			OrderID:      order.ID,
			UserID:       userID,
			Amount:       total,
			Currency:     currencyOrDefault(req.Payment.Currency),
			Status:       model.PaymentStatusAccepted,
			Gateway:      req.Payment.Gateway,
			IntentID:     req.Payment.IntentID,
			ClientSecret: req.Payment.ClientSecret,
			ReceiptEmail: req.Payment.ReceiptEmail,
		}
		return scope.InsertPayment(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("order created",
		slog.Int64("order_id", order.ID),
		slog.Int64("user_id", userID),
		slog.String("total", order.TotalPrice.String()),
	)

	go u.announce(order.UserID, order.ID)

	return order, nil
}

// announce delivers the post-commit creation notice. It runs detached from
// the request context: a cancelled request must not undo a committed order.
func (u *OrderUseCase) announce(userID, orderID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), notificationDispatchTO)
	defer cancel()
	if _, err := u.notifications.Notify(ctx, userID, fmt.Sprintf("New order %d created", orderID)); err != nil {
		u.logger.Error("order notification failed",
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}

// Get returns an order with lines, restricted to its owner.
func (u *OrderUseCase) Get(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domainErrors.ErrNotOwner
	}
	return order, nil
}

// ListByUser returns orders sorted by creation time.
func (u *OrderUseCase) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return u.orders.ListByUser(ctx, userID)
}

// Cancel transitions an order to cancelled on behalf of its owner.
func (u *OrderUseCase) Cancel(ctx context.Context, orderID, userID int64) error {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return domainErrors.ErrNotOwner
	}
	if order.Status == model.OrderStatusCancelled {
		return domainErrors.ErrAlreadyCancelled
	}
	return u.orders.UpdateStatus(ctx, orderID, model.OrderStatusCancelled)
}

// UpdateStatus moves an owner's order to a new status. Beyond rejecting the
// current status it enforces no transition graph.
func (u *OrderUseCase) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, userID int64) error {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return domainErrors.ErrNotOwner
	}
	if order.Status == status {
		return domainErrors.ErrSameStatus
	}
	return u.orders.UpdateStatus(ctx, orderID, status)
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return defaultCurrency
	}
	return currency
}
