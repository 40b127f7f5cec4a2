package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/lunchpad/orderengine/internal/domain/errors"
	"github.com/lunchpad/orderengine/internal/domain/model"
	"github.com/lunchpad/orderengine/internal/test"
)

type orderFixture struct {
	repo          *test.OrderRepositoryStub
	notifications *test.NotificationRepositoryStub
	router        *test.RouterStub
	uc            *OrderUseCase
}

func newOrderFixture() *orderFixture {
	repo := test.NewOrderRepositoryStub()
	scope := repo.Scope
	scope.Branches[1] = &model.Branch{ID: 1, Name: "central"}
	scope.Products[10] = &model.Product{
		ID:          10,
		BranchID:    1,
		Name:        "flat white",
		Price:       decimal.RequireFromString("5.00"),
		StockPolicy: model.StockPolicyFixed,
		Stock:       5,
	}
	scope.Products[11] = &model.Product{
		ID:          11,
		BranchID:    1,
		Name:        "croissant",
		Price:       decimal.RequireFromString("7.00"),
		StockPolicy: model.StockPolicyFixed,
		Stock:       2,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifications := &test.NotificationRepositoryStub{}
	router := &test.RouterStub{}
	notifyUC := NewNotificationUseCase(notifications, test.NewUserRepositoryStub(7), router, logger)

	return &orderFixture{
		repo:          repo,
		notifications: notifications,
		router:        router,
		uc:            NewOrderUseCase(repo, NewPricer(), notifyUC, logger),
	}
}

func placeRequest(lines ...model.LineSelection) model.PlaceOrderRequest {
	return model.PlaceOrderRequest{
		BranchID: 1,
		Type:     model.OrderTypeShipping,
		Address:  model.ShippingAddress{Address: "1 Main St", Longitude: 30.5, Latitude: 50.4},
		Lines:    lines,
	}
}

func TestPlaceOrderRejectsEmptyOrder(t *testing.T) {
	f := newOrderFixture()

	if _, err := f.uc.Place(context.Background(), placeRequest(), 7); !errors.Is(err, domainErrors.ErrEmptyOrder) {
		t.Fatalf("expected empty order error, got %v", err)
	}
	if len(f.repo.Scope.Orders) != 0 {
		t.Fatalf("nothing should be committed, got %d orders", len(f.repo.Scope.Orders))
	}
}

func TestPlaceOrderRejectsUnknownBranch(t *testing.T) {
	f := newOrderFixture()
	req := placeRequest(model.LineSelection{ProductID: 10, Quantity: 1})
	req.BranchID = 42

	if _, err := f.uc.Place(context.Background(), req, 7); !errors.Is(err, domainErrors.ErrBranchNotFound) {
		t.Fatalf("expected branch not found, got %v", err)
	}
}

func TestPlaceOrderRejectsForeignProduct(t *testing.T) {
	f := newOrderFixture()
	f.repo.Scope.Branches[2] = &model.Branch{ID: 2, Name: "uptown"}
	req := placeRequest(model.LineSelection{ProductID: 10, Quantity: 1})
	req.BranchID = 2

	if _, err := f.uc.Place(context.Background(), req, 7); !errors.Is(err, domainErrors.ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
}

func TestPlaceOrderScheduleValidation(t *testing.T) {
	f := newOrderFixture()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.uc.now = func() time.Time { return now }

	req := placeRequest(model.LineSelection{ProductID: 10, Quantity: 1})
	req.IsScheduled = true

	if _, err := f.uc.Place(context.Background(), req, 7); !errors.Is(err, domainErrors.ErrScheduleTimeRequired) {
		t.Fatalf("expected schedule time required, got %v", err)
	}

	past := now.Add(-time.Hour)
	req.ScheduledAt = &past
	if _, err := f.uc.Place(context.Background(), req, 7); !errors.Is(err, domainErrors.ErrScheduleInPast) {
		t.Fatalf("expected schedule in past, got %v", err)
	}

	future := now.Add(time.Hour)
	req.ScheduledAt = &future
	order, err := f.uc.Place(context.Background(), req, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !order.IsScheduled || order.ScheduledAt == nil || !order.ScheduledAt.Equal(future) {
		t.Fatalf("expected scheduled order at %v, got %+v", future, order)
	}
}

func TestPlaceOrderComposesEverything(t *testing.T) {
	f := newOrderFixture()
	req := placeRequest(
		model.LineSelection{ProductID: 10, Quantity: 2},
		model.LineSelection{ProductID: 11, Quantity: 2},
	)

	order, err := f.uc.Place(context.Background(), req, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 5.00*2 + 7.00*2
	wantTotal := decimal.RequireFromString("24.00")
	if !order.TotalPrice.Equal(wantTotal) {
		t.Fatalf("expected total %s, got %s", wantTotal, order.TotalPrice)
	}
	if order.Status != model.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.ID == 0 || order.ShippingAddressID == 0 {
		t.Fatalf("expected assigned identifiers, got %+v", order)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Lines))
	}

	scope := f.repo.Scope
	if scope.Products[10].Stock != 3 || scope.Products[11].Stock != 0 {
		t.Fatalf("unexpected stock after composition: %d, %d", scope.Products[10].Stock, scope.Products[11].Stock)
	}
	if len(scope.Lines) != 2 {
		t.Fatalf("expected 2 persisted lines, got %d", len(scope.Lines))
	}

	if len(scope.Shipments) != 1 {
		t.Fatalf("expected one shipping order, got %d", len(scope.Shipments))
	}
	shipment := scope.Shipments[0]
	if !shipment.Fee.Equal(decimal.RequireFromString("0.24")) {
		t.Fatalf("expected 1%% shipping fee 0.24, got %s", shipment.Fee)
	}
	if shipment.Status != model.ShippingStatusPending || shipment.OrderID != order.ID {
		t.Fatalf("unexpected shipping order %+v", shipment)
	}

	if len(scope.Payments) != 1 {
		t.Fatalf("expected one payment, got %d", len(scope.Payments))
	}
	payment := scope.Payments[0]
	if !payment.Amount.Equal(wantTotal) || payment.Status != model.PaymentStatusAccepted {
		t.Fatalf("unexpected payment %+v", payment)
	}
	if payment.Currency != "USD" {
		t.Fatalf("expected default currency USD, got %s", payment.Currency)
	}
}

func TestPlaceOrderRollsBackOnLineFailure(t *testing.T) {
	f := newOrderFixture()
	req := placeRequest(
		model.LineSelection{ProductID: 10, Quantity: 2},
		model.LineSelection{ProductID: 11, Quantity: 3},
	)

	if _, err := f.uc.Place(context.Background(), req, 7); !errors.Is(err, domainErrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	scope := f.repo.Scope
	if scope.Products[10].Stock != 5 {
		t.Fatalf("first line reservation must be rolled back, stock %d", scope.Products[10].Stock)
	}
	if len(scope.Orders) != 0 || len(scope.Shipments) != 0 || len(scope.Payments) != 0 {
		t.Fatalf("no rows may survive a failed run")
	}
}

func TestPlaceOrderReusesAddress(t *testing.T) {
	f := newOrderFixture()

	for i := 0; i < 2; i++ {
		if _, err := f.uc.Place(context.Background(), placeRequest(model.LineSelection{ProductID: 10, Quantity: 1}), 7); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(f.repo.Scope.Addresses) != 1 {
		t.Fatalf("identical addresses must share one row, got %d", len(f.repo.Scope.Addresses))
	}
}

func TestPlaceOrderNotifiesAfterCommit(t *testing.T) {
	f := newOrderFixture()

	order, err := f.uc.Place(context.Background(), placeRequest(model.LineSelection{ProductID: 10, Quantity: 1}), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := fmt.Sprintf("New order %d created", order.ID)
	deadline := time.Now().Add(2 * time.Second)
	for {
		items := f.notifications.Items()
		if len(items) == 1 {
			if items[0].Message != want || items[0].UserID != 7 {
				t.Fatalf("unexpected notification %+v", items[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("notification was not stored in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	deadline = time.Now().Add(2 * time.Second)
	for len(f.router.Calls()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("notification was not routed in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGetOrderRestrictedToOwner(t *testing.T) {
	f := newOrderFixture()
	order, err := f.uc.Place(context.Background(), placeRequest(model.LineSelection{ProductID: 10, Quantity: 1}), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.uc.Get(context.Background(), order.ID, 8); !errors.Is(err, domainErrors.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := f.uc.Get(context.Background(), order.ID, 7); err != nil {
		t.Fatalf("owner must read the order, got %v", err)
	}
	if _, err := f.uc.Get(context.Background(), 999, 7); !errors.Is(err, domainErrors.ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}

func TestCancelOrder(t *testing.T) {
	f := newOrderFixture()
	order, err := f.uc.Place(context.Background(), placeRequest(model.LineSelection{ProductID: 10, Quantity: 1}), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.uc.Cancel(context.Background(), order.ID, 8); !errors.Is(err, domainErrors.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if err := f.uc.Cancel(context.Background(), order.ID, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.uc.Cancel(context.Background(), order.ID, 7); !errors.Is(err, domainErrors.ErrAlreadyCancelled) {
		t.Fatalf("expected already cancelled, got %v", err)
	}
}

func TestUpdateStatusRejectsSameStatus(t *testing.T) {
	f := newOrderFixture()
	order, err := f.uc.Place(context.Background(), placeRequest(model.LineSelection{ProductID: 10, Quantity: 1}), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.uc.UpdateStatus(context.Background(), order.ID, model.OrderStatusPending, 7); !errors.Is(err, domainErrors.ErrSameStatus) {
		t.Fatalf("expected same status rejection, got %v", err)
	}
	if err := f.uc.UpdateStatus(context.Background(), order.ID, model.OrderStatusConfirmed, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.repo.ByID[order.ID].Status; got != model.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", got)
	}
}
