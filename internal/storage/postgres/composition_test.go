package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	domainErrors "github.com/lunchpad/orderengine/internal/domain/errors"
	"github.com/lunchpad/orderengine/internal/domain/model"
	"github.com/lunchpad/orderengine/internal/domain/repository"
)

// compose runs fn in a mocked transaction expecting a commit.
func compose(t *testing.T, mock pgxmockv3.PgxPoolIface, storage *Storage, fn func(scope repository.CompositionScope) error) error {
	t.Helper()
	return storage.Orders().Compose(context.Background(), fn)
}

func TestScopeBranch(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name FROM branches").
		WithArgs(int64(1)).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "name"}).AddRow(int64(1), "central"))
	mock.ExpectCommit()

	err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
		b, err := scope.Branch(context.Background(), 1)
		if err != nil {
			return err
		}
		if b.Name != "central" {
			t.Fatalf("unexpected branch %+v", b)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScopeBranchNotFoundRollsBack(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name FROM branches").
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
		_, err := scope.Branch(context.Background(), 42)
		return err
	})
	if !errors.Is(err, domainErrors.ErrBranchNotFound) {
		t.Fatalf("expected branch not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestScopeProductScopedToBranch(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM products WHERE id=").
		WithArgs(int64(10), int64(1)).
		WillReturnRows(pgxmockv3.NewRows([]string{
			"id", "branch_id", "name", "price", "stock_type", "stock", "stock_daily", "last_daily_stock_update",
		}).AddRow(int64(10), int64(1), "flat white", decimal.RequireFromString("5.00"), model.StockPolicyFixed, 5, 0, time.Unix(0, 0)))
	mock.ExpectQuery("FROM products WHERE id=").
		WithArgs(int64(10), int64(2)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectCommit()

	err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
		p, err := scope.Product(context.Background(), 10, 1)
		if err != nil {
			return err
		}
		if p.StockPolicy != model.StockPolicyFixed || p.Stock != 5 {
			t.Fatalf("unexpected product %+v", p)
		}
		if _, err := scope.Product(context.Background(), 10, 2); !errors.Is(err, domainErrors.ErrProductNotFound) {
			t.Fatalf("expected product not found in foreign branch, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScopeAddonEligibility(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM addons a WHERE a.id=").
		WithArgs(int64(100), int64(10)).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "title", "price", "tax", "exists"}).
			AddRow(int64(100), "extra shot", decimal.RequireFromString("1.50"), decimal.RequireFromString("0.25"), true))
	mock.ExpectQuery("FROM addons a WHERE a.id=").
		WithArgs(int64(100), int64(11)).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "title", "price", "tax", "exists"}).
			AddRow(int64(100), "extra shot", decimal.RequireFromString("1.50"), decimal.RequireFromString("0.25"), false))
	mock.ExpectCommit()

	err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
		if _, err := scope.Addon(context.Background(), 100, 10); err != nil {
			return err
		}
		if _, err := scope.Addon(context.Background(), 100, 11); !errors.Is(err, domainErrors.ErrInvalidAddon) {
			t.Fatalf("expected invalid addon for foreign product, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScopeOptionLinkedToVariation(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM variation_options o WHERE o.id=").
		WithArgs(int64(300), int64(200)).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "name", "price", "exists"}).
			AddRow(int64(300), "large", decimal.RequireFromString("0.75"), true))
	mock.ExpectQuery("FROM variation_options o WHERE o.id=").
		WithArgs(int64(300), int64(201)).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "name", "price", "exists"}).
			AddRow(int64(300), "large", decimal.RequireFromString("0.75"), false))
	mock.ExpectCommit()

	err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
		o, err := scope.Option(context.Background(), 300, 200)
		if err != nil {
			return err
		}
		if !o.Price.Equal(decimal.RequireFromString("0.75")) {
			t.Fatalf("unexpected option %+v", o)
		}
		if _, err := scope.Option(context.Background(), 300, 201); !errors.Is(err, domainErrors.ErrInvalidOption) {
			t.Fatalf("expected invalid option for foreign variation, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScopeReserveStockFixed(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	product := &model.Product{ID: 10, StockPolicy: model.StockPolicyFixed}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE products SET stock = stock -").
		WithArgs(int64(10), 2).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE products SET stock = stock -").
		WithArgs(int64(10), 100).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
		if err := scope.ReserveStock(context.Background(), product, 2); err != nil {
			return err
		}
		return scope.ReserveStock(context.Background(), product, 100)
	})
	if !errors.Is(err, domainErrors.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestScopeReserveStockDailyResetsFirst(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	product := &model.Product{ID: 10, StockPolicy: model.StockPolicyDaily}

	mock.ExpectBegin()
	mock.ExpectExec("SET stock = stock_daily, last_daily_stock_update = CURRENT_DATE").
		WithArgs(int64(10)).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE products SET stock = stock -").
		WithArgs(int64(10), 1).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
		return scope.ReserveStock(context.Background(), product, 1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestScopeReserveStockUnlimitedSkipsSQL(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	product := &model.Product{ID: 10, StockPolicy: model.StockPolicyUnlimited}

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
		return scope.ReserveStock(context.Background(), product, 1000)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestScopeReserveStockUnknownPolicy(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	product := &model.Product{ID: 10, StockPolicy: model.StockPolicy("seasonal")}

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
		return scope.ReserveStock(context.Background(), product, 1)
	})
	if !errors.Is(err, domainErrors.ErrUnknownStockPolicy) {
		t.Fatalf("expected unknown stock policy, got %v", err)
	}
}

func TestScopeGetOrCreateAddress(t *testing.T) {
	addr := model.ShippingAddress{Address: "1 Main St", Longitude: 30.5, Latitude: 50.4}

	t.Run("existing", func(t *testing.T) {
		storage, mock := newMockStorage(t)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM shipping_addresses").
			WithArgs(addr.Address, addr.Longitude, addr.Latitude).
			WillReturnRows(pgxmockv3.NewRows([]string{"id"}).AddRow(int64(5)))
		mock.ExpectCommit()

		err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
			got, err := scope.GetOrCreateAddress(context.Background(), addr)
			if err != nil {
				return err
			}
			if got.ID != 5 {
				t.Fatalf("expected reused address 5, got %+v", got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("insert new", func(t *testing.T) {
		storage, mock := newMockStorage(t)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM shipping_addresses").
			WithArgs(addr.Address, addr.Longitude, addr.Latitude).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("INSERT INTO shipping_addresses").
			WithArgs(addr.Address, addr.Longitude, addr.Latitude).
			WillReturnRows(pgxmockv3.NewRows([]string{"id"}).AddRow(int64(6)))
		mock.ExpectCommit()

		err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
			got, err := scope.GetOrCreateAddress(context.Background(), addr)
			if err != nil {
				return err
			}
			if got.ID != 6 {
				t.Fatalf("expected new address 6, got %+v", got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("lost duplicate race", func(t *testing.T) {
		storage, mock := newMockStorage(t)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM shipping_addresses").
			WithArgs(addr.Address, addr.Longitude, addr.Latitude).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("INSERT INTO shipping_addresses").
			WithArgs(addr.Address, addr.Longitude, addr.Latitude).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})
		mock.ExpectQuery("SELECT id FROM shipping_addresses").
			WithArgs(addr.Address, addr.Longitude, addr.Latitude).
			WillReturnRows(pgxmockv3.NewRows([]string{"id"}).AddRow(int64(7)))
		mock.ExpectCommit()

		err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
			got, err := scope.GetOrCreateAddress(context.Background(), addr)
			if err != nil {
				return err
			}
			if got.ID != 7 {
				t.Fatalf("expected raced address 7, got %+v", got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestScopeInsertOrderAndDependents(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()

	now := time.Unix(0, 0)
	order := &model.Order{
		UserID:            7,
		BranchID:          1,
		ShippingAddressID: 5,
		Type:              model.OrderTypeShipping,
		Status:            model.OrderStatusPending,
		TotalPrice:        decimal.RequireFromString("24.00"),
	}
	line := &model.OrderLine{ProductID: 10, Quantity: 2, TotalPrice: decimal.RequireFromString("10.00"), AddonIDs: []int64{100}, VariationIDs: []int64{200}}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(),
			pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg()).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(int64(11), int64(10), 2, decimal.RequireFromString("10.00")).
		WillReturnRows(pgxmockv3.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectExec("INSERT INTO order_item_addons").
		WithArgs(int64(21), int64(100)).
		WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_item_variations").
		WithArgs(int64(21), int64(200)).
		WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectQuery("INSERT INTO shipping_orders").
		WithArgs(pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(),
			pgxmockv3.AnyArg()).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "created_at"}).AddRow(int64(31), now))
	mock.ExpectQuery("INSERT INTO payments").
		WithArgs(pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(),
			pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(),
			pgxmockv3.AnyArg()).
		WillReturnRows(pgxmockv3.NewRows([]string{"id"}).AddRow(int64(41)))
	mock.ExpectCommit()

	err := compose(t, mock, storage, func(scope repository.CompositionScope) error {
		if err := scope.InsertOrder(context.Background(), order); err != nil {
			return err
		}
		if err := scope.InsertLine(context.Background(), order.ID, line); err != nil {
			return err
		}
		so := &model.ShippingOrder{OrderID: order.ID, UserID: 7, Fee: decimal.RequireFromString("0.24"), Status: model.ShippingStatusPending, ShippingClient: "unassigned"}
		if err := scope.InsertShippingOrder(context.Background(), so); err != nil {
			return err
		}
		p := &model.Payment{OrderID: order.ID, UserID: 7, Amount: order.TotalPrice, Currency: "USD", Status: model.PaymentStatusAccepted}
		return scope.InsertPayment(context.Background(), p)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.ID != 11 || !order.CreatedAt.Equal(now) {
		t.Fatalf("order identity not assigned: %+v", order)
	}
	if line.ID != 21 || line.OrderID != 11 {
		t.Fatalf("line identity not assigned: %+v", line)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
