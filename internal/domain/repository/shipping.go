package repository

import (
	"context"

	"github.com/lunchpad/orderengine/internal/domain/model"
)

// ShippingRepository manages shipping orders awaiting dispatch.
type ShippingRepository interface {
	// SelectBatchForDispatch picks up to limit undelivered shipping orders,
	// marking them dispatching so competing workers skip them.
	SelectBatchForDispatch(ctx context.Context, limit int) ([]model.ShippingOrder, error)
	MarkDispatched(ctx context.Context, shippingOrderID int64) error
	ListByUser(ctx context.Context, userID int64) ([]model.ShippingOrder, error)
}
