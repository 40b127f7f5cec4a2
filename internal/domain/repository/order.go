package repository

import (
	"context"

	"github.com/lunchpad/orderengine/internal/domain/model"
)

// CompositionScope is the unit of work handed to one order composition run.
// Every lookup and mutation happens inside the same database transaction, so
// stock decrements are visible to subsequent lines and nothing survives a
// failed run.
type CompositionScope interface {
	// Branch resolves a branch by id.
	Branch(ctx context.Context, id int64) (*model.Branch, error)
	// Product resolves a product by id scoped to a branch.
	Product(ctx context.Context, id, branchID int64) (*model.Product, error)
	// Addon resolves an add-on and verifies it is eligible for the product.
	Addon(ctx context.Context, id, productID int64) (*model.Addon, error)
	// Variation resolves a variation and verifies it belongs to the product.
	Variation(ctx context.Context, id, productID int64) (*model.Variation, error)
	// Option resolves an option and verifies it is linked to the variation.
	Option(ctx context.Context, id, variationID int64) (*model.VariationOption, error)
	// RequiredVariations lists variations the product marks as required.
	RequiredVariations(ctx context.Context, productID int64) ([]model.Variation, error)

	// ReserveStock checks and decrements availability under the product's
	// stock policy. The decrement is an atomic conditional update.
	ReserveStock(ctx context.Context, product *model.Product, quantity int) error

	// GetOrCreateAddress reuses a structurally identical address or inserts
	// a new one, tolerating a concurrent duplicate insert.
	GetOrCreateAddress(ctx context.Context, addr model.ShippingAddress) (*model.ShippingAddress, error)

	InsertOrder(ctx context.Context, order *model.Order) error
	InsertLine(ctx context.Context, orderID int64, line *model.OrderLine) error
	InsertShippingOrder(ctx context.Context, so *model.ShippingOrder) error
	InsertPayment(ctx context.Context, p *model.Payment) error
}

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	// Compose runs fn within a single transaction; any error rolls
	// everything back.
	Compose(ctx context.Context, fn func(scope CompositionScope) error) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
}
