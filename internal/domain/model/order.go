package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes order lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderType determines how the order reaches the customer.
type OrderType string

const (
	OrderTypeShipping OrderType = "shipping"
	OrderTypePickup   OrderType = "pickup"
)

// Order describes one customer purchase scoped to a branch.
type Order struct {
	ID                int64
	UserID            int64
	BranchID          int64
	ShippingAddressID int64
	Type              OrderType
	Status            OrderStatus
	TotalPrice        decimal.Decimal
	IsScheduled       bool
	ScheduledAt       *time.Time
	CreatedAt         time.Time
	Lines             []OrderLine
}

// OrderLine is a single product entry within an order together with
// the add-ons and variations chosen for it.
type OrderLine struct {
	ID           int64
	OrderID      int64
	ProductID    int64
	Quantity     int
	TotalPrice   decimal.Decimal
	AddonIDs     []int64
	VariationIDs []int64
}

// PlaceOrderRequest is the structured purchase intent submitted by a customer.
type PlaceOrderRequest struct {
	BranchID    int64
	Type        OrderType
	IsScheduled bool
	ScheduledAt *time.Time
	Address     ShippingAddress
	Payment     PaymentRequest
	Lines       []LineSelection
}

// LineSelection describes one requested product line.
type LineSelection struct {
	ProductID  int64
	Quantity   int
	AddonIDs   []int64
	Variations []VariationSelection
}

// VariationSelection carries a variation id and the option ids picked for it.
type VariationSelection struct {
	VariationID int64
	OptionIDs   []int64
}
