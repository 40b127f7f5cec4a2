package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingStatus tracks the hand-off of a shipping order to fulfillment.
type ShippingStatus string

const (
	ShippingStatusPending     ShippingStatus = "pending"
	ShippingStatusDispatching ShippingStatus = "dispatching"
	ShippingStatusDispatched  ShippingStatus = "dispatched"
)

// ShippingAddress is matched structurally: two orders with identical
// coordinates and address text share one row.
type ShippingAddress struct {
	ID        int64
	Address   string
	Longitude float64
	Latitude  float64
}

// ShippingOrder is the provisional delivery record created with each order.
// Fulfillment happens outside this service; the dispatcher only hands it off.
type ShippingOrder struct {
	ID             int64
	OrderID        int64
	UserID         int64
	Fee            decimal.Decimal
	Status         ShippingStatus
	ShippingClient string
	CreatedAt      time.Time
}

// ShipmentDispatch is the event published when a pending shipping order is
// handed to the external fulfillment collaborator.
type ShipmentDispatch struct {
	EventID         string          `json:"event_id"`
	ShippingOrderID int64           `json:"shipping_order_id"`
	OrderID         int64           `json:"order_id"`
	UserID          int64           `json:"user_id"`
	Fee             decimal.Decimal `json:"fee"`
}
