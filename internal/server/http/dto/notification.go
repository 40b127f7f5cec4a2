package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotificationResponse describes one stored notification.
type NotificationResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Icon      string    `json:"icon"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ShipmentResponse describes a delivery created for an order.
type ShipmentResponse struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"order_id"`
	Fee            decimal.Decimal `json:"fee"`
	Status         string          `json:"status"`
	ShippingClient string          `json:"shipping_client"`
	CreatedAt      time.Time       `json:"created_at"`
}
