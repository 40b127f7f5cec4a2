package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the POST /api/orders payload.
type CreateOrderRequest struct {
	BranchID        int64             `json:"branch_id" binding:"required"`
	Type            string            `json:"type" binding:"required,oneof=shipping pickup"`
	IsScheduled     bool              `json:"is_scheduled"`
	ScheduledAt     *time.Time        `json:"scheduled_at"`
	ShippingAddress AddressPayload    `json:"shipping_address" binding:"required"`
	Payment         PaymentPayload    `json:"payment"`
	Products        []LineItemPayload `json:"products" binding:"required"`
}

// AddressPayload identifies a delivery point.
type AddressPayload struct {
	Address   string  `json:"address" binding:"required"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// PaymentPayload carries client-side gateway fields recorded with the order.
type PaymentPayload struct {
	Currency     string `json:"currency"`
	Gateway      string `json:"gateway"`
	IntentID     string `json:"payment_intent_id"`
	ClientSecret string `json:"payment_client_secret"`
	ReceiptEmail string `json:"receipt_email"`
}

// LineItemPayload describes one requested product line.
type LineItemPayload struct {
	ProductID  int64              `json:"product_id" binding:"required"`
	Quantity   int                `json:"quantity" binding:"required,min=1"`
	Addons     []int64            `json:"addons"`
	Variations []VariationPayload `json:"variations"`
}

// VariationPayload pairs a variation with the options chosen for it.
type VariationPayload struct {
	ID      int64   `json:"id" binding:"required"`
	Options []int64 `json:"options"`
}

// UpdateStatusRequest is the PATCH /api/orders/:id/status payload.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderResponse represents an order returned to the client.
type OrderResponse struct {
	ID          int64               `json:"id"`
	BranchID    int64               `json:"branch_id"`
	Type        string              `json:"type"`
	Status      string              `json:"status"`
	TotalPrice  decimal.Decimal     `json:"total_price"`
	IsScheduled bool                `json:"is_scheduled"`
	ScheduledAt *time.Time          `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	Lines       []OrderLineResponse `json:"lines"`
}

// OrderLineResponse represents a single order line.
type OrderLineResponse struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Addons     []int64         `json:"addons,omitempty"`
	Variations []int64         `json:"variations,omitempty"`
}
