package model

import "github.com/shopspring/decimal"

// PaymentStatusAccepted is the only status this service writes: the engine
// records a client-supplied payment intent, it never talks to a gateway.
const PaymentStatusAccepted = "accepted"

// Payment records the payment intent attached to an order.
type Payment struct {
	ID           int64
	OrderID      int64
	UserID       int64
	Amount       decimal.Decimal
	Currency     string
	Status       string
	Gateway      string
	IntentID     string
	ClientSecret string
	ReceiptEmail string
}

// PaymentRequest carries the client-side payment fields of an order request.
type PaymentRequest struct {
	Currency     string
	Gateway      string
	IntentID     string
	ClientSecret string
	ReceiptEmail string
}
