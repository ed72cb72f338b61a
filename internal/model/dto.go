package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type QuantityType string

const (
	QuantityCash  QuantityType = "CASH"
	QuantityUnits QuantityType = "UNITS"
)

// WebhookPayload represents the incoming TradingView alert body
type WebhookPayload struct {
	Symbol       string  `json:"symbol" binding:"required"`
	Action       string  `json:"action" binding:"required"`
	QuantityType string  `json:"quantity_type" binding:"required"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	Close        float64 `json:"close"`
	Passphrase   string  `json:"passphrase,omitempty"`
}

// TradeInstruction is the exchange-agnostic order intent derived
// from a validated webhook payload. One per request, never persisted.
type TradeInstruction struct {
	Symbol         string
	Side           Side
	QuantityType   QuantityType
	Quantity       decimal.Decimal
	ReferencePrice decimal.Decimal
}

// OrderResult is the uniform outcome of a submitted order. Exchange
// rejections surface as errors, not as an OrderResult.
type OrderResult struct {
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Side      string          `json:"side"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// WebhookResponse is returned to the alert source
type WebhookResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	DryRun  bool         `json:"dry_run,omitempty"`
	Data    any          `json:"data,omitempty"`
	Order   *OrderResult `json:"order,omitempty"`
}
