package coinbase

import (
	"strings"

	"github.com/cbgate/cbgate/internal/model"
	"github.com/cbgate/cbgate/internal/pkg/apperrors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderRequest is the wire-ready order payload. Built fresh per call,
// immutable once built, sent exactly once.
type OrderRequest struct {
	ClientOrderID      string             `json:"client_order_id"`
	ProductID          string             `json:"product_id"`
	Side               string             `json:"side"`
	OrderConfiguration OrderConfiguration `json:"order_configuration"`
}

type OrderConfiguration struct {
	LimitGTC *LimitGTC `json:"limit_limit_gtc,omitempty"`
}

// LimitGTC carries exactly one of BaseSize/QuoteSize plus the limit price.
type LimitGTC struct {
	BaseSize   string `json:"base_size,omitempty"`
	QuoteSize  string `json:"quote_size,omitempty"`
	LimitPrice string `json:"limit_price"`
}

// ValidateInstruction normalizes side, quantity type and symbol and
// rejects anything the exchange path cannot execute. It performs no I/O,
// so callers can fail fast before touching the network.
func ValidateInstruction(instr model.TradeInstruction) (model.TradeInstruction, error) {
	switch model.Side(strings.ToUpper(string(instr.Side))) {
	case model.SideBuy:
		instr.Side = model.SideBuy
	case model.SideSell:
		instr.Side = model.SideSell
	default:
		return instr, apperrors.Newf(apperrors.ErrValidation, "invalid action: %s", instr.Side)
	}

	switch model.QuantityType(strings.ToUpper(string(instr.QuantityType))) {
	case model.QuantityCash:
		instr.QuantityType = model.QuantityCash
	case model.QuantityUnits:
		instr.QuantityType = model.QuantityUnits
	default:
		return instr, apperrors.Newf(apperrors.ErrValidation, "invalid quantity_type: %s", instr.QuantityType)
	}

	if instr.Quantity.Sign() <= 0 {
		return instr, apperrors.NewValidation("quantity must be positive")
	}
	if instr.ReferencePrice.Sign() <= 0 {
		return instr, apperrors.NewValidation("close_price is required for limit orders")
	}

	instr.Symbol = normalizeSymbol(instr.Symbol)
	return instr, nil
}

// TranslateOrder converts a trade instruction into an exchange order
// payload. All orders are limit orders pegged to the reference price.
//
// Field selection: BUY+CASH uses quote_size, BUY+UNITS uses base_size,
// and SELL always uses base_size — a cash-denominated sell is first
// converted to units at the reference price.
func TranslateOrder(instr model.TradeInstruction, precision ProductPrecision) (*OrderRequest, error) {
	instr, err := ValidateInstruction(instr)
	if err != nil {
		return nil, err
	}

	quantity := instr.Quantity
	quantityType := instr.QuantityType
	if instr.Side == model.SideSell && quantityType == model.QuantityCash {
		quantity = quantity.Div(instr.ReferencePrice)
		quantityType = model.QuantityUnits
	}

	limit := &LimitGTC{
		LimitPrice: formatAmount(instr.ReferencePrice, precision.QuoteDecimals),
	}
	if quantityType == model.QuantityCash {
		limit.QuoteSize = formatAmount(quantity, precision.QuoteDecimals)
	} else {
		limit.BaseSize = formatAmount(quantity, precision.BaseDecimals)
	}

	return &OrderRequest{
		ClientOrderID:      uuid.NewString(),
		ProductID:          instr.Symbol,
		Side:               string(instr.Side),
		OrderConfiguration: OrderConfiguration{LimitGTC: limit},
	}, nil
}

// formatAmount renders d to the given decimal places, then strips
// trailing zeros and a bare trailing point. Idempotent on already
// minimal strings: "50000.00" -> "50000", "0.50000" -> "0.5".
func formatAmount(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
