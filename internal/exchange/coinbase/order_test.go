package coinbase

import (
	"errors"
	"testing"

	"github.com/cbgate/cbgate/internal/model"
	"github.com/cbgate/cbgate/internal/pkg/apperrors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func instruction(symbol string, side model.Side, qtyType model.QuantityType, quantity, price float64) model.TradeInstruction {
	return model.TradeInstruction{
		Symbol:         symbol,
		Side:           side,
		QuantityType:   qtyType,
		Quantity:       decimal.NewFromFloat(quantity),
		ReferencePrice: decimal.NewFromFloat(price),
	}
}

func TestTranslateBuyWithCash(t *testing.T) {
	order, err := TranslateOrder(
		instruction("BTC-USD", model.SideBuy, model.QuantityCash, 100, 50000),
		ProductPrecision{BaseDecimals: 8, QuoteDecimals: 2},
	)
	assert.NoError(t, err)
	assert.Equal(t, "BTC-USD", order.ProductID)
	assert.Equal(t, "BUY", order.Side)

	limit := order.OrderConfiguration.LimitGTC
	assert.NotNil(t, limit)
	assert.Equal(t, "100", limit.QuoteSize)
	assert.Empty(t, limit.BaseSize)
	assert.Equal(t, "50000", limit.LimitPrice)
}

func TestTranslateBuyWithUnits(t *testing.T) {
	order, err := TranslateOrder(
		instruction("btc-usd", "buy", model.QuantityUnits, 0.5, 3000),
		ProductPrecision{BaseDecimals: 18, QuoteDecimals: 2},
	)
	assert.NoError(t, err)
	assert.Equal(t, "BTC-USD", order.ProductID)

	limit := order.OrderConfiguration.LimitGTC
	assert.Equal(t, "0.5", limit.BaseSize)
	assert.Empty(t, limit.QuoteSize)
	assert.Equal(t, "3000", limit.LimitPrice)
}

func TestTranslateSellWithUnits(t *testing.T) {
	order, err := TranslateOrder(
		instruction("BTC-USD", model.SideSell, model.QuantityUnits, 0.001, 50000),
		ProductPrecision{BaseDecimals: 8, QuoteDecimals: 2},
	)
	assert.NoError(t, err)

	limit := order.OrderConfiguration.LimitGTC
	assert.Equal(t, "0.001", limit.BaseSize)
	assert.Empty(t, limit.QuoteSize)
}

func TestTranslateSellWithCashConvertsToUnits(t *testing.T) {
	// Selling $100 worth at $50,000/BTC is 0.002 BTC
	order, err := TranslateOrder(
		instruction("BTC-USD", model.SideSell, model.QuantityCash, 100, 50000),
		ProductPrecision{BaseDecimals: 8, QuoteDecimals: 2},
	)
	assert.NoError(t, err)

	limit := order.OrderConfiguration.LimitGTC
	assert.Equal(t, "0.002", limit.BaseSize)
	assert.Empty(t, limit.QuoteSize)
	assert.Equal(t, "50000", limit.LimitPrice)
}

func TestTranslateAssignsFreshClientOrderID(t *testing.T) {
	precision := ProductPrecision{BaseDecimals: 8, QuoteDecimals: 2}
	first, err := TranslateOrder(instruction("BTC-USD", "BUY", "CASH", 100, 50000), precision)
	assert.NoError(t, err)
	second, err := TranslateOrder(instruction("BTC-USD", "BUY", "CASH", 100, 50000), precision)
	assert.NoError(t, err)

	assert.NotEqual(t, first.ClientOrderID, second.ClientOrderID)
	_, err = uuid.Parse(first.ClientOrderID)
	assert.NoError(t, err)
}

func TestTranslateInvalidAction(t *testing.T) {
	_, err := TranslateOrder(
		instruction("BTC-USD", "hold", model.QuantityUnits, 1, 50000),
		ProductPrecision{BaseDecimals: 8, QuoteDecimals: 2},
	)
	assertValidationError(t, err)
	assert.Contains(t, err.Error(), "invalid action")
}

func TestTranslateInvalidQuantityType(t *testing.T) {
	_, err := TranslateOrder(
		instruction("BTC-USD", model.SideBuy, "dollars", 100, 50000),
		ProductPrecision{BaseDecimals: 8, QuoteDecimals: 2},
	)
	assertValidationError(t, err)
	assert.Contains(t, err.Error(), "invalid quantity_type")
}

func TestTranslateRequiresReferencePrice(t *testing.T) {
	for _, price := range []float64{0, -1} {
		_, err := TranslateOrder(
			instruction("BTC-USD", model.SideSell, model.QuantityCash, 100, price),
			ProductPrecision{BaseDecimals: 8, QuoteDecimals: 2},
		)
		assertValidationError(t, err)
		assert.Contains(t, err.Error(), "close_price is required")
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in     string
		places int32
		want   string
	}{
		{"50000.00", 2, "50000"},
		{"0.50000", 8, "0.5"},
		{"0.002", 8, "0.002"},
		{"100", 2, "100"},
		{"1.23456789", 4, "1.2346"},
		{"3000", 0, "3000"},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.in)
		assert.NoError(t, err)
		got := formatAmount(d, tc.places)
		assert.Equal(t, tc.want, got, "formatAmount(%s, %d)", tc.in, tc.places)

		// Idempotent: re-formatting the minimal string yields itself
		d2, err := decimal.NewFromString(got)
		assert.NoError(t, err)
		assert.Equal(t, got, formatAmount(d2, tc.places))
	}
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Type != apperrors.ErrValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %s", appErr.Type)
	}
}
