package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cbgate/cbgate/internal/exchange"
	"github.com/cbgate/cbgate/internal/model"
	"github.com/cbgate/cbgate/internal/notify"
	"github.com/cbgate/cbgate/internal/pkg/apperrors"
	"github.com/cbgate/cbgate/internal/pkg/logger"
	"github.com/cbgate/cbgate/internal/pkg/metrics"
	"github.com/shopspring/decimal"
)

// WebhookService turns validated TradingView alerts into exchange orders.
// Stateless per request; exchanges own all cross-request state.
type WebhookService struct {
	exchanges   map[string]exchange.Exchange
	defaultName string
	notifier    notify.Notifier
	dryRun      bool
}

func NewWebhookService(defaultExchange string, exchanges map[string]exchange.Exchange, notifier notify.Notifier, dryRun bool) *WebhookService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &WebhookService{
		exchanges:   exchanges,
		defaultName: defaultExchange,
		notifier:    notifier,
		dryRun:      dryRun,
	}
}

func (s *WebhookService) Handle(ctx context.Context, payload model.WebhookPayload) (*model.WebhookResponse, error) {
	instr, err := instructionFromPayload(payload)
	if err != nil {
		metrics.WebhookRejects.WithLabelValues("payload").Inc()
		return nil, err
	}

	if s.dryRun {
		logger.Info("dry run mode, skipping order placement",
			"symbol", instr.Symbol, "side", instr.Side, "quantity", instr.Quantity.String())
		return &model.WebhookResponse{
			Status:  "success",
			Message: "Webhook received and validated (dry run, no order placed)",
			DryRun:  true,
			Data:    payload,
		}, nil
	}

	ex, ok := s.exchanges[s.defaultName]
	if !ok {
		return nil, apperrors.NewConfig("exchange not configured: "+s.defaultName, nil)
	}

	result, err := ex.SubmitOrder(ctx, instr)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues("failed", string(instr.Side)).Inc()
		s.notifier.Notify(ctx, fmt.Sprintf("❌ %s %s %s %s failed: %v",
			instr.Side, instr.Quantity.String(), instr.QuantityType, instr.Symbol, err))
		return nil, err
	}

	metrics.OrdersTotal.WithLabelValues("success", string(instr.Side)).Inc()
	s.notifier.Notify(ctx, fmt.Sprintf("✅ %s %s %s %s @ %s (order %s)",
		instr.Side, instr.Quantity.String(), instr.QuantityType, result.ProductID,
		instr.ReferencePrice.String(), result.OrderID))

	return &model.WebhookResponse{
		Status:  "success",
		Message: "Order placed",
		Order:   result,
	}, nil
}

// Balances lists account balances on the named exchange (the default
// when name is empty).
func (s *WebhookService) Balances(ctx context.Context, name string) (map[string]string, error) {
	if name == "" {
		name = s.defaultName
	}
	ex, ok := s.exchanges[name]
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound, "unknown exchange: "+name, nil)
	}
	return ex.ListBalances(ctx)
}

// instructionFromPayload maps the alert vocabulary onto the exchange
// one: action buy/sell -> side, quantity_type cash -> CASH and
// contracts/units -> UNITS, close -> reference price. Percent sizing
// needs position data this gateway does not track.
func instructionFromPayload(payload model.WebhookPayload) (model.TradeInstruction, error) {
	var instr model.TradeInstruction

	switch strings.ToLower(payload.Action) {
	case "buy":
		instr.Side = model.SideBuy
	case "sell":
		instr.Side = model.SideSell
	default:
		return instr, apperrors.Newf(apperrors.ErrValidation, "invalid action: %s", payload.Action)
	}

	switch strings.ToLower(payload.QuantityType) {
	case "cash":
		instr.QuantityType = model.QuantityCash
	case "contracts", "units":
		instr.QuantityType = model.QuantityUnits
	case "percent":
		return instr, apperrors.NewValidation("percent quantity_type is not supported")
	default:
		return instr, apperrors.Newf(apperrors.ErrValidation, "invalid quantity_type: %s", payload.QuantityType)
	}

	if payload.Quantity <= 0 {
		return instr, apperrors.NewValidation("quantity must be positive")
	}
	if payload.Close <= 0 {
		return instr, apperrors.NewValidation("close_price is required for limit orders")
	}

	instr.Symbol = strings.ToUpper(strings.TrimSpace(payload.Symbol))
	instr.Quantity = decimal.NewFromFloat(payload.Quantity)
	instr.ReferencePrice = decimal.NewFromFloat(payload.Close)
	return instr, nil
}
