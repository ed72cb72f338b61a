package kraken

import (
	"context"

	"github.com/cbgate/cbgate/internal/model"
	"github.com/cbgate/cbgate/internal/pkg/apperrors"
)

// Client is a placeholder for a future Kraken integration. Every
// operation reports "not supported" instead of panicking so a
// misconfigured exchange selection degrades into a clean error.
type Client struct{}

func New() *Client {
	return &Client{}
}

func (c *Client) Name() string {
	return "kraken"
}

func (c *Client) SubmitOrder(ctx context.Context, instr model.TradeInstruction) (*model.OrderResult, error) {
	return nil, apperrors.New(apperrors.ErrNotSupported, "kraken order placement is not implemented", nil)
}

func (c *Client) ListBalances(ctx context.Context) (map[string]string, error) {
	return nil, apperrors.New(apperrors.ErrNotSupported, "kraken balance listing is not implemented", nil)
}
