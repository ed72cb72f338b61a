package exchange

import (
	"context"

	"github.com/cbgate/cbgate/internal/model"
)

// Exchange is the capability surface a trading venue must provide.
// Implementations own their authentication, precision and wire formats.
type Exchange interface {
	Name() string
	SubmitOrder(ctx context.Context, instr model.TradeInstruction) (*model.OrderResult, error)
	ListBalances(ctx context.Context) (map[string]string, error)
}
