package coinbase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cbgate/cbgate/internal/pkg/apperrors"
	"github.com/cbgate/cbgate/internal/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	// Documented fallbacks when the exchange reports a malformed increment
	defaultBaseDecimals  int32 = 8
	defaultQuoteDecimals int32 = 2
)

// ProductPrecision holds the quantization rules for a trading pair,
// derived from the exchange-reported minimum increments.
type ProductPrecision struct {
	BaseDecimals  int32
	QuoteDecimals int32
}

type productResponse struct {
	ProductID      string `json:"product_id"`
	BaseIncrement  string `json:"base_increment"`
	QuoteIncrement string `json:"quote_increment"`
}

type precisionEntry struct {
	precision ProductPrecision
	fetchedAt time.Time
}

// ResolvePrecision fetches the decimal quantization rules for symbol.
// Results are cached per symbol for the configured TTL; a TTL of zero
// re-fetches on every call.
func (c *Client) ResolvePrecision(ctx context.Context, symbol string) (ProductPrecision, error) {
	symbol = normalizeSymbol(symbol)

	if c.precisionTTL > 0 {
		c.precMu.Lock()
		if entry, ok := c.precCache[symbol]; ok && time.Since(entry.fetchedAt) < c.precisionTTL {
			c.precMu.Unlock()
			return entry.precision, nil
		}
		c.precMu.Unlock()
	}

	path := fmt.Sprintf("%s/products/%s", apiPrefix, symbol)
	headers, err := c.issuer.AuthHeaders(http.MethodGet, c.host, path)
	if err != nil {
		return ProductPrecision{}, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	var product productResponse
	resp, err := c.http.R().
		SetContext(reqCtx).
		SetHeaders(headers).
		SetResult(&product).
		Get(path)
	if err != nil {
		return ProductPrecision{}, apperrors.NewNetwork("failed to fetch product metadata for "+symbol, err)
	}
	if resp.IsError() {
		return ProductPrecision{}, apperrors.NewNetwork(
			fmt.Sprintf("product metadata request for %s returned %d", symbol, resp.StatusCode()), nil)
	}

	precision := ProductPrecision{
		BaseDecimals:  incrementDecimals(product.BaseIncrement, defaultBaseDecimals, symbol, "base_increment"),
		QuoteDecimals: incrementDecimals(product.QuoteIncrement, defaultQuoteDecimals, symbol, "quote_increment"),
	}

	if c.precisionTTL > 0 {
		c.precMu.Lock()
		c.precCache[symbol] = precisionEntry{precision: precision, fetchedAt: time.Now()}
		c.precMu.Unlock()
	}
	return precision, nil
}

// incrementDecimals converts an increment string like "0.00000001" to its
// decimal-place count (8). Malformed or absent increments fall back to the
// documented default, logged rather than silently swallowed.
func incrementDecimals(increment string, fallback int32, symbol, field string) int32 {
	dec, ok := decimalsFromIncrement(increment)
	if !ok {
		logger.Warn("malformed increment, using default precision",
			"symbol", symbol, "field", field, "increment", increment, "default", fallback)
		return fallback
	}
	return dec
}

func decimalsFromIncrement(increment string) (int32, bool) {
	if increment == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(increment)
	if err != nil || d.Sign() <= 0 {
		return 0, false
	}
	dec := -d.Exponent()
	if dec < 0 {
		dec = 0
	}
	return dec, true
}
