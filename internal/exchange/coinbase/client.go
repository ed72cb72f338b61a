package coinbase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cbgate/cbgate/internal/model"
	"github.com/cbgate/cbgate/internal/pkg/apperrors"
	"github.com/cbgate/cbgate/internal/pkg/logger"
	"github.com/cbgate/cbgate/internal/pkg/metrics"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultAPIBaseURL is the production Advanced Trade endpoint
	DefaultAPIBaseURL = "https://api.coinbase.com"

	apiPrefix    = "/api/v3/brokerage"
	ordersPath   = apiPrefix + "/orders"
	accountsPath = apiPrefix + "/accounts"

	metadataTimeout = 10 * time.Second
	tradeTimeout    = 30 * time.Second

	accountsPageLimit = 250
)

// knownCurrencies is the allow-list the balance probe reports on.
// Everything else is dropped silently.
var knownCurrencies = map[string]struct{}{
	"USD": {}, "USDC": {}, "BTC": {}, "ETH": {},
	"SOL": {}, "DOGE": {}, "ADA": {}, "LTC": {},
}

// Client talks to the Coinbase Advanced Trade REST API. It owns the
// token issuer and a short-lived per-symbol precision cache; everything
// else is per-call.
type Client struct {
	baseURL string
	host    string
	issuer  *TokenIssuer
	http    *resty.Client

	precisionTTL time.Duration
	precMu       sync.Mutex
	precCache    map[string]precisionEntry
}

type Options struct {
	BaseURL      string
	PrecisionTTL time.Duration
}

func New(creds *Credentials, opts Options) (*Client, error) {
	issuer, err := NewTokenIssuer(creds)
	if err != nil {
		return nil, err
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return nil, apperrors.NewConfig("invalid api base url: "+baseURL, err)
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(tradeTimeout).
		SetHeader("User-Agent", "cbgate")

	return &Client{
		baseURL:      baseURL,
		host:         parsed.Host,
		issuer:       issuer,
		http:         httpClient,
		precisionTTL: opts.PrecisionTTL,
		precCache:    make(map[string]precisionEntry),
	}, nil
}

func (c *Client) Name() string {
	return "coinbase"
}

type orderEnvelope struct {
	Success         bool             `json:"success"`
	SuccessResponse *successResponse `json:"success_response"`
	ErrorResponse   *errorResponse   `json:"error_response"`
}

type successResponse struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Side      string `json:"side"`
}

type errorResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	ErrorDetails string `json:"error_details"`
}

// SubmitOrder validates the instruction, resolves precision, translates
// it into a limit order and posts it. The order is sent exactly once;
// transport failures and business rejections both surface as errors with
// no local state to roll back.
func (c *Client) SubmitOrder(ctx context.Context, instr model.TradeInstruction) (*model.OrderResult, error) {
	instr, err := ValidateInstruction(instr)
	if err != nil {
		return nil, err
	}

	precision, err := c.ResolvePrecision(ctx, instr.Symbol)
	if err != nil {
		return nil, err
	}

	order, err := TranslateOrder(instr, precision)
	if err != nil {
		return nil, err
	}

	headers, err := c.issuer.AuthHeaders(http.MethodPost, c.host, ordersPath)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, tradeTimeout)
	defer cancel()

	start := time.Now()
	var envelope orderEnvelope
	resp, err := c.http.R().
		SetContext(reqCtx).
		SetHeaders(headers).
		SetBody(order).
		SetResult(&envelope).
		SetError(&envelope).
		Post(ordersPath)
	metrics.UpstreamLatency.WithLabelValues("orders").Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, apperrors.NewNetwork("order request failed", err)
	}
	if resp.IsError() {
		return nil, apperrors.NewNetwork(fmt.Sprintf("order request returned %d", resp.StatusCode()), nil)
	}

	// A 2xx still carries the exchange's own success flag; false means
	// the order was rejected by business logic, not by transport.
	if !envelope.Success {
		reason, message, details := "unknown", "order rejected by exchange", ""
		if envelope.ErrorResponse != nil {
			if envelope.ErrorResponse.Error != "" {
				reason = envelope.ErrorResponse.Error
			}
			if envelope.ErrorResponse.Message != "" {
				message = envelope.ErrorResponse.Message
			}
			details = envelope.ErrorResponse.ErrorDetails
		}
		appErr := apperrors.Newf(apperrors.ErrValidation, "%s: %s", reason, message)
		appErr.Details = details
		return nil, appErr
	}

	result := &model.OrderResult{Raw: json.RawMessage(resp.Body())}
	if envelope.SuccessResponse != nil {
		result.OrderID = envelope.SuccessResponse.OrderID
		result.ProductID = envelope.SuccessResponse.ProductID
		result.Side = envelope.SuccessResponse.Side
	}
	logger.Info("order placed", "order_id", result.OrderID, "product_id", result.ProductID, "side", result.Side)
	return result, nil
}

type accountsResponse struct {
	Accounts []accountEntry `json:"accounts"`
	HasNext  bool           `json:"has_next"`
	Cursor   string         `json:"cursor"`
}

type accountEntry struct {
	Currency         string         `json:"currency"`
	AvailableBalance accountBalance `json:"available_balance"`
}

type accountBalance struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// ListBalances walks the paginated accounts endpoint and returns the
// formatted balance per known currency. It proves the whole
// credential/token path end to end.
func (c *Client) ListBalances(ctx context.Context) (map[string]string, error) {
	balances := make(map[string]string)
	cursor := ""

	for {
		headers, err := c.issuer.AuthHeaders(http.MethodGet, c.host, accountsPath)
		if err != nil {
			return nil, err
		}

		reqCtx, cancel := context.WithTimeout(ctx, tradeTimeout)

		req := c.http.R().
			SetContext(reqCtx).
			SetHeaders(headers).
			SetQueryParam("limit", fmt.Sprintf("%d", accountsPageLimit))
		if cursor != "" {
			req.SetQueryParam("cursor", cursor)
		}

		var page accountsResponse
		resp, err := req.SetResult(&page).Get(accountsPath)
		cancel()
		if err != nil {
			return nil, apperrors.NewNetwork("accounts request failed", err)
		}
		if resp.IsError() {
			return nil, apperrors.NewNetwork(fmt.Sprintf("accounts request returned %d", resp.StatusCode()), nil)
		}

		for _, account := range page.Accounts {
			if _, ok := knownCurrencies[account.Currency]; !ok {
				continue
			}
			balances[account.Currency] = fmt.Sprintf("%s %s", account.AvailableBalance.Value, account.AvailableBalance.Currency)
		}

		// A "has more" page without a cursor is terminal, never a loop.
		if !page.HasNext || page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	return balances, nil
}
