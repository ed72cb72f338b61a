package coinbase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cbgate/cbgate/internal/model"
	"github.com/cbgate/cbgate/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func exchangeStub(t *testing.T, orders func(w http.ResponseWriter, body OrderRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v3/brokerage/products/BTC-USD":
			json.NewEncoder(w).Encode(productResponse{
				BaseIncrement:  "0.00000001",
				QuoteIncrement: "0.01",
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v3/brokerage/orders":
			assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var body OrderRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			orders(w, body)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestSubmitOrderSuccess(t *testing.T) {
	server := exchangeStub(t, func(w http.ResponseWriter, body OrderRequest) {
		assert.Equal(t, "BTC-USD", body.ProductID)
		assert.Equal(t, "SELL", body.Side)
		assert.NotEmpty(t, body.ClientOrderID)
		limit := body.OrderConfiguration.LimitGTC
		assert.NotNil(t, limit)
		// $100 at $50,000 reference converts to 0.002 base units
		assert.Equal(t, "0.002", limit.BaseSize)
		assert.Empty(t, limit.QuoteSize)
		assert.Equal(t, "50000", limit.LimitPrice)

		json.NewEncoder(w).Encode(orderEnvelope{
			Success: true,
			SuccessResponse: &successResponse{
				OrderID:   "order-123",
				ProductID: "BTC-USD",
				Side:      "SELL",
			},
		})
	})
	defer server.Close()

	client := testClient(t, server.URL, 0)

	result, err := client.SubmitOrder(context.Background(), model.TradeInstruction{
		Symbol:         "BTC-USD",
		Side:           "sell",
		QuantityType:   model.QuantityCash,
		Quantity:       decimal.NewFromInt(100),
		ReferencePrice: decimal.NewFromInt(50000),
	})
	assert.NoError(t, err)
	assert.Equal(t, "order-123", result.OrderID)
	assert.Equal(t, "BTC-USD", result.ProductID)
	assert.Equal(t, "SELL", result.Side)
	assert.NotEmpty(t, result.Raw)
}

func TestSubmitOrderExchangeRejection(t *testing.T) {
	server := exchangeStub(t, func(w http.ResponseWriter, body OrderRequest) {
		json.NewEncoder(w).Encode(orderEnvelope{
			Success: false,
			ErrorResponse: &errorResponse{
				Error:        "INSUFFICIENT_FUND",
				Message:      "Insufficient balance in source account",
				ErrorDetails: "needs 100 USD",
			},
		})
	})
	defer server.Close()

	client := testClient(t, server.URL, 0)

	_, err := client.SubmitOrder(context.Background(), model.TradeInstruction{
		Symbol:         "BTC-USD",
		Side:           model.SideBuy,
		QuantityType:   model.QuantityCash,
		Quantity:       decimal.NewFromInt(100),
		ReferencePrice: decimal.NewFromInt(50000),
	})

	var appErr *apperrors.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrValidation, appErr.Type)
	assert.Contains(t, appErr.Message, "INSUFFICIENT_FUND")
	assert.Equal(t, "needs 100 USD", appErr.Details)
}

func TestSubmitOrderTransportFailure(t *testing.T) {
	server := exchangeStub(t, func(w http.ResponseWriter, body OrderRequest) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer server.Close()

	client := testClient(t, server.URL, 0)

	_, err := client.SubmitOrder(context.Background(), model.TradeInstruction{
		Symbol:         "BTC-USD",
		Side:           model.SideBuy,
		QuantityType:   model.QuantityCash,
		Quantity:       decimal.NewFromInt(100),
		ReferencePrice: decimal.NewFromInt(50000),
	})
	assertNetworkError(t, err)
}

func TestSubmitOrderValidatesBeforeNetwork(t *testing.T) {
	// No server at all: a bad instruction must fail before any request
	creds, _ := testCredentials(t)
	client, err := New(creds, Options{BaseURL: "http://127.0.0.1:1"})
	assert.NoError(t, err)

	_, err = client.SubmitOrder(context.Background(), model.TradeInstruction{
		Symbol:       "BTC-USD",
		Side:         model.SideSell,
		QuantityType: model.QuantityCash,
		Quantity:     decimal.NewFromInt(100),
		// ReferencePrice missing
	})
	assertValidationError(t, err)
}

func TestListBalancesPagination(t *testing.T) {
	pages := []accountsResponse{
		{
			Accounts: []accountEntry{
				{Currency: "USD", AvailableBalance: accountBalance{Value: "1000.00", Currency: "USD"}},
				{Currency: "SHIB", AvailableBalance: accountBalance{Value: "9999", Currency: "SHIB"}},
			},
			HasNext: true,
			Cursor:  "page-2",
		},
		{
			Accounts: []accountEntry{
				{Currency: "BTC", AvailableBalance: accountBalance{Value: "0.5", Currency: "BTC"}},
			},
			HasNext: true,
			Cursor:  "page-3",
		},
		{
			Accounts: []accountEntry{
				{Currency: "ETH", AvailableBalance: accountBalance{Value: "2", Currency: "ETH"}},
			},
			HasNext: false,
		},
	}
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		assert.Equal(t, "/api/v3/brokerage/accounts", r.URL.Path)
		switch r.URL.Query().Get("cursor") {
		case "":
			calls++
			json.NewEncoder(w).Encode(pages[0])
		case "page-2":
			calls++
			json.NewEncoder(w).Encode(pages[1])
		case "page-3":
			calls++
			json.NewEncoder(w).Encode(pages[2])
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)

	balances, err := client.ListBalances(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, map[string]string{
		"USD": "1000.00 USD",
		"BTC": "0.5 BTC",
		"ETH": "2 ETH",
	}, balances)
}

func TestListBalancesMissingCursorTerminates(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		// has_next claims more pages but gives no cursor to follow
		json.NewEncoder(w).Encode(accountsResponse{
			Accounts: []accountEntry{
				{Currency: "USD", AvailableBalance: accountBalance{Value: "10", Currency: "USD"}},
			},
			HasNext: true,
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)

	balances, err := client.ListBalances(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "10 USD", balances["USD"])
}

func TestListBalancesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0)

	_, err := client.ListBalances(context.Background())
	assertNetworkError(t, err)
}

func assertNetworkError(t *testing.T, err error) {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Type != apperrors.ErrNetwork {
		t.Fatalf("expected NETWORK_ERROR, got %s", appErr.Type)
	}
}
