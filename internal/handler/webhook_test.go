package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cbgate/cbgate/internal/exchange"
	"github.com/cbgate/cbgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func webhookRouter(dryRun bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewWebhookService("coinbase", map[string]exchange.Exchange{}, nil, dryRun)
	h := NewWebhookHandler(svc)

	r := gin.New()
	r.POST("/v1/webhook", h.Receive)
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReceiveDryRun(t *testing.T) {
	r := webhookRouter(true)

	w := postJSON(r, `{"symbol":"BTC-USD","action":"buy","quantity_type":"cash","quantity":100,"close":50000}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)
	assert.Contains(t, w.Body.String(), `"dry_run":true`)
}

func TestReceiveMalformedJSON(t *testing.T) {
	r := webhookRouter(true)

	w := postJSON(r, `{"symbol":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid JSON payload")
}

func TestReceiveMissingRequiredFields(t *testing.T) {
	r := webhookRouter(true)

	w := postJSON(r, `{"symbol":"BTC-USD"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceiveInvalidAction(t *testing.T) {
	r := webhookRouter(true)

	w := postJSON(r, `{"symbol":"BTC-USD","action":"hold","quantity_type":"cash","quantity":100,"close":50000}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestReceiveMissingClose(t *testing.T) {
	r := webhookRouter(true)

	w := postJSON(r, `{"symbol":"BTC-USD","action":"buy","quantity_type":"cash","quantity":100}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "close_price is required")
}

func TestReceiveUnconfiguredExchange(t *testing.T) {
	r := webhookRouter(false)

	w := postJSON(r, `{"symbol":"BTC-USD","action":"buy","quantity_type":"cash","quantity":100,"close":50000}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "CONFIG_ERROR")
}
