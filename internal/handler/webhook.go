package handler

import (
	"net/http"

	"github.com/cbgate/cbgate/internal/middleware"
	"github.com/cbgate/cbgate/internal/model"
	"github.com/cbgate/cbgate/internal/pkg/apperrors"
	"github.com/cbgate/cbgate/internal/service"
	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	svc *service.WebhookService
}

func NewWebhookHandler(svc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload model.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload: " + err.Error()})
		return
	}

	middleware.AddAuditContext(c, "symbol", payload.Symbol)
	middleware.AddAuditContext(c, "action", payload.Action)

	resp, err := h.svc.Handle(c.Request.Context(), payload)
	if err != nil {
		appErr := apperrors.Wrap(err)
		middleware.AddAuditContext(c, "error", appErr.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if resp.Order != nil {
		middleware.AddAuditContext(c, "order_id", resp.Order.OrderID)
	}
	middleware.AddAuditContext(c, "status", resp.Status)

	c.JSON(http.StatusOK, resp)
}
