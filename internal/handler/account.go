package handler

import (
	"net/http"

	"github.com/cbgate/cbgate/internal/pkg/apperrors"
	"github.com/cbgate/cbgate/internal/service"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	svc *service.WebhookService
}

func NewAccountHandler(svc *service.WebhookService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// Balances probes exchange connectivity by listing account balances
func (h *AccountHandler) Balances(c *gin.Context) {
	balances, err := h.svc.Balances(c.Request.Context(), c.Query("exchange"))
	if err != nil {
		appErr := apperrors.Wrap(err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}
