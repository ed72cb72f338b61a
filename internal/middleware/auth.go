package middleware

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cbgate/cbgate/internal/config"
	"github.com/cbgate/cbgate/internal/pkg/metrics"
	"github.com/gin-gonic/gin"
)

const HeaderWebhookKey = "X-Webhook-Key"

// WebhookAuthMiddleware enforces the shared webhook key and the
// optional source IP allow-list. TradingView cannot set custom headers,
// so the key is accepted either as the X-Webhook-Key header or as a
// passphrase field inside the JSON payload. The payload itself is
// validated downstream.
func WebhookAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(cfg.Auth.AllowedIPs))
	for _, ip := range cfg.Auth.AllowedIPs {
		allowed[strings.TrimSpace(ip)] = struct{}{}
	}

	return func(c *gin.Context) {
		if len(allowed) > 0 {
			if _, ok := allowed[clientIP(c)]; !ok {
				metrics.WebhookRejects.WithLabelValues("ip").Inc()
				c.JSON(http.StatusForbidden, gin.H{"error": "source IP not allowed"})
				c.Abort()
				return
			}
		}

		if cfg.Auth.WebhookKey != "" && !keyMatches(c, cfg.Auth.WebhookKey) {
			metrics.WebhookRejects.WithLabelValues("key").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook key"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func keyMatches(c *gin.Context, want string) bool {
	if header := c.GetHeader(HeaderWebhookKey); header != "" {
		return subtle.ConstantTimeCompare([]byte(header), []byte(want)) == 1
	}
	return subtle.ConstantTimeCompare([]byte(bodyPassphrase(c)), []byte(want)) == 1
}

// bodyPassphrase peeks at the JSON body for a passphrase field and
// restores the body for downstream binding.
func bodyPassphrase(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
	if err != nil {
		return ""
	}

	var payload struct {
		Passphrase string `json:"passphrase"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Passphrase
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the socket peer — the same order the upstream proxy populates them.
func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if real := c.GetHeader("X-Real-IP"); real != "" {
		return real
	}
	return c.ClientIP()
}
