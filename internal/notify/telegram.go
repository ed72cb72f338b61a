package notify

import (
	"context"
	"time"

	"github.com/cbgate/cbgate/internal/pkg/logger"
	"github.com/go-resty/resty/v2"
)

// maxMessageLen is Telegram's sendMessage ceiling
const maxMessageLen = 4096

// Notifier delivers out-of-band trade notifications. Implementations
// are best-effort: they log failures and never return them.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Telegram posts plain-text messages to a chat. Disabled (no-op) when
// token or chat id are unset, so the webhook path never depends on it.
type Telegram struct {
	token  string
	chatID string
	http   *resty.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:  token,
		chatID: chatID,
		http: resty.New().
			SetBaseURL("https://api.telegram.org").
			SetTimeout(5 * time.Second),
	}
}

func (t *Telegram) Notify(ctx context.Context, text string) {
	if t.token == "" || t.chatID == "" {
		logger.Debug("telegram not configured, skipping notification")
		return
	}

	text = truncateMessage(text)

	resp, err := t.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"chat_id": t.chatID, "text": text}).
		Post("/bot" + t.token + "/sendMessage")
	if err != nil {
		logger.Warn("telegram sendMessage error", "error", err)
		return
	}
	if resp.IsError() {
		logger.Warn("telegram sendMessage failed", "status", resp.StatusCode(), "body", resp.String())
	}
}

func truncateMessage(text string) string {
	if len(text) <= maxMessageLen {
		return text
	}
	logger.Info("telegram message truncated", "length", len(text), "max", maxMessageLen)
	return text[:maxMessageLen-3] + "..."
}

// Noop drops all notifications
type Noop struct{}

func (Noop) Notify(ctx context.Context, text string) {}
