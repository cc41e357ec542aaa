package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultAPIBase  = "https://api.telegram.org"
	telegramTimeout = 30 * time.Second

	// responseBodyLimit bounds how much of an error response ends up in
	// logs and error strings.
	responseBodyLimit = 300
)

// Telegram delivers messages through the Bot API sendMessage endpoint.
type Telegram struct {
	client *resty.Client
	token  string
	chatID string
}

// TelegramOption adjusts a Telegram notifier at construction time.
type TelegramOption func(*Telegram)

// WithBaseURL points the notifier at an alternate API host. Tests use
// this to target an httptest server.
func WithBaseURL(base string) TelegramOption {
	return func(t *Telegram) {
		t.client.SetBaseURL(base)
	}
}

// NewTelegram builds a notifier for the given bot token and chat.
func NewTelegram(token, chatID string, opts ...TelegramOption) *Telegram {
	client := resty.New()
	client.SetBaseURL(defaultAPIBase)
	client.SetTimeout(telegramTimeout)

	t := &Telegram{client: client, token: token, chatID: chatID}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Notify posts the message. The sink parses HTML markup in the body and
// link previews are suppressed. A non-2xx response or transport failure
// is returned to the caller, which logs and swallows it.
func (t *Telegram) Notify(ctx context.Context, message string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":                  t.chatID,
			"text":                     message,
			"parse_mode":               "HTML",
			"disable_web_page_preview": "true",
		}).
		Post("/bot" + t.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram responded %d: %s", resp.StatusCode(), truncate(resp.String(), responseBodyLimit))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
