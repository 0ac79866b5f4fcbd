// Package alerts delivers bot notifications over Telegram. Delivery is
// best effort: a dead network or a bad token degrades to log lines and
// never interrupts a scan cycle.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production Telegram Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Config wires a Telegram sender. StatusChatID is optional and falls
// back to AlertsChatID when empty.
type Config struct {
	BaseURL      string
	BotToken     string
	AlertsChatID string
	StatusChatID string
}

// Telegram sends Markdown messages to the configured chats.
type Telegram struct {
	baseURL    string
	token      string
	alertsChat string
	statusChat string
	client     *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewTelegram creates a sender. With no token the sender stays usable
// but drops every message with a debug log.
func NewTelegram(cfg Config, log zerolog.Logger) *Telegram {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	status := cfg.StatusChatID
	if status == "" {
		status = cfg.AlertsChatID
	}
	return &Telegram{
		baseURL:    base,
		token:      cfg.BotToken,
		alertsChat: cfg.AlertsChatID,
		statusChat: status,
		client:     &http.Client{Timeout: 15 * time.Second},
		// Telegram allows roughly one message per second per chat.
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
		log:     log.With().Str("component", "telegram").Logger(),
	}
}

// Enabled reports whether the sender has credentials to deliver with.
func (t *Telegram) Enabled() bool {
	return t.token != "" && t.alertsChat != ""
}

// SendAlert delivers a trade alert to the alerts chat. It reports
// whether the message was accepted by Telegram.
func (t *Telegram) SendAlert(ctx context.Context, text string) bool {
	return t.send(ctx, t.alertsChat, text)
}

// SendStatus delivers an operational message, the heartbeat mostly, to
// the status chat.
func (t *Telegram) SendStatus(ctx context.Context, text string) bool {
	return t.send(ctx, t.statusChat, text)
}

func (t *Telegram) send(ctx context.Context, chatID, text string) bool {
	if t.token == "" || chatID == "" {
		t.log.Debug().Msg("telegram not configured, dropping message")
		return false
	}
	if err := t.limiter.Wait(ctx); err != nil {
		t.log.Warn().Err(err).Msg("telegram send cancelled while rate limited")
		return false
	}

	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to encode telegram payload")
		return false
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		t.log.Error().Err(err).Msg("failed to build telegram request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.Warn().Err(err).Msg("telegram send failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		t.log.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(snippet)).
			Msg("telegram rejected message")
		return false
	}
	return true
}

// EscapeMarkdown neutralizes the characters Telegram's Markdown parser
// chokes on inside dynamic text such as ticker names.
func EscapeMarkdown(s string) string {
	r := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return r.Replace(s)
}
