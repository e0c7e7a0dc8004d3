// storewatch - Mobile App Listing Availability Monitor
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/storewatch/storewatch/internal/config"
	"github.com/storewatch/storewatch/internal/models"
)

// telegramBaseURL is the Telegram Bot API endpoint.
const telegramBaseURL = "https://api.telegram.org"

// TelegramNotifier delivers removal alerts via the Telegram Bot API.
// Disabled unless both a bot token and a chat id are configured.
type TelegramNotifier struct {
	client   *http.Client
	baseURL  string
	botToken string
	chatID   string
	enabled  bool
}

// TelegramOption customizes a TelegramNotifier.
type TelegramOption func(*TelegramNotifier)

// WithTelegramBaseURL overrides the API base URL. Used by tests.
func WithTelegramBaseURL(baseURL string) TelegramOption {
	return func(n *TelegramNotifier) {
		n.baseURL = baseURL
	}
}

// NewTelegram creates a Telegram notifier from configuration.
func NewTelegram(cfg config.NotifyConfig, opts ...TelegramOption) *TelegramNotifier {
	n := &TelegramNotifier{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:  telegramBaseURL,
		botToken: cfg.TelegramBotToken,
		chatID:   cfg.TelegramChatID,
		enabled:  cfg.TelegramEnabled && cfg.TelegramBotToken != "" && cfg.TelegramChatID != "",
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name returns the channel identifier.
func (n *TelegramNotifier) Name() string { return "telegram" }

// Enabled reports whether the channel is configured and active.
func (n *TelegramNotifier) Enabled() bool { return n.enabled }

// sendMessageRequest is the Telegram sendMessage API payload.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// apiResponse is the Telegram API response envelope.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// Send delivers one removal alert as a Markdown message.
func (n *TelegramNotifier) Send(ctx context.Context, app *models.WatchedApp, event *models.AlertEvent) error {
	if !n.enabled {
		return nil
	}

	text := fmt.Sprintf("🚨 *App Removed Alert* 🚨\n\nName: %s\nID: %s\nPlatform: %s\nTime: %s",
		event.AppName,
		event.PackageID,
		event.Platform,
		event.AlertTime.Format(time.RFC3339),
	)

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("failed to decode telegram response: %w", err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram API error %d: %s", apiResp.ErrorCode, apiResp.Description)
	}

	return nil
}
