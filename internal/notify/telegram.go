package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wanwatch/internal/config"
	"wanwatch/internal/version"

	"go.uber.org/zap"
)

// TelegramNotifier represents Telegram notifier
type TelegramNotifier struct {
	config *config.TelegramConfig
	logger *zap.Logger
	client *http.Client
}

// TelegramMessage represents Telegram message
type TelegramMessage struct {
	ChatID              string `json:"chat_id"`
	Text                string `json:"text"`
	ParseMode           string `json:"parse_mode,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

// NewTelegramNotifier creates new Telegram notifier
func NewTelegramNotifier(cfg *config.TelegramConfig, logger *zap.Logger) (*TelegramNotifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram bot token and chat ID are required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  true,
			MaxIdleConnsPerHost: 5,
		},
	}

	return &TelegramNotifier{
		config: cfg,
		logger: logger.Named("telegram"),
		client: client,
	}, nil
}

// Send sends text to the configured chat
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	msg := TelegramMessage{
		ChatID:              n.config.ChatID,
		Text:                text,
		ParseMode:           n.config.Format,
		DisableNotification: n.config.Silent,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		// The URL embeds the token; keep it out of the error
		return fmt.Errorf("failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", redactURL(err))
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			n.logger.Error("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errorResp struct {
			Description string `json:"description"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil || errorResp.Description == "" {
			return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
		}
		return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, errorResp.Description)
	}

	n.logger.Debug("Notification sent", zap.String("chat_id", n.config.ChatID))
	return nil
}
