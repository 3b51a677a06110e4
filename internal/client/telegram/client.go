package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultApiUrl  = "https://api.telegram.org"
	requestTimeout = 30 * time.Second
	parseModeHTML  = "HTML"
)

var ErrDelivery = errors.New("telegram delivery failed")

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	Ok          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

type Client struct {
	logger     *zap.Logger
	ApiUrl     string
	botToken   string
	httpClient *http.Client
}

func NewClient(logger *zap.Logger, apiUrl, botToken string) *Client {
	if apiUrl == "" {
		apiUrl = DefaultApiUrl
	}
	return &Client{
		logger:   logger,
		ApiUrl:   strings.TrimRight(apiUrl, "/"),
		botToken: botToken,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Send posts text to chatID using HTML parse mode.
func (c *Client) Send(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.ApiUrl, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %s", ErrDelivery, c.redact(err.Error()))
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending telegram message", zap.String("chat", chatID), zap.Int("length", len(text)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the request URL, which contains the bot token
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("%w: %s", ErrDelivery, c.redact(err.Error()))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", ErrDelivery, err)
	}

	var ar apiResponse
	decodeErr := json.Unmarshal(respBody, &ar)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := strings.TrimSpace(string(respBody))
		if decodeErr == nil && ar.Description != "" {
			reason = ar.Description
		}
		return fmt.Errorf("%w (HTTP %d): %s", ErrDelivery, resp.StatusCode, reason)
	}
	if decodeErr == nil && !ar.Ok {
		return fmt.Errorf("%w: %s", ErrDelivery, ar.Description)
	}

	c.logger.Info("Message successfully sent to Telegram", zap.String("chat", chatID))
	return nil
}

func (c *Client) redact(s string) string {
	if c.botToken == "" {
		return s
	}
	return strings.ReplaceAll(s, c.botToken, "<redacted>")
}
