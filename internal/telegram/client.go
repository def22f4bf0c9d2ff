package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.telegram.org"

	// Telegram caps messages at 4096 chars; stay comfortably under it so
	// Markdown entities cut by truncation don't reject the whole send.
	maxReplyChars  = 3500
	truncateSuffix = "\n…(truncated)"

	// Headroom on top of the server-side long-poll duration so the
	// request deadline outlives the poll whatever timeout is configured.
	longPollSlack = 10 * time.Second

	sendTimeout = 30 * time.Second
)

// Chat identifies a Telegram chat.
type Chat struct {
	ID int64 `json:"id"`
}

// Message is the inbound message payload of an update. Non-text updates
// (photos, stickers, service messages) arrive with an empty Text.
type Message struct {
	MessageID int    `json:"message_id"`
	Text      string `json:"text"`
	Chat      Chat   `json:"chat"`
}

// Update is one entry of a getUpdates response.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// APIResponse is the Telegram Bot API envelope.
type APIResponse struct {
	OK          bool     `json:"ok"`
	Description string   `json:"description"`
	Result      []Update `json:"result"`
}

// Client is a minimal Telegram Bot API client covering exactly the two
// calls the assistant needs: getUpdates and sendMessage.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Telegram client for the given bot token. Request
// deadlines are set per call: getUpdates scales with its poll timeout, so
// a blanket client timeout would cap the configurable poll duration.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// GetUpdates long-polls for updates after the given offset. limit bounds
// the batch size and timeoutSec the server-side poll duration.
func (c *Client) GetUpdates(ctx context.Context, offset int64, limit, timeoutSec int) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second+longPollSlack)
	defer cancel()

	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("timeout", strconv.Itoa(timeoutSec))
	params.Set("allowed_updates", `["message"]`)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL("getUpdates")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var api APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, fmt.Errorf("failed to decode getUpdates response: %w", err)
	}
	if !api.OK {
		return nil, fmt.Errorf("telegram API error: %s", api.Description)
	}
	return api.Result, nil
}

// SendMessage delivers text to a chat, optionally as a reply. Oversized
// text is truncated before sending.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyTo int) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       TruncateReply(text),
		"parse_mode": "Markdown",
	}
	if replyTo != 0 {
		payload["reply_to_message_id"] = replyTo
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}
	return nil
}
