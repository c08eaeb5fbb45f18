package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juju/errors"

	"github.com/xiaot623/catalogbot/internal/domain"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// Sender delivers replies to a Telegram chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard domain.KeyboardHint) error
}

// Client is an HTTP client for the Telegram Bot API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Bot API client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// KeyboardButton is one button of a reply keyboard.
type KeyboardButton struct {
	Text string `json:"text"`
}

// ReplyKeyboardMarkup is a custom keyboard shown under the input field.
type ReplyKeyboardMarkup struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

// SendMessageRequest is the body of sendMessage.
type SendMessageRequest struct {
	ChatID      int64                `json:"chat_id"`
	Text        string               `json:"text"`
	ReplyMarkup *ReplyKeyboardMarkup `json:"reply_markup,omitempty"`
}

// APIResponse is the envelope of every Bot API response.
type APIResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Keyboard builds the reply markup for a keyboard hint, one button per row.
func Keyboard(hint domain.KeyboardHint) *ReplyKeyboardMarkup {
	buttons := hint.Buttons()
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]KeyboardButton, 0, len(buttons))
	for _, label := range buttons {
		rows = append(rows, []KeyboardButton{{Text: label}})
	}
	return &ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

// SendMessage calls POST /bot{token}/sendMessage.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard domain.KeyboardHint) error {
	body, err := json.Marshal(SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: Keyboard(keyboard),
	})
	if err != nil {
		return errors.Annotate(err, "failed to marshal sendMessage request")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Annotate(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// The request URL embeds the token; keep it out of the error.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return errors.Annotate(err, "failed to call sendMessage")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return errors.Errorf("telegram returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode != http.StatusOK || !apiResp.OK {
		return errors.Errorf("telegram error %d: %s", apiResp.ErrorCode, apiResp.Description)
	}
	return nil
}
