package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/juju/loggo/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/catalogbot/internal/adapter/telegram"
	"github.com/xiaot623/catalogbot/internal/service"
)

var logger = loggo.GetLogger("catalogbot.transport.http")

// SecretTokenHeader carries the secret_token registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const deliveryTimeout = 30 * time.Second

// WebhookHandler receives Telegram updates.
type WebhookHandler struct {
	service *service.Service
	sender  telegram.Sender
	secret  string
}

// NewWebhookHandler creates a new webhook handler. An empty secret disables
// the secret token check.
func NewWebhookHandler(svc *service.Service, sender telegram.Sender, secret string) *WebhookHandler {
	return &WebhookHandler{
		service: svc,
		sender:  sender,
		secret:  secret,
	}
}

// RegisterRoutes registers the webhook route.
func (h *WebhookHandler) RegisterRoutes(e *echo.Echo, path string) {
	e.POST(path, h.HandleUpdate, middleware.BodyLimit("1M"))
}

// HandleUpdate dispatches one update to the conversation engine and delivers
// the replies.
// POST {WEBHOOK_PATH}
func (h *WebhookHandler) HandleUpdate(c echo.Context) error {
	req := c.Request()

	mediaType, _, err := mime.ParseMediaType(req.Header.Get(echo.HeaderContentType))
	if err != nil || mediaType != echo.MIMEApplicationJSON {
		return c.String(http.StatusForbidden, "Access Denied")
	}
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(req.Header.Get(SecretTokenHeader)), []byte(h.secret)) != 1 {
		return c.String(http.StatusForbidden, "Access Denied")
	}

	var update telegram.Update
	if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
		return c.String(http.StatusBadRequest, "Bad Request")
	}

	chatID, text, ok := update.TextMessage()
	if !ok {
		return c.String(http.StatusOK, "OK")
	}

	// Replies are still delivered if Telegram drops the request.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), deliveryTimeout)
	defer cancel()

	for _, r := range h.service.HandleMessage(ctx, strconv.FormatInt(chatID, 10), text) {
		if err := h.sender.SendMessage(ctx, chatID, r.Text, r.Keyboard); err != nil {
			logger.Errorf("failed to deliver reply to chat %d: %v", chatID, err)
		}
	}

	return c.String(http.StatusOK, "OK")
}
