// Package http provides the HTTP server: the Telegram webhook, health and the
// read-only catalog API.
package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/catalogbot/internal/adapter/telegram"
	"github.com/xiaot623/catalogbot/internal/config"
	"github.com/xiaot623/catalogbot/internal/hub"
	"github.com/xiaot623/catalogbot/internal/service"
	v1 "github.com/xiaot623/catalogbot/internal/transport/http/v1"
	"github.com/xiaot623/catalogbot/internal/transport/ws"
)

// Server is the public HTTP server.
type Server struct {
	echo    *echo.Echo
	service *service.Service
	hub     *hub.Hub
}

// NewServer creates the HTTP server. The catalog API is mounted only when an
// API key is configured, the console WebSocket route only when h is not nil.
func NewServer(cfg *config.Config, svc *service.Service, sender telegram.Sender, h *hub.Hub) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		service: svc,
		hub:     h,
	}

	// Handlers
	webhook := NewWebhookHandler(svc, sender, cfg.WebhookSecret)

	// Register Routes
	e.GET("/", s.handleIndex)
	e.GET("/health", s.handleHealth)
	webhook.RegisterRoutes(e, cfg.WebhookPath)
	if cfg.APIKey != "" {
		v1.NewHandler(svc, cfg.APIKey).RegisterRoutes(e)
	} else {
		logger.Infof("API_KEY is not set; catalog API disabled")
	}
	if h != nil {
		e.GET("/ws", ws.NewServer(cfg, h, svc).HandleWebSocket)
	}

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.String(http.StatusOK, "Bot is running.")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(c echo.Context) error {
	connections, consoleSessions := 0, 0
	if s.hub != nil {
		connections = s.hub.ConnectionCount()
		consoleSessions = s.hub.SessionCount()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"sessions":         s.service.SessionCount(),
		"connections":      connections,
		"console_sessions": consoleSessions,
	})
}
