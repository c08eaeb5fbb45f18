package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/xiaot623/catalogbot/internal/adapter/telegram"
	"github.com/xiaot623/catalogbot/internal/auth"
	"github.com/xiaot623/catalogbot/internal/config"
	"github.com/xiaot623/catalogbot/internal/hub"
	"github.com/xiaot623/catalogbot/internal/repository"
	"github.com/xiaot623/catalogbot/internal/service"
	"github.com/xiaot623/catalogbot/internal/session"
	handler "github.com/xiaot623/catalogbot/internal/transport/http"
)

var logger = loggo.GetLogger("catalogbot")

func main() {
	if err := run(); err != nil {
		logger.Criticalf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	if err := config.LoadDotEnv(); err != nil && !os.IsNotExist(err) {
		logger.Warningf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	if err := loggo.ConfigureLoggers("<root>=" + strings.ToUpper(cfg.LogLevel)); err != nil {
		logger.Warningf("invalid LOG_LEVEL %q: %v", cfg.LogLevel, err)
	}

	logger.Infof("starting catalogbot...")
	logger.Infof("HTTP port: %d", cfg.HTTPPort)
	logger.Infof("webhook path: %s", cfg.WebhookPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	db, err := repository.Open(cfg.DatabaseURL, repository.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdleTime: cfg.DBConnMaxIdle,
	})
	if err != nil {
		return errors.Annotate(err, "failed to initialize store")
	}
	logger.Infof("database: %s", db.Dialect())

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return errors.Annotate(err, "failed to migrate schema")
		}
		if err := db.Seed(ctx, repository.SeedOptions{
			AdminUsername: cfg.SeedAdminUsername,
			AdminPassword: cfg.SeedAdminPassword,
			Attributes:    cfg.SeedAttributes,
		}); err != nil {
			db.Close()
			return errors.Annotate(err, "failed to seed store")
		}
	}
	store := repository.NewSQLStore(db)
	defer store.Close()

	// Initialize credential gate
	policy, err := auth.NewPolicy(ctx, auth.DefaultPolicy, cfg.AdminRoles)
	if err != nil {
		return errors.Annotate(err, "failed to initialize credential policy")
	}
	matcher, err := auth.MatcherFor(cfg.PasswordScheme)
	if err != nil {
		return errors.Annotate(err, "failed to initialize password matcher")
	}
	gate := auth.NewGate(store, matcher, policy)

	// Initialize sessions
	sessions := session.NewMemoryStore(cfg.SessionTTL, nil)
	janitor := session.NewJanitor(sessions, cfg.SessionCleanupInterval, nil)
	janitor.Start(ctx)
	defer janitor.Stop()

	// Initialize service
	svc := service.New(store, gate, sessions, service.Options{
		StrictProductInput: cfg.StrictProductInput,
	})

	// Initialize Telegram client
	if cfg.TelegramToken == "" {
		logger.Warningf("TELEGRAM_TOKEN is not set; replies to Telegram will fail")
	}
	tg := telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramToken, cfg.TelegramTimeout)

	// Initialize console hub
	var consoleHub *hub.Hub
	if cfg.WSEnabled {
		consoleHub = hub.NewHub()
		go consoleHub.Run(ctx)
	}

	server := handler.NewServer(cfg, svc, tg, consoleHub)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.Infof("HTTP server started on port %d", cfg.HTTPPort)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return errors.Annotate(err, "failed to start HTTP server")
	}

	logger.Infof("shutting down catalogbot...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warningf("failed to shutdown HTTP server gracefully: %v", err)
	}

	logger.Infof("catalogbot stopped")
	return nil
}
