// Package config provides configuration for the catalog console.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the catalog console configuration.
type Config struct {
	// Server settings
	HTTPPort      int
	WebhookPath   string
	WebhookSecret string

	// Database
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnMaxIdle  time.Duration
	AutoMigrate    bool

	// Bootstrap data for local runs
	SeedAdminUsername string
	SeedAdminPassword string
	SeedAttributes    []string

	// Telegram settings
	TelegramToken   string
	TelegramAPIURL  string
	TelegramTimeout time.Duration

	// Sessions
	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration

	// Credentials
	AdminRoles     []string
	PasswordScheme string

	// Read-only catalog API; not mounted while empty
	APIKey string

	// Add-product flow
	StrictProductInput bool

	// WebSocket console settings
	WSEnabled      bool
	WSAPIKey       string
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64

	// Logging
	LogLevel string
}

// LoadDotEnv loads variables from the given .env files (or ./.env) into the
// process environment. Variables that are already set win.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:               getEnvInt("HTTP_PORT", 8080),
		WebhookPath:            getEnv("WEBHOOK_PATH", "/api/index"),
		WebhookSecret:          getEnv("WEBHOOK_SECRET", ""),
		DatabaseURL:            databaseURL(),
		DBMaxOpenConns:         getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:         getEnvInt("DB_MAX_IDLE_CONNS", 1),
		DBConnMaxIdle:          time.Duration(getEnvInt("DB_CONN_MAX_IDLE_TIME_MS", 300000)) * time.Millisecond,
		AutoMigrate:            getEnvBool("AUTO_MIGRATE", true),
		SeedAdminUsername:      getEnv("SEED_ADMIN_USERNAME", ""),
		SeedAdminPassword:      getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedAttributes:         getEnvList("SEED_ATTRIBUTES", nil),
		TelegramToken:          getEnv("TELEGRAM_TOKEN", ""),
		TelegramAPIURL:         getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		TelegramTimeout:        time.Duration(getEnvInt("TELEGRAM_TIMEOUT_MS", 10000)) * time.Millisecond,
		SessionTTL:             time.Duration(getEnvInt("SESSION_TTL_MS", 1800000)) * time.Millisecond,
		SessionCleanupInterval: time.Duration(getEnvInt("SESSION_CLEANUP_INTERVAL_MS", 60000)) * time.Millisecond,
		AdminRoles:             getEnvList("ADMIN_ROLES", []string{"admin"}),
		PasswordScheme:         strings.ToLower(getEnv("PASSWORD_SCHEME", "plain")),
		APIKey:                 getEnv("API_KEY", ""),
		StrictProductInput:     getEnvBool("STRICT_PRODUCT_INPUT", false),
		WSEnabled:              getEnvBool("WS_ENABLED", true),
		WSAPIKey:               getEnv("WS_API_KEY", ""),
		PingInterval:           time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:           time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:            time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxMessageSize:         int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}
}

// databaseURL prefers DATABASE_URL and falls back to a Postgres DSN built
// from the DB_* variables when DB_HOST is set.
func databaseURL() string {
	if dsn := getEnv("DATABASE_URL", ""); dsn != "" {
		return dsn
	}
	host := getEnv("DB_HOST", "")
	if host == "" {
		return "file:catalogbot.db?mode=rwc"
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, getEnvInt("DB_PORT", 5432)),
		Path:   "/" + getEnv("DB_NAME", ""),
	}
	if user := getEnv("DB_USER", ""); user != "" {
		u.User = url.UserPassword(user, getEnv("DB_PASS", ""))
	}
	q := url.Values{}
	q.Set("sslmode", getEnv("DB_SSLMODE", "require"))
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
