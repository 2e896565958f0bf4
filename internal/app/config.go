package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	MediaBaseURL string `default:"" usage:"Base URL for uploaded media (e.g. https://cdn.example.com/media)" flag:"media-base-url"`
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
	Notify       NotifyConfig
	Views        ViewsConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// NotifyConfig configures order announcements. An empty BotToken logs
// announcements instead of sending them.
type NotifyConfig struct {
	BotToken string        `usage:"Telegram bot token (SHOP_NOTIFY_BOT_TOKEN)" flag:"notify-bot-token"`
	ChatID   int64         `usage:"Telegram chat or channel id receiving orders" flag:"notify-chat-id"`
	AdminURL string        `usage:"Admin order page base, the order id and /change are appended" flag:"notify-admin-url"`
	Currency string        `default:"so'm" usage:"Currency suffix of the order total" flag:"notify-currency"`
	Timeout  time.Duration `default:"15s" usage:"Timeout of a single delivery attempt" flag:"notify-timeout"`
	Endpoint string        `usage:"Bot API endpoint override, format https://host/bot%s/%s" flag:"notify-endpoint"`
}

// ViewsConfig sizes the in-process product view dedupe filter.
type ViewsConfig struct {
	Capacity          uint    `default:"100000" usage:"Distinct (fingerprint, product) keys before the filter resets" flag:"views-capacity"`
	FalsePositiveRate float64 `default:"0.001" usage:"Dedupe filter false positive rate" flag:"views-fp-rate"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		Files: []string{"config.yaml", "/etc/shop/config.yaml"},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	ac.EnvPrefix = "SHOP"
	ac.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Notify.BotToken != "" && cfg.Notify.ChatID == 0 {
		return nil, errors.New("notify chat id is required when a bot token is set")
	}
	if cfg.RateLimit.Max <= 0 || cfg.RateLimit.Window <= 0 {
		return nil, errors.Errorf("rate limit max and window must be positive, got %d per %s",
			cfg.RateLimit.Max, cfg.RateLimit.Window)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
