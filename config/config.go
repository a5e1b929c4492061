package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	APIBaseURL       string        `envconfig:"API_BASE_URL"`
	PublicAPIURL     string        `envconfig:"PUBLIC_API_URL"`
	GatewayPort      string        `envconfig:"GATEWAY_PORT"            default:":8080"`
	LogLevel         string        `envconfig:"LOG_LEVEL"               default:"info"`
	AppEnv           string        `envconfig:"APP_ENV"                 default:"production"`
	ProductFallback  bool          `envconfig:"PRODUCT_LOOKUP_FALLBACK" default:"false"`
	JSONTimeout      time.Duration `envconfig:"JSON_TIMEOUT"            default:"15s"`
	MultipartTimeout time.Duration `envconfig:"MULTIPART_TIMEOUT"       default:"30s"`
	CartIdleTTL      time.Duration `envconfig:"CART_IDLE_TTL"           default:"2h"`
	MaxSessions      int           `envconfig:"MAX_SESSIONS"            default:"10000"`
}

var ErrNoBackendURL = errors.New("configuration error: neither PUBLIC_API_URL nor API_BASE_URL is set")

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig(logger *logrus.Logger) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.Warnf("Error loading .env file (but continuing): %v", err)
	} else if err == nil {
		logger.Info("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Infof("Configuration loaded: Port=%s, LogLevel=%s, Env=%s", cfg.GatewayPort, cfg.LogLevel, cfg.AppEnv)
	if cfg.PublicAPIURL != "" {
		logger.Infof("Configuration loaded: backend (public) URL=%s", cfg.PublicAPIURL)
	} else {
		logger.Infof("Configuration loaded: backend (server) URL=%s", cfg.APIBaseURL)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.PublicAPIURL) == "" && strings.TrimSpace(c.APIBaseURL) == "" {
		return ErrNoBackendURL
	}
	if c.JSONTimeout <= 0 || c.MultipartTimeout <= 0 {
		return errors.New("configuration error: timeouts must be positive")
	}
	if c.MaxSessions < 0 {
		return errors.New("configuration error: MAX_SESSIONS must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, EnvDevelopment)
}

// ProductFallbackEnabled reports whether the list-and-filter lookup for single
// products may be used. It is never honored outside development.
func (c *Config) ProductFallbackEnabled() bool {
	return c.ProductFallback && c.IsDevelopment()
}
