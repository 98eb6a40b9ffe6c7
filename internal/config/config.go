package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Config is loaded once at process start and passed by injection.
// Nothing in the request path reads the environment directly.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres or mysql
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	Tripay struct {
		MerchantCode string `yaml:"merchant_code"`
		APIKey       string `yaml:"api_key"`
		PrivateKey   string `yaml:"private_key"` // shared signing key for callbacks
		BaseURL      string `yaml:"base_url"`
	} `yaml:"tripay"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Alerts struct {
		SMTPHost     string   `yaml:"smtp_host"`
		SMTPPort     int      `yaml:"smtp_port"`
		SMTPUser     string   `yaml:"smtp_user"`
		SMTPPassword string   `yaml:"smtp_password"`
		FromEmail    string   `yaml:"from_email"`
		Recipients   []string `yaml:"recipients"`
	} `yaml:"alerts"`

	Gateway GatewayConfig `yaml:"gateway"`
}

// GatewayConfig is the security surface of the callback pipeline.
type GatewayConfig struct {
	// EnableIPValidation chooses between hard 403 rejection (true) and
	// warn-only mode (false). Warn-only is a maintenance-window setting
	// for aggregator IP-range migrations: traffic from anywhere is
	// accepted and a medium-severity event is recorded instead.
	EnableIPValidation bool `yaml:"enable_ip_validation"`
	EnableRateLimiting bool `yaml:"enable_rate_limiting"`
	EnableEncryption   bool `yaml:"enable_encryption"`
	EnableStrictMode   bool `yaml:"enable_strict_mode"`

	// AllowedRanges are the aggregator sender CIDRs. Loopback is always
	// allowed regardless of this list.
	AllowedRanges []string `yaml:"allowed_ranges"`

	// Fixed-window limit for the callback endpoint.
	CallbackRateLimit  int `yaml:"callback_rate_limit"`
	CallbackRateWindow int `yaml:"callback_rate_window"` // seconds

	// RequestTimeout bounds end-to-end callback processing, in seconds.
	RequestTimeout int `yaml:"request_timeout"`

	// EncryptionKey is the AES-256 key (hex, 64 chars) for the stored
	// account-data helper. Key rotation is handled outside this service.
	EncryptionKey string `yaml:"encryption_key"`
}

// Load reads config.yaml, or builds the config entirely from environment
// variables when DATABASE_URL is set (container and test deployments).
func Load() (*Config, error) {
	var cfg Config

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.Driver = envOr("DATABASE_DRIVER", "postgres")
		cfg.Database.DSN = dsn
		cfg.Server.Env = envOr("SERVER_ENV", "production")
		cfg.Server.Port, _ = strconv.Atoi(envOr("SERVER_PORT", "4000"))

		cfg.Tripay.MerchantCode = os.Getenv("TRIPAY_MERCHANT_CODE")
		cfg.Tripay.APIKey = os.Getenv("TRIPAY_API_KEY")
		cfg.Tripay.PrivateKey = os.Getenv("TRIPAY_PRIVATE_KEY")
		cfg.Tripay.BaseURL = envOr("TRIPAY_BASE_URL", "https://tripay.co.id/api")

		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
		cfg.JWT.TTL = 60

		cfg.Gateway.EnableIPValidation = envBool("ENABLE_IP_VALIDATION", true)
		cfg.Gateway.EnableRateLimiting = envBool("ENABLE_RATE_LIMITING", true)
		cfg.Gateway.EnableEncryption = envBool("ENABLE_ENCRYPTION", true)
		cfg.Gateway.EnableStrictMode = envBool("ENABLE_STRICT_MODE", true)
		cfg.Gateway.AllowedRanges = defaultTripayRanges
		cfg.Gateway.CallbackRateLimit = 100
		cfg.Gateway.CallbackRateWindow = 60
		cfg.Gateway.RequestTimeout = 5
		cfg.Gateway.EncryptionKey = os.Getenv("ENCRYPTION_KEY")

		return applyDefaults(&cfg), nil
	}

	configPath := envOr("CONFIG_PATH", "config/config.yaml")
	f, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("open config file %s: %w", configPath, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
	}

	return applyDefaults(&cfg), nil
}

// defaultTripayRanges are Tripay's published callback sender ranges.
var defaultTripayRanges = []string{
	"103.117.57.0/24",
	"103.171.27.0/24",
}

func applyDefaults(cfg *Config) *Config {
	if cfg.Gateway.CallbackRateLimit <= 0 {
		cfg.Gateway.CallbackRateLimit = 100
	}
	if cfg.Gateway.CallbackRateWindow <= 0 {
		cfg.Gateway.CallbackRateWindow = 60
	}
	if cfg.Gateway.RequestTimeout <= 0 {
		cfg.Gateway.RequestTimeout = 5
	}
	if cfg.JWT.TTL <= 0 {
		cfg.JWT.TTL = 60
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
