package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://gateway:pw@localhost:5432/gateway")
	t.Setenv("TRIPAY_MERCHANT_CODE", "T12345")
	t.Setenv("TRIPAY_PRIVATE_KEY", "private-key")
	t.Setenv("ENABLE_IP_VALIDATION", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.DSN != "postgres://gateway:pw@localhost:5432/gateway" {
		t.Errorf("DSN = %q", cfg.Database.DSN)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want the postgres default", cfg.Database.Driver)
	}
	if cfg.Tripay.MerchantCode != "T12345" {
		t.Errorf("MerchantCode = %q", cfg.Tripay.MerchantCode)
	}
	if cfg.Gateway.EnableIPValidation {
		t.Error("ENABLE_IP_VALIDATION=false must turn enforcement off")
	}
	if !cfg.Gateway.EnableRateLimiting {
		t.Error("rate limiting must default on")
	}
	if len(cfg.Gateway.AllowedRanges) == 0 {
		t.Error("env mode must fall back to the published sender ranges")
	}
	if cfg.Gateway.CallbackRateLimit != 100 || cfg.Gateway.CallbackRateWindow != 60 {
		t.Errorf("rate limit defaults = %d/%ds", cfg.Gateway.CallbackRateLimit, cfg.Gateway.CallbackRateWindow)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 8080
  env: development
database:
  driver: mysql
  dsn: "gateway:pw@tcp(localhost:3306)/gateway"
tripay:
  merchant_code: T99999
  private_key: file-key
gateway:
  enable_ip_validation: true
  allowed_ranges:
    - 10.0.0.0/8
  callback_rate_limit: 25
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Driver = %q", cfg.Database.Driver)
	}
	if !cfg.Gateway.EnableIPValidation {
		t.Error("enable_ip_validation: true not honored")
	}
	if len(cfg.Gateway.AllowedRanges) != 1 || cfg.Gateway.AllowedRanges[0] != "10.0.0.0/8" {
		t.Errorf("AllowedRanges = %v", cfg.Gateway.AllowedRanges)
	}
	if cfg.Gateway.CallbackRateLimit != 25 {
		t.Errorf("CallbackRateLimit = %d", cfg.Gateway.CallbackRateLimit)
	}
	if cfg.Gateway.CallbackRateWindow != 60 {
		t.Errorf("CallbackRateWindow = %d, want the default", cfg.Gateway.CallbackRateWindow)
	}
	if cfg.JWT.TTL != 60 {
		t.Errorf("JWT.TTL = %d, want the default", cfg.JWT.TTL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Error("a missing config file must be an error")
	}
}
