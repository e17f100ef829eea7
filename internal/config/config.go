package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"snapChallengeAPI/internal/logger"
)

type Config struct {
	Port        string
	DatabaseURL string
	DBMaxConns  int32

	ClerkSecretKey     string
	ClerkWebhookSecret string
	SessionSecret      string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	RedisURL string

	MetricsUser         string
	MetricsPasswordHash string

	AllowedOrigins    []string
	TrustedProxies    []netip.Prefix
	BadgeWorkers      int
	ReconcileInterval time.Duration
}

// Load reads the process environment, after loading .env when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using process environment")
	}

	cfg := &Config{
		Port:                getEnv("PORT", "3333"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		ClerkSecretKey:      os.Getenv("CLERK_SECRET_KEY"),
		ClerkWebhookSecret:  os.Getenv("CLERK_WEBHOOK_SECRET"),
		SessionSecret:       os.Getenv("SESSION_SECRET"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		RedisURL:            os.Getenv("REDIS_URL"),
		MetricsUser:         os.Getenv("METRICS_USER"),
		MetricsPasswordHash: os.Getenv("METRICS_PASSWORD_HASH"),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}

	var err error
	if cfg.BadgeWorkers, err = getInt("BADGE_WORKERS", 4); err != nil {
		return nil, err
	}
	maxConns, err := getInt("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	cfg.DBMaxConns = int32(maxConns)

	if cfg.TrustedProxies, err = ParseTrustedProxies(os.Getenv("TRUSTED_PROXIES")); err != nil {
		return nil, err
	}

	if raw := os.Getenv("RECONCILE_INTERVAL"); raw != "" {
		cfg.ReconcileInterval, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid RECONCILE_INTERVAL %q: %w", raw, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if c.ClerkSecretKey == "" && c.SessionSecret == "" {
		return fmt.Errorf("either CLERK_SECRET_KEY or SESSION_SECRET must be set")
	}
	if c.ClerkSecretKey != "" && c.ClerkWebhookSecret == "" {
		return fmt.Errorf("CLERK_WEBHOOK_SECRET must be set when CLERK_SECRET_KEY is set")
	}
	if c.BadgeWorkers < 1 {
		return fmt.Errorf("BADGE_WORKERS must be at least 1")
	}
	return nil
}

func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// ParseTrustedProxies reads a comma separated list of IPs and CIDRs. A bare
// IP is treated as a single host prefix.
func ParseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, entry := range splitList(raw) {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
			}
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
