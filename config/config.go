// Package config loads process settings from the environment (and an optional .env file).
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Port           string
	AllowedOrigins string
	ClaimStore     string
	DatabaseURL    string
	AdminAPIToken  string

	RobloxUsersURL      string
	RobloxThumbnailsURL string
	RobloxPresenceURL   string
	LookupTimeout       time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	BotUsername string
	StoreName   string

	R2 R2Config

	ExportInterval    time.Duration
	ExportSettleDelay time.Duration
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Enabled reports whether enough R2 settings are present to upload exports.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.AccessKeySecret != "" && r.Bucket != ""
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, so tests can supply a map.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:                withDefault(getenv("PORT"), "5000"),
		AllowedOrigins:      normalizeOrigins(withDefault(getenv("ALLOWED_ORIGINS"), "http://localhost:3000")),
		ClaimStore:          strings.ToLower(withDefault(getenv("CLAIM_STORE"), StorePostgres)),
		DatabaseURL:         getenv("DATABASE_URL"),
		AdminAPIToken:       getenv("ADMIN_API_TOKEN"),
		RobloxUsersURL:      withDefault(getenv("ROBLOX_USERS_URL"), "https://users.roblox.com"),
		RobloxThumbnailsURL: withDefault(getenv("ROBLOX_THUMBNAILS_URL"), "https://thumbnails.roblox.com"),
		RobloxPresenceURL:   withDefault(getenv("ROBLOX_PRESENCE_URL"), "https://presence.roblox.com"),
		BotUsername:         withDefault(getenv("BOT_USERNAME"), "MM2Bot"),
		StoreName:           withDefault(getenv("STORE_NAME"), "MM2 Items"),
		R2: R2Config{
			AccountID:       getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      getenv("CDN_BASE_URL"),
		},
	}

	var err error
	if cfg.LookupTimeout, err = parseDuration(getenv, "LOOKUP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ExportInterval, err = parseDuration(getenv, "EXPORT_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ExportSettleDelay, err = parseDuration(getenv, "EXPORT_SETTLE_DELAY", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = parseFloat(getenv, "RATE_LIMIT_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = parseInt(getenv, "RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}

	switch cfg.ClaimStore {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable not set (or use CLAIM_STORE=memory)")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("CLAIM_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.ClaimStore)
	}

	if cfg.AdminAPIToken == "" {
		log.Println("⚠️  ADMIN_API_TOKEN not set, admin routes will reject every request")
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// normalizeOrigins trims spaces around each comma-separated origin.
func normalizeOrigins(raw string) string {
	origins := strings.Split(raw, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return strings.Join(origins, ",")
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, raw)
	}
	return d, nil
}

func parseFloat(getenv func(string) string, key string, def float64) (float64, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number", key, raw)
	}
	return f, nil
}

func parseInt(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, raw)
	}
	return n, nil
}
