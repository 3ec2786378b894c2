package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Session store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type AppConfig struct {
	APIBaseURL string
	ListenAddr string
	APITimeout time.Duration

	SessionStore string
	SessionDB    string
	SessionTTL   time.Duration
	RedisAddr    string
	RedisPass    string
	CookieSecure bool
	BcryptCost   int

	CacheTTL       time.Duration
	AllowedOrigins []string
	LogLevel       string

	UploadMaxWidth  int
	UploadMaxHeight int
	UploadQuality   int

	RevalidationURL    string
	RevalidationSecret string
}

// LoadEnvFile reads a .env file into the environment. A missing default file is fine.
func LoadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("no .env file found, relying on system env vars")
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to load env file %s", path)
	}
	return nil
}

// Load reads the configuration from the environment. Malformed values fall back to their
// defaults with a warning; Validate reports what cannot be defaulted.
func Load() AppConfig {
	return AppConfig{
		APIBaseURL: strings.TrimRight(getEnv("API_BASE_URL", ""), "/"),
		ListenAddr: getEnv("LISTEN_ADDR", ":8082"),
		APITimeout: getDuration("API_TIMEOUT", 15*time.Second),

		SessionStore: strings.ToLower(getEnv("SESSION_STORE", StoreSQLite)),
		SessionDB:    getEnv("SESSION_DB", "./data/admin.db"),
		SessionTTL:   getDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:    getEnv("REDIS_PASSWORD", ""),
		CookieSecure: getBool("COOKIE_SECURE", false),
		BcryptCost:   getInt("BCRYPT_COST", bcrypt.DefaultCost),

		CacheTTL:       getDuration("CACHE_TTL", 5*time.Minute),
		AllowedOrigins: getList("ALLOWED_ORIGINS"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		UploadMaxWidth:  getInt("UPLOAD_MAX_WIDTH", 1920),
		UploadMaxHeight: getInt("UPLOAD_MAX_HEIGHT", 1080),
		UploadQuality:   getInt("UPLOAD_QUALITY", 85),

		RevalidationURL:    getEnv("NEXT_REVALIDATION_URL", ""),
		RevalidationSecret: getEnv("REVALIDATION_SECRET", ""),
	}
}

func (c AppConfig) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("API_BASE_URL must be an http(s) URL, got %q", c.APIBaseURL)
	}
	switch c.SessionStore {
	case StoreSQLite, StoreRedis:
	default:
		return errors.Errorf("SESSION_STORE must be %q or %q, got %q", StoreSQLite, StoreRedis, c.SessionStore)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return errors.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.UploadQuality < 1 || c.UploadQuality > 100 {
		return errors.Errorf("UPLOAD_QUALITY must be between 1 and 100, got %d", c.UploadQuality)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Dur("default", fallback).Msg("bad duration, using default")
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Int("default", fallback).Msg("bad integer, using default")
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Bool("default", fallback).Msg("bad boolean, using default")
		return fallback
	}
	return b
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
