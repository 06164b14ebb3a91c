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

type Config struct {
	ServerPort int
	LogLevel   string

	APIBaseURL string
	APITimeout time.Duration

	StorageDSN string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	SessionInitWait time.Duration
	SessionIdleTTL  time.Duration
	LoginRate       int
	CookieSecure    bool
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	return FromEnv()
}

// FromEnv reads the process environment without touching .env.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		APIBaseURL: os.Getenv("API_BASE_URL"),
		APITimeout: EnvDurationDefault("API_TIMEOUT", 5*time.Second),

		StorageDSN: EnvDefault("STORAGE_DSN", "file:storefront.db"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "product"),

		SessionInitWait: EnvDurationDefault("SESSION_INIT_WAIT", 2*time.Second),
		SessionIdleTTL:  EnvDurationDefault("SESSION_IDLE_TTL", 30*time.Minute),
		LoginRate:       EnvIntDefault("LOGIN_RATE", 10),
		CookieSecure:    EnvBoolDefault("COOKIE_SECURE", false),
	}

	if err := must(cfg.APIBaseURL, "API_BASE_URL"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func must(v, name string) error {
	if v == "" {
		return fmt.Errorf("missing required env %s", name)
	}
	return nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
