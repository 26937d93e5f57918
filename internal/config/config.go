// Package config reads settings from an optional YAML profile, a .env file
// and the environment, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIURL    string `yaml:"api_url"`
	StatePath string `yaml:"state_path"`
	StoreKey  string `yaml:"store_key"`

	Gateway Gateway `yaml:"gateway"`
	Log     Log     `yaml:"log"`
	OTel    OTel    `yaml:"otel"`
}

type Gateway struct {
	Port         string        `yaml:"port"`
	Secret       string        `yaml:"secret"`
	Store        string        `yaml:"store"`
	DatabaseURL  string        `yaml:"database_url"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	RateRPS      int           `yaml:"rate_limit_rps"`
	RateBurst    int           `yaml:"rate_limit_burst"`
	SecureCookie bool          `yaml:"secure_cookie"`

	// StatePath is the gateway's own sqlite file, kept apart from the CLI's.
	StatePath      string   `yaml:"state_path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type OTel struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

func Default() Config {
	return Config{
		APIURL:    "http://localhost:8080/api",
		StatePath: defaultStatePath("state.db"),
		Gateway: Gateway{
			StatePath:  defaultStatePath("gateway.db"),
			Port:       "8090",
			Store:      "memory",
			SessionTTL: 24 * time.Hour,
			RateRPS:    5,
			RateBurst:  10,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

func defaultStatePath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mindconnect", name)
	}
	return filepath.Join(home, ".mindconnect", name)
}

// Load builds the config from defaults, the MINDCONNECT_CONFIG profile if
// set, then .env and environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg := Default()
	if path := os.Getenv("MINDCONNECT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.APIURL = env("MINDCONNECT_API_URL", c.APIURL)
	c.StatePath = env("MINDCONNECT_STATE", c.StatePath)
	c.StoreKey = env("MINDCONNECT_STORE_KEY", c.StoreKey)

	c.Gateway.Port = env("GATEWAY_PORT", c.Gateway.Port)
	c.Gateway.Secret = env("GATEWAY_SECRET", c.Gateway.Secret)
	c.Gateway.Store = env("GATEWAY_STORE", c.Gateway.Store)
	c.Gateway.DatabaseURL = env("DATABASE_URL", c.Gateway.DatabaseURL)
	c.Gateway.SessionTTL = readDuration("GATEWAY_SESSION_TTL", c.Gateway.SessionTTL)
	c.Gateway.RateRPS = readInt("RATE_LIMIT_RPS", c.Gateway.RateRPS)
	c.Gateway.RateBurst = readInt("RATE_LIMIT_BURST", c.Gateway.RateBurst)
	c.Gateway.SecureCookie = readBool("GATEWAY_SECURE_COOKIE", c.Gateway.SecureCookie)
	c.Gateway.StatePath = env("GATEWAY_STATE", c.Gateway.StatePath)
	c.Gateway.AllowedOrigins = readList("GATEWAY_ALLOWED_ORIGINS", c.Gateway.AllowedOrigins)

	c.Log.Level = env("LOG_LEVEL", c.Log.Level)
	c.Log.Format = env("LOG_FORMAT", c.Log.Format)

	c.OTel.Endpoint = env("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTel.Endpoint)
	c.OTel.Insecure = readBool("OTEL_EXPORTER_OTLP_INSECURE", c.OTel.Insecure)
}

// ValidateGateway checks what the gateway cannot start without.
func (c Config) ValidateGateway() error {
	if c.Gateway.Secret == "" {
		return fmt.Errorf("GATEWAY_SECRET is required")
	}
	switch c.Gateway.Store {
	case "memory":
	case "sqlite":
		if c.Gateway.StatePath == c.StatePath {
			return fmt.Errorf("GATEWAY_STATE must differ from the CLI state file %s", c.StatePath)
		}
	case "postgres":
		if c.Gateway.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown GATEWAY_STORE %q", c.Gateway.Store)
	}
	return nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

// readList splits a comma-separated value, dropping blanks.
func readList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readDuration accepts Go durations ("90m") or plain seconds.
func readDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
