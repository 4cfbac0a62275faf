package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Persist modes for generated matches.
const (
	PersistModeAppend  = "append"
	PersistModeReplace = "replace"
)

// ConfigFileEnv names the environment variable pointing at an optional YAML file.
const ConfigFileEnv = "MATCHMAKER_CONFIG"

// Config holds application configuration
type Config struct {
	DatabaseURL string `koanf:"database_url"`
	JWTSecret   string `koanf:"jwt_secret"`
	Port        string `koanf:"port"`
	Environment string `koanf:"env"`
	LogLevel    string `koanf:"log_level"`
	RedisURL    string `koanf:"redis_url"`

	// PushgatewayURL receives metrics from one-shot CLI runs when set
	PushgatewayURL string `koanf:"pushgateway_url"`

	// Security configuration
	AllowedOrigins  string `koanf:"allowed_origins"`
	TrustedProxies  string `koanf:"trusted_proxies"`
	EnableRateLimit bool   `koanf:"enable_rate_limit"`
	EnableSecurity  bool   `koanf:"enable_security"`
	MaxRequestSize  int64  `koanf:"max_request_size"`

	// Match generation
	MatchTopK        int           `koanf:"match_top_k"`
	ScoringWorkers   int           `koanf:"scoring_workers"`
	MatchPersistMode string        `koanf:"match_persist_mode"`
	RunLockTTL       time.Duration `koanf:"run_lock_ttl"`
	PendingLimit     int           `koanf:"pending_limit"`
}

// New returns a configuration populated with defaults only.
func New() *Config {
	return &Config{
		Port:             "8080",
		Environment:      "development",
		LogLevel:         "info",
		EnableRateLimit:  true,
		MaxRequestSize:   1 * 1024 * 1024, // 1MB default
		MatchTopK:        5,
		ScoringWorkers:   runtime.NumCPU(),
		MatchPersistMode: PersistModeAppend,
		RunLockTTL:       5 * time.Minute,
	}
}

// Load layers defaults, an optional YAML file named by MATCHMAKER_CONFIG, and
// environment variables (DATABASE_URL, PORT, MATCH_TOP_K, ...), in that order.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.MatchTopK <= 0 {
		return fmt.Errorf("match_top_k must be positive, got %d", c.MatchTopK)
	}
	if c.ScoringWorkers <= 0 {
		return fmt.Errorf("scoring_workers must be positive, got %d", c.ScoringWorkers)
	}
	switch c.MatchPersistMode {
	case PersistModeAppend, PersistModeReplace:
	default:
		return fmt.Errorf("match_persist_mode must be %q or %q, got %q", PersistModeAppend, PersistModeReplace, c.MatchPersistMode)
	}
	if c.PendingLimit < 0 {
		return fmt.Errorf("pending_limit must not be negative, got %d", c.PendingLimit)
	}
	if c.RunLockTTL <= 0 {
		return fmt.Errorf("run_lock_ttl must be positive, got %s", c.RunLockTTL)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasRedis returns true if a Redis URL is configured for the run lock
func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	return splitAndTrim(c.AllowedOrigins)
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return splitAndTrim(c.TrustedProxies)
}

// IsSecurityEnabled returns true if security features should be enabled
func (c *Config) IsSecurityEnabled() bool {
	return c.IsProduction() || c.EnableSecurity
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
