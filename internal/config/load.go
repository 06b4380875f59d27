package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/gitrec/internal/platform/envutil"
)

// UnmarshalYAML accepts "5s" style strings or an integer number of seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	s := strings.TrimSpace(node.Value)
	if s == "" || s == "null" || s == "~" {
		d.Duration = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Duration = time.Duration(n) * time.Second
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration must look like \"5s\" or an int seconds: %w", err)
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

func Default() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: D(5 * time.Second),
			IdleTimeout:       D(2 * time.Minute),
			ShutdownTimeout:   D(15 * time.Second),
			MaxRequestBytes:   1 << 20,
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
		},
		DB: DBConfig{
			Driver: "sqlite",
			DSN:    "gitrec.db?_busy_timeout=5000",
		},
		Auth: AuthConfig{
			AccessTTL: D(24 * time.Hour),
		},
		Engine: EngineConfig{
			Type:        "mock",
			Model:       "gpt-4o-mini",
			Timeout:     D(60 * time.Second),
			OptionCount: 2,
		},
		Quota: QuotaConfig{DailyLimit: 20},
		Client: ClientConfig{
			APIURL:             "http://localhost:8080",
			Timeout:            D(60 * time.Second),
			ProfileMinInterval: D(5 * time.Second),
		},
	}
}

// Load applies defaults, then the YAML file at path (or GITREC_CONFIG, or
// ./config/gitrec.yaml when present), then environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	cfgPath := strings.TrimSpace(path)
	if cfgPath == "" {
		cfgPath = envutil.String("GITREC_CONFIG", "")
	}
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "gitrec.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfgPath, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)
	cfg.HTTP.Addr = envutil.String("GITREC_HTTP_ADDR", cfg.HTTP.Addr)
	if v := envutil.String("GITREC_CORS_ORIGINS", ""); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}

	cfg.DB.Driver = envutil.String("GITREC_DB_DRIVER", cfg.DB.Driver)
	cfg.DB.DSN = envutil.String("GITREC_DB_DSN", cfg.DB.DSN)

	cfg.Auth.JWTSecret = envutil.String("JWT_SECRET_KEY", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTTL.Duration = envutil.Duration("GITREC_ACCESS_TTL", cfg.Auth.AccessTTL.Duration)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)

	cfg.Engine.Type = envutil.String("GITREC_ENGINE", cfg.Engine.Type)
	cfg.Engine.APIKey = envutil.String("OPENAI_API_KEY", cfg.Engine.APIKey)
	cfg.Engine.Model = envutil.String("OPENAI_MODEL", cfg.Engine.Model)
	cfg.Engine.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.Engine.BaseURL)

	cfg.Quota.DailyLimit = envutil.Int("GITREC_DAILY_LIMIT", cfg.Quota.DailyLimit)

	cfg.Client.APIURL = envutil.String("GITREC_API_URL", cfg.Client.APIURL)
	cfg.Client.Token = envutil.String("GITREC_TOKEN", cfg.Client.Token)
	cfg.Client.MaxRetries = envutil.Int("GITREC_MAX_RETRIES", cfg.Client.MaxRetries)
	cfg.Client.ProfileMinInterval.Duration = envutil.Duration("GITREC_PROFILE_MIN_INTERVAL", cfg.Client.ProfileMinInterval.Duration)
}

// Validate normalizes enumerations and fills zero values that have a safe
// default. It does not require server secrets; see ValidateServer.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Env) == "" {
		c.Env = "development"
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.MaxRequestBytes <= 0 {
		c.HTTP.MaxRequestBytes = 1 << 20
	}

	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	switch c.DB.Driver {
	case "postgres", "postgresql":
		c.DB.Driver = "postgres"
	case "sqlite", "sqlite3":
		c.DB.Driver = "sqlite"
	default:
		return fmt.Errorf("invalid db.driver=%q", c.DB.Driver)
	}

	c.Engine.Type = strings.ToLower(strings.TrimSpace(c.Engine.Type))
	switch c.Engine.Type {
	case "", "mock":
		c.Engine.Type = "mock"
	case "openai":
		if strings.TrimSpace(c.Engine.Model) == "" {
			return errors.New("engine.model is required for the openai engine")
		}
	default:
		return fmt.Errorf("invalid engine.type=%q", c.Engine.Type)
	}
	if c.Engine.OptionCount <= 0 {
		c.Engine.OptionCount = 2
	}
	if c.Engine.Timeout.Duration <= 0 {
		c.Engine.Timeout = D(60 * time.Second)
	}

	if c.Quota.DailyLimit < 0 {
		return fmt.Errorf("invalid quota.daily_limit=%d", c.Quota.DailyLimit)
	}
	if c.Auth.AccessTTL.Duration <= 0 {
		c.Auth.AccessTTL = D(24 * time.Hour)
	}

	c.Client.APIURL = strings.TrimRight(strings.TrimSpace(c.Client.APIURL), "/")
	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("invalid client.max_retries=%d", c.Client.MaxRetries)
	}
	if c.Client.ProfileMinInterval.Duration < 0 {
		return errors.New("client.profile_min_interval must not be negative")
	}
	return nil
}

// ValidateServer checks what the API process needs on top of Validate.
func (c *Config) ValidateServer() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("JWT_SECRET_KEY (auth.jwt_secret) is required")
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		return errors.New("db.dsn is required")
	}
	if c.Engine.Type == "openai" && strings.TrimSpace(c.Engine.APIKey) == "" {
		return errors.New("OPENAI_API_KEY is required for the openai engine")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
