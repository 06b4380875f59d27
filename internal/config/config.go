package config

import "time"

type Duration struct {
	Duration time.Duration
}

func D(d time.Duration) Duration { return Duration{Duration: d} }

type HTTPConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	IdleTimeout       Duration `yaml:"idle_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `yaml:"max_request_bytes"`
	CORSOrigins       []string `yaml:"cors_origins"`
}

type DBConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret string   `yaml:"jwt_secret"`
	AccessTTL Duration `yaml:"access_ttl"`
}

type RedisConfig struct {
	// Addr empty means the in-memory quota store is used.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type EngineConfig struct {
	// Type is "mock" or "openai".
	Type        string   `yaml:"type"`
	Model       string   `yaml:"model"`
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	Timeout     Duration `yaml:"timeout"`
	OptionCount int      `yaml:"option_count"`
}

type QuotaConfig struct {
	DailyLimit int `yaml:"daily_limit"`
}

// ClientConfig drives the CLI side talking to a running API.
type ClientConfig struct {
	APIURL             string   `yaml:"api_url"`
	Token              string   `yaml:"token"`
	Timeout            Duration `yaml:"timeout"`
	MaxRetries         int      `yaml:"max_retries"`
	ProfileMinInterval Duration `yaml:"profile_min_interval"`
}

type Config struct {
	Env    string       `yaml:"env"`
	HTTP   HTTPConfig   `yaml:"http"`
	DB     DBConfig     `yaml:"db"`
	Auth   AuthConfig   `yaml:"auth"`
	Redis  RedisConfig  `yaml:"redis"`
	Engine EngineConfig `yaml:"engine"`
	Quota  QuotaConfig  `yaml:"quota"`
	Client ClientConfig `yaml:"client"`
}
