package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string         `yaml:"env"` // "dev" or "prod"
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Mail     MailConfig     `yaml:"mail"`
	Limits   LimitsConfig   `yaml:"limits"`
	Storage  StorageConfig  `yaml:"storage"`
	Privacy  PrivacyConfig  `yaml:"privacy"`
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// LogFormat is the configured log format, text in dev and json elsewhere by default.
func (c *Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	if c.IsDev() {
		return "text"
	}
	return "json"
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RequestTimeout string   `yaml:"request_timeout"`
	// TrustedProxies is how many reverse proxies sit in front of the server. Only that many
	// X-Forwarded-For entries, read from the right, are believed.
	TrustedProxies int `yaml:"trusted_proxies"`
}

// Timeout returns the per-request timeout, falling back to 60 seconds.
func (s ServerConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(s.RequestTimeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

type MailConfig struct {
	Provider     string `yaml:"provider"` // "resend" or "log"
	APIKey       string `yaml:"api_key"`
	From         string `yaml:"from"`
	To           string `yaml:"to"`
	SupportEmail string `yaml:"support_email"`
}

// Enabled reports whether outgoing mail can actually be delivered.
func (m MailConfig) Enabled() bool {
	return m.Provider == "resend" && m.APIKey != "" && m.From != "" && m.To != ""
}

type LimitsConfig struct {
	SubmitMax    int    `yaml:"submit_max"`
	SubmitWindow string `yaml:"submit_window"`
}

// Max returns the submissions allowed per window, falling back to 10.
func (l LimitsConfig) Max() int {
	if l.SubmitMax <= 0 {
		return 10
	}
	return l.SubmitMax
}

// Window returns the parsed rate limit window, falling back to 15 minutes.
func (l LimitsConfig) Window() time.Duration {
	d, err := time.ParseDuration(l.SubmitWindow)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

type StorageConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`
	S3Prefix string `yaml:"s3_prefix"`
}

type PrivacyConfig struct {
	AddressSalt string `yaml:"address_salt"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Env:      "dev",
		Server:   ServerConfig{Addr: ":3001", RequestTimeout: "60s"},
		Database: DatabaseConfig{Path: "_workspace/db/helpdesk.db"},
		Log:      LogConfig{Level: "info"},
		Mail: MailConfig{
			Provider:     "resend",
			SupportEmail: "allears@estl.edu.sg",
		},
		Limits:  LimitsConfig{SubmitMax: 10, SubmitWindow: "15m"},
		Storage: StorageConfig{S3Region: "ap-southeast-1", S3Prefix: "helpdesk"},
	}
}

// Load builds the configuration from defaults, the YAML file at path, a .env file and
// the process environment, in increasing order of priority. A missing file is not an error.
func Load(path string) (*Config, error) {
	// Missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := Default()
	if env := os.Getenv("HELPDESK_ENV"); env != "" {
		cfg.Env = env
	}

	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("HELPDESK_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("HELPDESK_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HELPDESK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HELPDESK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := firstEnv("HELPDESK_LOG_FORMAT", "LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("HELPDESK_TRUSTED_PROXIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Server.TrustedProxies = n
		}
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" && cfg.Mail.APIKey == "" {
		cfg.Mail.APIKey = v
	}
	if v := os.Getenv("HELPDESK_MAIL_API_KEY"); v != "" {
		cfg.Mail.APIKey = v
	}
	if v := os.Getenv("HELPDESK_MAIL_PROVIDER"); v != "" {
		cfg.Mail.Provider = v
	}
	if v := firstEnv("HELPDESK_MAIL_FROM", "EMAIL_FROM"); v != "" {
		cfg.Mail.From = v
	}
	if v := firstEnv("HELPDESK_MAIL_TO", "EMAIL_TO"); v != "" {
		cfg.Mail.To = v
	}
	if v := os.Getenv("HELPDESK_SUPPORT_EMAIL"); v != "" {
		cfg.Mail.SupportEmail = v
	}
	if v := os.Getenv("HELPDESK_SUBMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Limits.SubmitMax = n
		}
	}
	if v := os.Getenv("HELPDESK_SUBMIT_WINDOW"); v != "" {
		cfg.Limits.SubmitWindow = v
	}
	if v := os.Getenv("HELPDESK_S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("HELPDESK_S3_REGION"); v != "" {
		cfg.Storage.S3Region = v
	}
	if v := os.Getenv("HELPDESK_ADDRESS_SALT"); v != "" {
		cfg.Privacy.AddressSalt = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
