package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/resumine/resumine/internal/assistant"
	"github.com/resumine/resumine/internal/auth"
	"github.com/resumine/resumine/internal/database"
	"github.com/resumine/resumine/pkg/mail"
)

// Config is the root application configuration, loaded from an optional YAML
// file and RESUMINE_ prefixed environment variables.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Email       EmailConfig       `mapstructure:"email"`
	Assistant   AssistantConfig   `mapstructure:"assistant"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string            `mapstructure:"driver"`
	Path     string            `mapstructure:"path"`
	DSN      string            `mapstructure:"dsn"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	Name     string            `mapstructure:"name"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Options  map[string]string `mapstructure:"options"`
}

type AuthConfig struct {
	JWTSecret        string        `mapstructure:"jwt_secret"`
	Issuer           string        `mapstructure:"issuer"`
	AccessTokenTTL   time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `mapstructure:"refresh_token_ttl"`
	LockoutThreshold int           `mapstructure:"lockout_threshold"`
	LockoutDuration  time.Duration `mapstructure:"lockout_duration"`

	Google GoogleConfig `mapstructure:"google"`

	Reset ResetFlowConfig `mapstructure:"reset"`
}

type GoogleConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// ResetFlowConfig tunes the password reset flow.
type ResetFlowConfig struct {
	CodeTTL      time.Duration `mapstructure:"code_ttl"`
	ResendWindow time.Duration `mapstructure:"resend_window"`
}

type EmailConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type AssistantConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	BaseURL string         `mapstructure:"base_url"`
	APIKey  string         `mapstructure:"api_key"`
	Model   string         `mapstructure:"model"`
	Timeout time.Duration  `mapstructure:"timeout"`
	Options map[string]any `mapstructure:"options"`
}

type MonitoringConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

type MaintenanceConfig struct {
	SessionSweepSchedule string `mapstructure:"session_sweep_schedule"`
}

// LoadConfig reads configuration from the given file (optional) and the
// environment. Environment variables override file values, e.g.
// RESUMINE_SERVER_PORT or RESUMINE_AUTH_JWT_SECRET.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("RESUMINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/resumine")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read config file: %w", err)
			}
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/resumine.db")

	v.SetDefault("auth.issuer", "resumine")
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "720h")
	v.SetDefault("auth.lockout_threshold", 5)
	v.SetDefault("auth.lockout_duration", "15m")
	v.SetDefault("auth.reset.code_ttl", "10m")
	v.SetDefault("auth.reset.resend_window", "2m")

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.port", 587)
	v.SetDefault("email.timeout", "10s")

	v.SetDefault("assistant.enabled", false)
	v.SetDefault("assistant.timeout", "60s")

	v.SetDefault("monitoring.log_level", "info")
	v.SetDefault("monitoring.log_format", "json")
	v.SetDefault("monitoring.metrics_enabled", true)

	v.SetDefault("maintenance.session_sweep_schedule", "@hourly")
}

// Validate checks the settings that have no workable fallback.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: auth.jwt_secret is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Auth.Google.Enabled {
		if c.Auth.Google.ClientID == "" || c.Auth.Google.ClientSecret == "" {
			return errors.New("config: google sign-in enabled without client credentials")
		}
	}
	if c.Assistant.Enabled && strings.TrimSpace(c.Assistant.BaseURL) == "" {
		return errors.New("config: assistant enabled without base_url")
	}
	return nil
}

// DatabaseSettings converts the section into the database package's config.
func (c *Config) DatabaseSettings() database.Config {
	return database.Config{
		Driver:   c.Database.Driver,
		Path:     c.Database.Path,
		DSN:      c.Database.DSN,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Name:     c.Database.Name,
		User:     c.Database.User,
		Password: c.Database.Password,
		Options:  c.Database.Options,
	}
}

// SMTPSettings converts the email section for the mail package.
func (c *Config) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.Email.Enabled,
		Host:     c.Email.Host,
		Port:     c.Email.Port,
		Username: c.Email.Username,
		Password: c.Email.Password,
		From:     c.Email.From,
		UseTLS:   c.Email.UseTLS,
		Timeout:  c.Email.Timeout,
	}
}

// AssistantSettings converts the assistant section for the assistant package.
func (c *Config) AssistantSettings() assistant.Config {
	return assistant.Config{
		Enabled: c.Assistant.Enabled,
		BaseURL: c.Assistant.BaseURL,
		APIKey:  c.Assistant.APIKey,
		Model:   c.Assistant.Model,
		Timeout: c.Assistant.Timeout,
		Options: c.Assistant.Options,
	}
}

// GoogleSettings converts the google section for the auth package.
func (c *Config) GoogleSettings() auth.GoogleConfig {
	return auth.GoogleConfig{
		Enabled:      c.Auth.Google.Enabled,
		ClientID:     c.Auth.Google.ClientID,
		ClientSecret: c.Auth.Google.ClientSecret,
		RedirectURL:  c.Auth.Google.RedirectURL,
	}
}
