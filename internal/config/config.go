package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"wanwatch/internal/types"
	"wanwatch/internal/validator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete monitor configuration
type Config struct {
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Geo      GeoConfig      `mapstructure:"geo"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Log      LogConfig      `mapstructure:"log"`
}

// MonitorConfig represents the check loop configuration
type MonitorConfig struct {
	ID            string        `mapstructure:"id" validate:"required"`
	Hostname      string        `mapstructure:"hostname"`
	CheckInterval int           `mapstructure:"check_interval" validate:"min=1"` // seconds
	Mode          types.RunMode `mapstructure:"mode" validate:"oneof=once continuous"`
	FaultBackoff  time.Duration `mapstructure:"fault_backoff" validate:"gt=0"`
}

// Interval returns the check interval as a duration
func (cfg *MonitorConfig) Interval() time.Duration {
	return time.Duration(cfg.CheckInterval) * time.Second
}

// ResolverConfig represents external address lookup configuration
type ResolverConfig struct {
	Providers []ProviderConfig `mapstructure:"providers" validate:"min=1,dive"`
	Timeout   time.Duration    `mapstructure:"timeout" validate:"gt=0"`
}

// ProviderConfig represents one address lookup service
type ProviderConfig struct {
	Name   string `mapstructure:"name" validate:"required"`
	URL    string `mapstructure:"url" validate:"required,url"`
	Schema string `mapstructure:"schema" validate:"oneof=ip origin"` // response field holding the address
}

// GeoConfig represents geolocation lookup configuration
type GeoConfig struct {
	URL     string        `mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// envBindings maps config keys to the environment variables that set them
var envBindings = map[string]string{
	"monitor.id":             "MONITOR_ID",
	"monitor.check_interval": "CHECK_INTERVAL",
	"monitor.mode":           "RUN_MODE",
	"monitor.fault_backoff":  "FAULT_BACKOFF",
	"telegram.bot_token":     "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":       "TELEGRAM_CHAT_ID",
	"telegram.api_url":       "TELEGRAM_API_URL",
	"geo.url":                "GEO_API_URL",
	"relay.enabled":          "RELAY_ENABLED",
	"relay.listen":           "RELAY_LISTEN",
	"log.level":              "LOG_LEVEL",
	"log.file":               "LOG_FILE",
}

// LoadConfig loads configuration from the environment and an optional
// YAML file. An explicit path must exist; otherwise the search paths are
// tried and a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(AppName)
		v.AddConfigPath(InDot)
		v.AddConfigPath(InHome)
		v.AddConfigPath(InHomeDot)
		v.AddConfigPath(InEtc)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	setViperDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setViperDefaults registers scalar defaults
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("monitor.check_interval", 300)
	v.SetDefault("monitor.mode", string(types.RunModeContinuous))
	v.SetDefault("monitor.fault_backoff", 60*time.Second)
	v.SetDefault("resolver.timeout", 10*time.Second)
	v.SetDefault("geo.url", "http://ip-api.com")
	v.SetDefault("geo.timeout", 10*time.Second)
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.format", "HTML")
	v.SetDefault("telegram.timeout", 10*time.Second)
	v.SetDefault("relay.listen", ":3000")
	v.SetDefault("relay.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
}

// setDefaults sets default values viper cannot express
func setDefaults(config *Config) {
	if config.Monitor.ID == "" {
		config.Monitor.ID = uuid.New().String()
	}

	if config.Monitor.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		config.Monitor.Hostname = hostname
	}

	config.Monitor.Mode = types.RunMode(strings.ToLower(string(config.Monitor.Mode)))
	config.Telegram.APIURL = strings.TrimRight(config.Telegram.APIURL, "/")
	config.Geo.URL = strings.TrimRight(config.Geo.URL, "/")

	if len(config.Resolver.Providers) == 0 {
		config.Resolver.Providers = DefaultProviders()
	}

	config.Log.SetDefaults()
}

// DefaultProviders returns the built-in address lookup services in
// the order they are tried
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{Name: "ipify", URL: "https://api.ipify.org?format=json", Schema: "ip"},
		{Name: "httpbin", URL: "https://httpbin.org/ip", Schema: "origin"},
		{Name: "my-ip.io", URL: "https://api.my-ip.io/ip.json", Schema: "ip"},
		{Name: "ipapi.co", URL: "https://ipapi.co/json/", Schema: "ip"},
	}
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}

	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}

	return nil
}

// loadDotEnv seeds the environment from a dotenv file if it exists.
// Variables already set are not overridden.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err == nil {
		return godotenv.Load(path)
	}
	return nil
}
