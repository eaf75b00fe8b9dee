package logger

import "fmt"

// Config represents logging configuration
type Config struct {
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
	Level      string `mapstructure:"level"` // debug, info, warn, error
}

// DefaultConfig returns console-only logging at info level
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// SetDefaults fills zero values and returns the config
func (cfg *Config) SetDefaults() *Config {
	d := DefaultConfig()
	if cfg.Level == "" {
		cfg.Level = d.Level
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = d.MaxSize
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = d.MaxBackups
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = d.MaxAge
	}
	return cfg
}

// Validate validates logging configuration
func (cfg *Config) Validate() error {
	if cfg.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	return nil
}
