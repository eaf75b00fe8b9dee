package config

import "time"

// TelegramConfig represents the telegram notification configuration
type TelegramConfig struct {
	BotToken string        `mapstructure:"bot_token" validate:"required"`
	ChatID   string        `mapstructure:"chat_id" validate:"required"`
	Format   string        `mapstructure:"format" validate:"oneof=HTML"` // parse_mode; templates emit HTML
	APIURL   string        `mapstructure:"api_url" validate:"required,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Silent   bool          `mapstructure:"silent"`
}

// Endpoint returns the sendMessage URL for the configured bot
func (cfg *TelegramConfig) Endpoint() string {
	return cfg.APIURL + "/bot" + cfg.BotToken + "/sendMessage"
}
