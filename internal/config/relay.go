package config

// RelayConfig represents the visitor address relay endpoint
type RelayConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Listen         string   `mapstructure:"listen" validate:"required_if=Enabled true"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}
