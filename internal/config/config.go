package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the settings shared by the osinfo agent and the
// osinfo-collector server.
type Config struct {
	// Collector server.
	Listen        string        `mapstructure:"listen" validate:"required"`
	HTTPListen    string        `mapstructure:"http_listen" validate:"required"`
	EnableSwagger bool          `mapstructure:"enable_swagger"`
	DatabasePath  string        `mapstructure:"database" validate:"required"`
	RetentionDays int           `mapstructure:"retention_days" validate:"gte=0"`
	PurgeInterval time.Duration `mapstructure:"purge_interval" validate:"min=1m"`
	ClientSecret  string        `mapstructure:"client_secret"`
	ApiSecret     string        `mapstructure:"api_secret"`

	// Agent.
	Server         string        `mapstructure:"server" validate:"omitempty,url"`
	CommandTimeout time.Duration `mapstructure:"command_timeout" validate:"min=1s"`
	PushInterval   time.Duration `mapstructure:"push_interval" validate:"min=1s"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
}

var validate = validator.New()

// Load reads configuration from file and environment. An explicit cfgFile
// must exist; otherwise osinfo.yaml is optional.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("osinfo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/osinfo")
	}

	v.SetDefault("listen", ":9550")
	v.SetDefault("http_listen", ":9551")
	v.SetDefault("enable_swagger", true)
	v.SetDefault("database", "osinfo.db")
	v.SetDefault("retention_days", 0)
	v.SetDefault("purge_interval", "24h")
	v.SetDefault("client_secret", "")
	v.SetDefault("api_secret", "")
	v.SetDefault("server", "")
	v.SetDefault("command_timeout", "60s")
	v.SetDefault("push_interval", "1h")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("OSINFO")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags. Call it again after applying flag
// overrides.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
