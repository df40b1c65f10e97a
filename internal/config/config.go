package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hamed0406/portcheck/internal/domain"
)

const envPrefix = "PORTCHECK"

type Config struct {
	Timeout        int64  `mapstructure:"timeout"`         // default per-attempt timeout, seconds
	ResolveTimeout int64  `mapstructure:"resolve_timeout"` // name resolution budget, seconds
	Resolver       string `mapstructure:"resolver"`        // DNS server; empty uses the system resolver
	LogDir         string `mapstructure:"log_dir"`         // empty disables the log file
	LogLevel       string `mapstructure:"log_level"`
}

// Load reads PORTCHECK_* environment variables on top of the defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timeout", 5)
	v.SetDefault("resolve_timeout", 5)
	v.SetDefault("resolver", "")
	v.SetDefault("log_dir", "")
	v.SetDefault("log_level", "warn")
}

func validate(cfg *Config) error {
	if cfg.Timeout <= 0 || cfg.Timeout > domain.MaxTimeoutSeconds {
		return fmt.Errorf("invalid timeout %d", cfg.Timeout)
	}
	if cfg.ResolveTimeout <= 0 || cfg.ResolveTimeout > domain.MaxTimeoutSeconds {
		return fmt.Errorf("invalid resolve_timeout %d", cfg.ResolveTimeout)
	}
	if cfg.LogLevel == "" {
		return errors.New("log_level is required")
	}
	return nil
}

func (c *Config) ResolveDeadline() time.Duration {
	return time.Duration(c.ResolveTimeout) * time.Second
}
