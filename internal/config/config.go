package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/tanq16/pulldown/internal/transfer"
	"github.com/tanq16/pulldown/internal/utils"
	"github.com/tanq16/pulldown/internal/validation"
)

// Config is the merged view of flags, PULLDOWN_* environment variables and
// the optional config file.
type Config struct {
	Dir              string        `mapstructure:"dir" validate:"required"`
	Debug            bool          `mapstructure:"debug"`
	LogFile          string        `mapstructure:"log-file" validate:"required"`
	EnvFile          string        `mapstructure:"env-file"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gte=0"`
	KATimeout        time.Duration `mapstructure:"keep-alive-timeout" validate:"gte=0"`
	Proxy            string        `mapstructure:"proxy" validate:"omitempty,url"`
	Refresh          time.Duration `mapstructure:"refresh" validate:"gt=0"`
	ProgressInterval time.Duration `mapstructure:"progress-interval" validate:"gte=0"`
	SpeedInterval    time.Duration `mapstructure:"speed-interval" validate:"gte=0"`
	BufferSize       int           `mapstructure:"buffer-size" validate:"gte=0"`
	ExitWhenDone     bool          `mapstructure:"exit-when-done"`
}

func Default() Config {
	return Config{
		Dir:              ".",
		LogFile:          utils.LogFile,
		EnvFile:          ".env",
		Timeout:          time.Minute,
		KATimeout:        90 * time.Second,
		Refresh:          250 * time.Millisecond,
		ProgressInterval: transfer.DefaultProgressInterval,
		SpeedInterval:    transfer.DefaultSpeedInterval,
		BufferSize:       utils.DefaultBufferSize,
	}
}

// SetDefaults registers Default() on v so unset keys fall back to it.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("dir", d.Dir)
	v.SetDefault("log-file", d.LogFile)
	v.SetDefault("env-file", d.EnvFile)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("keep-alive-timeout", d.KATimeout)
	v.SetDefault("refresh", d.Refresh)
	v.SetDefault("progress-interval", d.ProgressInterval)
	v.SetDefault("speed-interval", d.SpeedInterval)
	v.SetDefault("buffer-size", d.BufferSize)
}

func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validation.Validator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) HTTPClientConfig() utils.HTTPClientConfig {
	return utils.HTTPClientConfig{
		Timeout:   c.Timeout,
		KATimeout: c.KATimeout,
		ProxyURL:  c.Proxy,
	}
}

func (c Config) TransferConfig() transfer.Config {
	return transfer.Config{
		Dir:              c.Dir,
		Client:           utils.NewPulldownHTTPClient(c.HTTPClientConfig()),
		BufferSize:       c.BufferSize,
		ProgressInterval: c.ProgressInterval,
		SpeedInterval:    c.SpeedInterval,
	}
}
