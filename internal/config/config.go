// Package redbikecfg loads the `[redbike]` / `[redbike-redis]` TOML
// config sections, following the teacher's viper-based "build a fresh
// *viper.Viper, set defaults, read one file, unmarshal" shape.
package redbikecfg

import (
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/teranos/redbike/errors"
)

// Redbike carries the `[redbike]` section: scheduler-level settings.
type Redbike struct {
	Worker         string `mapstructure:"worker"`
	Prefix         string `mapstructure:"prefix"`
	Timefile       string `mapstructure:"timefile"`
	DefaultTimeout int    `mapstructure:"default-timeout"`
}

// RedbikeRedis carries the `[redbike-redis]` section: store connection
// parameters, passed verbatim into the store client.
type RedbikeRedis struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	DialTimeout  int    `mapstructure:"dial-timeout"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
}

// Config is the full, unmarshaled configuration file.
type Config struct {
	Redbike      Redbike      `mapstructure:"redbike"`
	RedbikeRedis RedbikeRedis `mapstructure:"redbike-redis"`
}

// DialTimeoutDuration, ReadTimeoutDuration, WriteTimeoutDuration convert
// the configured second counts into the time.Duration store.Config
// expects.
func (r RedbikeRedis) DialTimeoutDuration() time.Duration {
	return time.Duration(r.DialTimeout) * time.Second
}

func (r RedbikeRedis) ReadTimeoutDuration() time.Duration {
	return time.Duration(r.ReadTimeout) * time.Second
}

func (r RedbikeRedis) WriteTimeoutDuration() time.Duration {
	return time.Duration(r.WriteTimeout) * time.Second
}

// DefaultTimeoutDuration converts Redbike.DefaultTimeout into a
// time.Duration for the worker's fallback per-queue timeout.
func (r Redbike) DefaultTimeoutDuration() time.Duration {
	return time.Duration(r.DefaultTimeout) * time.Second
}

// SetDefaults configures default values for every configuration key,
// one SetDefault call per key grouped by section, matching the
// teacher's am.SetDefaults shape.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("redbike.worker", "roundrobin:A")
	v.SetDefault("redbike.prefix", "redbike")
	v.SetDefault("redbike.timefile", ".redbike.timefile")
	v.SetDefault("redbike.default-timeout", 10)

	v.SetDefault("redbike-redis.addr", "127.0.0.1:6379")
	v.SetDefault("redbike-redis.password", "")
	v.SetDefault("redbike-redis.db", 0)
	v.SetDefault("redbike-redis.dial-timeout", 5)
	v.SetDefault("redbike-redis.read-timeout", 3)
	v.SetDefault("redbike-redis.write-timeout", 3)
}

// Load reads and unmarshals the TOML config file at path. A missing
// file is not an error — defaults alone are a valid configuration for a
// local Redis instance on its default port.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, errors.Wrapf(err, "failed to read config file %s", path)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}
