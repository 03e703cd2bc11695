// Package config loads the chainkit configuration: one data-provider URL
// per chain plus the swap relayer endpoints.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	ck "github.com/shiftwave/chainkit"
	"github.com/shiftwave/chainkit/errors"
)

// ConfigEnv overrides the config file location.
const ConfigEnv = "CHAINKIT_CONFIG"

// ChainSettings configures one chain's data provider.
type ChainSettings struct {
	URL       string  `yaml:"url" mapstructure:"url"`
	RateLimit float64 `yaml:"rate_limit,omitempty" mapstructure:"rate_limit"`
}

// SwapSettings configures the swap relayer and price oracle endpoints.
type SwapSettings struct {
	CowURL    string `yaml:"cow_url,omitempty" mapstructure:"cow_url"`
	OracleURL string `yaml:"oracle_url,omitempty" mapstructure:"oracle_url"`
}

type Config struct {
	Chains map[ck.ChainIdentifier]ChainSettings `yaml:"chains" mapstructure:"chains"`
	Swap   SwapSettings                         `yaml:"swap,omitempty" mapstructure:"swap"`
}

// ChainConfig resolves the full per-chain configuration, applying the
// chain's built-in defaults (coin type, decimals, chain id).
func (c *Config) ChainConfig(chain ck.ChainIdentifier) (*ck.ChainConfig, error) {
	settings, ok := c.Chains[chain]
	if !ok {
		return nil, errors.Errorf(errors.Configuration, "chain %q is not configured", chain)
	}
	if settings.URL == "" {
		return nil, errors.Errorf(errors.Configuration, "chain %q has no provider url", chain)
	}
	cfg := ck.NewChainConfig(chain).WithURL(settings.URL)
	cfg.RateLimit = settings.RateLimit
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("chainkit")
	v.SetConfigType("yaml")
	if path := os.Getenv(ConfigEnv); path != "" {
		v.SetConfigFile(path)
	}
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	return v
}

// Load reads the configuration file.  When no file is found and defaults
// are provided, the defaults are used instead of failing.
func Load(defaults *Config) (*Config, error) {
	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		if defaults != nil && isNotFound(err) {
			return roundTrip(defaults)
		}
		return nil, errors.Wrap(errors.Configuration, err, "reading config file")
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.Configuration, err, "decoding config file")
	}
	return &cfg, nil
}

func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such file")
}

// roundTrip deep-copies the defaults through yaml so callers cannot alias
// the returned config.
func roundTrip(defaults *Config) (*Config, error) {
	raw, err := yaml.Marshal(defaults)
	if err != nil {
		return nil, fmt.Errorf("serializing defaults: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("deserializing defaults: %w", err)
	}
	return &cfg, nil
}
