package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/bacalhau-project/governor/pkg/config/types"
)

const (
	environmentVariablePrefix = "GOVERNOR"
	inferConfigTypes          = true
)

var (
	environmentVariableReplace = strings.NewReplacer(".", "_")
	DecoderHook                = viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
)

type Config struct {
	// viper instance for holding user provided configuration.
	base *viper.Viper
	// the default configuration values to initialize with.
	defaultCfg types.Validatable

	// paths to configuration files merged from [0] to [N]
	// e.g. file at index 1 overrides index 0, index 2 overrides index 1 and 0, etc.
	paths []string

	flags map[string]*pflag.Flag

	// values to inject into the config, taking highest precedence.
	values map[string]any
}

type Option = func(s *Config)

// WithDefault sets the default config to be used when no values are provided.
func WithDefault(cfg types.Validatable) Option {
	return func(c *Config) {
		c.defaultCfg = cfg
	}
}

// WithPaths sets paths to configuration files to be loaded
// paths to configuration files merged from [0] to [N]
// e.g. file at index 1 overrides index 0, index 2 overrides index 1 and 0, etc.
func WithPaths(path ...string) Option {
	return func(c *Config) {
		c.paths = append(c.paths, path...)
	}
}

// WithFlags binds command line flags to config keys. Flags override files and environment variables.
func WithFlags(flags map[string]*pflag.Flag) Option {
	return func(s *Config) {
		s.flags = flags
	}
}

// WithValues sets values to be injected into the config, taking precedence over all other options.
func WithValues(values map[string]any) Option {
	return func(c *Config) {
		c.values = values
	}
}

// New returns a configuration with the provided options applied. If no options are provided, the returned config
// contains only the default values.
func New(opts ...Option) (*Config, error) {
	base := viper.New()
	base.SetEnvPrefix(environmentVariablePrefix)
	base.SetTypeByDefaultValue(inferConfigTypes)
	base.AutomaticEnv()
	base.SetEnvKeyReplacer(environmentVariableReplace)

	c := &Config{
		base:       base,
		defaultCfg: Default(),
		paths:      make([]string, 0),
	}
	for _, opt := range opts {
		opt(c)
	}

	// defaults are round tripped through yaml so nested sections become
	// nested keys that files and environment variables can override.
	defaults, err := yaml.Marshal(c.defaultCfg)
	if err != nil {
		return nil, errors.Wrap(err, "encoding default config")
	}
	c.base.SetConfigType("yaml")
	if err := c.base.MergeConfig(bytes.NewReader(defaults)); err != nil {
		return nil, errors.Wrap(err, "loading default config")
	}

	// merge the config files in the order they were passed.
	for _, path := range c.paths {
		if err := c.Merge(path); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("the specified configuration file %q doesn't exist", path)
			}
			return nil, fmt.Errorf("opening config file %q: %w", path, err)
		}
	}

	for name, flag := range c.flags {
		if err := c.base.BindPFlag(name, flag); err != nil {
			return nil, fmt.Errorf("binding flag %q to config: %w", name, err)
		}
	}

	// merge the passed values last as they take highest precedence
	for name, value := range c.values {
		c.base.Set(name, value)
	}

	return c, nil
}

// Merge merges a new configuration file specified by `path` with the existing config.
// Merge returns an error if the file cannot be read
func (c *Config) Merge(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	log.Debug().Msgf("merging config file: %q", path)
	c.base.SetConfigFile(path)
	if err := c.base.MergeInConfig(); err != nil {
		return err
	}
	return nil
}

// Get returns the raw value of a config key.
func (c *Config) Get(key string) any {
	return c.base.Get(key)
}

// Unmarshal decodes the current configuration into out and validates it.
func (c *Config) Unmarshal(out types.Validatable) error {
	if err := c.base.Unmarshal(out, DecoderHook); err != nil {
		return err
	}
	if err := out.Validate(); err != nil {
		return err
	}
	return nil
}

// Load is a shortcut that builds a Config from opts and decodes it into a Governor config.
func Load(opts ...Option) (types.Governor, error) {
	c, err := New(opts...)
	if err != nil {
		return types.Governor{}, err
	}
	var out types.Governor
	if err := c.Unmarshal(&out); err != nil {
		return types.Governor{}, err
	}
	return out, nil
}

// KeyAsEnvVar returns the environment variable corresponding to a config key
func KeyAsEnvVar(key string) string {
	return strings.ToUpper(
		fmt.Sprintf("%s_%s", environmentVariablePrefix, environmentVariableReplace.Replace(key)),
	)
}
