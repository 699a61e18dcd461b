// Package config loads the configuration of the jwtvalidate command from a
// YAML file and JWTVALIDATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. JWTVALIDATE_JWKS_URL.
const EnvPrefix = "JWTVALIDATE"

// Config holds the settings of the jwtvalidate command.
type Config struct {
	// JWKSURL is the JWKS endpoint. Either JWKSURL or IssuerURL is required.
	JWKSURL string `mapstructure:"jwks_url" validate:"omitempty,url"`
	// IssuerURL is an OIDC issuer whose discovery document names the JWKS URL.
	IssuerURL string `mapstructure:"issuer_url" validate:"omitempty,url"`

	// RefreshPeriod is how long fetched keys are used. Zero refreshes on
	// every validation.
	RefreshPeriod    time.Duration `mapstructure:"refresh_period" default:"10m" validate:"gte=0s"`
	Audience         string        `mapstructure:"audience"`
	VerifyExpiration bool          `mapstructure:"verify_expiration" default:"true"`
	ClockSkew        time.Duration `mapstructure:"clock_skew" default:"0s" validate:"gte=0s"`
	HTTPTimeout      time.Duration `mapstructure:"http_timeout" default:"30s" validate:"gt=0s"`

	// Logging
	LogLevel  string `mapstructure:"log_level" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" default:"text" validate:"oneof=text json"`
}

// Load reads the configuration. An empty path searches for jwtvalidate.yaml
// in the working directory and ./config; a missing file is not an error
// unless path was given explicitly.
//
// overrides maps config keys (e.g. "jwks_url") to values that take
// precedence over the file and the environment, typically from flags.
func Load(path string, overrides map[string]string) (*Config, error) {
	cfg := Config{}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to set config defaults: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	typeOfCfg := reflect.TypeOf(cfg)
	for i := 0; i < typeOfCfg.NumField(); i++ {
		if key := typeOfCfg.Field(i).Tag.Get("mapstructure"); key != "" {
			_ = v.BindEnv(key)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("jwtvalidate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Validate checks cfg for missing or malformed settings.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if cfg.JWKSURL == "" && cfg.IssuerURL == "" {
		return errors.New("one of jwks_url or issuer_url is required")
	}
	return nil
}

// NewLogger builds the logrus logger described by cfg, writing to stderr.
func NewLogger(cfg *Config) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return logger, nil
}
