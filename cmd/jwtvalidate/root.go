package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fabric-testbed/system-service-utils/internal/config"
	"github.com/fabric-testbed/system-service-utils/jwks"
	"github.com/fabric-testbed/system-service-utils/validator"
)

// configFlags are the flags that override config keys of the same name
// with dashes in place of underscores.
var configFlags = []string{
	"jwks-url",
	"issuer-url",
	"audience",
	"refresh-period",
	"verify-expiration",
	"clock-skew",
	"http-timeout",
	"log-level",
	"log-format",
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "jwtvalidate",
		Short:         "Validate JWTs against a JWKS endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default: jwtvalidate.yaml in . or ./config)")
	flags.String("jwks-url", "", "JWKS endpoint")
	flags.String("issuer-url", "", "OIDC issuer used to discover the JWKS endpoint")
	flags.String("audience", "", "audience the token must contain")
	flags.Duration("refresh-period", 0, "how long fetched keys are used")
	flags.Bool("verify-expiration", true, "check exp, nbf and iat")
	flags.Duration("clock-skew", 0, "leeway for time based claims")
	flags.Duration("http-timeout", 0, "timeout for JWKS and discovery requests")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")

	rootCmd.AddCommand(
		newValidateCmd(&configPath),
		newKeysCmd(&configPath),
	)

	return rootCmd
}

// setup loads the configuration for cmd and builds the validator it
// describes.
func setup(cmd *cobra.Command, configPath string) (*validator.Validator, *logrus.Logger, error) {
	overrides := map[string]string{}
	for _, name := range configFlags {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			overrides[strings.ReplaceAll(name, "-", "_")] = f.Value.String()
		}
	}

	cfg, err := config.Load(configPath, overrides)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(cmd.ErrOrStderr())

	v, err := newValidator(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return v, logger, nil
}

func newValidator(cfg *config.Config, logger *logrus.Logger) (*validator.Validator, error) {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = cfg.HTTPTimeout

	opts := []validator.Option{
		validator.WithRefreshPeriod(cfg.RefreshPeriod),
		validator.WithExpirationCheck(cfg.VerifyExpiration),
		validator.WithAllowedClockSkew(cfg.ClockSkew),
		validator.WithLogger(validator.NewLogrusLogger(logger)),
		validator.WithHTTPClient(client),
	}
	if cfg.Audience != "" {
		opts = append(opts, validator.WithAudience(cfg.Audience))
	}

	if cfg.JWKSURL == "" {
		issuerURL, err := url.Parse(cfg.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("invalid issuer URL: %w", err)
		}
		provider, err := jwks.NewProvider(
			jwks.WithIssuerURL(issuerURL),
			jwks.WithCustomClient(client),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, validator.WithKeySource(provider))
	}

	return validator.New(cfg.JWKSURL, opts...)
}
