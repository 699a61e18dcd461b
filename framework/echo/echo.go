// Package jwtechohandler provides Echo middleware that authenticates requests
// with a bearer JWT.
package jwtechohandler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	jwtmiddleware "github.com/fabric-testbed/system-service-utils"
	"github.com/fabric-testbed/system-service-utils/core"
	"github.com/fabric-testbed/system-service-utils/validator"
)

// DefaultClaimsKey is the echo.Context key claims are stored under.
const DefaultClaimsKey = "jwt"

type echoMiddlewareConfig struct {
	errorHandler        func(echo.Context, error) error
	contextKey          string
	tokenExtractor      jwtmiddleware.TokenExtractor
	credentialsOptional bool
	logger              jwtmiddleware.Logger
}

// NewEchoMiddleware returns Echo middleware validating tokens with v,
// typically a *validator.Validator.
func NewEchoMiddleware(v core.TokenValidator, opts ...Option) (echo.MiddlewareFunc, error) {
	config := &echoMiddlewareConfig{
		errorHandler:   defaultEchoErrorHandler,
		contextKey:     DefaultClaimsKey,
		tokenExtractor: jwtmiddleware.AuthHeaderTokenExtractor,
	}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	coreOpts := []core.Option{
		core.WithValidator(v),
		core.WithCredentialsOptional(config.credentialsOptional),
	}
	if config.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(config.logger))
	}

	c, err := core.New(coreOpts...)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, err := config.tokenExtractor(ctx.Request())
			if err != nil {
				return config.errorHandler(ctx, fmt.Errorf("error extracting token: %w", err))
			}

			claims, err := c.CheckToken(ctx.Request().Context(), token)
			if err != nil {
				return config.errorHandler(ctx, err)
			}

			if claims != nil {
				r := ctx.Request()
				ctx.SetRequest(r.WithContext(core.SetClaims(r.Context(), claims)))
				ctx.Set(config.contextKey, claims)
			}
			return next(ctx)
		}
	}, nil
}

func defaultEchoErrorHandler(c echo.Context, err error) error {
	status, response := jwtmiddleware.ResponseFor(err)
	return c.JSON(status, response)
}

// GetClaims extracts the JWT claims from the Echo context.
func GetClaims(c echo.Context, contextKey string) (*validator.ValidatedClaims, bool) {
	validatedClaims, ok := c.Get(contextKey).(*validator.ValidatedClaims)
	return validatedClaims, ok
}
