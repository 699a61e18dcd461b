package jwtechohandler

import (
	"errors"

	"github.com/labstack/echo/v4"

	jwtmiddleware "github.com/fabric-testbed/system-service-utils"
)

// Option is a function that configures the middleware.
type Option func(*echoMiddlewareConfig) error

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(config *echoMiddlewareConfig) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		config.errorHandler = handler
		return nil
	}
}

// WithContextKey sets a custom echo.Context key to store claims under.
func WithContextKey(key string) Option {
	return func(config *echoMiddlewareConfig) error {
		if key == "" {
			return errors.New("context key cannot be empty")
		}
		config.contextKey = key
		return nil
	}
}

// WithTokenExtractor sets a custom token extractor.
func WithTokenExtractor(extractor jwtmiddleware.TokenExtractor) Option {
	return func(config *echoMiddlewareConfig) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		config.tokenExtractor = extractor
		return nil
	}
}

// WithCredentialsOptional lets requests without a token through without
// claims.
func WithCredentialsOptional(optional bool) Option {
	return func(config *echoMiddlewareConfig) error {
		config.credentialsOptional = optional
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger jwtmiddleware.Logger) Option {
	return func(config *echoMiddlewareConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		config.logger = logger
		return nil
	}
}
