// Package core provides the transport-independent part of the JWT middleware:
// deciding whether a request carried credentials and passing them to the
// token validator.
//
// The HTTP, Gin, Echo and gRPC adapters all wrap a Core.
package core

import (
	"context"
	"time"
)

// TokenValidator validates a raw token and returns its claims.
// *validator.Validator satisfies it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (any, error)
}

// Logger is the logging interface used by Core. The logrus adapter from the
// validator package satisfies it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Core checks extracted tokens against a TokenValidator.
type Core struct {
	validator           TokenValidator
	credentialsOptional bool
	logger              Logger
}

// CheckToken validates token and returns the validated claims.
//
//   - An empty token returns (nil, nil) when credentials are optional and
//     ErrJWTMissing otherwise.
//   - A rejected token returns an error matching ErrJWTInvalid that wraps the
//     validator's error.
func (c *Core) CheckToken(ctx context.Context, token string) (any, error) {
	if token == "" {
		if c.credentialsOptional {
			c.logger.Debugf("no token provided, credentials are optional")
			return nil, nil
		}
		c.logger.Debugf("no token provided, credentials are required")
		return nil, ErrJWTMissing
	}

	start := time.Now()
	claims, err := c.validator.ValidateToken(ctx, token)
	duration := time.Since(start)

	if err != nil {
		c.logger.Warnf("token validation failed after %s: %v", duration, err)
		return nil, &InvalidError{Details: err}
	}

	c.logger.Debugf("token validated in %s", duration)
	return claims, nil
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
