package validator

import (
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithRefreshPeriod sets how long fetched keys are used before the next
// Validate call fetches them again. Without this option keys are fetched
// once, on first use, and never refreshed.
//
// A zero period fetches the keys on every call.
func WithRefreshPeriod(period time.Duration) Option {
	return func(v *Validator) error {
		if period < 0 {
			return errors.New("refresh period cannot be negative")
		}
		v.refreshPeriod = &period
		return nil
	}
}

// WithAudience sets the audience (aud) a token must contain. Without this
// option the audience claim is not checked.
func WithAudience(audience string) Option {
	return func(v *Validator) error {
		if audience == "" {
			return errors.New("audience cannot be empty")
		}
		v.audience = &audience
		return nil
	}
}

// WithKeySource replaces the key source built from the JWKS URL.
func WithKeySource(source KeySource) Option {
	return func(v *Validator) error {
		if source == nil {
			return errors.New("key source cannot be nil")
		}
		v.source = source
		return nil
	}
}

// WithHTTPClient sets the HTTP client used to fetch the JWKS URL.
// It has no effect together with WithKeySource.
func WithHTTPClient(client *http.Client) Option {
	return func(v *Validator) error {
		if client == nil {
			return errors.New("HTTP client cannot be nil")
		}
		v.httpClient = client
		return nil
	}
}

// WithAllowedClockSkew sets the leeway applied to exp, nbf and iat when
// expiration is verified. Default is 0.
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}

// WithExpirationCheck sets whether ValidateToken verifies expiration.
// Default is false; Validate always takes the flag explicitly.
func WithExpirationCheck(verify bool) Option {
	return func(v *Validator) error {
		v.verifyExpiration = verify
		return nil
	}
}

// WithLogger sets the logger used for key refresh events.
func WithLogger(logger Logger) Option {
	return func(v *Validator) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		v.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink. Default discards metrics.
func WithMetrics(metrics Metrics) Option {
	return func(v *Validator) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		v.metrics = metrics
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer. Default is the tracer of the
// global tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(v *Validator) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		v.tracer = tracer
		return nil
	}
}

// WithClock sets the time source used for cache staleness and claim checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		v.now = now
		return nil
	}
}
