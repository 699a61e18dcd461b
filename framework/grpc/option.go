package jwtgrpc

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/fabric-testbed/system-service-utils/core"
)

// Option configures the Interceptor.
type Option func(*Interceptor) error

// ErrorHandler converts an authentication error into the status error
// returned to the client.
type ErrorHandler func(ctx context.Context, err error) error

// WithErrorHandler sets a custom error handler. Default: DefaultErrorHandler
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *Interceptor) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		i.errorHandler = handler
		return nil
	}
}

// WithTokenExtractor sets the token extractor. Default: MetadataTokenExtractor
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *Interceptor) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		i.tokenExtractor = extractor
		return nil
	}
}

// WithCredentialsOptional lets calls without a token through without claims.
func WithCredentialsOptional(optional bool) Option {
	return func(i *Interceptor) error {
		i.credentialsOptional = optional
		return nil
	}
}

// WithExcludedMethods skips authentication for the given full method names,
// e.g. "/grpc.health.v1.Health/Check".
func WithExcludedMethods(methods []string) Option {
	methodSet := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		methodSet[m] = struct{}{}
	}
	return func(i *Interceptor) error {
		if len(methodSet) == 0 {
			return errors.New("excluded methods cannot be empty")
		}
		i.exclusionChecker = func(method string) bool {
			_, ok := methodSet[method]
			return ok
		}
		return nil
	}
}

// WithExclusionChecker sets a custom predicate for methods that skip
// authentication.
func WithExclusionChecker(checker func(method string) bool) Option {
	return func(i *Interceptor) error {
		if checker == nil {
			return errors.New("exclusion checker cannot be nil")
		}
		i.exclusionChecker = checker
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger core.Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer used for the grpc.auth span.
func WithTracer(tracer trace.Tracer) Option {
	return func(i *Interceptor) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		i.tracer = tracer
		return nil
	}
}
