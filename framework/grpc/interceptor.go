// Package jwtgrpc provides gRPC server interceptors that authenticate calls
// with a bearer JWT carried in the "authorization" metadata.
package jwtgrpc

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fabric-testbed/system-service-utils/core"
	"github.com/fabric-testbed/system-service-utils/validator"
)

const tracerName = "github.com/fabric-testbed/system-service-utils/framework/grpc"

// Interceptor authenticates unary and streaming gRPC calls.
type Interceptor struct {
	core             *core.Core
	tokenExtractor   TokenExtractor
	exclusionChecker func(method string) bool
	errorHandler     ErrorHandler
	logger           core.Logger
	tracer           trace.Tracer

	credentialsOptional bool
}

// New creates an Interceptor that validates tokens with v, typically a
// *validator.Validator.
func New(v core.TokenValidator, opts ...Option) (*Interceptor, error) {
	i := &Interceptor{
		tokenExtractor: MetadataTokenExtractor,
		errorHandler:   DefaultErrorHandler,
		tracer:         otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	coreOpts := []core.Option{
		core.WithValidator(v),
		core.WithCredentialsOptional(i.credentialsOptional),
	}
	if i.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(i.logger))
	}

	c, err := core.New(coreOpts...)
	if err != nil {
		return nil, err
	}
	i.core = c

	return i, nil
}

// DefaultErrorHandler maps authentication errors to gRPC status codes:
// key source failures become Unavailable, everything else Unauthenticated.
func DefaultErrorHandler(_ context.Context, err error) error {
	switch {
	case errors.Is(err, core.ErrJWTMissing):
		return status.Error(codes.Unauthenticated, "JWT is missing")
	case core.KeysUnavailable(err):
		return status.Error(codes.Unavailable, "signing keys are unavailable")
	case errors.Is(err, core.ErrJWTInvalid):
		if code, ok := core.ResultCode(err); ok {
			return status.Errorf(codes.Unauthenticated, "JWT is invalid: %s", code)
		}
		return status.Error(codes.Unauthenticated, "JWT is invalid")
	default:
		return status.Errorf(codes.Unauthenticated, "error extracting token: %v", err)
	}
}

// UnaryServerInterceptor returns a gRPC unary server interceptor for JWT authentication.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		authCtx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(authCtx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor for JWT authentication.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		authCtx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: authCtx})
	}
}

// authenticate returns ctx with the validated claims attached, or the status
// error produced by the error handler.
func (i *Interceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	if i.exclusionChecker != nil && i.exclusionChecker(method) {
		return ctx, nil
	}

	spanCtx, span := i.tracer.Start(ctx, "grpc.auth", trace.WithAttributes(attribute.String("rpc.method", method)))
	defer span.End()

	token, err := i.tokenExtractor(ctx)
	if err == nil {
		var claims any
		claims, err = i.core.CheckToken(spanCtx, token)
		if err == nil {
			span.SetAttributes(attribute.Bool("auth.authenticated", claims != nil))
			if claims == nil {
				return ctx, nil
			}
			return core.SetClaims(ctx, claims), nil
		}
	}

	span.SetStatus(otelcodes.Error, err.Error())
	return nil, i.errorHandler(ctx, err)
}

// wrappedServerStream overrides the context of a grpc.ServerStream.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

// GetClaims retrieves the validated claims stored by the interceptor.
func GetClaims(ctx context.Context) (*validator.ValidatedClaims, error) {
	return core.GetClaims[*validator.ValidatedClaims](ctx)
}
