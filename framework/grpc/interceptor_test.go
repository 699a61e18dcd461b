package jwtgrpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/fabric-testbed/system-service-utils/validator"
)

const testMethod = "/fabric.orchestrator.v1.Orchestrator/ListSlices"

// fakeValidator accepts validToken and fails everything else with err.
type fakeValidator struct {
	validToken string
	err        error
}

func (f fakeValidator) ValidateToken(_ context.Context, token string) (any, error) {
	if token != f.validToken {
		return nil, f.err
	}
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: "user123"},
	}, nil
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context {
	return s.ctx
}

func incomingContext(authorization string) context.Context {
	if authorization == "" {
		return context.Background()
	}
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", authorization))
}

func TestInterceptor(t *testing.T) {
	v := fakeValidator{
		validToken: "validToken123",
		err:        &validator.ValidationError{Code: validator.UnknownKey},
	}
	unavailable := fakeValidator{
		err: &validator.ValidationError{Code: validator.UnableToFetchKeys, Details: errors.New("connection refused")},
	}

	testCases := []struct {
		name          string
		validator     fakeValidator
		authorization string
		method        string
		options       []Option
		wantCode      codes.Code
		wantSubject   string
	}{
		{
			name:          "valid token",
			validator:     v,
			authorization: "Bearer validToken123",
			wantCode:      codes.OK,
			wantSubject:   "user123",
		},
		{
			name:          "invalid token",
			validator:     v,
			authorization: "Bearer invalidToken456",
			wantCode:      codes.Unauthenticated,
		},
		{
			name:      "missing token",
			validator: v,
			wantCode:  codes.Unauthenticated,
		},
		{
			name:          "malformed authorization metadata",
			validator:     v,
			authorization: "validToken123",
			wantCode:      codes.Unauthenticated,
		},
		{
			name:          "keys unavailable",
			validator:     unavailable,
			authorization: "Bearer anything",
			wantCode:      codes.Unavailable,
		},
		{
			name:      "optional credentials with missing token",
			validator: v,
			options:   []Option{WithCredentialsOptional(true)},
			wantCode:  codes.OK,
		},
		{
			name:      "excluded method",
			validator: v,
			method:    "/grpc.health.v1.Health/Check",
			options:   []Option{WithExcludedMethods([]string{"/grpc.health.v1.Health/Check"})},
			wantCode:  codes.OK,
		},
		{
			name:          "custom token extractor",
			validator:     v,
			authorization: "",
			options: []Option{WithTokenExtractor(func(context.Context) (string, error) {
				return "validToken123", nil
			})},
			wantCode:    codes.OK,
			wantSubject: "user123",
		},
		{
			name:      "custom error handler",
			validator: v,
			options: []Option{WithErrorHandler(func(context.Context, error) error {
				return status.Error(codes.PermissionDenied, "denied")
			})},
			wantCode: codes.PermissionDenied,
		},
	}

	for _, testCase := range testCases {
		method := testCase.method
		if method == "" {
			method = testMethod
		}

		check := func(t *testing.T, ctx context.Context, err error) {
			assert.Equal(t, testCase.wantCode, status.Code(err))
			if testCase.wantCode != codes.OK {
				return
			}
			claims, claimsErr := GetClaims(ctx)
			if testCase.wantSubject == "" {
				assert.Error(t, claimsErr)
				return
			}
			require.NoError(t, claimsErr)
			assert.Equal(t, testCase.wantSubject, claims.RegisteredClaims.Subject)
		}

		t.Run("unary "+testCase.name, func(t *testing.T) {
			interceptor, err := New(testCase.validator, testCase.options...)
			require.NoError(t, err)

			var handlerCtx context.Context
			_, err = interceptor.UnaryServerInterceptor()(
				incomingContext(testCase.authorization),
				"request",
				&grpc.UnaryServerInfo{FullMethod: method},
				func(ctx context.Context, req interface{}) (interface{}, error) {
					handlerCtx = ctx
					return "response", nil
				},
			)
			check(t, handlerCtx, err)
		})

		t.Run("stream "+testCase.name, func(t *testing.T) {
			interceptor, err := New(testCase.validator, testCase.options...)
			require.NoError(t, err)

			var handlerCtx context.Context
			err = interceptor.StreamServerInterceptor()(
				nil,
				&fakeServerStream{ctx: incomingContext(testCase.authorization)},
				&grpc.StreamServerInfo{FullMethod: method},
				func(srv interface{}, stream grpc.ServerStream) error {
					handlerCtx = stream.Context()
					return nil
				},
			)
			check(t, handlerCtx, err)
		})
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(fakeValidator{}, WithExcludedMethods(nil))
	assert.EqualError(t, err, "invalid option: excluded methods cannot be empty")

	_, err = New(fakeValidator{}, WithTracer(nil))
	assert.EqualError(t, err, "invalid option: tracer cannot be nil")
}

func TestMetadataTokenExtractor(t *testing.T) {
	token, err := MetadataTokenExtractor(incomingContext("bearer abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = MetadataTokenExtractor(incomingContext("Basic abc"))
	assert.ErrorIs(t, err, ErrInvalidAuthMetadata)

	token, err = MultiTokenExtractor(
		MetadataTokenExtractor,
		MetadataFieldTokenExtractor("x-fabric-token"),
	)(metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-fabric-token", "xyz")))
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)
}
