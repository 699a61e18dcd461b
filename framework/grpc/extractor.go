package jwtgrpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/metadata"
)

// ErrInvalidAuthMetadata is returned for authorization metadata that is not a
// bearer token.
var ErrInvalidAuthMetadata = errors.New("authorization metadata format must be 'Bearer {token}'")

// TokenExtractor extracts a token from the incoming gRPC context. A missing
// token is not an error; return an empty string instead.
type TokenExtractor func(ctx context.Context) (string, error)

// MetadataTokenExtractor extracts the JWT from the "authorization" metadata
// field.
func MetadataTokenExtractor(ctx context.Context) (string, error) {
	value := firstMetadataValue(ctx, "authorization")
	if value == "" {
		return "", nil
	}

	authParts := strings.Fields(value)
	if len(authParts) != 2 || !strings.EqualFold(authParts[0], "bearer") {
		return "", ErrInvalidAuthMetadata
	}

	return authParts[1], nil
}

// MetadataFieldTokenExtractor extracts the raw JWT from the given metadata
// field.
func MetadataFieldTokenExtractor(field string) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		return firstMetadataValue(ctx, field), nil
	}
}

// MultiTokenExtractor runs the extractors in order and returns the first
// token found.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(ctx context.Context) (string, error) {
		for _, ex := range extractors {
			token, err := ex(ctx)
			if err != nil {
				return "", err
			}
			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}

func firstMetadataValue(ctx context.Context, field string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(field)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
