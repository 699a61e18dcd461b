package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jws"
)

var (
	// ErrEmptyToken is returned for an empty token string.
	ErrEmptyToken = errors.New("token is empty")

	// ErrTokenTooLarge is returned for tokens above maxTokenSize.
	ErrTokenTooLarge = errors.New("token exceeds maximum size (1MB)")

	// ErrNotCompactJWS is returned when the token is not made of exactly
	// three dot-separated segments.
	ErrNotCompactJWS = errors.New("token must have three dot-separated segments")
)

// maxTokenSize bounds the token string before any decoding. Valid JWTs
// rarely exceed a few KB.
const maxTokenSize = 1024 * 1024

// tokenHeader is the unverified part of the protected header used to pick a
// key. Nothing in it is trusted beyond the key lookup.
type tokenHeader struct {
	KeyID     string
	HasKeyID  bool // kid is present, even when empty
	Algorithm string
}

// validateTokenFormat rejects inputs that are obviously not a compact JWS
// before they reach the parser.
func validateTokenFormat(tokenString string) error {
	if len(tokenString) == 0 {
		return ErrEmptyToken
	}
	if len(tokenString) > maxTokenSize {
		return ErrTokenTooLarge
	}
	if strings.Count(tokenString, ".") != 2 {
		return ErrNotCompactJWS
	}
	return nil
}

// parseHeader reads kid and alg from the token's protected header without
// verifying anything.
func parseHeader(tokenString string) (tokenHeader, error) {
	if err := validateTokenFormat(tokenString); err != nil {
		return tokenHeader{}, err
	}

	msg, err := jws.ParseString(tokenString)
	if err != nil {
		return tokenHeader{}, fmt.Errorf("could not parse the token: %w", err)
	}

	signatures := msg.Signatures()
	if len(signatures) != 1 {
		return tokenHeader{}, fmt.Errorf("expected exactly one signature, got %d", len(signatures))
	}

	headers := signatures[0].ProtectedHeaders()
	_, hasKeyID := headers.Get(jws.KeyIDKey)
	return tokenHeader{
		KeyID:     headers.KeyID(),
		HasKeyID:  hasKeyID,
		Algorithm: headers.Algorithm().String(),
	}, nil
}
