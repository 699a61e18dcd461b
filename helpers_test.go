package jwtmiddleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/fabric-testbed/system-service-utils/jwks"
	"github.com/fabric-testbed/system-service-utils/validator"
)

const (
	testIssuer   = "https://cilogon.org"
	testAudience = "cilogon:/client_id/1234567890"
	testSubject  = "http://cilogon.org/serverA/users/123"
	testKeyID    = "rsa-1"
)

type keySourceFunc func(ctx context.Context) (jwks.KeySet, error)

func (f keySourceFunc) Fetch(ctx context.Context) (jwks.KeySet, error) {
	return f(ctx)
}

// testTokens signs tokens with a key that newTestValidator publishes.
type testTokens struct {
	kid string
	key jwk.Key
}

func newTestTokens(t *testing.T) testTokens {
	t.Helper()
	return newTestTokensWithKeyID(t, testKeyID)
}

func newTestTokensWithKeyID(t *testing.T, kid string) testTokens {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	key, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, kid))
	return testTokens{kid: kid, key: key}
}

func (tt testTokens) keySet(t *testing.T) jwks.KeySet {
	t.Helper()
	pub, err := tt.key.PublicKey()
	require.NoError(t, err)
	return jwks.KeySet{tt.kid: pub}
}

func (tt testTokens) sign(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewBuilder().
		Issuer(testIssuer).
		Subject(testSubject).
		Audience([]string{testAudience}).
		Build()
	require.NoError(t, err)

	headers := jws.NewHeaders()
	require.NoError(t, headers.Set(jws.KeyIDKey, tt.kid))

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, tt.key, jws.WithProtectedHeaders(headers)))
	require.NoError(t, err)
	return string(signed)
}

func (tt testTokens) expectedClaims() *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:   testIssuer,
			Subject:  testSubject,
			Audience: []string{testAudience},
		},
	}
}

// newTestValidator returns a validator that trusts tt's key.
func newTestValidator(t *testing.T, tt testTokens) *validator.Validator {
	t.Helper()
	keys := tt.keySet(t)
	v, err := validator.New("", validator.WithKeySource(keySourceFunc(func(context.Context) (jwks.KeySet, error) {
		return keys, nil
	})))
	require.NoError(t, err)
	return v
}

// newUnavailableValidator returns a validator whose key source always fails.
func newUnavailableValidator(t *testing.T) *validator.Validator {
	t.Helper()
	v, err := validator.New("", validator.WithKeySource(keySourceFunc(func(context.Context) (jwks.KeySet, error) {
		return nil, &jwks.FetchError{Err: errors.New("connection refused")}
	})))
	require.NoError(t, err)
	return v
}
