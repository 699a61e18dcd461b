package jwks

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// marshalJWK encodes raw as a JWK carrying kid (omitted when empty).
func marshalJWK(t *testing.T, raw any, kid string) string {
	t.Helper()
	key, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	if kid != "" {
		require.NoError(t, key.Set(jwk.KeyIDKey, kid))
	}
	data, err := json.Marshal(key)
	require.NoError(t, err)
	return string(data)
}

func jwksDocument(keys ...string) string {
	return fmt.Sprintf(`{"keys":[%s]}`, strings.Join(keys, ","))
}

func TestParse(t *testing.T) {
	rsaKey := generateRSAKey(t)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	t.Run("it indexes RSA and EC keys by kid", func(t *testing.T) {
		doc := jwksDocument(
			marshalJWK(t, &rsaKey.PublicKey, "rsa-1"),
			marshalJWK(t, &ecKey.PublicKey, "ec-1"),
		)

		keys, err := Parse(strings.NewReader(doc))
		require.NoError(t, err)
		assert.Equal(t, []string{"ec-1", "rsa-1"}, keys.KeyIDs())

		key, ok := keys.Lookup("rsa-1")
		require.True(t, ok)
		var raw rsa.PublicKey
		require.NoError(t, key.Raw(&raw))
		assert.Equal(t, 0, raw.N.Cmp(rsaKey.PublicKey.N))
	})

	t.Run("it keeps the last key when a kid is repeated", func(t *testing.T) {
		second := generateRSAKey(t)
		doc := jwksDocument(
			marshalJWK(t, &rsaKey.PublicKey, "dup"),
			marshalJWK(t, &second.PublicKey, "dup"),
		)

		keys, err := Parse(strings.NewReader(doc))
		require.NoError(t, err)
		require.Len(t, keys, 1)

		var raw rsa.PublicKey
		require.NoError(t, keys["dup"].Raw(&raw))
		assert.Equal(t, 0, raw.N.Cmp(second.PublicKey.N))
	})

	t.Run("it reduces published private keys to public keys", func(t *testing.T) {
		doc := jwksDocument(marshalJWK(t, rsaKey, "leaked"))

		keys, err := Parse(strings.NewReader(doc))
		require.NoError(t, err)

		key := keys["leaked"]
		_, isPrivate := key.(jwk.RSAPrivateKey)
		assert.False(t, isPrivate)
		assert.Equal(t, "leaked", key.KeyID())
	})

	t.Run("it accepts an empty key set", func(t *testing.T) {
		keys, err := Parse(strings.NewReader(`{"keys":[]}`))
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	testCases := []struct {
		name        string
		document    string
		expectedErr error
	}{
		{
			name:     "it fails on malformed json",
			document: `{"keys": [`,
		},
		{
			name:     "it fails on a document that is not a key set",
			document: `"not a jwks"`,
		},
		{
			name:        "it fails on a single key without a keys array",
			document:    marshalJWK(t, &rsaKey.PublicKey, "rsa-1"),
			expectedErr: ErrMissingKeys,
		},
		{
			name:        "it fails when keys is null",
			document:    `{"keys":null}`,
			expectedErr: ErrMissingKeys,
		},
		{
			name:     "it fails when keys is not an array",
			document: `{"keys":{"kty":"RSA"}}`,
		},
		{
			name:        "it fails when a key has no kid",
			document:    jwksDocument(marshalJWK(t, &rsaKey.PublicKey, "")),
			expectedErr: ErrMissingKeyID,
		},
		{
			name:        "it fails on symmetric keys",
			document:    jwksDocument(`{"kty":"oct","kid":"hmac","k":"c2VjcmV0LXNlY3JldC1zZWNyZXQ"}`),
			expectedErr: ErrUnsupportedKeyType,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			keys, err := Parse(strings.NewReader(testCase.document))
			require.Error(t, err)
			assert.Nil(t, keys)
			assert.ErrorIs(t, err, ErrUnableToDecodeKeys)
			assert.NotErrorIs(t, err, ErrUnableToFetchKeys)
			if testCase.expectedErr != nil {
				assert.ErrorIs(t, err, testCase.expectedErr)
			}

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.NotNil(t, decodeErr.Err)
		})
	}
}
