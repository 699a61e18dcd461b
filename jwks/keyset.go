package jwks

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// KeySet maps a key ID (kid) to the public key published under it.
// A KeySet is never modified after Parse returns it.
type KeySet map[string]jwk.Key

// KeyIDs returns the key IDs of the set in sorted order.
func (s KeySet) KeyIDs() []string {
	ids := make([]string, 0, len(s))
	for kid := range s {
		ids = append(ids, kid)
	}
	sort.Strings(ids)
	return ids
}

// Lookup returns the key published under kid.
func (s KeySet) Lookup(kid string) (jwk.Key, bool) {
	key, ok := s[kid]
	return key, ok
}

// Parse decodes a JWKS document of the form {"keys":[...]} into a KeySet.
// Keys are indexed in document order, so when two keys share a kid the later
// one wins. Only RSA and EC keys are accepted; private keys are reduced to
// their public half.
//
// Every error returned by Parse matches ErrUnableToDecodeKeys.
func Parse(r io.Reader) (KeySet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("failed to read JWKS: %w", err)}
	}

	// jwk.Parse also accepts a single bare key, which is not a key set.
	var document struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("failed to parse JWKS: %w", err)}
	}
	if document.Keys == nil {
		return nil, &DecodeError{Err: ErrMissingKeys}
	}

	set, err := jwk.Parse(data)
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("failed to parse JWKS: %w", err)}
	}

	keys := make(KeySet, set.Len())
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			return nil, &DecodeError{Err: fmt.Errorf("key at index %d could not be read", i)}
		}

		kid := key.KeyID()
		if kid == "" {
			return nil, &DecodeError{Err: fmt.Errorf("key at index %d: %w", i, ErrMissingKeyID)}
		}

		switch key.KeyType() {
		case jwa.RSA, jwa.EC:
		default:
			return nil, &DecodeError{Err: fmt.Errorf("key %q has type %q: %w", kid, key.KeyType(), ErrUnsupportedKeyType)}
		}

		public, err := key.PublicKey()
		if err != nil {
			return nil, &DecodeError{Err: fmt.Errorf("key %q: could not derive public key: %w", kid, err)}
		}
		if err := public.Set(jwk.KeyIDKey, kid); err != nil {
			return nil, &DecodeError{Err: fmt.Errorf("key %q: %w", kid, err)}
		}

		keys[kid] = public
	}

	return keys, nil
}
