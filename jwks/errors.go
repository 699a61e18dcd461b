package jwks

import (
	"errors"
	"fmt"
)

var (
	// ErrUnableToFetchKeys is matched by every error returned when the JWKS
	// document could not be retrieved: transport failures, cancelled
	// contexts and non-200 responses.
	ErrUnableToFetchKeys = errors.New("unable to fetch keys")

	// ErrUnableToDecodeKeys is matched by every error returned when the JWKS
	// document was retrieved but could not be turned into public keys.
	ErrUnableToDecodeKeys = errors.New("unable to decode keys")

	// ErrMissingKeys is returned when the document has no "keys" array.
	ErrMissingKeys = errors.New(`jwks document has no "keys" array`)

	// ErrMissingKeyID is returned when a key in the set has no kid.
	ErrMissingKeyID = errors.New("jwk is missing a key ID")

	// ErrUnsupportedKeyType is returned for keys that are neither RSA nor EC.
	ErrUnsupportedKeyType = errors.New("unsupported key type")
)

// StatusError reports a JWKS endpoint that answered with something other
// than 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned status %d, expected 200", e.URL, e.StatusCode)
}

// FetchError wraps a failure to retrieve the JWKS document. It matches
// ErrUnableToFetchKeys and unwraps to the underlying transport error.
type FetchError struct {
	Err error
}

// Is allows the error to support equality to ErrUnableToFetchKeys.
func (e *FetchError) Is(target error) bool {
	return target == ErrUnableToFetchKeys
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnableToFetchKeys, e.Err)
}

// Unwrap allows the error to support equality to the underlying error and
// not just ErrUnableToFetchKeys.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// DecodeError wraps a failure to decode the JWKS document. It matches
// ErrUnableToDecodeKeys and unwraps to the underlying decode error.
type DecodeError struct {
	Err error
}

// Is allows the error to support equality to ErrUnableToDecodeKeys.
func (e *DecodeError) Is(target error) bool {
	return target == ErrUnableToDecodeKeys
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnableToDecodeKeys, e.Err)
}

// Unwrap allows the error to support equality to the underlying error and
// not just ErrUnableToDecodeKeys.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
