package validator

import "errors"

var (
	// ErrTokenRejected is matched by a ValidationError whose code was caused
	// by the token itself.
	ErrTokenRejected = errors.New("token rejected")

	// ErrKeysUnavailable is matched by a ValidationError whose code was caused
	// by the key source (UnableToFetchKeys or UnableToDecodeKeys).
	ErrKeysUnavailable = errors.New("signing keys unavailable")
)

// ValidationError carries a non-Valid outcome through APIs that speak Go
// errors, such as ValidateToken and the middleware built on it.
type ValidationError struct {
	// Code is the result code of the validation.
	Code ResultCode

	// Details is the underlying error, if the code carries one.
	Details error
}

// Error returns the interpretation of the code.
func (e *ValidationError) Error() string {
	return Interpret(e.Code, e.Details)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is matches ErrKeysUnavailable for key source failures and
// ErrTokenRejected for everything else.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrKeysUnavailable:
		return e.Code.keySourceFailure()
	case ErrTokenRejected:
		return !e.Code.keySourceFailure()
	}
	return false
}

// Outcome converts the error back into an Outcome.
func (e *ValidationError) Outcome() Outcome {
	return Outcome{Code: e.Code, Err: e.Details}
}

func (c ResultCode) keySourceFailure() bool {
	return c == UnableToFetchKeys || c == UnableToDecodeKeys
}
