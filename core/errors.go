package core

import (
	"errors"
	"fmt"

	"github.com/fabric-testbed/system-service-utils/validator"
)

// Sentinel errors for JWT validation.
var (
	// ErrJWTMissing is returned when the JWT is missing from the request.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrJWTInvalid is matched by every error caused by a rejected token.
	ErrJWTInvalid = errors.New("jwt invalid")

	// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
	ErrClaimsNotFound = errors.New("claims not found in context")

	// ErrValidatorNotSet is returned by New without WithValidator.
	ErrValidatorNotSet = errors.New("validator is required but not set (use WithValidator option)")
)

// InvalidError wraps a validation error so that it matches ErrJWTInvalid
// while still unwrapping to the validator's error.
type InvalidError struct {
	Details error
}

// Is allows the error to support equality to ErrJWTInvalid.
func (e *InvalidError) Is(target error) bool {
	return target == ErrJWTInvalid
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("%s: %s", ErrJWTInvalid, e.Details)
}

// Unwrap allows the error to support equality to the underlying error and not
// just ErrJWTInvalid.
func (e *InvalidError) Unwrap() error {
	return e.Details
}

// KeysUnavailable reports whether err was caused by the key source rather
// than the token, in which case the request may succeed later.
func KeysUnavailable(err error) bool {
	return errors.Is(err, validator.ErrKeysUnavailable)
}

// ResultCode returns the validator result code carried by err, if any.
func ResultCode(err error) (validator.ResultCode, bool) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Code, true
	}
	return 0, false
}
