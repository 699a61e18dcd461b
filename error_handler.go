package jwtmiddleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fabric-testbed/system-service-utils/core"
)

var (
	// ErrJWTMissing is returned when the JWT is missing.
	ErrJWTMissing = core.ErrJWTMissing

	// ErrJWTInvalid is returned when the JWT is invalid.
	ErrJWTInvalid = core.ErrJWTInvalid
)

// ErrorHandler is a handler which is called when an error occurs in the
// JWTMiddleware. Among some general errors, this handler also determines the
// response of the JWTMiddleware when a token is not found or is invalid. The
// err can be checked to be ErrJWTMissing or ErrJWTInvalid for specific cases,
// and with validator.ErrKeysUnavailable for identity provider outages.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse is the JSON body written by the default error handlers.
type ErrorResponse struct {
	Message string `json:"message"`
	// Code is the validator result code, when validation produced one.
	Code string `json:"code,omitempty"`
}

// ResponseFor maps a middleware error to a status code and body:
//
//   - ErrJWTMissing: 400
//   - key source failures (validator.ErrKeysUnavailable): 503
//   - ErrJWTInvalid: 401
//   - anything else: 500
func ResponseFor(err error) (int, ErrorResponse) {
	var response ErrorResponse
	if code, ok := core.ResultCode(err); ok {
		response.Code = code.String()
	}

	switch {
	case errors.Is(err, ErrJWTMissing):
		response.Message = "JWT is missing."
		return http.StatusBadRequest, response
	case core.KeysUnavailable(err):
		response.Message = "Signing keys are unavailable."
		return http.StatusServiceUnavailable, response
	case errors.Is(err, ErrJWTInvalid):
		response.Message = "JWT is invalid."
		return http.StatusUnauthorized, response
	default:
		response.Message = "Something went wrong while checking the JWT."
		return http.StatusInternalServerError, response
	}
}

// DefaultErrorHandler is the default error handler implementation for the
// JWTMiddleware. If an error handler is not provided via the WithErrorHandler
// option this will be used.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status, response := ResponseFor(err)

	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
