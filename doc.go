/*
Package jwtmiddleware provides HTTP middleware that authenticates requests
with JWTs validated against a JWKS endpoint.

Tokens are validated by a *validator.Validator, which caches the signing
keys of the identity provider and refreshes them on a fixed period.

# Quick Start

	import (
	    jwtmiddleware "github.com/fabric-testbed/system-service-utils"
	    "github.com/fabric-testbed/system-service-utils/validator"
	)

	func main() {
	    v, err := validator.New(
	        "https://cilogon.org/oauth2/certs",
	        validator.WithRefreshPeriod(10*time.Minute),
	        validator.WithAudience("cilogon:/client_id/1234567890"),
	        validator.WithExpirationCheck(true),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    middleware, err := jwtmiddleware.New(jwtmiddleware.WithValidator(v))
	    if err != nil {
	        log.Fatal(err)
	    }

	    http.Handle("/api/", middleware.CheckJWT(apiHandler))
	    log.Fatal(http.ListenAndServe(":8080", nil))
	}

# Accessing Claims

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    claims, err := jwtmiddleware.GetClaims[*validator.ValidatedClaims](r.Context())
	    if err != nil {
	        http.Error(w, "Unauthorized", http.StatusUnauthorized)
	        return
	    }
	    fmt.Fprintf(w, "Hello, %s", claims.RegisteredClaims.Subject)
	}

# Error Responses

DefaultErrorHandler answers with a JSON body:

	400  {"message":"JWT is missing."}
	401  {"message":"JWT is invalid.","code":"UnknownKey"}
	503  {"message":"Signing keys are unavailable.","code":"UnableToFetchKeys"}
	500  {"message":"Something went wrong while checking the JWT."}

The code is the validator.ResultCode of the failed validation. Keys that
cannot be fetched or decoded produce 503 so that clients retry instead of
discarding their token.

# Token Extraction

AuthHeaderTokenExtractor (the default) reads "Authorization: Bearer <token>".
CookieTokenExtractor, ParameterTokenExtractor and MultiTokenExtractor cover
other transports.

# Other Frameworks

NewGin adapts the middleware to Gin. The framework/echo and framework/grpc
packages provide Echo middleware and gRPC interceptors built on the same
core package.
*/
package jwtmiddleware
