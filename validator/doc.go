/*
Package validator validates JWTs against a cached JSON Web Key Set using the
lestrrat-go/jwx v2 library.

A Validator fetches the key set lazily on first use and keeps it until the
configured refresh period has elapsed. Each Validate call produces exactly
one ResultCode; the validator never returns a separate error.

# Basic Usage

	v, err := validator.New(
	    "https://cilogon.org/oauth2/certs",
	    validator.WithRefreshPeriod(10*time.Minute),
	    validator.WithAudience("cilogon:/client_id/1234567890"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	outcome := v.Validate(ctx, tokenString, true)
	if !outcome.Valid() {
	    log.Println(outcome.Message())
	}

# Validation Pipeline

Stages run in order and stop at the first failure:

 1. Refresh the key set if it is empty or stale
    (UnableToFetchKeys, UnableToDecodeKeys)
 2. Read kid and alg from the unverified header
    (UnparsableToken, UnspecifiedKey, UnspecifiedAlgorithm)
 3. Look up the key by kid (UnknownKey)
 4. Verify the signature with that key and the header algorithm, then
    nbf and iat, expiration when requested and the audience when
    configured (Invalid). A key published with its own alg only accepts
    that algorithm.

A kid that is not in the cache is reported as UnknownKey without fetching
the key set again.

# Result Codes

	Valid                 Token is valid
	UnspecifiedKey        Token does not specify key ID
	UnspecifiedAlgorithm  Token does not specify algorithm
	UnknownKey            Unable to find public key at JWK endpoint
	Invalid               Token signature is invalid
	UnableToFetchKeys     Unable to fetch keys from the endpoint
	UnparsableToken       Unable to parse token
	UnableToDecodeKeys    Unable to decode public keys

When the outcome carries an underlying error, Message returns the error
text followed by ". " and the message above.

# Middleware

ValidateToken adapts the Validator to the middleware packages. It returns
*ValidatedClaims for a valid token and *ValidationError otherwise:

	claims, err := v.ValidateToken(ctx, tokenString)
	if errors.Is(err, validator.ErrKeysUnavailable) {
	    // the identity provider could not be reached
	}

# Thread Safety

A Validator is safe for concurrent use. At most one key refresh runs at a
time; callers that need fresh keys while it runs wait for it and share its
result.
*/
package validator
