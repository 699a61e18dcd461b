/*
Package core holds the logic shared by every transport adapter of the JWT
middleware.

A Core takes an already extracted token, enforces the credentials-optional
policy and calls the configured TokenValidator. Adapters translate its
errors into their own responses:

	claims, err := c.CheckToken(ctx, token)
	switch {
	case errors.Is(err, core.ErrJWTMissing):
	    // 400 / Unauthenticated
	case core.KeysUnavailable(err):
	    // 503 / Unavailable
	case errors.Is(err, core.ErrJWTInvalid):
	    // 401 / Unauthenticated
	}

Validated claims travel in the request context; use SetClaims and
GetClaims to store and read them.
*/
package core
