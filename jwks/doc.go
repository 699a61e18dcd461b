/*
Package jwks fetches a JSON Web Key Set and decodes it into public keys
indexed by key ID.

A Provider performs exactly one HTTP GET per Fetch and keeps no state
between calls, so caching and refresh policy belong to the caller (see the
validator package).

	jwksURL, _ := url.Parse("https://cilogon.org/oauth2/certs")

	provider, err := jwks.NewProvider(jwks.WithURL(jwksURL))
	if err != nil {
	    log.Fatal(err)
	}

	keys, err := provider.Fetch(ctx)
	switch {
	case errors.Is(err, jwks.ErrUnableToFetchKeys):
	    // transport failure or non-200 status
	case errors.Is(err, jwks.ErrUnableToDecodeKeys):
	    // malformed document, unsupported key type or missing kid
	}

	key, ok := keys.Lookup("key-1")

# Decoding rules

  - Only RSA and EC keys are accepted.
  - Every key must carry a kid.
  - Keys are indexed in document order; a repeated kid replaces the earlier key.
  - Private keys are reduced to their public half.

# Discovery

With WithIssuerURL the JWKS URL is read from the issuer's
.well-known/openid-configuration document on the first Fetch. A failed
discovery is retried on the next Fetch.
*/
package jwks
