/*
Package oidc provides OIDC (OpenID Connect) discovery functionality.

It resolves the JWKS endpoint of an issuer by fetching the
.well-known/openid-configuration document, so a key source can be configured
with an issuer URL instead of a JWKS URL.

# Usage

	issuerURL, _ := url.Parse("https://cilogon.org/")
	client := &http.Client{Timeout: 10 * time.Second}

	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, client, *issuerURL, issuerURL.String())
	if err != nil {
	    // network failure, non-200 status, invalid JSON,
	    // missing jwks_uri or issuer mismatch
	}

	jwksURI := endpoints.JWKSURI

# Specification

OpenID Connect Discovery 1.0
https://openid.net/specs/openid-connect-discovery-1_0.html
*/
package oidc
