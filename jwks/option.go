package jwks

import (
	"fmt"
	"net/http"
	"net/url"
)

// ProviderOption is how options for the Provider are set up.
type ProviderOption func(*Provider) error

// WithURL sets the URL the JWKS document is fetched from.
func WithURL(jwksURL *url.URL) ProviderOption {
	return func(p *Provider) error {
		if jwksURL == nil {
			return fmt.Errorf("JWKS URL cannot be nil")
		}
		p.URL = jwksURL
		return nil
	}
}

// WithIssuerURL sets the OIDC issuer whose .well-known/openid-configuration
// advertises the JWKS URL. Ignored when WithURL is also given.
func WithIssuerURL(issuerURL *url.URL) ProviderOption {
	return func(p *Provider) error {
		if issuerURL == nil {
			return fmt.Errorf("issuer URL cannot be nil")
		}
		p.IssuerURL = issuerURL
		return nil
	}
}

// WithCustomClient sets a custom HTTP client for the Provider.
// If not specified, a pooled client with a 30s timeout is used.
func WithCustomClient(c *http.Client) ProviderOption {
	return func(p *Provider) error {
		if c == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		p.Client = c
		return nil
	}
}

// WithMaxBodySize limits how many bytes of the JWKS response are read.
func WithMaxBodySize(n int64) ProviderOption {
	return func(p *Provider) error {
		if n <= 0 {
			return fmt.Errorf("max body size must be positive")
		}
		p.MaxBodySize = n
		return nil
	}
}
