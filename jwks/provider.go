package jwks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/fabric-testbed/system-service-utils/internal/oidc"
)

const (
	// DefaultMaxBodySize bounds how much of a JWKS response is read.
	// 1MB is generous for JWKS (typically <10KB).
	DefaultMaxBodySize int64 = 1 << 20

	defaultTimeout = 30 * time.Second
)

// Provider fetches the JWKS document published at a URL and decodes it into
// a KeySet. It keeps no keys between calls; caching is the caller's concern.
//
// The URL is either given directly (WithURL) or discovered once from an
// OIDC issuer (WithIssuerURL).
type Provider struct {
	URL         *url.URL // Required unless IssuerURL is set.
	IssuerURL   *url.URL // Optional.
	Client      *http.Client
	MaxBodySize int64

	discoverMu sync.Mutex
}

// NewProvider builds and returns a new *Provider.
// One of WithURL or WithIssuerURL is required.
//
// Example:
//
//	provider, err := jwks.NewProvider(
//	    jwks.WithURL(jwksURL),
//	    jwks.WithCustomClient(myHTTPClient),
//	)
func NewProvider(opts ...ProviderOption) (*Provider, error) {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = defaultTimeout

	p := &Provider{
		Client:      client,
		MaxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if p.URL == nil && p.IssuerURL == nil {
		return nil, errors.New("JWKS URL is required (use WithURL or WithIssuerURL)")
	}

	return p, nil
}

// Fetch retrieves and decodes the JWKS document. Errors match either
// ErrUnableToFetchKeys or ErrUnableToDecodeKeys.
func (p *Provider) Fetch(ctx context.Context) (KeySet, error) {
	jwksURL, err := p.jwksURL(ctx)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	return fetch(ctx, p.Client, jwksURL, p.MaxBodySize)
}

// Fetch retrieves the JWKS document at jwksURL with client and decodes it.
// A nil client uses http.DefaultClient.
func Fetch(ctx context.Context, client *http.Client, jwksURL string) (KeySet, error) {
	if client == nil {
		client = http.DefaultClient
	}
	return fetch(ctx, client, jwksURL, DefaultMaxBodySize)
}

func fetch(ctx context.Context, client *http.Client, jwksURL string, maxBodySize int64) (KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Err: &StatusError{URL: jwksURL, StatusCode: resp.StatusCode}}
	}

	return Parse(io.LimitReader(resp.Body, maxBodySize))
}

// jwksURL returns the configured JWKS URL, discovering it from the issuer
// on first use. A failed discovery is retried on the next call.
func (p *Provider) jwksURL(ctx context.Context) (string, error) {
	p.discoverMu.Lock()
	defer p.discoverMu.Unlock()

	if p.URL != nil {
		return p.URL.String(), nil
	}

	wkEndpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(
		ctx,
		p.Client,
		*p.IssuerURL,
		p.IssuerURL.String(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to discover JWKS URI: %w", err)
	}

	discovered, err := url.Parse(wkEndpoints.JWKSURI)
	if err != nil {
		return "", fmt.Errorf("could not parse JWKS URI from well known endpoints: %w", err)
	}

	p.URL = discovered
	return p.URL.String(), nil
}
